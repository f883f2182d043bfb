package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/frontier/internal/solver"
	"github.com/roach88/frontier/internal/table"
)

// Report is the complete result of one run.
type Report struct {
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	TableDigest string    `json:"table_digest"`
	// Digest covers the settings and every rounded result, but not the run
	// ID or timestamp: two runs over the same table share it.
	Digest   string   `json:"digest"`
	Settings Settings `json:"settings"`

	Units   []string `json:"units"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`

	Efficiency EfficiencyResult `json:"efficiency"`
	Cross      CrossMatrix      `json:"cross"`
	Targets    Targets          `json:"targets"`

	// Failures collects every unit failure in stage order.
	Failures []*UnitError `json:"failures"`
}

// Run evaluates t through every stage and returns the report.
//
// Unit failures are recorded in the report. The returned error is non-nil
// only when the solver is unavailable, ctx is cancelled, or the table cannot
// be digested.
func (e *Engine) Run(ctx context.Context, t *table.Table) (*Report, error) {
	if err := solver.Check(e.solver); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("engine: nil table")
	}
	start := time.Now()
	runID := e.runIDs.Generate()
	log := e.logger.With("run_id", runID)
	log.Info("run starting", "units", t.Len(), "invalid", len(t.Problems()))

	tableDigest, err := TableDigest(t)
	if err != nil {
		return nil, err
	}

	eff, err := e.Efficiency(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("efficiency stage: %w", err)
	}
	cross, err := e.CrossEfficiency(ctx, t, eff.Standard)
	if err != nil {
		return nil, fmt.Errorf("cross-efficiency stage: %w", err)
	}
	targets, err := e.ClosestTargets(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("closest-target stage: %w", err)
	}

	rep := &Report{
		RunID:       runID,
		CreatedAt:   e.now().UTC(),
		TableDigest: tableDigest,
		Settings:    e.Settings(),
		Units:       t.Units(),
		Inputs:      t.Inputs(),
		Outputs:     t.Outputs(),
		Efficiency:  eff,
		Cross:       cross,
		Targets:     targets,
	}
	rep.Failures = append(rep.Failures, eff.Standard.Failures()...)
	rep.Failures = append(rep.Failures, eff.Super.Failures()...)
	rep.Failures = append(rep.Failures, cross.Failures()...)
	rep.Failures = append(rep.Failures, targets.Failures()...)

	rep.Digest, err = ReportDigest(rep)
	if err != nil {
		return nil, err
	}
	log.Info("run complete",
		"failures", len(rep.Failures),
		"digest", rep.Digest,
		"elapsed", time.Since(start),
	)
	return rep, nil
}
