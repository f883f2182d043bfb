// Package harness runs evaluation scenarios: a table plus expectations about
// the report computed from it.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: three_units
//	description: "Unit 3 is dominated by the mix of units 1 and 2"
//	settings:
//	  precision: 3
//	table:
//	  inputs: [x1, x2]
//	  outputs: [y]
//	  units:
//	    - {id: "1", x: [2, 1], y: [1]}
//	    - {id: "2", x: [1, 2], y: [1]}
//	    - {id: "3", x: [3, 3], y: [1]}
//	assertions:
//	  - {type: score, model: ccr, unit: "3", value: 0.5}
//	  - {type: target, unit: "1", value: 0.5, facet: ["2"]}
//
// Instead of table, csv names the data files relative to the scenario:
//
//	csv:
//	  inputs: inputs.csv
//	  outputs: outputs.csv
//
// # Assertion Types
//
//   - score: rounded ccr or super score of a unit
//   - failure: a unit failed under a formulation with a given code
//   - cross: rounded entry (rater, unit) of the cross-efficiency matrix
//   - cross_mean: rounded mean peer appraisal of a unit
//   - target: closest-target score and/or facet of a unit
//   - failure_count: total number of failures in the report
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run ID (scenario.run_id, or
// "scenario-<name>") and a fixed timestamp, and is archived in an in-memory
// SQLite store and loaded back before assertions run. Reports are therefore
// reproducible and golden snapshots (see Snapshot) are byte-stable.
package harness
