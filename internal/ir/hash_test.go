package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestDeterminism(t *testing.T) {
	v := Object{"units": Strings([]string{"A", "B"}), "x": Floats([]float64{1, 2})}

	d1, err := TableDigest(v)
	require.NoError(t, err)
	d2, err := TableDigest(Object{"x": Floats([]float64{1, 2}), "units": Strings([]string{"A", "B"})})
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64, "SHA-256 hex is 64 characters")
}

func TestDigestDomainSeparation(t *testing.T) {
	v := Object{"a": Int(1)}
	table := MustDigest(DomainTable, v)
	report := MustDigest(DomainReport, v)
	assert.NotEqual(t, table, report)

	r, err := ReportDigest(v)
	require.NoError(t, err)
	assert.Equal(t, report, r)
}

func TestDigestChangesWithContent(t *testing.T) {
	a := MustDigest(DomainReport, Object{"score": Float(0.5)})
	b := MustDigest(DomainReport, Object{"score": Float(0.501)})
	assert.NotEqual(t, a, b)
}

func TestDigestKnownVector(t *testing.T) {
	// SHA256("frontier/table/v1" || 0x00 || "{}")
	want := hashWithDomain(DomainTable, []byte("{}"))
	assert.Equal(t, want, MustDigest(DomainTable, Object{}))
}

func TestDigestRejectsNonFinite(t *testing.T) {
	_, err := ReportDigest(Object{"score": Float(math.Inf(1))})
	assert.Error(t, err)
	assert.Panics(t, func() { MustDigest(DomainReport, Float(math.NaN())) })
}
