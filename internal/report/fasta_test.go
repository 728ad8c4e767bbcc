package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the ryo template prints a cdna record with target coordinates followed
// by the matched query window
func TestParseIndexedFasta(t *testing.T) {
	out := ">cdna 12 300\nATGGCC\nTTTAAA\n>aa 3 100\nMAFK\n"

	records := parseIndexedFasta(out)
	require.Len(t, records, 2)

	cdna, ok := records["cdna1"]
	require.True(t, ok)
	assert.Equal(t, 12, cdna.CoordStart)
	assert.Equal(t, 300, cdna.CoordEnd)
	assert.Equal(t, "ATGGCCTTTAAA", cdna.Sequence)

	aa, ok := records["aa2"]
	require.True(t, ok)
	assert.Equal(t, 3, aa.CoordStart)
	assert.Equal(t, 100, aa.CoordEnd)
	assert.Equal(t, "MAFK", aa.Sequence)
}

func TestParseIndexedFastaNoCoords(t *testing.T) {
	records := parseIndexedFasta(">cdna\nATG\n")
	require.Len(t, records, 1)

	rec := records["cdna1"]
	assert.Zero(t, rec.CoordStart)
	assert.Zero(t, rec.CoordEnd)
	assert.Equal(t, "ATG", rec.Sequence)
}

func TestParseIndexedFastaEmpty(t *testing.T) {
	assert.Empty(t, parseIndexedFasta(""))
}
