package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlastTabular(t *testing.T) {
	out := "# BLASTP 2.12.0+\n" +
		"# Query: abc123\n" +
		"# Fields: query id, subject id, evalue, bit score, q. start, q. end\n" +
		"abc123\t7\t1e-50\t150.2\t3\t60\n" +
		"abc123\t9\t1e-20\t88\t5\t40\n" +
		"\n"

	hits := parseBlastTabular(out)
	require.Len(t, hits, 2)

	assert.Equal(t, "abc123", hits[0].Query)
	assert.Equal(t, "7", hits[0].Target)
	assert.Equal(t, "1e-50", hits[0].Evalue)
	assert.Equal(t, 150.2, hits[0].Score)
	assert.Equal(t, 3, hits[0].Start)
	assert.Equal(t, 60, hits[0].End)

	assert.Equal(t, 88.0, hits[1].Score)
}

func TestParseBlastTabularSkipsShortRows(t *testing.T) {
	assert.Empty(t, parseBlastTabular("abc\t7\t1e-50\n"))
	assert.Empty(t, parseBlastTabular(""))
}

func TestBlastCmdRequiresInputs(t *testing.T) {
	_, err := blastCmd{Query: "q.fa"}.BuildCommand()
	assert.Error(t, err)
	_, err = blastCmd{Database: "db"}.BuildCommand()
	assert.Error(t, err)

	cmd, err := blastCmd{
		OutFormat:     blastFields,
		Database:      "refdb",
		Query:         "q.fa",
		Out:           "out.txt",
		EValue:        1e-5,
		MaxTargetSeqs: 100,
	}.BuildCommand()
	require.NoError(t, err)
	assert.Contains(t, cmd.Args, "-outfmt")
	assert.Contains(t, cmd.Args, blastFields)
	assert.Contains(t, cmd.Args, "refdb")
}
