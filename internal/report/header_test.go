package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateHeader(t *testing.T) {
	tests := []struct {
		header    string
		base      string
		revcomp   bool
		translate int
	}{
		{"tr1", "tr1", false, 0},
		{"tr1 [revcomp]", "tr1", true, 0},
		{"tr1 [translate(2)]", "tr1", false, 2},
		{"tr1 [revcomp]:[translate(3)]", "tr1", true, 3},
		{"tr1: [revcomp]", "tr1", true, 0},
		{"tr1  ", "tr1", false, 0},
	}

	for _, tt := range tests {
		base, revcomp, translate := TranslateHeader(tt.header)
		assert.Equal(t, tt.base, base, tt.header)
		assert.Equal(t, tt.revcomp, revcomp, tt.header)
		assert.Equal(t, tt.translate, translate, tt.header)
	}
}

// a translated header formats back to itself and is stable under a second
// round trip
func TestHeaderRoundTrip(t *testing.T) {
	headers := []string{
		"tr1",
		"contig88 [revcomp]",
		"contig88 [translate(2)]",
		"contig88 [revcomp]:[translate(1)]",
	}

	for _, header := range headers {
		base, revcomp, translate := TranslateHeader(header)
		formatted := FormatHeader(base, revcomp, translate)
		assert.Equal(t, header, formatted)

		base2, revcomp2, translate2 := TranslateHeader(formatted)
		assert.Equal(t, base, base2)
		assert.Equal(t, revcomp, revcomp2)
		assert.Equal(t, translate, translate2)
	}
}

func TestReadingFrame(t *testing.T) {
	assert.Equal(t, ".", readingFrame(true, 2, "nt"))
	assert.Equal(t, "", readingFrame(false, 0, "aa"))
	assert.Equal(t, "[revcomp]", readingFrame(true, 0, "aa"))
	assert.Equal(t, "[translate(2)]", readingFrame(false, 2, "aa"))
	assert.Equal(t, "[revcomp]:[translate(2)]", readingFrame(true, 2, "aa"))
}
