package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveSequenceFiles(t *testing.T) {
	conf := testConf(t)
	require.NoError(t, os.MkdirAll(filepath.Join(conf.OutputDir, "aa"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(conf.OutputDir, "nt"), 0755))

	input := &fakeInput{
		taxaNames: map[int]string{3: "Drosophila melanogaster"},
		cores: map[string][]CoreSequence{
			"EOG1X/aa": {{GeneID: "EOG1X", TaxaName: "Drosophila melanogaster", Header: "FBpp1", Sequence: "MAFKQ"}},
			"EOG1X/nt": {{GeneID: "EOG1X", TaxaName: "Drosophila melanogaster", Header: "FBpp1", Sequence: "ATGGCCTTTAAACAA"}},
		},
	}
	kit := newTestKit(conf, input)

	id := kit.Working.InsertHit(Hit{
		GeneID: "EOG1X", HeaderBase: "tr1", HeaderRevcomp: true, Score: 300,
	})
	require.NoError(t, kit.Working.InsertOrf(OrfTranscript{
		HitID: id, TaxID: 3,
		AaStartTranscript: 10, AaEndTranscript: 19,
		TranslatedSeq: "MKTAYIAKQR", CdnaSeq: "ATGAAAACCGCCTATATTGCCAAACAGCGC",
	}))

	require.NoError(t, SaveSequenceFiles(kit))

	aa := readOutputFile(t, conf.OutputDir, filepath.Join("aa", "EOG1X.aa.fa"))
	nt := readOutputFile(t, conf.OutputDir, filepath.Join("nt", "EOG1X.nt.fa"))

	// one core record plus one accepted hit each
	assert.Equal(t, 2, strings.Count(aa, ">"))
	assert.Equal(t, 2, strings.Count(nt, ">"))

	assert.Contains(t, aa, ">EOG1X|Drosophila melanogaster|FBpp1|1-5|.|.\nMAFKQ\n")
	assert.Contains(t, aa, ">EOG1X|Testus species|tr1|10-19|[revcomp]|Drosophila melanogaster\nMKTAYIAKQR\n")

	// nucleotide headers never carry a reading frame
	assert.Contains(t, nt, ">EOG1X|Testus species|tr1|10-19|.|Drosophila melanogaster\nATGAAAACCGCCTATATTGCCAAACAGCGC\n")
}

func TestSaveSequenceFilesSkipsShortAndDuplicate(t *testing.T) {
	conf := testConf(t)
	conf.MinTranscriptLength = 5
	require.NoError(t, os.MkdirAll(filepath.Join(conf.OutputDir, "aa"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(conf.OutputDir, "nt"), 0755))

	input := &fakeInput{taxaNames: map[int]string{3: "taxon"}}
	kit := newTestKit(conf, input)

	short := kit.Working.InsertHit(Hit{GeneID: "EOG1X", HeaderBase: "tr1"})
	require.NoError(t, kit.Working.InsertOrf(OrfTranscript{
		HitID: short, TaxID: 3, TranslatedSeq: "MK", CdnaSeq: "ATGAAA",
	}))

	a := kit.Working.InsertHit(Hit{GeneID: "EOG1X", HeaderBase: "tr2"})
	require.NoError(t, kit.Working.InsertOrf(OrfTranscript{
		HitID: a, TaxID: 3, TranslatedSeq: "MKTAY", CdnaSeq: "ATGAAAACCGCCTAT",
	}))

	// identical translation collapses onto the first hit
	b := kit.Working.InsertHit(Hit{GeneID: "EOG1X", HeaderBase: "tr3"})
	require.NoError(t, kit.Working.InsertOrf(OrfTranscript{
		HitID: b, TaxID: 3, TranslatedSeq: "MKTAY", CdnaSeq: "ATGAAAACCGCCTAT",
	}))

	require.NoError(t, SaveSequenceFiles(kit))

	aa := readOutputFile(t, conf.OutputDir, filepath.Join("aa", "EOG1X.aa.fa"))
	assert.Equal(t, 1, strings.Count(aa, ">"))
	assert.Contains(t, aa, "tr2")
	assert.NotContains(t, aa, "tr1|")
	assert.NotContains(t, aa, "tr3")
}

func TestSaveSequenceFilesSubstitutions(t *testing.T) {
	conf := testConf(t)
	conf.SubstituteUWith = "C"
	conf.FillWithX = true
	require.NoError(t, os.MkdirAll(filepath.Join(conf.OutputDir, "aa"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(conf.OutputDir, "nt"), 0755))

	input := &fakeInput{taxaNames: map[int]string{3: "taxon"}}
	kit := newTestKit(conf, input)

	id := kit.Working.InsertHit(Hit{GeneID: "EOG1X", HeaderBase: "tr1"})
	require.NoError(t, kit.Working.InsertOrf(OrfTranscript{
		HitID: id, TaxID: 3, AaStartTranscript: 3, AaEndTranscript: 6,
		TranslatedSeq: "MUKT", CdnaSeq: "ATGAAAACCGCC",
	}))

	require.NoError(t, SaveSequenceFiles(kit))

	aa := readOutputFile(t, conf.OutputDir, filepath.Join("aa", "EOG1X.aa.fa"))
	assert.Contains(t, aa, "\nXXMCKT\n")
	// the nucleotide record is untouched
	nt := readOutputFile(t, conf.OutputDir, filepath.Join("nt", "EOG1X.nt.fa"))
	assert.Contains(t, nt, "\nATGAAAACCGCC\n")
}
