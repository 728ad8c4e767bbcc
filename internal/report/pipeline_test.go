package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortholab/orthoreport/internal/config"
)

// one clean reciprocal hit runs the whole pipeline and lands in every
// output file
func TestProcessSingleCleanHit(t *testing.T) {
	outputDir := t.TempDir()
	inputPath := filepath.Join(t.TempDir(), "input.sqlite")
	buildFixtureDBsAt(t, filepath.Join(outputDir, "Mantis religiosa.sqlite"), inputPath)

	conf := &config.Config{
		SqliteDatabase:           inputPath,
		OutputDir:                outputDir,
		SpeciesName:              "Mantis religiosa",
		OrthologSet:              "insecta",
		TablePrefix:              "orthograph",
		HeaderSeparator:          "|",
		HmmsearchScoreThreshold:  10,
		MinTranscriptLength:      5,
		EnvOverlapThreshold:      0.3,
		EnvScoreDiscardThreshold: 2.0,
		HmmOverlapThreshold:      0.3,
		HmmScoreDiscardThreshold: 2.0,
		MaxReciprocalMismatches:  10,
		MaxBlastHits:             100,
		EnableEnvOverlap:         true,
		EnableHmmOverlap:         true,
		FrameshiftCorrection:     false,
		NumThreads:               2,
	}

	require.NoError(t, New(conf).Process(context.Background()))

	brh := readOutputFile(t, outputDir, "best-reciprocal-hits.txt")
	assert.Contains(t, brh, "EOG1X\ttr1\t1\t10\t300\t1e-50\t5\t55")
	assertFileContains(t, outputDir, "non-overlapping-best-reciprocal-hits.txt", "EOG1X")

	aa := readOutputFile(t, outputDir, filepath.Join("aa", "EOG1X.aa.fa"))
	nt := readOutputFile(t, outputDir, filepath.Join("nt", "EOG1X.nt.fa"))
	// core reference record plus the accepted hit
	assert.Contains(t, aa, ">EOG1X|Drosophila melanogaster|FBpp1|1-10|.|.")
	assert.Contains(t, aa, ">EOG1X|Mantis religiosa|tr1|1-10|")
	assert.Contains(t, nt, ">EOG1X|Drosophila melanogaster|FBpp1|1-30|.|.")

	report := readOutputFile(t, outputDir, "report.txt")
	assert.Contains(t, report, "Skipped No ORF: 0")

	assertFileContains(t, outputDir, "summary.txt", "EOG1X\t1")

	// nothing was filtered
	filtered := readOutputFile(t, outputDir, "filtered-hits.txt")
	assert.Empty(t, filtered)
}

func TestProcessBrhOnly(t *testing.T) {
	outputDir := t.TempDir()
	inputPath := filepath.Join(t.TempDir(), "input.sqlite")
	buildFixtureDBsAt(t, filepath.Join(outputDir, "Mantis religiosa.sqlite"), inputPath)

	conf := &config.Config{
		SqliteDatabase:           inputPath,
		OutputDir:                outputDir,
		SpeciesName:              "Mantis religiosa",
		OrthologSet:              "insecta",
		TablePrefix:              "orthograph",
		HeaderSeparator:          "|",
		HmmsearchScoreThreshold:  10,
		MinTranscriptLength:      5,
		EnvOverlapThreshold:      0.3,
		EnvScoreDiscardThreshold: 2.0,
		HmmOverlapThreshold:      0.3,
		HmmScoreDiscardThreshold: 2.0,
		MaxReciprocalMismatches:  10,
		MaxBlastHits:             100,
		EnableEnvOverlap:         true,
		EnableHmmOverlap:         true,
		BrhOnly:                  true,
		NumThreads:               1,
	}

	require.NoError(t, New(conf).Process(context.Background()))

	assertFileContains(t, outputDir, "best-reciprocal-hits.txt", "EOG1X")

	// the sequence stage never ran
	_, err := os.Stat(filepath.Join(outputDir, "aa", "EOG1X.aa.fa"))
	assert.True(t, os.IsNotExist(err))
}
