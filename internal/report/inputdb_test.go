package report

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFixtureDBs creates a minimal reporter + input database pair with one
// gene, one transcript and one validated search.
func buildFixtureDBs(t *testing.T) (reporterPath, inputPath string) {
	t.Helper()
	dir := t.TempDir()
	reporterPath = filepath.Join(dir, "species.sqlite")
	inputPath = filepath.Join(dir, "input.sqlite")
	buildFixtureDBsAt(t, reporterPath, inputPath)
	return reporterPath, inputPath
}

func buildFixtureDBsAt(t *testing.T, reporterPath, inputPath string) {
	t.Helper()

	rdb, err := sql.Open("sqlite", reporterPath)
	require.NoError(t, err)
	defer rdb.Close()

	stmts := []string{
		`CREATE TABLE orthograph_species_info (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE orthograph_ests (id INTEGER PRIMARY KEY, type INTEGER, header TEXT, sequence TEXT, digest TEXT)`,
		`CREATE TABLE orthograph_hmmsearch (id INTEGER PRIMARY KEY, taxid INTEGER, query TEXT, target TEXT,
			score REAL, evalue TEXT, hmm_start INTEGER, hmm_end INTEGER,
			ali_start INTEGER, ali_end INTEGER, env_start INTEGER, env_end INTEGER)`,
		`CREATE TABLE orthograph_blast (id INTEGER PRIMARY KEY, hmmsearch_id INTEGER, target INTEGER,
			score REAL, evalue TEXT, start INTEGER, end INTEGER)`,

		`INSERT INTO orthograph_species_info VALUES (4, 'Mantis religiosa')`,
		`INSERT INTO orthograph_ests VALUES (1, 2, 'tr1', 'ATGAAAACCGCCTATATTGCCAAACAGCGCATGAAAACCGCCTATATTGCCAAACAGCGC', 'd4c7')`,
		`INSERT INTO orthograph_hmmsearch VALUES (1, 4, 'EOG1X', 'd4c7', 300, '1e-50', 5, 55, 1, 10, 1, 12)`,
		`INSERT INTO orthograph_blast VALUES (1, 1, 7, 150, '1e-40', 3, 60)`,
		`INSERT INTO orthograph_blast VALUES (2, 1, 9, 90, '1e-10', 5, 40)`,
	}
	for _, s := range stmts {
		_, err := rdb.Exec(s)
		require.NoError(t, err)
	}

	idb, err := sql.Open("sqlite", inputPath)
	require.NoError(t, err)
	defer idb.Close()

	stmts = []string{
		`CREATE TABLE orthograph_set_details (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE orthograph_taxa (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE orthograph_aaseqs (id INTEGER PRIMARY KEY, taxid INTEGER, header TEXT, sequence TEXT)`,
		`CREATE TABLE orthograph_ntseqs (id INTEGER PRIMARY KEY, taxid INTEGER, header TEXT, sequence TEXT)`,
		`CREATE TABLE orthograph_sequence_pairs (id INTEGER PRIMARY KEY, aa_seq INTEGER, nt_seq INTEGER, taxid INTEGER)`,
		`CREATE TABLE orthograph_orthologs (sequence_pair INTEGER, ortholog_gene_id TEXT, setid INTEGER)`,

		`INSERT INTO orthograph_set_details VALUES (2, 'insecta')`,
		`INSERT INTO orthograph_taxa VALUES (3, 'Drosophila melanogaster')`,
		`INSERT INTO orthograph_aaseqs VALUES (7, 3, 'FBpp1', 'MKTAYIAKQR')`,
		`INSERT INTO orthograph_ntseqs VALUES (17, 3, 'FBpp1', 'ATGAAAACCGCCTATATTGCCAAACAGCGC')`,
		`INSERT INTO orthograph_sequence_pairs VALUES (11, 7, 17, 3)`,
		`INSERT INTO orthograph_orthologs VALUES (11, 'EOG1X', 2)`,
	}
	for _, s := range stmts {
		_, err := idb.Exec(s)
		require.NoError(t, err)
	}
}

func TestInputStore(t *testing.T) {
	reporterPath, inputPath := buildFixtureDBs(t)

	store, err := OpenInputStore(reporterPath, inputPath, "orthograph")
	require.NoError(t, err)
	defer store.Close()

	speciesID, err := store.SpeciesID("Mantis religiosa")
	require.NoError(t, err)
	assert.Equal(t, 4, speciesID)

	_, err = store.SpeciesID("unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	setID, err := store.SetID("insecta")
	require.NoError(t, err)
	assert.Equal(t, 2, setID)

	taxa, err := store.ReferenceTaxa(setID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drosophila melanogaster"}, taxa)

	aaseq, err := store.AaseqByGene(setID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"EOG1X": {7}}, aaseq)

	var cands []HmmSearchCandidate
	err = store.StreamCandidates(speciesID, setID, 10, 5, func(c HmmSearchCandidate) error {
		cands = append(cands, c)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "EOG1X", cands[0].GeneID)
	assert.Equal(t, 1, cands[0].HmmID)
	assert.Equal(t, "tr1", cands[0].Header)
	// the non-orf window covers ali_start..ali_end residues of the transcript
	assert.Equal(t, "ATGAAAACCG", cands[0].NonOrfSequence)

	// a higher score floor filters the candidate out
	count := 0
	err = store.StreamCandidates(speciesID, setID, 1000, 5, func(HmmSearchCandidate) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, count)

	blasts, err := store.BlastResults(1, 0)
	require.NoError(t, err)
	require.Len(t, blasts, 2)
	assert.Equal(t, 7, blasts[0].Target)
	assert.Equal(t, 150.0, blasts[0].Score)

	limited, err := store.BlastResults(1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	name, err := store.RefTaxonName(7)
	require.NoError(t, err)
	assert.Equal(t, "Drosophila melanogaster", name)

	est, err := store.EstSequence("tr1")
	require.NoError(t, err)
	assert.Len(t, est, 60)

	aaSeq, taxID, err := store.AaSequence(7)
	require.NoError(t, err)
	assert.Equal(t, "MKTAYIAKQR", aaSeq)
	assert.Equal(t, 3, taxID)

	cores, err := store.CoreSequences("EOG1X", "aa")
	require.NoError(t, err)
	require.Len(t, cores, 1)
	assert.Equal(t, "MKTAYIAKQR", cores[0].Sequence)

	ntCores, err := store.CoreSequences("EOG1X", "nt")
	require.NoError(t, err)
	require.Len(t, ntCores, 1)
	assert.Equal(t, "FBpp1", ntCores[0].Header)

	cand, err := store.CandidateByID(1)
	require.NoError(t, err)
	assert.Equal(t, "EOG1X", cand.GeneID)
	assert.Equal(t, "d4c7", cand.Digest)
}
