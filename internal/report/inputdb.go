package report

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup that matched no row. Callers treat it as
// fatal for the run.
var ErrNotFound = errors.New("not found")

// InputStore is the read-only view over the pipeline databases: the
// per-species reporter database holding transcripts, HMM searches and
// BLAST validations, with the ortholog-set database attached as "input".
type InputStore struct {
	db     *sql.DB
	prefix string
}

// OpenInputStore opens the reporter database and attaches the input
// database, the way every tool in the pipeline shares them.
func OpenInputStore(reporterPath, inputPath, prefix string) (*InputStore, error) {
	if _, err := os.Stat(reporterPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("sqlite database does not exist at %s", reporterPath)
	}

	db, err := sql.Open("sqlite", reporterPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", reporterPath, err)
	}
	if _, err := db.Exec(`ATTACH ? AS input`, inputPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("attach input database %s: %w", inputPath, err)
	}

	return &InputStore{db: db, prefix: prefix}, nil
}

// Close closes the database connection.
func (s *InputStore) Close() error {
	return s.db.Close()
}

func (s *InputStore) table(name string) string {
	return s.prefix + "_" + name
}

func (s *InputStore) inputTable(name string) string {
	return "input." + s.prefix + "_" + name
}

// SpeciesID resolves a species name to its id.
func (s *InputStore) SpeciesID(name string) (int, error) {
	q := fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, s.table("species_info"))
	var id int
	err := s.db.QueryRow(q, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("species %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("query species id: %w", err)
	}
	return id, nil
}

// SetID resolves an ortholog set name to its id.
func (s *InputStore) SetID(name string) (int, error) {
	q := fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, s.inputTable("set_details"))
	var id int
	err := s.db.QueryRow(q, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("ortholog set %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("query set id: %w", err)
	}
	return id, nil
}

// ReferenceTaxa returns the distinct taxon names contributing sequences to
// the set, in database order.
func (s *InputStore) ReferenceTaxa(setID int) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT t.name
		FROM %s p, %s t, %s l
		WHERE t.id = p.taxid AND l.sequence_pair = p.id AND l.setid = ?`,
		s.inputTable("sequence_pairs"), s.inputTable("taxa"), s.inputTable("orthologs"))

	rows, err := s.db.Query(q, setID)
	if err != nil {
		return nil, fmt.Errorf("query reference taxa: %w", err)
	}
	defer rows.Close()

	var taxa []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		taxa = append(taxa, name)
	}
	return taxa, rows.Err()
}

// AaseqByGene maps each gene of the set to the protein sequence ids that
// built its profile.
func (s *InputStore) AaseqByGene(setID int) (map[string][]int, error) {
	q := fmt.Sprintf(`SELECT DISTINCT l.ortholog_gene_id, a.id
		FROM %s l, %s a, %s p
		WHERE l.sequence_pair = p.id AND p.aa_seq = a.id AND l.setid = ?`,
		s.inputTable("orthologs"), s.inputTable("aaseqs"), s.inputTable("sequence_pairs"))

	rows, err := s.db.Query(q, setID)
	if err != nil {
		return nil, fmt.Errorf("query aa sequences in set: %w", err)
	}
	defer rows.Close()

	aaseq := make(map[string][]int)
	for rows.Next() {
		var gene string
		var id int
		if err := rows.Scan(&gene, &id); err != nil {
			return nil, err
		}
		aaseq[gene] = append(aaseq[gene], id)
	}
	return aaseq, rows.Err()
}

// StreamCandidates walks the hmmsearch/ortholog join ordered by score
// descending, calling fn for each candidate above the score and length
// thresholds. The walk stops on the first error from fn.
func (s *InputStore) StreamCandidates(speciesID, setID int, minScore float64, minLen int, fn func(HmmSearchCandidate) error) error {
	q := fmt.Sprintf(`SELECT DISTINCT
		l.ortholog_gene_id,
		p.aa_seq,
		p.nt_seq,
		s.taxid,
		s.id,
		s.score,
		s.target,
		s.evalue,
		s.hmm_start,
		s.hmm_end,
		s.ali_start,
		s.ali_end,
		s.env_start,
		s.env_end,
		e.header,
		substr(e.sequence, s.ali_start, (s.ali_end - s.ali_start + 1))
		FROM %s s, %s l, %s e, %s p
		WHERE
			s.target = e.digest AND
			s.query = l.ortholog_gene_id AND
			l.sequence_pair = p.id AND
			e.digest IS NOT NULL AND
			s.score >= ? AND
			s.taxid = ? AND
			l.setid = ? AND
			(s.ali_end - s.ali_start) + 1 >= ?
		GROUP BY s.id ORDER BY s.score DESC`,
		s.table("hmmsearch"), s.inputTable("orthologs"), s.table("ests"), s.inputTable("sequence_pairs"))

	rows, err := s.db.Query(q, minScore, speciesID, setID, minLen)
	if err != nil {
		return fmt.Errorf("query hmm search candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c HmmSearchCandidate
		if err := rows.Scan(
			&c.GeneID, &c.AaseqID, &c.NtseqID, &c.TaxID, &c.HmmID,
			&c.Score, &c.Digest, &c.Evalue,
			&c.HmmStart, &c.HmmEnd, &c.AliStart, &c.AliEnd, &c.EnvStart, &c.EnvEnd,
			&c.Header, &c.NonOrfSequence,
		); err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

// BlastResults returns the reciprocal BLAST rows for one HMM search,
// ranked by score descending and truncated to limit when limit > 0.
func (s *InputStore) BlastResults(hmmsearchID, limit int) ([]BlastResult, error) {
	q := fmt.Sprintf(`SELECT DISTINCT
		b.target,
		b.score,
		b.evalue,
		b.start,
		b.end
		FROM %s b, %s s, %s e
		WHERE
		s.id = b.hmmsearch_id AND
		e.digest = s.target AND
		s.target IS NOT NULL AND
		b.hmmsearch_id = ?
		ORDER BY b.score DESC`,
		s.table("blast"), s.table("hmmsearch"), s.table("ests"))

	rows, err := s.db.Query(q, hmmsearchID)
	if err != nil {
		return nil, fmt.Errorf("query blast results for hmm search %d: %w", hmmsearchID, err)
	}
	defer rows.Close()

	var results []BlastResult
	for rows.Next() {
		var b BlastResult
		if err := rows.Scan(&b.Target, &b.Score, &b.Evalue, &b.ResStart, &b.ResEnd); err != nil {
			return nil, err
		}
		results = append(results, b)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, rows.Err()
}

// RefTaxonName resolves the taxon name a protein sequence belongs to.
func (s *InputStore) RefTaxonName(aaseqID int) (string, error) {
	q := fmt.Sprintf(`SELECT t.name FROM %s t, %s a WHERE t.id = a.taxid AND a.id = ?`,
		s.inputTable("taxa"), s.inputTable("aaseqs"))
	var name string
	err := s.db.QueryRow(q, aaseqID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("ref taxon for aaseq %d: %w", aaseqID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query ref taxon name: %w", err)
	}
	return name, nil
}

// EstSequence returns the full transcript for a base header.
func (s *InputStore) EstSequence(headerBase string) (string, error) {
	q := fmt.Sprintf(`SELECT sequence FROM %s WHERE header = ?`, s.table("ests"))
	var seq string
	err := s.db.QueryRow(q, headerBase).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("transcript %q: %w", headerBase, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query est sequence: %w", err)
	}
	return seq, nil
}

// AaSequence returns the reference protein sequence and its taxon id.
func (s *InputStore) AaSequence(aaseqID int) (string, int, error) {
	q := fmt.Sprintf(`SELECT sequence, taxid FROM %s WHERE id = ?`, s.inputTable("aaseqs"))
	var seq string
	var taxID int
	err := s.db.QueryRow(q, aaseqID).Scan(&seq, &taxID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, fmt.Errorf("aa sequence %d: %w", aaseqID, ErrNotFound)
	}
	if err != nil {
		return "", 0, fmt.Errorf("query aa sequence: %w", err)
	}
	return seq, taxID, nil
}

// TaxonName resolves a taxon id to its name.
func (s *InputStore) TaxonName(taxID int) (string, error) {
	q := fmt.Sprintf(`SELECT name FROM %s WHERE id = ?`, s.inputTable("taxa"))
	var name string
	err := s.db.QueryRow(q, taxID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("taxon %d: %w", taxID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query taxon name: %w", err)
	}
	return name, nil
}

// CoreSequences returns the set's reference sequences for a gene, amino
// acid or nucleotide depending on seqType ("aa" or "nt"), ordered by taxon
// name then header.
func (s *InputStore) CoreSequences(geneID, seqType string) ([]CoreSequence, error) {
	q := fmt.Sprintf(`SELECT l.ortholog_gene_id, t.name, a.header, a.sequence
		FROM %s a, %s t, %s p, %s l
		WHERE
		l.ortholog_gene_id = ? AND
		p.%s_seq = a.id AND
		l.sequence_pair = p.id AND
		a.taxid = t.id
		ORDER BY t.name, a.header`,
		s.inputTable(seqType+"seqs"), s.inputTable("taxa"), s.inputTable("sequence_pairs"),
		s.inputTable("orthologs"), seqType)

	rows, err := s.db.Query(q, geneID)
	if err != nil {
		return nil, fmt.Errorf("query core %s sequences for %s: %w", seqType, geneID, err)
	}
	defer rows.Close()

	var seqs []CoreSequence
	for rows.Next() {
		var c CoreSequence
		if err := rows.Scan(&c.GeneID, &c.TaxaName, &c.Header, &c.Sequence); err != nil {
			return nil, err
		}
		seqs = append(seqs, c)
	}
	return seqs, rows.Err()
}

// CandidateByID returns the single candidate row for one HMM search id.
// Used by the recheck command.
func (s *InputStore) CandidateByID(hmmsearchID int) (HmmSearchCandidate, error) {
	q := fmt.Sprintf(`SELECT
		s.query,
		s.taxid,
		s.id,
		s.score,
		s.target,
		s.evalue,
		s.hmm_start,
		s.hmm_end,
		s.ali_start,
		s.ali_end,
		s.env_start,
		s.env_end,
		e.header,
		substr(e.sequence, s.ali_start, (s.ali_end - s.ali_start + 1))
		FROM %s s, %s e
		WHERE s.target = e.digest AND s.id = ?`,
		s.table("hmmsearch"), s.table("ests"))

	var c HmmSearchCandidate
	err := s.db.QueryRow(q, hmmsearchID).Scan(
		&c.GeneID, &c.TaxID, &c.HmmID, &c.Score, &c.Digest, &c.Evalue,
		&c.HmmStart, &c.HmmEnd, &c.AliStart, &c.AliEnd, &c.EnvStart, &c.EnvEnd,
		&c.Header, &c.NonOrfSequence,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("hmm search %d: %w", hmmsearchID, ErrNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("query hmm search %d: %w", hmmsearchID, err)
	}
	return c, nil
}
