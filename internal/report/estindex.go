package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"modernc.org/kv"
)

// EstIndex is a read-only view over the transcript key-value index written
// by the indexing tool. The key layout is flat: "hmmsearch:<i>" holds a
// JSON blob, any other key is a transcript header (spaces replaced with
// underscores) mapping to the raw sequence bytes.
type EstIndex struct {
	db *kv.DB
}

// IndexedSearch is the JSON blob stored per HMM search.
type IndexedSearch struct {
	ID       int     `json:"id"`
	GeneID   string  `json:"gene_id"`
	Target   string  `json:"target"`
	Score    float64 `json:"score"`
	AliStart int     `json:"ali_start"`
	AliEnd   int     `json:"ali_end"`
}

// OpenEstIndex opens an existing transcript index.
func OpenEstIndex(path string) (*EstIndex, error) {
	db, err := kv.Open(path, &kv.Options{})
	if err != nil {
		return nil, fmt.Errorf("open est index %s: %w", path, err)
	}
	return &EstIndex{db: db}, nil
}

// Close closes the index.
func (ix *EstIndex) Close() error {
	return ix.db.Close()
}

// Sequence looks a transcript up by its base header. The second return is
// false when the index has no entry for the header.
func (ix *EstIndex) Sequence(headerBase string) (string, bool, error) {
	key := strings.ReplaceAll(headerBase, " ", "_")
	val, err := ix.db.Get(nil, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("est index get %q: %w", key, err)
	}
	if val == nil {
		return "", false, nil
	}
	return string(val), true, nil
}

// HmmSearch decodes the indexed blob for one HMM search id.
func (ix *EstIndex) HmmSearch(id int) (*IndexedSearch, error) {
	key := fmt.Sprintf("hmmsearch:%d", id)
	val, err := ix.db.Get(nil, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("est index get %q: %w", key, err)
	}
	if val == nil {
		return nil, fmt.Errorf("est index %q: %w", key, ErrNotFound)
	}
	var search IndexedSearch
	if err := json.Unmarshal(val, &search); err != nil {
		return nil, fmt.Errorf("est index decode %q: %w", key, err)
	}
	return &search, nil
}
