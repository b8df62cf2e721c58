package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/ontotree/internal/graph"
)

// Key prefixes for FTS
const (
	prefixFTSToken = "fts:t:" // fts:t:token\x00nodeID -> frequency
	prefixFTSMeta  = "fts:m:" // fts:m:nodeID -> ftsMeta
)

var (
	separatorPattern = regexp.MustCompile(`[_\.\-\s:/#]+`)
	camelPattern     = regexp.MustCompile(`([a-z])([A-Z])`)
	letterDigit      = regexp.MustCompile(`([a-zA-Z])(\d)`)
	digitLetter      = regexp.MustCompile(`(\d)([a-zA-Z])`)
)

// ftsMeta is stored per indexed node so results and removals need no
// scan over the token keys.
type ftsMeta struct {
	ID     string         `json:"id"`
	Label  string         `json:"label"`
	Type   graph.NodeType `json:"type"`
	Tokens []string       `json:"tokens"`
}

// FTSIndex is a simple inverted index over node labels.
type FTSIndex struct {
	db *badger.DB
}

// NewFTSIndex creates a new FTS index using the given BadgerDB instance.
func NewFTSIndex(db *badger.DB) *FTSIndex {
	return &FTSIndex{db: db}
}

// tokenize splits a label into searchable tokens.
// Handles camelCase, snake_case, prefixed names and number boundaries.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	tokens := make(map[string]bool)

	// Full text as one token
	tokens[strings.ToLower(text)] = true

	// Split on common separators (_, ., -, :, /, #, space)
	for _, part := range separatorPattern.Split(text, -1) {
		if part == "" {
			continue
		}
		tokens[strings.ToLower(part)] = true

		// Split camelCase: "SubClassOf" -> "Sub", "Class", "Of"
		for _, p := range strings.Fields(camelPattern.ReplaceAllString(part, "$1 $2")) {
			tokens[strings.ToLower(p)] = true
		}

		// Split on number boundaries: "Level2" -> "Level", "2"
		numSplit := letterDigit.ReplaceAllString(part, "$1 $2")
		numSplit = digitLetter.ReplaceAllString(numSplit, "$1 $2")
		for _, p := range strings.Fields(numSplit) {
			tokens[strings.ToLower(p)] = true
		}
	}

	result := make([]string, 0, len(tokens))
	for token := range tokens {
		if token != "" {
			result = append(result, token)
		}
	}
	sort.Strings(result)
	return result
}

// scoreLabel counts how many query tokens occur in the label's tokens.
func scoreLabel(queryTokens []string, label string) float64 {
	labelTokens := make(map[string]bool)
	for _, t := range tokenize(label) {
		labelTokens[t] = true
	}
	var score float64
	for _, t := range queryTokens {
		if labelTokens[t] {
			score++
		}
	}
	return score
}

// rankResults sorts by score descending, then label and id, and applies limit.
func rankResults(results []SearchResult, limit int) []SearchResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Label != results[j].Label {
			return results[i].Label < results[j].Label
		}
		return results[i].NodeID < results[j].NodeID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func tokenKey(token, nodeID string) []byte {
	return []byte(prefixFTSToken + token + "\x00" + nodeID)
}

func metaKey(nodeID string) []byte {
	return []byte(prefixFTSMeta + nodeID)
}

// lookup returns the stored metadata of a node, or nil if it is not indexed.
func (f *FTSIndex) lookup(txn *badger.Txn, nodeID string) (*ftsMeta, error) {
	item, err := txn.Get(metaKey(nodeID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting fts metadata: %w", err)
	}

	var meta ftsMeta
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &meta)
	}); err != nil {
		return nil, fmt.Errorf("unmarshaling fts metadata: %w", err)
	}
	return &meta, nil
}

// stage writes the index entries of node into wb, dropping the tokens of
// old that the new label no longer produces.
func (f *FTSIndex) stage(wb *badger.WriteBatch, node graph.Node, old *ftsMeta) error {
	tokens := tokenize(node.Label)

	// Count token frequencies
	tokenFreq := make(map[string]int, len(tokens))
	for _, token := range tokens {
		tokenFreq[token]++
	}

	if old != nil {
		for _, token := range old.Tokens {
			if _, keep := tokenFreq[token]; keep {
				continue
			}
			if err := wb.Delete(tokenKey(token, node.ID)); err != nil {
				return fmt.Errorf("deleting token index: %w", err)
			}
		}
	}

	for token, freq := range tokenFreq {
		if err := wb.Set(tokenKey(token, node.ID), []byte(strconv.Itoa(freq))); err != nil {
			return fmt.Errorf("setting token index: %w", err)
		}
	}

	metaJSON, err := json.Marshal(ftsMeta{ID: node.ID, Label: node.Label, Type: node.Type, Tokens: tokens})
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := wb.Set(metaKey(node.ID), metaJSON); err != nil {
		return fmt.Errorf("setting metadata: %w", err)
	}
	return nil
}

// unstage removes every index entry of an indexed node.
func (f *FTSIndex) unstage(wb *badger.WriteBatch, old *ftsMeta) error {
	for _, token := range old.Tokens {
		if err := wb.Delete(tokenKey(token, old.ID)); err != nil {
			return fmt.Errorf("deleting token index: %w", err)
		}
	}
	if err := wb.Delete(metaKey(old.ID)); err != nil {
		return fmt.Errorf("deleting metadata: %w", err)
	}
	return nil
}

// Search performs full-text search with simple TF scoring.
func (f *FTSIndex) Search(query string, limit int) ([]SearchResult, error) {
	if f.db == nil {
		return []SearchResult{}, nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return []SearchResult{}, nil
	}

	nodeScores := make(map[string]float64)

	txn := f.db.NewTransaction(false)
	defer txn.Discard()

	for _, token := range queryTokens {
		prefix := prefixFTSToken + token + "\x00"
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			nodeID := strings.TrimPrefix(string(item.Key()), prefix)

			var freq int
			_ = item.Value(func(val []byte) error {
				freq, _ = strconv.Atoi(string(val))
				return nil
			})
			nodeScores[nodeID] += float64(freq)
		}
		it.Close()
	}

	results := make([]SearchResult, 0, len(nodeScores))
	for nodeID, score := range nodeScores {
		if score <= 0 {
			continue
		}
		meta, err := f.lookup(txn, nodeID)
		if err != nil || meta == nil {
			continue
		}
		results = append(results, SearchResult{
			NodeID: nodeID,
			Label:  meta.Label,
			Type:   meta.Type,
			Score:  score,
		})
	}

	return rankResults(results, limit), nil
}

// IndexSize returns the number of indexed tokens (for debugging/testing).
func (f *FTSIndex) IndexSize() (int, error) {
	if f.db == nil {
		return 0, nil
	}

	count := 0
	txn := f.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixFTSToken)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		count++
	}

	return count, nil
}
