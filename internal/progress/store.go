// Package progress persists in-flight attempts and finalized results in a key-value store.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"dailygraph-quiz/internal/domain"
)

const (
	// ProgressPrefix scopes resumable progress records by entry id.
	ProgressPrefix = "quiz_progress_"
	// ResultPrefix scopes finalized result records by entry id.
	ResultPrefix = "quiz_result_"
	// ResultsIndexKey holds the map of every result keyed by entry id.
	ResultsIndexKey = "dailygraph_quiz_results"
)

// KV is the key-value backend (in-memory, Redis, SQLite).
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Store reads and writes progress and result records. Corrupt records are logged and
// treated as absent.
type Store struct {
	kv        KV
	namespace string
	indexMu   *sync.Mutex
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, indexMu: &sync.Mutex{}}
}

// ForLearner returns a Store whose keys are scoped to one learner.
func (s *Store) ForLearner(learnerID string) *Store {
	if learnerID == "" {
		return s
	}
	return &Store{kv: s.kv, namespace: "learner:" + learnerID + ":", indexMu: s.indexMu}
}

func (s *Store) progressKey(entryID string) string { return s.namespace + ProgressPrefix + entryID }
func (s *Store) resultKey(entryID string) string   { return s.namespace + ResultPrefix + entryID }
func (s *Store) indexKey() string                  { return s.namespace + ResultsIndexKey }

func (s *Store) SaveProgress(ctx context.Context, p domain.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	return s.kv.Set(ctx, s.progressKey(p.EntryID), string(data))
}

func (s *Store) LoadProgress(ctx context.Context, entryID string) (domain.Progress, bool) {
	var p domain.Progress
	if !s.read(ctx, s.progressKey(entryID), &p) {
		return domain.Progress{}, false
	}
	return p, true
}

func (s *Store) DeleteProgress(ctx context.Context, entryID string) error {
	return s.kv.Delete(ctx, s.progressKey(entryID))
}

// SaveResult writes the per-entry record and merges it into the results index. indexMu
// only serializes writers in this process; Results repairs the index from the per-entry
// records when writers on other replicas race.
func (s *Store) SaveResult(ctx context.Context, entryID string, r domain.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.kv.Set(ctx, s.resultKey(entryID), string(data)); err != nil {
		return err
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	index := s.Results(ctx)
	index[entryID] = r
	encoded, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshal results index: %w", err)
	}
	return s.kv.Set(ctx, s.indexKey(), string(encoded))
}

func (s *Store) LoadResult(ctx context.Context, entryID string) (domain.Result, bool) {
	var r domain.Result
	if s.read(ctx, s.resultKey(entryID), &r) {
		return r, true
	}
	if r, ok := s.Results(ctx)[entryID]; ok {
		return r, true
	}
	return domain.Result{}, false
}

// Results returns every result keyed by entry id. Per-entry records are merged over the
// index, so an index write lost to another replica does not hide a result. A missing or
// corrupt index is treated as empty.
func (s *Store) Results(ctx context.Context) map[string]domain.Result {
	index := make(map[string]domain.Result)
	if !s.read(ctx, s.indexKey(), &index) || index == nil {
		index = make(map[string]domain.Result)
	}

	prefix := s.namespace + ResultPrefix
	keys, err := s.kv.Keys(ctx, prefix)
	if err != nil {
		log.Printf("list result keys: %v", err)
		return index
	}
	for _, key := range keys {
		id, ok := strings.CutPrefix(key, prefix)
		if !ok || id == "" {
			continue
		}
		var r domain.Result
		if s.read(ctx, key, &r) {
			index[id] = r
		}
	}
	return index
}

// ListResumableIDs returns every entry id with saved progress.
func (s *Store) ListResumableIDs(ctx context.Context) (map[string]struct{}, error) {
	prefix := s.namespace + ProgressPrefix
	keys, err := s.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list progress keys: %w", err)
	}
	ids := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		id, ok := strings.CutPrefix(key, prefix)
		if !ok || id == "" {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *Store) read(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		log.Printf("read %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Printf("ignoring corrupt record %s: %v", key, err)
		return false
	}
	return true
}
