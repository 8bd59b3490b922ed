package progress

import (
	"context"
	"strings"
	"testing"

	"dailygraph-quiz/internal/domain"
	"dailygraph-quiz/internal/infra/memory"
)

func TestProgressLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := NewStore(kv)

	selected := "B"
	p := domain.Progress{
		EntryID:              "ca-1",
		QuestionStats:        map[int]domain.QuestionStatus{0: {SelectedOption: &selected, IsVisited: true, TimeSpent: 12}},
		TimeRemaining:        48,
		CurrentQuestionIndex: 0,
		Timestamp:            1700000000000,
	}
	if err := store.SaveProgress(ctx, p); err != nil {
		t.Fatalf("save progress: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "quiz_progress_ca-1"); !ok {
		t.Fatalf("expected quiz_progress_ca-1 key")
	}

	got, ok := store.LoadProgress(ctx, "ca-1")
	if !ok {
		t.Fatalf("expected progress")
	}
	if got.QuestionStats[0].Selected() != "B" || got.TimeRemaining != 48 || got.QuestionStats[0].TimeSpent != 12 {
		t.Fatalf("unexpected progress %+v", got)
	}

	ids, err := store.ListResumableIDs(ctx)
	if err != nil {
		t.Fatalf("list resumable: %v", err)
	}
	if _, ok := ids["ca-1"]; !ok || len(ids) != 1 {
		t.Fatalf("expected ca-1 resumable, got %v", ids)
	}

	if err := store.SaveResult(ctx, "ca-1", domain.Result{Score: 0.75, Total: 3}); err != nil {
		t.Fatalf("save result: %v", err)
	}
	if err := store.DeleteProgress(ctx, "ca-1"); err != nil {
		t.Fatalf("delete progress: %v", err)
	}
	ids, _ = store.ListResumableIDs(ctx)
	if len(ids) != 0 {
		t.Fatalf("expected nothing resumable after submit, got %v", ids)
	}
	if r, ok := store.LoadResult(ctx, "ca-1"); !ok || r.Score != 0.75 {
		t.Fatalf("expected result, got %+v %v", r, ok)
	}
}

func TestResultsIndexMerges(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memory.NewKV())

	_ = store.SaveResult(ctx, "ca-1", domain.Result{Score: 1, Total: 1})
	_ = store.SaveResult(ctx, "ca-2", domain.Result{Score: 2, Total: 3})
	_ = store.SaveResult(ctx, "ca-1", domain.Result{Score: 0.5, Total: 1})

	results := store.Results(ctx)
	if len(results) != 2 {
		t.Fatalf("expected two results, got %v", results)
	}
	if results["ca-1"].Score != 0.5 || results["ca-2"].Score != 2 {
		t.Fatalf("unexpected index %+v", results)
	}
}

func TestLoadResultFallsBackToIndex(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	_ = kv.Set(ctx, ResultsIndexKey, `{"ca-9":{"score":2,"total":2,"questionStats":{},"timestamp":1,"timeTakenSeconds":30}}`)

	r, ok := NewStore(kv).LoadResult(ctx, "ca-9")
	if !ok || r.Score != 2 || r.TimeTakenSeconds != 30 {
		t.Fatalf("expected result from index, got %+v %v", r, ok)
	}
}

func TestCorruptRecordsAreAbsent(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	_ = kv.Set(ctx, "quiz_progress_ca-1", "{not json")
	_ = kv.Set(ctx, ResultsIndexKey, "[]")
	store := NewStore(kv)

	if _, ok := store.LoadProgress(ctx, "ca-1"); ok {
		t.Fatalf("expected corrupt progress to be absent")
	}
	if results := store.Results(ctx); len(results) != 0 {
		t.Fatalf("expected empty index, got %v", results)
	}
	if err := store.SaveResult(ctx, "ca-1", domain.Result{Score: 1, Total: 1}); err != nil {
		t.Fatalf("save result over corrupt index: %v", err)
	}
	if len(store.Results(ctx)) != 1 {
		t.Fatalf("expected index rebuilt")
	}
}

func TestLearnerNamespaces(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	root := NewStore(kv)
	alice := root.ForLearner("alice")
	bob := root.ForLearner("bob")

	_ = alice.SaveProgress(ctx, domain.Progress{EntryID: "ca-1"})
	_ = bob.SaveResult(ctx, "ca-1", domain.Result{Score: 1, Total: 1})

	if _, ok := bob.LoadProgress(ctx, "ca-1"); ok {
		t.Fatalf("expected progress isolated per learner")
	}
	if _, ok := alice.LoadResult(ctx, "ca-1"); ok {
		t.Fatalf("expected results isolated per learner")
	}
	if _, ok, _ := kv.Get(ctx, "learner:alice:quiz_progress_ca-1"); !ok {
		t.Fatalf("expected namespaced key")
	}
	ids, _ := alice.ListResumableIDs(ctx)
	if _, ok := ids["ca-1"]; !ok || len(ids) != 1 {
		t.Fatalf("unexpected resumable ids %v", ids)
	}
}

func TestResultsRepairsLostIndexWrite(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := NewStore(kv)

	_ = store.SaveResult(ctx, "ca-1", domain.Result{Score: 1, Total: 1})
	_ = store.SaveResult(ctx, "ca-2", domain.Result{Score: 2, Total: 2})
	// another replica overwrote the index with its stale copy
	_ = kv.Set(ctx, ResultsIndexKey, `{"ca-1":{"score":1,"total":1}}`)

	results := store.Results(ctx)
	if len(results) != 2 || results["ca-2"].Score != 2 {
		t.Fatalf("expected ca-2 recovered from its own record, got %+v", results)
	}

	_ = store.SaveResult(ctx, "ca-3", domain.Result{Score: 3, Total: 3})
	raw, _, _ := kv.Get(ctx, ResultsIndexKey)
	for _, id := range []string{"ca-1", "ca-2", "ca-3"} {
		if !strings.Contains(raw, `"`+id+`"`) {
			t.Fatalf("expected %s written back to the index, got %s", id, raw)
		}
	}
}

// foreignKeyKV returns keys outside the requested prefix, as a case-insensitive
// backend would.
type foreignKeyKV struct {
	*memory.KV
	extra []string
}

func (k foreignKeyKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := k.KV.Keys(ctx, prefix)
	return append(keys, k.extra...), err
}

func TestListResumableIDsSkipsForeignKeys(t *testing.T) {
	ctx := context.Background()
	kv := foreignKeyKV{KV: memory.NewKV(), extra: []string{"learner:Bob:quiz_progress_e1", "learner:bob:quiz_progress_"}}
	store := NewStore(kv).ForLearner("bob")

	_ = store.SaveProgress(ctx, domain.Progress{EntryID: "e2"})

	ids, err := store.ListResumableIDs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, ok := ids["e2"]; !ok || len(ids) != 1 {
		t.Fatalf("expected only e2, got %v", ids)
	}
}
