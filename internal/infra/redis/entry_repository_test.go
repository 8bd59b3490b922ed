package redis

import (
	"context"
	"testing"
	"time"

	"dailygraph-quiz/internal/domain"
	"dailygraph-quiz/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestEntryRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		EntryLoader: memory.NewStaticEntryLoader(sampleEntry()),
	}
	repo := NewEntryRepository(client, loader, time.Minute)

	entry, err := repo.LoadEntry(context.Background(), "ca-1")
	if err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("entry:ca-1") {
		t.Fatalf("expected cached entry in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, _ := repo.LoadEntry(context.Background(), "ca-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Content.Questions[0].Answer != entry.Content.Questions[0].Answer || !cached.UploadDate.Equal(entry.UploadDate) {
		t.Fatalf("cached entry differs: %+v", cached)
	}

	if ttl := mr.TTL("entry:ca-1"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected jittered ttl, got %v", ttl)
	}
}

type countingLoader struct {
	EntryLoader
	calls int
}

func (l *countingLoader) LoadEntry(ctx context.Context, id string) (domain.Entry, error) {
	l.calls++
	return l.EntryLoader.LoadEntry(ctx, id)
}

func sampleEntry() domain.Entry {
	return domain.Entry{
		ID:         "ca-1",
		UploadDate: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Source:     domain.SourceDaily,
		Content: domain.Content{
			Title: "Daily Current Affairs - 10 March",
			Questions: []domain.Question{
				{
					QuestionPrimary: "Who won?",
					Options:         []domain.Option{{Label: "A", TextPrimary: "X"}, {Label: "B", TextPrimary: "Y"}},
					Answer:          "B",
				},
			},
		},
	}
}
