package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"dailygraph-quiz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// EntryLoader fetches entries from a backing store (e.g., Postgres).
type EntryLoader interface {
	LoadEntry(ctx context.Context, id string) (domain.Entry, error)
	ListEntries(ctx context.Context, source domain.Source, page, pageSize int) ([]domain.Entry, error)
	ListRange(ctx context.Context, source domain.Source, from, to time.Time) ([]domain.Entry, error)
	ListUploadDates(ctx context.Context, source domain.Source) ([]time.Time, error)
}

// EntryRepository caches entries by id with TTL to avoid repeated DB hits. Listing calls
// pass through to the loader.
type EntryRepository struct {
	EntryLoader
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	entry     domain.Entry
	expiresAt time.Time
}

func NewEntryRepository(loader EntryLoader, ttl time.Duration) *EntryRepository {
	return &EntryRepository{
		EntryLoader: loader,
		ttl:         ttl,
		clock:       time.Now,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:       make(map[string]cachedEntry),
	}
}

func (r *EntryRepository) LoadEntry(ctx context.Context, id string) (domain.Entry, error) {
	if entry, ok := r.cached(id); ok {
		return entry, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		if entry, ok := r.cached(id); ok {
			return entry, nil
		}

		entry, err := r.EntryLoader.LoadEntry(ctx, id)
		if err != nil {
			return domain.Entry{}, err
		}

		r.mu.Lock()
		r.cache[id] = cachedEntry{
			entry:     entry,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return domain.Entry{}, err
	}
	return result.(domain.Entry), nil
}

func (r *EntryRepository) cached(id string) (domain.Entry, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.cache[id]; ok && c.expiresAt.After(now) {
		return c.entry, true
	}
	return domain.Entry{}, false
}

func (r *EntryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticEntryLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticEntryLoader struct {
	entries []domain.Entry
}

func NewStaticEntryLoader(entries ...domain.Entry) *StaticEntryLoader {
	sorted := append([]domain.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UploadDate.After(sorted[j].UploadDate)
	})
	return &StaticEntryLoader{entries: sorted}
}

func (l *StaticEntryLoader) LoadEntry(_ context.Context, id string) (domain.Entry, error) {
	for _, e := range l.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Entry{}, domain.ErrEntryNotFound
}

// ListEntries returns page (0-based) of the source's entries, newest first.
func (l *StaticEntryLoader) ListEntries(_ context.Context, source domain.Source, page, pageSize int) ([]domain.Entry, error) {
	matched := l.bySource(source)
	from := page * pageSize
	if page < 0 || pageSize <= 0 || from >= len(matched) {
		return []domain.Entry{}, nil
	}
	to := from + pageSize
	if to > len(matched) {
		to = len(matched)
	}
	return matched[from:to], nil
}

// ListRange returns the source's entries uploaded within [from, to], newest first.
func (l *StaticEntryLoader) ListRange(_ context.Context, source domain.Source, from, to time.Time) ([]domain.Entry, error) {
	out := make([]domain.Entry, 0)
	for _, e := range l.bySource(source) {
		if !e.UploadDate.Before(from) && !e.UploadDate.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *StaticEntryLoader) ListUploadDates(_ context.Context, source domain.Source) ([]time.Time, error) {
	matched := l.bySource(source)
	dates := make([]time.Time, 0, len(matched))
	for _, e := range matched {
		dates = append(dates, e.UploadDate)
	}
	return dates, nil
}

func (l *StaticEntryLoader) bySource(source domain.Source) []domain.Entry {
	out := make([]domain.Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}
