package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"dailygraph-quiz/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// EntryLoader fetches entries from a backing store (e.g., Postgres).
type EntryLoader interface {
	LoadEntry(ctx context.Context, id string) (domain.Entry, error)
	ListEntries(ctx context.Context, source domain.Source, page, pageSize int) ([]domain.Entry, error)
	ListRange(ctx context.Context, source domain.Source, from, to time.Time) ([]domain.Entry, error)
	ListUploadDates(ctx context.Context, source domain.Source) ([]time.Time, error)
}

// EntryRepository caches normalized entries in Redis and falls back to the loader on a miss.
// Entries are stored as: SET entry:{id} {json} EX ttl
type EntryRepository struct {
	EntryLoader
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewEntryRepository(client *redis.Client, loader EntryLoader, ttl time.Duration) *EntryRepository {
	return &EntryRepository{
		EntryLoader: loader,
		client:      client,
		ttl:         ttl,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *EntryRepository) LoadEntry(ctx context.Context, id string) (domain.Entry, error) {
	if entry, ok := r.cached(ctx, id); ok {
		return entry, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if entry, ok := r.cached(ctx, id); ok {
			return entry, nil
		}

		entry, err := r.EntryLoader.LoadEntry(ctx, id)
		if err != nil {
			return domain.Entry{}, err
		}

		data, err := json.Marshal(entry)
		if err == nil {
			// best-effort cache fill
			_ = r.client.Set(context.Background(), r.key(id), data, r.ttlWithJitter()).Err()
		}
		return entry, nil
	})
	if err != nil {
		return domain.Entry{}, err
	}
	return result.(domain.Entry), nil
}

func (r *EntryRepository) cached(ctx context.Context, id string) (domain.Entry, bool) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		return domain.Entry{}, false
	}
	var entry domain.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Printf("ignoring corrupt cached entry %s: %v", id, err)
		return domain.Entry{}, false
	}
	return entry, true
}

func (r *EntryRepository) key(id string) string {
	return "entry:" + id
}

func (r *EntryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
