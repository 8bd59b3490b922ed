package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"dailygraph-quiz/internal/digest"
	"dailygraph-quiz/internal/domain"
	"dailygraph-quiz/internal/progress"
	"dailygraph-quiz/internal/quiz"
	"dailygraph-quiz/internal/sitemap"
)

// EntryRepository loads content entries (from cache/backing store).
type EntryRepository interface {
	LoadEntry(ctx context.Context, id string) (domain.Entry, error)
	ListEntries(ctx context.Context, source domain.Source, page, pageSize int) ([]domain.Entry, error)
	ListRange(ctx context.Context, source domain.Source, from, to time.Time) ([]domain.Entry, error)
	ListUploadDates(ctx context.Context, source domain.Source) ([]time.Time, error)
}

// QuizService contains the learner-facing use cases: browsing content, opening attempts
// and listing saved progress and results.
type QuizService struct {
	entries  EntryRepository
	store    *progress.Store
	policy   quiz.Policy
	pageSize int
	now      func() time.Time
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithPageSize sets the catalog page size.
func WithPageSize(n int) Option {
	return func(s *QuizService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock is test-only for deterministic week locking and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

func NewQuizService(entries EntryRepository, kv progress.KV, policy quiz.Policy, opts ...Option) *QuizService {
	s := &QuizService{
		entries:  entries,
		store:    progress.NewStore(kv),
		policy:   policy,
		pageSize: 7,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns one page (0-based) of a source's entries, newest first.
func (s *QuizService) Catalog(ctx context.Context, source domain.Source, page int) ([]domain.Entry, error) {
	switch source {
	case domain.SourceDaily, domain.SourceTopic, domain.SourceVocab:
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, source)
	}
	return s.entries.ListEntries(ctx, source, page, s.pageSize)
}

// Entry loads one entry. Weekly digest ids are aggregated from the daily entries of
// that week.
func (s *QuizService) Entry(ctx context.Context, id string) (domain.Entry, error) {
	if digest.IsWeekID(id) {
		month, week, ok := digest.ParseWeekID(id)
		if !ok {
			return domain.Entry{}, domain.ErrEntryNotFound
		}
		return digest.Aggregate(ctx, s.entries, month, week, s.now())
	}
	return s.entries.LoadEntry(ctx, id)
}

// Months lists the months with daily content, newest first.
func (s *QuizService) Months(ctx context.Context) ([]string, error) {
	dates, err := s.entries.ListUploadDates(ctx, domain.SourceDaily)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	return digest.Months(dates), nil
}

// Weeks builds the weekly digest cards of one month.
func (s *QuizService) Weeks(ctx context.Context, monthKey string) ([]digest.Week, error) {
	now := s.now()
	month, err := digest.ParseMonthKey(monthKey, now.Location())
	if err != nil {
		return nil, err
	}
	end := month.AddDate(0, 1, 0).Add(-time.Millisecond)
	entries, err := s.entries.ListRange(ctx, domain.SourceDaily, month, end)
	if err != nil {
		return nil, fmt.Errorf("list month %s: %w", monthKey, err)
	}
	return digest.Weeks(monthKey, entries, now)
}

// Open starts, resumes or reviews the learner's attempt at an entry.
func (s *QuizService) Open(ctx context.Context, learnerID, entryID string, review bool, opts ...quiz.AttemptOption) (*quiz.Attempt, domain.Entry, error) {
	entry, err := s.Entry(ctx, entryID)
	if err != nil {
		return nil, domain.Entry{}, err
	}
	opts = append([]quiz.AttemptOption{quiz.WithClock(s.now)}, opts...)
	attempt := quiz.Open(ctx, entry.ID, entry.Content.Questions, s.store.ForLearner(learnerID), s.policy, review, opts...)
	return attempt, entry, nil
}

// Resumable returns the sorted ids of the learner's entries with saved progress.
func (s *QuizService) Resumable(ctx context.Context, learnerID string) ([]string, error) {
	set, err := s.store.ForLearner(learnerID).ListResumableIDs(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Results returns the learner's results index keyed by entry id.
func (s *QuizService) Results(ctx context.Context, learnerID string) map[string]domain.Result {
	return s.store.ForLearner(learnerID).Results(ctx)
}

// DiscardProgress drops a saved attempt the learner chose not to resume.
func (s *QuizService) DiscardProgress(ctx context.Context, learnerID, entryID string) error {
	return s.store.ForLearner(learnerID).DeleteProgress(ctx, entryID)
}

// Sitemap renders the sitemap of every daily entry.
func (s *QuizService) Sitemap(ctx context.Context, baseURL string) ([]byte, error) {
	now := s.now()
	entries, err := s.entries.ListRange(ctx, domain.SourceDaily, time.Time{}, now)
	if err != nil {
		return nil, fmt.Errorf("list sitemap entries: %w", err)
	}
	return sitemap.Build(baseURL, entries, now)
}
