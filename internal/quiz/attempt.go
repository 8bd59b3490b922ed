// Package quiz implements the attempt/review state machine for one content entry.
package quiz

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"dailygraph-quiz/internal/domain"
)

// Mode is the top-level state of an attempt.
type Mode string

const (
	ModeAttempt Mode = "attempt"
	ModeReview  Mode = "review"
)

// Store persists progress and results for an entry. Implementations treat corrupt
// records as absent.
type Store interface {
	SaveProgress(ctx context.Context, p domain.Progress) error
	LoadProgress(ctx context.Context, entryID string) (domain.Progress, bool)
	DeleteProgress(ctx context.Context, entryID string) error
	SaveResult(ctx context.Context, entryID string, r domain.Result) error
	LoadResult(ctx context.Context, entryID string) (domain.Result, bool)
}

// Attempt owns the learner's interaction with one entry. All mutations happen under mu;
// the transport layer drives it from a single goroutine.
type Attempt struct {
	entryID   string
	questions []domain.Question
	store     Store
	policy    Policy
	now       func() time.Time
	rnd       *rand.Rand

	mu            sync.Mutex
	mode          Mode
	paused        bool
	summary       bool
	stats         map[int]domain.QuestionStatus
	current       int
	timeRemaining int
	elapsed       int
	questionTime  int
	result        *domain.Result
	order         [][]int
}

// AttemptOption customizes an Attempt.
type AttemptOption func(*Attempt)

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) AttemptOption {
	return func(a *Attempt) { a.now = now }
}

// WithRand overrides the shuffle source (tests).
func WithRand(r *rand.Rand) AttemptOption {
	return func(a *Attempt) { a.rnd = r }
}

// Open builds the initial state for entryID. With review set, a stored result opens on
// the score summary. Otherwise saved progress is resumed, or a fresh attempt starts.
func Open(ctx context.Context, entryID string, questions []domain.Question, store Store, policy Policy, review bool, opts ...AttemptOption) *Attempt {
	a := &Attempt{
		entryID:   entryID,
		questions: questions,
		store:     store,
		policy:    policy.withDefaults(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rnd == nil {
		seed := a.policy.Seed
		if seed == 0 {
			seed = a.now().UnixNano()
		}
		a.rnd = rand.New(rand.NewSource(seed))
	}

	if r, ok := store.LoadResult(ctx, entryID); ok {
		a.result = &r
	}

	switch {
	case review:
		a.mode = ModeReview
		if a.result != nil {
			a.stats = fillStats(a.result.QuestionStats, len(questions))
			a.summary = true
		} else {
			a.stats = freshStats(len(questions))
		}
	default:
		if p, ok := store.LoadProgress(ctx, entryID); ok {
			a.resume(p)
		} else {
			a.reset()
		}
	}
	a.shuffle()
	return a
}

func (a *Attempt) resume(p domain.Progress) {
	a.mode = ModeAttempt
	a.stats = fillStats(p.QuestionStats, len(a.questions))
	a.current = clampIndex(p.CurrentQuestionIndex, len(a.questions))
	a.timeRemaining = p.TimeRemaining
	a.elapsed = p.TimeElapsed
	if len(a.questions) > 0 {
		a.markVisited(a.current)
	}
}

func (a *Attempt) reset() {
	a.mode = ModeAttempt
	a.paused = false
	a.summary = false
	a.stats = freshStats(len(a.questions))
	a.current = 0
	a.timeRemaining = a.policy.TimeLimit(len(a.questions))
	a.elapsed = 0
	a.questionTime = 0
}

func (a *Attempt) shuffle() {
	a.order = make([][]int, len(a.questions))
	for i, q := range a.questions {
		if a.policy.ShuffleOptions {
			a.order[i] = permutation(a.rnd, len(q.Options))
		} else {
			a.order[i] = identity(len(q.Options))
		}
	}
}

// EntryID returns the entry this attempt belongs to.
func (a *Attempt) EntryID() string { return a.entryID }

// Mode reports the current top-level state.
func (a *Attempt) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Result returns the finalized result, if one exists.
func (a *Attempt) Result() (domain.Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.result == nil {
		return domain.Result{}, false
	}
	return *a.result, true
}

// Stats returns a copy of the per-question status map.
func (a *Attempt) Stats() map[int]domain.QuestionStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyStats(a.stats)
}

// Progress snapshots the resumable state.
func (a *Attempt) Progress() domain.Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progressLocked()
}

func (a *Attempt) progressLocked() domain.Progress {
	return domain.Progress{
		EntryID:              a.entryID,
		QuestionStats:        copyStats(a.stats),
		TimeRemaining:        a.timeRemaining,
		TimeElapsed:          a.elapsed,
		CurrentQuestionIndex: a.current,
		Timestamp:            a.now().UnixMilli(),
	}
}

func (a *Attempt) editableLocked() error {
	if a.mode != ModeAttempt {
		return domain.ErrReadOnly
	}
	if len(a.questions) == 0 {
		return domain.ErrNoQuestions
	}
	if a.paused {
		return domain.ErrPaused
	}
	return nil
}

func (a *Attempt) checkIndex(index int) error {
	if index < 0 || index >= len(a.questions) {
		return domain.ErrQuestionOutOfRange
	}
	return nil
}

// SelectOption records label as the answer to question index.
func (a *Attempt) SelectOption(index int, label string) error {
	return a.mutate(index, func(s *domain.QuestionStatus) {
		selected := label
		s.SelectedOption = &selected
	})
}

// ToggleReview flips the review flag of question index.
func (a *Attempt) ToggleReview(index int) error {
	return a.mutate(index, func(s *domain.QuestionStatus) {
		s.IsMarkedForReview = !s.IsMarkedForReview
	})
}

// ClearAnswer removes the selection of question index.
func (a *Attempt) ClearAnswer(index int) error {
	return a.mutate(index, func(s *domain.QuestionStatus) {
		s.SelectedOption = nil
	})
}

func (a *Attempt) mutate(index int, fn func(*domain.QuestionStatus)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.editableLocked(); err != nil {
		return err
	}
	if err := a.checkIndex(index); err != nil {
		return err
	}
	status := a.stats[index]
	fn(&status)
	a.stats[index] = status
	a.autosaveLocked()
	return nil
}

// Navigate moves to question to. During an attempt the time spent on the question being
// left is accumulated and the target is marked visited.
func (a *Attempt) Navigate(to int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.navigateLocked(to)
}

// Next moves one question forward.
func (a *Attempt) Next() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.navigateLocked(a.current + 1)
}

// Prev moves one question back.
func (a *Attempt) Prev() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.navigateLocked(a.current - 1)
}

func (a *Attempt) navigateLocked(to int) error {
	if err := a.checkIndex(to); err != nil {
		return err
	}
	if a.mode == ModeReview {
		a.current = to
		return nil
	}
	if err := a.editableLocked(); err != nil {
		return err
	}
	a.foldQuestionTimeLocked()
	a.current = to
	a.markVisited(to)
	a.autosaveLocked()
	return nil
}

func (a *Attempt) foldQuestionTimeLocked() {
	if len(a.questions) == 0 {
		return
	}
	status := a.stats[a.current]
	status.TimeSpent += a.questionTime
	a.stats[a.current] = status
	a.questionTime = 0
}

func (a *Attempt) markVisited(index int) {
	status := a.stats[index]
	status.IsVisited = true
	a.stats[index] = status
}

// Pause stops both timers and rejects further edits until Resume.
func (a *Attempt) Pause() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != ModeAttempt {
		return domain.ErrReadOnly
	}
	if len(a.questions) == 0 {
		return domain.ErrNoQuestions
	}
	a.paused = true
	return nil
}

// Resume restarts the timers after Pause.
func (a *Attempt) Resume() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != ModeAttempt {
		return domain.ErrReadOnly
	}
	a.paused = false
	return nil
}

// SaveAndExit pauses the attempt and persists its progress so it can be resumed later.
func (a *Attempt) SaveAndExit(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != ModeAttempt {
		return domain.ErrReadOnly
	}
	if len(a.questions) == 0 {
		return domain.ErrNoQuestions
	}
	a.paused = true
	if err := a.store.SaveProgress(ctx, a.progressLocked()); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Submit scores the attempt, stores the result, drops the saved progress and switches to
// review at the first question.
func (a *Attempt) Submit(ctx context.Context) (domain.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.editableLocked(); err != nil {
		return domain.Result{}, err
	}
	return a.submitLocked(ctx)
}

func (a *Attempt) submitLocked(ctx context.Context) (domain.Result, error) {
	a.foldQuestionTimeLocked()

	taken := a.elapsed
	if a.policy.Timing == TimingCountdown {
		taken = a.policy.TimeLimit(len(a.questions)) - a.timeRemaining
	}
	if taken < 0 {
		taken = 0
	}

	result := domain.Result{
		Score:            Score(a.questions, a.stats, a.policy.Penalty),
		Total:            len(a.questions),
		QuestionStats:    copyStats(a.stats),
		Timestamp:        a.now().UnixMilli(),
		TimeTakenSeconds: taken,
	}
	if err := a.store.SaveResult(ctx, a.entryID, result); err != nil {
		return domain.Result{}, fmt.Errorf("save result: %w", err)
	}
	if err := a.store.DeleteProgress(ctx, a.entryID); err != nil {
		log.Printf("delete progress for %s: %v", a.entryID, err)
	}

	a.result = &result
	a.mode = ModeReview
	a.paused = false
	a.summary = false
	a.current = 0
	a.questionTime = 0
	return result, nil
}

// Tick advances the clocks by one second. When a countdown reaches zero the attempt is
// submitted and the result returned.
func (a *Attempt) Tick(ctx context.Context) (*domain.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.editableLocked() != nil {
		return nil, nil
	}

	a.questionTime++
	if a.policy.Timing == TimingStopwatch {
		a.elapsed++
		return nil, nil
	}
	if a.timeRemaining > 0 {
		a.timeRemaining--
	}
	if a.timeRemaining > 0 {
		return nil, nil
	}
	result, err := a.submitLocked(ctx)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ShowSolutions leaves the score summary for the per-question review.
func (a *Attempt) ShowSolutions() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != ModeReview {
		return domain.ErrNoResult
	}
	a.summary = false
	return nil
}

// BackToSummary returns from the per-question review to the score summary.
func (a *Attempt) BackToSummary() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != ModeReview || a.result == nil {
		return domain.ErrNoResult
	}
	a.summary = true
	return nil
}

// ReAttempt starts over from review with a blank status map. The stored result stays
// until the new attempt is submitted.
func (a *Attempt) ReAttempt() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != ModeReview || a.result == nil {
		return domain.ErrNoResult
	}
	a.reset()
	if a.policy.ReshuffleOnReattempt {
		a.shuffle()
	}
	a.autosaveLocked()
	return nil
}

func (a *Attempt) autosaveLocked() {
	if !a.policy.Autosave || a.mode != ModeAttempt {
		return
	}
	if err := a.store.SaveProgress(context.Background(), a.progressLocked()); err != nil {
		log.Printf("autosave progress for %s: %v", a.entryID, err)
	}
}

func freshStats(n int) map[int]domain.QuestionStatus {
	stats := make(map[int]domain.QuestionStatus, n)
	for i := 0; i < n; i++ {
		stats[i] = domain.QuestionStatus{IsVisited: i == 0}
	}
	return stats
}

// fillStats copies saved stats and adds defaults for any missing index.
func fillStats(saved map[int]domain.QuestionStatus, n int) map[int]domain.QuestionStatus {
	stats := copyStats(saved)
	for i := 0; i < n; i++ {
		if _, ok := stats[i]; !ok {
			stats[i] = domain.QuestionStatus{}
		}
	}
	return stats
}

func copyStats(in map[int]domain.QuestionStatus) map[int]domain.QuestionStatus {
	out := make(map[int]domain.QuestionStatus, len(in))
	for k, v := range in {
		if v.SelectedOption != nil {
			selected := *v.SelectedOption
			v.SelectedOption = &selected
		}
		out[k] = v
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
