package domain

import "errors"

var (
	// ErrEntryNotFound indicates the content entry could not be loaded.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrReadOnly is returned for mutations outside an attempt.
	ErrReadOnly = errors.New("attempt is read-only")
	// ErrPaused is returned for mutations while the attempt is paused.
	ErrPaused = errors.New("attempt is paused")
	// ErrQuestionOutOfRange indicates an index outside the question list.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrNoQuestions indicates an entry without usable questions.
	ErrNoQuestions = errors.New("no questions available")
	// ErrNoResult is returned when an operation needs a finalized result.
	ErrNoResult = errors.New("no result for entry")
	// ErrWeekLocked indicates a weekly digest whose week has not ended.
	ErrWeekLocked = errors.New("week is not available yet")
	// ErrUnknownSource indicates an unsupported content source.
	ErrUnknownSource = errors.New("unknown content source")
)
