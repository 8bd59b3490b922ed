package domain

import (
	"encoding/json"
	"time"
)

// Source identifies which content table an entry comes from.
type Source string

const (
	SourceDaily Source = "daily"
	SourceTopic Source = "topic"
	SourceVocab Source = "vocab"
)

// Option is one answer choice. Label is its stable identity; display order may differ.
type Option struct {
	Label         string `json:"label"`
	TextPrimary   string `json:"text_en"`
	TextSecondary string `json:"text_hi"`
}

// Question models a bilingual MCQ question. Answer holds an option label.
type Question struct {
	ID                   any      `json:"id,omitempty"`
	QuestionPrimary      string   `json:"question_en"`
	QuestionSecondary    string   `json:"question_hi"`
	Options              []Option `json:"options"`
	Answer               string   `json:"answer"`
	ExplanationPrimary   string   `json:"explanation_en,omitempty"`
	ExplanationSecondary string   `json:"explanation_hi,omitempty"`
	SolutionPrimary      string   `json:"solution_en,omitempty"`
	SolutionSecondary    string   `json:"solution_hi,omitempty"`
	ExtraDetails         string   `json:"extra_details,omitempty"`
}

// PrimarySolution returns the first non-empty primary-language explanation.
func (q Question) PrimarySolution() string {
	switch {
	case q.ExplanationPrimary != "":
		return q.ExplanationPrimary
	case q.SolutionPrimary != "":
		return q.SolutionPrimary
	default:
		return q.ExtraDetails
	}
}

// SecondarySolution returns the first non-empty secondary-language explanation.
func (q Question) SecondarySolution() string {
	if q.ExplanationSecondary != "" {
		return q.ExplanationSecondary
	}
	return q.SolutionSecondary
}

// Content is the canonical question set of one entry.
type Content struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Entry is one fetched unit of quiz content.
type Entry struct {
	ID         string    `json:"id"`
	UploadDate time.Time `json:"upload_date"`
	Source     Source    `json:"source"`
	Content    Content   `json:"questions"`
}

// QuestionStatus tracks the learner's interaction with one question.
type QuestionStatus struct {
	SelectedOption    *string `json:"selectedOption"`
	IsMarkedForReview bool    `json:"isMarkedForReview"`
	IsVisited         bool    `json:"isVisited"`
	TimeSpent         int     `json:"timeSpent"`
}

// Selected returns the selected label, or "" when the question was skipped.
func (s QuestionStatus) Selected() string {
	if s.SelectedOption == nil {
		return ""
	}
	return *s.SelectedOption
}

// Progress is resumable in-flight attempt state for one entry.
type Progress struct {
	EntryID              string                 `json:"entryId"`
	QuestionStats        map[int]QuestionStatus `json:"questionStats"`
	TimeRemaining        int                    `json:"timeRemaining"`
	TimeElapsed          int                    `json:"timeElapsed,omitempty"`
	CurrentQuestionIndex int                    `json:"currentQuestionIndex"`
	Timestamp            int64                  `json:"timestamp"`
}

// Result is the finalized outcome of an attempt.
type Result struct {
	Score            float64                `json:"score"`
	Total            int                    `json:"total"`
	QuestionStats    map[int]QuestionStatus `json:"questionStats"`
	Timestamp        int64                  `json:"timestamp"`
	TimeTakenSeconds int                    `json:"timeTakenSeconds"`
}

// VocabEntry is one vocabulary upload holding a raw question list per category column.
type VocabEntry struct {
	ID         string                     `json:"id"`
	UploadDate time.Time                  `json:"upload_date"`
	Categories map[string]json.RawMessage `json:"categories"`
}
