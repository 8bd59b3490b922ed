package quiz

import (
	"strings"

	"dailygraph-quiz/internal/domain"
)

// Outcome classifies one answered (or skipped) question.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
	OutcomeSkipped Outcome = "skipped"
)

// Grade compares the selected label with the answer, ignoring case. A question without a
// usable answer can never be correct.
func Grade(q domain.Question, status domain.QuestionStatus) Outcome {
	selected := status.Selected()
	if selected == "" {
		return OutcomeSkipped
	}
	if q.Answer != "" && strings.EqualFold(selected, q.Answer) {
		return OutcomeCorrect
	}
	return OutcomeWrong
}

// Contribution is the score delta of one question: +1, -penalty or 0.
func Contribution(q domain.Question, status domain.QuestionStatus, penalty float64) float64 {
	switch Grade(q, status) {
	case OutcomeCorrect:
		return 1
	case OutcomeWrong:
		return -penalty
	default:
		return 0
	}
}

// Score sums the contribution of every question.
func Score(questions []domain.Question, stats map[int]domain.QuestionStatus, penalty float64) float64 {
	var score float64
	for i, q := range questions {
		score += Contribution(q, stats[i], penalty)
	}
	return score
}

// Tally counts outcomes across all questions.
func Tally(questions []domain.Question, stats map[int]domain.QuestionStatus) (correct, wrong, skipped int) {
	for i, q := range questions {
		switch Grade(q, stats[i]) {
		case OutcomeCorrect:
			correct++
		case OutcomeWrong:
			wrong++
		default:
			skipped++
		}
	}
	return correct, wrong, skipped
}
