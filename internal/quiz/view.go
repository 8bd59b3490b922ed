package quiz

import (
	"math"
	"strings"

	"dailygraph-quiz/internal/content"
	"dailygraph-quiz/internal/domain"
)

// DisplayOption is an option as rendered. Letter is derived from display position;
// Label is the stable identity used for answers.
type DisplayOption struct {
	Letter        string `json:"letter"`
	Label         string `json:"label"`
	TextPrimary   string `json:"textPrimary"`
	TextSecondary string `json:"textSecondary"`
	Selected      bool   `json:"selected"`
	Correct       bool   `json:"correct,omitempty"`
}

// QuestionView is the current question as rendered.
type QuestionView struct {
	Number            int                   `json:"number"`
	Primary           string                `json:"primary"`
	Secondary         string                `json:"secondary"`
	Options           []DisplayOption       `json:"options"`
	Status            domain.QuestionStatus `json:"status"`
	Outcome           Outcome               `json:"outcome,omitempty"`
	SolutionPrimary   string                `json:"solutionPrimary,omitempty"`
	SolutionSecondary string                `json:"solutionSecondary,omitempty"`
}

// PaletteState is the colour class of one palette cell.
type PaletteState string

const (
	PaletteNotVisited PaletteState = "notVisited"
	PaletteVisited    PaletteState = "visited"
	PaletteAnswered   PaletteState = "answered"
	PaletteReview     PaletteState = "review"
	PaletteCorrect    PaletteState = "correct"
	PaletteWrong      PaletteState = "wrong"
	PaletteSkipped    PaletteState = "skipped"
)

// PaletteCell describes one question in the navigation palette.
type PaletteCell struct {
	Index   int          `json:"index"`
	State   PaletteState `json:"state"`
	Current bool         `json:"current"`
}

// Summary is the aggregate score card of a result.
type Summary struct {
	Score            float64 `json:"score"`
	Total            int     `json:"total"`
	Correct          int     `json:"correct"`
	Wrong            int     `json:"wrong"`
	Skipped          int     `json:"skipped"`
	Accuracy         int     `json:"accuracy"`
	TimeTakenSeconds int     `json:"timeTakenSeconds"`
}

// View is the render model of an attempt.
type View struct {
	EntryID       string        `json:"entryId"`
	Mode          Mode          `json:"mode"`
	Paused        bool          `json:"paused"`
	ShowSummary   bool          `json:"showSummary"`
	Empty         bool          `json:"empty"`
	Index         int           `json:"index"`
	Total         int           `json:"total"`
	TimeRemaining int           `json:"timeRemaining"`
	TimeElapsed   int           `json:"timeElapsed"`
	QuestionTime  int           `json:"questionTime"`
	Answered      int           `json:"answered"`
	Skipped       int           `json:"skipped"`
	Question      *QuestionView `json:"question,omitempty"`
	Palette       []PaletteCell `json:"palette"`
	Summary       *Summary      `json:"summary,omitempty"`
}

// View renders the current state.
func (a *Attempt) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := View{
		EntryID:       a.entryID,
		Mode:          a.mode,
		Paused:        a.paused,
		ShowSummary:   a.summary,
		Empty:         len(a.questions) == 0,
		Index:         a.current,
		Total:         len(a.questions),
		TimeRemaining: a.timeRemaining,
		TimeElapsed:   a.elapsed,
		QuestionTime:  a.questionTime,
		Palette:       make([]PaletteCell, 0, len(a.questions)),
	}
	for i := range a.questions {
		if a.stats[i].Selected() != "" {
			v.Answered++
		} else {
			v.Skipped++
		}
		v.Palette = append(v.Palette, PaletteCell{Index: i, State: a.paletteStateLocked(i), Current: i == a.current})
	}
	if a.result != nil {
		s := summarize(a.questions, *a.result)
		v.Summary = &s
	}
	if !v.Empty && !a.summary {
		q := a.questionViewLocked(a.current)
		v.Question = &q
	}
	return v
}

func (a *Attempt) paletteStateLocked(i int) PaletteState {
	status := a.stats[i]
	if a.mode == ModeReview {
		switch Grade(a.questions[i], status) {
		case OutcomeCorrect:
			return PaletteCorrect
		case OutcomeSkipped:
			return PaletteSkipped
		default:
			return PaletteWrong
		}
	}
	switch {
	case status.IsMarkedForReview:
		return PaletteReview
	case status.Selected() != "":
		return PaletteAnswered
	case status.IsVisited:
		return PaletteVisited
	default:
		return PaletteNotVisited
	}
}

func (a *Attempt) questionViewLocked(i int) QuestionView {
	q := a.questions[i]
	status := a.stats[i]
	review := a.mode == ModeReview

	qv := QuestionView{
		Number:    i + 1,
		Primary:   q.QuestionPrimary,
		Secondary: q.QuestionSecondary,
		Options:   make([]DisplayOption, 0, len(q.Options)),
		Status:    status,
	}
	order := a.order[i]
	if len(order) != len(q.Options) {
		order = identity(len(q.Options))
	}
	for pos, idx := range order {
		opt := q.Options[idx]
		d := DisplayOption{
			Letter:        content.Letter(pos),
			Label:         opt.Label,
			TextPrimary:   opt.TextPrimary,
			TextSecondary: opt.TextSecondary,
			Selected:      status.Selected() == opt.Label,
		}
		if review {
			d.Correct = q.Answer != "" && strings.EqualFold(q.Answer, opt.Label)
		}
		qv.Options = append(qv.Options, d)
	}
	if review {
		qv.Outcome = Grade(q, status)
		qv.SolutionPrimary = q.PrimarySolution()
		qv.SolutionSecondary = q.SecondarySolution()
	}
	return qv
}

func summarize(questions []domain.Question, r domain.Result) Summary {
	correct, wrong, skipped := Tally(questions, r.QuestionStats)
	s := Summary{
		Score:            r.Score,
		Total:            r.Total,
		Correct:          correct,
		Wrong:            wrong,
		Skipped:          skipped,
		TimeTakenSeconds: r.TimeTakenSeconds,
	}
	if r.Total > 0 {
		s.Accuracy = int(math.Round(r.Score / float64(r.Total) * 100))
	}
	return s
}
