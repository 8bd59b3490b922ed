// Package content turns stored question-set JSON into the canonical domain.Content shape.
package content

import (
	"encoding/json"
	"strconv"
	"strings"

	"dailygraph-quiz/internal/domain"
)

// FallbackTitle is used when a payload carries no title of its own.
const FallbackTitle = "Daily Current Affairs"

type shape int

const (
	shapeInvalid   shape = iota
	shapeDated           // {"date": "...", "data": [...]}
	shapeArray           // [...]
	shapeQuestions       // {"title": ..., "questions": [...]}
	shapeObject          // any other object
)

// NormalizeJSON decodes data and normalizes it. Invalid JSON yields an empty Content.
func NormalizeJSON(data []byte) domain.Content {
	if len(data) == 0 {
		return empty()
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return empty()
	}
	return Normalize(raw)
}

// Normalize converts any known payload variant into canonical content. It never panics;
// unparseable input produces an empty Content.
func Normalize(raw any) domain.Content {
	decoded, ok := decode(raw)
	if !ok {
		return empty()
	}

	switch kind, obj, list := classify(decoded); kind {
	case shapeDated:
		title := FallbackTitle
		if date := stringOf(obj["date"]); date != "" {
			title = FallbackTitle + " - " + date
		}
		return domain.Content{Title: title, Questions: normalizeQuestions(list)}
	case shapeArray:
		return domain.Content{Title: FallbackTitle, Questions: normalizeQuestions(list)}
	case shapeQuestions:
		return domain.Content{
			Title:       stringOf(obj["title"]),
			Description: stringOf(obj["description"]),
			Questions:   normalizeQuestions(list),
		}
	case shapeObject:
		return domain.Content{
			Title:       stringOf(obj["title"]),
			Description: stringOf(obj["description"]),
			Questions:   []domain.Question{},
		}
	default:
		return empty()
	}
}

// decode unwraps up to two levels of string encoding.
func decode(raw any) (any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case []byte:
		return decode(string(v))
	case json.RawMessage:
		return decode(string(v))
	case string:
		var first any
		if err := json.Unmarshal([]byte(v), &first); err != nil {
			return nil, false
		}
		if inner, ok := first.(string); ok {
			var second any
			if err := json.Unmarshal([]byte(inner), &second); err != nil {
				return nil, false
			}
			return second, second != nil
		}
		return first, first != nil
	default:
		return v, true
	}
}

func classify(v any) (shape, map[string]any, []any) {
	switch t := v.(type) {
	case []any:
		return shapeArray, nil, t
	case map[string]any:
		if data, ok := t["data"].([]any); ok {
			return shapeDated, t, data
		}
		if questions, ok := t["questions"].([]any); ok {
			return shapeQuestions, t, questions
		}
		return shapeObject, t, nil
	default:
		return shapeInvalid, nil, nil
	}
}

func normalizeQuestions(items []any) []domain.Question {
	out := make([]domain.Question, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		out = append(out, normalizeQuestion(obj))
	}
	return out
}

func normalizeQuestion(obj map[string]any) domain.Question {
	q := domain.Question{
		ID:                   obj["id"],
		QuestionPrimary:      stringOf(obj["question_en"]),
		QuestionSecondary:    stringOf(obj["question_hi"]),
		Answer:               stringOf(obj["answer"]),
		ExplanationPrimary:   stringOf(obj["explanation_en"]),
		ExplanationSecondary: stringOf(obj["explanation_hi"]),
		SolutionPrimary:      stringOf(obj["solution_en"]),
		SolutionSecondary:    stringOf(obj["solution_hi"]),
		ExtraDetails:         stringOf(obj["extra_details"]),
	}
	if q.QuestionPrimary == "" && q.QuestionSecondary == "" {
		q.QuestionPrimary = stringOf(obj["question"])
		q.QuestionSecondary = q.QuestionPrimary
	}

	// question_script, extra_details_speech_script and image_prompt have no place in the
	// canonical shape and are dropped here.
	var mode answerMode
	q.Options, mode = normalizeOptions(obj["options"])
	if q.Answer != "" {
		q.Answer = resolveAnswer(q.Options, q.Answer, mode)
	}

	if q.ExplanationSecondary == "" && q.ExtraDetails != "" {
		q.ExplanationSecondary = q.ExtraDetails
	}
	return q
}

type answerMode int

const (
	answerAsGiven answerMode = iota
	answerTextFirst
	answerLabelFirst
)

// normalizeOptions returns the canonical options and how the raw answer should be resolved
// against them.
func normalizeOptions(raw any) ([]domain.Option, answerMode) {
	switch v := raw.(type) {
	case []any:
		if len(v) == 0 {
			return []domain.Option{}, answerAsGiven
		}
		if _, isText := v[0].(string); isText {
			opts := make([]domain.Option, 0, len(v))
			for i, item := range v {
				text := stringOf(item)
				opts = append(opts, domain.Option{Label: Letter(i), TextPrimary: text, TextSecondary: text})
			}
			return opts, answerTextFirst
		}
		opts := make([]domain.Option, 0, len(v))
		for _, item := range v {
			obj, _ := item.(map[string]any)
			opts = append(opts, domain.Option{
				Label:         stringOf(obj["label"]),
				TextPrimary:   stringOf(obj["text_en"]),
				TextSecondary: stringOf(obj["text_hi"]),
			})
		}
		return opts, answerAsGiven
	case map[string]any:
		texts := make(map[string]string, len(v))
		for label, text := range v {
			texts[label] = stringOf(text)
		}
		return labelKeyed(texts), answerLabelFirst
	default:
		return nil, answerAsGiven
	}
}

// resolveAnswer maps an answer given as option text onto that option's label.
// Answers matching nothing are returned unchanged.
func resolveAnswer(opts []domain.Option, answer string, mode answerMode) string {
	if mode == answerAsGiven {
		return answer
	}
	if mode == answerLabelFirst {
		for _, opt := range opts {
			if strings.EqualFold(opt.Label, answer) {
				return answer
			}
		}
	}
	for _, opt := range opts {
		if strings.EqualFold(opt.TextPrimary, answer) {
			return opt.Label
		}
	}
	return answer
}

// Letter returns the positional display letter for index i (A, B, C, ...).
func Letter(i int) string {
	return string(rune('A' + i))
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func empty() domain.Content {
	return domain.Content{Questions: []domain.Question{}}
}
