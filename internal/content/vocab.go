package content

import (
	"sort"
	"strings"

	"dailygraph-quiz/internal/domain"
)

// VocabCategory names one question list of a vocabulary row.
type VocabCategory struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// VocabCategories lists the vocabulary columns in display order.
var VocabCategories = []VocabCategory{
	{Key: "syno_questions", Label: "Synonyms"},
	{Key: "antonyms_questions", Label: "Antonyms"},
	{Key: "idioms_questions", Label: "Idioms & Phrases"},
	{Key: "ows_questions", Label: "One Word Substitution"},
	{Key: "news_vocabulary_questions", Label: "News Vocabulary"},
}

// LookupVocabCategory finds a category by column key.
func LookupVocabCategory(key string) (VocabCategory, bool) {
	for _, c := range VocabCategories {
		if c.Key == key {
			return c, true
		}
	}
	return VocabCategory{}, false
}

// VocabEntryID addresses one category of a vocabulary row as a quiz entry.
func VocabEntryID(rowID, key string) string {
	return rowID + ":" + key
}

// ParseVocabEntryID splits an id built by VocabEntryID.
func ParseVocabEntryID(id string) (rowID string, category VocabCategory, ok bool) {
	i := strings.LastIndex(id, ":")
	if i <= 0 {
		return "", VocabCategory{}, false
	}
	category, ok = LookupVocabCategory(id[i+1:])
	if !ok {
		return "", VocabCategory{}, false
	}
	return id[:i], category, true
}

// NormalizeVocab converts a vocabulary question list (single-language prompt, label-keyed
// options, free-text solution) into canonical content titled after the category.
func NormalizeVocab(category VocabCategory, raw any) domain.Content {
	decoded, ok := decode(raw)
	if !ok {
		return domain.Content{Title: category.Label, Questions: []domain.Question{}}
	}
	items, _ := decoded.([]any)
	questions := make([]domain.Question, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		prompt := stringOf(obj["question"])
		q := domain.Question{
			ID:                 obj["id"],
			QuestionPrimary:    prompt,
			QuestionSecondary:  prompt,
			Answer:             stringOf(obj["answer"]),
			ExplanationPrimary: stringOf(obj["solution"]),
		}
		var mode answerMode
		q.Options, mode = normalizeOptions(obj["options"])
		if q.Answer != "" {
			q.Answer = resolveAnswer(q.Options, q.Answer, mode)
		}
		questions = append(questions, q)
	}
	return domain.Content{Title: category.Label, Questions: questions}
}

// labelKeyed turns {"B": "...", "A": "..."} into options ordered by label.
func labelKeyed(texts map[string]string) []domain.Option {
	labels := make([]string, 0, len(texts))
	for label := range texts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	opts := make([]domain.Option, 0, len(labels))
	for _, label := range labels {
		opts = append(opts, domain.Option{Label: label, TextPrimary: texts[label], TextSecondary: texts[label]})
	}
	return opts
}
