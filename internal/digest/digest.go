// Package digest groups daily entries by month and aggregates them into weekly quizzes.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"dailygraph-quiz/internal/domain"
)

const monthLayout = "January 2006"

// WeekRange is a fixed span of days within a month. The last week runs to month end.
type WeekRange struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

var WeekRanges = []WeekRange{
	{ID: 1, Label: "Week 1 (1st - 7th)", Start: 1, End: 7},
	{ID: 2, Label: "Week 2 (8th - 14th)", Start: 8, End: 14},
	{ID: 3, Label: "Week 3 (15th - 21st)", Start: 15, End: 21},
	{ID: 4, Label: "Week 4 (22nd - End)", Start: 22, End: 31},
}

// Week is one weekly digest card.
type Week struct {
	WeekRange
	EntryID       string `json:"entryId"`
	MonthKey      string `json:"monthKey"`
	QuestionCount int    `json:"questionCount"`
	Locked        bool   `json:"locked"`
}

// RangeLoader lists entries uploaded within a time window.
type RangeLoader interface {
	ListRange(ctx context.Context, source domain.Source, from, to time.Time) ([]domain.Entry, error)
}

// MonthKey formats t as "January 2026".
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// ParseMonthKey returns the first day of the month named by key, in loc.
func ParseMonthKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(monthLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", key, err)
	}
	return t, nil
}

// WeekID synthesizes the stable entry id of a weekly digest.
func WeekID(monthKey string, week int) string {
	return "weekly-" + strings.ReplaceAll(monthKey, " ", "-") + "-wk" + strconv.Itoa(week)
}

// IsWeekID reports whether id looks like a weekly digest id.
func IsWeekID(id string) bool {
	return strings.HasPrefix(id, "weekly-")
}

// ParseWeekID reverses WeekID.
func ParseWeekID(id string) (monthKey string, week WeekRange, ok bool) {
	rest, found := strings.CutPrefix(id, "weekly-")
	if !found {
		return "", WeekRange{}, false
	}
	i := strings.LastIndex(rest, "-wk")
	if i <= 0 {
		return "", WeekRange{}, false
	}
	n, err := strconv.Atoi(rest[i+3:])
	if err != nil {
		return "", WeekRange{}, false
	}
	week, ok = lookupWeek(n)
	if !ok {
		return "", WeekRange{}, false
	}
	monthKey = strings.ReplaceAll(rest[:i], "-", " ")
	if _, err := time.Parse(monthLayout, monthKey); err != nil {
		return "", WeekRange{}, false
	}
	return monthKey, week, true
}

func lookupWeek(id int) (WeekRange, bool) {
	for _, w := range WeekRanges {
		if w.ID == id {
			return w, true
		}
	}
	return WeekRange{}, false
}

// bounds returns the first and last instant of week within the month starting at month.
// The end day is clamped to the month's last day.
func bounds(month time.Time, week WeekRange) (time.Time, time.Time) {
	lastDay := month.AddDate(0, 1, -1).Day()
	end := week.End
	if end > lastDay {
		end = lastDay
	}
	from := time.Date(month.Year(), month.Month(), week.Start, 0, 0, 0, 0, month.Location())
	to := time.Date(month.Year(), month.Month(), end, 23, 59, 59, int(999*time.Millisecond), month.Location())
	return from, to
}

// Weeks builds the four week cards of monthKey. entries should be the daily entries of
// that month; a week is locked until its last day has passed.
func Weeks(monthKey string, entries []domain.Entry, now time.Time) ([]Week, error) {
	month, err := ParseMonthKey(monthKey, now.Location())
	if err != nil {
		return nil, err
	}
	weeks := make([]Week, 0, len(WeekRanges))
	for _, r := range WeekRanges {
		_, to := bounds(month, r)
		w := Week{
			WeekRange: r,
			EntryID:   WeekID(monthKey, r.ID),
			MonthKey:  monthKey,
			Locked:    now.Before(to),
		}
		for _, e := range entries {
			d := e.UploadDate.In(now.Location())
			if d.Year() != month.Year() || d.Month() != month.Month() {
				continue
			}
			if d.Day() >= r.Start && d.Day() <= r.End {
				w.QuestionCount += len(e.Content.Questions)
			}
		}
		weeks = append(weeks, w)
	}
	return weeks, nil
}

// Aggregate loads every daily entry of one week and concatenates their questions into a
// virtual entry addressed by WeekID.
func Aggregate(ctx context.Context, loader RangeLoader, monthKey string, week WeekRange, now time.Time) (domain.Entry, error) {
	month, err := ParseMonthKey(monthKey, now.Location())
	if err != nil {
		return domain.Entry{}, err
	}
	from, to := bounds(month, week)
	if now.Before(to) {
		return domain.Entry{}, domain.ErrWeekLocked
	}

	entries, err := loader.ListRange(ctx, domain.SourceDaily, from, to)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("aggregate %s: %w", WeekID(monthKey, week.ID), err)
	}
	// oldest first so the digest reads in calendar order
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UploadDate.Before(entries[j].UploadDate)
	})
	questions := make([]domain.Question, 0)
	for _, e := range entries {
		questions = append(questions, e.Content.Questions...)
	}
	if len(questions) == 0 {
		return domain.Entry{}, domain.ErrNoQuestions
	}

	return domain.Entry{
		ID:         WeekID(monthKey, week.ID),
		UploadDate: now,
		Source:     domain.SourceDaily,
		Content: domain.Content{
			Title:       monthKey + " - " + week.Label,
			Description: "Aggregated Current Affairs for " + week.Label,
			Questions:   questions,
		},
	}, nil
}

// Months returns the distinct month keys of dates, newest first.
func Months(dates []time.Time) []string {
	seen := make(map[string]time.Time)
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
		seen[MonthKey(d)] = first
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return seen[keys[i]].After(seen[keys[j]])
	})
	return keys
}

// GroupByMonth buckets entries by month key, preserving their order within a bucket.
func GroupByMonth(entries []domain.Entry) map[string][]domain.Entry {
	groups := make(map[string][]domain.Entry)
	for _, e := range entries {
		if e.UploadDate.IsZero() {
			continue
		}
		key := MonthKey(e.UploadDate)
		groups[key] = append(groups[key], e)
	}
	return groups
}
