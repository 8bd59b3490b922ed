package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dailygraph-quiz/internal/content"
	"dailygraph-quiz/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// EntryLoader loads content rows from Postgres and normalizes their question JSON.
type EntryLoader struct {
	pool *pgxpool.Pool
}

func NewEntryLoader(pool *pgxpool.Pool) *EntryLoader {
	return &EntryLoader{pool: pool}
}

func tableFor(source domain.Source) (string, error) {
	switch source {
	case domain.SourceDaily, "":
		return "current_affairs", nil
	case domain.SourceTopic:
		return "topicwise", nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownSource, source)
	}
}

// LoadEntry fetches one entry. Daily content is tried first, then topic-wise content;
// vocabulary ids address a single category of a vocab row.
func (l *EntryLoader) LoadEntry(ctx context.Context, id string) (domain.Entry, error) {
	if rowID, category, ok := content.ParseVocabEntryID(id); ok {
		return l.loadVocab(ctx, rowID, category)
	}
	for _, source := range []domain.Source{domain.SourceDaily, domain.SourceTopic} {
		table, _ := tableFor(source)
		var (
			uploaded time.Time
			raw      []byte
		)
		err := l.pool.QueryRow(ctx, `SELECT upload_date, questions FROM `+table+` WHERE id=$1`, id).Scan(&uploaded, &raw)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return domain.Entry{}, fmt.Errorf("load entry: %w", err)
		}
		return toEntry(id, uploaded, source, raw), nil
	}
	return domain.Entry{}, domain.ErrEntryNotFound
}

// ListEntries returns page (0-based) of entries, newest first.
func (l *EntryLoader) ListEntries(ctx context.Context, source domain.Source, page, pageSize int) ([]domain.Entry, error) {
	if page < 0 || pageSize <= 0 {
		return []domain.Entry{}, nil
	}
	if source == domain.SourceVocab {
		return l.listVocab(ctx, `SELECT id, upload_date, `+vocabColumns()+` FROM vocab_questions
			ORDER BY upload_date DESC LIMIT $1 OFFSET $2`, pageSize, page*pageSize)
	}
	table, err := tableFor(source)
	if err != nil {
		return nil, err
	}
	return l.list(ctx, source, `SELECT id, upload_date, questions FROM `+table+`
		ORDER BY upload_date DESC LIMIT $1 OFFSET $2`, pageSize, page*pageSize)
}

// ListRange returns entries uploaded within [from, to], newest first.
func (l *EntryLoader) ListRange(ctx context.Context, source domain.Source, from, to time.Time) ([]domain.Entry, error) {
	table, err := tableFor(source)
	if err != nil {
		return nil, err
	}
	return l.list(ctx, source, `SELECT id, upload_date, questions FROM `+table+`
		WHERE upload_date >= $1 AND upload_date <= $2 ORDER BY upload_date DESC`, from, to)
}

// ListUploadDates returns every upload date of the source, newest first.
func (l *EntryLoader) ListUploadDates(ctx context.Context, source domain.Source) ([]time.Time, error) {
	table := "vocab_questions"
	if source != domain.SourceVocab {
		var err error
		if table, err = tableFor(source); err != nil {
			return nil, err
		}
	}
	rows, err := l.pool.Query(ctx, `SELECT upload_date FROM `+table+` ORDER BY upload_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list upload dates: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan upload date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (l *EntryLoader) list(ctx context.Context, source domain.Source, query string, args ...any) ([]domain.Entry, error) {
	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Entry, 0)
	for rows.Next() {
		var (
			id       string
			uploaded time.Time
			raw      []byte
		)
		if err := rows.Scan(&id, &uploaded, &raw); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, toEntry(id, uploaded, source, raw))
	}
	return entries, rows.Err()
}

func (l *EntryLoader) loadVocab(ctx context.Context, rowID string, category content.VocabCategory) (domain.Entry, error) {
	var (
		uploaded time.Time
		raw      []byte
	)
	err := l.pool.QueryRow(ctx, `SELECT upload_date, `+category.Key+` FROM vocab_questions WHERE id=$1`, rowID).Scan(&uploaded, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Entry{}, domain.ErrEntryNotFound
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("load vocab entry: %w", err)
	}
	return domain.Entry{
		ID:         content.VocabEntryID(rowID, category.Key),
		UploadDate: uploaded,
		Source:     domain.SourceVocab,
		Content:    content.NormalizeVocab(category, rawJSON(raw)),
	}, nil
}

// listVocab expands every vocab row into one entry per non-empty category.
func (l *EntryLoader) listVocab(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vocab: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Entry, 0)
	for rows.Next() {
		var (
			id       string
			uploaded time.Time
		)
		cols := make([][]byte, len(content.VocabCategories))
		dest := []any{&id, &uploaded}
		for i := range cols {
			dest = append(dest, &cols[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan vocab: %w", err)
		}
		for i, category := range content.VocabCategories {
			c := content.NormalizeVocab(category, rawJSON(cols[i]))
			if len(c.Questions) == 0 {
				continue
			}
			entries = append(entries, domain.Entry{
				ID:         content.VocabEntryID(id, category.Key),
				UploadDate: uploaded,
				Source:     domain.SourceVocab,
				Content:    c,
			})
		}
	}
	return entries, rows.Err()
}

func vocabColumns() string {
	cols := ""
	for i, c := range content.VocabCategories {
		if i > 0 {
			cols += ", "
		}
		cols += c.Key
	}
	return cols
}

func toEntry(id string, uploaded time.Time, source domain.Source, raw []byte) domain.Entry {
	return domain.Entry{
		ID:         id,
		UploadDate: uploaded,
		Source:     source,
		Content:    content.Normalize(rawJSON(raw)),
	}
}

// rawJSON keeps NULL columns distinguishable from empty documents.
func rawJSON(raw []byte) any {
	if raw == nil {
		return nil
	}
	return json.RawMessage(raw)
}
