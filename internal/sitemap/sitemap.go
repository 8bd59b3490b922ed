// Package sitemap renders the public sitemap of daily entries.
package sitemap

import (
	"encoding/xml"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"dailygraph-quiz/internal/domain"
)

const fallbackSlug = "daily-current-affairs"

var (
	// \p{Zs} and the line separators match what browsers treat as \s (NBSP included).
	disallowed = regexp.MustCompile(`[^a-z0-9\s\p{Zs}\x{2028}\x{2029}\x{FEFF}-]`)
	spaces     = regexp.MustCompile(`[\s\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
)

// Slug derives a readable post slug from the entry's first question and upload date.
func Slug(e domain.Entry) string {
	text := fallbackSlug
	if len(e.Content.Questions) > 0 && e.Content.Questions[0].QuestionPrimary != "" {
		text = e.Content.Questions[0].QuestionPrimary
	}
	slug := disallowed.ReplaceAllString(strings.ToLower(text), "")
	slug = spaces.ReplaceAllString(strings.TrimFunc(slug, isSpace), "-")
	if len(slug) > 100 {
		slug = slug[:100]
	}
	return slug + "-" + e.UploadDate.UTC().Format("2006-01-02")
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Build renders the urlset: the home page followed by one URL per entry. Entries without
// an upload date are stamped with now.
func Build(baseURL string, entries []domain.Entry, now time.Time) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	set := urlset{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  []entry{{Loc: base + "/", ChangeFreq: "daily", Priority: "1.0"}},
	}
	for _, e := range entries {
		if e.UploadDate.IsZero() {
			e.UploadDate = now
		}
		q := url.Values{}
		q.Set("post", Slug(e))
		q.Set("id", e.ID)
		set.URLs = append(set.URLs, entry{
			Loc:        base + "/?" + q.Encode(),
			LastMod:    e.UploadDate.UTC().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Zs, r) || r == '\uFEFF'
}
