package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dailygraph-quiz/internal/config"
	"dailygraph-quiz/internal/domain"
	"dailygraph-quiz/internal/quiz"
)

func TestNormalizeCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(`{"date":"05 Jan","data":[{"question_en":"Capital?","options":["Paris","London"],"answer":"london"}]}`))
	cmd.SetArgs([]string{"normalize"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	var c domain.Content
	if err := json.Unmarshal(out.Bytes(), &c); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if c.Title != "Daily Current Affairs - 05 Jan" || len(c.Questions) != 1 || c.Questions[0].Answer != "B" {
		t.Fatalf("unexpected content %+v", c)
	}
}

func TestSitemapCommandUsesSampleContent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sitemap.xml")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"sitemap", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--base-url", "https://example.com", "-o", out})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("sitemap: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read sitemap: %v", err)
	}
	if !strings.Contains(string(data), "which-city-is-the-capital-of-india-2026-01-05") {
		t.Fatalf("expected sample slug, got %s", data)
	}
}

func TestBuildDepsSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "quiz.db")
	ctx := context.Background()

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		t.Fatalf("build deps: %v", err)
	}
	defer d.close()

	attempt, _, err := d.service.Open(ctx, "u1", "sample-1", false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := attempt.SaveAndExit(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	ids, err := d.service.Resumable(ctx, "u1")
	if err != nil || len(ids) != 1 {
		t.Fatalf("expected one resumable entry, got %v %v", ids, err)
	}
}

func TestBuildDepsRejectsUnknownDriver(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Driver = "etcd"
	if _, err := buildDeps(ctx, cfg); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	cfg.Storage.Driver = "redis"
	if _, err := buildDeps(ctx, cfg); err == nil {
		t.Fatalf("expected redis driver without address to fail")
	}
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Quiz.Timing = "stopwatch"
	cfg.Quiz.ShuffleOptions = true
	p := policyFromConfig(cfg)
	if p.Timing != quiz.TimingStopwatch || !p.ShuffleOptions || p.Penalty != 0.25 || p.SecondsPerQuestion != 60 {
		t.Fatalf("unexpected policy %+v", p)
	}
}
