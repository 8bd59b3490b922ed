package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dailygraph-quiz/internal/app"
	"dailygraph-quiz/internal/config"
	"dailygraph-quiz/internal/domain"
	"dailygraph-quiz/internal/infra/memory"
	pgloader "dailygraph-quiz/internal/infra/postgres"
	infraredis "dailygraph-quiz/internal/infra/redis"
	"dailygraph-quiz/internal/infra/sqlite"
	"dailygraph-quiz/internal/progress"
	"dailygraph-quiz/internal/quiz"
	transport "dailygraph-quiz/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// deps holds the backends built from config; close releases them.
type deps struct {
	service *app.QuizService
	close   func()
}

func buildDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	var loader memory.EntryLoader = memory.NewStaticEntryLoader(sampleEntries()...)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, pool.Close)
		loader = pgloader.NewEntryLoader(pool)
	}

	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 10*time.Minute)
	var entries app.EntryRepository
	if redisClient != nil {
		entries = infraredis.NewEntryRepository(redisClient, loader, cacheTTL)
	} else {
		entries = memory.NewEntryRepository(loader, cacheTTL)
	}

	var kv progress.KV
	switch cfg.Storage.Driver {
	case "redis":
		if redisClient == nil {
			cleanup()
			return nil, fmt.Errorf("storage driver redis needs redis.addr")
		}
		kv = infraredis.NewKV(redisClient, cfg.Redis.Prefix, config.TTLDuration(cfg.Redis.TTL, 30*24*time.Hour))
	case "sqlite":
		path := cfg.Storage.Path
		if path == "" {
			path = "quiz.db"
		}
		db, err := sqlite.Open(ctx, path)
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		kv = db
	case "memory", "":
		kv = memory.NewKV()
	default:
		cleanup()
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	service := app.NewQuizService(entries, kv, policyFromConfig(cfg), app.WithPageSize(cfg.Catalog.PageSize))
	return &deps{service: service, close: cleanup}, nil
}

func policyFromConfig(cfg config.Config) quiz.Policy {
	policy := quiz.DefaultPolicy()
	if cfg.Quiz.Timing != "" {
		policy.Timing = quiz.Timing(cfg.Quiz.Timing)
	}
	if cfg.Quiz.SecondsPerQuestion > 0 {
		policy.SecondsPerQuestion = cfg.Quiz.SecondsPerQuestion
	}
	policy.Penalty = cfg.Quiz.Penalty
	policy.ShuffleOptions = cfg.Quiz.ShuffleOptions
	policy.ReshuffleOnReattempt = cfg.Quiz.ReshuffleOnReattempt
	policy.Autosave = cfg.Quiz.Autosave
	return policy
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	router := transport.NewRouter(d.service, transport.NewWSHandler(d.service), transport.RouterConfig{
		CORSOrigins:    cfg.Server.CORSOrigins,
		SitemapBaseURL: cfg.Sitemap.BaseURL,
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s (storage=%s)", finalPort, cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleEntries is the demo content served when no Postgres URL is configured.
func sampleEntries() []domain.Entry {
	return []domain.Entry{
		{
			ID:         "sample-1",
			UploadDate: time.Date(2026, time.January, 5, 6, 0, 0, 0, time.UTC),
			Source:     domain.SourceDaily,
			Content: domain.Content{
				Title: "Daily Current Affairs - 05 January 2026",
				Questions: []domain.Question{
					{
						ID:                "q1",
						QuestionPrimary:   "Which city is the capital of India?",
						QuestionSecondary: "भारत की राजधानी कौन सा शहर है?",
						Options: []domain.Option{
							{Label: "A", TextPrimary: "Mumbai", TextSecondary: "मुंबई"},
							{Label: "B", TextPrimary: "New Delhi", TextSecondary: "नई दिल्ली"},
							{Label: "C", TextPrimary: "Kolkata", TextSecondary: "कोलकाता"},
						},
						Answer:             "B",
						ExplanationPrimary: "New Delhi has been the capital since 1931.",
					},
				},
			},
		},
	}
}
