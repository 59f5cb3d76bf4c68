package cli

import (
	"context"
	"fmt"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/config"
	"livequiz-service/internal/infra/genai"
	"livequiz-service/internal/infra/memory"
	"livequiz-service/internal/infra/postgres"
	redisinfra "livequiz-service/internal/infra/redis"
	"livequiz-service/internal/logger"
	"livequiz-service/internal/security"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// backingStore is everything the use cases persist.
type backingStore interface {
	app.LiveStore
	app.AuthoringStore
}

// services is the wired application. close releases every connection.
type services struct {
	live      *app.QuizService
	authoring *app.AuthoringService
	reports   *app.ReportService
	tokens    *security.Tokens
	close     func()
}

// buildServices wires stores and adapters from cfg. Without Postgres the
// in-memory store is used; without Redis the caches and fan-out stay in
// process.
func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var (
		store  backingStore
		loader memory.QuizLoader
	)
	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		closers = append(closers, func() { _ = db.Close() })
		if err := migrateDB(ctx, db); err != nil {
			closeAll()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		store = postgres.NewStore(db)
		loader = postgres.NewQuizLoader(pool)
		logger.Info("using postgres store")
	} else {
		mem := memory.NewStore()
		store, loader = mem, mem
		logger.Warn("postgres not configured, quizzes live in memory only")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	var (
		quizRepo app.QuizRepository
		sessions app.SessionRepository
		guard    app.AnswerGuard
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			closeAll()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		quizRepo = redisinfra.NewQuizRepository(client, loader, quizTTL)
		sessions = redisinfra.NewSessionStore(client, redisTTL)
		guard = redisinfra.NewAnswerGuard(client, redisTTL)
		logger.Info("using redis cache", "addr", cfg.Redis.Addr)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		sessions = memory.NewSessionStore()
		guard = memory.NewAnswerGuard(redisTTL)
	}

	var (
		generator app.QuestionGenerator
		insights  app.InsightGenerator
	)
	aiTimeout := config.TTLDuration(cfg.AI.Timeout, time.Minute)
	if cfg.AI.BaseURL != "" {
		client := genai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, aiTimeout)
		generator, insights = client, client
	} else {
		logger.Warn("AI endpoint not configured, generation and insights are disabled")
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		logger.Warn("auth secret not configured, tokens will not survive a restart")
		secret = security.RandomSecret()
	}

	rules := app.Rules{
		FiftyFiftyCost:   cfg.Quiz.FiftyFiftyCost,
		StartingDoublers: cfg.Quiz.PointDoublers,
		DoublerStreak:    cfg.Quiz.DoublerStreak,
	}
	return &services{
		live:      app.NewQuizService(sessions, quizRepo, store, guard, rules),
		authoring: app.NewAuthoringService(store, quizRepo, generator, cfg.AI.DailyLimit),
		reports:   app.NewReportService(quizRepo, store, insights, aiTimeout),
		tokens:    security.NewTokens(secret, config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour)),
		close:     closeAll,
	}, nil
}
