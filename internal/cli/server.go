package cli

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formula-trivia/internal/app"
	"formula-trivia/internal/config"
	"formula-trivia/internal/infra/memory"
	pgstore "formula-trivia/internal/infra/postgres"
	redisstore "formula-trivia/internal/infra/redis"
	transport "formula-trivia/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

//go:embed sample_questions.yaml
var sampleQuestions []byte

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type sweeper interface {
	Sweep(maxIdle time.Duration, now time.Time) int
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
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

	levels, err := cfg.LevelTable()
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader, err := questionLoader(cfg, pool, logger)
	if err != nil {
		return err
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisstore.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, questionTTL)
	}

	var store interface {
		app.SessionRepository
		sweeper
	}
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	var (
		results     app.ResultRepository
		leaderboard app.LeaderboardRepository
	)
	if pool != nil {
		repo := pgstore.NewResultRepository(pool)
		results, leaderboard = repo, repo
	} else {
		repo := memory.NewResultStore()
		results, leaderboard = repo, repo
	}
	if redisClient != nil {
		leaderboard = redisstore.NewLeaderboard(redisClient)
	}

	service := app.NewGameService(store, questionRepo, results, leaderboard,
		app.WithLevels(levels),
		app.WithLogger(logger),
	)
	handler := transport.NewRouter(service, logger, transport.RouterConfig{
		RateLimitRPS:   cfg.Server.RateLimit.RPS,
		RateLimitBurst: cfg.Server.RateLimit.Burst,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepIdle(sweepCtx, store, config.TTLDuration(cfg.Game.IdleTimeout, 30*time.Minute), logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting trivia service", "port", finalPort, "redis", redisClient != nil, "postgres", pool != nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// questionLoader picks Postgres when configured, then a YAML pack, then the
// built-in sample questions.
func questionLoader(cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) (memory.QuestionLoader, error) {
	if pool != nil {
		return pgstore.NewQuestionLoader(pool), nil
	}
	if cfg.Questions.File != "" {
		pools, err := memory.LoadQuestionFile(cfg.Questions.File)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded question pack", "file", cfg.Questions.File, "levels", len(pools))
		return memory.NewStaticQuestionLoader(pools), nil
	}
	pools, err := memory.ParseQuestions(sampleQuestions)
	if err != nil {
		return nil, err
	}
	logger.Warn("no question source configured, using built-in sample questions")
	return memory.NewStaticQuestionLoader(pools), nil
}

func sweepIdle(ctx context.Context, store sweeper, maxIdle time.Duration, logger *slog.Logger) {
	interval := maxIdle / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := store.Sweep(maxIdle, now); removed > 0 {
				logger.Info("swept idle games", "removed", removed)
			}
		}
	}
}
