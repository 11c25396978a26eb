package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	goredislib "github.com/redis/go-redis/v9"

	"github.com/vncsmyrnk/timedpoll/internal/adapters/clock"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/lock/local"
	redislock "github.com/vncsmyrnk/timedpoll/internal/adapters/lock/redis"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/observer"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/timedpoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/timedpoll/internal/config"
	"github.com/vncsmyrnk/timedpoll/internal/core/ports"
	"github.com/vncsmyrnk/timedpoll/internal/core/services"
)

type repositories struct {
	questions ports.QuestionRepository
	ledger    ports.VoteLedger
	users     ports.UserRepository
	auth      ports.AuthRepository
	close     func() error
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	systemClock := clock.SystemClock{}

	repos, err := openRepositories(ctx, cfg, systemClock)
	if err != nil {
		return err
	}
	defer repos.close()

	locker, closeLocker, err := openLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	authService := services.NewAuthService(
		repos.users,
		repos.auth,
		google.NewVerifier(),
		observer.NewAuthLogger(logger),
		systemClock,
		services.AuthConfig{
			JWTSecret:      []byte(cfg.JWTSecret),
			GoogleClientID: cfg.GoogleClientID,
		},
	)
	questionService := services.NewQuestionService(repos.questions, repos.ledger, systemClock)
	voteService := services.NewVoteService(repos.questions, repos.ledger, locker, systemClock, logger)
	tallyService := services.NewTallyService(repos.questions, repos.ledger)
	userService := services.NewUserService(repos.users)

	handler := http.NewHandler(http.Handlers{
		Question: http.NewQuestionHandler(questionService, tallyService),
		Vote:     http.NewVoteHandler(voteService),
		Auth:     http.NewAuthHandler(authService, cfg.LoginRedirectURL, cfg.CookieDomain, cfg.CookieSameSite),
		User:     http.NewUserHandler(userService),
	}, authService, http.NewVoteRateLimiter(cfg.VoteRateLimit, cfg.VoteRateBurst))

	server := &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "store", cfg.Store, "lock", cfg.LockBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func openRepositories(ctx context.Context, cfg config.Config, c ports.Clock) (repositories, error) {
	if cfg.Store == config.StoreMemory {
		return repositories{
			questions: memory.NewQuestionRepository(),
			ledger:    memory.NewVoteLedger(c),
			users:     memory.NewUserRepository(c),
			auth:      memory.NewAuthRepository(c),
			close:     func() error { return nil },
		}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		return repositories{}, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return repositories{}, fmt.Errorf("failed to reach database: %w", err)
	}
	if err := postgres.MigrateUp(ctx, db); err != nil {
		db.Close()
		return repositories{}, err
	}

	return repositories{
		questions: postgres.NewQuestionRepository(db),
		ledger:    postgres.NewVoteLedger(db),
		users:     postgres.NewUserRepository(db),
		auth:      postgres.NewAuthRepository(db),
		close:     db.Close,
	}, nil
}

func openLocker(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.KeyLocker, func() error, error) {
	if cfg.LockBackend == config.LockLocal {
		return local.NewKeyedMutex(), func() error { return nil }, nil
	}

	client := goredislib.NewClient(&goredislib.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return redislock.NewLocker(client, logger), client.Close, nil
}
