package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/yakoovad/perftest-admin/internal/api"
	"github.com/yakoovad/perftest-admin/internal/auth"
	"github.com/yakoovad/perftest-admin/internal/db"
	"github.com/yakoovad/perftest-admin/internal/repository"
	"github.com/yakoovad/perftest-admin/internal/service"
	"github.com/yakoovad/perftest-admin/internal/storage"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

func (a *app) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, db.PoolOptions{
		DSN:      a.cfg.Database.DSN(),
		MaxConns: a.cfg.Database.MaxConns,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("database connection established",
		zap.String("host", a.cfg.Database.Host), zap.String("database", a.cfg.Database.Name))
	return pool, nil
}

func (a *app) tokenManager() *auth.Manager {
	return auth.NewManager(auth.Config{
		AccessSecret:  a.cfg.Auth.AccessSecret,
		RefreshSecret: a.cfg.Auth.RefreshSecret,
		AccessTTL:     a.cfg.Auth.AccessTTL,
		RefreshTTL:    a.cfg.Auth.RefreshTTL,
		ResetTTL:      a.cfg.Auth.ResetTTL,
	})
}

// refreshStore returns the configured refresh token list and, for redis, the
// client backing it so it can be health checked and closed.
func (a *app) refreshStore(ctx context.Context) (auth.RefreshStore, *redis.Client, error) {
	if a.cfg.Auth.RefreshStore != "redis" {
		return auth.NewMemoryRefreshStore(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrap(err, "ping redis")
	}
	a.logger.Info("refresh tokens stored in redis", zap.String("addr", a.cfg.Redis.Addr))
	return auth.NewRedisRefreshStore(client), client, nil
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	a.logger.Info("starting application", zap.String("version", version), zap.String("env", a.cfg.Env))

	pool, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if migrate {
		if _, err = db.Migrate(ctx, pool, a.logger); err != nil {
			return err
		}
	}

	refresh, redisClient, err := a.refreshStore(ctx)
	if err != nil {
		return err
	}
	checks := []health.Config{api.PingCheck("postgres", pool.Ping)}
	if redisClient != nil {
		defer redisClient.Close()
		checks = append(checks, api.PingCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	files, err := storage.NewDiskStore(a.cfg.Upload.Dir)
	if err != nil {
		return err
	}

	healthChecker, err := api.NewHealthChecker(version, checks...)
	if err != nil {
		return err
	}

	transactor := db.NewPgxTransactor(pool)
	snapshot := db.NewPgxTransactor(pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	tokens := a.tokenManager()

	userRepo := repository.NewPgxUserRepository(pool)
	testCaseRepo := repository.NewPgxTestCaseRepository(pool)
	csvRepo := repository.NewPgxCsvDataRepository(pool)
	knowledgeRepo := repository.NewPgxKnowledgeRepository(pool)
	tagRepo := repository.NewPgxTagRepository(pool)
	commentRepo := repository.NewPgxCommentRepository(pool)

	authService := service.NewAuthService(transactor).WithUserRepo(userRepo).WithTokenManager(tokens).WithRefreshStore(refresh)
	user := service.NewUserService(transactor).WithUserRepo(userRepo).WithRefreshStore(refresh)
	testCase := service.NewTestCaseService(transactor).WithTestCaseRepo(testCaseRepo)
	csvData := service.NewCsvDataService(transactor).WithCsvDataRepo(csvRepo).WithFileStore(files).WithMaxSize(a.cfg.Upload.MaxSize)
	knowledge := service.NewKnowledgeService(transactor).WithKnowledgeRepo(knowledgeRepo).WithTagRepo(tagRepo).WithCommentRepo(commentRepo)
	dashboard := service.NewDashboardService(snapshot).WithUserRepo(userRepo).WithTestCaseRepo(testCaseRepo).
		WithCsvDataRepo(csvRepo).WithKnowledgeRepo(knowledgeRepo)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	handler := api.NewHandler(a.logger).
		WithHealthChecker(healthChecker).
		WithTokenManager(tokens).
		WithMaxUploadSize(a.cfg.Upload.MaxSize).
		WithAuthService(authService).
		WithUserService(user).
		WithTestCaseService(testCase).
		WithCsvDataService(csvData).
		WithKnowledgeService(knowledge).
		WithDashboardService(dashboard)

	handler.RegisterRoutes(e)

	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", addr))
		serveErr <- e.Start(addr)
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "start server")
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", zap.Duration("timeout", a.cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err = e.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown server")
	}
	return nil
}
