package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-steamlink/internal/auth"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/config"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/discord"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/router"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/session"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/user"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-steamlink/internal/web"
	"github.com/ovaphlow/pitchfork/service-steamlink/pkg/database"
	"github.com/ovaphlow/pitchfork/service-steamlink/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	if err := run(sugar); err != nil {
		sugar.Errorw("service stopped", "err", err)
		_ = lg.Sync()
		os.Exit(1)
	}
}

func run(sugar *zap.SugaredLogger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	policy := cfg.LinkPolicy
	sugar.Infow("starting service-steamlink", "port", cfg.Port, "link_policy", policy.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// connect in the background; requests before it finishes get a storage
	// failure instead of waiting
	dbCfg := database.ConfigFromEnv()
	dbCfg.DSN = cfg.DatabaseURL
	db := database.NewProvider(func(ctx context.Context) (*sqlx.DB, error) {
		version, err := database.MigrateUp(dbCfg.DSN)
		if err != nil {
			return nil, err
		}
		sugar.Infow("migrations applied", "version", version)
		return database.Connect(ctx, dbCfg)
	})
	db.Start(ctx)
	defer db.Close()
	dbErr := watchDatabase(ctx, db, sugar)

	store, closeStore, err := newSessionStore(ctx, cfg, sugar)
	if err != nil {
		return err
	}
	defer closeStore()
	sessions := session.NewManager(store, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)

	provider, err := discord.New(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordCallbackURL)
	if err != nil {
		return err
	}
	pages, err := web.New(sugar)
	if err != nil {
		return fmt.Errorf("load pages: %w", err)
	}
	users := user.NewUserService(repo.NewUserRepo(db))

	handler := router.RegisterRoutes(router.Deps{
		Auth:   auth.NewHandler(provider, users, sessions, policy, cfg.CookieSecure, sugar),
		User:   user.NewHandler(users, sessions, auth.PathLogin, sugar),
		Pages:  pages,
		DB:     db,
		Logger: sugar,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case err := <-dbErr:
		// a failed provider never recovers; exit so the supervisor restarts us
		runErr = err
	case <-ctx.Done():
	}

	sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnw("http server shutdown failed", "err", err)
	}
	sugar.Info("goodbye")
	return runErr
}

// watchDatabase reports a failed connection attempt on the returned channel.
// The channel stays silent when the database becomes ready or ctx ends first.
func watchDatabase(ctx context.Context, db *database.Provider, sugar *zap.SugaredLogger) <-chan error {
	out := make(chan error, 1)
	go func() {
		err := db.Wait(ctx)
		switch {
		case err == nil:
			sugar.Info("database ready")
		case errors.Is(err, database.ErrFailed):
			sugar.Errorw("database unavailable", "state", db.State().String(), "err", err)
			out <- fmt.Errorf("database: %w", err)
		}
	}()
	return out
}

// newSessionStore uses Redis when REDIS_ADDR is set and memory otherwise.
func newSessionStore(ctx context.Context, cfg config.Config, sugar *zap.SugaredLogger) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		sugar.Warn("REDIS_ADDR not set; sessions are kept in memory")
		return session.NewMemoryStore(), func() {}, nil
	}
	client, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}
