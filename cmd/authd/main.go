// Command authd runs the authentication service: a chi HTTP server in
// front of the session manager, backed by Redis for the refresh token
// registry and either PostgreSQL or an in-memory map for user records.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/directory/memory"
	"github.com/MrEthical07/authcore/directory/postgres"
	"github.com/MrEthical07/authcore/httpapi"
)

type envConfig struct {
	Addr            string        `env:"ADDR" env-default:"0.0.0.0:5000"`
	JWTSecret       string        `env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	CookieSecure    bool          `env:"COOKIE_SECURE" env-default:"false"`
	CookieDomain    string        `env:"COOKIE_DOMAIN"`
	RedisAddr       string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var env envConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     env.RedisAddr,
		Password: env.RedisPassword,
	})
	defer rdb.Close()

	directory, cleanup, err := buildDirectory(ctx, env, log)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := authcore.DefaultConfig()
	cfg.Token.Secret = []byte(env.JWTSecret)
	cfg.Token.AccessTTL = env.AccessTokenTTL
	cfg.Refresh.TTL = env.RefreshTokenTTL
	cfg.Cookie.Secure = env.CookieSecure
	cfg.Cookie.Domain = env.CookieDomain

	manager, err := authcore.NewManager(cfg, directory, rdb)
	if err != nil {
		return fmt.Errorf("build session manager: %w", err)
	}

	srv := &http.Server{
		Addr:         env.Addr,
		Handler:      httpapi.NewHandler(manager, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", env.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildDirectory selects the user directory backend: PostgreSQL when
// DATABASE_URL is set, otherwise the in-memory directory for development.
func buildDirectory(ctx context.Context, env envConfig, log *slog.Logger) (authcore.UserDirectory, func(), error) {
	if env.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory user directory")
		return memory.New(), func() {}, nil
	}

	db, err := sql.Open("postgres", env.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	dir := postgres.New(db)
	if err := dir.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return dir, func() { db.Close() }, nil
}
