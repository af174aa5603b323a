// Package app wires the keygate server runtime: config, logging, stores, the
// auth HTTP surface, metrics, and the revocation sweeper.
package app

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"time"

	"keygate/cmd/identity"
	authapi "keygate/cmd/internal/auth/api"
	"keygate/cmd/internal/auth/session"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

// App is the keygate server runtime.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth    *authapi.Handler
	sweeper *session.Sweeper
	metrics *Metrics
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	st, dbPool, dbEnabled, idStore, registry, revocations, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	sessCfg, err := loadSessionConfig(log, dbEnabled)
	if err != nil {
		return nil, err
	}

	tokens, err := session.NewHS256Issuer(sessCfg)
	if err != nil {
		return nil, err
	}
	sessions := session.NewService(sessCfg, tokens, registry, revocations)

	idSvc, err := identity.NewService(idStore, identity.DefaultArgon2idParams())
	if err != nil {
		return nil, err
	}

	auth, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), idSvc, sessions)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		auth:      auth,
		sweeper:   session.NewSweeper(log, revocations, sessCfg.SweepInterval),
		metrics:   NewMetrics(),
	}, nil
}

// Run starts the HTTP server and the revocation sweeper, and blocks until
// context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.metrics)

	handler := WithRequestLogging(WithMetrics(mux, a.metrics), a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.sweeper.Run(sweepCtx)

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// loadSessionConfig loads token config from env. In-memory dev mode may run
// without KEYGATE_JWT_SECRET; an ephemeral secret is generated so tokens do
// not survive restarts.
func loadSessionConfig(log Logger, dbEnabled bool) (session.Config, error) {
	sessCfg, err := session.LoadConfigFromEnv()
	if err == nil {
		return sessCfg, nil
	}
	if dbEnabled || !errors.Is(err, session.ErrConfig) || os.Getenv("KEYGATE_JWT_SECRET") != "" {
		return session.Config{}, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return session.Config{}, err
	}

	sessCfg = session.DefaultConfig()
	sessCfg.Secret = secret
	log.Warn("auth.secret.ephemeral", "reason", "KEYGATE_JWT_SECRET not set in dev mode")
	return sessCfg, nil
}

// newStore decides between Postgres-backed persistence and in-memory dev stores.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, identity.Store, session.Registry, session.RevocationStore, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return nopStore{}, nil, false,
			identity.NewMemoryStore(),
			session.NewMemoryRegistry(),
			session.NewMemoryRevocations(),
			nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, nil, nil, nil, err
	}

	log.Info("db.enabled.postgres_store")

	idStore, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, nil, nil, err
	}

	// Ownership model: app owns the pool lifecycle; store impls never close it.
	return dbStore{pool: pool}, pool, true,
		idStore,
		session.NewPostgresRegistry(pool),
		session.NewPostgresRevocations(pool),
		nil
}

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
