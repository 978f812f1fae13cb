package main

// GET    /products            - catalog
// GET    /products/{slug}     - product page
// GET    /cart                - cart with totals
// POST   /cart/items          - add one, or set quantity
// DELETE /cart/items/{slug}   - remove a line item
// DELETE /cart/items          - empty the cart
// PUT    /cart/shipping       - save shipping address
// PUT    /cart/payment        - save payment method
// POST   /orders              - place order
// GET    /orders/{id}         - order page
// POST   /logout              - drop the session and its cart

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"storefront/config"
	"storefront/handler"
	"storefront/logger"
	"storefront/service"
	"storefront/session"
	"storefront/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewForEnvironment("development").Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() { _ = log.Sync() }()

	// Connect to DB
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	st, err := store.NewPostgresStore(pingCtx, cfg.Database.DSN(), cfg.Database.Pool())
	cancel()
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	defer st.Close()

	if cfg.Database.AutoMigrate {
		m, err := store.NewMigrator(st.DB, log.Named("migrate"))
		if err != nil {
			log.Fatal("Failed to prepare migrations", zap.Error(err))
		}
		if err := m.Up(); err != nil {
			log.Fatal("Failed running migrations", zap.Error(err))
		}
	}

	sessions, closeSessions, err := newSessionProvider(cfg)
	if err != nil {
		log.Fatal("Failed to set up sessions", zap.Error(err))
	}
	defer closeSessions()

	svc := service.NewService(st, service.Config{
		Pricing:        cfg.Pricing.Rules(),
		PaymentMethods: cfg.Checkout.PaymentMethods,
	})
	var serviceInterface service.ServiceInterface = svc

	h := handler.NewHandler(serviceInterface, sessions, cfg.HTTP.MaxBodySize)

	r := mux.NewRouter()
	r.Use(logger.Recovery(log), logger.Middleware(log))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server running",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
			zap.String("session_backend", cfg.Session.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
}

// newSessionProvider picks where carts live. The returned func releases
// whatever the provider holds open.
func newSessionProvider(cfg *config.Config) (session.Provider, func(), error) {
	opts := cfg.Session.Cookie()
	switch cfg.Session.Backend {
	case "redis":
		p, err := session.NewRedisProvider(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, opts, cfg.Session.TTL)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil
	case "memory":
		return session.NewMemoryProvider(opts), func() {}, nil
	default:
		return session.NewCookieProvider(opts), func() {}, nil
	}
}
