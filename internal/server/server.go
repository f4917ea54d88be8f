package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/noob2628/Inventory-App/config"
	"github.com/noob2628/Inventory-App/internal/auth"
	"github.com/noob2628/Inventory-App/internal/db"
	"github.com/noob2628/Inventory-App/internal/handlers"
	"github.com/noob2628/Inventory-App/internal/logger"
	"github.com/noob2628/Inventory-App/internal/metrics"
	"github.com/noob2628/Inventory-App/internal/mq"
	"github.com/noob2628/Inventory-App/internal/scheduler"
	"github.com/noob2628/Inventory-App/internal/services"
	"github.com/noob2628/Inventory-App/internal/storage"
	"github.com/noob2628/Inventory-App/internal/store"
)

// Server wraps the HTTP server, router and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	objects    *storage.Storage
	scheduler  *scheduler.Scheduler
	logger     *zap.Logger
}

// Services groups what the router needs. It lets tests build a router
// without a database.
type Services struct {
	Users     *services.UserService
	Inventory *services.InventoryService
	Exports   *services.ExportService
	Tokens    *auth.TokenManager
	Metrics   *metrics.Metrics
}

// New connects every configured dependency and builds the router.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv := &Server{db: dbConn, logger: log}

	srv.queue, err = mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		srv.close()
		return nil, err
	}
	srv.objects, err = storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		srv.close()
		return nil, err
	}

	m := metrics.New()
	inventoryCfg := services.InventoryServiceConfig{
		EventsChannel: cfg.MQ.EventsChannel,
		Observer:      m,
		Logger:        logger.Named(log, "svc.inventory"),
	}
	if srv.queue != nil {
		inventoryCfg.Events = srv.queue
	}
	inventoryRepo := store.NewInventoryRepository(dbConn)

	var objects services.ObjectWriter
	if srv.objects != nil {
		objects = srv.objects
	}
	exports := services.NewExportService(inventoryRepo, objects, cfg.Snapshot.Prefix, logger.Named(log, "svc.export"))

	srv.router = NewRouter(Services{
		Users:     services.NewUserService(store.NewUserRepository(dbConn)),
		Inventory: services.NewInventoryService(inventoryRepo, inventoryCfg),
		Exports:   exports,
		Tokens:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Metrics:   m,
	}, log)

	if srv.objects != nil && cfg.Snapshot.Cron != "" {
		srv.scheduler = scheduler.NewScheduler(exports, logger.Named(log, "scheduler"))
		if err := srv.scheduler.Start(cfg.Snapshot.Cron); err != nil {
			srv.close()
			return nil, err
		}
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

// NewRouter builds the chi router with the middleware chain and every route.
func NewRouter(svc Services, log *zap.Logger) *chi.Mux {
	if log == nil {
		log = zap.NewNop()
	}
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(logger.Named(log, "http")),
	)
	if svc.Metrics != nil {
		router.Use(svc.Metrics.Middleware)
		router.Method(http.MethodGet, "/metrics", svc.Metrics.Handler())
	}

	router.Get("/healthz", handlers.Healthz)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, svc.Users, svc.Tokens, logger.Named(log, "handlers.auth"))
		})
		r.Route("/inventory", func(r chi.Router) {
			handlers.InventoryRouter(r, svc.Inventory, svc.Exports, svc.Tokens, logger.Named(log, "handlers.inventory"))
		})
	})
	return router
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			log.Info("request completed",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("client_ip", r.RemoteAddr))
		})
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases every owned resource.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.logger.Warn("close mq", zap.Error(err))
		}
	}
	if s.objects != nil {
		if err := s.objects.Close(); err != nil {
			s.logger.Warn("close storage", zap.Error(err))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
