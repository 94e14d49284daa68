package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"libraryapi/internal/auth"
	"libraryapi/internal/book"
	"libraryapi/internal/config"
	"libraryapi/internal/httpx"
	"libraryapi/internal/loan"
	"libraryapi/internal/platform/logger"
	"libraryapi/internal/review"
	"libraryapi/internal/user"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("libraryapi", cfg.LogLevel)
	slog.SetDefault(log)

	dbPool := mustOpenDB(cfg.DBDSN, log)
	defer dbPool.Close()

	bookRepo := book.NewPostgresRepo(dbPool, cfg.StoreTimeout)
	loanRepo := loan.NewPostgresRepo(dbPool, cfg.StoreTimeout)
	reviewRepo := review.NewPostgresRepo(dbPool, cfg.StoreTimeout)
	userRepo := user.NewPostgresRepo(dbPool, cfg.StoreTimeout)

	bookService := book.NewService(bookRepo)
	loanService := loan.NewService(loanRepo)
	reviewService := review.NewService(reviewRepo, loanService, review.Policy{
		RequireReturnedLoan: cfg.ReviewRequireReturnedLoan,
		OnePerUser:          cfg.ReviewOnePerUser,
	})
	userService := user.NewService(userRepo, cfg.JWTSecret, cfg.TokenTTL)

	bookHandler := book.NewHTTPHandler(bookService)
	loanHandler := loan.NewHTTPHandler(loanService)
	reviewHandler := review.NewHTTPHandler(reviewService)
	userHandler := user.NewHTTPHandler(userService)

	requireAuth := httpx.AuthMiddleware(cfg.JWTSecret)
	requireAdmin := httpx.RequireRole(auth.RoleAdmin)
	rateLimit := httpx.NewRateLimitMiddleware(20, 40)

	router := chi.NewRouter()
	router.Use(httpx.RequestIDMiddleware)
	router.Use(httpx.RequestLoggerMiddleware(log))
	router.Use(httpx.RecoveryMiddleware)
	router.Use(httpx.MetricsMiddleware)
	router.Use(httpx.SecurityHeadersMiddleware)
	router.Use(httpx.CORSMiddleware(cfg.CORSOrigins))
	router.Use(httpx.RequestSizeLimitMiddleware(1 << 20))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(rateLimit.Middleware)

		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)

		r.Get("/books", bookHandler.Search)
		r.Get("/books/{id}", bookHandler.GetByID)
		r.Get("/books/{id}/reviews", reviewHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", userHandler.Me)
			r.Post("/loans", loanHandler.Borrow)
			r.Post("/loans/return", loanHandler.Return)
			r.Get("/loans", loanHandler.ListMine)
			r.Post("/books/{id}/reviews", reviewHandler.Submit)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Post("/books", bookHandler.Create)
				r.Put("/books/{id}", bookHandler.Update)
				r.Delete("/books/{id}", bookHandler.Delete)

				r.Get("/admin/loans", loanHandler.ListAll)
				r.Get("/admin/stats", loanHandler.Stats)

				r.Get("/admin/users", userHandler.List)
				r.Post("/admin/users", userHandler.Create)
				r.Put("/admin/users/{id}", userHandler.Update)
				r.Delete("/admin/users/{id}", userHandler.Delete)
			})
		})
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", slog.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
}

func mustOpenDB(dsn string, log *slog.Logger) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Error("cannot create db pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Error("cannot ping database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("database connection OK")
	return pool
}
