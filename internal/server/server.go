// Package server wires the application together: database, services,
// handlers, middleware, and routes. It is the composition root — every
// dependency is assembled here, then main just starts it.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/ridepool/internal/auth"
	"github.com/sakif/ridepool/internal/handler"
	"github.com/sakif/ridepool/internal/middleware"
	sqliteRepo "github.com/sakif/ridepool/internal/repository/sqlite"
	"github.com/sakif/ridepool/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router, the database connection, and the listener
// lifecycle. The database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: sqlite repositories → services →
// handlers → routes. Each layer only receives the interfaces it needs.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("configuring token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	locks := service.NewRideLocks()
	authSvc := service.NewAuthService(s.db.Users, passwords, tokens, s.logger)
	profileSvc := service.NewProfileService(s.db.Profiles, s.logger)
	rideSvc := service.NewRideService(s.db.Rides, s.db.Shares, s.db.Profiles, s.db.Users, locks, s.logger)
	reservationSvc := service.NewReservationService(s.db.Rides, s.db.Shares, s.db.Profiles, locks, s.logger)
	searchSvc := service.NewSearchService(s.db.Rides, s.logger)
	ratingSvc := service.NewRatingService(s.db.Ratings, s.db.Rides, s.db.Shares, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, s.logger)
	profileHandler := handler.NewProfileHandler(profileSvc, s.logger)
	rideHandler := handler.NewRideHandler(rideSvc, searchSvc, s.logger)
	shareHandler := handler.NewShareHandler(reservationSvc, s.logger)
	ratingHandler := handler.NewRatingHandler(ratingSvc, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		// Everything below requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Post("/auth/password", authHandler.HandleChangePassword)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/me/profile", profileHandler.HandleGet)
			r.Put("/me/profile", profileHandler.HandleUpdate)
			r.Post("/me/role", profileHandler.HandleSetRole)

			r.Get("/rides", rideHandler.HandleDashboard)
			r.Post("/rides", rideHandler.HandleCreate)
			r.Post("/rides/search", rideHandler.HandleSearch)
			r.Get("/rides/{id}", rideHandler.HandleGet)
			r.Put("/rides/{id}", rideHandler.HandleUpdate)
			r.Delete("/rides/{id}", rideHandler.HandleDelete)

			r.Post("/rides/{id}/assign", rideHandler.HandleAssign)
			r.Post("/rides/{id}/accept", rideHandler.HandleAccept)
			r.Post("/rides/{id}/reject", rideHandler.HandleReject)
			r.Post("/rides/{id}/start", rideHandler.HandleStart)
			r.Post("/rides/{id}/complete", rideHandler.HandleComplete)
			r.Get("/rides/{id}/seats", rideHandler.HandleSeats)
			r.Get("/rides/{id}/shares", rideHandler.HandleShares)

			r.Post("/rides/{id}/share", shareHandler.HandleJoin)
			r.Put("/rides/{id}/share", shareHandler.HandleUpdate)
			r.Delete("/rides/{id}/share", shareHandler.HandleLeave)

			r.Post("/rides/{id}/rating", ratingHandler.HandleRate)
			r.Get("/rides/{id}/rating", ratingHandler.HandleGet)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
