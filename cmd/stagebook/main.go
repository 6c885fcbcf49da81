// Stagebook is a marketplace scheduling service for artist and venue
// bookings: month availability, owner-managed slots, and a booking
// request/accept/reject workflow.
//
// @title Stagebook API
// @version 1.0
// @description Scheduling and booking API for artists and venues.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"stagebook/config"
	_ "stagebook/docs"
	"stagebook/internal/adapters/auth"
	"stagebook/internal/adapters/email"
	delivery "stagebook/internal/delivery/http"
	"stagebook/internal/delivery/http/controllers"
	"stagebook/internal/delivery/http/middleware"
	"stagebook/internal/repository/postgres"
	"stagebook/internal/services"
)

const serviceTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	slotRepo := postgres.NewSlotRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailerProvider,
		FromAddress: cfg.MailerFromAddress,
		FromName:    cfg.MailerFromName,
		SES: email.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	notifier := services.NewNotifierService(mailer, email.NewTemplateRenderer())

	calendarSvc := services.NewCalendarService(slotRepo, eventRepo, logger, serviceTimeout)
	bookingSvc := services.NewBookingService(bookingRepo, slotRepo, eventRepo, notifier, calendarSvc, logger, serviceTimeout)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	authWrap := middleware.RequireAuth(verifier, logger)

	availabilityController := controllers.NewAvailabilityController(logger, calendarSvc, bookingSvc)
	bookingController := controllers.NewBookingController(logger, bookingSvc)

	mux := delivery.NewRouter(availabilityController, bookingController, authWrap)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
