package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"medicart/internal/config"
	"medicart/internal/database"
	"medicart/internal/handler"
	"medicart/internal/mw"
	"medicart/internal/service"
	"medicart/internal/worker"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	// Services
	smsClient := service.NewSMSClient(cfg.SMSGatewayAddress, cfg.SMSSendTimeout)
	authSvc := service.NewAuthService(db, smsClient, cfg.SMSSender)
	orderSvc := service.NewOrderService(db)
	couponSvc := service.NewCouponService(db)
	quotaSvc := service.NewQuotaService(db, cfg.SMSQuotaLimit)
	cardSvc := service.NewHealthCardService(db)
	confirmationSvc := service.NewConfirmationService(
		couponSvc, quotaSvc, smsClient, orderSvc,
		cfg.PartnerLabID, cfg.SMSSender, cfg.SupportPhone,
	)

	// Workers
	notifier := worker.NewNotifier(orderSvc, confirmationSvc, cfg.NotifyInterval)
	sweeper := worker.NewSweeper(authSvc, couponSvc, cfg.SweepInterval, cfg.ReservationTTL)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Public routes
	r.Post("/api/auth/signup", handler.SignupHandler(authSvc))
	r.Post("/api/auth/login", handler.LoginHandler(authSvc, cfg.JWTSecret))
	r.Post("/api/auth/verify-mobile", handler.VerifyMobileHandler(authSvc, cfg.JWTSecret))
	r.Post("/api/auth/resend-verification", handler.ResendCodeHandler(authSvc))
	r.Post("/api/auth/forgot-password", handler.RequestPasswordResetHandler(authSvc))
	r.Post("/api/auth/verify-reset-code", handler.VerifyResetCodeHandler(authSvc))
	r.Post("/api/auth/reset-password", handler.ResetPasswordHandler(authSvc))

	r.Post("/api/orders", handler.CreateOrderHandler(orderSvc, quotaSvc, cfg.PartnerLabID))
	r.Get("/api/orders", handler.ListOrdersHandler(orderSvc))
	r.Patch("/api/orders/{id}/status", handler.UpdateOrderStatusHandler(orderSvc))
	r.Delete("/api/orders/{id}", handler.DeleteOrderHandler(orderSvc))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/api/auth/me", handler.CurrentUserHandler(authSvc))
		r.Post("/api/health-card", handler.CreateHealthCardHandler(cardSvc))
		r.Get("/api/health-card", handler.GetHealthCardHandler(cardSvc))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go notifier.Start(ctx)
	go sweeper.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop workers
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
