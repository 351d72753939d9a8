package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appenrollment "github.com/learnhub-th/coursepay/internal/application/enrollment"
	apppayment "github.com/learnhub-th/coursepay/internal/application/payment"
	appwebhook "github.com/learnhub-th/coursepay/internal/application/webhook"
	"github.com/learnhub-th/coursepay/internal/bootstrap"
	"github.com/learnhub-th/coursepay/internal/controller"
	"github.com/learnhub-th/coursepay/internal/gateway"
	"github.com/learnhub-th/coursepay/internal/repository/postgres"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "coursepay-api", "coursepay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	orderRepo := postgres.NewOrderRepository(app.Pool)
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	webhookRepo := postgres.NewWebhookRepository(app.Pool)
	enrollmentRepo := postgres.NewEnrollmentRepository(app.Pool)
	certificateRepo := postgres.NewCertificateRepository(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	guard := postgres.NewProcessedEventRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Gateway ---
	// Without a secret key (local development) charges go through the
	// in-process mock instead of the real gateway.
	var gw gateway.Gateway
	if app.Config.Gateway.SecretKey != "" {
		gw = gateway.NewBreakerGateway(
			gateway.NewRetryGateway(gateway.NewOmiseGateway(&app.Config.Gateway), &app.Config.Gateway),
			&app.Config.Gateway,
		)
	} else {
		app.Logger.Warn().Msg("No gateway secret key configured, using mock gateway")
		gw = gateway.NewMockGateway()
	}

	// --- Use cases ---
	chargeUC := apppayment.NewCreateChargeUseCase(
		orderRepo, paymentRepo, gw, outboxRepo, guard, txManager, app.Logger)
	refundUC := apppayment.NewRefundPaymentUseCase(
		orderRepo, paymentRepo, gw, txManager, app.Logger)
	receiveUC := appwebhook.NewReceiveUseCase(webhookRepo, app.Logger)
	completeUC := appenrollment.NewCompleteUseCase(
		enrollmentRepo, outboxRepo, guard, txManager, app.Logger)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:            app.Pool,
		RedisClient:     app.Redis,
		PaymentRepo:     paymentRepo,
		EnrollmentRepo:  enrollmentRepo,
		CertificateRepo: certificateRepo,
		ChargeUC:        chargeUC,
		RefundUC:        refundUC,
		ReceiveUC:       receiveUC,
		CompleteUC:      completeUC,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         app.Metrics,
		CORSConfig:      app.Config.Server.CORS,
		JWTSecret:       app.Config.Auth.JWTSecret,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
