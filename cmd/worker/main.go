package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcertificate "github.com/learnhub-th/coursepay/internal/application/certificate"
	appenrollment "github.com/learnhub-th/coursepay/internal/application/enrollment"
	appwebhook "github.com/learnhub-th/coursepay/internal/application/webhook"
	"github.com/learnhub-th/coursepay/internal/bootstrap"
	"github.com/learnhub-th/coursepay/internal/eventbus"
	"github.com/learnhub-th/coursepay/internal/events"
	"github.com/learnhub-th/coursepay/internal/infrastructure/observability"
	"github.com/learnhub-th/coursepay/internal/renderer"
	"github.com/learnhub-th/coursepay/internal/repository/postgres"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "coursepay-worker", "coursepay_worker")
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
	guard := postgres.NewProcessedEventRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Event bus ---
	workerCfg := app.Config.Worker
	bus := eventbus.NewRedisBus(
		app.Redis,
		app.Config.InstanceID,
		app.Logger,
		eventbus.WithBatchSize(workerCfg.BatchSize),
		eventbus.WithBlockDuration(workerCfg.BlockDuration),
		eventbus.WithVisibilityTimeout(workerCfg.VisibilityTimeout),
	)

	// --- Use cases ---
	activateUC := appenrollment.NewActivateUseCase(enrollmentRepo, guard, txManager, app.Logger)
	issueUC := appcertificate.NewIssueUseCase(
		certificateRepo, outboxRepo, guard, txManager,
		renderer.NewFileRenderer(app.Config.Certificate.OutputDir, app.Config.Certificate.PublicURL),
		app.Logger,
	)
	processUC := appwebhook.NewProcessUseCase(
		webhookRepo, paymentRepo, orderRepo, outboxRepo, guard, txManager,
		app.Config.Webhook.SigningSecret, app.Logger,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Outbox drainer: staged events go out to Redis Streams.
	g.Go(func() error {
		return runOutboxDrainer(gCtx, app.Logger, app.Metrics, txManager, outboxRepo, bus, workerCfg.OutboxPollInterval)
	})

	// 2. Enrollment activation off payment.received.
	g.Go(func() error {
		return bus.Subscribe(gCtx, events.TopicPaymentReceived, workerCfg.EnrollmentGroup,
			consumed(app.Metrics, events.TopicPaymentReceived, activateUC.HandlePaymentReceived))
	})

	// 3. Certificate issuance off course.completed.
	g.Go(func() error {
		return bus.Subscribe(gCtx, events.TopicCourseCompleted, workerCfg.CertificateGroup,
			consumed(app.Metrics, events.TopicCourseCompleted, issueUC.HandleCourseCompleted))
	})

	// 4. Webhook reconciliation poller.
	g.Go(func() error {
		return runWebhookProcessor(gCtx, app.Logger, processUC, app.Config.Webhook.PollInterval, int(workerCfg.BatchSize))
	})

	// 5. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	app.Logger.Info().Str("instance", app.Config.InstanceID).Msg("Worker started")

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

// consumed wraps a handler with per-topic consumption metrics.
func consumed(m *observability.Metrics, topic string, handler eventbus.Handler) eventbus.Handler {
	return func(ctx context.Context, payload []byte) error {
		err := handler(ctx, payload)
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.EventsConsumed.WithLabelValues(topic, status).Inc()
		return err
	}
}

// runOutboxDrainer polls the outbox and publishes pending entries. The batch
// is picked up FOR UPDATE SKIP LOCKED inside a transaction, so competing
// worker instances never publish the same entry twice.
func runOutboxDrainer(
	ctx context.Context,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	txManager *postgres.TxManager,
	outboxRepo *postgres.OutboxRepository,
	bus eventbus.Publisher,
	pollInterval time.Duration,
) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			entries, err := outboxRepo.GetPending(txCtx, 10)
			if err != nil {
				return err
			}
			metrics.OutboxPending.Set(float64(len(entries)))
			for _, entry := range entries {
				payload, err := json.Marshal(entry.Payload)
				if err != nil {
					logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Unmarshalable outbox payload")
					if err := outboxRepo.MarkFailed(txCtx, entry.ID); err != nil {
						logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to mark outbox entry failed")
					}
					continue
				}
				if err := bus.Publish(ctx, entry.Topic, payload); err != nil {
					logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to publish outbox event")
					if err := outboxRepo.MarkFailed(txCtx, entry.ID); err != nil {
						logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to mark outbox entry failed")
					}
					continue
				}
				metrics.EventsPublished.WithLabelValues(entry.Topic).Inc()
				if err := outboxRepo.MarkPublished(txCtx, entry.ID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("Outbox drainer error")
		}
	}
}

// runWebhookProcessor periodically reconciles stored gateway callbacks.
func runWebhookProcessor(
	ctx context.Context,
	logger zerolog.Logger,
	processUC *appwebhook.ProcessUseCase,
	pollInterval time.Duration,
	batchSize int,
) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if _, err := processUC.ProcessBatch(ctx, batchSize); err != nil {
			logger.Error().Err(err).Msg("Webhook processing error")
		}
	}
}
