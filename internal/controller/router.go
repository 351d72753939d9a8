package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	appenrollment "github.com/learnhub-th/coursepay/internal/application/enrollment"
	apppayment "github.com/learnhub-th/coursepay/internal/application/payment"
	appwebhook "github.com/learnhub-th/coursepay/internal/application/webhook"
	"github.com/learnhub-th/coursepay/internal/domain/certificate"
	"github.com/learnhub-th/coursepay/internal/domain/enrollment"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
	"github.com/learnhub-th/coursepay/internal/infrastructure/config"
	"github.com/learnhub-th/coursepay/internal/infrastructure/observability"
	customMW "github.com/learnhub-th/coursepay/internal/middleware"
	"github.com/learnhub-th/coursepay/internal/repository/postgres"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Pool            *pgxpool.Pool
	RedisClient     *redis.Client
	PaymentRepo     payment.Repository
	EnrollmentRepo  enrollment.Repository
	CertificateRepo certificate.Repository
	ChargeUC        *apppayment.CreateChargeUseCase
	RefundUC        *apppayment.RefundPaymentUseCase
	ReceiveUC       *appwebhook.ReceiveUseCase
	CompleteUC      *appenrollment.CompleteUseCase
	IdempotencyRepo *postgres.IdempotencyRepository
	Metrics         *observability.Metrics
	CORSConfig      config.CORSConfig
	JWTSecret       string
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	paymentH := NewPaymentController(deps.ChargeUC, deps.RefundUC, deps.PaymentRepo)
	webhookH := NewWebhookController(deps.ReceiveUC)
	enrollmentH := NewEnrollmentController(deps.CompleteUC, deps.EnrollmentRepo)
	certificateH := NewCertificateController(deps.CertificateRepo)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// Gateway callbacks. Intake must stay cheap and unauthenticated beyond the
	// signature stored with the record; rate limiting protects storage.
	r.With(customMW.RateLimit(600)).Post("/webhooks/gateway", webhookH.Receive)

	// Public certificate verification.
	r.Get("/verify/{code}", certificateH.Verify)

	r.Route("/api/v1", func(r chi.Router) {
		// Bearer auth guards the learner-facing API when a secret is
		// configured. Local development without auth.jwt_secret runs open;
		// production config validation refuses to start without one.
		if deps.JWTSecret != "" {
			r.Use(customMW.RequireAuth(deps.JWTSecret))
		}

		// Idempotency middleware replays cached responses for mutating
		// endpoints.
		idempotencyMW := customMW.Idempotency(deps.IdempotencyRepo)

		// Charges and payments
		r.With(idempotencyMW).Post("/charges", paymentH.CreateCharge)
		r.Get("/payments/{id}", paymentH.GetPayment)
		r.Get("/payments", paymentH.ListPayments)
		r.With(idempotencyMW).Post("/payments/{id}/refund", paymentH.RefundPayment)

		// Enrollments
		r.Post("/enrollments/progress", enrollmentH.UpdateProgress)
		r.Get("/enrollments/{id}", enrollmentH.GetEnrollment)
		r.Get("/users/{user_id}/enrollments", enrollmentH.ListUserEnrollments)

		// Certificates
		r.Get("/certificates/{id}", certificateH.GetCertificate)
		r.Get("/users/{user_id}/certificates", certificateH.ListUserCertificates)
	})

	return r
}
