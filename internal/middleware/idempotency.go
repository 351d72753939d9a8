package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/learnhub-th/coursepay/internal/repository/postgres"
)

const (
	maxIdempotencyBodySize = 1 << 20
	idempotencyTTL         = 24 * time.Hour
)

// Idempotency replays the cached response for a repeated Idempotency-Key.
// This protects mutating endpoints against client retries; the event-side
// processed_events guard is a separate mechanism.
func Idempotency(repo *postgres.IdempotencyRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if entry, err := repo.Get(r.Context(), key); err == nil && entry != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotency-Replayed", "true")
				w.WriteHeader(entry.ResponseStatus)
				w.Write([]byte(entry.ResponseBody))
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if cacheable(rec) {
				now := time.Now()
				repo.Set(r.Context(), &postgres.IdempotencyEntry{
					Key:            key,
					ResponseBody:   rec.body.String(),
					ResponseStatus: rec.statusCode,
					CreatedAt:      now,
					ExpiresAt:      now.Add(idempotencyTTL),
				})
			}
		})
	}
}

// cacheable excludes 5xx responses (the client should genuinely retry those)
// and oversized bodies.
func cacheable(rec *responseRecorder) bool {
	return rec.statusCode >= 200 && rec.statusCode < 500 && !rec.bodyTruncated
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	body          *bytes.Buffer
	bodyTruncated bool
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.bodyTruncated {
		if r.body.Len()+len(b) > maxIdempotencyBodySize {
			r.bodyTruncated = true
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}
