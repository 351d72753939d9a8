// Package idempotency provides the claim-check primitive every event handler
// wraps its side effects in. Claims are taken before the side effect runs
// (claim-before policy); handlers pair the claim with natural-key existence
// checks so a crash between claim and effect can be detected and resumed.
package idempotency

import "context"

// Guard scopes used across the workflows.
const (
	ScopePaymentReceived  = "payment.received"
	ScopeEnroll           = "enroll"
	ScopeCourseCompleted  = "course.completed"
	ScopeIssueCertificate = "issue-certificate"
)

// Guard records that a logical event has been processed. TryClaim must be a
// single atomic persistence operation, never a read-then-write pair, so that
// concurrent duplicate deliveries resolve to exactly one winner. There is no
// unclaim: once claimed, always claimed.
type Guard interface {
	// TryClaim returns true and records the claim if (scope, key) was
	// never claimed before; false if it was.
	TryClaim(ctx context.Context, scope, key string) (bool, error)
}
