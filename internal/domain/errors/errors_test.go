package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	e := errors.NewDomainError("charge_failed", "charge was declined", errors.ErrChargeDeclined)
	assert.Contains(t, e.Error(), "charge was declined")
	assert.Contains(t, e.Error(), errors.ErrChargeDeclined.Error())
}

func TestDomainError_ErrorWithoutWrapped(t *testing.T) {
	e := errors.NewDomainError("webhook_dead", "webhook exhausted retries", nil)
	assert.Equal(t, "webhook exhausted retries", e.Error())
}

func TestDomainError_Unwrap(t *testing.T) {
	e := errors.NewDomainError("gateway_timeout", "gateway did not answer", errors.ErrGatewayTimeout)
	assert.True(t, stderrors.Is(e, errors.ErrGatewayTimeout))
}

func TestValidationError_Error(t *testing.T) {
	e := errors.NewValidationError("amount", "must be greater than 0")
	assert.Contains(t, e.Error(), "amount")
	assert.Contains(t, e.Error(), "must be greater than 0")
}

func TestValidationError_As(t *testing.T) {
	var err error = errors.NewValidationError("currency", "must be a 3-letter ISO code")
	var ve *errors.ValidationError
	assert.True(t, stderrors.As(err, &ve))
	assert.Equal(t, "currency", ve.Field)
}
