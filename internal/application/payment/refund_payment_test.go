package payment_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apppayment "github.com/learnhub-th/coursepay/internal/application/payment"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/order"
	domainpayment "github.com/learnhub-th/coursepay/internal/domain/payment"
	"github.com/learnhub-th/coursepay/internal/gateway"
	"github.com/learnhub-th/coursepay/internal/testutil"
)

func TestRefundPayment_Success(t *testing.T) {
	orders := testutil.NewMockOrderRepository()
	payments := testutil.NewMockPaymentRepository()
	ctx := context.Background()

	userID := uuid.New()
	o := testutil.NewTestOrder(userID, uuid.New(), 199000)
	require.NoError(t, o.Confirm())
	require.NoError(t, orders.Create(ctx, o))

	p := testutil.NewSuccessfulPayment(o.ID, userID, 199000, "chrg_1")
	require.NoError(t, payments.Create(ctx, p))
	require.NoError(t, payments.Update(ctx, p))

	uc := apppayment.NewRefundPaymentUseCase(orders, payments, gateway.NewMockGateway(),
		&testutil.MockTxManager{}, zerolog.Nop())

	refund, err := uc.Execute(ctx, apppayment.RefundPaymentRequest{PaymentID: p.ID, Reason: "course cancelled"})
	require.NoError(t, err)

	assert.Equal(t, domainpayment.RefundCompleted, refund.Status)
	assert.NotNil(t, refund.ProviderRefundID)

	updated, err := payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusRefunded, updated.Status)

	updatedOrder, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusRefunded, updatedOrder.Status)
	assert.Len(t, payments.Refunds(), 1)
}

func TestRefundPayment_RejectsNonSuccessful(t *testing.T) {
	orders := testutil.NewMockOrderRepository()
	payments := testutil.NewMockPaymentRepository()
	ctx := context.Background()

	p := testutil.NewTestPayment(uuid.New(), uuid.New(), 199000) // pending
	require.NoError(t, payments.Create(ctx, p))

	uc := apppayment.NewRefundPaymentUseCase(orders, payments, gateway.NewMockGateway(),
		&testutil.MockTxManager{}, zerolog.Nop())

	_, err := uc.Execute(ctx, apppayment.RefundPaymentRequest{PaymentID: p.ID})
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotRefundable)
	assert.Empty(t, payments.Refunds())
}

func TestRefundPayment_UnknownPayment(t *testing.T) {
	uc := apppayment.NewRefundPaymentUseCase(
		testutil.NewMockOrderRepository(), testutil.NewMockPaymentRepository(),
		gateway.NewMockGateway(), &testutil.MockTxManager{}, zerolog.Nop())

	_, err := uc.Execute(context.Background(), apppayment.RefundPaymentRequest{PaymentID: uuid.New()})
	assert.ErrorIs(t, err, domainErrors.ErrPaymentNotFound)
}
