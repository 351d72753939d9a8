package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/learnhub-th/coursepay/internal/domain/enrollment"
	"github.com/learnhub-th/coursepay/internal/domain/order"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
)

func NewTestOrder(userID, courseID uuid.UUID, totalSatang int64) *order.Order {
	o, err := order.New(userID, courseID, order.TypeCourseEnrollment, totalSatang, "THB")
	if err != nil {
		panic(err)
	}
	return o
}

func NewTestPayment(orderID, userID uuid.UUID, amountSatang int64) *payment.Payment {
	p, err := payment.New(orderID, userID, uuid.New().String(), payment.MethodCreditCard,
		payment.Amount{ValueSatang: amountSatang, Currency: "THB"}, "test charge")
	if err != nil {
		panic(err)
	}
	return p
}

func NewSuccessfulPayment(orderID, userID uuid.UUID, amountSatang int64, transactionID string) *payment.Payment {
	p := NewTestPayment(orderID, userID, amountSatang)
	if err := p.MarkSuccessful(transactionID); err != nil {
		panic(err)
	}
	return p
}

func NewActiveEnrollment(userID, courseID uuid.UUID, priceSatang int64) *enrollment.Enrollment {
	e := enrollment.New(userID, courseID, priceSatang)
	e.ConfirmPayment("chrg_test")
	return e
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

func Float64Ptr(f float64) *float64 {
	return &f
}
