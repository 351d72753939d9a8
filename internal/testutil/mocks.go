// Package testutil holds hand-rolled in-memory fakes shared across use case
// and controller tests. Every repository fake returns the same sentinel
// errors as its PostgreSQL counterpart, including the duplicate-key mapping,
// so idempotency behavior can be exercised without a database.
package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/learnhub-th/coursepay/internal/domain/certificate"
	"github.com/learnhub-th/coursepay/internal/domain/enrollment"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/order"
	"github.com/learnhub-th/coursepay/internal/domain/outbox"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
	"github.com/learnhub-th/coursepay/internal/domain/webhook"
)

// --- Transaction Manager ---

// MockTxManager runs the function directly; the fakes are not transactional.
type MockTxManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *MockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Order Repository ---

type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order

	CreateFunc func(ctx context.Context, o *order.Order) error
	UpdateFunc func(ctx context.Context, o *order.Order) error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *MockOrderRepository) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return domainErrors.ErrOrderNotFound
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

// --- Payment Repository ---

type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*payment.Payment
	byKey    map[string]uuid.UUID
	byTxn    map[string]uuid.UUID
	refunds  []*payment.Refund
	logs     map[uuid.UUID][]*payment.TransactionLog

	CreateFunc func(ctx context.Context, p *payment.Payment) error
	UpdateFunc func(ctx context.Context, p *payment.Payment) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[uuid.UUID]*payment.Payment),
		byKey:    make(map[string]uuid.UUID),
		byTxn:    make(map[string]uuid.UUID),
		logs:     make(map[uuid.UUID][]*payment.TransactionLog),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byKey[p.IdempotencyKey]; exists {
		return domainErrors.ErrDuplicateIdempotencyKey
	}
	cp := *p
	m.payments[p.ID] = &cp
	m.byKey[p.IdempotencyKey] = p.ID
	return nil
}

func (m *MockPaymentRepository) GetByID(_ context.Context, id uuid.UUID) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(_ context.Context, key string) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byKey[key]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	cp := *m.payments[id]
	return &cp, nil
}

func (m *MockPaymentRepository) GetByTransactionID(_ context.Context, transactionID string) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byTxn[transactionID]
	if !ok {
		return nil, domainErrors.ErrPaymentNotFound
	}
	cp := *m.payments[id]
	return &cp, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; !ok {
		return domainErrors.ErrPaymentNotFound
	}
	cp := *p
	m.payments[p.ID] = &cp
	if p.TransactionID != nil {
		m.byTxn[*p.TransactionID] = p.ID
	}
	return nil
}

func (m *MockPaymentRepository) List(_ context.Context, _ payment.ListFilter) ([]*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*payment.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		cp := *p
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockPaymentRepository) CreateRefund(_ context.Context, r *payment.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.refunds = append(m.refunds, &cp)
	return nil
}

func (m *MockPaymentRepository) AddLog(_ context.Context, entry *payment.TransactionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[entry.PaymentID] = append(m.logs[entry.PaymentID], entry)
	return nil
}

func (m *MockPaymentRepository) GetLogs(_ context.Context, paymentID uuid.UUID) ([]*payment.TransactionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logs[paymentID], nil
}

// Refunds returns the recorded refunds.
func (m *MockPaymentRepository) Refunds() []*payment.Refund {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*payment.Refund(nil), m.refunds...)
}

// --- Webhook Repository ---

type MockWebhookRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*webhook.Record

	InsertFunc func(ctx context.Context, r *webhook.Record) error
}

func NewMockWebhookRepository() *MockWebhookRepository {
	return &MockWebhookRepository{records: make(map[uuid.UUID]*webhook.Record)}
}

func (m *MockWebhookRepository) Insert(ctx context.Context, r *webhook.Record) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *MockWebhookRepository) GetByID(_ context.Context, id uuid.UUID) (*webhook.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, domainErrors.ErrWebhookNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockWebhookRepository) GetUnprocessed(_ context.Context, limit int) ([]*webhook.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*webhook.Record
	for _, r := range m.records {
		if r.Status == webhook.StatusReceived {
			cp := *r
			result = append(result, &cp)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (m *MockWebhookRepository) UpdateStatus(_ context.Context, r *webhook.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.ID]; !ok {
		return domainErrors.ErrWebhookNotFound
	}
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

// --- Enrollment Repository ---

type MockEnrollmentRepository struct {
	mu          sync.Mutex
	enrollments map[uuid.UUID]*enrollment.Enrollment
	byPair      map[string]uuid.UUID

	CreateFunc func(ctx context.Context, e *enrollment.Enrollment) error
}

func NewMockEnrollmentRepository() *MockEnrollmentRepository {
	return &MockEnrollmentRepository{
		enrollments: make(map[uuid.UUID]*enrollment.Enrollment),
		byPair:      make(map[string]uuid.UUID),
	}
}

func pairKey(userID, courseID uuid.UUID) string {
	return userID.String() + ":" + courseID.String()
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(e.UserID, e.CourseID)
	if _, exists := m.byPair[key]; exists {
		return domainErrors.ErrDuplicateEnrollment
	}
	cp := *e
	m.enrollments[e.ID] = &cp
	m.byPair[key] = e.ID
	return nil
}

func (m *MockEnrollmentRepository) GetByID(_ context.Context, id uuid.UUID) (*enrollment.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return nil, domainErrors.ErrEnrollmentNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockEnrollmentRepository) GetByUserAndCourse(_ context.Context, userID, courseID uuid.UUID) (*enrollment.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPair[pairKey(userID, courseID)]
	if !ok {
		return nil, domainErrors.ErrEnrollmentNotFound
	}
	cp := *m.enrollments[id]
	return &cp, nil
}

func (m *MockEnrollmentRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*enrollment.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*enrollment.Enrollment
	for _, e := range m.enrollments {
		if e.UserID == userID {
			cp := *e
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockEnrollmentRepository) Update(_ context.Context, e *enrollment.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enrollments[e.ID]; !ok {
		return domainErrors.ErrEnrollmentNotFound
	}
	cp := *e
	m.enrollments[e.ID] = &cp
	return nil
}

// --- Certificate Repository ---

type MockCertificateRepository struct {
	mu     sync.Mutex
	certs  map[uuid.UUID]*certificate.Certificate
	byPair map[string]uuid.UUID
	byCode map[string]uuid.UUID

	CreateFunc func(ctx context.Context, c *certificate.Certificate) error
}

func NewMockCertificateRepository() *MockCertificateRepository {
	return &MockCertificateRepository{
		certs:  make(map[uuid.UUID]*certificate.Certificate),
		byPair: make(map[string]uuid.UUID),
		byCode: make(map[string]uuid.UUID),
	}
}

func (m *MockCertificateRepository) Create(ctx context.Context, c *certificate.Certificate) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(c.UserID, c.CourseID)
	if _, exists := m.byPair[key]; exists {
		return domainErrors.ErrDuplicateCertificate
	}
	cp := *c
	m.certs[c.ID] = &cp
	m.byPair[key] = c.ID
	m.byCode[c.VerificationCode] = c.ID
	return nil
}

func (m *MockCertificateRepository) GetByID(_ context.Context, id uuid.UUID) (*certificate.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.certs[id]
	if !ok {
		return nil, domainErrors.ErrCertificateNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCertificateRepository) GetByUserAndCourse(_ context.Context, userID, courseID uuid.UUID) (*certificate.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPair[pairKey(userID, courseID)]
	if !ok {
		return nil, domainErrors.ErrCertificateNotFound
	}
	cp := *m.certs[id]
	return &cp, nil
}

func (m *MockCertificateRepository) GetByVerificationCode(_ context.Context, code string) (*certificate.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, domainErrors.ErrCertificateNotFound
	}
	cp := *m.certs[id]
	return &cp, nil
}

func (m *MockCertificateRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*certificate.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*certificate.Certificate
	for _, c := range m.certs {
		if c.UserID == userID && c.Status == certificate.StatusActive {
			cp := *c
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *MockCertificateRepository) Update(_ context.Context, c *certificate.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.certs[c.ID]; !ok {
		return domainErrors.ErrCertificateNotFound
	}
	cp := *c
	m.certs[c.ID] = &cp
	return nil
}

// Count reports how many certificates exist.
func (m *MockCertificateRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.certs)
}

// --- Outbox Repository ---

type MockOutboxRepository struct {
	mu      sync.Mutex
	entries []*outbox.Entry

	InsertFunc func(ctx context.Context, entry *outbox.Entry) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Insert(ctx context.Context, entry *outbox.Entry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MockOutboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusPending {
			result = append(result, e)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (m *MockOutboxRepository) MarkPublished(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.Status = outbox.StatusPublished
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) MarkFailed(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.RetryCount++
			if e.RetryCount >= e.MaxRetries {
				e.Status = outbox.StatusFailed
			}
			return nil
		}
	}
	return nil
}

// EntriesForTopic returns the staged entries for a topic, in insert order.
func (m *MockOutboxRepository) EntriesForTopic(topic string) []*outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*outbox.Entry
	for _, e := range m.entries {
		if e.Topic == topic {
			cp := *e
			result = append(result, &cp)
		}
	}
	return result
}
