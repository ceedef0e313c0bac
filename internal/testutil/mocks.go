package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/mbuchner/liefertermin/internal/domain/audit"
	"github.com/mbuchner/liefertermin/internal/domain/deadline"
	"github.com/mbuchner/liefertermin/internal/domain/deadletter"
	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/mbuchner/liefertermin/internal/domain/order"
	"github.com/google/uuid"
)

// --- Order Repository Mock ---

// MockOrderRepository is a mock implementation of order.Repository.
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order

	FindByIDFunc        func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	UpdateSyncStateFunc func(ctx context.Context, o *order.Order) error
	SaveDeadlinesFunc   func(ctx context.Context, id uuid.UUID, latestShippingAt, latestDeliveryAt *time.Time) error
	ListPendingSyncFunc func(ctx context.Context, limit int) ([]*order.Order, error)
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func (m *MockOrderRepository) Put(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (m *MockOrderRepository) UpdateSyncState(ctx context.Context, o *order.Order) error {
	if m.UpdateSyncStateFunc != nil {
		return m.UpdateSyncStateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return domainErrors.ErrOrderNotFound
	}
	m.orders[o.ID] = o.Clone()
	return nil
}

func (m *MockOrderRepository) SaveDeadlines(ctx context.Context, id uuid.UUID, latestShippingAt, latestDeliveryAt *time.Time) error {
	if m.SaveDeadlinesFunc != nil {
		return m.SaveDeadlinesFunc(ctx, id, latestShippingAt, latestDeliveryAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domainErrors.ErrOrderNotFound
	}
	o.LatestShippingAt = latestShippingAt
	o.LatestDeliveryAt = latestDeliveryAt
	return nil
}

func (m *MockOrderRepository) ListPendingSync(ctx context.Context, limit int) ([]*order.Order, error) {
	if m.ListPendingSyncFunc != nil {
		return m.ListPendingSyncFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for _, o := range m.orders {
		if o.SyncBadge == order.SyncBadgeNone {
			out = append(out, o.Clone())
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Get returns the stored order, bypassing the repository interface.
func (m *MockOrderRepository) Get(id uuid.UUID) *order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

// --- Settings Repository Mock ---

// MockSettingsRepository is a mock implementation of deadline.SettingsRepository.
type MockSettingsRepository struct {
	mu        sync.Mutex
	byChannel map[string]*deadline.Settings
	fallback  *deadline.Settings

	FindByChannelFunc func(ctx context.Context, channelID string) (*deadline.Settings, error)
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{byChannel: make(map[string]*deadline.Settings)}
}

func (m *MockSettingsRepository) PutChannel(channelID string, s *deadline.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byChannel[channelID] = s
}

func (m *MockSettingsRepository) PutDefault(s *deadline.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = s
}

func (m *MockSettingsRepository) FindByChannel(ctx context.Context, channelID string) (*deadline.Settings, error) {
	if m.FindByChannelFunc != nil {
		return m.FindByChannelFunc(ctx, channelID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byChannel[channelID]; ok {
		return s, nil
	}
	if m.fallback != nil {
		return m.fallback, nil
	}
	return nil, domainErrors.ErrSettingsNotFound
}

// --- Audit Repository Mock ---

// MockAuditRepository is a mock implementation of audit.Repository.
type MockAuditRepository struct {
	mu      sync.Mutex
	entries []*audit.Entry

	AppendFunc func(ctx context.Context, e *audit.Entry) error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *MockAuditRepository) ListByCorrelationID(ctx context.Context, correlationID string) ([]*audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*audit.Entry
	for _, e := range m.entries {
		if e.CorrelationID == correlationID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Entries returns a snapshot of everything appended so far.
func (m *MockAuditRepository) Entries() []*audit.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*audit.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// ByAction filters appended entries by action.
func (m *MockAuditRepository) ByAction(action string) []*audit.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*audit.Entry
	for _, e := range m.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// --- Dead Letter Repository Mock ---

// MockDeadLetterRepository is a mock implementation of deadletter.Repository.
type MockDeadLetterRepository struct {
	mu      sync.Mutex
	records []*deadletter.Record

	AppendFunc func(ctx context.Context, rec *deadletter.Record) error
}

func NewMockDeadLetterRepository() *MockDeadLetterRepository {
	return &MockDeadLetterRepository{}
}

func (m *MockDeadLetterRepository) Append(ctx context.Context, rec *deadletter.Record) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MockDeadLetterRepository) GetByID(ctx context.Context, id uuid.UUID) (*deadletter.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, domainErrors.ErrDeadLetterNotFound
}

func (m *MockDeadLetterRepository) List(ctx context.Context, filter deadletter.ListFilter) ([]*deadletter.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*deadletter.Record
	for _, rec := range m.records {
		if filter.System != "" && rec.System != filter.System {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Records returns a snapshot of everything appended so far.
func (m *MockDeadLetterRepository) Records() []*deadletter.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*deadletter.Record, len(m.records))
	copy(out, m.records)
	return out
}

// --- Locker Mock ---

// MockLocker is a mock reconciliation lock. Acquire succeeds unless
// Held is set.
type MockLocker struct {
	mu       sync.Mutex
	Held     bool
	Acquires int
	Releases int

	AcquireFunc func(ctx context.Context) (bool, error)
	ReleaseFunc func(ctx context.Context) error
}

func (m *MockLocker) Acquire(ctx context.Context) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Acquires++
	return !m.Held, nil
}

func (m *MockLocker) Release(ctx context.Context) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Releases++
	return nil
}

// --- Fetcher Mock ---

// MockFetcher is a mock channel.Fetcher.
type MockFetcher struct {
	SystemName string
	Calls      int

	FetchOrderFunc func(ctx context.Context, orderNumber string) (map[string]any, error)
}

func (m *MockFetcher) System() string {
	return m.SystemName
}

func (m *MockFetcher) FetchOrder(ctx context.Context, orderNumber string) (map[string]any, error) {
	m.Calls++
	if m.FetchOrderFunc != nil {
		return m.FetchOrderFunc(ctx, orderNumber)
	}
	return map[string]any{}, nil
}

// --- Transaction Manager Mock ---

// MockTxManager runs the function directly, without a transaction.
type MockTxManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *MockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Job Queue Mock ---

// EnqueuedJob captures one Enqueue call.
type EnqueuedJob struct {
	OrderID       string
	System        string
	CorrelationID string
}

// MockJobQueue records enqueued reconciliation jobs.
type MockJobQueue struct {
	mu   sync.Mutex
	jobs []EnqueuedJob

	EnqueueFunc func(ctx context.Context, orderID, system, correlationID string) error
}

func (m *MockJobQueue) Enqueue(ctx context.Context, orderID, system, correlationID string) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, orderID, system, correlationID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, EnqueuedJob{OrderID: orderID, System: system, CorrelationID: correlationID})
	return nil
}

// Jobs returns a snapshot of enqueued jobs.
func (m *MockJobQueue) Jobs() []EnqueuedJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EnqueuedJob, len(m.jobs))
	copy(out, m.jobs)
	return out
}
