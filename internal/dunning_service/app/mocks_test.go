package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/telbill/dunning_service/internal/dunning_service/adapters/channels"
	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

// --- Mocks ---

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, q repository.Querier, c *domain.Customer) (*domain.Customer, error) {
	args := m.Called(ctx, q, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, q repository.Querier, id int64) (*domain.Customer, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Customer, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, q repository.Querier, email string) (*domain.Customer, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, q repository.Querier, filter repository.CustomerFilter) ([]domain.Customer, error) {
	args := m.Called(ctx, q, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListOverdue(ctx context.Context, q repository.Querier) ([]domain.Customer, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListOverdueIDs(ctx context.Context, q repository.Querier) ([]int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, q repository.Querier, c *domain.Customer) error {
	args := m.Called(ctx, q, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, q repository.Querier, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) Create(ctx context.Context, q repository.Querier, r *domain.DunningRule) (*domain.DunningRule, error) {
	args := m.Called(ctx, q, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DunningRule), args.Error(1)
}

func (m *MockRuleRepository) GetByID(ctx context.Context, q repository.Querier, id int64) (*domain.DunningRule, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DunningRule), args.Error(1)
}

func (m *MockRuleRepository) List(ctx context.Context, q repository.Querier, filter repository.RuleFilter) ([]domain.DunningRule, error) {
	args := m.Called(ctx, q, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DunningRule), args.Error(1)
}

func (m *MockRuleRepository) ListActive(ctx context.Context, q repository.Querier) ([]domain.DunningRule, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DunningRule), args.Error(1)
}

func (m *MockRuleRepository) Update(ctx context.Context, q repository.Querier, r *domain.DunningRule) error {
	args := m.Called(ctx, q, r)
	return args.Error(0)
}

func (m *MockRuleRepository) Delete(ctx context.Context, q repository.Querier, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

type MockDunningLogRepository struct {
	mock.Mock
}

func (m *MockDunningLogRepository) Create(ctx context.Context, q repository.Querier, l *domain.DunningLog) (*domain.DunningLog, error) {
	args := m.Called(ctx, q, l)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DunningLog), args.Error(1)
}

func (m *MockDunningLogRepository) List(ctx context.Context, q repository.Querier, filter domain.DunningLogFilter) ([]domain.DunningLog, error) {
	args := m.Called(ctx, q, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DunningLog), args.Error(1)
}

type MockCuringActionRepository struct {
	mock.Mock
}

func (m *MockCuringActionRepository) Create(ctx context.Context, q repository.Querier, a *domain.CuringAction) (*domain.CuringAction, error) {
	args := m.Called(ctx, q, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CuringAction), args.Error(1)
}

func (m *MockCuringActionRepository) List(ctx context.Context, q repository.Querier, customerID *int64, limit, offset int) ([]domain.CuringAction, error) {
	args := m.Called(ctx, q, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CuringAction), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, q repository.Querier, p *domain.Payment) (*domain.Payment, error) {
	args := m.Called(ctx, q, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, q repository.Querier, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByTransactionID(ctx context.Context, q repository.Querier, transactionID string) (*domain.Payment, error) {
	args := m.Called(ctx, q, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, q repository.Querier, customerID *int64, limit, offset int) ([]domain.Payment, error) {
	args := m.Called(ctx, q, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SummaryByCustomer(ctx context.Context, q repository.Querier, customerID int64) (*repository.PaymentSummary, error) {
	args := m.Called(ctx, q, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PaymentSummary), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, q repository.Querier, n *domain.Notification) (*domain.Notification, error) {
	args := m.Called(ctx, q, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) UpdateStatus(ctx context.Context, q repository.Querier, id int64, status domain.NotificationStatus, sentAt *time.Time) error {
	args := m.Called(ctx, q, id, status, sentAt)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByCustomer(ctx context.Context, q repository.Querier, customerID int64, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, q, customerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountByCustomer(ctx context.Context, q repository.Querier, customerID int64) (int, error) {
	args := m.Called(ctx, q, customerID)
	return args.Int(0), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendSMS(ctx context.Context, req channels.SendRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSender) SendEmail(ctx context.Context, req channels.SendRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSender) SendApp(ctx context.Context, req channels.SendRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// fakeTxManager runs the transaction body directly with a nil pgx.Tx; the
// mocked repositories never touch the querier.
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}
