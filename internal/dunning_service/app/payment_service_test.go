package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
)

type paymentTestComponents struct {
	service          *PaymentService
	mockCustomerRepo *MockCustomerRepository
	mockPaymentRepo  *MockPaymentRepository
	mockCuringRepo   *MockCuringActionRepository
}

func setupPaymentTest(t *testing.T) paymentTestComponents {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockCustomerRepo := new(MockCustomerRepository)
	mockPaymentRepo := new(MockPaymentRepository)
	mockCuringRepo := new(MockCuringActionRepository)
	mockNotifRepo := new(MockNotificationRepository)
	mockSender := new(MockSender)

	notifier := NewNotificationService(mockNotifRepo, mockSender, nil, logger)
	curing := NewCuringService(
		mockCustomerRepo, mockPaymentRepo, mockCuringRepo, notifier,
		nil, fakeTxManager{}, logger, 0, time.Second,
	)
	service := NewPaymentService(mockCustomerRepo, mockPaymentRepo, curing, nil, logger)
	return paymentTestComponents{
		service:          service,
		mockCustomerRepo: mockCustomerRepo,
		mockPaymentRepo:  mockPaymentRepo,
		mockCuringRepo:   mockCuringRepo,
	}
}

func TestPaymentService_RecordPayment_UnknownCustomer(t *testing.T) {
	comps := setupPaymentTest(t)
	comps.mockCustomerRepo.On("GetByID", mock.Anything, mock.Anything, int64(42)).
		Return(nil, domain.ErrCustomerNotFound).Once()

	_, _, err := comps.service.RecordPayment(context.Background(), &domain.Payment{CustomerID: 42, Amount: 100})

	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	comps.mockPaymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_RecordPayment_TriggersCuring(t *testing.T) {
	comps := setupPaymentTest(t)
	activeCustomer := &domain.Customer{ID: 1, Name: "Ravi Kumar", CustomerType: domain.TypePostpaid, DunningStatus: domain.StatusActive}

	comps.mockCustomerRepo.On("GetByID", mock.Anything, mock.Anything, int64(1)).Return(activeCustomer, nil).Once()
	comps.mockPaymentRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		// Manual entries are forced to SUCCESS and get a transaction id.
		return p.PaymentStatus == domain.PaymentSuccess && p.TransactionID != "" && !p.PaymentDate.IsZero()
	})).Return(&domain.Payment{ID: 10, CustomerID: 1, Amount: 100, PaymentStatus: domain.PaymentSuccess}, nil).Once()

	// Curing runs on the stored payment; the already-active customer is a no-op.
	comps.mockCustomerRepo.On("GetByIDForUpdate", mock.Anything, mock.Anything, int64(1)).Return(activeCustomer, nil).Once()
	comps.mockPaymentRepo.On("GetByID", mock.Anything, mock.Anything, int64(10)).
		Return(&domain.Payment{ID: 10, CustomerID: 1, Amount: 100, PaymentStatus: domain.PaymentSuccess}, nil).Once()
	comps.mockCuringRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.CuringAction{ID: 1}, nil).Once()

	created, curingResult, err := comps.service.RecordPayment(context.Background(), &domain.Payment{
		CustomerID:    1,
		Amount:        100,
		PaymentMethod: domain.MethodUPI,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), created.ID)
	require.NotNil(t, curingResult)
	assert.True(t, curingResult.Success)
	comps.mockPaymentRepo.AssertExpectations(t)
	comps.mockCuringRepo.AssertExpectations(t)
}

func TestPaymentService_HandleWebhook_Duplicate(t *testing.T) {
	comps := setupPaymentTest(t)
	comps.mockCustomerRepo.On("GetByID", mock.Anything, mock.Anything, int64(1)).
		Return(&domain.Customer{ID: 1}, nil).Once()
	comps.mockPaymentRepo.On("GetByTransactionID", mock.Anything, mock.Anything, "TXN-dup").
		Return(&domain.Payment{ID: 10, CustomerID: 1}, nil).Once()

	outcome, err := comps.service.HandleWebhook(context.Background(), PaymentWebhookEvent{
		CustomerID:    1,
		Amount:        100,
		PaymentMethod: domain.MethodUPI,
		Status:        "SUCCESS",
		TransactionID: "TXN-dup",
	})
	require.NoError(t, err)

	assert.Equal(t, "duplicate", outcome.Status)
	assert.Equal(t, int64(10), outcome.PaymentID)
	comps.mockPaymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook_FailedPaymentSkipsCuring(t *testing.T) {
	comps := setupPaymentTest(t)
	comps.mockCustomerRepo.On("GetByID", mock.Anything, mock.Anything, int64(1)).
		Return(&domain.Customer{ID: 1}, nil).Once()
	comps.mockPaymentRepo.On("GetByTransactionID", mock.Anything, mock.Anything, "TXN-f").
		Return(nil, domain.ErrPaymentNotFound).Once()
	comps.mockPaymentRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.PaymentStatus == domain.PaymentFailed
	})).Return(&domain.Payment{ID: 11, CustomerID: 1, PaymentStatus: domain.PaymentFailed}, nil).Once()

	outcome, err := comps.service.HandleWebhook(context.Background(), PaymentWebhookEvent{
		CustomerID:    1,
		Amount:        100,
		PaymentMethod: domain.MethodUPI,
		Status:        "declined",
		TransactionID: "TXN-f",
	})
	require.NoError(t, err)

	assert.Equal(t, "failed", outcome.Status)
	assert.Nil(t, outcome.CuringResult)
	comps.mockCustomerRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
}
