package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

// PaymentService records payments and chains the curing workflow onto every
// successful one. Payment creation never fails because curing failed; the
// curing outcome is returned alongside so callers can surface it.
type PaymentService struct {
	customerRepo repository.CustomerRepository
	paymentRepo  repository.PaymentRepository
	curing       *CuringService
	db           repository.Querier
	logger       *slog.Logger
}

func NewPaymentService(
	customerRepo repository.CustomerRepository,
	paymentRepo repository.PaymentRepository,
	curing *CuringService,
	db repository.Querier,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		customerRepo: customerRepo,
		paymentRepo:  paymentRepo,
		curing:       curing,
		db:           db,
		logger:       logger.With("service", "payment"),
	}
}

// RecordPayment stores a manually entered payment. Manual entries are assumed
// settled, so the status is forced to SUCCESS and curing runs immediately.
func (s *PaymentService) RecordPayment(ctx context.Context, p *domain.Payment) (*domain.Payment, *domain.CuringResult, error) {
	if _, err := s.customerRepo.GetByID(ctx, s.db, p.CustomerID); err != nil {
		return nil, nil, err
	}

	p.PaymentStatus = domain.PaymentSuccess
	if p.TransactionID == "" {
		p.TransactionID = "TXN-" + uuid.NewString()
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now().UTC()
	}

	created, err := s.paymentRepo.Create(ctx, s.db, p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record payment: %w", err)
	}

	curingResult, curingErr := s.curing.EvaluateCuring(ctx, created.CustomerID, created.ID)
	if curingErr != nil {
		s.logger.WarnContext(ctx, "Curing failed after payment creation",
			"payment_id", created.ID, "customer_id", created.CustomerID, "error", curingErr)
	}
	return created, &curingResult, nil
}

// PaymentWebhookEvent is a settlement callback from an external gateway.
type PaymentWebhookEvent struct {
	CustomerID    int64
	Amount        float64
	PaymentMethod domain.PaymentMethod
	Status        string
	TransactionID string
	Timestamp     time.Time
}

// WebhookOutcome reports how a gateway callback was handled.
type WebhookOutcome struct {
	Status       string               `json:"status"` // success, failed, duplicate
	Message      string               `json:"message"`
	PaymentID    int64                `json:"payment_id"`
	CuringResult *domain.CuringResult `json:"curing_result,omitempty"`
}

// HandleWebhook processes a gateway callback: deduplicates on transaction id,
// records the payment, and triggers curing for successful settlements.
// Redelivered webhooks are acknowledged as duplicates, not reprocessed.
func (s *PaymentService) HandleWebhook(ctx context.Context, event PaymentWebhookEvent) (WebhookOutcome, error) {
	if _, err := s.customerRepo.GetByID(ctx, s.db, event.CustomerID); err != nil {
		return WebhookOutcome{}, err
	}

	existing, err := s.paymentRepo.GetByTransactionID(ctx, s.db, event.TransactionID)
	if err == nil {
		return WebhookOutcome{
			Status:    "duplicate",
			Message:   "Payment already processed",
			PaymentID: existing.ID,
		}, nil
	}
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		return WebhookOutcome{}, err
	}

	status := domain.PaymentFailed
	if strings.EqualFold(event.Status, string(domain.PaymentSuccess)) {
		status = domain.PaymentSuccess
	}
	paymentDate := event.Timestamp
	if paymentDate.IsZero() {
		paymentDate = time.Now().UTC()
	}

	payment, err := s.paymentRepo.Create(ctx, s.db, &domain.Payment{
		CustomerID:    event.CustomerID,
		Amount:        event.Amount,
		PaymentMethod: event.PaymentMethod,
		PaymentStatus: status,
		TransactionID: event.TransactionID,
		PaymentDate:   paymentDate,
	})
	if err != nil {
		return WebhookOutcome{}, fmt.Errorf("failed to record webhook payment: %w", err)
	}

	if status != domain.PaymentSuccess {
		return WebhookOutcome{
			Status:    "failed",
			Message:   "Payment failed",
			PaymentID: payment.ID,
		}, nil
	}

	curingResult, curingErr := s.curing.EvaluateCuring(ctx, payment.CustomerID, payment.ID)
	if curingErr != nil {
		s.logger.WarnContext(ctx, "Curing failed for webhook payment",
			"payment_id", payment.ID, "customer_id", payment.CustomerID, "error", curingErr)
	}
	return WebhookOutcome{
		Status:       "success",
		Message:      "Payment processed and curing triggered",
		PaymentID:    payment.ID,
		CuringResult: &curingResult,
	}, nil
}
