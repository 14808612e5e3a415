package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

// CuringService reverses dunning restrictions when a customer settles their
// balance. It shares the customer row lock discipline with DunningService, so
// a curing evaluation and a dunning run for the same customer never
// interleave.
type CuringService struct {
	customerRepo  repository.CustomerRepository
	paymentRepo   repository.PaymentRepository
	curingRepo    repository.CuringActionRepository
	notifier      *NotificationService
	db            repository.Querier
	txm           TxManager
	logger        *slog.Logger
	threshold     float64 // remaining balance at or below this counts as settled
	notifyTimeout time.Duration
}

func NewCuringService(
	customerRepo repository.CustomerRepository,
	paymentRepo repository.PaymentRepository,
	curingRepo repository.CuringActionRepository,
	notifier *NotificationService,
	db repository.Querier,
	txm TxManager,
	logger *slog.Logger,
	threshold float64,
	notifyTimeout time.Duration,
) *CuringService {
	if threshold < 0 {
		threshold = 0
	}
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &CuringService{
		customerRepo:  customerRepo,
		paymentRepo:   paymentRepo,
		curingRepo:    curingRepo,
		notifier:      notifier,
		db:            db,
		txm:           txm,
		logger:        logger.With("service", "curing"),
		threshold:     threshold,
		notifyTimeout: notifyTimeout,
	}
}

// EvaluateCuring applies a successful payment to the customer's balance and,
// when the remaining balance is within the settlement threshold, lifts the
// dunning restriction. Partial payments reduce the balance but leave the
// restriction in place; the attempt is still recorded with success_flag
// false. Validation problems return domain errors (ErrCustomerNotFound,
// ErrPaymentNotFound, ErrInvalidPayment) for the transport layer to map.
func (s *CuringService) EvaluateCuring(ctx context.Context, customerID, paymentID int64) (domain.CuringResult, error) {
	result := domain.CuringResult{CustomerID: customerID}

	err := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		customer, err := s.customerRepo.GetByIDForUpdate(ctx, tx, customerID)
		if err != nil {
			return err
		}
		result.CustomerName = customer.Name
		result.PreviousStatus = customer.DunningStatus

		payment, err := s.paymentRepo.GetByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if err := validateCuringPayment(payment, customerID); err != nil {
			return err
		}
		result.PaymentAmount = payment.Amount

		// Already-active customers with nothing outstanding need no curing;
		// record the no-op so the audit trail shows the payment was seen.
		if customer.DunningStatus == domain.StatusActive && customer.OverdueDays == 0 {
			result.Success = true
			result.NewStatus = domain.StatusActive
			result.RemainingBalance = customer.OutstandingAmount
			result.ActionsTaken = []string{"Customer was already in ACTIVE status"}
			result.Message = "Customer already cured, no action needed"
			curingActionsCounter.WithLabelValues("noop").Inc()

			action := &domain.CuringAction{
				CustomerID:     customerID,
				PaymentID:      &paymentID,
				PreviousStatus: domain.StatusActive,
				NewStatus:      domain.StatusActive,
				ActionTaken:    "Customer was already in ACTIVE status",
				SuccessFlag:    true,
				Remarks:        fmt.Sprintf("Payment: ₹%.2f, Remaining: ₹%.2f", payment.Amount, customer.OutstandingAmount),
			}
			_, err := s.curingRepo.Create(ctx, tx, action)
			return err
		}

		remaining := customer.OutstandingAmount - payment.Amount
		if remaining < 0 {
			remaining = 0
		}
		result.RemainingBalance = remaining
		previous := customer.DunningStatus

		if remaining > s.threshold {
			return s.recordPartial(ctx, tx, customer, payment, remaining, &result)
		}
		return s.restore(ctx, tx, customer, payment, previous, remaining, &result)
	})

	if err != nil {
		result.Success = false
		switch {
		case errors.Is(err, domain.ErrCustomerNotFound),
			errors.Is(err, domain.ErrPaymentNotFound),
			errors.Is(err, domain.ErrInvalidPayment):
			result.Message = err.Error()
		default:
			s.logger.ErrorContext(ctx, "Curing evaluation failed",
				"customer_id", customerID, "payment_id", paymentID, "error", err)
			result.Message = fmt.Sprintf("curing failed: %v", err)
		}
		curingActionsCounter.WithLabelValues("failed").Inc()
		return result, err
	}
	return result, nil
}

// recordPartial applies the payment to the balance without lifting the
// restriction and writes a non-successful curing record.
func (s *CuringService) recordPartial(ctx context.Context, tx pgx.Tx, customer *domain.Customer, payment *domain.Payment, remaining float64, result *domain.CuringResult) error {
	customer.OutstandingAmount = remaining
	if err := s.customerRepo.Update(ctx, tx, customer); err != nil {
		return fmt.Errorf("failed to update customer balance: %w", err)
	}

	result.Success = false
	result.NewStatus = customer.DunningStatus
	result.ActionsTaken = []string{"Payment applied to outstanding balance"}
	result.Message = fmt.Sprintf("Partial payment applied; ₹%.2f still outstanding, restrictions remain", remaining)

	action := &domain.CuringAction{
		CustomerID:     customer.ID,
		PaymentID:      &payment.ID,
		PreviousStatus: customer.DunningStatus,
		NewStatus:      customer.DunningStatus,
		ActionTaken:    "Payment applied to outstanding balance; restrictions retained",
		SuccessFlag:    false,
		Remarks:        fmt.Sprintf("Payment: ₹%.2f, Remaining: ₹%.2f", payment.Amount, remaining),
	}
	if _, err := s.curingRepo.Create(ctx, tx, action); err != nil {
		return fmt.Errorf("failed to record curing attempt: %w", err)
	}

	curingActionsCounter.WithLabelValues("partial").Inc()
	s.logger.InfoContext(ctx, "Partial payment applied, restrictions retained",
		"customer_id", customer.ID, "payment_id", payment.ID,
		"payment_amount", payment.Amount, "remaining_balance", remaining,
		"dunning_status", customer.DunningStatus)
	return nil
}

// restore lifts every restriction implied by the previous status, settles the
// balance, and sends the confirmation notification. The notification is best
// effort; its failure never rolls back the restoration.
func (s *CuringService) restore(ctx context.Context, tx pgx.Tx, customer *domain.Customer, payment *domain.Payment, previous domain.DunningStatus, remaining float64, result *domain.CuringResult) error {
	actions := restorationActions(previous)

	customer.DunningStatus = domain.StatusActive
	customer.OutstandingAmount = remaining
	customer.OverdueDays = 0
	if remaining == 0 {
		customer.BillingDate = nil
		customer.DueDate = nil
		actions = append(actions, "Cleared billing and due dates (fully paid)")
	}
	if err := s.customerRepo.Update(ctx, tx, customer); err != nil {
		return fmt.Errorf("failed to update customer state: %w", err)
	}

	action := &domain.CuringAction{
		CustomerID:     customer.ID,
		PaymentID:      &payment.ID,
		PreviousStatus: previous,
		NewStatus:      domain.StatusActive,
		ActionTaken:    strings.Join(actions, "; "),
		SuccessFlag:    true,
		Remarks:        fmt.Sprintf("Payment: ₹%.2f, Remaining: ₹%.2f", payment.Amount, remaining),
	}
	if _, err := s.curingRepo.Create(ctx, tx, action); err != nil {
		return fmt.Errorf("failed to record curing action: %w", err)
	}

	message := curingMessage(customer.Name, payment.Amount, remaining)
	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	sent, notifyErr := s.notifier.Dispatch(notifyCtx, tx, customer, nil, domain.ChannelAll, message)
	cancel()
	if notifyErr != nil {
		s.logger.WarnContext(ctx, "Curing confirmation dispatch failed",
			"customer_id", customer.ID, "error", notifyErr)
	}

	result.Success = true
	result.NewStatus = domain.StatusActive
	result.ActionsTaken = actions
	result.NotificationsSent = sent
	result.Message = "Service successfully restored"
	curingActionsCounter.WithLabelValues("restored").Inc()

	s.logger.InfoContext(ctx, "Curing completed",
		"customer_id", customer.ID,
		"payment_id", payment.ID,
		"previous_status", previous,
		"new_status", domain.StatusActive,
		"payment_amount", payment.Amount,
		"remaining_balance", remaining,
	)
	return nil
}

// ProcessPaymentWebhook handles an asynchronous gateway callback. The payment
// row must already exist; a webhook arriving before the payment record is
// reported as a failed result rather than an error.
func (s *CuringService) ProcessPaymentWebhook(ctx context.Context, transactionID string, status string) (domain.CuringResult, error) {
	if !strings.EqualFold(status, string(domain.PaymentSuccess)) {
		return domain.CuringResult{
			Success: false,
			Message: fmt.Sprintf("payment status is %s, not SUCCESS", status),
		}, nil
	}

	payment, err := s.paymentRepo.GetByTransactionID(ctx, s.db, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			s.logger.WarnContext(ctx, "Webhook for unknown payment, may predate payment creation",
				"transaction_id", transactionID)
			return domain.CuringResult{
				Success: false,
				Message: "payment record not found",
			}, nil
		}
		return domain.CuringResult{}, err
	}
	return s.EvaluateCuring(ctx, payment.CustomerID, payment.ID)
}

func validateCuringPayment(p *domain.Payment, customerID int64) error {
	if p.CustomerID != customerID {
		return fmt.Errorf("%w: payment %d does not belong to customer %d", domain.ErrInvalidPayment, p.ID, customerID)
	}
	if p.PaymentStatus != domain.PaymentSuccess {
		return fmt.Errorf("%w: payment %d status is %s, not SUCCESS", domain.ErrInvalidPayment, p.ID, p.PaymentStatus)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: payment amount must be positive, got %.2f", domain.ErrInvalidPayment, p.Amount)
	}
	return nil
}

// restorationActions lists the restrictions lifted for each dunning tier.
func restorationActions(previous domain.DunningStatus) []string {
	var actions []string
	switch previous {
	case domain.StatusNotified:
		actions = append(actions, "Cleared notification status")
	case domain.StatusRestricted:
		actions = append(actions, "Restored full data speed", "Removed throttling restrictions")
	case domain.StatusBarred:
		actions = append(actions, "Restored outgoing call services", "Restored data services", "Removed all service bars")
	}
	actions = append(actions, "Updated dunning status to ACTIVE")
	return actions
}

func curingMessage(name string, paymentAmount, remaining float64) string {
	if remaining > 0 {
		return fmt.Sprintf("Dear %s, thank you for your payment of ₹%.2f. Your services have been restored. Remaining balance: ₹%.2f. Please clear the remaining amount to avoid future disruptions.",
			name, paymentAmount, remaining)
	}
	return fmt.Sprintf("Dear %s, thank you for your payment of ₹%.2f. Your account is now fully paid and all services have been restored. We appreciate your prompt payment!",
		name, paymentAmount)
}
