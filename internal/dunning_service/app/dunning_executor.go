package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

// TxManager runs a function inside a database transaction. Abstracted from
// pgxpool so the executor can be unit tested with mock repositories.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type pgxTxManager struct {
	pool *pgxpool.Pool
}

// NewPgxTxManager wraps a pgx pool as a TxManager.
func NewPgxTxManager(pool *pgxpool.Pool) TxManager {
	return &pgxTxManager{pool: pool}
}

func (m *pgxTxManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, m.pool, fn)
}

// DunningService evaluates customers against the rule set and applies the
// prescribed escalation. It is the only component besides the curing monitor
// allowed to mutate a customer's dunning status, and it does so inside a
// transaction holding the customer row lock, so concurrent escalation and
// curing serialize per customer.
type DunningService struct {
	customerRepo  repository.CustomerRepository
	ruleRepo      repository.RuleRepository
	logRepo       repository.DunningLogRepository
	notifier      *NotificationService
	db            repository.Querier
	txm           TxManager
	logger        *slog.Logger
	notifyTimeout time.Duration
	now           func() time.Time
}

func NewDunningService(
	customerRepo repository.CustomerRepository,
	ruleRepo repository.RuleRepository,
	logRepo repository.DunningLogRepository,
	notifier *NotificationService,
	db repository.Querier,
	txm TxManager,
	logger *slog.Logger,
	notifyTimeout time.Duration,
) *DunningService {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &DunningService{
		customerRepo:  customerRepo,
		ruleRepo:      ruleRepo,
		logRepo:       logRepo,
		notifier:      notifier,
		db:            db,
		txm:           txm,
		logger:        logger.With("service", "dunning"),
		notifyTimeout: notifyTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Apply runs one dunning evaluation for a single customer. It never returns
// an error: every outcome, including "customer not found", is expressed in
// the result so batch runs can aggregate without aborting.
func (s *DunningService) Apply(ctx context.Context, customerID int64) domain.DunningResult {
	result := domain.DunningResult{CustomerID: customerID}

	err := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		customer, err := s.customerRepo.GetByIDForUpdate(ctx, tx, customerID)
		if err != nil {
			return err
		}
		result.CustomerName = customer.Name
		result.PreviousStatus = customer.DunningStatus

		overdueDays := customer.OverdueDaysAsOf(s.now())
		result.OverdueDays = overdueDays

		if overdueDays == 0 {
			return s.skip(ctx, tx, customer, &result, overdueDays, "customer not overdue")
		}

		rules, err := s.ruleRepo.ListActive(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to load active rules: %w", err)
		}
		rule := MatchRule(customer.CustomerType, overdueDays, rules)
		if rule == nil {
			// Persist the recomputed overdue day count even when nothing fires.
			customer.OverdueDays = overdueDays
			if err := s.customerRepo.Update(ctx, tx, customer); err != nil {
				return err
			}
			return s.skip(ctx, tx, customer, &result, overdueDays,
				fmt.Sprintf("no applicable rule for day %d", overdueDays))
		}

		return s.execute(ctx, tx, customer, rule, overdueDays, &result)
	})

	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			// No log entry is written for a customer that does not exist.
			result.Status = domain.ExecutionFailed
			result.Message = "customer not found"
		} else {
			s.logger.ErrorContext(ctx, "Dunning evaluation failed", "customer_id", customerID, "error", err)
			result.Status = domain.ExecutionFailed
			result.Message = err.Error()
		}
	}

	dunningEvaluationsCounter.WithLabelValues(string(result.Status)).Inc()
	return result
}

// skip records a SKIPPED audit entry without touching dunning status.
func (s *DunningService) skip(ctx context.Context, tx pgx.Tx, customer *domain.Customer, result *domain.DunningResult, overdueDays int, reason string) error {
	result.Status = domain.ExecutionSkipped
	result.Message = reason
	result.NewStatus = customer.DunningStatus

	ruleName := "N/A"
	entry := &domain.DunningLog{
		CustomerID: customer.ID,
		RuleName:   &ruleName,
		ActionType: "NONE",
		Status:     domain.ExecutionSkipped,
		Details: domain.DunningLogDetails{
			OverdueDays:       overdueDays,
			OutstandingAmount: customer.OutstandingAmount,
			Reason:            reason,
		},
	}
	if _, err := s.logRepo.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to write skip log: %w", err)
	}
	return nil
}

// execute applies the matched rule: monotonic status escalation, best-effort
// notification, and the audit entry. The status change commits even when the
// notification side effect fails; only the log status reflects that failure.
func (s *DunningService) execute(ctx context.Context, tx pgx.Tx, customer *domain.Customer, rule *domain.DunningRule, overdueDays int, result *domain.DunningResult) error {
	result.RuleID = &rule.ID
	result.RuleName = rule.RuleName
	result.ActionTaken = rule.ActionType.Description()

	previous := customer.DunningStatus
	newStatus := previous.Escalate(rule.ActionType.TargetStatus())

	customer.DunningStatus = newStatus
	customer.OverdueDays = overdueDays
	if err := s.customerRepo.Update(ctx, tx, customer); err != nil {
		return fmt.Errorf("failed to update customer state: %w", err)
	}
	result.NewStatus = newStatus
	if newStatus != previous {
		dunningEscalationsCounter.WithLabelValues(string(rule.ActionType)).Inc()
	}

	// Notification is fire-and-forget with a bounded timeout; its failure
	// downgrades the log entry but never rolls back the transition.
	message := dunningMessage(customer, rule.ActionType, overdueDays)
	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	sent, notifyErr := s.notifier.Dispatch(notifyCtx, tx, customer, &rule.ID, rule.NotificationChannel, message)
	cancel()
	result.NotificationSent = sent > 0

	logStatus := domain.ExecutionSuccess
	if notifyErr != nil {
		logStatus = domain.ExecutionFailed
		result.Message = fmt.Sprintf("notification dispatch failed: %v", notifyErr)
		s.logger.WarnContext(ctx, "Notification dispatch failed during dunning",
			"customer_id", customer.ID, "rule_id", rule.ID, "error", notifyErr)
	} else {
		result.Message = fmt.Sprintf("applied rule %q", rule.RuleName)
	}
	result.Status = logStatus

	entry := &domain.DunningLog{
		CustomerID: customer.ID,
		RuleID:     &rule.ID,
		RuleName:   &rule.RuleName,
		ActionType: string(rule.ActionType),
		Status:     logStatus,
		Details: domain.DunningLogDetails{
			OverdueDays:         overdueDays,
			OutstandingAmount:   customer.OutstandingAmount,
			NotificationChannel: string(rule.NotificationChannel),
			NotificationSent:    sent > 0,
			ActionTaken:         rule.ActionType.Description(),
			PreviousStatus:      string(previous),
			NewStatus:           string(newStatus),
		},
	}
	if _, err := s.logRepo.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to write dunning log: %w", err)
	}

	s.logger.InfoContext(ctx, "Dunning rule applied",
		"customer_id", customer.ID,
		"rule_id", rule.ID,
		"rule_name", rule.RuleName,
		"action", rule.ActionType,
		"previous_status", previous,
		"new_status", newStatus,
		"overdue_days", overdueDays,
		"notification_sent", sent > 0,
	)
	return nil
}

// ApplyAll runs dunning for the given customer ids, or for every overdue
// customer when ids is empty. Customers are processed independently in
// ascending id order; one failure never aborts the batch.
func (s *DunningService) ApplyAll(ctx context.Context, customerIDs []int64) (domain.BatchResult, error) {
	start := s.now()

	ids := customerIDs
	if len(ids) == 0 {
		var err error
		ids, err = s.customerRepo.ListOverdueIDs(ctx, s.db)
		if err != nil {
			return domain.BatchResult{}, fmt.Errorf("failed to list overdue customers: %w", err)
		}
	} else {
		ids = append([]int64(nil), ids...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	batch := domain.BatchResult{Results: make([]domain.DunningResult, 0, len(ids))}
	for _, id := range ids {
		result := s.Apply(ctx, id)
		batch.Results = append(batch.Results, result)
		switch result.Status {
		case domain.ExecutionSuccess:
			batch.Successful++
		case domain.ExecutionFailed:
			batch.Failed++
		case domain.ExecutionSkipped:
			batch.Skipped++
		}
	}
	batch.TotalCustomers = len(batch.Results)
	batch.ExecutionTime = s.now().Sub(start)
	batch.ExecutionSecs = batch.ExecutionTime.Seconds()
	dunningBatchDurationHist.Observe(batch.ExecutionSecs)

	s.logger.InfoContext(ctx, "Batch dunning run completed",
		"total", batch.TotalCustomers,
		"successful", batch.Successful,
		"failed", batch.Failed,
		"skipped", batch.Skipped,
		"duration_ms", batch.ExecutionTime.Milliseconds(),
	)
	return batch, nil
}

// dunningMessage builds the customer-facing wording for each escalation tier.
func dunningMessage(c *domain.Customer, action domain.ActionType, overdueDays int) string {
	dueDate := "unknown"
	if c.DueDate != nil {
		dueDate = c.DueDate.Format("02 Jan 2006")
	}
	switch action {
	case domain.ActionNotify:
		return fmt.Sprintf("Dear %s, your bill of ₹%.2f is overdue by %d days. Please pay to avoid service disruption. Due date was: %s",
			c.Name, c.OutstandingAmount, overdueDays, dueDate)
	case domain.ActionThrottle:
		return fmt.Sprintf("Dear %s, due to payment delay of %d days, your data speed has been reduced. Outstanding: ₹%.2f. Pay now to restore full speed.",
			c.Name, overdueDays, c.OutstandingAmount)
	case domain.ActionBarOutgoing:
		return fmt.Sprintf("URGENT: %s, your outgoing services have been barred due to %d days overdue payment of ₹%.2f. Pay immediately to restore services.",
			c.Name, overdueDays, c.OutstandingAmount)
	case domain.ActionDeactivate:
		return fmt.Sprintf("FINAL NOTICE: %s, your service has been suspended due to non-payment for %d days. Outstanding: ₹%.2f. Immediate payment required to avoid disconnection.",
			c.Name, overdueDays, c.OutstandingAmount)
	default:
		return fmt.Sprintf("Payment reminder for ₹%.2f", c.OutstandingAmount)
	}
}
