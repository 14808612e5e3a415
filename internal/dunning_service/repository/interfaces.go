package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
)

// Querier abstracts over *pgxpool.Pool and pgx.Tx so repository methods can
// run standalone or inside a caller-managed transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	CustomerType  *domain.CustomerType
	DunningStatus *domain.DunningStatus
	Limit         int
	Offset        int
}

// CustomerRepository owns Customer records (the Customer Ledger).
// Only the dunning executor and curing monitor mutate dunning state, and
// they do so through GetByIDForUpdate + Update inside one transaction.
type CustomerRepository interface {
	Create(ctx context.Context, q Querier, c *domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, q Querier, id int64) (*domain.Customer, error)
	// GetByIDForUpdate locks the customer row for the duration of the
	// enclosing transaction, serializing concurrent status mutations.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Customer, error)
	GetByEmail(ctx context.Context, q Querier, email string) (*domain.Customer, error)
	List(ctx context.Context, q Querier, filter CustomerFilter) ([]domain.Customer, error)
	// ListOverdue returns customers with a positive balance past their due
	// date, most overdue first.
	ListOverdue(ctx context.Context, q Querier) ([]domain.Customer, error)
	// ListOverdueIDs returns ids of overdue customers in ascending order,
	// the deterministic processing order for batch runs.
	ListOverdueIDs(ctx context.Context, q Querier) ([]int64, error)
	Update(ctx context.Context, q Querier, c *domain.Customer) error
	Delete(ctx context.Context, q Querier, id int64) error
}

// RuleFilter narrows rule listings.
type RuleFilter struct {
	CustomerType *domain.CustomerType
	IsActive     *bool
}

// RuleRepository owns DunningRule records (the Rule Store).
type RuleRepository interface {
	Create(ctx context.Context, q Querier, r *domain.DunningRule) (*domain.DunningRule, error)
	GetByID(ctx context.Context, q Querier, id int64) (*domain.DunningRule, error)
	List(ctx context.Context, q Querier, filter RuleFilter) ([]domain.DunningRule, error)
	// ListActive returns the snapshot of active rules the matcher operates
	// on, ordered by id for determinism.
	ListActive(ctx context.Context, q Querier) ([]domain.DunningRule, error)
	Update(ctx context.Context, q Querier, r *domain.DunningRule) error
	Delete(ctx context.Context, q Querier, id int64) error
}

// DunningLogRepository owns the append-only dunning audit trail.
type DunningLogRepository interface {
	Create(ctx context.Context, q Querier, l *domain.DunningLog) (*domain.DunningLog, error)
	List(ctx context.Context, q Querier, filter domain.DunningLogFilter) ([]domain.DunningLog, error)
}

// CuringActionRepository owns the append-only curing audit trail.
type CuringActionRepository interface {
	Create(ctx context.Context, q Querier, a *domain.CuringAction) (*domain.CuringAction, error)
	List(ctx context.Context, q Querier, customerID *int64, limit, offset int) ([]domain.CuringAction, error)
}

// PaymentSummary aggregates a customer's payment history for status views.
type PaymentSummary struct {
	Count           int
	LastPaymentDate *time.Time
}

// PaymentRepository owns Payment records.
type PaymentRepository interface {
	Create(ctx context.Context, q Querier, p *domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, q Querier, id int64) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, q Querier, transactionID string) (*domain.Payment, error)
	List(ctx context.Context, q Querier, customerID *int64, limit, offset int) ([]domain.Payment, error)
	SummaryByCustomer(ctx context.Context, q Querier, customerID int64) (*PaymentSummary, error)
}

// NotificationRepository owns Notification dispatch records.
type NotificationRepository interface {
	Create(ctx context.Context, q Querier, n *domain.Notification) (*domain.Notification, error)
	UpdateStatus(ctx context.Context, q Querier, id int64, status domain.NotificationStatus, sentAt *time.Time) error
	ListByCustomer(ctx context.Context, q Querier, customerID int64, limit int) ([]domain.Notification, error)
	CountByCustomer(ctx context.Context, q Querier, customerID int64) (int, error)
}
