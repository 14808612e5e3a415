package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

type pgPaymentRepository struct{}

// NewPgPaymentRepository creates a new PaymentRepository for PostgreSQL.
func NewPgPaymentRepository() repository.PaymentRepository {
	return &pgPaymentRepository{}
}

const paymentColumns = `
	id, customer_id, amount, payment_method, payment_status, transaction_id, payment_date, created_at
`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(
		&p.ID, &p.CustomerID, &p.Amount, &p.PaymentMethod, &p.PaymentStatus,
		&p.TransactionID, &p.PaymentDate, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

func (repo *pgPaymentRepository) Create(ctx context.Context, q repository.Querier, p *domain.Payment) (*domain.Payment, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	if p.PaymentDate.IsZero() {
		p.PaymentDate = now
	}

	query := `
		INSERT INTO payments (customer_id, amount, payment_method, payment_status,
		                      transaction_id, payment_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := q.QueryRow(ctx, query,
		p.CustomerID, p.Amount, p.PaymentMethod, p.PaymentStatus,
		p.TransactionID, p.PaymentDate, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (repo *pgPaymentRepository) GetByID(ctx context.Context, q repository.Querier, id int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(q.QueryRow(ctx, query, id))
}

func (repo *pgPaymentRepository) GetByTransactionID(ctx context.Context, q repository.Querier, transactionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`
	return scanPayment(q.QueryRow(ctx, query, transactionID))
}

func (repo *pgPaymentRepository) List(ctx context.Context, q repository.Querier, customerID *int64, limit, offset int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
	args := []any{}
	if customerID != nil {
		args = append(args, *customerID)
		query += ` WHERE customer_id = $1`
	}
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, offset)
	if customerID != nil {
		query += ` ORDER BY payment_date DESC, id DESC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY payment_date DESC, id DESC LIMIT $1 OFFSET $2`
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		err := rows.Scan(
			&p.ID, &p.CustomerID, &p.Amount, &p.PaymentMethod, &p.PaymentStatus,
			&p.TransactionID, &p.PaymentDate, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (repo *pgPaymentRepository) SummaryByCustomer(ctx context.Context, q repository.Querier, customerID int64) (*repository.PaymentSummary, error) {
	query := `
		SELECT COUNT(*), MAX(payment_date)
		FROM payments
		WHERE customer_id = $1 AND payment_status = 'SUCCESS'
	`
	s := &repository.PaymentSummary{}
	if err := q.QueryRow(ctx, query, customerID).Scan(&s.Count, &s.LastPaymentDate); err != nil {
		return nil, err
	}
	return s, nil
}
