package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

const uniqueViolationCode = "23505"

type pgCustomerRepository struct{}

// NewPgCustomerRepository creates a new CustomerRepository for PostgreSQL.
func NewPgCustomerRepository() repository.CustomerRepository {
	return &pgCustomerRepository{}
}

const customerColumns = `
	id, name, email, phone, customer_type, plan_type, billing_date, due_date,
	overdue_days, outstanding_amount, dunning_status, created_at, updated_at
`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.CustomerType, &c.PlanType,
		&c.BillingDate, &c.DueDate, &c.OverdueDays, &c.OutstandingAmount,
		&c.DunningStatus, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *pgCustomerRepository) Create(ctx context.Context, q repository.Querier, c *domain.Customer) (*domain.Customer, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.DunningStatus == "" {
		c.DunningStatus = domain.StatusActive
	}

	query := `
		INSERT INTO customers (name, email, phone, customer_type, plan_type, billing_date,
		                       due_date, overdue_days, outstanding_amount, dunning_status,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := q.QueryRow(ctx, query,
		c.Name, c.Email, c.Phone, c.CustomerType, c.PlanType, c.BillingDate,
		c.DueDate, c.OverdueDays, c.OutstandingAmount, c.DunningStatus,
		c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	return c, nil
}

func (r *pgCustomerRepository) GetByID(ctx context.Context, q repository.Querier, id int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomer(q.QueryRow(ctx, query, id))
}

func (r *pgCustomerRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 FOR UPDATE`
	return scanCustomer(tx.QueryRow(ctx, query, id))
}

func (r *pgCustomerRepository) GetByEmail(ctx context.Context, q repository.Querier, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`
	return scanCustomer(q.QueryRow(ctx, query, email))
}

func (r *pgCustomerRepository) List(ctx context.Context, q repository.Querier, filter repository.CustomerFilter) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE 1=1`
	args := []any{}
	argPos := 1

	if filter.CustomerType != nil {
		query += fmt.Sprintf(" AND customer_type = $%d", argPos)
		args = append(args, *filter.CustomerType)
		argPos++
	}
	if filter.DunningStatus != nil {
		query += fmt.Sprintf(" AND dunning_status = $%d", argPos)
		args = append(args, *filter.DunningStatus)
		argPos++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (r *pgCustomerRepository) ListOverdue(ctx context.Context, q repository.Querier) ([]domain.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE outstanding_amount > 0 AND overdue_days > 0
		ORDER BY overdue_days DESC, id
	`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (r *pgCustomerRepository) ListOverdueIDs(ctx context.Context, q repository.Querier) ([]int64, error) {
	query := `
		SELECT id FROM customers
		WHERE outstanding_amount > 0 AND due_date IS NOT NULL AND due_date < CURRENT_DATE
		ORDER BY id
	`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *pgCustomerRepository) Update(ctx context.Context, q repository.Querier, c *domain.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, customer_type = $5, plan_type = $6,
		    billing_date = $7, due_date = $8, overdue_days = $9,
		    outstanding_amount = $10, dunning_status = $11, updated_at = $12
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, c.CustomerType, c.PlanType,
		c.BillingDate, c.DueDate, c.OverdueDays, c.OutstandingAmount,
		c.DunningStatus, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *pgCustomerRepository) Delete(ctx context.Context, q repository.Querier, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func collectCustomers(rows pgx.Rows) ([]domain.Customer, error) {
	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.CustomerType, &c.PlanType,
			&c.BillingDate, &c.DueDate, &c.OverdueDays, &c.OutstandingAmount,
			&c.DunningStatus, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
