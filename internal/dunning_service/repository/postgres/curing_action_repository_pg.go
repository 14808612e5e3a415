package postgres

import (
	"context"
	"time"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

type pgCuringActionRepository struct{}

// NewPgCuringActionRepository creates a new CuringActionRepository for PostgreSQL.
func NewPgCuringActionRepository() repository.CuringActionRepository {
	return &pgCuringActionRepository{}
}

func (repo *pgCuringActionRepository) Create(ctx context.Context, q repository.Querier, a *domain.CuringAction) (*domain.CuringAction, error) {
	if a.CuredAt.IsZero() {
		a.CuredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO curing_actions (customer_id, payment_id, previous_status, new_status,
		                            action_taken, success_flag, cured_at, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := q.QueryRow(ctx, query,
		a.CustomerID, a.PaymentID, a.PreviousStatus, a.NewStatus,
		a.ActionTaken, a.SuccessFlag, a.CuredAt, a.Remarks,
	).Scan(&a.ID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (repo *pgCuringActionRepository) List(ctx context.Context, q repository.Querier, customerID *int64, limit, offset int) ([]domain.CuringAction, error) {
	query := `
		SELECT id, customer_id, payment_id, previous_status, new_status,
		       action_taken, success_flag, cured_at, remarks
		FROM curing_actions
	`
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
		query += ` ORDER BY cured_at DESC, id DESC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY cured_at DESC, id DESC LIMIT $1 OFFSET $2`
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []domain.CuringAction
	for rows.Next() {
		var a domain.CuringAction
		err := rows.Scan(
			&a.ID, &a.CustomerID, &a.PaymentID, &a.PreviousStatus, &a.NewStatus,
			&a.ActionTaken, &a.SuccessFlag, &a.CuredAt, &a.Remarks,
		)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
