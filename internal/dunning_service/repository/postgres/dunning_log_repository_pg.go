package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

type pgDunningLogRepository struct{}

// NewPgDunningLogRepository creates a new DunningLogRepository for PostgreSQL.
func NewPgDunningLogRepository() repository.DunningLogRepository {
	return &pgDunningLogRepository{}
}

// Rule name is denormalized onto the log row so the audit trail survives
// rule deletion; there is deliberately no FK back to dunning_rules or
// customers.
func (repo *pgDunningLogRepository) Create(ctx context.Context, q repository.Querier, l *domain.DunningLog) (*domain.DunningLog, error) {
	l.CreatedAt = time.Now().UTC()

	details, err := json.Marshal(l.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dunning log details: %w", err)
	}

	query := `
		INSERT INTO dunning_logs (customer_id, rule_id, rule_name, action_type, status, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = q.QueryRow(ctx, query,
		l.CustomerID, l.RuleID, l.RuleName, l.ActionType, l.Status, details, l.CreatedAt,
	).Scan(&l.ID)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (repo *pgDunningLogRepository) List(ctx context.Context, q repository.Querier, filter domain.DunningLogFilter) ([]domain.DunningLog, error) {
	query := `
		SELECT id, customer_id, rule_id, rule_name, action_type, status, details, created_at
		FROM dunning_logs
		WHERE 1=1
	`
	args := []any{}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.DunningLog
	for rows.Next() {
		var l domain.DunningLog
		var details []byte
		err := rows.Scan(&l.ID, &l.CustomerID, &l.RuleID, &l.RuleName, &l.ActionType, &l.Status, &details, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &l.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal dunning log details: %w", err)
			}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
