package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

type pgRuleRepository struct{}

// NewPgRuleRepository creates a new RuleRepository for PostgreSQL.
func NewPgRuleRepository() repository.RuleRepository {
	return &pgRuleRepository{}
}

const ruleColumns = `
	id, rule_name, customer_type, trigger_day, action_type, notification_channel,
	priority, is_active, created_at, updated_at
`

func scanRule(row pgx.Row) (*domain.DunningRule, error) {
	r := &domain.DunningRule{}
	err := row.Scan(
		&r.ID, &r.RuleName, &r.CustomerType, &r.TriggerDay, &r.ActionType,
		&r.NotificationChannel, &r.Priority, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, err
	}
	return r, nil
}

func (repo *pgRuleRepository) Create(ctx context.Context, q repository.Querier, r *domain.DunningRule) (*domain.DunningRule, error) {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	query := `
		INSERT INTO dunning_rules (rule_name, customer_type, trigger_day, action_type,
		                           notification_channel, priority, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := q.QueryRow(ctx, query,
		r.RuleName, r.CustomerType, r.TriggerDay, r.ActionType,
		r.NotificationChannel, r.Priority, r.IsActive, r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (repo *pgRuleRepository) GetByID(ctx context.Context, q repository.Querier, id int64) (*domain.DunningRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM dunning_rules WHERE id = $1`
	return scanRule(q.QueryRow(ctx, query, id))
}

func (repo *pgRuleRepository) List(ctx context.Context, q repository.Querier, filter repository.RuleFilter) ([]domain.DunningRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM dunning_rules WHERE 1=1`
	args := []any{}
	if filter.CustomerType != nil {
		args = append(args, *filter.CustomerType)
		query += ` AND customer_type = $1`
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		if len(args) == 1 {
			query += ` AND is_active = $1`
		} else {
			query += ` AND is_active = $2`
		}
	}
	query += ` ORDER BY trigger_day, priority DESC, id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func (repo *pgRuleRepository) ListActive(ctx context.Context, q repository.Querier) ([]domain.DunningRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM dunning_rules WHERE is_active = TRUE ORDER BY id`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

func (repo *pgRuleRepository) Update(ctx context.Context, q repository.Querier, r *domain.DunningRule) error {
	r.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE dunning_rules
		SET rule_name = $2, customer_type = $3, trigger_day = $4, action_type = $5,
		    notification_channel = $6, priority = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		r.ID, r.RuleName, r.CustomerType, r.TriggerDay, r.ActionType,
		r.NotificationChannel, r.Priority, r.IsActive, r.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

func (repo *pgRuleRepository) Delete(ctx context.Context, q repository.Querier, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM dunning_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

func collectRules(rows pgx.Rows) ([]domain.DunningRule, error) {
	var rules []domain.DunningRule
	for rows.Next() {
		var r domain.DunningRule
		err := rows.Scan(
			&r.ID, &r.RuleName, &r.CustomerType, &r.TriggerDay, &r.ActionType,
			&r.NotificationChannel, &r.Priority, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
