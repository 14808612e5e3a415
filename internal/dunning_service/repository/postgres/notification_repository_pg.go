package postgres

import (
	"context"
	"time"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
)

type pgNotificationRepository struct{}

// NewPgNotificationRepository creates a new NotificationRepository for PostgreSQL.
func NewPgNotificationRepository() repository.NotificationRepository {
	return &pgNotificationRepository{}
}

func (repo *pgNotificationRepository) Create(ctx context.Context, q repository.Querier, n *domain.Notification) (*domain.Notification, error) {
	n.CreatedAt = time.Now().UTC()
	if n.Status == "" {
		n.Status = domain.NotificationPending
	}

	query := `
		INSERT INTO notifications (customer_id, rule_id, channel, message, status, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := q.QueryRow(ctx, query,
		n.CustomerID, n.RuleID, n.Channel, n.Message, n.Status, n.SentAt, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (repo *pgNotificationRepository) UpdateStatus(ctx context.Context, q repository.Querier, id int64, status domain.NotificationStatus, sentAt *time.Time) error {
	query := `UPDATE notifications SET status = $2, sent_at = $3 WHERE id = $1`
	_, err := q.Exec(ctx, query, id, status, sentAt)
	return err
}

func (repo *pgNotificationRepository) ListByCustomer(ctx context.Context, q repository.Querier, customerID int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, customer_id, rule_id, channel, message, status, sent_at, created_at
		FROM notifications
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := q.Query(ctx, query, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.CustomerID, &n.RuleID, &n.Channel, &n.Message, &n.Status, &n.SentAt, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (repo *pgNotificationRepository) CountByCustomer(ctx context.Context, q repository.Querier, customerID int64) (int, error) {
	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE customer_id = $1`, customerID).Scan(&count)
	return count, err
}
