package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telbill/dunning_service/internal/dunning_service/adapters/channels"
	"github.com/telbill/dunning_service/internal/dunning_service/domain"
	"github.com/telbill/dunning_service/internal/dunning_service/repository"
	"github.com/telbill/dunning_service/internal/platform/messagebroker"
)

// notificationDispatchedSubject is the NATS subject notification outcomes
// are published on for downstream consumers (reporting, CRM sync).
const notificationDispatchedSubject = "dunning.notifications.dispatched"

// NotificationService records and sends customer notifications. Every
// dispatch writes a Notification audit row per concrete channel; channel ALL
// fans out to SMS, EMAIL and APP. Broker publication is best effort and
// never fails a dispatch.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	sender           channels.Sender
	nats             *messagebroker.NatsClient // nil when no broker is configured
	logger           *slog.Logger
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	sender channels.Sender,
	nats *messagebroker.NatsClient,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		sender:           sender,
		nats:             nats,
		logger:           logger.With("service", "notification"),
	}
}

// Dispatch sends message to the customer over the rule's channel. It returns
// the number of concrete channels that succeeded; the error is non-nil only
// when every channel failed.
func (s *NotificationService) Dispatch(
	ctx context.Context,
	q repository.Querier,
	customer *domain.Customer,
	ruleID *int64,
	channel domain.NotificationChannel,
	message string,
) (int, error) {
	targets := []domain.NotificationChannel{channel}
	if channel == domain.ChannelAll {
		targets = []domain.NotificationChannel{domain.ChannelSMS, domain.ChannelEmail, domain.ChannelApp}
	}

	sent := 0
	var lastErr error
	for _, target := range targets {
		if err := s.dispatchOne(ctx, q, customer, ruleID, target, message); err != nil {
			s.logger.ErrorContext(ctx, "Notification dispatch failed",
				"customer_id", customer.ID, "channel", target, "error", err)
			lastErr = err
			continue
		}
		sent++
	}
	if sent == 0 && lastErr != nil {
		return 0, lastErr
	}
	return sent, nil
}

func (s *NotificationService) dispatchOne(
	ctx context.Context,
	q repository.Querier,
	customer *domain.Customer,
	ruleID *int64,
	channel domain.NotificationChannel,
	message string,
) error {
	notification := &domain.Notification{
		CustomerID: customer.ID,
		RuleID:     ruleID,
		Channel:    channel,
		Message:    message,
		Status:     domain.NotificationPending,
	}
	notification, err := s.notificationRepo.Create(ctx, q, notification)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	req := channels.SendRequest{
		CustomerID: customer.ID,
		Message:    message,
	}
	switch channel {
	case domain.ChannelSMS:
		req.Recipient = customer.Phone
		err = s.sender.SendSMS(ctx, req)
	case domain.ChannelEmail:
		req.Recipient = customer.Email
		req.Subject = "Payment Reminder - Dunning Notice"
		err = s.sender.SendEmail(ctx, req)
	case domain.ChannelApp:
		err = s.sender.SendApp(ctx, req)
	default:
		err = fmt.Errorf("unsupported notification channel %q", channel)
	}

	status := domain.NotificationSent
	var sentAt *time.Time
	if err != nil {
		status = domain.NotificationFailed
		notificationsSentCounter.WithLabelValues(string(channel), "failed").Inc()
	} else {
		now := time.Now().UTC()
		sentAt = &now
		notificationsSentCounter.WithLabelValues(string(channel), "sent").Inc()
	}

	if updateErr := s.notificationRepo.UpdateStatus(ctx, q, notification.ID, status, sentAt); updateErr != nil {
		s.logger.ErrorContext(ctx, "Failed to update notification status",
			"notification_id", notification.ID, "error", updateErr)
	}

	s.publishDispatched(ctx, notification, status)
	return err
}

// publishDispatched emits the dispatch outcome to NATS. Best effort: broker
// trouble is logged and swallowed.
func (s *NotificationService) publishDispatched(ctx context.Context, n *domain.Notification, status domain.NotificationStatus) {
	if s.nats == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"event_id":        uuid.NewString(),
		"notification_id": n.ID,
		"customer_id":     n.CustomerID,
		"channel":         n.Channel,
		"status":          status,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal notification event", "error", err)
		return
	}
	if err := s.nats.Publish(ctx, notificationDispatchedSubject, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish notification event to NATS",
			"subject", notificationDispatchedSubject, "error", err)
	}
}
