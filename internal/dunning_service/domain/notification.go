package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// NotificationStatus tracks delivery of a single dispatched notification.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationSent      NotificationStatus = "SENT"
	NotificationDelivered NotificationStatus = "DELIVERED"
	NotificationFailed    NotificationStatus = "FAILED"
)

func (ns NotificationStatus) Value() (driver.Value, error) {
	return string(ns), nil
}

func (ns *NotificationStatus) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan NotificationStatus: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*ns = NotificationStatus(strVal)
	switch *ns {
	case NotificationPending, NotificationSent, NotificationDelivered, NotificationFailed:
		return nil
	default:
		return fmt.Errorf("unknown NotificationStatus value: %s", strVal)
	}
}

// Notification is the audit record of one message dispatched to a customer
// over one concrete channel. A rule with channel ALL produces one record per
// underlying channel.
type Notification struct {
	ID         int64               `json:"id"`
	CustomerID int64               `json:"customer_id"`
	RuleID     *int64              `json:"rule_id,omitempty"`
	Channel    NotificationChannel `json:"channel"`
	Message    string              `json:"message"`
	Status     NotificationStatus  `json:"status"`
	SentAt     *time.Time          `json:"sent_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}
