package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ExecutionStatus is the outcome recorded for a dunning run on one customer.
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "SUCCESS"
	ExecutionFailed  ExecutionStatus = "FAILED"
	ExecutionSkipped ExecutionStatus = "SKIPPED"
)

func (es ExecutionStatus) Value() (driver.Value, error) {
	return string(es), nil
}

func (es *ExecutionStatus) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan ExecutionStatus: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*es = ExecutionStatus(strVal)
	switch *es {
	case ExecutionSuccess, ExecutionFailed, ExecutionSkipped:
		return nil
	default:
		return fmt.Errorf("unknown ExecutionStatus value: %s", strVal)
	}
}

// DunningLogDetails is the structured payload stored with each log entry.
type DunningLogDetails struct {
	OverdueDays         int     `json:"overdue_days"`
	OutstandingAmount   float64 `json:"outstanding_amount,omitempty"`
	NotificationChannel string  `json:"notification_channel,omitempty"`
	NotificationSent    bool    `json:"notification_sent"`
	ActionTaken         string  `json:"action_taken,omitempty"`
	PreviousStatus      string  `json:"previous_status,omitempty"`
	NewStatus           string  `json:"new_status,omitempty"`
	Reason              string  `json:"reason,omitempty"`
}

// DunningLog is an append-only audit entry for one dunning evaluation.
// Entries are never mutated or deleted; RuleID is nil for skips where no
// rule matched.
type DunningLog struct {
	ID         int64             `json:"id"`
	CustomerID int64             `json:"customer_id"`
	RuleID     *int64            `json:"rule_id,omitempty"`
	RuleName   *string           `json:"rule_name,omitempty"`
	ActionType string            `json:"action_type"`
	Status     ExecutionStatus   `json:"status"`
	Details    DunningLogDetails `json:"details"`
	CreatedAt  time.Time         `json:"created_at"`
}

// DunningLogFilter narrows log queries.
type DunningLogFilter struct {
	CustomerID *int64
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
