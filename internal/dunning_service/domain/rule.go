package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ActionType is the escalation action a dunning rule prescribes.
type ActionType string

const (
	ActionNotify      ActionType = "NOTIFY"
	ActionThrottle    ActionType = "THROTTLE"
	ActionBarOutgoing ActionType = "BAR_OUTGOING"
	ActionDeactivate  ActionType = "DEACTIVATE"
)

// TargetStatus maps the action to the dunning status it escalates to.
// BAR_OUTGOING and DEACTIVATE both land on BARRED; they are distinguished
// in the audit trail by the recorded action description, not by status.
func (a ActionType) TargetStatus() DunningStatus {
	switch a {
	case ActionNotify:
		return StatusNotified
	case ActionThrottle:
		return StatusRestricted
	case ActionBarOutgoing, ActionDeactivate:
		return StatusBarred
	default:
		return StatusActive
	}
}

// Description is the operational wording recorded in logs when the action
// is applied.
func (a ActionType) Description() string {
	switch a {
	case ActionNotify:
		return "Notification sent to customer"
	case ActionThrottle:
		return "Data speed throttled to 512 kbps"
	case ActionBarOutgoing:
		return "Outgoing calls and data services barred"
	case ActionDeactivate:
		return "Service deactivated - SIM suspended"
	default:
		return string(a)
	}
}

func (a ActionType) Value() (driver.Value, error) {
	return string(a), nil
}

func (a *ActionType) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan ActionType: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*a = ActionType(strVal)
	switch *a {
	case ActionNotify, ActionThrottle, ActionBarOutgoing, ActionDeactivate:
		return nil
	default:
		return fmt.Errorf("unknown ActionType value: %s", strVal)
	}
}

// NotificationChannel selects the delivery channel for a rule's notification.
type NotificationChannel string

const (
	ChannelSMS   NotificationChannel = "SMS"
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelApp   NotificationChannel = "APP"
	ChannelAll   NotificationChannel = "ALL"
)

func (nc NotificationChannel) Value() (driver.Value, error) {
	return string(nc), nil
}

func (nc *NotificationChannel) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan NotificationChannel: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*nc = NotificationChannel(strVal)
	switch *nc {
	case ChannelSMS, ChannelEmail, ChannelApp, ChannelAll:
		return nil
	default:
		return fmt.Errorf("unknown NotificationChannel value: %s", strVal)
	}
}

const (
	// MinTriggerDay and MaxTriggerDay bound the overdue-day threshold a
	// rule may fire at.
	MinTriggerDay = 0
	MaxTriggerDay = 365
)

// DunningRule prescribes the action to take once a customer of a given type
// has been overdue for at least TriggerDay days.
type DunningRule struct {
	ID                  int64               `json:"id"`
	RuleName            string              `json:"rule_name"`
	CustomerType        CustomerType        `json:"customer_type"`
	TriggerDay          int                 `json:"trigger_day"`
	ActionType          ActionType          `json:"action_type"`
	NotificationChannel NotificationChannel `json:"notification_channel"`
	Priority            int                 `json:"priority"`
	IsActive            bool                `json:"is_active"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// Validate checks rule field constraints.
func (r *DunningRule) Validate() error {
	if r.RuleName == "" {
		return fmt.Errorf("%w: rule_name is required", ErrValidation)
	}
	if r.TriggerDay < MinTriggerDay || r.TriggerDay > MaxTriggerDay {
		return fmt.Errorf("%w: trigger_day must be between %d and %d", ErrValidation, MinTriggerDay, MaxTriggerDay)
	}
	switch r.CustomerType {
	case TypePostpaid, TypePrepaid, TypeAll:
	default:
		return fmt.Errorf("%w: invalid customer_type %q", ErrValidation, r.CustomerType)
	}
	switch r.ActionType {
	case ActionNotify, ActionThrottle, ActionBarOutgoing, ActionDeactivate:
	default:
		return fmt.Errorf("%w: invalid action_type %q", ErrValidation, r.ActionType)
	}
	switch r.NotificationChannel {
	case ChannelSMS, ChannelEmail, ChannelApp, ChannelAll:
	default:
		return fmt.Errorf("%w: invalid notification_channel %q", ErrValidation, r.NotificationChannel)
	}
	return nil
}

// AppliesTo reports whether the rule can match a customer of the given type.
func (r *DunningRule) AppliesTo(ct CustomerType) bool {
	return r.CustomerType == TypeAll || r.CustomerType == ct
}
