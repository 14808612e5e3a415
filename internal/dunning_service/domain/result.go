package domain

import "time"

// DunningResult is the outcome of applying dunning to one customer.
type DunningResult struct {
	CustomerID       int64           `json:"customer_id"`
	CustomerName     string          `json:"customer_name,omitempty"`
	OverdueDays      int             `json:"overdue_days"`
	Status           ExecutionStatus `json:"status"`
	RuleID           *int64          `json:"rule_id,omitempty"`
	RuleName         string          `json:"rule_name,omitempty"`
	ActionTaken      string          `json:"action_taken,omitempty"`
	PreviousStatus   DunningStatus   `json:"previous_status,omitempty"`
	NewStatus        DunningStatus   `json:"new_status,omitempty"`
	NotificationSent bool            `json:"notification_sent"`
	Message          string          `json:"message,omitempty"`
}

// BatchResult summarizes one batch dunning invocation. The per-customer
// counts always sum to TotalCustomers, even under partial failure.
type BatchResult struct {
	TotalCustomers int             `json:"total_customers"`
	Successful     int             `json:"successful"`
	Failed         int             `json:"failed"`
	Skipped        int             `json:"skipped"`
	Results        []DunningResult `json:"results"`
	ExecutionTime  time.Duration   `json:"-"`
	ExecutionSecs  float64         `json:"execution_time"`
}
