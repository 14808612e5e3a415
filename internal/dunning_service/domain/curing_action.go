package domain

import "time"

// CuringAction is an append-only audit record of one curing evaluation:
// a payment-driven attempt to reverse a customer's dunning restriction.
// SuccessFlag is false for partial payments that left the restriction in
// place; such attempts are still recorded for audit completeness.
type CuringAction struct {
	ID             int64         `json:"id"`
	CustomerID     int64         `json:"customer_id"`
	PaymentID      *int64        `json:"payment_id,omitempty"`
	PreviousStatus DunningStatus `json:"previous_status"`
	NewStatus      DunningStatus `json:"new_status"`
	ActionTaken    string        `json:"action_taken"`
	SuccessFlag    bool          `json:"success_flag"`
	CuredAt        time.Time     `json:"cured_at"`
	Remarks        string        `json:"remarks,omitempty"`
}

// CuringResult is the outcome returned to callers of a curing evaluation.
type CuringResult struct {
	Success           bool          `json:"success"`
	CustomerID        int64         `json:"customer_id"`
	CustomerName      string        `json:"customer_name,omitempty"`
	PreviousStatus    DunningStatus `json:"previous_status,omitempty"`
	NewStatus         DunningStatus `json:"new_status,omitempty"`
	PaymentAmount     float64       `json:"payment_amount,omitempty"`
	RemainingBalance  float64       `json:"remaining_balance"`
	ActionsTaken      []string      `json:"actions_taken,omitempty"`
	NotificationsSent int           `json:"notifications_sent"`
	Message           string        `json:"message,omitempty"`
}
