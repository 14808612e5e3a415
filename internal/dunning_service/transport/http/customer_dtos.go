package http

import "time"

// CreateCustomerRequestDTO is the payload for registering a customer.
type CreateCustomerRequestDTO struct {
	Name              string     `json:"name" validate:"required"`
	Email             string     `json:"email" validate:"required,email"`
	Phone             string     `json:"phone" validate:"required"`
	CustomerType      string     `json:"customer_type" validate:"required,oneof=POSTPAID PREPAID"`
	PlanType          string     `json:"plan_type" validate:"required"`
	BillingDate       *time.Time `json:"billing_date,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	OutstandingAmount float64    `json:"outstanding_amount" validate:"gte=0"`
}

// UpdateCustomerRequestDTO carries a partial update; nil fields are left
// untouched. dunning_status is deliberately absent: only the dunning and
// curing workflows may change it.
type UpdateCustomerRequestDTO struct {
	Name              *string    `json:"name,omitempty"`
	Email             *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone             *string    `json:"phone,omitempty"`
	CustomerType      *string    `json:"customer_type,omitempty" validate:"omitempty,oneof=POSTPAID PREPAID"`
	PlanType          *string    `json:"plan_type,omitempty"`
	BillingDate       *time.Time `json:"billing_date,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	OutstandingAmount *float64   `json:"outstanding_amount,omitempty" validate:"omitempty,gte=0"`
}

// CustomerStatusResponseDTO is the detailed dunning standing of one customer.
type CustomerStatusResponseDTO struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	CustomerType       string     `json:"customer_type"`
	DunningStatus      string     `json:"dunning_status"`
	OverdueDays        int        `json:"overdue_days"`
	OutstandingAmount  float64    `json:"outstanding_amount"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	LastPaymentDate    *time.Time `json:"last_payment_date,omitempty"`
	TotalPayments      int        `json:"total_payments"`
	TotalNotifications int        `json:"total_notifications"`
}
