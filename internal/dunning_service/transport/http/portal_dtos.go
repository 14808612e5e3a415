package http

import "github.com/telbill/dunning_service/internal/dunning_service/domain"

// LoginRequestDTO authenticates either the admin console or a customer.
// Customers sign in with their registered phone number as the password.
type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginUserDTO is the authenticated identity returned on login.
type LoginUserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	CustomerType string `json:"customer_type,omitempty"`
	Token        string `json:"token"`
}

// LoginResponseDTO wraps the login outcome.
type LoginResponseDTO struct {
	Success bool          `json:"success"`
	User    *LoginUserDTO `json:"user,omitempty"`
	Message string        `json:"message"`
}

// PortalProfileResponseDTO is a customer's self-service view: their record,
// recent payments, and recent notifications.
type PortalProfileResponseDTO struct {
	Customer      *domain.Customer      `json:"customer"`
	Payments      []domain.Payment      `json:"payments"`
	Notifications []domain.Notification `json:"notifications"`
}

// MakePaymentRequestDTO is a portal-initiated payment.
type MakePaymentRequestDTO struct {
	CustomerID    int64   `json:"customer_id" validate:"required,gt=0"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD UPI NET_BANKING WALLET"`
}

// MakePaymentResponseDTO reports the processed payment and the customer's
// refreshed standing.
type MakePaymentResponseDTO struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Payment  *domain.Payment      `json:"payment"`
	Customer *PortalCustomerSlice `json:"customer"`
	Curing   *domain.CuringResult `json:"curing_result,omitempty"`
}

// PortalCustomerSlice is the subset of customer state the portal refreshes
// after a payment.
type PortalCustomerSlice struct {
	OutstandingAmount float64              `json:"outstanding_amount"`
	DunningStatus     domain.DunningStatus `json:"dunning_status"`
}
