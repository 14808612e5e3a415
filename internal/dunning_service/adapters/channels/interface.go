package channels

import "context"

// SendRequest holds the data for dispatching one message over one channel.
type SendRequest struct {
	CustomerID int64
	Recipient  string // phone for SMS, email address for EMAIL, unused for APP
	Subject    string // EMAIL only
	Message    string
}

// Sender is the interface a concrete notification channel implements.
// Real deployments would back these with an SMS gateway, a mail relay and a
// push provider; the simulated sender stands in for all three.
type Sender interface {
	SendSMS(ctx context.Context, req SendRequest) error
	SendEmail(ctx context.Context, req SendRequest) error
	SendApp(ctx context.Context, req SendRequest) error
}
