package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
	MethodDebitCard  PaymentMethod = "DEBIT_CARD"
	MethodUPI        PaymentMethod = "UPI"
	MethodNetBanking PaymentMethod = "NET_BANKING"
	MethodWallet     PaymentMethod = "WALLET"
)

func (pm PaymentMethod) Value() (driver.Value, error) {
	return string(pm), nil
}

func (pm *PaymentMethod) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan PaymentMethod: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*pm = PaymentMethod(strVal)
	switch *pm {
	case MethodCreditCard, MethodDebitCard, MethodUPI, MethodNetBanking, MethodWallet:
		return nil
	default:
		return fmt.Errorf("unknown PaymentMethod value: %s", strVal)
	}
}

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

func (ps PaymentStatus) Value() (driver.Value, error) {
	return string(ps), nil
}

func (ps *PaymentStatus) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan PaymentStatus: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*ps = PaymentStatus(strVal)
	switch *ps {
	case PaymentPending, PaymentSuccess, PaymentFailed:
		return nil
	default:
		return fmt.Errorf("unknown PaymentStatus value: %s", strVal)
	}
}

// Payment records money received against a customer's outstanding balance.
// A successful payment triggers a curing evaluation.
type Payment struct {
	ID            int64         `json:"id"`
	CustomerID    int64         `json:"customer_id"`
	Amount        float64       `json:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TransactionID string        `json:"transaction_id"`
	PaymentDate   time.Time     `json:"payment_date"`
	CreatedAt     time.Time     `json:"created_at"`
}
