package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// CustomerType classifies a subscriber's billing arrangement.
// TypeAll is valid only on dunning rules, where it matches every customer.
type CustomerType string

const (
	TypePostpaid CustomerType = "POSTPAID"
	TypePrepaid  CustomerType = "PREPAID"
	TypeAll      CustomerType = "ALL"
)

func (ct CustomerType) Value() (driver.Value, error) {
	return string(ct), nil
}

func (ct *CustomerType) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan CustomerType: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*ct = CustomerType(strVal)
	switch *ct {
	case TypePostpaid, TypePrepaid, TypeAll:
		return nil
	default:
		return fmt.Errorf("unknown CustomerType value: %s", strVal)
	}
}

// DunningStatus is the restriction level currently applied to a customer.
// Severity is explicitly ranked so the escalation path can be enforced by
// comparison instead of string convention: a dunning run may only move a
// customer to an equal or higher rank, and only curing resets to ACTIVE.
type DunningStatus string

const (
	StatusActive     DunningStatus = "ACTIVE"
	StatusNotified   DunningStatus = "NOTIFIED"
	StatusRestricted DunningStatus = "RESTRICTED"
	StatusBarred     DunningStatus = "BARRED"

	// StatusCured is a log-only label marking a just-reversed restriction.
	// The live customer field settles to ACTIVE; CURED never appears there.
	StatusCured DunningStatus = "CURED"
)

var statusSeverity = map[DunningStatus]int{
	StatusActive:     0,
	StatusNotified:   1,
	StatusRestricted: 2,
	StatusBarred:     3,
}

// Severity returns the escalation rank of the status. CURED has no rank.
func (s DunningStatus) Severity() int {
	return statusSeverity[s]
}

// Escalate returns the more severe of the current status and the target.
// The dunning path never downgrades; a BARRED customer stays BARRED even if
// a lower-tier rule matches on a later run.
func (s DunningStatus) Escalate(target DunningStatus) DunningStatus {
	if target.Severity() > s.Severity() {
		return target
	}
	return s
}

func (s DunningStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *DunningStatus) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan DunningStatus: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	*s = DunningStatus(strVal)
	switch *s {
	case StatusActive, StatusNotified, StatusRestricted, StatusBarred, StatusCured:
		return nil
	default:
		return fmt.Errorf("unknown DunningStatus value: %s", strVal)
	}
}

// Customer is a billed subscriber tracked by the ledger.
type Customer struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	Email             string        `json:"email"`
	Phone             string        `json:"phone"`
	CustomerType      CustomerType  `json:"customer_type"`
	PlanType          string        `json:"plan_type"`
	BillingDate       *time.Time    `json:"billing_date,omitempty"`
	DueDate           *time.Time    `json:"due_date,omitempty"`
	OverdueDays       int           `json:"overdue_days"`
	OutstandingAmount float64       `json:"outstanding_amount"`
	DunningStatus     DunningStatus `json:"dunning_status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// OverdueDaysAsOf derives the days elapsed past the due date at the given
// instant. Customers with no due date or no outstanding balance are never
// overdue.
func (c *Customer) OverdueDaysAsOf(now time.Time) int {
	if c.DueDate == nil || c.OutstandingAmount <= 0 {
		return 0
	}
	due := c.DueDate.Truncate(24 * time.Hour)
	today := now.UTC().Truncate(24 * time.Hour)
	if !today.After(due) {
		return 0
	}
	return int(today.Sub(due).Hours() / 24)
}
