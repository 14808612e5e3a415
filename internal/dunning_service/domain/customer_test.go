package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDunningStatus_Severity(t *testing.T) {
	assert.Equal(t, 0, StatusActive.Severity())
	assert.Equal(t, 1, StatusNotified.Severity())
	assert.Equal(t, 2, StatusRestricted.Severity())
	assert.Equal(t, 3, StatusBarred.Severity())
	assert.Equal(t, 0, StatusCured.Severity(), "CURED is a log label, not an escalation tier")
}

func TestDunningStatus_Escalate(t *testing.T) {
	tests := []struct {
		name    string
		current DunningStatus
		target  DunningStatus
		want    DunningStatus
	}{
		{name: "active escalates to notified", current: StatusActive, target: StatusNotified, want: StatusNotified},
		{name: "active jumps straight to barred", current: StatusActive, target: StatusBarred, want: StatusBarred},
		{name: "notified escalates to restricted", current: StatusNotified, target: StatusRestricted, want: StatusRestricted},
		{name: "barred never downgrades to notified", current: StatusBarred, target: StatusNotified, want: StatusBarred},
		{name: "restricted never downgrades to active", current: StatusRestricted, target: StatusActive, want: StatusRestricted},
		{name: "same tier is a no-op", current: StatusNotified, target: StatusNotified, want: StatusNotified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.current.Escalate(tt.target))
		})
	}
}

func TestCustomer_OverdueDaysAsOf(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	due := func(daysAgo int) *time.Time {
		d := now.AddDate(0, 0, -daysAgo)
		return &d
	}

	tests := []struct {
		name     string
		customer Customer
		want     int
	}{
		{name: "no due date", customer: Customer{OutstandingAmount: 500}, want: 0},
		{name: "zero balance", customer: Customer{DueDate: due(10), OutstandingAmount: 0}, want: 0},
		{name: "negative balance", customer: Customer{DueDate: due(10), OutstandingAmount: -50}, want: 0},
		{name: "due today", customer: Customer{DueDate: due(0), OutstandingAmount: 500}, want: 0},
		{name: "due in the future", customer: Customer{DueDate: due(-5), OutstandingAmount: 500}, want: 0},
		{name: "one day past due", customer: Customer{DueDate: due(1), OutstandingAmount: 500}, want: 1},
		{name: "seven days past due", customer: Customer{DueDate: due(7), OutstandingAmount: 500}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.customer.OverdueDaysAsOf(now))
		})
	}
}

func TestCustomer_OverdueDaysAsOf_IgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2024, 5, 7, 23, 50, 0, 0, time.UTC)
	c := Customer{DueDate: &due, OutstandingAmount: 100}

	earlyMorning := time.Date(2024, 5, 10, 0, 5, 0, 0, time.UTC)
	lateNight := time.Date(2024, 5, 10, 23, 55, 0, 0, time.UTC)

	assert.Equal(t, 3, c.OverdueDaysAsOf(earlyMorning))
	assert.Equal(t, 3, c.OverdueDaysAsOf(lateNight))
}
