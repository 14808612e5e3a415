package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
)

func makeRule(id int64, name string, ct domain.CustomerType, triggerDay int, action domain.ActionType, priority int, active bool) domain.DunningRule {
	return domain.DunningRule{
		ID:                  id,
		RuleName:            name,
		CustomerType:        ct,
		TriggerDay:          triggerDay,
		ActionType:          action,
		NotificationChannel: domain.ChannelSMS,
		Priority:            priority,
		IsActive:            active,
	}
}

func TestMatchRule_SelectsClosestTier(t *testing.T) {
	rules := []domain.DunningRule{
		makeRule(1, "Day 3 Notify", domain.TypeAll, 3, domain.ActionNotify, 1, true),
		makeRule(2, "Day 7 Throttle", domain.TypeAll, 7, domain.ActionThrottle, 1, true),
		makeRule(3, "Day 15 Bar", domain.TypeAll, 15, domain.ActionBarOutgoing, 1, true),
	}

	tests := []struct {
		name        string
		overdueDays int
		wantRuleID  int64
		wantNil     bool
	}{
		{name: "below first tier", overdueDays: 2, wantNil: true},
		{name: "exactly first tier", overdueDays: 3, wantRuleID: 1},
		{name: "between tiers lands on lower", overdueDays: 6, wantRuleID: 1},
		{name: "second tier", overdueDays: 7, wantRuleID: 2},
		{name: "far past last tier", overdueDays: 90, wantRuleID: 3},
		{name: "not overdue", overdueDays: 0, wantNil: true},
		{name: "negative days", overdueDays: -1, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchRule(domain.TypePostpaid, tt.overdueDays, rules)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantRuleID, got.ID)
		})
	}
}

func TestMatchRule_PriorityBreaksTriggerDayTie(t *testing.T) {
	rules := []domain.DunningRule{
		makeRule(1, "Low priority", domain.TypeAll, 5, domain.ActionNotify, 1, true),
		makeRule(2, "High priority", domain.TypeAll, 5, domain.ActionThrottle, 9, true),
	}

	got := MatchRule(domain.TypePostpaid, 5, rules)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
}

func TestMatchRule_LowestIDBreaksFullTie(t *testing.T) {
	rules := []domain.DunningRule{
		makeRule(7, "Later rule", domain.TypeAll, 5, domain.ActionNotify, 3, true),
		makeRule(4, "Earlier rule", domain.TypeAll, 5, domain.ActionNotify, 3, true),
	}

	got := MatchRule(domain.TypePostpaid, 5, rules)
	require.NotNil(t, got)
	assert.Equal(t, int64(4), got.ID)
}

func TestMatchRule_FiltersCustomerType(t *testing.T) {
	rules := []domain.DunningRule{
		makeRule(1, "Prepaid only", domain.TypePrepaid, 3, domain.ActionNotify, 1, true),
		makeRule(2, "Postpaid only", domain.TypePostpaid, 3, domain.ActionThrottle, 1, true),
		makeRule(3, "Everyone", domain.TypeAll, 1, domain.ActionNotify, 1, true),
	}

	got := MatchRule(domain.TypePostpaid, 3, rules)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID, "postpaid rule at the customer's tier wins over the ALL rule at a lower tier")

	got = MatchRule(domain.TypePrepaid, 3, rules)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
}

func TestMatchRule_IgnoresInactiveRules(t *testing.T) {
	rules := []domain.DunningRule{
		makeRule(1, "Disabled bar", domain.TypeAll, 10, domain.ActionBarOutgoing, 5, false),
		makeRule(2, "Active notify", domain.TypeAll, 3, domain.ActionNotify, 1, true),
	}

	got := MatchRule(domain.TypePostpaid, 12, rules)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
}

func TestMatchRule_NoRules(t *testing.T) {
	assert.Nil(t, MatchRule(domain.TypePostpaid, 10, nil))
	assert.Nil(t, MatchRule(domain.TypePostpaid, 10, []domain.DunningRule{}))
}

func TestMatchRule_DoesNotMutateInput(t *testing.T) {
	rules := []domain.DunningRule{
		makeRule(1, "A", domain.TypeAll, 3, domain.ActionNotify, 1, true),
		makeRule(2, "B", domain.TypeAll, 7, domain.ActionThrottle, 1, true),
	}

	_ = MatchRule(domain.TypePostpaid, 10, rules)

	assert.Equal(t, int64(1), rules[0].ID)
	assert.Equal(t, int64(2), rules[1].ID)
}
