package app

import (
	"sort"

	"github.com/telbill/dunning_service/internal/dunning_service/domain"
)

// MatchRule selects the single applicable rule for a customer from a
// snapshot of active rules. A rule qualifies when it is active, its customer
// type matches the customer's (or is ALL), and its trigger day has been
// reached (trigger_day <= overdueDays, so customers missed on earlier runs
// still land on the right tier).
//
// Precedence among qualifying rules: highest trigger_day (the closest
// escalation tier), then highest priority, then lowest rule id as the
// deterministic fallback. Returns nil when nothing qualifies.
//
// Pure function: no side effects, no hidden state beyond the snapshot.
func MatchRule(customerType domain.CustomerType, overdueDays int, rules []domain.DunningRule) *domain.DunningRule {
	if overdueDays <= 0 {
		return nil
	}

	candidates := make([]domain.DunningRule, 0, len(rules))
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		if !r.AppliesTo(customerType) {
			continue
		}
		if r.TriggerDay > overdueDays {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].TriggerDay != candidates[j].TriggerDay {
			return candidates[i].TriggerDay > candidates[j].TriggerDay
		}
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].ID < candidates[j].ID
	})

	matched := candidates[0]
	return &matched
}
