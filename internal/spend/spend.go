// Package spend normalizes subscription prices to common monthly and yearly
// bases and aggregates them into the dashboard totals. Everything here is a
// pure function over rows the caller already loaded.
package spend

import "subtrack/internal/models"

// Summary aggregates a set of active subscriptions.
type Summary struct {
	TotalMonthly float64
	TotalYearly  float64
	ActiveCount  int
	ByCategory   map[string]float64
}

// MonthlyCost converts a subscription's price to a monthly basis.
// A quarterly price covers three months, so it is divided by three.
func MonthlyCost(sub models.Subscription) float64 {
	switch sub.BillingCycle {
	case models.CycleYearly:
		return sub.Price / 12
	case models.CycleQuarterly:
		return sub.Price / 3
	case models.CycleWeekly:
		return sub.Price * 4
	default:
		return sub.Price
	}
}

// YearlyCost converts a subscription's price to a yearly basis.
func YearlyCost(sub models.Subscription) float64 {
	switch sub.BillingCycle {
	case models.CycleMonthly:
		return sub.Price * 12
	case models.CycleQuarterly:
		return sub.Price * 4
	case models.CycleWeekly:
		return sub.Price * 52
	default:
		return sub.Price
	}
}

// Summarize totals normalized costs and groups raw prices by category.
// Subscriptions without a category are grouped under "other".
func Summarize(subs []models.Subscription) Summary {
	sum := Summary{
		ActiveCount: len(subs),
		ByCategory:  make(map[string]float64, 8),
	}

	for _, sub := range subs {
		sum.TotalMonthly += MonthlyCost(sub)
		sum.TotalYearly += YearlyCost(sub)

		category := string(sub.Category)
		if category == "" {
			category = string(models.CategoryOther)
		}
		sum.ByCategory[category] += sub.Price
	}

	return sum
}
