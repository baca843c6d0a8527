package spend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"subtrack/internal/models"
)

func sub(price float64, cycle models.BillingCycle) models.Subscription {
	return models.Subscription{Price: price, BillingCycle: cycle, Category: models.CategoryOther}
}

func TestMonthlyCost(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		cycle models.BillingCycle
		want  float64
	}{
		{"monthly unchanged", 12, models.CycleMonthly, 12},
		{"yearly divided by 12", 96, models.CycleYearly, 8},
		{"quarterly covers three months", 30, models.CycleQuarterly, 10},
		{"weekly times four", 5, models.CycleWeekly, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MonthlyCost(sub(tt.price, tt.cycle)), 1e-9)
		})
	}
}

func TestYearlyCost(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		cycle models.BillingCycle
		want  float64
	}{
		{"monthly times 12", 12, models.CycleMonthly, 144},
		{"yearly unchanged", 96, models.CycleYearly, 96},
		{"quarterly times four", 30, models.CycleQuarterly, 120},
		{"weekly times 52", 5, models.CycleWeekly, 260},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, YearlyCost(sub(tt.price, tt.cycle)), 1e-9)
		})
	}
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil)

	assert.Zero(t, sum.TotalMonthly)
	assert.Zero(t, sum.TotalYearly)
	assert.Zero(t, sum.ActiveCount)
	assert.Empty(t, sum.ByCategory)
}

func TestSummarize_MixedCycles(t *testing.T) {
	subs := []models.Subscription{
		sub(12, models.CycleMonthly),
		sub(96, models.CycleYearly),
	}

	sum := Summarize(subs)

	assert.InDelta(t, 20, sum.TotalMonthly, 1e-9) // 12 + 96/12
	assert.InDelta(t, 240, sum.TotalYearly, 1e-9) // 12*12 + 96
	assert.Equal(t, 2, sum.ActiveCount)
}

func TestSummarize_CategoryGrouping(t *testing.T) {
	streaming := models.Subscription{Price: 15.99, BillingCycle: models.CycleMonthly, Category: "streaming"}
	music := models.Subscription{Price: 9.99, BillingCycle: models.CycleMonthly, Category: "music"}
	more := models.Subscription{Price: 7.99, BillingCycle: models.CycleYearly, Category: "streaming"}
	uncategorized := models.Subscription{Price: 3, BillingCycle: models.CycleMonthly}

	sum := Summarize([]models.Subscription{streaming, music, more, uncategorized})

	// raw prices, not normalized ones, are what group by category
	assert.InDelta(t, 23.98, sum.ByCategory["streaming"], 1e-9)
	assert.InDelta(t, 9.99, sum.ByCategory["music"], 1e-9)
	assert.InDelta(t, 3, sum.ByCategory["other"], 1e-9)
}
