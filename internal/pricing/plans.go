// Package pricing holds the static plan catalog served on the marketing
// pricing page. Checkout itself happens elsewhere; only the Stripe price
// ids are referenced here.
package pricing

type Plan struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Price            float64  `json:"price"`
	Currency         string   `json:"currency"`
	BillingCycle     string   `json:"billing_cycle"`
	Features         []string `json:"features"`
	MaxSubscriptions int      `json:"max_subscriptions"` // -1 means unlimited
	MaxTeamMembers   int      `json:"max_team_members,omitempty"`
	AIFeatures       bool     `json:"ai_features"`
	ExportFeatures   bool     `json:"export_features"`
	StripePriceID    string   `json:"stripe_price_id"`
}

var plans = []Plan{
	{
		ID:           "starter",
		Name:         "starter",
		Price:        2.99,
		Currency:     "USD",
		BillingCycle: "monthly",
		Features: []string{
			"Up to 10 subscriptions",
			"Basic analytics dashboard",
			"Email price alerts",
			"Mobile app access",
			"CSV export",
			"Email support",
		},
		MaxSubscriptions: 10,
		StripePriceID:    "price_starter_monthly",
	},
	{
		ID:           "pro",
		Name:         "pro",
		Price:        5.99,
		Currency:     "USD",
		BillingCycle: "monthly",
		Features: []string{
			"Unlimited subscriptions",
			"AI-powered recommendations",
			"Advanced analytics",
			"Custom reports",
			"PDF export",
			"Priority email support",
			"Usage tracking",
			"Price history",
		},
		MaxSubscriptions: -1,
		AIFeatures:       true,
		ExportFeatures:   true,
		StripePriceID:    "price_pro_monthly",
	},
	{
		ID:           "team",
		Name:         "team",
		Price:        19.99,
		Currency:     "USD",
		BillingCycle: "monthly",
		Features: []string{
			"Everything in Pro",
			"Up to 5 team members",
			"Team dashboard",
			"Role-based access",
			"Shared subscriptions",
			"Team analytics",
			"Member tagging",
			"Team reports",
		},
		MaxSubscriptions: -1,
		MaxTeamMembers:   5,
		AIFeatures:       true,
		ExportFeatures:   true,
		StripePriceID:    "price_team_monthly",
	},
	{
		ID:           "business",
		Name:         "business",
		Price:        49.99,
		Currency:     "USD",
		BillingCycle: "monthly",
		Features: []string{
			"Everything in Team",
			"Up to 15 team members",
			"API access",
			"Advanced exports",
			"Custom integrations",
			"Priority phone support",
			"Dedicated account manager",
			"White-label options",
		},
		MaxSubscriptions: -1,
		MaxTeamMembers:   15,
		AIFeatures:       true,
		ExportFeatures:   true,
		StripePriceID:    "price_business_monthly",
	},
}

// Plans returns the catalog. Callers must not mutate the returned slice.
func Plans() []Plan {
	return plans
}
