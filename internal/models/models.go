package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the local identity record, synchronized from the auth provider.
// ClerkID is the provider-issued stable id; it is the only key webhook
// events carry, so all reconciliation is keyed on it.
type User struct {
	ID        uuid.UUID `json:"id"`
	ClerkID   string    `json:"clerk_id"`
	Email     string    `json:"email"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BillingCycle string

const (
	CycleWeekly    BillingCycle = "weekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

func ValidBillingCycle(c BillingCycle) bool {
	switch c {
	case CycleWeekly, CycleMonthly, CycleQuarterly, CycleYearly:
		return true
	}
	return false
}

type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusPaused    SubscriptionStatus = "paused"
)

func ValidStatus(s SubscriptionStatus) bool {
	switch s {
	case StatusActive, StatusCancelled, StatusPaused:
		return true
	}
	return false
}

type Category string

const CategoryOther Category = "other"

var categories = map[Category]bool{
	"streaming":    true,
	"productivity": true,
	"development":  true,
	"design":       true,
	"music":        true,
	"gaming":       true,
	"fitness":      true,
	"education":    true,
	"business":     true,
	CategoryOther:  true,
}

func ValidCategory(c Category) bool {
	return categories[c]
}

type Subscription struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	Name            string             `json:"name"`
	Description     *string            `json:"description,omitempty"`
	Category        Category           `json:"category"`
	Provider        *string            `json:"provider,omitempty"`
	URL             *string            `json:"url,omitempty"`
	Price           float64            `json:"price"`
	Currency        string             `json:"currency"`
	BillingCycle    BillingCycle       `json:"billing_cycle"`
	Status          SubscriptionStatus `json:"status"`
	NextBillingDate *time.Time         `json:"next_billing_date,omitempty"`
	UsageData       []UsageEntry       `json:"usage_data,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// UsageEntry rows are collected elsewhere and only read here, surfaced
// alongside each subscription in list responses.
type UsageEntry struct {
	Date          string   `json:"date"`
	UsageCount    int      `json:"usage_count"`
	UsageDuration *int     `json:"usage_duration,omitempty"`
	Cost          *float64 `json:"cost,omitempty"`
}

type AIRecommendation struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	SubscriptionID   *uuid.UUID `json:"subscription_id,omitempty"`
	Type             string     `json:"type"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Confidence       float64    `json:"confidence"`
	PotentialSavings *float64   `json:"potential_savings,omitempty"`
	IsRead           bool       `json:"is_read"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DashboardStats is the composed read model for the dashboard endpoint.
// Field names follow the JSON contract the dashboard consumes.
type DashboardStats struct {
	TotalMonthlySpending float64            `json:"totalMonthlySpending"`
	TotalYearlySpending  float64            `json:"totalYearlySpending"`
	ActiveSubscriptions  int                `json:"activeSubscriptions"`
	PotentialSavings     float64            `json:"potentialSavings"`
	AIRecommendations    int64              `json:"aiRecommendations"`
	RecentSubscriptions  []Subscription     `json:"recentSubscriptions"`
	SpendingByCategory   map[string]float64 `json:"spendingByCategory"`
}
