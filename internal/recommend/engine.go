// Package recommend exposes the recommendation surface the dashboard and the
// recommendations endpoint consume. The real engine does not exist yet; the
// stub keeps the contract in place so swapping it in will not touch callers.
package recommend

import (
	"context"

	"github.com/google/uuid"

	"subtrack/internal/models"
)

type Engine interface {
	// PotentialSavings estimates how much of the monthly spend could be
	// recovered by acting on recommendations.
	PotentialSavings(totalMonthly float64) float64

	// UnreadCount returns how many recommendations the user has not seen.
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)

	// ListForUser returns the user's recommendations, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.AIRecommendation, error)
}
