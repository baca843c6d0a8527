package recommend

import (
	"context"

	"github.com/google/uuid"

	"subtrack/internal/models"
	"subtrack/internal/store"
)

// savingsRate is a placeholder heuristic, not a computed figure. It stays
// until a model-backed engine replaces StubEngine.
const savingsRate = 0.15

// StubEngine serves stored recommendation rows and a flat savings estimate.
type StubEngine struct {
	recs *store.RecommendationStore
}

func NewStubEngine(recs *store.RecommendationStore) *StubEngine {
	return &StubEngine{recs: recs}
}

func (e *StubEngine) PotentialSavings(totalMonthly float64) float64 {
	return totalMonthly * savingsRate
}

func (e *StubEngine) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return e.recs.CountUnread(ctx, userID)
}

func (e *StubEngine) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.AIRecommendation, error) {
	return e.recs.ListByUser(ctx, userID)
}
