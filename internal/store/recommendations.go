package store

import (
	"context"

	"github.com/google/uuid"

	"subtrack/internal/db"
	"subtrack/internal/models"
)

// RecommendationStore reads ai_recommendations rows. Rows are written by an
// offline process; this service only counts and lists them.
type RecommendationStore struct {
	db *db.DB
}

func NewRecommendationStore(dbConn *db.DB) *RecommendationStore {
	return &RecommendationStore{db: dbConn}
}

func (s *RecommendationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ai_recommendations WHERE user_id = $1 AND is_read = false`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *RecommendationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AIRecommendation, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, user_id, subscription_id, type, title, description,
			confidence, potential_savings, is_read, created_at
		FROM ai_recommendations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 100`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.AIRecommendation, 0, 8)
	for rows.Next() {
		var rec models.AIRecommendation
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.SubscriptionID,
			&rec.Type,
			&rec.Title,
			&rec.Description,
			&rec.Confidence,
			&rec.PotentialSavings,
			&rec.IsRead,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}
