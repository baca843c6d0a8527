package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"subtrack/internal/db"
	"subtrack/internal/models"
)

// SubscriptionStore handles database operations for subscription records.
type SubscriptionStore struct {
	db *db.DB
}

func NewSubscriptionStore(dbConn *db.DB) *SubscriptionStore {
	return &SubscriptionStore{db: dbConn}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			user_id, name, description, category, provider, url,
			price, currency, billing_cycle, status, next_billing_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING id, created_at, updated_at`

	return s.db.Pool.QueryRow(
		ctx, query,
		sub.UserID,
		sub.Name,
		sub.Description,
		sub.Category,
		sub.Provider,
		sub.URL,
		sub.Price,
		sub.Currency,
		sub.BillingCycle,
		sub.Status,
		sub.NextBillingDate,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

func (s *SubscriptionStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Subscription, error) {
	sub := &models.Subscription{}
	query := `
		SELECT id, user_id, name, description, category, provider, url,
			price, currency, billing_cycle, status, next_billing_date,
			created_at, updated_at
		FROM subscriptions
		WHERE id = $1 AND user_id = $2`

	err := s.db.Pool.QueryRow(ctx, query, id, userID).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Name,
		&sub.Description,
		&sub.Category,
		&sub.Provider,
		&sub.URL,
		&sub.Price,
		&sub.Currency,
		&sub.BillingCycle,
		&sub.Status,
		&sub.NextBillingDate,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListByUser returns every subscription the user owns, newest first, with
// usage rows folded in as a json aggregate so the whole listing is one
// round trip.
func (s *SubscriptionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT
			s.id, s.user_id, s.name, s.description, s.category, s.provider, s.url,
			s.price, s.currency, s.billing_cycle, s.status, s.next_billing_date,
			s.created_at, s.updated_at,
			COALESCE(
				(SELECT json_agg(
					json_build_object(
						'date', ud.date,
						'usage_count', ud.usage_count,
						'usage_duration', ud.usage_duration,
						'cost', ud.cost
					) ORDER BY ud.date DESC
				) FROM usage_data ud
				WHERE ud.subscription_id = s.id
				), '[]'::json
			) AS usage_data
		FROM subscriptions s
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Subscription, 0, 16)
	for rows.Next() {
		var sub models.Subscription
		var usageJSON []byte
		if err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.Name,
			&sub.Description,
			&sub.Category,
			&sub.Provider,
			&sub.URL,
			&sub.Price,
			&sub.Currency,
			&sub.BillingCycle,
			&sub.Status,
			&sub.NextBillingDate,
			&sub.CreatedAt,
			&sub.UpdatedAt,
			&usageJSON,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(usageJSON, &sub.UsageData); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}

	return out, rows.Err()
}

// ListActiveByUser returns only rows with status 'active'; these are the
// inputs to spend aggregation.
func (s *SubscriptionStore) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, user_id, name, description, category, provider, url,
			price, currency, billing_cycle, status, next_billing_date,
			created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Subscription, 0, 16)
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.Name,
			&sub.Description,
			&sub.Category,
			&sub.Provider,
			&sub.URL,
			&sub.Price,
			&sub.Currency,
			&sub.BillingCycle,
			&sub.Status,
			&sub.NextBillingDate,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}

	return out, rows.Err()
}

func (s *SubscriptionStore) Update(ctx context.Context, sub *models.Subscription) error {
	query := `
		UPDATE subscriptions SET
			name = $3,
			description = $4,
			category = $5,
			provider = $6,
			url = $7,
			price = $8,
			currency = $9,
			billing_cycle = $10,
			status = $11,
			next_billing_date = $12,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := s.db.Pool.QueryRow(
		ctx, query,
		sub.ID,
		sub.UserID,
		sub.Name,
		sub.Description,
		sub.Category,
		sub.Provider,
		sub.URL,
		sub.Price,
		sub.Currency,
		sub.BillingCycle,
		sub.Status,
		sub.NextBillingDate,
	).Scan(&sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *SubscriptionStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
