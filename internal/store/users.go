package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"subtrack/internal/db"
	"subtrack/internal/models"
)

// UserStore handles database operations for identity records.
type UserStore struct {
	db *db.DB
}

func NewUserStore(dbConn *db.DB) *UserStore {
	return &UserStore{db: dbConn}
}

// Upsert inserts the user or overwrites the synchronized fields when a row
// for the same clerk_id already exists. Applying the same event twice leaves
// a single identical row, which is what makes webhook delivery safe under
// at-least-once semantics.
func (s *UserStore) Upsert(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (clerk_id, email, first_name, last_name, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (clerk_id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return s.db.Pool.QueryRow(
		ctx, query,
		u.ClerkID,
		u.Email,
		u.FirstName,
		u.LastName,
		u.AvatarURL,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// DeleteByClerkID removes the user row. Deleting an id that was never
// synced is not an error; the delete event may arrive more than once.
func (s *UserStore) DeleteByClerkID(ctx context.Context, clerkID string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	return err
}

func (s *UserStore) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	u := &models.User{}
	query := `
		SELECT id, clerk_id, email, first_name, last_name, avatar_url, created_at, updated_at
		FROM users
		WHERE clerk_id = $1`

	err := s.db.Pool.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// SetAvatarURL rewrites the avatar URL once the mirror has a copy of the
// image in our own bucket. The row may have been deleted in the meantime;
// that is fine, affecting zero rows is not an error here.
func (s *UserStore) SetAvatarURL(ctx context.Context, clerkID, url string) error {
	_, err := s.db.Pool.Exec(ctx,
		`UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE clerk_id = $1`,
		clerkID, url,
	)
	return err
}
