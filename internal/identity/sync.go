package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"subtrack/internal/models"
)

// ErrMissingEmail marks a created/updated event without a primary email;
// the users table requires one, so the event is rejected rather than
// half-applied.
var ErrMissingEmail = errors.New("event has no primary email")

// UserWriter is the persistence surface the syncer needs.
type UserWriter interface {
	Upsert(ctx context.Context, u *models.User) error
	DeleteByClerkID(ctx context.Context, clerkID string) error
}

// AvatarMirror copies the provider-hosted avatar into our own bucket.
// Mirroring is strictly best effort and never blocks event handling.
type AvatarMirror interface {
	Enqueue(clerkID, sourceURL string)
}

// Syncer applies lifecycle events to the local users table. Events carry no
// sequence token, so the row always reflects the most recently processed
// event; upsert and delete are both idempotent, which is what at-least-once
// delivery requires.
type Syncer struct {
	log    *slog.Logger
	users  UserWriter
	mirror AvatarMirror // may be nil
}

func NewSyncer(log *slog.Logger, users UserWriter, mirror AvatarMirror) *Syncer {
	return &Syncer{log: log, users: users, mirror: mirror}
}

// Apply reconciles one event. Unknown event types are a successful no-op.
func (s *Syncer) Apply(ctx context.Context, ev Event) error {
	switch ev.Type {
	case EventUserCreated, EventUserUpdated:
		return s.applyUpsert(ctx, ev)
	case EventUserDeleted:
		return s.applyDelete(ctx, ev)
	default:
		s.log.Debug("identity_event_ignored", "type", ev.Type)
		return nil
	}
}

func (s *Syncer) applyUpsert(ctx context.Context, ev Event) error {
	data, err := ev.User()
	if err != nil {
		return err
	}

	email := data.PrimaryEmail()
	if email == "" {
		return fmt.Errorf("%s for %s: %w", ev.Type, data.ID, ErrMissingEmail)
	}

	u := &models.User{
		ClerkID:   data.ID,
		Email:     email,
		FirstName: data.FirstName,
		LastName:  data.LastName,
	}
	if data.ImageURL != "" {
		u.AvatarURL = &data.ImageURL
	}

	if err := s.users.Upsert(ctx, u); err != nil {
		return fmt.Errorf("upsert user %s: %w", data.ID, err)
	}

	s.log.Info("identity_user_synced", "type", ev.Type, "clerk_id", data.ID)

	if s.mirror != nil && data.ImageURL != "" {
		s.mirror.Enqueue(data.ID, data.ImageURL)
	}

	return nil
}

func (s *Syncer) applyDelete(ctx context.Context, ev Event) error {
	data, err := ev.User()
	if err != nil {
		return err
	}

	if err := s.users.DeleteByClerkID(ctx, data.ID); err != nil {
		return fmt.Errorf("delete user %s: %w", data.ID, err)
	}

	s.log.Info("identity_user_deleted", "clerk_id", data.ID)
	return nil
}
