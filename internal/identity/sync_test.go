package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/models"
)

type fakeUserWriter struct {
	users map[string]models.User
}

func newFakeUserWriter() *fakeUserWriter {
	return &fakeUserWriter{users: make(map[string]models.User)}
}

func (f *fakeUserWriter) Upsert(_ context.Context, u *models.User) error {
	f.users[u.ClerkID] = *u
	return nil
}

func (f *fakeUserWriter) DeleteByClerkID(_ context.Context, clerkID string) error {
	delete(f.users, clerkID)
	return nil
}

func event(t *testing.T, typ string, data map[string]any) Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Event{Type: typ, Data: raw}
}

func createdEvent(t *testing.T, id, email string) Event {
	return event(t, EventUserCreated, map[string]any{
		"id": id,
		"email_addresses": []map[string]any{
			{"id": "em_1", "email_address": email},
		},
		"primary_email_address_id": "em_1",
	})
}

func testSyncer(users UserWriter) *Syncer {
	return NewSyncer(slog.New(slog.DiscardHandler), users, nil)
}

func TestApply_CreatedUpsertsUser(t *testing.T) {
	users := newFakeUserWriter()
	s := testSyncer(users)

	err := s.Apply(context.Background(), createdEvent(t, "u1", "a@x.com"))
	require.NoError(t, err)

	u, ok := users.users["u1"]
	require.True(t, ok)
	assert.Equal(t, "a@x.com", u.Email)
}

func TestApply_CreatedTwiceIsIdempotent(t *testing.T) {
	users := newFakeUserWriter()
	s := testSyncer(users)

	ev := createdEvent(t, "u1", "a@x.com")
	require.NoError(t, s.Apply(context.Background(), ev))
	first := users.users["u1"]

	require.NoError(t, s.Apply(context.Background(), ev))

	assert.Len(t, users.users, 1)
	assert.Equal(t, first, users.users["u1"])
}

func TestApply_UpdateAfterCreateWins(t *testing.T) {
	users := newFakeUserWriter()
	s := testSyncer(users)

	require.NoError(t, s.Apply(context.Background(), createdEvent(t, "u1", "a@x.com")))

	update := event(t, EventUserUpdated, map[string]any{
		"id": "u1",
		"email_addresses": []map[string]any{
			{"id": "em_2", "email_address": "b@x.com"},
		},
		"primary_email_address_id": "em_2",
	})
	require.NoError(t, s.Apply(context.Background(), update))

	assert.Equal(t, "b@x.com", users.users["u1"].Email)
}

func TestApply_CreatedWithoutEmailFails(t *testing.T) {
	users := newFakeUserWriter()
	s := testSyncer(users)

	ev := event(t, EventUserCreated, map[string]any{"id": "u1"})
	err := s.Apply(context.Background(), ev)

	assert.ErrorIs(t, err, ErrMissingEmail)
	assert.Empty(t, users.users)
}

func TestApply_DeleteMissingUserSucceeds(t *testing.T) {
	users := newFakeUserWriter()
	s := testSyncer(users)

	ev := event(t, EventUserDeleted, map[string]any{"id": "never-seen"})

	assert.NoError(t, s.Apply(context.Background(), ev))
}

func TestApply_UnknownTypeIsNoOp(t *testing.T) {
	users := newFakeUserWriter()
	s := testSyncer(users)

	ev := event(t, "session.created", map[string]any{"id": "sess_1"})

	assert.NoError(t, s.Apply(context.Background(), ev))
	assert.Empty(t, users.users)
}

func TestPrimaryEmail_PrefersMarkedPrimary(t *testing.T) {
	u := UserData{
		EmailAddresses: []EmailAddress{
			{ID: "em_1", EmailAddress: "old@x.com"},
			{ID: "em_2", EmailAddress: "new@x.com"},
		},
		PrimaryEmailAddressID: "em_2",
	}

	assert.Equal(t, "new@x.com", u.PrimaryEmail())
}

func TestPrimaryEmail_FallsBackToFirst(t *testing.T) {
	u := UserData{
		EmailAddresses: []EmailAddress{
			{ID: "em_1", EmailAddress: "only@x.com"},
		},
		PrimaryEmailAddressID: "em_gone",
	}

	assert.Equal(t, "only@x.com", u.PrimaryEmail())
}

func TestParseEvent_RejectsUntypedPayload(t *testing.T) {
	_, err := ParseEvent([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}
