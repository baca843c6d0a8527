package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"subtrack/internal/auth"
	"subtrack/internal/config"
	"subtrack/internal/identity"
	"subtrack/internal/models"
)

type fakeSigVerifier struct {
	err error
}

func (f *fakeSigVerifier) Verify([]byte, http.Header) error {
	return f.err
}

type fakeUserWriter struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserWriter() *fakeUserWriter {
	return &fakeUserWriter{users: make(map[string]*models.User)}
}

func (f *fakeUserWriter) Upsert(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ClerkID] = u
	return nil
}

func (f *fakeUserWriter) DeleteByClerkID(_ context.Context, clerkID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, clerkID)
	return nil
}

func newWebhookServer(t *testing.T, sig identity.SignatureVerifier) (*Server, *fakeUserWriter) {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	writer := newFakeUserWriter()
	srv := NewServer(log, config.Config{CORSOrigins: []string{"*"}}, Options{
		Users:           &fakeUsers{byClerkID: map[string]*models.User{}},
		Subscriptions:   &fakeSubs{},
		Recommendations: &fakeEngine{},
		Auth:            auth.StaticVerifier{},
		Signature:       sig,
		Syncer:          identity.NewSyncer(log, writer, nil),
	})
	return srv, writer
}

func postWebhook(srv *Server, body string, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/api/v1/webhooks/identity", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func svixHeaders() map[string]string {
	return map[string]string{
		"svix-id":        "msg_test",
		"svix-timestamp": "1700000000",
		"svix-signature": "v1,dGVzdA==",
	}
}

const createdEvent = `{
	"type": "user.created",
	"data": {
		"id": "user_abc",
		"email_addresses": [{"id": "idn_1", "email_address": "a@x.com"}],
		"primary_email_address_id": "idn_1",
		"first_name": "Ada"
	}
}`

func TestWebhook_SecretNotConfigured(t *testing.T) {
	srv, writer := newWebhookServer(t, nil)

	w := postWebhook(srv, createdEvent, svixHeaders())
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 when secret unset, got %d", w.Code)
	}
	if len(writer.users) != 0 {
		t.Errorf("no user may be written without verification, got %d", len(writer.users))
	}
}

func TestWebhook_MissingHeaders(t *testing.T) {
	srv, writer := newWebhookServer(t, &fakeSigVerifier{})

	for _, drop := range []string{"svix-id", "svix-timestamp", "svix-signature"} {
		h := svixHeaders()
		delete(h, drop)
		w := postWebhook(srv, createdEvent, h)
		if w.Code != http.StatusBadRequest {
			t.Errorf("dropping %s: expected 400, got %d", drop, w.Code)
		}
	}
	if len(writer.users) != 0 {
		t.Errorf("unverified events must not mutate state, got %d users", len(writer.users))
	}
}

func TestWebhook_InvalidSignature(t *testing.T) {
	srv, writer := newWebhookServer(t, &fakeSigVerifier{err: errors.New("signature mismatch")})

	w := postWebhook(srv, createdEvent, svixHeaders())
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad signature, got %d", w.Code)
	}
	if len(writer.users) != 0 {
		t.Errorf("unverified events must not mutate state, got %d users", len(writer.users))
	}
}

func TestWebhook_CreatedThenDeleted(t *testing.T) {
	srv, writer := newWebhookServer(t, &fakeSigVerifier{})

	w := postWebhook(srv, createdEvent, svixHeaders())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	u, ok := writer.users["user_abc"]
	if !ok {
		t.Fatal("expected user_abc upserted")
	}
	if u.Email != "a@x.com" {
		t.Errorf("expected primary email a@x.com, got %s", u.Email)
	}

	deleted := `{"type": "user.deleted", "data": {"id": "user_abc"}}`
	w = postWebhook(srv, deleted, svixHeaders())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for delete, got %d", w.Code)
	}
	if _, ok := writer.users["user_abc"]; ok {
		t.Error("expected user_abc removed")
	}

	// deletes are idempotent under redelivery
	w = postWebhook(srv, deleted, svixHeaders())
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for repeated delete, got %d", w.Code)
	}
}

func TestWebhook_MissingEmailRejected(t *testing.T) {
	srv, writer := newWebhookServer(t, &fakeSigVerifier{})

	noEmail := `{"type": "user.created", "data": {"id": "user_abc", "email_addresses": []}}`
	w := postWebhook(srv, noEmail, svixHeaders())
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for event without email, got %d", w.Code)
	}
	if len(writer.users) != 0 {
		t.Errorf("rejected event must not write, got %d users", len(writer.users))
	}
}

func TestWebhook_MalformedPayload(t *testing.T) {
	srv, _ := newWebhookServer(t, &fakeSigVerifier{})

	for _, body := range []string{"not json", `{"data": {}}`} {
		w := postWebhook(srv, body, svixHeaders())
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestWebhook_UnknownEventTypeAccepted(t *testing.T) {
	srv, writer := newWebhookServer(t, &fakeSigVerifier{})

	w := postWebhook(srv, `{"type": "session.created", "data": {}}`, svixHeaders())
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for unhandled type, got %d", w.Code)
	}
	if len(writer.users) != 0 {
		t.Errorf("unhandled types must not write, got %d users", len(writer.users))
	}
}
