// Package auth resolves the external identity of an API caller. Token
// verification itself is delegated to the provider SDK; handlers only see a
// stable external id or an error.
package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated covers every way a token can fail: missing, malformed,
// expired, or signed with an unknown key. Callers map it to 401 without
// leaking which one it was.
var ErrUnauthenticated = errors.New("unauthenticated")

type Verifier interface {
	// Verify returns the external user id carried by a valid session token.
	Verify(ctx context.Context, token string) (string, error)
}
