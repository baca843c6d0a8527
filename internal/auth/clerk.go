package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwks"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
)

// ClerkVerifier validates Clerk session JWTs against the instance's JSON
// web keys. Keys are cached per key id so steady-state verification does
// not call out to the JWKS endpoint.
type ClerkVerifier struct {
	jwksClient *jwks.Client

	mu   sync.RWMutex
	keys map[string]*clerk.JSONWebKey
}

func NewClerkVerifier(secretKey string) *ClerkVerifier {
	cfg := &clerk.ClientConfig{}
	cfg.Key = clerk.String(secretKey)

	return &ClerkVerifier{
		jwksClient: jwks.NewClient(cfg),
		keys:       make(map[string]*clerk.JSONWebKey),
	}
}

func (v *ClerkVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	decoded, err := jwt.Decode(ctx, &jwt.DecodeParams{Token: token})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	key := v.cachedKey(decoded.KeyID)
	if key == nil {
		key, err = jwt.GetJSONWebKey(ctx, &jwt.GetJSONWebKeyParams{
			KeyID:      decoded.KeyID,
			JWKSClient: v.jwksClient,
		})
		if err != nil {
			return "", fmt.Errorf("%w: fetch jwk: %v", ErrUnauthenticated, err)
		}
		v.storeKey(decoded.KeyID, key)
	}

	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token, JWK: key})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return claims.RegisteredClaims.Subject, nil
}

func (v *ClerkVerifier) cachedKey(kid string) *clerk.JSONWebKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.keys[kid]
}

func (v *ClerkVerifier) storeKey(kid string, key *clerk.JSONWebKey) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[kid] = key
}
