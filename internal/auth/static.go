package auth

import "context"

// StaticVerifier maps fixed tokens to external ids. Test use only.
type StaticVerifier map[string]string

func (v StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	id, ok := v[token]
	if !ok {
		return "", ErrUnauthenticated
	}
	return id, nil
}
