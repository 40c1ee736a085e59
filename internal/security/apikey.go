package security

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// APIKey binds a static bearer key to a principal.
type APIKey struct {
	Key     string
	Subject string
	Roles   []string
}

type keyEntry struct {
	hash [32]byte
	user User
}

// APIKeyAuthenticator validates bearer tokens against a static key store.
// Keys are hashed on construction; plaintext keys are not retained.
type APIKeyAuthenticator struct {
	keys []keyEntry
}

// NewAPIKeyAuthenticator hashes the given keys. Entries with an empty key
// or subject are skipped.
func NewAPIKeyAuthenticator(keys []APIKey) *APIKeyAuthenticator {
	a := &APIKeyAuthenticator{}
	for _, k := range keys {
		if k.Key == "" || k.Subject == "" {
			continue
		}
		a.keys = append(a.keys, keyEntry{
			hash: sha256.Sum256([]byte(k.Key)),
			user: User{
				Subject:    k.Subject,
				Roles:      NewRoles(k.Roles...),
				Attributes: map[string]string{AttrUsername: k.Subject},
			},
		})
	}
	return a
}

// Authenticate abstains without a bearer token, votes Yes on a known key and
// No otherwise.
func (a *APIKeyAuthenticator) Authenticate(_ context.Context, r *http.Request) Result {
	token, ok := BearerToken(r)
	if !ok {
		return Result{Decision: Abstain}
	}
	if token == "" {
		return Result{Decision: No, Err: ErrUnauthenticated}
	}

	sum := sha256.Sum256([]byte(token))
	for _, e := range a.keys {
		if subtle.ConstantTimeCompare(sum[:], e.hash[:]) == 1 {
			u := e.user
			return Result{Decision: Yes, User: &u}
		}
	}
	return Result{Decision: No, Err: ErrUnauthenticated}
}
