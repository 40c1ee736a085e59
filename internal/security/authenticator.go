package security

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Decision is the vote of a single Authenticator.
type Decision int

const (
	// Abstain means the authenticator does not handle these credentials.
	// The chain continues to the next authenticator.
	Abstain Decision = iota

	// Yes means the credentials are valid. The chain stops.
	Yes

	// No means credentials are present but invalid. The chain stops.
	No
)

func (d Decision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "abstain"
	}
}

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidToken    = errors.New("invalid bearer token")
)

// Result carries the outcome of an authentication attempt.
type Result struct {
	Decision Decision
	User     *User // populated only when Decision == Yes
	Err      error // populated only when Decision == No
}

// Authenticator examines request credentials and returns a vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, r *http.Request) Result

func (f AuthenticatorFunc) Authenticate(ctx context.Context, r *http.Request) Result {
	return f(ctx, r)
}

// Chain evaluates authenticators in order. The first Yes or No wins; if
// every member abstains the chain abstains too.
type Chain []Authenticator

func (c Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, a := range c {
		if a == nil {
			continue
		}
		res := a.Authenticate(ctx, r)
		if res.Decision != Abstain {
			return res
		}
	}
	return Result{Decision: Abstain}
}

// Resolve runs a and returns the authenticated principal, or Anonymous for
// any outcome other than Yes. A nil authenticator always yields Anonymous.
func Resolve(ctx context.Context, a Authenticator, r *http.Request) (*User, Result) {
	if a == nil {
		return Anonymous(), Result{Decision: Abstain}
	}
	res := a.Authenticate(ctx, r)
	if res.Decision == Yes && res.User.IsAuthenticated() {
		return res.User, res
	}
	return Anonymous(), res
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme name is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}
