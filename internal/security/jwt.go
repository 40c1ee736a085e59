package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures HMAC-signed bearer token validation.
type JWTConfig struct {
	// Secret is the HMAC signing key. Required.
	Secret []byte

	// Issuer is the expected iss claim. If empty, issuer is not validated.
	Issuer string

	// Audience is the expected aud claim. If empty, audience is not validated.
	Audience string

	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration
}

// Claims is the token payload: registered claims plus roles and a few
// profile attributes.
type Claims struct {
	Roles             []string `json:"roles,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Email             string   `json:"email,omitempty"`
	jwtlib.RegisteredClaims
}

// JWTAuthenticator validates HS256/384/512 bearer tokens.
type JWTAuthenticator struct {
	config JWTConfig
	parser *jwtlib.Parser
}

// NewJWTAuthenticator returns an authenticator for tokens signed with cfg.Secret.
func NewJWTAuthenticator(cfg JWTConfig) (*JWTAuthenticator, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt: secret is required")
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwtlib.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(cfg.Audience))
	}

	return &JWTAuthenticator{config: cfg, parser: jwtlib.NewParser(opts...)}, nil
}

// Authenticate decides on the bearer token of r.
//
// Decision outcomes:
//   - Abstain: no bearer token, or the token is not shaped like a JWT
//     (leaving it to later authenticators such as API keys)
//   - No: a JWT that fails signature, expiry, issuer or subject checks
//   - Yes: a valid JWT; roles come from the "roles" claim
func (a *JWTAuthenticator) Authenticate(_ context.Context, r *http.Request) Result {
	token, ok := BearerToken(r)
	if !ok || strings.Count(token, ".") != 2 {
		return Result{Decision: Abstain}
	}

	claims := &Claims{}
	_, err := a.parser.ParseWithClaims(token, claims, func(*jwtlib.Token) (interface{}, error) {
		return a.config.Secret, nil
	})
	if err != nil {
		slog.Debug("JWT validation failed", "error", err)
		return Result{Decision: No, Err: fmt.Errorf("%w: %w", ErrInvalidToken, err)}
	}
	if claims.Subject == "" {
		return Result{Decision: No, Err: fmt.Errorf("%w: missing sub claim", ErrInvalidToken)}
	}

	attrs := map[string]string{AttrUsername: claims.Subject}
	if claims.PreferredUsername != "" {
		attrs[AttrUsername] = claims.PreferredUsername
	}
	if claims.Email != "" {
		attrs[AttrEmail] = claims.Email
	}

	return Result{
		Decision: Yes,
		User: &User{
			Subject:    claims.Subject,
			Roles:      NewRoles(claims.Roles...),
			Attributes: attrs,
		},
	}
}

// Issue signs a token for u valid for ttl. It is used by tooling and tests
// to mint credentials for the same secret the server validates against.
func (a *JWTAuthenticator) Issue(u *User, ttl time.Duration) (string, error) {
	if !u.IsAuthenticated() {
		return "", ErrUnauthenticated
	}
	now := time.Now()
	claims := Claims{
		Roles: u.Roles.Names(),
		Email: u.Email(),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   u.Subject,
			Issuer:    a.config.Issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	if a.config.Audience != "" {
		claims.Audience = jwtlib.ClaimStrings{a.config.Audience}
	}
	if name := u.Username(); name != "" && name != u.Subject {
		claims.PreferredUsername = name
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.config.Secret)
}
