package apiclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenInfo is the client-side view of an access token's claims. Tokens are
// parsed without signature verification: verification is the backend's job,
// the client only needs the claims for display and staleness checks.
type TokenInfo struct {
	Subject   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    jwt.MapClaims
}

// InspectToken decodes the claims of a compact JWT without verifying it.
func InspectToken(token string) (*TokenInfo, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()

	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse access token")
	}

	info := &TokenInfo{Claims: claims}

	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if username, ok := claims["username"].(string); ok {
		info.Username = username
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}

	return info, nil
}

// Expired reports whether the token's exp claim is in the past. Tokens
// without an exp claim never report expired.
func (t *TokenInfo) Expired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt)
}

// ExpiresWithin reports whether the token expires inside the given window,
// the pre-flight check a caller can use to decide on a refresh.
func (t *TokenInfo) ExpiresWithin(window time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(window).After(t.ExpiresAt)
}
