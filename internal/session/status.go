package session

import (
	"context"

	"github.com/dmitrijs2005/shortener/internal/server/models"
	"github.com/dmitrijs2005/shortener/internal/token"
)

// Status is the outcome of authenticating one request.
type Status int

const (
	StatusNoCookie Status = iota
	StatusMalformedCookie
	StatusInvalidToken
	StatusExpiredToken
	StatusRejected
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusNoCookie:
		return "no_cookie"
	case StatusMalformedCookie:
		return "malformed_cookie"
	case StatusInvalidToken:
		return "invalid_token"
	case StatusExpiredToken:
		return "expired_token"
	case StatusRejected:
		return "rejected"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Result describes an authenticated (or not) request. User is set only for
// StatusAuthenticated; Payload is set once the signature has been verified.
// Err holds the cause of any other status and is meant for logs, not for
// clients.
type Result struct {
	Status  Status
	User    *models.User
	Payload token.Payload
	Err     error
}

// Authenticated reports whether r carries a resolved user.
func (r Result) Authenticated() bool {
	return r.Status == StatusAuthenticated && r.User != nil
}

type resultKey struct{}

// NewContext returns a copy of ctx carrying r.
func NewContext(ctx context.Context, r Result) context.Context {
	return context.WithValue(ctx, resultKey{}, r)
}

// FromContext returns the Result stored by NewContext.
func FromContext(ctx context.Context) (Result, bool) {
	r, ok := ctx.Value(resultKey{}).(Result)
	return r, ok
}

// UserFromContext returns the authenticated user stored in ctx, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	r, ok := FromContext(ctx)
	if !ok || !r.Authenticated() {
		return nil, false
	}
	return r.User, true
}
