// Package auth is the email/password sign-in facade and the request-scoped
// "current user" the rest of the API reads.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Lllllllleong/jobgrid/internal/models"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
)

// User is the signed-in account as seen by handlers.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Provider is the hosted authentication service.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	Register(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, idToken string) error
	Verify(ctx context.Context, idToken string) (*User, error)
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}

// BearerToken extracts the ID token from an Authorization header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
