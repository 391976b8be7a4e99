package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"

	"github.com/Lllllllleong/jobgrid/internal/models"
)

// Identity signs users in against Identity Toolkit, the REST API behind
// Firebase email/password auth.
type Identity struct {
	svc *identitytoolkit.Service
}

func NewIdentity(svc *identitytoolkit.Service) *Identity {
	return &Identity{svc: svc}
}

func (i *Identity) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := i.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapIdentityError("sign in", err)
	}
	return &models.Session{
		UID:          resp.LocalId,
		Email:        resp.Email,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    fmt.Sprint(resp.ExpiresIn),
	}, nil
}

func (i *Identity) Register(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := i.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapIdentityError("register", err)
	}
	return &models.Session{
		UID:          resp.LocalId,
		Email:        resp.Email,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    fmt.Sprint(resp.ExpiresIn),
	}, nil
}

// SignOut checks the token belongs to a live session. ID tokens are
// stateless, so the client discarding it is what ends the session.
func (i *Identity) SignOut(ctx context.Context, idToken string) error {
	u, err := i.Verify(ctx, idToken)
	if err != nil {
		return err
	}
	slog.Info("User signed out.", "uid", u.UID)
	return nil
}

func (i *Identity) Verify(ctx context.Context, idToken string) (*User, error) {
	if idToken == "" {
		return nil, ErrUnauthenticated
	}
	resp, err := i.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: idToken,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapIdentityError("verify token", err)
	}
	if len(resp.Users) == 0 || resp.Users[0].LocalId == "" {
		return nil, ErrUnauthenticated
	}
	return &User{UID: resp.Users[0].LocalId, Email: resp.Users[0].Email}, nil
}

func mapIdentityError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
		msg := gerr.Message
		switch {
		case strings.Contains(msg, "EMAIL_EXISTS"):
			return fmt.Errorf("%s: %w", op, ErrEmailExists)
		case strings.Contains(msg, "INVALID_PASSWORD"),
			strings.Contains(msg, "EMAIL_NOT_FOUND"),
			strings.Contains(msg, "INVALID_LOGIN_CREDENTIALS"),
			strings.Contains(msg, "USER_DISABLED"):
			return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		case strings.Contains(msg, "INVALID_ID_TOKEN"),
			strings.Contains(msg, "TOKEN_EXPIRED"),
			strings.Contains(msg, "USER_NOT_FOUND"):
			return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
