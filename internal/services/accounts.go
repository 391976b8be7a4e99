package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/jobgrid/internal/auth"
	"github.com/Lllllllleong/jobgrid/internal/models"
)

// Accounts ties the auth provider to profile creation.
type Accounts struct {
	auth     auth.Provider
	profiles *Profiles
}

func NewAccounts(provider auth.Provider, profiles *Profiles) *Accounts {
	return &Accounts{auth: provider, profiles: profiles}
}

// Register creates the auth user and then the company profile.
func (s *Accounts) Register(ctx context.Context, req models.RegisterRequest) (*models.Session, *models.Profile, error) {
	email := strings.TrimSpace(req.Email)
	if err := requireFields(map[string]string{
		"email":       email,
		"password":    req.Password,
		"companyName": req.CompanyName,
	}); err != nil {
		return nil, nil, err
	}

	session, err := s.auth.Register(ctx, email, req.Password)
	if err != nil {
		slog.Error("Registration failed.", "error", err)
		return nil, nil, fmt.Errorf("failed to register: %w", err)
	}
	if session.Email == "" {
		session.Email = email
	}

	profile, err := s.profiles.Create(ctx, models.Profile{
		UID:         session.UID,
		Email:       session.Email,
		CompanyName: strings.TrimSpace(req.CompanyName),
		Logo:        strings.TrimSpace(req.Logo),
		Location:    strings.TrimSpace(req.Location),
		Gallery:     []string{},
	})
	if err != nil {
		return nil, nil, err
	}
	return session, profile, nil
}

func (s *Accounts) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	email := strings.TrimSpace(req.Email)
	if err := requireFields(map[string]string{"email": email, "password": req.Password}); err != nil {
		return nil, err
	}
	session, err := s.auth.SignIn(ctx, email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return session, nil
}

func (s *Accounts) Logout(ctx context.Context, idToken string) error {
	return s.auth.SignOut(ctx, idToken)
}

// DeleteAccount only signs the user out; accounts are not removed.
func (s *Accounts) DeleteAccount(ctx context.Context, idToken string) error {
	slog.Warn("Account deletion requested; signing out instead.")
	return s.auth.SignOut(ctx, idToken)
}
