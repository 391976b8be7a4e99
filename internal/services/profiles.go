package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/Lllllllleong/jobgrid/internal/store"
	"github.com/Lllllllleong/jobgrid/internal/upload"
)

// Profiles holds the dependencies for company profile reads and writes.
type Profiles struct {
	profiles store.Profiles
	jobs     store.Jobs
	images   *upload.Resolver
	now      func() time.Time
}

// NewProfiles creates a new Profiles service.
func NewProfiles(profiles store.Profiles, jobs store.Jobs, images *upload.Resolver) *Profiles {
	return &Profiles{
		profiles: profiles,
		jobs:     jobs,
		images:   images,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Profiles) timestamp() string {
	return s.now().Format(time.RFC3339Nano)
}

// Create uploads any local images and writes the whole profile.
func (s *Profiles) Create(ctx context.Context, p models.Profile) (*models.Profile, error) {
	logCtx := slog.With("uid", p.UID)
	if p.UID == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrValidation)
	}

	logo, err := s.images.ResolveURI(ctx, p.Logo)
	if err != nil {
		logCtx.Error("Failed to upload logo.", "error", err)
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}
	gallery, err := s.images.ResolveAll(ctx, p.Gallery)
	if err != nil {
		logCtx.Error("Failed to upload gallery.", "error", err)
		return nil, fmt.Errorf("failed to upload gallery: %w", err)
	}
	p.Logo = logo
	p.Gallery = gallery
	if p.CreatedAt == "" {
		p.CreatedAt = s.timestamp()
	}

	if err := s.profiles.SetProfile(ctx, p); err != nil {
		logCtx.Error("Failed to create profile.", "error", err)
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	logCtx.Info("Profile created.")
	return &p, nil
}

func (s *Profiles) Get(ctx context.Context, uid string) (*models.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", uid, err)
	}
	return p, nil
}

// Update writes the patched fields, creating the profile from defaults if
// it does not exist yet.
func (s *Profiles) Update(ctx context.Context, uid string, patch models.ProfilePatch) (*models.Profile, error) {
	logCtx := slog.With("uid", uid)
	if err := s.resolvePatch(ctx, &patch); err != nil {
		logCtx.Error("Failed to upload profile images.", "error", err)
		return nil, err
	}

	err := s.profiles.UpdateProfileFields(ctx, uid, patch.Fields())
	switch {
	case errors.Is(err, store.ErrNotFound):
		p := defaultProfile(uid, "")
		p.CreatedAt = s.timestamp()
		patch.Apply(&p)
		if err := s.profiles.SetProfile(ctx, p); err != nil {
			logCtx.Error("Failed to create profile on update.", "error", err)
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		logCtx.Info("Profile created on first update.")
	case err != nil:
		logCtx.Error("Failed to update profile.", "error", err)
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.Get(ctx, uid)
}

// Save merges the patch over a default profile. Saving the same uid twice
// overwrites the fields in place; createdAt is only set the first time.
func (s *Profiles) Save(ctx context.Context, uid, email string, patch models.ProfilePatch) (*models.Profile, error) {
	logCtx := slog.With("uid", uid)
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrValidation)
	}
	if err := s.resolvePatch(ctx, &patch); err != nil {
		logCtx.Error("Failed to upload profile images.", "error", err)
		return nil, err
	}

	p := defaultProfile(uid, email)
	patch.Apply(&p)
	fields := profileFields(p)

	_, err := s.profiles.GetProfile(ctx, uid)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fields["createdAt"] = s.timestamp()
	case err != nil:
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	if err := s.profiles.MergeProfile(ctx, uid, fields); err != nil {
		logCtx.Error("Failed to save profile.", "error", err)
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	logCtx.Info("Profile saved.")
	return s.Get(ctx, uid)
}

// ListCompanies returns every profile with the number of jobs it has posted.
func (s *Profiles) ListCompanies(ctx context.Context) ([]models.CompanySummary, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	jobs, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	counts := map[string]int{}
	for _, j := range jobs {
		counts[j.CompanyID]++
	}
	out := make([]models.CompanySummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, models.CompanySummary{Profile: p, JobCount: counts[p.UID]})
	}
	return out, nil
}

// Company returns a profile together with its postings.
func (s *Profiles) Company(ctx context.Context, uid string) (*models.CompanyDetail, error) {
	p, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobs.ListJobsByCompany(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for %s: %w", uid, err)
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return &models.CompanyDetail{Profile: *p, Jobs: jobs}, nil
}

func (s *Profiles) resolvePatch(ctx context.Context, patch *models.ProfilePatch) error {
	if patch.Logo != nil {
		logo, err := s.images.ResolveURI(ctx, strings.TrimSpace(*patch.Logo))
		if err != nil {
			return fmt.Errorf("failed to upload logo: %w", err)
		}
		patch.Logo = &logo
	}
	if patch.Gallery != nil {
		gallery, err := s.images.ResolveAll(ctx, *patch.Gallery)
		if err != nil {
			return fmt.Errorf("failed to upload gallery: %w", err)
		}
		patch.Gallery = &gallery
	}
	return nil
}

func defaultProfile(uid, email string) models.Profile {
	return models.Profile{UID: uid, Email: email, Gallery: []string{}}
}

func profileFields(p models.Profile) map[string]any {
	gallery := p.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	return map[string]any{
		"uid":         p.UID,
		"email":       p.Email,
		"companyName": p.CompanyName,
		"logo":        p.Logo,
		"location":    p.Location,
		"ceoName":     p.CEOName,
		"phone":       p.Phone,
		"description": p.Description,
		"gallery":     gallery,
	}
}
