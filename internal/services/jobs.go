package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/Lllllllleong/jobgrid/internal/store"
	"github.com/Lllllllleong/jobgrid/internal/upload"
)

// QRCodeEndpoint renders the share payload as a PNG QR code.
const QRCodeEndpoint = "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data="

// Jobs holds the dependencies for posting, browsing and editing jobs.
type Jobs struct {
	jobs     store.Jobs
	profiles store.Profiles
	images   *upload.Resolver
}

// NewJobs creates a new Jobs service.
func NewJobs(jobs store.Jobs, profiles store.Profiles, images *upload.Resolver) *Jobs {
	return &Jobs{jobs: jobs, profiles: profiles, images: images}
}

// Create validates and stores a new posting owned by companyID.
func (s *Jobs) Create(ctx context.Context, companyID string, in models.JobInput) (*models.Job, error) {
	logCtx := slog.With("companyId", companyID)

	if companyID == "" {
		return nil, fmt.Errorf("%w: company id is required", ErrValidation)
	}
	if err := requireFields(map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"location":    in.Location,
	}); err != nil {
		return nil, err
	}

	logo, err := s.images.ResolveURI(ctx, strings.TrimSpace(in.Logo))
	if err != nil {
		logCtx.Error("Failed to upload job logo.", "error", err)
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}
	image, err := s.images.ResolveURI(ctx, strings.TrimSpace(in.Image))
	if err != nil {
		logCtx.Error("Failed to upload job image.", "error", err)
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	job := models.Job{
		CompanyID:   companyID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Salary:      strings.TrimSpace(in.Salary),
		Logo:        logo,
		Image:       image,
	}
	id, err := s.jobs.CreateJob(ctx, job)
	if err != nil {
		logCtx.Error("Failed to create job.", "error", err)
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	logCtx.Info("Job posted.", "jobId", id)
	return s.jobs.GetJob(ctx, id)
}

func (s *Jobs) Get(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

// List returns the jobs matching filter. Query matches title or location,
// ignoring case.
func (s *Jobs) List(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	var (
		jobs []models.Job
		err  error
	)
	if filter.CompanyID != "" {
		jobs, err = s.jobs.ListJobsByCompany(ctx, filter.CompanyID)
	} else {
		jobs, err = s.jobs.ListJobs(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	if q == "" {
		return jobs, nil
	}
	out := jobs[:0]
	for _, j := range jobs {
		if strings.Contains(strings.ToLower(j.Title), q) || strings.Contains(strings.ToLower(j.Location), q) {
			out = append(out, j)
		}
	}
	return out, nil
}

// ListWithCompany is List with each job's company name and logo attached.
func (s *Jobs) ListWithCompany(ctx context.Context, filter models.JobFilter) ([]models.JobView, error) {
	jobs, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	cache := map[string]*models.Profile{}
	views := make([]models.JobView, 0, len(jobs))
	for _, j := range jobs {
		v, err := s.enrich(ctx, j, cache)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// GetWithCompany is Get with the company name and logo attached.
func (s *Jobs) GetWithCompany(ctx context.Context, id string) (*models.JobView, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := s.enrich(ctx, *job, map[string]*models.Profile{})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Jobs) enrich(ctx context.Context, j models.Job, cache map[string]*models.Profile) (models.JobView, error) {
	v := models.JobView{Job: j}
	p, seen := cache[j.CompanyID]
	if !seen {
		var err error
		p, err = s.profiles.GetProfile(ctx, j.CompanyID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			p = nil
		case err != nil:
			return v, fmt.Errorf("failed to load company %s: %w", j.CompanyID, err)
		}
		cache[j.CompanyID] = p
	}
	if p != nil {
		v.CompanyName = p.CompanyName
		v.CompanyLogo = p.Logo
	}
	return v, nil
}

// Update applies patch to a job owned by companyID.
func (s *Jobs) Update(ctx context.Context, companyID, id string, patch models.JobPatch) (*models.Job, error) {
	logCtx := slog.With("companyId", companyID, "jobId", id)

	job, err := s.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	present := map[string]string{}
	for field, v := range map[string]*string{
		"title":       patch.Title,
		"description": patch.Description,
		"location":    patch.Location,
	} {
		if v != nil {
			present[field] = *v
		}
	}
	if err := requireFields(present); err != nil {
		return nil, err
	}
	for _, p := range []*string{patch.Title, patch.Description, patch.Location, patch.Salary} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}

	for _, p := range []*string{patch.Logo, patch.Image} {
		if p == nil {
			continue
		}
		hosted, err := s.images.ResolveURI(ctx, strings.TrimSpace(*p))
		if err != nil {
			logCtx.Error("Failed to upload job image.", "error", err)
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		*p = hosted
	}

	if patch.Empty() {
		return job, nil
	}
	if err := s.jobs.UpdateJob(ctx, id, patch); err != nil {
		logCtx.Error("Failed to update job.", "error", err)
		return nil, fmt.Errorf("failed to update job %s: %w", id, err)
	}
	logCtx.Info("Job updated.")
	return s.jobs.GetJob(ctx, id)
}

// Delete removes a job owned by companyID.
func (s *Jobs) Delete(ctx context.Context, companyID, id string) error {
	if _, err := s.owned(ctx, companyID, id); err != nil {
		return err
	}
	if err := s.jobs.DeleteJob(ctx, id); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	slog.Info("Job deleted.", "companyId", companyID, "jobId", id)
	return nil
}

// ShareLink builds the QR code image URL for a job.
func (s *Jobs) ShareLink(ctx context.Context, id string) (*models.ShareLink, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(map[string]string{
		"id":        job.ID,
		"title":     job.Title,
		"companyId": job.CompanyID,
		"location":  job.Location,
		"salary":    job.Salary,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode share payload: %w", err)
	}
	return &models.ShareLink{
		JobID:      job.ID,
		QRImageURL: QRCodeEndpoint + url.QueryEscape(string(payload)),
		Payload:    string(payload),
	}, nil
}

func (s *Jobs) owned(ctx context.Context, companyID, id string) (*models.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if companyID == "" || job.CompanyID != companyID {
		slog.Warn("Rejected change to a job owned by another company.", "companyId", companyID, "jobId", id, "owner", job.CompanyID)
		return nil, fmt.Errorf("job %s: %w", id, ErrForbidden)
	}
	return job, nil
}

// requireFields rejects blank values, naming the fields in a stable order.
func requireFields(fields map[string]string) error {
	var missing []string
	for _, name := range []string{"email", "password", "companyName", "title", "description", "location"} {
		if v, ok := fields[name]; ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
