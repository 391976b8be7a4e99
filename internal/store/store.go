// Package store is the document-store layer behind JobGrid: a `users`
// collection of company profiles and a `jobs` collection of postings.
//
// Firestore is the production backend; SQLite keeps the same document
// semantics for local runs and tests.
package store

import (
	"context"
	"errors"

	"github.com/Lllllllleong/jobgrid/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Jobs is the data-access contract for the jobs collection.
type Jobs interface {
	CreateJob(ctx context.Context, job models.Job) (string, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context) ([]models.Job, error)
	ListJobsByCompany(ctx context.Context, companyID string) ([]models.Job, error)
	UpdateJob(ctx context.Context, id string, patch models.JobPatch) error
	DeleteJob(ctx context.Context, id string) error
	DeleteAllJobs(ctx context.Context) (int, error)
}

// Profiles is the data-access contract for the users collection.
type Profiles interface {
	// SetProfile overwrites the whole document.
	SetProfile(ctx context.Context, profile models.Profile) error
	// MergeProfile writes the given fields, creating the document if needed.
	MergeProfile(ctx context.Context, uid string, fields map[string]any) error
	// UpdateProfileFields writes the given fields of an existing document.
	UpdateProfileFields(ctx context.Context, uid string, fields map[string]any) error
	GetProfile(ctx context.Context, uid string) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	DeleteAllProfiles(ctx context.Context) (int, error)
}

// Store is both collections plus the backend's lifecycle.
type Store interface {
	Jobs
	Profiles
	Close() error
}
