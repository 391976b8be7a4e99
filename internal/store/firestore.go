package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/jobgrid/internal/gcp"
	"github.com/Lllllllleong/jobgrid/internal/models"
)

// Firestore keeps profiles and jobs as documents in two top-level collections.
type Firestore struct {
	client *firestore.Client
	users  string
	jobs   string
}

func NewFirestore(client *firestore.Client, usersCollection, jobsCollection string) *Firestore {
	return &Firestore{client: client, users: usersCollection, jobs: jobsCollection}
}

func (f *Firestore) Close() error { return f.client.Close() }

func (f *Firestore) CreateJob(ctx context.Context, job models.Job) (string, error) {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	docRef, _, err := f.client.Collection(f.jobs).Add(ctx, job)
	if err != nil {
		return "", fmt.Errorf("failed to create job document: %w", err)
	}
	return docRef.ID, nil
}

func (f *Firestore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	snap, err := f.client.Collection(f.jobs).Doc(id).Get(ctx)
	if gcp.IsNotFound(err) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return jobFromSnapshot(snap)
}

func (f *Firestore) ListJobs(ctx context.Context) ([]models.Job, error) {
	docs, err := f.client.Collection(f.jobs).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobsFromSnapshots(docs)
}

func (f *Firestore) ListJobsByCompany(ctx context.Context, companyID string) ([]models.Job, error) {
	docs, err := f.client.Collection(f.jobs).Where("companyId", "==", companyID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs for company %s: %w", companyID, err)
	}
	return jobsFromSnapshots(docs)
}

func (f *Firestore) UpdateJob(ctx context.Context, id string, patch models.JobPatch) error {
	updates := toUpdates(patch.Fields())
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})

	_, err := f.client.Collection(f.jobs).Doc(id).Update(ctx, updates)
	if gcp.IsNotFound(err) {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	return nil
}

func (f *Firestore) DeleteJob(ctx context.Context, id string) error {
	if _, err := f.client.Collection(f.jobs).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

func (f *Firestore) DeleteAllJobs(ctx context.Context) (int, error) {
	return f.deleteCollection(ctx, f.jobs)
}

func (f *Firestore) SetProfile(ctx context.Context, profile models.Profile) error {
	if profile.Gallery == nil {
		profile.Gallery = []string{}
	}
	if _, err := f.client.Collection(f.users).Doc(profile.UID).Set(ctx, profile); err != nil {
		return fmt.Errorf("failed to set profile %s: %w", profile.UID, err)
	}
	return nil
}

func (f *Firestore) MergeProfile(ctx context.Context, uid string, fields map[string]any) error {
	if _, err := f.client.Collection(f.users).Doc(uid).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to merge profile %s: %w", uid, err)
	}
	return nil
}

func (f *Firestore) UpdateProfileFields(ctx context.Context, uid string, fields map[string]any) error {
	if len(fields) == 0 {
		// Update with no fields is rejected by Firestore; existence is all we can check.
		_, err := f.GetProfile(ctx, uid)
		return err
	}
	_, err := f.client.Collection(f.users).Doc(uid).Update(ctx, toUpdates(fields))
	if gcp.IsNotFound(err) {
		return fmt.Errorf("profile %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", uid, err)
	}
	return nil
}

func (f *Firestore) GetProfile(ctx context.Context, uid string) (*models.Profile, error) {
	snap, err := f.client.Collection(f.users).Doc(uid).Get(ctx)
	if gcp.IsNotFound(err) {
		return nil, fmt.Errorf("profile %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", uid, err)
	}
	var p models.Profile
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", uid, err)
	}
	if p.UID == "" {
		p.UID = snap.Ref.ID
	}
	return &p, nil
}

func (f *Firestore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	it := f.client.Collection(f.users).Documents(ctx)
	defer it.Stop()

	out := []models.Profile{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}
		var p models.Profile
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode profile %s: %w", snap.Ref.ID, err)
		}
		if p.UID == "" {
			p.UID = snap.Ref.ID
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *Firestore) DeleteAllProfiles(ctx context.Context) (int, error) {
	return f.deleteCollection(ctx, f.users)
}

func (f *Firestore) deleteCollection(ctx context.Context, name string) (int, error) {
	refs, err := f.client.Collection(name).DocumentRefs(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", name, err)
	}
	bw := f.client.BulkWriter(ctx)
	ids := make([]string, 0, len(refs))
	jobs := make([]bulkResult, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			deleted, werr := tallyDeletes(name, ids, jobs)
			return deleted, errors.Join(fmt.Errorf("failed to queue delete of %s/%s: %w", name, ref.ID, err), werr)
		}
		ids = append(ids, ref.ID)
		jobs = append(jobs, job)
	}
	bw.End()
	return tallyDeletes(name, ids, jobs)
}

// bulkResult is the part of *firestore.BulkWriterJob read once the writer has ended.
type bulkResult interface {
	Results() (*firestore.WriteResult, error)
}

// tallyDeletes counts the deletes the server acknowledged and joins the failures.
func tallyDeletes(name string, ids []string, jobs []bulkResult) (int, error) {
	deleted := 0
	var errs []error
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s/%s: %w", name, ids[i], err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

func jobFromSnapshot(snap *firestore.DocumentSnapshot) (*models.Job, error) {
	var j models.Job
	if err := snap.DataTo(&j); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", snap.Ref.ID, err)
	}
	j.ID = snap.Ref.ID
	return &j, nil
}

func jobsFromSnapshots(docs []*firestore.DocumentSnapshot) ([]models.Job, error) {
	out := make([]models.Job, 0, len(docs))
	for _, snap := range docs {
		j, err := jobFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, nil
}

func toUpdates(fields map[string]any) []firestore.Update {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: fields[k]})
	}
	return updates
}
