package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Lllllllleong/jobgrid/internal/models"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:", "users", "jobs")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestJobRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateJob(ctx, models.Job{
		CompanyID:   "acme",
		Title:       "Backend Engineer",
		Description: "Build APIs",
		Location:    "Remote",
		Salary:      "100k",
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if id == "" {
		t.Fatal("CreateJob returned empty id")
	}

	got, err := s.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.ID != id || got.Title != "Backend Engineer" || got.CompanyID != "acme" || got.Salary != "100k" {
		t.Fatalf("GetJob = %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", got)
	}
}

func TestGetJobMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetJob(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetJob(missing) err = %v, want ErrNotFound", err)
	}
}

func TestDeleteJobRemovesFromList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	keep, _ := s.CreateJob(ctx, models.Job{CompanyID: "a", Title: "keep", Description: "d", Location: "l"})
	drop, _ := s.CreateJob(ctx, models.Job{CompanyID: "a", Title: "drop", Description: "d", Location: "l"})

	if err := s.DeleteJob(ctx, drop); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	jobs, err := s.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != keep {
		t.Fatalf("ListJobs after delete = %+v", jobs)
	}
}

func TestListJobsByCompany(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, c := range []string{"a", "b", "a", "c"} {
		if _, err := s.CreateJob(ctx, models.Job{CompanyID: c, Title: "t", Description: "d", Location: "l"}); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := s.ListJobsByCompany(ctx, "a")
	if err != nil {
		t.Fatalf("ListJobsByCompany: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs for a, want 2", len(jobs))
	}
	for _, j := range jobs {
		if j.CompanyID != "a" {
			t.Fatalf("foreign job in result: %+v", j)
		}
	}
}

func TestUpdateJobIsPartial(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, _ := s.CreateJob(ctx, models.Job{CompanyID: "a", Title: "old", Description: "desc", Location: "here"})
	before, _ := s.GetJob(ctx, id)

	if err := s.UpdateJob(ctx, id, models.JobPatch{Title: strPtr("new")}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	after, _ := s.GetJob(ctx, id)
	if after.Title != "new" || after.Description != "desc" || after.Location != "here" {
		t.Fatalf("UpdateJob changed more than the title: %+v", after)
	}
	if after.UpdatedAt.Before(before.UpdatedAt) {
		t.Fatalf("updatedAt went backwards")
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("createdAt changed: %v -> %v", before.CreatedAt, after.CreatedAt)
	}

	if err := s.UpdateJob(ctx, "missing", models.JobPatch{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateJob(missing) err = %v, want ErrNotFound", err)
	}
}

func TestMergeProfileOverwritesSameID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.MergeProfile(ctx, "u1", map[string]any{"uid": "u1", "companyName": "First", "phone": "123"}); err != nil {
		t.Fatal(err)
	}
	if err := s.MergeProfile(ctx, "u1", map[string]any{"uid": "u1", "companyName": "Second"}); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d profiles, want 1", len(all))
	}
	if all[0].CompanyName != "Second" || all[0].Phone != "123" {
		t.Fatalf("merged profile = %+v", all[0])
	}
}

func TestSetProfileReplacesDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_ = s.SetProfile(ctx, models.Profile{UID: "u1", CompanyName: "A", Phone: "1"})
	_ = s.SetProfile(ctx, models.Profile{UID: "u1", CompanyName: "B"})

	p, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.CompanyName != "B" || p.Phone != "" {
		t.Fatalf("SetProfile did not overwrite: %+v", p)
	}
}

func TestUpdateProfileFieldsRequiresDocument(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.UpdateProfileFields(ctx, "ghost", map[string]any{"phone": "1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, _ = s.CreateJob(ctx, models.Job{CompanyID: "a", Title: "t", Description: "d", Location: "l"})
	_, _ = s.CreateJob(ctx, models.Job{CompanyID: "a", Title: "t", Description: "d", Location: "l"})
	_ = s.SetProfile(ctx, models.Profile{UID: "a"})

	n, err := s.DeleteAllJobs(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DeleteAllJobs = %d, %v", n, err)
	}
	n, err = s.DeleteAllProfiles(ctx)
	if err != nil || n != 1 {
		t.Fatalf("DeleteAllProfiles = %d, %v", n, err)
	}
}
