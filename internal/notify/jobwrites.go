package notify

import (
	"context"
	"path"

	"github.com/Lllllllleong/jobgrid/internal/models"
)

// Write kinds of a job document.
const (
	WriteCreated = "created"
	WriteUpdated = "updated"
	WriteDeleted = "deleted"
)

// JobWrite classifies a document-write event and extracts the job it concerns.
func JobWrite(ev models.JobWrittenEvent) (kind string, job JobRef, ok bool) {
	switch {
	case ev.Value == nil && ev.OldValue == nil:
		return "", JobRef{}, false
	case ev.Value == nil:
		return WriteDeleted, JobRef{ID: path.Base(ev.OldValue.Name)}, true
	}
	job = JobRef{
		ID:        path.Base(ev.Value.Name),
		Title:     stringField(ev.Value.Fields, "title"),
		CompanyID: stringField(ev.Value.Fields, "companyId"),
	}
	if ev.OldValue == nil {
		return WriteCreated, job, true
	}
	return WriteUpdated, job, true
}

// HandleJobWrite forwards a job write to the matching scheduling call and
// returns the notification id it produced, if any.
func (s *Service) HandleJobWrite(ctx context.Context, ev models.JobWrittenEvent) (string, error) {
	kind, job, ok := JobWrite(ev)
	if !ok {
		return "", nil
	}
	switch kind {
	case WriteCreated:
		return s.ScheduleJobNotification(ctx, job)
	case WriteUpdated:
		return s.UpdateJobNotification(ctx, job)
	default:
		return "", s.CancelJobNotification(ctx, job.ID)
	}
}

// stringField reads a Firestore REST-encoded string value.
func stringField(fields map[string]map[string]any, name string) string {
	v, _ := fields[name]["stringValue"].(string)
	return v
}
