package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/Lllllllleong/jobgrid/internal/notify"
)

var (
	initOnce sync.Once
	ready    bool
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by document writes under the jobs collection.
	functions.CloudEvent("NotifyJobWritten", notifyJobWritten)
}

// main is required by the Go Functions Framework.
func main() {}

func notifyJobWritten(ctx context.Context, e cloudevents.Event) error {
	svc := notify.Default()
	initOnce.Do(func() {
		ready = svc.Initialize(context.Background())
	})
	if !ready {
		slog.Warn("Notifications unavailable; event skipped.", "eventId", e.ID())
		return nil
	}

	var ev models.JobWrittenEvent
	if err := json.Unmarshal(e.Data(), &ev); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID())
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	kind, job, ok := notify.JobWrite(ev)
	if !ok {
		slog.Warn("Event carried no job document.", "eventId", e.ID(), "subject", e.Subject())
		return nil
	}
	logCtx := slog.With("eventId", e.ID(), "jobId", job.ID, "write", kind)

	id, err := svc.HandleJobWrite(ctx, ev)
	if err != nil {
		logCtx.Error("Failed to handle job write", "error", err)
		return err
	}
	logCtx.Info("Job write handled.", "notificationId", id)
	return nil
}
