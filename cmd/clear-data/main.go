// Command clear-data deletes every company profile and job posting.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/jobgrid/internal/app"
	"github.com/Lllllllleong/jobgrid/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	yes := flag.Bool("yes", false, "confirm deletion of all profiles and jobs")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not read .env file", "error", err)
	}
	if !*yes {
		fmt.Fprintln(os.Stderr, "refusing to delete without -yes")
		os.Exit(2)
	}
	if err := run(context.Background()); err != nil {
		slog.Error("Error clearing data", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var profiles, jobs int
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := st.DeleteAllProfiles(gctx)
		profiles = n
		return err
	})
	eg.Go(func() error {
		n, err := st.DeleteAllJobs(gctx)
		jobs = n
		return err
	})
	if err := eg.Wait(); err != nil {
		slog.Error("Some documents were not deleted.", "profiles", profiles, "jobs", jobs, "error", err)
		return err
	}

	slog.Info("All company profiles and job postings have been deleted.",
		"profiles", profiles,
		"jobs", jobs,
		"usersCollection", cfg.Store.UsersCollection,
		"jobsCollection", cfg.Store.JobsCollection,
	)
	return nil
}
