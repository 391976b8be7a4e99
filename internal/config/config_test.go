package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultNeedsProjectForFirestore(t *testing.T) {
	err := Validate(Default())
	if err == nil || !strings.Contains(err.Error(), "PROJECT_ID") {
		t.Fatalf("err = %v, want PROJECT_ID complaint", err)
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("JOBGRID_CONFIG", "")
	t.Setenv("STORE_BACKEND", StoreSQLite)
	t.Setenv("SQLITE_PATH", "/tmp/jg.db")
	t.Setenv("UPLOAD_BACKEND", UploadGCS)
	t.Setenv("IMAGES_BUCKET", "jobgrid-images")
	t.Setenv("AUTH_RATE_PER_SEC", "2.5")
	t.Setenv("AUTH_BURST", "3")
	t.Setenv("AUTH_TRUST_PROXY", "true")
	t.Setenv("UPLOAD_LOCAL_ROOT", "/srv/jobgrid/images")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != StoreSQLite || cfg.Store.SQLitePath != "/tmp/jg.db" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.Upload.Backend != UploadGCS || cfg.Upload.Bucket != "jobgrid-images" {
		t.Fatalf("upload = %+v", cfg.Upload)
	}
	if cfg.Upload.LocalRoot != "/srv/jobgrid/images" {
		t.Fatalf("local root = %q", cfg.Upload.LocalRoot)
	}
	if cfg.Auth.RatePerSec != 2.5 || cfg.Auth.Burst != 3 || !cfg.Auth.TrustProxy {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if cfg.Store.UsersCollection != "users" || cfg.Store.JobsCollection != "jobs" {
		t.Fatalf("collections = %q %q", cfg.Store.UsersCollection, cfg.Store.JobsCollection)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobgrid.yaml")
	yml := `
project_id: demo-project
store:
  users_collection: companies
upload:
  backend: gcs
  bucket: from-file
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JOBGRID_CONFIG", path)
	t.Setenv("IMAGES_BUCKET", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProjectID != "demo-project" || cfg.Store.UsersCollection != "companies" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Upload.Bucket != "from-env" {
		t.Fatalf("bucket = %q, env should win", cfg.Upload.Bucket)
	}
	if cfg.Store.JobsCollection != "jobs" {
		t.Fatalf("jobs collection default lost: %q", cfg.Store.JobsCollection)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("JOBGRID_CONFIG", "")
	t.Setenv("AUTH_BURST", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestDefaultsAreSafe(t *testing.T) {
	cfg := Default()
	if cfg.Upload.LocalRoot != "" {
		t.Fatalf("local file uploads enabled by default: %q", cfg.Upload.LocalRoot)
	}
	if cfg.Auth.TrustProxy {
		t.Fatal("forwarded headers trusted by default")
	}
}

func TestLoadPort(t *testing.T) {
	t.Setenv("JOBGRID_CONFIG", "")
	t.Setenv("STORE_BACKEND", StoreSQLite)
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("default port = %q", cfg.Port)
	}

	t.Setenv("PORT", "9090")
	if cfg, err = Load(); err != nil || cfg.Port != "9090" {
		t.Fatalf("port = %q, err = %v", cfg.Port, err)
	}

	t.Setenv("PORT", "http")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "port") {
		t.Fatalf("err = %v, want port complaint", err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "mongo"
	cfg.Upload.Backend = "s3"
	cfg.Auth.Burst = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"store.backend", "upload.backend", "auth.burst"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%s", want, err)
		}
	}
}
