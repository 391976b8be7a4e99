package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Lllllllleong/jobgrid/internal/gcp"
)

const (
	StoreFirestore = "firestore"
	StoreSQLite    = "sqlite"

	UploadCloudinary = "cloudinary"
	UploadGCS        = "gcs"
)

type Config struct {
	ProjectID string `yaml:"project_id"`
	Port      string `yaml:"port"`

	Store struct {
		Backend         string `yaml:"backend"`
		SQLitePath      string `yaml:"sqlite_path"`
		UsersCollection string `yaml:"users_collection"`
		JobsCollection  string `yaml:"jobs_collection"`
	} `yaml:"store"`

	Upload struct {
		Backend          string `yaml:"backend"`
		CloudinaryURL    string `yaml:"cloudinary_url"`
		CloudinaryPreset string `yaml:"cloudinary_preset"`
		Bucket           string `yaml:"bucket"`
		// LocalRoot is the only directory file:// image URIs may be read
		// from. Empty rejects every file:// URI.
		LocalRoot string `yaml:"local_root"`
	} `yaml:"upload"`

	Auth struct {
		APIKey     string  `yaml:"api_key"`
		RatePerSec float64 `yaml:"rate_per_sec"`
		Burst      int     `yaml:"burst"`
		TrustProxy bool    `yaml:"trust_proxy"`
	} `yaml:"auth"`
}

// Default returns the configuration the app ships with.
func Default() Config {
	var cfg Config
	cfg.Port = "8080"
	cfg.Store.Backend = StoreFirestore
	cfg.Store.SQLitePath = "jobgrid.db"
	cfg.Store.UsersCollection = "users"
	cfg.Store.JobsCollection = "jobs"
	cfg.Upload.Backend = UploadCloudinary
	cfg.Upload.CloudinaryURL = "https://api.cloudinary.com/v1_1/dfwzzxgja/image/upload"
	cfg.Upload.CloudinaryPreset = "my_preset"
	cfg.Auth.RatePerSec = 1
	cfg.Auth.Burst = 5
	return cfg
}

// Load builds the config from defaults, the optional YAML file named by
// JOBGRID_CONFIG, then environment variables, and validates the result.
func Load() (Config, error) {
	cfg := Default()

	if path := gcp.GetEnv("JOBGRID_CONFIG", ""); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	if err := overlayEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func overlayEnv(cfg *Config) error {
	str := func(dst *string, key string) {
		if v := gcp.GetEnv(key, ""); v != "" {
			*dst = v
		}
	}
	str(&cfg.ProjectID, "PROJECT_ID")
	str(&cfg.Port, "PORT")
	str(&cfg.Store.Backend, "STORE_BACKEND")
	str(&cfg.Store.SQLitePath, "SQLITE_PATH")
	str(&cfg.Store.UsersCollection, "USERS_COLLECTION")
	str(&cfg.Store.JobsCollection, "JOBS_COLLECTION")
	str(&cfg.Upload.Backend, "UPLOAD_BACKEND")
	str(&cfg.Upload.CloudinaryURL, "CLOUDINARY_URL")
	str(&cfg.Upload.CloudinaryPreset, "CLOUDINARY_PRESET")
	str(&cfg.Upload.Bucket, "IMAGES_BUCKET")
	str(&cfg.Upload.LocalRoot, "UPLOAD_LOCAL_ROOT")
	str(&cfg.Auth.APIKey, "IDENTITY_API_KEY")

	if v := gcp.GetEnv("AUTH_RATE_PER_SEC", ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_PER_SEC: %w", err)
		}
		cfg.Auth.RatePerSec = f
	}
	if v := gcp.GetEnv("AUTH_BURST", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTH_BURST: %w", err)
		}
		cfg.Auth.Burst = n
	}
	if v := gcp.GetEnv("AUTH_TRUST_PROXY", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTH_TRUST_PROXY: %w", err)
		}
		cfg.Auth.TrustProxy = b
	}
	return nil
}

func Validate(cfg Config) error {
	var errs []string

	if n, err := strconv.Atoi(cfg.Port); err != nil || n <= 0 || n > 65535 {
		errs = append(errs, fmt.Sprintf("port must be a TCP port number, got %q", cfg.Port))
	}

	switch cfg.Store.Backend {
	case StoreFirestore:
		if cfg.ProjectID == "" {
			errs = append(errs, "PROJECT_ID must be set for the firestore store")
		}
	case StoreSQLite:
		if cfg.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlite_path is required for the sqlite store")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.backend must be %q or %q, got %q", StoreFirestore, StoreSQLite, cfg.Store.Backend))
	}
	if cfg.Store.UsersCollection == "" || cfg.Store.JobsCollection == "" {
		errs = append(errs, "store collections cannot be empty")
	}

	switch cfg.Upload.Backend {
	case UploadCloudinary:
		if cfg.Upload.CloudinaryURL == "" || cfg.Upload.CloudinaryPreset == "" {
			errs = append(errs, "upload.cloudinary_url and upload.cloudinary_preset are required")
		}
	case UploadGCS:
		if cfg.Upload.Bucket == "" {
			errs = append(errs, "IMAGES_BUCKET must be set for gcs uploads")
		}
	default:
		errs = append(errs, fmt.Sprintf("upload.backend must be %q or %q, got %q", UploadCloudinary, UploadGCS, cfg.Upload.Backend))
	}

	if cfg.Auth.RatePerSec <= 0 {
		errs = append(errs, "auth.rate_per_sec must be > 0")
	}
	if cfg.Auth.Burst <= 0 {
		errs = append(errs, "auth.burst must be > 0")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
