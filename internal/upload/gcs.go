package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/Lllllllleong/jobgrid/internal/gcp"
)

// GCS writes images into a publicly readable Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

func NewGCS(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

func (g *GCS) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	objectName, contentType := objectFor(name, uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	if err := gcp.SaveObjectAtomically(ctx, g.client.Bucket(g.bucket), objectName, contentType, r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return gcp.PublicURL(g.bucket, objectName), nil
}

// objectFor names the object after id, keeping the upload's image extension.
// Anything that is not an image type is stored as a JPEG.
func objectFor(name, id string) (objectName, contentType string) {
	ext := strings.ToLower(filepath.Ext(name))
	contentType = mime.TypeByExtension(ext)
	if ext == "" || !strings.HasPrefix(contentType, "image/") {
		ext, contentType = ".jpg", "image/jpeg"
	}
	return fmt.Sprintf("images/%s%s", id, ext), contentType
}
