// Package upload turns local image files into hosted image URLs.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Timeout is the single fixed deadline applied to every upload. There is no retry.
const Timeout = 30 * time.Second

var (
	// ErrUploadFailed marks any upload that did not yield a hosted URL.
	ErrUploadFailed = errors.New("image upload failed")
	// ErrLocalFileRejected marks a file:// URI that may not be read from this host.
	ErrLocalFileRejected = errors.New("local file uri not accepted, upload the image first")
)

// Uploader stores an image and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// IsLocal reports whether uri points at a device-local file that still needs uploading.
func IsLocal(uri string) bool {
	return strings.HasPrefix(uri, "file://")
}

// OpenRoot opens dir as the only directory file:// URIs may be read from.
// An empty dir returns a nil root, which disables local files entirely.
func OpenRoot(dir string) (*os.Root, error) {
	if dir == "" {
		return nil, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload root %q: %w", dir, err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload root %q: %w", dir, err)
	}
	return root, nil
}

// Resolver uploads file:// URIs found inside root and leaves hosted URIs alone.
// With a nil root every file:// URI is rejected.
type Resolver struct {
	up   Uploader
	root *os.Root
}

func NewResolver(up Uploader, root *os.Root) *Resolver {
	return &Resolver{up: up, root: root}
}

// ResolveURI uploads uri if it is local and returns the hosted URL.
// Hosted and empty URIs are returned unchanged.
func (r *Resolver) ResolveURI(ctx context.Context, uri string) (string, error) {
	if !IsLocal(uri) {
		return uri, nil
	}
	if r.root == nil {
		return "", ErrLocalFileRejected
	}
	rel, err := r.relative(uri)
	if err != nil {
		return "", err
	}
	f, err := r.root.Open(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: open %s: %v", ErrUploadFailed, rel, err)
		}
		return "", fmt.Errorf("%w: %v", ErrLocalFileRejected, err)
	}
	defer f.Close()

	return r.up.Upload(ctx, filepath.Base(rel), f)
}

// ResolveAll resolves every URI concurrently, keeping the input order.
func (r *Resolver) ResolveAll(ctx context.Context, uris []string) ([]string, error) {
	out := make([]string, len(uris))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for i, uri := range uris {
		eg.Go(func() error {
			hosted, err := r.ResolveURI(gctx, uri)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			out[i] = hosted
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// relative maps a file:// URI to a path below the root, refusing anything outside it.
func (r *Resolver) relative(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: bad file uri %q: %v", ErrLocalFileRejected, uri, err)
	}
	p, err := url.PathUnescape(u.Path)
	if err != nil || p == "" {
		return "", fmt.Errorf("%w: bad file uri %q", ErrLocalFileRejected, uri)
	}
	rel, err := filepath.Rel(r.root.Name(), filepath.Clean(p))
	if err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s is outside the upload root", ErrLocalFileRejected, p)
	}
	return rel, nil
}
