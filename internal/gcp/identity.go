package gcp

import (
	"context"
	"fmt"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// NewIdentityService creates an Identity Toolkit client authenticated with a web API key.
// This is the REST surface behind Firebase email/password auth.
func NewIdentityService(ctx context.Context, apiKey string) (*identitytoolkit.Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("an API key must be provided to create an identity toolkit client")
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}
	return svc, nil
}
