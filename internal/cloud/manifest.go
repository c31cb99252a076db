package cloud

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nerrad567/purifier-collector/internal/device"
)

const manifestPath = "/v2/provisioningservice/manifest"

// ManifestFetcher retrieves the list of registered devices.
type ManifestFetcher struct {
	client *Client
}

// NewManifestFetcher creates a ManifestFetcher.
func NewManifestFetcher(client *Client) *ManifestFetcher {
	return &ManifestFetcher{client: client}
}

// Fetch returns the manifest in cloud order. HTTP 401 is reported as
// ErrUnauthorized (also matching ErrCloudUnavailable).
func (f *ManifestFetcher) Fetch(ctx context.Context, cred Credential) ([]device.Descriptor, error) {
	var manifest []device.Descriptor
	if err := f.client.do(ctx, http.MethodGet, manifestPath, cred.Header(), nil, &manifest); err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	return manifest, nil
}
