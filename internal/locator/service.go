package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ServiceDiscoverer queries an HTTP discovery service.
//
// Request:  GET {base}/resolve/{serial}
// Response: {"addresses": ["192.168.1.20", ...]}
type ServiceDiscoverer struct {
	baseURL string
	http    *http.Client
}

// NewServiceDiscoverer creates a ServiceDiscoverer. Timeouts come from the
// lookup context.
func NewServiceDiscoverer(baseURL string) *ServiceDiscoverer {
	return &ServiceDiscoverer{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

type resolveResponse struct {
	Addresses []string `json:"addresses"`
}

// Lookup returns the first IPv4 address, or the first IPv6 one if no IPv4
// address is offered.
func (s *ServiceDiscoverer) Lookup(ctx context.Context, serial string) (string, error) {
	u := s.baseURL + "/resolve/" + url.PathEscape(serial)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("building discovery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("discovery request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoAddress
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("discovery service returned status %d", resp.StatusCode)
	}

	var body resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding discovery response: %w", err)
	}

	return pickAddress(body.Addresses)
}

func pickAddress(addrs []string) (string, error) {
	var v6 string
	for _, a := range addrs {
		ip := net.ParseIP(strings.TrimSpace(a))
		if ip == nil {
			continue
		}
		if ip.To4() != nil {
			return ip.String(), nil
		}
		if v6 == "" {
			v6 = ip.String()
		}
	}
	if v6 != "" {
		return v6, nil
	}
	return "", ErrNoAddress
}
