// Package mws implements the signed request transport for the marketplace
// feeds API, plus a replay source that substitutes canned responses for
// network calls.
package mws

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Sentinel errors for endpoint validation
var (
	// ErrEmptyEndpoint indicates an empty endpoint URL
	ErrEmptyEndpoint = errors.New("endpoint cannot be empty")
	// ErrInvalidEndpoint indicates a malformed endpoint URL
	ErrInvalidEndpoint = errors.New("invalid endpoint URL")
	// ErrUnsupportedScheme indicates a URL scheme other than HTTP or HTTPS
	ErrUnsupportedScheme = errors.New("unsupported endpoint scheme - only HTTP and HTTPS are allowed")
	// ErrMissingHost indicates a URL without a host component
	ErrMissingHost = errors.New("endpoint must have a valid host")
	// ErrUnknownRegion indicates an unrecognized marketplace region code
	ErrUnknownRegion = errors.New("unknown marketplace region")
)

// regionEndpoints maps marketplace region codes to their API endpoints.
var regionEndpoints = map[string]string{
	"NA": "https://mws.amazonservices.com",
	"EU": "https://mws-eu.amazonservices.com",
	"JP": "https://mws.amazonservices.jp",
	"CN": "https://mws.amazonservices.com.cn",
	"IN": "https://mws.amazonservices.in",
	"AU": "https://mws.amazonservices.com.au",
}

// EndpointForRegion returns the API endpoint for a marketplace region code.
func EndpointForRegion(region string) (string, error) {
	endpoint, ok := regionEndpoints[strings.ToUpper(strings.TrimSpace(region))]
	if !ok {
		return "", fmt.Errorf("%w: %q (known regions: %s)", ErrUnknownRegion, region, strings.Join(Regions(), ", "))
	}

	return endpoint, nil
}

// Regions returns the known marketplace region codes in sorted order.
func Regions() []string {
	regions := make([]string, 0, len(regionEndpoints))
	for region := range regionEndpoints {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	return regions
}

// ValidateEndpoint checks that an endpoint URL is well formed and usable for
// signed requests.
func ValidateEndpoint(rawURL string) error {
	if rawURL == "" {
		return ErrEmptyEndpoint
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsupportedScheme
	}

	if parsed.Host == "" {
		return ErrMissingHost
	}

	return nil
}
