package mws

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sellertools/feedreport/model"
	"github.com/sellertools/feedreport/version"
)

const (
	// DefaultAPIVersion is the feeds API version this client speaks.
	DefaultAPIVersion = "2009-01-01"
	// DefaultTimeout bounds one request round trip.
	DefaultTimeout = 30 * time.Second
	// DefaultThrottleLimit is the published request quota for the feed
	// submission result operation.
	DefaultThrottleLimit = 15
	// DefaultThrottleRestore is the published interval at which one unit
	// of quota is restored.
	DefaultThrottleRestore = time.Minute
)

// Caller submits one named API operation and returns its response. It is
// implemented by Client for live requests and by ReplaySource for mock mode.
type Caller interface {
	Call(ctx context.Context, action string, params url.Values) (*Response, error)
}

// HTTPDoer abstracts HTTP request execution so tests can substitute a fake.
// *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the settings for a live marketplace client.
type Config struct {
	// Endpoint is the API endpoint URL. When empty, Region selects one.
	Endpoint string
	// Region is a marketplace region code used when Endpoint is empty.
	Region string
	// AccessKey and SecretKey are the credentials used for request signing.
	AccessKey string
	SecretKey string
	// SellerID identifies the merchant account.
	SellerID string
	// AuthToken authorizes delegated access to another seller's account. Optional.
	AuthToken string
	// APIVersion overrides DefaultAPIVersion.
	APIVersion string
	// UserAgent overrides the default user agent string.
	UserAgent string
	// Timeout bounds one request round trip, defaulted to DefaultTimeout.
	Timeout time.Duration
	// Throttle configures the request quota, defaulted to the published
	// quota for the feed submission result operation.
	Throttle ThrottleConfig
	// HTTPClient overrides the throttled HTTP client. Mainly for tests.
	HTTPClient HTTPDoer
}

// Client signs and submits marketplace feeds API requests.
type Client struct {
	endpoint   *url.URL
	accessKey  string
	secretKey  string
	sellerID   string
	authToken  string
	apiVersion string
	userAgent  string
	httpClient HTTPDoer
}

// NewClient creates a live marketplace client from config.
func NewClient(config Config) (*Client, error) {
	endpoint := config.Endpoint
	if endpoint == "" && config.Region != "" {
		regionEndpoint, err := EndpointForRegion(config.Region)
		if err != nil {
			return nil, model.NewClientErrorWithCause(model.ErrorKindConfiguration, "Unknown marketplace region", err).
				WithComponent("mws_client")
		}
		endpoint = regionEndpoint
	}

	if err := ValidateEndpoint(endpoint); err != nil {
		return nil, model.NewClientErrorWithCause(model.ErrorKindConfiguration, "Invalid marketplace endpoint", err).
			WithComponent("mws_client")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, model.NewClientErrorWithCause(model.ErrorKindConfiguration, "Invalid marketplace endpoint", err).
			WithComponent("mws_client")
	}

	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, model.NewClientError(model.ErrorKindConfiguration, "Access key and secret key are required").
			WithComponent("mws_client")
	}

	if config.SellerID == "" {
		return nil, model.NewClientError(model.ErrorKindConfiguration, "Seller id is required").
			WithComponent("mws_client")
	}

	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent("feedreport")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = NewThrottledHTTPClient(config.Throttle, timeout)
	}

	return &Client{
		endpoint:   parsed,
		accessKey:  config.AccessKey,
		secretKey:  config.SecretKey,
		sellerID:   config.SellerID,
		authToken:  config.AuthToken,
		apiVersion: apiVersion,
		userAgent:  userAgent,
		httpClient: httpClient,
	}, nil
}

// Call implements Caller. It merges the ambient signing parameters into
// params, signs the request, posts it, and returns the raw response without
// judging its validity.
func (c *Client) Call(ctx context.Context, action string, params url.Values) (*Response, error) {
	values := url.Values{}
	for key, vals := range params {
		for _, value := range vals {
			values.Add(key, value)
		}
	}

	values.Set("Action", action)
	values.Set("AWSAccessKeyId", c.accessKey)
	values.Set("SellerId", c.sellerID)
	if c.authToken != "" {
		values.Set("MWSAuthToken", c.authToken)
	}
	values.Set("SignatureMethod", signatureMethod)
	values.Set("SignatureVersion", signatureVersion)
	values.Set("Timestamp", time.Now().UTC().Format(time.RFC3339))
	values.Set("Version", c.apiVersion)

	path := c.endpoint.Path
	if path == "" {
		path = "/"
	}

	// The Signature parameter itself is excluded from the canonical query,
	// so it is added only after signing.
	values.Set("Signature", sign(c.secretKey, http.MethodPost, c.endpoint.Host, path, values))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), strings.NewReader(values.Encode()))
	if err != nil {
		return nil, model.NewClientErrorWithCause(model.ErrorKindInternal, "Failed to build API request", err).
			WithOperation("call_api").
			WithComponent("mws_client")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.CreateNetworkError(err, "call_api")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			model.WarnLog("failed to close API response body", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.CreateNetworkError(err, "read_response")
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
