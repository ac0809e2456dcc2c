package mws

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ThrottleConfig names the rate limiting parameters for the feed submission
// result operation: a request quota and the interval at which one unit of
// quota is restored.
type ThrottleConfig struct {
	// Limit is the maximum request quota, the burst the limiter allows.
	Limit int
	// Restore is how often one unit of quota is restored.
	Restore time.Duration
}

// withDefaults fills the published quota for unset fields.
func (t ThrottleConfig) withDefaults() ThrottleConfig {
	if t.Limit <= 0 {
		t.Limit = DefaultThrottleLimit
	}
	if t.Restore <= 0 {
		t.Restore = DefaultThrottleRestore
	}
	return t
}

// ThrottledTransport wraps an http.RoundTripper with a request quota.
type ThrottledTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

// NewThrottledTransport creates a transport enforcing the given quota.
// A nil transport falls back to http.DefaultTransport.
func NewThrottledTransport(transport http.RoundTripper, throttle ThrottleConfig) *ThrottledTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	throttle = throttle.withDefaults()

	return &ThrottledTransport{
		transport: transport,
		limiter:   rate.NewLimiter(rate.Every(throttle.Restore), throttle.Limit),
	}
}

// RoundTrip implements http.RoundTripper. It blocks until quota is available
// or the request context is done.
func (t *ThrottledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	return t.transport.RoundTrip(req)
}

// NewThrottledHTTPClient builds an HTTP client that enforces the quota and
// bounds each round trip with timeout.
func NewThrottledHTTPClient(throttle ThrottleConfig, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: NewThrottledTransport(nil, throttle),
		Timeout:   timeout,
	}
}
