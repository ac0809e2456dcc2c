// Package model defines core data structures and error types for the feedreport client.
package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrorKind represents different categories of errors that can occur
type ErrorKind string

const (
	// ErrorKindNetwork represents general network-related errors
	ErrorKindNetwork ErrorKind = "network"
	// ErrorKindTimeout represents request timeout errors
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindConnectionFailed represents connection establishment failures
	ErrorKindConnectionFailed ErrorKind = "connection_failed"
	// ErrorKindDNSResolution represents DNS resolution failures
	ErrorKindDNSResolution ErrorKind = "dns_resolution"

	// ErrorKindHTTP represents non-success HTTP responses
	ErrorKindHTTP ErrorKind = "http"
	// ErrorKindRemote represents errors reported by the marketplace service itself
	ErrorKindRemote ErrorKind = "remote"
	// ErrorKindIntegrity represents response integrity failures such as a Content-MD5 mismatch
	ErrorKindIntegrity ErrorKind = "integrity"

	// ErrorKindParse represents processing report parsing errors
	ErrorKindParse ErrorKind = "parse"

	// ErrorKindValidation represents input validation errors
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindUsage represents operations invoked before their preconditions were met
	ErrorKindUsage ErrorKind = "usage"
	// ErrorKindConfiguration represents configuration-related errors
	ErrorKindConfiguration ErrorKind = "configuration"

	// ErrorKindStorage represents filesystem and object storage errors
	ErrorKindStorage ErrorKind = "storage"
	// ErrorKindReplay represents replay fixture errors
	ErrorKindReplay ErrorKind = "replay"
	// ErrorKindCircuitBreaker represents circuit breaker state errors
	ErrorKindCircuitBreaker ErrorKind = "circuit_breaker"

	// ErrorKindInternal represents internal client errors
	ErrorKindInternal ErrorKind = "internal"
	// ErrorKindUnknown represents unknown or unclassified errors
	ErrorKindUnknown ErrorKind = "unknown"
)

// Sentinel errors for precondition failures. They are carried as the Cause of
// usage errors so callers can test for them with errors.Is.
var (
	// ErrNoSubmissionID indicates a fetch was requested before a feed submission id was set.
	ErrNoSubmissionID = errors.New("feed submission id is not set")
	// ErrNoRawFeed indicates a raw feed result was requested before a successful fetch.
	ErrNoRawFeed = errors.New("raw feed result is not available")
)

// ClientError represents a structured error with additional context for debugging
type ClientError struct {
	// Core error information
	ID         string    `json:"id"`         // Unique correlation ID for tracking
	Timestamp  time.Time `json:"timestamp"`  // When the error occurred
	Kind       ErrorKind `json:"kind"`       // Category of error
	Message    string    `json:"message"`    // Human-readable error message
	Suggestion string    `json:"suggestion"` // Actionable suggestion for resolution

	// Context information
	SubmissionID string `json:"submission_id,omitempty"` // Feed submission involved in the error
	Operation    string `json:"operation,omitempty"`     // What operation was being performed
	Component    string `json:"component,omitempty"`     // Which component generated the error
	Path         string `json:"path,omitempty"`          // Filesystem or object path involved

	// HTTP-specific context
	HTTPStatus  int               `json:"http_status,omitempty"`  // HTTP status code
	HTTPHeaders map[string]string `json:"http_headers,omitempty"` // Relevant HTTP headers

	// Remote error context, decoded from the service's error envelope
	RemoteCode    string `json:"remote_code,omitempty"`    // Error code reported by the service
	RemoteMessage string `json:"remote_message,omitempty"` // Error message reported by the service

	// Network-specific context
	NetworkError string `json:"network_error,omitempty"` // Specific network error details

	// Original error for wrapping
	Cause error `json:"-"` // Original error (not serialized to JSON)
}

// Error implements the error interface
func (ce *ClientError) Error() string {
	var parts []string

	if ce.Message != "" {
		parts = append(parts, ce.Message)
	}

	if ce.SubmissionID != "" {
		parts = append(parts, fmt.Sprintf("Submission: %s", ce.SubmissionID))
	}

	if ce.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation: %s", ce.Operation))
	}

	if ce.HTTPStatus != 0 {
		parts = append(parts, fmt.Sprintf("HTTP Status: %d", ce.HTTPStatus))
	}

	if ce.RemoteCode != "" {
		parts = append(parts, fmt.Sprintf("Remote Code: %s", ce.RemoteCode))
	}

	parts = append(parts, fmt.Sprintf("Kind: %s", ce.Kind), fmt.Sprintf("ID: %s", ce.ID))

	return strings.Join(parts, " | ")
}

// Unwrap returns the underlying cause for error wrapping support
func (ce *ClientError) Unwrap() error {
	return ce.Cause
}

// NewClientError creates a new ClientError with basic information
func NewClientError(kind ErrorKind, message string) *ClientError {
	id, _ := gonanoid.New() // Generate unique correlation ID

	return &ClientError{
		ID:         id,
		Timestamp:  time.Now().UTC(),
		Kind:       kind,
		Message:    message,
		Suggestion: getSuggestionForErrorKind(kind),
	}
}

// NewClientErrorWithCause creates a new ClientError wrapping an existing error
func NewClientErrorWithCause(kind ErrorKind, message string, cause error) *ClientError {
	ce := NewClientError(kind, message)
	ce.Cause = cause
	return ce
}

// WithSubmissionID adds feed submission context to the error
func (ce *ClientError) WithSubmissionID(id string) *ClientError {
	ce.SubmissionID = id
	return ce
}

// WithOperation adds operation context to the error
func (ce *ClientError) WithOperation(operation string) *ClientError {
	ce.Operation = operation
	return ce
}

// WithComponent adds component context to the error
func (ce *ClientError) WithComponent(component string) *ClientError {
	ce.Component = component
	return ce
}

// WithPath adds filesystem or object path context to the error
func (ce *ClientError) WithPath(path string) *ClientError {
	ce.Path = path
	return ce
}

// WithHTTP adds HTTP-specific context to the error
func (ce *ClientError) WithHTTP(status int, headers http.Header) *ClientError {
	ce.HTTPStatus = status

	if headers != nil {
		ce.HTTPHeaders = make(map[string]string)

		// Include relevant headers for debugging
		relevantHeaders := []string{
			"Content-Type", "Content-Length", "Content-MD5", "Server",
			"Date", "X-Amzn-RequestId", "Retry-After",
		}

		for _, header := range relevantHeaders {
			if value := headers.Get(header); value != "" {
				ce.HTTPHeaders[header] = value
			}
		}
	}

	return ce
}

// WithRemote adds the error code and message decoded from the service's
// error envelope
func (ce *ClientError) WithRemote(code, message string) *ClientError {
	ce.RemoteCode = code
	ce.RemoteMessage = message
	return ce
}

// WithNetworkError adds network-specific context
func (ce *ClientError) WithNetworkError(networkErr string) *ClientError {
	ce.NetworkError = networkErr
	return ce
}

// getSuggestionForErrorKind returns actionable suggestions based on error kind
func getSuggestionForErrorKind(kind ErrorKind) string {
	suggestions := map[ErrorKind]string{
		ErrorKindTimeout:          "Check network connectivity or increase the request timeout",
		ErrorKindConnectionFailed: "Verify the endpoint is reachable and the service is available",
		ErrorKindDNSResolution:    "Check DNS settings and verify the endpoint hostname is correct",
		ErrorKindHTTP:             "The service rejected the request, inspect the status code and response body",
		ErrorKindRemote:           "Inspect the remote error code, it usually names the parameter or credential at fault",
		ErrorKindIntegrity:        "The response body failed integrity validation, retry the request",
		ErrorKindParse:            "The processing report XML could not be parsed, save the raw feed and inspect it",
		ErrorKindValidation:       "Feed submission ids are numeric, check the value for typos",
		ErrorKindUsage:            "Set a feed submission id and fetch the result before reading it",
		ErrorKindConfiguration:    "Review credentials, endpoint, and region settings for correctness",
		ErrorKindStorage:          "Check the destination path exists and is writable",
		ErrorKindReplay:           "Check the replay directory contains the expected .xml fixtures",
		ErrorKindCircuitBreaker:   "Service is temporarily unavailable due to repeated failures",
		ErrorKindInternal:         "Internal client error occurred, check logs for details",
	}

	if suggestion, exists := suggestions[kind]; exists {
		return suggestion
	}

	return "Check the error details and try again"
}
