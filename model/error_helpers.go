// Package model provides helper functions for creating structured errors.
package model

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// CreateNetworkError creates a ClientError for network-related issues
func CreateNetworkError(err error, operation string) *ClientError {
	kind := ErrorKindNetwork
	message := "Network error occurred"

	// Categorize the specific network error
	if err != nil {
		switch {
		case isTimeoutError(err):
			kind = ErrorKindTimeout
			message = "Request timed out"
		case isDNSError(err):
			kind = ErrorKindDNSResolution
			message = "DNS resolution failed"
		case isConnectionError(err):
			kind = ErrorKindConnectionFailed
			message = "Connection failed"
		}
	}

	ce := NewClientErrorWithCause(kind, message, err).
		WithOperation(operation).
		WithComponent("mws_client")

	if err != nil {
		ce.WithNetworkError(err.Error())
	}

	return ce
}

// CreateHTTPError creates a ClientError for a non-success HTTP response
func CreateHTTPError(status int, header http.Header) *ClientError {
	var message string

	switch {
	case status >= 400 && status < 500:
		message = fmt.Sprintf("Client error: %d %s", status, http.StatusText(status))
	case status >= 500:
		message = fmt.Sprintf("Server error: %d %s", status, http.StatusText(status))
	default:
		message = fmt.Sprintf("Unexpected HTTP status: %d %s", status, http.StatusText(status))
	}

	return NewClientError(ErrorKindHTTP, message).
		WithOperation("fetch_result").
		WithComponent("mws_client").
		WithHTTP(status, header)
}

// CreateRemoteError creates a ClientError from the code and message decoded
// out of the service's error response envelope
func CreateRemoteError(code, message string, status int, header http.Header) *ClientError {
	ce := NewClientError(ErrorKindRemote, fmt.Sprintf("Service rejected the request: %s", code)).
		WithOperation("fetch_result").
		WithComponent("mws_client").
		WithRemote(code, message)

	if status != 0 {
		ce.WithHTTP(status, header)
	}

	return ce
}

// CreateIntegrityError creates a ClientError for a response that failed
// integrity validation
func CreateIntegrityError(err error) *ClientError {
	return NewClientErrorWithCause(ErrorKindIntegrity, "Response failed integrity validation", err).
		WithOperation("fetch_result").
		WithComponent("mws_client")
}

// CreateParseError creates a ClientError for processing report parsing issues
func CreateParseError(err error) *ClientError {
	message := "Failed to parse processing report"

	// Surface the line number when the XML decoder reports one
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		message = fmt.Sprintf("Processing report contains malformed XML on line %d", syntaxErr.Line)
	}

	return NewClientErrorWithCause(ErrorKindParse, message, err).
		WithOperation("get_result").
		WithComponent("report_parser")
}

// CreateUsageError creates a ClientError for an operation invoked before its
// preconditions were met. The sentinel cause supports errors.Is checks.
func CreateUsageError(cause error, message string) *ClientError {
	return NewClientErrorWithCause(ErrorKindUsage, message, cause).
		WithComponent("fetcher")
}

// CreateStorageError creates a ClientError for filesystem and object storage issues
func CreateStorageError(err error, path string) *ClientError {
	return NewClientErrorWithCause(ErrorKindStorage, "Storage operation failed", err).
		WithOperation("save_feed").
		WithComponent("storage").
		WithPath(path)
}

// CreateCircuitBreakerError creates a ClientError for circuit breaker events
func CreateCircuitBreakerError(state string) *ClientError {
	message := fmt.Sprintf("Circuit breaker is %s", state)

	return NewClientError(ErrorKindCircuitBreaker, message).
		WithOperation("fetch_result").
		WithComponent("circuit_breaker")
}

// Helper functions to categorize network errors

// isTimeoutError checks if the error is related to timeouts
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, keyword := range []string{"timeout", "deadline exceeded", "timed out"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isDNSError checks if the error is related to DNS resolution
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, keyword := range []string{"no such host", "name resolution", "name or service not known"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isConnectionError checks if the error is related to connection issues
func isConnectionError(err error) bool {
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED,
		syscall.EHOSTUNREACH, syscall.ENETUNREACH,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, keyword := range []string{
		"connection refused", "connection reset", "connection aborted",
		"host unreachable", "network unreachable", "no route to host",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}
