// Package model provides data structures for feed processing outcomes.
package model

import (
	"errors"
	"strings"
	"time"
)

// ResultCode classifies the outcome recorded in a feed processing report.
type ResultCode int

const (
	// ResultNone means no summary condition matched the report counts.
	ResultNone ResultCode = iota
	// ResultSuccess means the report counted processed and successful messages.
	ResultSuccess
	// ResultError means the report counted messages with errors.
	ResultError
	// ResultWarning means the report counted messages with warnings.
	ResultWarning
)

// ErrInvalidResultCode is returned when parsing an unknown result code string.
var ErrInvalidResultCode = errors.New("invalid result code")

// ParseResultCode parses a string into a ResultCode.
func ParseResultCode(value string) (ResultCode, error) {
	switch strings.ToLower(value) {
	case "", "none":
		return ResultNone, nil
	case "success":
		return ResultSuccess, nil
	case "error":
		return ResultError, nil
	case "warning":
		return ResultWarning, nil
	default:
		return ResultNone, ErrInvalidResultCode
	}
}

// String returns the string representation of the result code.
func (c ResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "success"
	case ResultError:
		return "error"
	case ResultWarning:
		return "warning"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler so result codes serialize as
// their string form.
func (c ResultCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ResultCode) UnmarshalText(text []byte) error {
	parsed, err := ParseResultCode(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ResultSummary is the outcome derived from one feed processing report.
type ResultSummary struct {
	Code     ResultCode `json:"code"`
	Messages []string   `json:"messages,omitempty"`
}

// Empty reports whether no summary condition matched the report.
func (s *ResultSummary) Empty() bool {
	return s == nil || (s.Code == ResultNone && len(s.Messages) == 0)
}

// SubmissionResult represents the outcome of fetching and summarizing the
// processing report for one feed submission.
type SubmissionResult struct {
	ID                 SubmissionID   `json:"id"`
	Summary            *ResultSummary `json:"summary,omitempty"`
	FetchedAt          time.Time      `json:"fetched_at"`
	FetchError         string         `json:"fetch_error,omitempty"`
	CircuitBreakerOpen bool           `json:"circuit_breaker_open,omitempty"`

	// Raw is the unparsed processing report body. It is excluded from JSON output.
	Raw []byte `json:"-"`
}
