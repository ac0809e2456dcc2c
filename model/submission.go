// Package model provides the feed submission identifier type and its validation.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SubmissionID identifies one feed submission on the marketplace service.
// Identifiers are numeric strings assigned by the service when a feed is submitted.
type SubmissionID string

// ParseSubmissionID validates value and returns it as a SubmissionID.
// Values must be unsigned decimal digits. Surrounding whitespace is trimmed.
func ParseSubmissionID(value string) (SubmissionID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", NewClientError(ErrorKindValidation, "Feed submission id cannot be empty").
			WithOperation("parse_submission_id")
	}

	if _, err := strconv.ParseUint(trimmed, 10, 64); err != nil {
		return "", NewClientErrorWithCause(ErrorKindValidation, fmt.Sprintf("Feed submission id %q is not numeric", trimmed), err).
			WithOperation("parse_submission_id")
	}

	return SubmissionID(trimmed), nil
}

// SubmissionIDFromInt converts a numeric id, as returned by feed submission
// calls, into a SubmissionID.
func SubmissionIDFromInt(id int64) (SubmissionID, error) {
	if id < 0 {
		return "", NewClientError(ErrorKindValidation, fmt.Sprintf("Feed submission id %d cannot be negative", id)).
			WithOperation("parse_submission_id")
	}

	return SubmissionID(strconv.FormatInt(id, 10)), nil
}

// String returns the identifier as sent in the FeedSubmissionId request parameter.
func (id SubmissionID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is unset.
func (id SubmissionID) IsZero() bool {
	return id == ""
}
