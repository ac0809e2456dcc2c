package model

import (
	"errors"
	"testing"
)

func TestParseResultCode(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected ResultCode
	}{
		{name: "success", value: "success", expected: ResultSuccess},
		{name: "error", value: "error", expected: ResultError},
		{name: "warning", value: "warning", expected: ResultWarning},
		{name: "none", value: "none", expected: ResultNone},
		{name: "empty string", value: "", expected: ResultNone},
		{name: "mixed case", value: "Success", expected: ResultSuccess},
		{name: "upper case", value: "WARNING", expected: ResultWarning},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, err := ParseResultCode(tc.value)
			if err != nil {
				t.Fatalf("ParseResultCode(%q) returned error: %v", tc.value, err)
			}
			if code != tc.expected {
				t.Errorf("ParseResultCode(%q) = %v, want %v", tc.value, code, tc.expected)
			}
		})
	}
}

func TestParseResultCode_Invalid(t *testing.T) {
	_, err := ParseResultCode("fatal")
	if !errors.Is(err, ErrInvalidResultCode) {
		t.Errorf("expected ErrInvalidResultCode, got %v", err)
	}
}

func TestResultCode_String(t *testing.T) {
	testCases := []struct {
		code     ResultCode
		expected string
	}{
		{ResultNone, "none"},
		{ResultSuccess, "success"},
		{ResultError, "error"},
		{ResultWarning, "warning"},
	}

	for _, tc := range testCases {
		if got := tc.code.String(); got != tc.expected {
			t.Errorf("ResultCode(%d).String() = %q, want %q", tc.code, got, tc.expected)
		}
	}
}

func TestResultCode_TextRoundTrip(t *testing.T) {
	for _, code := range []ResultCode{ResultNone, ResultSuccess, ResultError, ResultWarning} {
		text, err := code.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) returned error: %v", code, err)
		}

		var decoded ResultCode
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) returned error: %v", text, err)
		}

		if decoded != code {
			t.Errorf("round trip of %v produced %v", code, decoded)
		}
	}
}

func TestResultSummary_Empty(t *testing.T) {
	var nilSummary *ResultSummary
	if !nilSummary.Empty() {
		t.Error("nil summary should be empty")
	}

	if !(&ResultSummary{}).Empty() {
		t.Error("zero summary should be empty")
	}

	populated := &ResultSummary{Code: ResultSuccess, Messages: []string{SuccessMessage}}
	if populated.Empty() {
		t.Error("populated summary should not be empty")
	}
}
