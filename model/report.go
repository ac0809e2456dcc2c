// Package model provides processing report parsing for feed submission results.
package model

import (
	"encoding/xml"
	"errors"
)

// SuccessMessage is the fixed message recorded when a report counts
// processed and successful messages.
const SuccessMessage = "Success."

// ErrNoProcessingReport indicates the document carries no ProcessingReport node.
var ErrNoProcessingReport = errors.New("processing report node is missing")

// ProcessingSummary holds the message counters of a processing report.
type ProcessingSummary struct {
	MessagesProcessed   int `xml:"MessagesProcessed"`
	MessagesSuccessful  int `xml:"MessagesSuccessful"`
	MessagesWithError   int `xml:"MessagesWithError"`
	MessagesWithWarning int `xml:"MessagesWithWarning"`
}

// ReportResult is one Result element of a processing report, describing the
// outcome of a single feed message.
type ReportResult struct {
	MessageID   string `xml:"MessageID"`
	Code        string `xml:"ResultCode"`
	MessageCode string `xml:"ResultMessageCode"`
	Description string `xml:"ResultDescription"`
	SKU         string `xml:"AdditionalInfo>SKU"`
}

// ProcessingReport is the report node of a feed submission result document.
type ProcessingReport struct {
	DocumentTransactionID string             `xml:"DocumentTransactionID"`
	StatusCode            string             `xml:"StatusCode"`
	Summary               *ProcessingSummary `xml:"ProcessingSummary"`
	Results               []ReportResult     `xml:"Result"`
}

// processingReportEnvelope tolerates both document shapes returned by the
// service: a full AmazonEnvelope wrapper and a bare Message root.
type processingReportEnvelope struct {
	Wrapped *ProcessingReport `xml:"Message>ProcessingReport"`
	Direct  *ProcessingReport `xml:"ProcessingReport"`
}

// ParseProcessingReport parses a raw feed submission result document and
// returns its ProcessingReport node.
func ParseProcessingReport(raw []byte) (*ProcessingReport, error) {
	if len(raw) == 0 {
		return nil, NewClientErrorWithCause(ErrorKindParse, "Feed submission result document is empty", ErrNoProcessingReport).
			WithOperation("get_result").
			WithComponent("report_parser")
	}

	var envelope processingReportEnvelope
	if err := xml.Unmarshal(raw, &envelope); err != nil {
		return nil, CreateParseError(err)
	}

	report := envelope.Wrapped
	if report == nil {
		report = envelope.Direct
	}
	if report == nil {
		return nil, NewClientErrorWithCause(ErrorKindParse, "Document contains no ProcessingReport node", ErrNoProcessingReport).
			WithOperation("get_result").
			WithComponent("report_parser")
	}

	return report, nil
}

// Summarize derives the result code and messages from the report counters.
// The three conditions are evaluated unconditionally in a fixed order and a
// later match overwrites an earlier one, so a report flagged with both
// errors and warnings classifies as warning. Keep that order: existing
// consumers depend on it.
func (r *ProcessingReport) Summarize() *ResultSummary {
	summary := &ResultSummary{}

	counts := r.Summary
	if counts == nil {
		return summary
	}

	if counts.MessagesProcessed > 0 && counts.MessagesSuccessful > 0 {
		summary.Code = ResultSuccess
		summary.Messages = []string{SuccessMessage}
	}

	if counts.MessagesWithError > 0 {
		summary.Code = ResultError
		if messages := r.resultDescriptions(); messages != nil {
			summary.Messages = messages
		}
	}

	if counts.MessagesWithWarning > 0 {
		summary.Code = ResultWarning
		if messages := r.resultDescriptions(); messages != nil {
			summary.Messages = messages
		}
	}

	return summary
}

// resultDescriptions collects the Result descriptions in document order.
// It returns nil when the report carries no Result elements, leaving the
// caller's message list untouched.
func (r *ProcessingReport) resultDescriptions() []string {
	if len(r.Results) == 0 {
		return nil
	}

	messages := make([]string, 0, len(r.Results))
	for _, result := range r.Results {
		messages = append(messages, result.Description)
	}

	return messages
}

// SummarizeRawFeed parses a raw feed submission result document and derives
// its result summary in one step.
func SummarizeRawFeed(raw []byte) (*ResultSummary, error) {
	report, err := ParseProcessingReport(raw)
	if err != nil {
		return nil, err
	}

	return report.Summarize(), nil
}
