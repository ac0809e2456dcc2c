package store

import (
	"context"
	"errors"
	"net/url"
	"os"

	"github.com/sellertools/feedreport/model"
	"github.com/sellertools/feedreport/mws"
)

const (
	// ActionGetFeedSubmissionResult is the API operation this client wraps.
	ActionGetFeedSubmissionResult = "GetFeedSubmissionResult"
	// paramFeedSubmissionID is the required request parameter naming the submission.
	paramFeedSubmissionID = "FeedSubmissionId"
)

// Fetcher retrieves the processing report for one feed submission and
// derives its result summary on demand. A Fetcher is not safe for concurrent
// use, callers must serialize access.
type Fetcher struct {
	caller mws.Caller
	id     model.SubmissionID
	raw    []byte
}

// NewFetcher creates a Fetcher that issues requests through caller.
func NewFetcher(caller mws.Caller) *Fetcher {
	return &Fetcher{caller: caller}
}

// NewFetcherForSubmission creates a Fetcher already bound to a submission id.
func NewFetcherForSubmission(caller mws.Caller, id model.SubmissionID) *Fetcher {
	return &Fetcher{caller: caller, id: id}
}

// SetSubmissionID validates value and stores it as the active submission
// identifier. On validation failure the active identifier is unchanged.
func (f *Fetcher) SetSubmissionID(value string) error {
	id, err := model.ParseSubmissionID(value)
	if err != nil {
		return err
	}

	f.id = id
	return nil
}

// SubmissionID returns the active submission identifier.
func (f *Fetcher) SubmissionID() model.SubmissionID {
	return f.id
}

// Fetch retrieves the feed submission result and stores the raw response
// body. The stored raw body is left unchanged when the fetch fails.
func (f *Fetcher) Fetch(ctx context.Context) error {
	if f.id.IsZero() {
		err := model.CreateUsageError(model.ErrNoSubmissionID, "Feed submission id is required before fetching").
			WithOperation("fetch_result")
		model.WarnLog("fetch requested without a feed submission id", err)
		return err
	}

	params := url.Values{}
	params.Set(paramFeedSubmissionID, f.id.String())

	resp, err := f.caller.Call(ctx, ActionGetFeedSubmissionResult, params)
	if err != nil {
		var clientErr *model.ClientError
		if errors.As(err, &clientErr) && clientErr.SubmissionID == "" {
			clientErr.WithSubmissionID(f.id.String())
		}
		return err
	}

	if !resp.Valid() {
		return f.invalidResponseError(resp)
	}

	f.raw = resp.Body
	return nil
}

// invalidResponseError classifies a response that failed the validity check.
func (f *Fetcher) invalidResponseError(resp *mws.Response) error {
	if code, message, ok := mws.DecodeRemoteError(resp.Body); ok {
		return model.CreateRemoteError(code, message, resp.StatusCode, resp.Header).
			WithSubmissionID(f.id.String())
	}

	if err := resp.VerifyContentMD5(); err != nil {
		return model.CreateIntegrityError(err).
			WithSubmissionID(f.id.String())
	}

	return model.CreateHTTPError(resp.StatusCode, resp.Header).
		WithSubmissionID(f.id.String())
}

// Raw returns the raw feed submission result exactly as received.
func (f *Fetcher) Raw() ([]byte, error) {
	if f.raw == nil {
		return nil, model.CreateUsageError(model.ErrNoRawFeed, "No raw feed result available, call Fetch first").
			WithOperation("get_raw_feed").
			WithSubmissionID(f.id.String())
	}

	return f.raw, nil
}

// Result parses the stored raw feed and derives its result summary. The
// summary is recomputed on every call, never cached.
func (f *Fetcher) Result() (*model.ResultSummary, error) {
	if len(f.raw) == 0 {
		return nil, model.CreateUsageError(model.ErrNoRawFeed, "No raw feed result available, call Fetch first").
			WithOperation("get_result").
			WithSubmissionID(f.id.String())
	}

	summary, err := model.SummarizeRawFeed(f.raw)
	if err != nil {
		var clientErr *model.ClientError
		if errors.As(err, &clientErr) && clientErr.SubmissionID == "" {
			clientErr.WithSubmissionID(f.id.String())
		}
		return nil, err
	}

	return summary, nil
}

// SaveTo writes the exact raw feed bytes to path. The file is closed on
// every exit path. Success and failure are both logged with the submission
// id for traceability.
func (f *Fetcher) SaveTo(path string) error {
	if f.raw == nil {
		err := model.CreateUsageError(model.ErrNoRawFeed, "No raw feed result available to save").
			WithOperation("save_feed").
			WithPath(path).
			WithSubmissionID(f.id.String())
		model.WarnLog("save requested before a feed result was fetched", err)
		return err
	}

	file, err := os.Create(path) // #nosec G304 -- destination path is a caller-provided argument
	if err != nil {
		clientErr := model.CreateStorageError(err, path).WithSubmissionID(f.id.String())
		model.LogClientError(clientErr)
		return clientErr
	}

	_, writeErr := file.Write(f.raw)
	closeErr := file.Close()

	if writeErr != nil {
		clientErr := model.CreateStorageError(writeErr, path).WithSubmissionID(f.id.String())
		model.LogClientError(clientErr)
		return clientErr
	}

	if closeErr != nil {
		clientErr := model.CreateStorageError(closeErr, path).WithSubmissionID(f.id.String())
		model.LogClientError(clientErr)
		return clientErr
	}

	model.InfoLogWithContext("feed submission result saved", "fetcher", "save_feed", f.id.String(),
		map[string]any{"path": path, "bytes": len(f.raw)})

	return nil
}
