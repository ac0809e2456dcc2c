package store

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/sellertools/feedreport/model"
	"github.com/sellertools/feedreport/mws"
)

// mappingCaller serves a canned body per submission id. Safe for the
// concurrent calls GetAllResults makes.
type mappingCaller struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  int
}

func (m *mappingCaller) Call(ctx context.Context, action string, params url.Values) (*mws.Response, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	body, ok := m.bodies[params.Get("FeedSubmissionId")]
	if !ok {
		return nil, model.NewClientError(model.ErrorKindRemote, "no canned response for submission")
	}
	return okResponse(body), nil
}

// failingCaller fails every call with a network error.
type failingCaller struct {
	mu    sync.Mutex
	calls int
}

func (f *failingCaller) Call(ctx context.Context, action string, params url.Values) (*mws.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	return nil, model.CreateNetworkError(errors.New("connection refused"), "call_api")
}

func (f *failingCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func boolPtr(b bool) *bool { return &b }

func TestNewStore_NoCaller(t *testing.T) {
	_, err := NewStore(Config{SubmissionIDs: []string{"2291326430"}})
	if err == nil {
		t.Fatal("expected error when no caller is provided")
	}
}

func TestNewStore_NoSubmissions(t *testing.T) {
	_, err := NewStore(Config{Caller: &fakeCaller{}, SubmissionIDs: []string{}})
	if err == nil {
		t.Fatal("expected error when no submission ids are provided")
	}
}

func TestNewStore_InvalidSubmissionID(t *testing.T) {
	_, err := NewStore(Config{Caller: &fakeCaller{}, SubmissionIDs: []string{"2291326430", "not-numeric"}})
	if err == nil {
		t.Fatal("expected error for a malformed submission id")
	}

	var clientErr *model.ClientError
	if !errors.As(err, &clientErr) || clientErr.Kind != model.ErrorKindValidation {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestStore_Submissions(t *testing.T) {
	store, err := NewStore(Config{
		Caller:        &fakeCaller{},
		SubmissionIDs: []string{"3", "1", "2"},
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	ids := store.Submissions()
	if len(ids) != 3 || ids[0] != "3" || ids[1] != "1" || ids[2] != "2" {
		t.Errorf("expected configured order to be preserved, got %v", ids)
	}

	// The returned slice is a copy
	ids[0] = "999"
	if store.Submissions()[0] != "3" {
		t.Error("mutating the returned slice must not affect the store")
	}
}

func TestStore_GetResult_Success(t *testing.T) {
	caller := &mappingCaller{bodies: map[string]string{"2291326430": testSuccessReport}}
	store, err := NewStore(Config{Caller: caller, SubmissionIDs: []string{"2291326430"}})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	result, err := store.GetResult(context.Background(), "2291326430")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}

	if result.FetchError != "" {
		t.Fatalf("unexpected fetch error: %s", result.FetchError)
	}

	if result.ID != "2291326430" {
		t.Errorf("expected id 2291326430, got %q", result.ID)
	}

	if result.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}

	if string(result.Raw) != testSuccessReport {
		t.Error("expected the raw report to be carried on the result")
	}

	if result.Summary == nil || result.Summary.Code != model.ResultSuccess {
		t.Errorf("expected a success summary, got %+v", result.Summary)
	}
}

func TestStore_GetResult_InvalidID(t *testing.T) {
	store, err := NewStore(Config{Caller: &fakeCaller{}, SubmissionIDs: []string{"2291326430"}})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	_, err = store.GetResult(context.Background(), "not-numeric")
	if err == nil {
		t.Fatal("expected error for a malformed id")
	}
}

func TestStore_GetResult_FetchErrorInBand(t *testing.T) {
	store, err := NewStore(Config{Caller: &failingCaller{}, SubmissionIDs: []string{"2291326430"}})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	result, err := store.GetResult(context.Background(), "2291326430")
	if err != nil {
		t.Fatalf("fetch problems must be reported in-band, got error: %v", err)
	}

	if result.FetchError == "" {
		t.Error("expected FetchError to be set")
	}

	if result.Summary != nil {
		t.Errorf("expected no summary on a failed fetch, got %+v", result.Summary)
	}
}

func TestStore_GetResult_ParseErrorInBand(t *testing.T) {
	caller := &mappingCaller{bodies: map[string]string{"2291326430": "<Message><ProcessingReport>broken"}}
	store, err := NewStore(Config{Caller: caller, SubmissionIDs: []string{"2291326430"}})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	result, err := store.GetResult(context.Background(), "2291326430")
	if err != nil {
		t.Fatalf("parse problems must be reported in-band, got error: %v", err)
	}

	if result.FetchError == "" {
		t.Error("expected FetchError to be set for an unparseable report")
	}

	// The raw document was fetched fine and stays available
	if len(result.Raw) == 0 {
		t.Error("expected the raw report to be carried despite the parse failure")
	}
}

func TestStore_GetAllResults_OrderPreserved(t *testing.T) {
	caller := &mappingCaller{bodies: map[string]string{
		"101": testSuccessReport,
		"102": testErrorReport,
		"103": testSuccessReport,
	}}

	store, err := NewStore(Config{
		Caller:        caller,
		SubmissionIDs: []string{"103", "101", "102"},
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	results, err := store.GetAllResults(context.Background())
	if err != nil {
		t.Fatalf("GetAllResults failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	expectedOrder := []model.SubmissionID{"103", "101", "102"}
	for i, result := range results {
		if result.ID != expectedOrder[i] {
			t.Errorf("result %d id = %q, want %q", i, result.ID, expectedOrder[i])
		}
		if result.FetchError != "" {
			t.Errorf("result %d unexpected fetch error: %s", i, result.FetchError)
		}
	}

	if results[1].Summary == nil || results[1].Summary.Code != model.ResultSuccess {
		t.Errorf("expected success summary for 101, got %+v", results[1].Summary)
	}

	if results[2].Summary == nil || results[2].Summary.Code != model.ResultError {
		t.Errorf("expected error summary for 102, got %+v", results[2].Summary)
	}
}

func TestStore_GetAllResults_MixedOutcomes(t *testing.T) {
	// 101 resolves, 555 has no canned response and fails in-band
	caller := &mappingCaller{bodies: map[string]string{"101": testSuccessReport}}

	store, err := NewStore(Config{
		Caller:        caller,
		SubmissionIDs: []string{"101", "555"},
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	results, err := store.GetAllResults(context.Background())
	if err != nil {
		t.Fatalf("GetAllResults failed: %v", err)
	}

	if results[0].FetchError != "" {
		t.Errorf("expected 101 to succeed, got %s", results[0].FetchError)
	}

	if results[1].FetchError == "" {
		t.Error("expected 555 to report its fetch error in-band")
	}
}

func TestStore_CircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	caller := &failingCaller{}
	store, err := NewStore(Config{
		Caller:                         caller,
		SubmissionIDs:                  []string{"2291326430"},
		CircuitBreakerFailureThreshold: 2,
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := store.GetResult(ctx, "2291326430")
		if err != nil {
			t.Fatalf("GetResult %d failed: %v", i, err)
		}
		if result.FetchError == "" {
			t.Fatalf("expected fetch error on call %d", i)
		}
	}

	// The breaker tripped on the second consecutive failure. The next call
	// is rejected without reaching the transport.
	result, err := store.GetResult(ctx, "2291326430")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}

	if !result.CircuitBreakerOpen {
		t.Error("expected the circuit breaker to be open")
	}

	if !strings.Contains(result.FetchError, "circuit breaker is open") {
		t.Errorf("expected the open breaker to be reported, got %q", result.FetchError)
	}

	if caller.callCount() != 2 {
		t.Errorf("expected the rejected call not to reach the transport, got %d calls", caller.callCount())
	}
}

func TestStore_CircuitBreakerDisabled(t *testing.T) {
	caller := &failingCaller{}
	store, err := NewStore(Config{
		Caller:                caller,
		SubmissionIDs:         []string{"2291326430"},
		CircuitBreakerEnabled: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	ctx := context.Background()

	// Far more consecutive failures than any threshold, every one reaches
	// the transport because no breaker guards it.
	for i := 0; i < 5; i++ {
		result, err := store.GetResult(ctx, "2291326430")
		if err != nil {
			t.Fatalf("GetResult %d failed: %v", i, err)
		}
		if result.CircuitBreakerOpen {
			t.Error("breaker flag must stay false when disabled")
		}
		if result.FetchError == "" {
			t.Errorf("expected fetch error on call %d", i)
		}
	}

	if caller.callCount() != 5 {
		t.Errorf("expected all 5 calls to reach the transport, got %d", caller.callCount())
	}
}
