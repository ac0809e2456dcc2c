package mws

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sellertools/feedreport/model"
)

// ErrReplayExhausted indicates every recorded response has already been served.
var ErrReplayExhausted = errors.New("replay source has no more responses")

// ReplaySource serves pre-recorded response bodies in place of network
// calls. Fixtures are the .xml files of a directory, consumed in sorted
// filename order, one per call.
type ReplaySource struct {
	mu    sync.Mutex
	files []string
	next  int
}

// NewReplaySource builds a replay source from the .xml fixtures in dir.
func NewReplaySource(dir string) (*ReplaySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, model.NewClientErrorWithCause(model.ErrorKindReplay, "Failed to read replay directory", err).
			WithComponent("replay_source").
			WithPath(dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, model.NewClientError(model.ErrorKindReplay, "Replay directory contains no .xml fixtures").
			WithComponent("replay_source").
			WithPath(dir)
	}

	return &ReplaySource{files: files}, nil
}

// Call implements Caller by returning the next recorded response. The action
// and params are ignored, replay is keyed purely by call sequence.
func (r *ReplaySource) Call(ctx context.Context, action string, params url.Values) (*Response, error) {
	r.mu.Lock()
	if r.next >= len(r.files) {
		r.mu.Unlock()
		return nil, model.NewClientErrorWithCause(model.ErrorKindReplay, "No recorded response left for this call", ErrReplayExhausted).
			WithOperation(action).
			WithComponent("replay_source")
	}
	path := r.files[r.next]
	r.next++
	r.mu.Unlock()

	body, err := os.ReadFile(path) // #nosec G304 -- fixture path comes from the replay directory listing
	if err != nil {
		return nil, model.NewClientErrorWithCause(model.ErrorKindReplay, "Failed to read replay fixture", err).
			WithOperation(action).
			WithComponent("replay_source").
			WithPath(path)
	}

	header := make(http.Header)
	header.Set("Content-Type", "text/xml")

	return &Response{StatusCode: http.StatusOK, Header: header, Body: body}, nil
}

// Remaining reports how many recorded responses have not been served yet.
func (r *ReplaySource) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.files) - r.next
}

// Rewind resets the source so the recorded responses replay from the start.
func (r *ReplaySource) Rewind() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next = 0
}
