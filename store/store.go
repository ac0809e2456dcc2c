package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	gocache_store "github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/sellertools/feedreport/model"
	"github.com/sellertools/feedreport/mws"
	"github.com/sony/gobreaker"
)

// Config configures a Store.
type Config struct {
	Caller                         mws.Caller
	SubmissionIDs                  []string
	ExpireAfter                    time.Duration
	CircuitBreakerEnabled          *bool
	CircuitBreakerMaxRequests      uint32
	CircuitBreakerInterval         time.Duration
	CircuitBreakerTimeout          time.Duration
	CircuitBreakerFailureThreshold uint32
}

// fetchedPayload is one cached raw feed submission result.
type fetchedPayload struct {
	raw       []byte
	fetchedAt time.Time
}

// Store fetches feed submission results through a cache and a circuit
// breaker, so repeated reads of the same submission do not spend request
// quota.
type Store struct {
	caller         mws.Caller
	submissions    []model.SubmissionID
	payloadManager *cache.LoadableCache[*fetchedPayload]
	circuitBreaker *gobreaker.CircuitBreaker
}

// NewStore validates config and builds the cache and circuit breaker layers.
func NewStore(config Config) (*Store, error) {
	if config.Caller == nil {
		return nil, errors.New("a caller must be provided")
	}

	if len(config.SubmissionIDs) == 0 {
		return nil, errors.New("at least one feed submission id must be specified")
	}

	// Fail fast on malformed ids before any network traffic
	submissions := make([]model.SubmissionID, 0, len(config.SubmissionIDs))
	for _, value := range config.SubmissionIDs {
		id, err := model.ParseSubmissionID(value)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, id)
	}

	if config.ExpireAfter == 0 {
		config.ExpireAfter = 1 * time.Hour
	}

	// Set default circuit breaker values - enabled by default
	if config.CircuitBreakerMaxRequests <= 0 {
		config.CircuitBreakerMaxRequests = 3 // Allow 3 half-open requests
	}
	if config.CircuitBreakerInterval <= 0 {
		config.CircuitBreakerInterval = 60 * time.Second // Check for recovery every 60s
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second // Open circuit for 30s before trying half-open
	}
	if config.CircuitBreakerFailureThreshold <= 0 {
		config.CircuitBreakerFailureThreshold = 3 // Open circuit after 3 consecutive failures
	}

	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)

	// All submissions go through the same remote operation, so a single
	// breaker guards them - enabled by default unless explicitly disabled.
	var circuitBreaker *gobreaker.CircuitBreaker
	if config.CircuitBreakerEnabled == nil || *config.CircuitBreakerEnabled {
		circuitBreaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "feed-submission-results",
			MaxRequests: config.CircuitBreakerMaxRequests,
			Interval:    config.CircuitBreakerInterval,
			Timeout:     config.CircuitBreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= config.CircuitBreakerFailureThreshold
			},
		})
	}

	caller := config.Caller

	fetchPayload := func(ctx context.Context, id string) (*fetchedPayload, error) {
		fetcher := NewFetcher(caller)
		if err := fetcher.SetSubmissionID(id); err != nil {
			return nil, err
		}
		if err := fetcher.Fetch(ctx); err != nil {
			return nil, err
		}
		raw, err := fetcher.Raw()
		if err != nil {
			return nil, err
		}
		return &fetchedPayload{raw: raw, fetchedAt: time.Now().UTC()}, nil
	}

	loadFunction := func(ctx context.Context, key any) (*fetchedPayload, []gocache_store.Option, error) {
		id, ok := key.(string)
		if !ok {
			return nil, nil, errors.New("invalid key type")
		}

		if circuitBreaker != nil {
			result, err := circuitBreaker.Execute(func() (interface{}, error) {
				return fetchPayload(ctx, id)
			})
			if err != nil {
				return nil, nil, err
			}
			payload, ok := result.(*fetchedPayload)
			if !ok {
				return nil, nil, errors.New("unexpected result type from circuit breaker")
			}
			return payload, []gocache_store.Option{gocache_store.WithExpiration(config.ExpireAfter)}, nil
		}

		payload, err := fetchPayload(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		return payload, []gocache_store.Option{gocache_store.WithExpiration(config.ExpireAfter)}, nil
	}

	payloadManager := cache.NewLoadable[*fetchedPayload](
		loadFunction,
		cache.New[*fetchedPayload](ristrettoStore),
	)

	return &Store{
		caller:         caller,
		submissions:    submissions,
		payloadManager: payloadManager,
		circuitBreaker: circuitBreaker,
	}, nil
}

// Submissions returns the configured submission ids in their original order.
func (s *Store) Submissions() []model.SubmissionID {
	ids := make([]model.SubmissionID, len(s.submissions))
	copy(ids, s.submissions)
	return ids
}

// GetResult fetches one feed submission result, through the cache, and
// summarizes it. Fetch and parse problems are reported in the result's
// FetchError field rather than as an error return.
func (s *Store) GetResult(ctx context.Context, id string) (*model.SubmissionResult, error) {
	submissionID, err := model.ParseSubmissionID(id)
	if err != nil {
		return nil, err
	}

	payload, err := s.payloadManager.Get(ctx, submissionID.String())

	result := &model.SubmissionResult{ID: submissionID}

	if s.circuitBreaker != nil {
		result.CircuitBreakerOpen = s.circuitBreaker.State() == gobreaker.StateOpen
	}

	if err != nil {
		result.FetchError = err.Error()
		return result, nil
	}

	result.FetchedAt = payload.fetchedAt
	result.Raw = payload.raw

	summary, err := model.SummarizeRawFeed(payload.raw)
	if err != nil {
		result.FetchError = err.Error()
		return result, nil
	}

	result.Summary = summary
	return result, nil
}

// GetAllResults fetches every configured submission concurrently. Results
// are returned in the order the ids were configured.
func (s *Store) GetAllResults(ctx context.Context) ([]*model.SubmissionResult, error) {
	results := make([]*model.SubmissionResult, len(s.submissions))
	wg := &sync.WaitGroup{}
	for idx, id := range s.submissions {
		wg.Add(1)
		go func(idx int, id model.SubmissionID) {
			defer wg.Done()
			result, err := s.GetResult(ctx, id.String())
			if err != nil {
				result = &model.SubmissionResult{ID: id, FetchError: err.Error()}
			}
			results[idx] = result
		}(idx, id)
	}
	wg.Wait()
	return results, nil
}
