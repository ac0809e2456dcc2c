package store

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sellertools/feedreport/mws"
)

const benchReportTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Message>
  <ProcessingReport>
    <DocumentTransactionID>%s</DocumentTransactionID>
    <StatusCode>Complete</StatusCode>
    <ProcessingSummary>
      <MessagesProcessed>%d</MessagesProcessed>
      <MessagesSuccessful>%d</MessagesSuccessful>
      <MessagesWithError>0</MessagesWithError>
      <MessagesWithWarning>0</MessagesWithWarning>
    </ProcessingSummary>
  </ProcessingReport>
</Message>`

func benchReportBody(id string, processed int) string {
	return fmt.Sprintf(benchReportTemplate, id, processed, processed)
}

// createResultServer serves a fixed processing report for every request.
func createResultServer(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(body))
	}))
}

// benchCaller builds a live client against the test server with throttle
// limits high enough to never block the benchmark loop.
func benchCaller(b *testing.B, endpoint string) mws.Caller {
	b.Helper()
	caller, err := mws.NewClient(mws.Config{
		Endpoint:  endpoint,
		AccessKey: "AKIAEXAMPLE",
		SecretKey: "bench-secret",
		SellerID:  "A2EXAMPLE",
		Throttle:  mws.ThrottleConfig{Limit: 1_000_000, Restore: time.Microsecond},
	})
	if err != nil {
		b.Fatal(err)
	}
	return caller
}

func benchSubmissionIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", 2291326400+i)
	}
	return ids
}

// checkResults fails the benchmark when any fetch failed in-band, so timing
// numbers never silently measure the error path.
func checkResults(b *testing.B, store *Store) {
	b.Helper()
	results, err := store.GetAllResults(context.Background())
	if err != nil {
		b.Fatal(err)
	}
	for _, result := range results {
		if result.FetchError != "" {
			b.Fatalf("fetch failed for %s: %s", result.ID, result.FetchError)
		}
	}
}

// BenchmarkStore_CachedResults measures repeated reads served from the
// payload cache.
func BenchmarkStore_CachedResults(b *testing.B) {
	server := createResultServer(benchReportBody("2291326400", 5))
	defer server.Close()

	store, err := NewStore(Config{
		Caller:        benchCaller(b, server.URL),
		SubmissionIDs: benchSubmissionIDs(10),
		ExpireAfter:   1 * time.Hour,
	})
	if err != nil {
		b.Fatal(err)
	}
	checkResults(b, store)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := store.GetAllResults(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkStore_UncachedResults measures the full fetch, sign, and parse
// path by forcing cache misses.
func BenchmarkStore_UncachedResults(b *testing.B) {
	server := createResultServer(benchReportBody("2291326400", 5))
	defer server.Close()

	store, err := NewStore(Config{
		Caller:        benchCaller(b, server.URL),
		SubmissionIDs: benchSubmissionIDs(10),
		ExpireAfter:   1 * time.Millisecond, // Force cache misses
	})
	if err != nil {
		b.Fatal(err)
	}
	checkResults(b, store)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := store.GetAllResults(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkStore_ConcurrentAccess measures contention on the shared cache
// and circuit breaker.
func BenchmarkStore_ConcurrentAccess(b *testing.B) {
	server := createResultServer(benchReportBody("2291326400", 5))
	defer server.Close()

	store, err := NewStore(Config{
		Caller:        benchCaller(b, server.URL),
		SubmissionIDs: benchSubmissionIDs(5),
		ExpireAfter:   1 * time.Hour,
	})
	if err != nil {
		b.Fatal(err)
	}
	checkResults(b, store)

	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := store.GetAllResults(context.Background()); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkStore_ScalabilityTest measures performance across submission
// set sizes.
func BenchmarkStore_ScalabilityTest(b *testing.B) {
	counts := []int{1, 5, 10, 25, 50}

	for _, count := range counts {
		b.Run(fmt.Sprintf("Submissions_%d", count), func(b *testing.B) {
			server := createResultServer(benchReportBody("2291326400", 5))
			defer server.Close()

			store, err := NewStore(Config{
				Caller:        benchCaller(b, server.URL),
				SubmissionIDs: benchSubmissionIDs(count),
				ExpireAfter:   1 * time.Hour,
			})
			if err != nil {
				b.Fatal(err)
			}
			checkResults(b, store)

			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := store.GetAllResults(context.Background()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkFetcher_Summarize measures the parse-on-demand cost of deriving
// a summary from an already fetched report.
func BenchmarkFetcher_Summarize(b *testing.B) {
	fetcher := NewFetcher(&fakeCaller{response: okResponse(benchReportBody("2291326400", 5))})
	if err := fetcher.SetSubmissionID("2291326400"); err != nil {
		b.Fatal(err)
	}
	if err := fetcher.Fetch(context.Background()); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := fetcher.Result(); err != nil {
			b.Fatal(err)
		}
	}
}
