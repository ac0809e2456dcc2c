package store_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sellertools/feedreport/mws"
	"github.com/sellertools/feedreport/store"
)

const exampleReport = `<?xml version="1.0" encoding="UTF-8"?>
<Message>
  <ProcessingReport>
    <DocumentTransactionID>2291326430</DocumentTransactionID>
    <StatusCode>Complete</StatusCode>
    <ProcessingSummary>
      <MessagesProcessed>5</MessagesProcessed>
      <MessagesSuccessful>5</MessagesSuccessful>
      <MessagesWithError>0</MessagesWithError>
      <MessagesWithWarning>0</MessagesWithWarning>
    </ProcessingSummary>
  </ProcessingReport>
</Message>`

// writeReplayFixtures records canned responses so the examples run without
// network access. A live mws.Client works the same way through the Caller
// interface.
func writeReplayFixtures(dir string, bodies ...string) error {
	for i, body := range bodies {
		name := filepath.Join(dir, fmt.Sprintf("%02d_result.xml", i+1))
		if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func ExampleFetcher() {
	dir, err := os.MkdirTemp("", "feedreport-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)
	if err := writeReplayFixtures(dir, exampleReport); err != nil {
		log.Fatal(err)
	}

	source, err := mws.NewReplaySource(dir)
	if err != nil {
		log.Fatal(err)
	}

	fetcher := store.NewFetcher(source)
	if err := fetcher.SetSubmissionID("2291326430"); err != nil {
		log.Fatal(err)
	}
	if err := fetcher.Fetch(context.Background()); err != nil {
		log.Fatal(err)
	}

	summary, err := fetcher.Result()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(summary.Code)
	for _, message := range summary.Messages {
		fmt.Println(message)
	}
	// Output:
	// success
	// Success.
}

func ExampleStore_GetAllResults() {
	dir, err := os.MkdirTemp("", "feedreport-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)
	if err := writeReplayFixtures(dir, exampleReport, exampleReport); err != nil {
		log.Fatal(err)
	}

	source, err := mws.NewReplaySource(dir)
	if err != nil {
		log.Fatal(err)
	}

	resultStore, err := store.NewStore(store.Config{
		Caller:        source,
		SubmissionIDs: []string{"2291326430", "2291326431"},
	})
	if err != nil {
		log.Fatal(err)
	}

	results, err := resultStore.GetAllResults(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	for _, result := range results {
		fmt.Printf("%s %s\n", result.ID, result.Summary.Code)
	}
	// Output:
	// 2291326430 success
	// 2291326431 success
}
