package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/sellertools/feedreport/model"
	"github.com/sellertools/feedreport/mws"
	"github.com/sellertools/feedreport/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// logFailure routes an error to the structured logger, keeping the full
// taxonomy context when the error is a ClientError.
func logFailure(message string, err error) {
	var clientErr *model.ClientError
	if errors.As(err, &clientErr) {
		model.LogClientError(clientErr)
		return
	}
	model.ErrorLog(message, err)
}

// APIFlags carries the connection settings shared by every command that
// talks to the feeds API.
type APIFlags struct {
	Endpoint        string        `name:"endpoint" env:"MWS_ENDPOINT" help:"Override the API endpoint URL."`
	Region          string        `name:"region" default:"NA" env:"MWS_REGION" help:"Marketplace region (NA, EU, JP, CN, IN, AU)."`
	AccessKey       string        `name:"access-key" env:"MWS_ACCESS_KEY" help:"AWS access key id."`
	SecretKey       string        `name:"secret-key" env:"MWS_SECRET_KEY" help:"AWS secret key used for request signing."`
	SellerID        string        `name:"seller-id" env:"MWS_SELLER_ID" help:"Seller (merchant) identifier."`
	AuthToken       string        `name:"auth-token" env:"MWS_AUTH_TOKEN" help:"MWS auth token when acting for another seller."`
	Timeout         time.Duration `name:"timeout" default:"30s" help:"Timeout for a single API request."`
	ThrottleLimit   int           `name:"throttle-limit" default:"15" help:"Maximum burst of requests before throttling."`
	ThrottleRestore time.Duration `name:"throttle-restore" default:"1m" help:"How often one request slot is restored."`
	ReplayDir       string        `name:"replay-dir" type:"existingdir" help:"Serve responses from recorded .xml fixtures instead of the live API."`
}

// Caller builds the transport selected by the flags. A replay directory
// short-circuits the live client entirely.
func (f *APIFlags) Caller() (mws.Caller, error) {
	if f.ReplayDir != "" {
		return mws.NewReplaySource(f.ReplayDir)
	}
	return mws.NewClient(mws.Config{
		Endpoint:  f.Endpoint,
		Region:    f.Region,
		AccessKey: f.AccessKey,
		SecretKey: f.SecretKey,
		SellerID:  f.SellerID,
		AuthToken: f.AuthToken,
		Timeout:   f.Timeout,
		Throttle: mws.ThrottleConfig{
			Limit:   f.ThrottleLimit,
			Restore: f.ThrottleRestore,
		},
	})
}

// fetchReport is the printable outcome of fetching one submission.
type fetchReport struct {
	SubmissionID string               `json:"submission_id"`
	Summary      *model.ResultSummary `json:"summary,omitempty"`
	SavedTo      string               `json:"saved_to,omitempty"`
	Error        string               `json:"error,omitempty"`
}

type FetchCmd struct {
	APIFlags

	SaveDir       string   `name:"save-dir" help:"Save each raw report to this directory as <id>.xml."`
	JSON          bool     `name:"json" help:"Emit results as JSON instead of text."`
	SubmissionIDs []string `arg:"" name:"submission-ids" help:"Feed submission ids to fetch."`
}

func (c *FetchCmd) Run(globals *model.Globals) error {
	caller, err := c.Caller()
	if err != nil {
		return err
	}

	if c.SaveDir != "" {
		if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
			return model.CreateStorageError(err, c.SaveDir)
		}
	}

	ctx := context.Background()
	fetcher := store.NewFetcher(caller)
	reports := make([]fetchReport, 0, len(c.SubmissionIDs))
	failed := 0

	for _, id := range c.SubmissionIDs {
		report := fetchReport{SubmissionID: id}
		if fetchErr := c.fetchOne(ctx, fetcher, id, &report); fetchErr != nil {
			report.Error = fetchErr.Error()
			failed++
			logFailure("fetch failed", fetchErr)
		}
		reports = append(reports, report)
	}

	if err := c.render(reports); err != nil {
		return err
	}

	if failed > 0 {
		return model.NewClientError(model.ErrorKindRemote,
			fmt.Sprintf("%d of %d submissions failed", failed, len(c.SubmissionIDs))).
			WithOperation("fetch_result").
			WithComponent("cli")
	}
	return nil
}

// fetchOne runs the whole fetch, summarize, save sequence for a single id.
func (c *FetchCmd) fetchOne(ctx context.Context, fetcher *store.Fetcher, id string, report *fetchReport) error {
	if err := fetcher.SetSubmissionID(id); err != nil {
		return err
	}
	if err := fetcher.Fetch(ctx); err != nil {
		return err
	}

	summary, err := fetcher.Result()
	if err != nil {
		return err
	}
	report.Summary = summary

	if c.SaveDir != "" {
		path := filepath.Join(c.SaveDir, fetcher.SubmissionID().String()+".xml")
		if err := fetcher.SaveTo(path); err != nil {
			return err
		}
		report.SavedTo = path
	}
	return nil
}

func (c *FetchCmd) render(reports []fetchReport) error {
	if c.JSON {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	for _, report := range reports {
		fmt.Print(formatReport(report))
	}
	return nil
}

// formatReport renders one fetch outcome as indented text.
func formatReport(report fetchReport) string {
	var b strings.Builder
	if report.Error != "" {
		fmt.Fprintf(&b, "Submission %s: fetch failed\n  %s\n", report.SubmissionID, report.Error)
		return b.String()
	}
	fmt.Fprintf(&b, "Submission %s: %s\n", report.SubmissionID, report.Summary.Code)
	for _, message := range report.Summary.Messages {
		fmt.Fprintf(&b, "  %s\n", message)
	}
	if report.SavedTo != "" {
		fmt.Fprintf(&b, "  saved to %s\n", report.SavedTo)
	}
	return b.String()
}

type ArchiveCmd struct {
	APIFlags

	Dir           string        `name:"dir" help:"Archive raw reports into this directory."`
	S3Bucket      string        `name:"s3-bucket" help:"Archive raw reports into this S3 bucket."`
	S3Region      string        `name:"s3-region" default:"us-east-1" help:"Region of the archive bucket."`
	S3Prefix      string        `name:"s3-prefix" default:"feed-results" help:"Key prefix inside the archive bucket."`
	ExpireAfter   time.Duration `name:"expire-after" default:"1h" help:"Expire cached results after this duration."`
	SubmissionIDs []string      `arg:"" name:"submission-ids" help:"Feed submission ids to fetch and archive."`
}

func (c *ArchiveCmd) Run(globals *model.Globals) error {
	if c.Dir == "" && c.S3Bucket == "" {
		return model.CreateUsageError(nil, "No archive destination, set --dir or --s3-bucket").
			WithOperation("archive_feed").
			WithComponent("cli")
	}

	caller, err := c.Caller()
	if err != nil {
		return err
	}

	ctx := context.Background()
	archivers := make([]store.Archiver, 0, 2)

	if c.Dir != "" {
		dirArchive, err := store.NewDirArchive(c.Dir)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := dirArchive.Close(); closeErr != nil {
				model.WarnLog("failed to close archive index", closeErr)
			}
		}()
		archivers = append(archivers, dirArchive)
	}

	if c.S3Bucket != "" {
		s3Archive, err := store.NewS3Archive(ctx, c.S3Region, c.S3Bucket, c.S3Prefix)
		if err != nil {
			return err
		}
		archivers = append(archivers, s3Archive)
	}

	resultStore, err := store.NewStore(store.Config{
		Caller:        caller,
		SubmissionIDs: c.SubmissionIDs,
		ExpireAfter:   c.ExpireAfter,
	})
	if err != nil {
		return err
	}

	results, err := resultStore.GetAllResults(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, result := range results {
		if result.FetchError != "" {
			failed++
			fmt.Printf("Submission %s: fetch failed\n  %s\n", result.ID, result.FetchError)
			continue
		}
		for _, archiver := range archivers {
			location, putErr := archiver.Put(ctx, result.ID, result.Raw)
			if putErr != nil {
				failed++
				logFailure("archive failed", putErr)
				fmt.Printf("Submission %s: archive failed\n  %s\n", result.ID, putErr)
				continue
			}
			fmt.Printf("Submission %s: archived to %s\n", result.ID, location)
		}
	}

	if failed > 0 {
		return model.NewClientError(model.ErrorKindStorage,
			fmt.Sprintf("%d archive operations failed", failed)).
			WithOperation("archive_feed").
			WithComponent("cli")
	}
	return nil
}

type ListCmd struct {
	Dir  string `name:"dir" required:"" type:"existingdir" help:"Archive directory to list."`
	JSON bool   `name:"json" help:"Emit entries as JSON instead of text."`
}

func (c *ListCmd) Run(globals *model.Globals) error {
	archive, err := store.NewDirArchive(c.Dir)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := archive.Close(); closeErr != nil {
			model.WarnLog("failed to close archive index", closeErr)
		}
	}()

	entries, err := archive.Entries()
	if err != nil {
		return err
	}

	if c.JSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	for _, entry := range entries {
		fmt.Printf("%s  %-8s  %8d  %s\n",
			entry.ArchivedAt.Format(time.RFC3339), entry.Code, entry.SizeBytes, entry.Location)
	}
	return nil
}
