package store

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sellertools/feedreport/model"
)

// S3API is the slice of the S3 client used by S3Archive. Tests substitute a
// fake; production code passes *s3.Client.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive uploads raw reports to an S3 bucket under a key prefix.
type S3Archive struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Archive builds an archive backed by the default AWS credential chain.
// Environment variables, shared profiles and IAM roles all work.
func NewS3Archive(ctx context.Context, region, bucket, prefix string) (*S3Archive, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryMaxAttempts(3),
	)
	if err != nil {
		return nil, model.NewClientErrorWithCause(model.ErrorKindConfiguration,
			fmt.Sprintf("Failed to load AWS configuration: %v", err), err).
			WithComponent("archive").
			WithOperation("archive_feed")
	}

	return NewS3ArchiveWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3ArchiveWithClient builds an archive around an existing client.
func NewS3ArchiveWithClient(client S3API, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads raw under a timestamped key and returns the object URI.
func (a *S3Archive) Put(ctx context.Context, id model.SubmissionID, raw []byte) (string, error) {
	key := path.Join(a.prefix, archiveName(id, time.Now().UTC()))
	uri := fmt.Sprintf("s3://%s/%s", a.bucket, key)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("text/xml"),
	})
	if err != nil {
		return "", model.CreateStorageError(err, uri).WithSubmissionID(id.String())
	}

	model.InfoLogWithContext("feed submission result archived", "archive", "archive_feed", id.String(),
		map[string]any{"path": uri, "bytes": len(raw)})

	return uri, nil
}
