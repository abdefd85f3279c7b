// Package archive keeps a copy of every uploaded import file in S3.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/JonMunkholm/academia/internal/core"
)

// PutObjectAPI is the part of *s3.Client the archiver uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver implements core.FileArchiver.
type S3Archiver struct {
	client PutObjectAPI
	bucket string
	prefix string
}

var _ core.FileArchiver = (*S3Archiver)(nil)

// Config holds the archive location.
type Config struct {
	Bucket string
	Region string
	Prefix string
}

// New loads the default AWS credential chain for cfg.Region.
func New(ctx context.Context, cfg Config) (*S3Archiver, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient creates an archiver over an existing client.
func NewWithClient(client PutObjectAPI, bucket, prefix string) *S3Archiver {
	return &S3Archiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key for a job's file: {prefix}/{jobID}/{fileName}.
func (a *S3Archiver) Key(jobID uuid.UUID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "import.csv"
	}
	return path.Join(a.prefix, jobID.String(), name)
}

// Archive uploads content and returns its s3:// location.
func (a *S3Archiver) Archive(ctx context.Context, jobID uuid.UUID, fileName string, content []byte) (string, error) {
	k := a.Key(jobID, fileName)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(k),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String("text/csv"),
		Metadata: map[string]string{
			"import-id": jobID.String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", k, err)
	}
	return "s3://" + a.bucket + "/" + k, nil
}
