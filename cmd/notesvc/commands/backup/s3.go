package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// IsS3URI reports whether a backup path refers to an S3 object rather
// than a local file.
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// parseS3URI splits s3://bucket/key into its bucket and key parts.
func parseS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URI (expected s3://bucket/key): %s", uri)
	}
	return bucket, key, nil
}

// newS3Client builds an S3 client from the default AWS config chain.
// Region and endpoint are optional overrides; a custom endpoint switches
// to path-style addressing, which S3-compatible services (MinIO,
// Localstack) require.
//
// Static credentials may be supplied through NOTESVC_S3_ACCESS_KEY and
// NOTESVC_S3_SECRET_KEY for services outside the AWS credential chain;
// when unset the default chain (env, shared config, IAM role) applies.
func newS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	accessKey := os.Getenv("NOTESVC_S3_ACCESS_KEY")
	secretKey := os.Getenv("NOTESVC_S3_SECRET_KEY")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)

	if endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// uploadToS3 uploads a local file to an s3://bucket/key destination.
func uploadToS3(ctx context.Context, uri, localPath, region, endpoint string) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	client, err := newS3Client(ctx, region, endpoint)
	if err != nil {
		return err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer func() { _ = file.Close() }()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}

	return nil
}

// DownloadFromS3 fetches an s3://bucket/key object into a local file.
// The restore command uses it to pull backups before applying them.
func DownloadFromS3(ctx context.Context, uri, localPath, region, endpoint string) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	client, err := newS3Client(ctx, region, endpoint)
	if err != nil {
		return err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 get object: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to write local file: %w", err)
	}

	return file.Sync()
}
