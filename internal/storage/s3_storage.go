package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/akkash/bizsearch-backend/internal/config"
)

// IReportArchive defines the interface for archiving generated agent reports.
type IReportArchive interface {
	PutComparisonReport(ctx context.Context, quoteRequestID string, report []byte) (string, error)
	GeneratePresignedGetURL(ctx context.Context, key string) (string, error)
}

// s3ReportArchive implements IReportArchive on top of S3.
type s3ReportArchive struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewS3ReportArchive creates a new S3-backed report archive.
func NewS3ReportArchive(cfg *config.Config) (IReportArchive, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		// Static credentials from config for simplicity; prefer IAM roles in
		// production deployments.
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)

	return &s3ReportArchive{
		cfg:           cfg,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
	}, nil
}

// PutComparisonReport stores the JSON comparison report for a completed quote
// request and returns the object key.
func (s *s3ReportArchive) PutComparisonReport(ctx context.Context, quoteRequestID string, report []byte) (string, error) {
	objectKey := fmt.Sprintf("reports/quotes/%s/%s.json", quoteRequestID, time.Now().UTC().Format("20060102T150405Z"))

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(report),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload comparison report %s: %w", objectKey, err)
	}

	return objectKey, nil
}

// GeneratePresignedGetURL creates a time-limited download URL for a stored report.
func (s *s3ReportArchive) GeneratePresignedGetURL(ctx context.Context, key string) (string, error) {
	expiration := 15 * time.Minute

	presignedReq, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned GET URL for key %s: %w", key, err)
	}

	return presignedReq.URL, nil
}
