package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/google/uuid"
)

var ErrExportDisabled = errors.New("export storage is not configured")

const csvContentType = "text/csv"

var csvHeader = []string{"id", "date", "page_views", "unique_visitors", "bounce_rate", "avg_session_duration", "conversions", "revenue"}

// Uploader stores one exported object.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// S3Config addresses an S3-compatible bucket (MinIO in development).
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

type S3Uploader struct {
	api    putObjectAPI
	bucket string
}

func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{api: client, bucket: cfg.Bucket}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", u.bucket, key, err)
	}
	return nil
}

// ExportKey names an export object by day with a random suffix.
func ExportKey(now time.Time) string {
	return fmt.Sprintf("exports/analytics/%d/%02d/%02d/%v.csv", now.Year(), now.Month(), now.Day(), uuid.New())
}

// EncodeCSV renders points with a header row.
func EncodeCSV(points []models.AnalyticsPoint) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range points {
		err := w.Write([]string{
			p.ID,
			p.Date,
			strconv.Itoa(p.PageViews),
			strconv.Itoa(p.UniqueVisitors),
			strconv.FormatFloat(p.BounceRate, 'f', 4, 64),
			strconv.Itoa(p.AvgSessionDuration),
			strconv.Itoa(p.Conversions),
			strconv.Itoa(p.Revenue),
		})
		if err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
