package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"time"

	"finledger/internal/server/config"
	"finledger/internal/server/models"
	"finledger/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Seams for the AWS SDK so tests can intercept calls without a live backend.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// exportURLValidity bounds how long a generated download link works.
const exportURLValidity = 15 * time.Minute

// ExportResult points at a finished export: the object key in the bucket and
// a presigned URL that downloads it without further authentication.
type ExportResult struct {
	Key string
	URL string
}

type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *ExportService {
	return &ExportService{
		db:          db,
		repomanager: m,
		config:      cfg,
	}
}

// exportStorageKey scatters objects by date so bucket listings stay usable.
func exportStorageKey(userID int64) string {
	d := time.Now()
	return fmt.Sprintf("exports/%d/%d/%d/%d/%v.csv", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ExportService) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// renderCSV writes the records as CSV with a header row. Amounts appear in
// decimal form, dates as YYYY-MM-DD.
func renderCSV(list []models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "kind", "amount", "description", "date"}); err != nil {
		return nil, err
	}

	for _, t := range list {
		record := []string{
			fmt.Sprintf("%d", t.ID),
			string(t.Kind),
			models.FormatCents(t.AmountCents),
			t.Description,
			t.Date.Format("2006-01-02"),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Export renders the user's records matching the filter as CSV, uploads the
// file to object storage and returns a time-limited download link.
func (s *ExportService) Export(ctx context.Context, userID int64, filter models.TransactionFilter) (*ExportResult, error) {
	repo := s.repomanager.Transactions(s.db)

	// Exports are not paginated; ignore any limit the filter carries.
	filter.Limit = 0
	filter.Offset = 0

	list, err := repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	data, err := renderCSV(list)
	if err != nil {
		return nil, fmt.Errorf("error rendering csv: %w", err)
	}

	client, err := s.getS3Client()
	if err != nil {
		return nil, fmt.Errorf("error creating s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := exportStorageKey(userID)
	contentType := "text/csv"

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading export: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(exportURLValidity))
	if err != nil {
		return nil, fmt.Errorf("error presigning export url: %w", err)
	}

	return &ExportResult{Key: key, URL: req.URL}, nil
}
