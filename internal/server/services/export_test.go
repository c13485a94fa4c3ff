package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"finledger/internal/server/config"
	"finledger/internal/server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func newExportService(t *testing.T, rm *fakeRepoManager) *ExportService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })
	cfg := &config.Config{
		S3RootUser:     "admin",
		S3RootPassword: "secretpassword",
		S3Bucket:       "exports",
		S3Region:       "us-east-1",
		S3BaseEndpoint: "http://127.0.0.1:9000/",
	}
	return NewExportService(db, rm, cfg)
}

// swapSeams replaces the AWS SDK seams for the duration of one test.
func swapSeams(t *testing.T,
	put func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error),
	presign func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error),
) {
	t.Helper()

	origPut := putObject
	origPresign := presignGetObject
	t.Cleanup(func() {
		putObject = origPut
		presignGetObject = origPresign
	})

	putObject = put
	presignGetObject = presign
}

func TestRenderCSV(t *testing.T) {
	list := []models.Transaction{
		{ID: 2, Kind: models.KindExpense, AmountCents: 5000, Description: "groceries, fruit", Date: date("2025-06-21")},
		{ID: 1, Kind: models.KindIncome, AmountCents: 250000, Date: date("2025-06-01")},
	}

	data, err := renderCSV(list)
	if err != nil {
		t.Fatalf("renderCSV error: %v", err)
	}

	got := string(data)
	want := "id,kind,amount,description,date\n" +
		"2,EXPENSE,50.00,\"groceries, fruit\",2025-06-21\n" +
		"1,INCOME,2500.00,,2025-06-01\n"
	if got != want {
		t.Errorf("unexpected csv:\n%s\nwant:\n%s", got, want)
	}
}

func TestExport_Success(t *testing.T) {
	repo := &fakeTransactionsRepo{listOut: []models.Transaction{
		{ID: 1, UserID: 1, Kind: models.KindExpense, AmountCents: 5000, Date: date("2025-06-21")},
	}}
	s := newExportService(t, &fakeRepoManager{t: repo})

	var uploadedKey, uploadedBody string
	swapSeams(t,
		func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			uploadedKey = aws.ToString(in.Key)
			body, err := io.ReadAll(in.Body)
			if err != nil {
				return nil, err
			}
			uploadedBody = string(body)
			return &s3.PutObjectOutput{}, nil
		},
		func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
			return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/exports/" + aws.ToString(in.Key) + "?signed"}, nil
		},
	)

	res, err := s.Export(context.Background(), 1, models.TransactionFilter{Limit: 10})
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if res.Key != uploadedKey {
		t.Errorf("result key %q differs from uploaded key %q", res.Key, uploadedKey)
	}
	if !strings.HasPrefix(res.Key, "exports/1/") || !strings.HasSuffix(res.Key, ".csv") {
		t.Errorf("unexpected storage key: %s", res.Key)
	}
	if !strings.Contains(res.URL, "?signed") {
		t.Errorf("unexpected url: %s", res.URL)
	}
	if !strings.Contains(uploadedBody, "1,EXPENSE,50.00,,2025-06-21") {
		t.Errorf("unexpected csv body:\n%s", uploadedBody)
	}
	// Exports ignore client paging so the file is always complete.
	if repo.lastFilter.Limit != 0 || repo.lastFilter.Offset != 0 {
		t.Errorf("paging should be cleared, got %+v", repo.lastFilter)
	}
}

func TestExport_UploadFailure(t *testing.T) {
	repo := &fakeTransactionsRepo{listOut: []models.Transaction{}}
	s := newExportService(t, &fakeRepoManager{t: repo})

	swapSeams(t,
		func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			return nil, errors.New("bucket unavailable")
		},
		func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
			t.Fatal("presign should not be reached")
			return nil, nil
		},
	)

	if _, err := s.Export(context.Background(), 1, models.TransactionFilter{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestExport_ListFailure(t *testing.T) {
	repo := &fakeTransactionsRepo{listErr: errors.New("db down")}
	s := newExportService(t, &fakeRepoManager{t: repo})

	if _, err := s.Export(context.Background(), 1, models.TransactionFilter{}); err == nil {
		t.Fatal("expected error")
	}
}
