// Package archive mirrors generated report artifacts to S3.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/pathlab/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store mirrors artifacts to a bucket.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	// manifest writes are read-modify-write
	manifestMu sync.Mutex
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if mirroring is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ObjectKey is the bucket key for a file created at t.
func ObjectKey(t time.Time, path string) string {
	return fmt.Sprintf("reports/%d/%02d/%02d/%s", t.Year(), t.Month(), t.Day(), filepath.Base(path))
}

// Mirror uploads the artifact and appends it to the monthly manifest. It
// returns the object key, or "" when mirroring is disabled.
func (s *Store) Mirror(ctx context.Context, a Artifact) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	data, err := os.ReadFile(a.Path)
	if err != nil {
		return "", fmt.Errorf("archive: read %s: %w", a.Path, err)
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	key := ObjectKey(created, a.Path)
	contentType := mime.TypeByExtension(filepath.Ext(a.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}
	s.logger.Info("mirrored report artifact to S3", "s3_key", key, "bytes", len(data))

	entry := ManifestEntry{
		File:           filepath.Base(a.Path),
		S3Key:          key,
		ContentType:    contentType,
		Bytes:          len(data),
		MobileHash:     HashMobile(a.Mobile),
		Backend:        a.Backend,
		DeliveryStatus: a.DeliveryStatus,
		ArchivedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.AppendManifest(ctx, created, entry); err != nil {
		// the artifact itself is already mirrored
		s.logger.Warn("failed to append manifest", "error", err, "s3_key", key)
	}
	return key, nil
}

// AppendManifest appends a JSONL line to the manifest for the month of t.
// S3 has no append, so this reads, extends and rewrites the object.
func (s *Store) AppendManifest(ctx context.Context, t time.Time, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}
	manifestKey := fmt.Sprintf("reports/manifests/%d-%02d.jsonl", t.Year(), t.Month())

	s.manifestMu.Lock()
	defer s.manifestMu.Unlock()

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		_ = getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", manifestKey)
	default:
		return fmt.Errorf("archive: get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NotFound") || strings.Contains(msg, "StatusCode: 404")
}
