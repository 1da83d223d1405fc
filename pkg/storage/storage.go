// Package storage uploads rendered reports to S3 or an S3-compatible
// object store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"github.com/Killjoybr/IA-CAI/pkg/output"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
)

// ErrNoBucket is returned by NewS3Store when no bucket is configured.
var ErrNoBucket = errors.New("storage: bucket is required")

// Options configures an S3Store.
type Options struct {
	Bucket string
	// Prefix is prepended to every key, e.g. "webprobe/reports".
	Prefix string
	Region string
	// Endpoint points at an S3-compatible service such as MinIO. Setting
	// it switches to path-style addressing.
	Endpoint string
}

// S3Store writes objects into one bucket.
type S3Store struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
	logger   *slog.Logger
}

// NewS3Store builds a store from the default AWS credential chain.
func NewS3Store(opts Options, logger *slog.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, ErrNoBucket
	}
	cfg := aws.NewConfig()
	if opts.Region != "" {
		cfg = cfg.WithRegion(opts.Region)
	}
	if opts.Endpoint != "" {
		cfg = cfg.WithEndpoint(opts.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: aws session: %w", err)
	}
	return NewS3StoreWithUploader(s3manager.NewUploader(sess), opts, logger), nil
}

// NewS3StoreWithUploader wraps an existing uploader.
func NewS3StoreWithUploader(u s3manageriface.UploaderAPI, opts Options, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{
		uploader: u,
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		logger:   logger.With(slog.String("component", "storage")),
	}
}

// Key joins the store prefix and name.
func (s *S3Store) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put uploads body under Key(name) and returns the object location.
func (s *S3Store) Put(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	key := s.Key(name)
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload s3://%s/%s: %w", s.bucket, key, err)
	}
	s.logger.DebugContext(ctx, "object uploaded",
		slog.String("bucket", s.bucket),
		slog.String("key", key),
		slog.String("location", out.Location))
	return out.Location, nil
}

// SaveReport renders rep in format f and uploads it as
// <prefix>/<scan id>.<ext>.
func (s *S3Store) SaveReport(ctx context.Context, rep *scanner.Report, f output.Format, opts output.Options) (string, error) {
	var buf bytes.Buffer
	if err := output.Write(&buf, f, rep, opts); err != nil {
		return "", fmt.Errorf("storage: render %s report: %w", f, err)
	}
	name := rep.ScanID
	if name == "" {
		name = "report"
	}
	return s.Put(ctx, name+"."+f.Extension(), f.ContentType(), &buf)
}
