package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
)

const (
	ModeGCS         = "gcs"
	ModeGCSEmulator = "gcs-emulator"
	ModeLocal       = "local"
	ModeMemory      = "memory"
)

type GCSConfig struct {
	Mode         string
	Bucket       string
	EmulatorHost string
}

type gcsStore struct {
	log           *logger.Logger
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

func NewGCS(ctx context.Context, log *logger.Logger, cfg GCSConfig) (Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}

	var (
		opts    []option.ClientOption
		baseURL = "https://storage.googleapis.com"
	)
	switch cfg.Mode {
	case ModeGCS:
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	case ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		if endpoint == "" {
			return nil, fmt.Errorf("missing env var STORAGE_EMULATOR_HOST")
		}
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		opts = append(opts, option.WithoutAuthentication())
		baseURL = endpoint
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Mode)
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	log.Info("object storage ready", "mode", cfg.Mode, "bucket", cfg.Bucket)
	return &gcsStore{
		log:           log.With("service", "GCSStore"),
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: baseURL,
	}, nil
}

func (s *gcsStore) Bucket() string { return s.bucket }

// gcsWriter aborts the upload by cancelling the writer's context, which
// keeps GCS from finalising the object.
type gcsWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *gcsWriter) Close() error {
	defer w.cancel()
	return w.Writer.Close()
}

func (w *gcsWriter) Abort() {
	w.cancel()
	_ = w.Writer.Close()
}

func (s *gcsStore) Create(ctx context.Context, fullPath string, opts WriteOptions) (Writer, error) {
	bucket, object, err := SplitPath(fullPath)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = opts.ContentType
	if opts.PublicRead {
		w.PredefinedACL = "publicRead"
	}
	return &gcsWriter{Writer: w, cancel: cancel}, nil
}

type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (s *gcsStore) Open(ctx context.Context, fullPath string) (io.ReadCloser, error) {
	bucket, object, err := SplitPath(fullPath)
	if err != nil {
		return nil, err
	}
	// The timeout must outlive this call, so cancel is tied to Close.
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)

	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (s *gcsStore) PublicURL(fullPath string) string {
	return s.publicBaseURL + fullPath
}
