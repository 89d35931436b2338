package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// localStore keeps objects as files under root. Writes land in a temp file
// that replaces the target on Close.
type localStore struct {
	root          string
	bucket        string
	publicBaseURL string
}

func NewLocal(root, bucket, publicBaseURL string) (Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &localStore{
		root:          root,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *localStore) Bucket() string { return s.bucket }

func (s *localStore) filePath(fullPath string) (string, error) {
	bucket, object, err := SplitPath(fullPath)
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.root, bucket, filepath.FromSlash(object))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, fullPath)
	}
	return p, nil
}

type atomicFile struct {
	*os.File
	target string
}

func (f *atomicFile) Close() error {
	if err := f.File.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), f.target)
}

func (f *atomicFile) Abort() {
	_ = f.File.Close()
	_ = os.Remove(f.Name())
}

func (s *localStore) Create(_ context.Context, fullPath string, _ WriteOptions) (Writer, error) {
	p, err := s.filePath(fullPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return nil, err
	}
	return &atomicFile{File: tmp, target: p}, nil
}

func (s *localStore) Open(_ context.Context, fullPath string) (io.ReadCloser, error) {
	p, err := s.filePath(fullPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *localStore) PublicURL(fullPath string) string {
	return s.publicBaseURL + fullPath
}
