package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid object path")
)

// Writer commits the object on Close. Abort discards it and leaves any
// existing object at the same path untouched.
type Writer interface {
	io.WriteCloser
	Abort()
}

type WriteOptions struct {
	ContentType string
	PublicRead  bool
}

// Store is an object store addressed by full paths of the form
// /<bucket>/<object name>.
type Store interface {
	Bucket() string
	Create(ctx context.Context, fullPath string, opts WriteOptions) (Writer, error)
	Open(ctx context.Context, fullPath string) (io.ReadCloser, error)
	PublicURL(fullPath string) string
}

// ObjectPath lays out an owner's file as /<bucket>/<ownerID>/<fileName>.
func ObjectPath(bucket, ownerID, fileName string) string {
	return path.Join("/", bucket, ownerID, fileName)
}

// SplitPath separates the bucket from the object name.
func SplitPath(fullPath string) (bucket, object string, err error) {
	p := strings.TrimPrefix(path.Clean("/"+fullPath), "/")
	bucket, object, ok := strings.Cut(p, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, fullPath)
	}
	return bucket, object, nil
}

// CleanFileName reduces an uploaded file name to its last element. It returns
// "" for names that cannot be stored.
func CleanFileName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	base := path.Base(name)
	switch base {
	case ".", "..", "/":
		return ""
	}
	return base
}

func ContentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func WriteFile(ctx context.Context, s Store, fullPath string, opts WriteOptions, data []byte) error {
	return Put(ctx, s, fullPath, opts, bytes.NewReader(data))
}

// Put streams src into fullPath. A failed copy aborts the write.
func Put(ctx context.Context, s Store, fullPath string, opts WriteOptions, src io.Reader) error {
	w, err := s.Create(ctx, fullPath, opts)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		w.Abort()
		return fmt.Errorf("write %s: %w", fullPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", fullPath, err)
	}
	return nil
}

func ReadFile(ctx context.Context, s Store, fullPath string) ([]byte, error) {
	r, err := s.Open(ctx, fullPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
