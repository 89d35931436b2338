package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ahsanfayaz52/notesservice/internal/imaging"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/storage"
)

const ThumbnailSize = 150

// Resolver computes the serving and thumbnail URLs for stored attachments.
// It only talks to the blob store.
type Resolver struct {
	log     *logger.Logger
	store   storage.Store
	baseURL string
}

func NewResolver(log *logger.Logger, store storage.Store, baseURL string) *Resolver {
	return &Resolver{
		log:     log.With("service", "MediaResolver"),
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ResolveURLs never fails: when the object is not a transformable image the
// direct public URL is returned with an empty thumbnail. The object is read
// once for both URLs.
func (r *Resolver) ResolveURLs(ctx context.Context, ownerID, fileName string) (string, string) {
	fullPath := storage.ObjectPath(r.store.Bucket(), ownerID, fileName)

	err := r.probe(ctx, fullPath)
	if err == nil {
		return r.servingURL(ownerID, fileName, 0, false), r.servingURL(ownerID, fileName, ThumbnailSize, true)
	}
	if !errors.Is(err, imaging.ErrNotImage) {
		r.log.Warn("serving url failed, using public url", "path", fullPath, "error", err)
	}
	return r.store.PublicURL(fullPath), ""
}

// ServingURL returns a URL under /img that renders the object at the given
// size, or an error if the object cannot be transformed.
func (r *Resolver) ServingURL(ctx context.Context, ownerID, fileName string, size int, crop bool) (string, error) {
	if err := r.probe(ctx, storage.ObjectPath(r.store.Bucket(), ownerID, fileName)); err != nil {
		return "", err
	}
	return r.servingURL(ownerID, fileName, size, crop), nil
}

func (r *Resolver) probe(ctx context.Context, fullPath string) error {
	data, err := storage.ReadFile(ctx, r.store, fullPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", fullPath, err)
	}
	_, _, err = imaging.Probe(data)
	return err
}

func (r *Resolver) servingURL(ownerID, fileName string, size int, crop bool) string {
	q := url.Values{}
	q.Set("s", fmt.Sprint(size))
	if crop {
		q.Set("c", "1")
	}
	return fmt.Sprintf("%s/img/%s/%s?%s", r.baseURL, url.PathEscape(ownerID), url.PathEscape(fileName), q.Encode())
}

// Render loads the object and applies the serving transform.
func (r *Resolver) Render(ctx context.Context, ownerID, fileName string, opts imaging.Options) ([]byte, string, error) {
	fullPath := storage.ObjectPath(r.store.Bucket(), ownerID, fileName)
	data, err := storage.ReadFile(ctx, r.store, fullPath)
	if err != nil {
		return nil, "", err
	}
	return imaging.Transform(data, opts)
}
