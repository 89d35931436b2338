package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/imaging"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/media"
	"github.com/ahsanfayaz52/notesservice/internal/storage"
)

// MediaHandler streams one of the current user's stored files.
func MediaHandler(store storage.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, auth.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}

		fileName := mux.Vars(r)["fileName"]
		fullPath := storage.ObjectPath(store.Bucket(), user.OwnerID(), fileName)

		rc, err := store.Open(r.Context(), fullPath)
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			log.Error("open media failed", "path", fullPath, "error", err)
			http.Error(w, "Failed to read file", http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", storage.ContentTypeFor(fileName))
		if _, err := io.Copy(w, rc); err != nil {
			log.Warn("media stream interrupted", "path", fullPath, "error", err)
		}
	}
}

// ImageHandler serves the URLs produced by media.Resolver: s is the bounding
// size (0 for the original) and c=1 asks for a centred square crop.
func ImageHandler(resolver *media.Resolver, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		size := 0
		if s := r.URL.Query().Get("s"); s != "" {
			parsed, err := strconv.Atoi(s)
			if err != nil || parsed < 0 || parsed > 1600 {
				http.Error(w, "Invalid size", http.StatusBadRequest)
				return
			}
			size = parsed
		}
		opts := imaging.Options{Size: size, Crop: r.URL.Query().Get("c") == "1"}

		data, contentType, err := resolver.Render(r.Context(), vars["ownerID"], vars["fileName"], opts)
		switch {
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidPath):
			http.NotFound(w, r)
			return
		case errors.Is(err, imaging.ErrNotImage):
			http.Error(w, "Not an image", http.StatusUnsupportedMediaType)
			return
		case err != nil:
			log.Error("image render failed", "owner", vars["ownerID"], "file", vars["fileName"], "error", err)
			http.Error(w, "Failed to render image", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(data)
	}
}
