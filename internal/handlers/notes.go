package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/models"
	"github.com/ahsanfayaz52/notesservice/internal/notes"
	"github.com/ahsanfayaz52/notesservice/internal/storage"
)

const maxUploadBytes = 32 << 20

func ListNotesHandler(noteSvc *notes.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, auth.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		renderNotes(w, r, noteSvc, log, user, http.StatusOK, "")
	}
}

// CreateNoteHandler stores the upload first and then creates the note in one
// transaction. A failed transaction leaves the uploaded object behind.
func CreateNoteHandler(noteSvc *notes.Service, store storage.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		in := notes.NewNote{
			Title:        r.FormValue("title"),
			Content:      r.FormValue("content"),
			ChecklistCSV: r.FormValue("checklist_items"),
		}

		attachment, err := storeUpload(r, store, user)
		if err != nil {
			log.Error("upload failed", "owner", user.Nickname, "error", err)
			http.Error(w, "Failed to store attachment", http.StatusInternalServerError)
			return
		}
		if attachment != nil {
			in.Attachments = append(in.Attachments, *attachment)
		}

		if _, err := noteSvc.CreateNote(r.Context(), user, in); err != nil {
			log.Error("create note failed", "owner", user.Nickname, "error", err)
			http.Error(w, "Failed to create note", http.StatusInternalServerError)
			return
		}

		renderNotes(w, r, noteSvc, log, user, http.StatusOK, "")
	}
}

// storeUpload writes the uploaded_file part, if any, to the owner's folder.
// A part without a name or without content is not an attachment.
func storeUpload(r *http.Request, store storage.Store, user models.User) (*notes.Attachment, error) {
	file, header, err := r.FormFile("uploaded_file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := storage.CleanFileName(header.Filename)
	if name == "" || header.Size == 0 {
		return nil, nil
	}

	fullPath := storage.ObjectPath(store.Bucket(), user.OwnerID(), name)
	if err := writeObject(r.Context(), store, fullPath, name, file); err != nil {
		return nil, err
	}
	return &notes.Attachment{Name: name, FullPath: fullPath}, nil
}

func writeObject(ctx context.Context, store storage.Store, fullPath, name string, src io.Reader) error {
	return storage.Put(ctx, store, fullPath, storage.WriteOptions{
		ContentType: storage.ContentTypeFor(name),
		PublicRead:  true,
	}, src)
}

func renderNotes(w http.ResponseWriter, r *http.Request, noteSvc *notes.Service, log *logger.Logger, user models.User, status int, message string) {
	list, err := noteSvc.ListNotes(r.Context(), user)
	if err != nil {
		log.Error("list notes failed", "owner", user.Nickname, "error", err)
		http.Error(w, "Failed to fetch notes", http.StatusInternalServerError)
		return
	}

	err = render(w, status, "main.html", map[string]interface{}{
		"User":      user.Nickname,
		"LogoutURL": "/logout",
		"Notes":     list,
		"Error":     message,
	})
	if err != nil {
		log.Error("template render error", "error", err)
	}
}
