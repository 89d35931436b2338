package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ahsanfayaz52/notesservice/internal/inbound"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/notes"
	"github.com/ahsanfayaz52/notesservice/internal/storage"
	"github.com/ahsanfayaz52/notesservice/internal/users"
)

const maxMailBytes = 25 << 20

// InboundMailHandler turns a raw RFC 5322 message sent to address into a
// note owned by the sender. Attachments are stored before the note is
// created.
func InboundMailHandler(address string, userStore *users.Store, store storage.Store, noteSvc *notes.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(mux.Vars(r)["address"], address) {
			http.NotFound(w, r)
			return
		}

		msg, err := inbound.Parse(http.MaxBytesReader(w, r.Body, maxMailBytes))
		if err != nil {
			log.Warn("unparseable inbound mail", "error", err)
			http.Error(w, "Invalid message", http.StatusBadRequest)
			return
		}

		user, err := userStore.ByEmail(r.Context(), msg.Sender)
		if errors.Is(err, users.ErrNotFound) {
			log.Warn("inbound mail from unknown sender")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if err != nil {
			log.Error("inbound mail user lookup failed", "error", err)
			http.Error(w, "Failed to load user", http.StatusInternalServerError)
			return
		}

		in := notes.NewNote{Title: msg.Subject, Content: msg.Body}
		for _, a := range msg.Attachments {
			name := storage.CleanFileName(a.Name)
			if name == "" || len(a.Data) == 0 {
				continue
			}
			fullPath := storage.ObjectPath(store.Bucket(), user.OwnerID(), name)
			if err := writeObject(r.Context(), store, fullPath, name, bytes.NewReader(a.Data)); err != nil {
				log.Error("store mail attachment failed", "path", fullPath, "error", err)
				http.Error(w, "Failed to store attachment", http.StatusInternalServerError)
				return
			}
			in.Attachments = append(in.Attachments, notes.Attachment{Name: name, FullPath: fullPath})
		}

		noteID, err := noteSvc.CreateNote(r.Context(), user, in)
		if err != nil {
			log.Error("create note from mail failed", "owner", user.Nickname, "error", err)
			http.Error(w, "Failed to create note", http.StatusInternalServerError)
			return
		}
		log.Info("note created from mail", "owner", user.Nickname, "note_id", noteID, "files", len(in.Attachments))
		w.WriteHeader(http.StatusOK)
	}
}
