package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/queue"
	"github.com/ahsanfayaz52/notesservice/internal/shrink"
	"github.com/ahsanfayaz52/notesservice/internal/users"
)

const ShrinkPath = "/shrink"

// ShrinkEnqueueHandler queues a shrink of the current user's images.
func ShrinkEnqueueHandler(q queue.Queue, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, auth.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}

		task := queue.NewTask(ShrinkPath, url.Values{"user_email": {user.Email}})
		if err := q.Add(r.Context(), task); err != nil {
			log.Error("enqueue shrink failed", "owner", user.Nickname, "error", err)
			http.Error(w, "Failed to queue task", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "Task added to the queue.")
	}
}

// ShrinkWorkerHandler runs a queued shrink. Errors answer 500 so the queue
// retries; the work is idempotent.
func ShrinkWorkerHandler(userStore *users.Store, shrinker *shrink.Shrinker, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.FormValue("user_email")
		user, err := userStore.ByEmail(r.Context(), email)
		if errors.Is(err, users.ErrNotFound) {
			// Retrying cannot help; acknowledge and drop.
			log.Warn("shrink task for unknown user", "task", r.Header.Get(queue.HeaderTaskName))
			fmt.Fprint(w, "Unknown user.")
			return
		}
		if err != nil {
			log.Error("shrink task user lookup failed", "error", err)
			http.Error(w, "Failed to load user", http.StatusInternalServerError)
			return
		}

		res, err := shrinker.ShrinkAllNotesFor(r.Context(), user)
		if err != nil {
			log.Error("shrink task failed", "task", r.Header.Get(queue.HeaderTaskName), "owner", user.Nickname, "error", err)
			http.Error(w, "Shrink failed", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "Shrunk %d images.", res.Shrunk)
	}
}

// ShrinkAllHandler is the scheduled trigger for every owner.
func ShrinkAllHandler(shrinker *shrink.Shrinker, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := shrinker.ShrinkAllNotes(r.Context())
		if err != nil {
			log.Error("scheduled shrink failed", "error", err)
			http.Error(w, "Shrink failed", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "Shrunk %d images.", res.Shrunk)
	}
}

// MethodNotAllowed answers 405 and advertises the allowed methods.
func MethodNotAllowed(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
