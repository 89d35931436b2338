package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/media"
	"github.com/ahsanfayaz52/notesservice/internal/middleware"
	"github.com/ahsanfayaz52/notesservice/internal/notes"
	"github.com/ahsanfayaz52/notesservice/internal/queue"
	"github.com/ahsanfayaz52/notesservice/internal/scheduler"
	"github.com/ahsanfayaz52/notesservice/internal/shrink"
	"github.com/ahsanfayaz52/notesservice/internal/storage"
	"github.com/ahsanfayaz52/notesservice/internal/users"
)

// HeaderMailRelay marks requests forwarded by the inbound mail relay.
const HeaderMailRelay = "X-Mail-Relay"

type Deps struct {
	Log         *logger.Logger
	JWT         *auth.JWTService
	Users       *users.Store
	Notes       *notes.Service
	Store       storage.Store
	Resolver    *media.Resolver
	Queue       queue.Queue
	Shrinker    *shrink.Shrinker
	MailAddress string
	TaskSecret  string
	// BlobDir, when set, is served under /blobs/ for the local storage mode.
	BlobDir string
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(d.Log))

	r.HandleFunc("/register", RegisterHandler(d.Users, d.Log)).Methods("GET", "POST")
	r.HandleFunc("/login", LoginHandler(d.Users, d.JWT, d.Log)).Methods("GET", "POST")
	r.HandleFunc("/logout", LogoutHandler()).Methods("GET")
	r.HandleFunc("/img/{ownerID:[0-9]+}/{fileName}", ImageHandler(d.Resolver, d.Log)).Methods("GET")

	// Internal triggers
	worker := r.Path(ShrinkPath).Methods("POST").Subrouter()
	worker.Use(middleware.InternalOnly(d.Log, queue.HeaderTaskName, d.TaskSecret))
	worker.NewRoute().HandlerFunc(ShrinkWorkerHandler(d.Users, d.Shrinker, d.Log))

	r.HandleFunc("/shrink_all", MethodNotAllowed("GET")).Methods("POST")
	cron := r.Path("/shrink_all").Methods("GET").Subrouter()
	cron.Use(middleware.InternalOnly(d.Log, scheduler.HeaderCron, d.TaskSecret))
	cron.NewRoute().HandlerFunc(ShrinkAllHandler(d.Shrinker, d.Log))

	mail := r.PathPrefix("/_ah/mail/").Subrouter()
	mail.Use(middleware.InternalOnly(d.Log, HeaderMailRelay, d.TaskSecret))
	mail.HandleFunc("/{address}", InboundMailHandler(d.MailAddress, d.Users, d.Store, d.Notes, d.Log)).Methods("POST")

	if d.BlobDir != "" {
		r.PathPrefix("/blobs/").Handler(http.StripPrefix("/blobs/", filesOnly(http.FileServer(http.Dir(d.BlobDir)))))
	}

	// Authenticated routes
	s := r.PathPrefix("/").Subrouter()
	s.Use(auth.JWTMiddleware(d.JWT))

	s.HandleFunc("/", ListNotesHandler(d.Notes, d.Log)).Methods("GET")
	s.HandleFunc("/", CreateNoteHandler(d.Notes, d.Store, d.Log)).Methods("POST")
	s.HandleFunc(`/media/{fileName:[\w.]{0,256}}`, MediaHandler(d.Store, d.Log)).Methods("GET")
	s.HandleFunc(ShrinkPath, ShrinkEnqueueHandler(d.Queue, d.Log)).Methods("GET")

	return r
}

// filesOnly hides directory listings.
func filesOnly(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
