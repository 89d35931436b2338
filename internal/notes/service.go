// Package notes owns the Note aggregate: a note, its checklist items and its
// attached files, created together in one transaction and listed per owner.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/models"
)

var ErrNoOwner = errors.New("note owner has no nickname")

// URLResolver computes the display URLs of an attachment. It must not fail;
// a missing thumbnail is reported as "".
type URLResolver interface {
	ResolveURLs(ctx context.Context, ownerID, fileName string) (url, thumbnailURL string)
}

// Attachment refers to bytes already written to the blob store.
type Attachment struct {
	Name     string
	FullPath string
}

type NewNote struct {
	Title        string
	Content      string
	ChecklistCSV string
	Attachments  []Attachment
}

type Service struct {
	db   *sql.DB
	urls URLResolver
	log  *logger.Logger
	now  func() time.Time
}

type Option func(*Service)

// WithClock replaces the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *sql.DB, urls URLResolver, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		db:   db,
		urls: urls,
		log:  log.With("service", "NoteService"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SplitChecklist returns the non-empty comma separated titles in order.
func SplitChecklist(csv string) []string {
	var titles []string
	for _, title := range strings.Split(csv, ",") {
		if title == "" {
			continue
		}
		titles = append(titles, title)
	}
	return titles
}

// CreateNote writes the note and all of its children in one transaction.
// Attachments must already be in the blob store; they are not removed if the
// transaction fails.
func (s *Service) CreateNote(ctx context.Context, owner models.User, in NewNote) (int64, error) {
	if strings.TrimSpace(owner.Nickname) == "" {
		return 0, ErrNoOwner
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO notes (owner_nickname, title, content, created_at) VALUES (?, ?, ?, ?)",
		owner.Nickname, in.Title, in.Content, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}
	noteID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("note id: %w", err)
	}

	for i, title := range SplitChecklist(in.ChecklistCSV) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO checklist_items (note_id, position, title, checked) VALUES (?, ?, ?, ?)",
			noteID, i, title, false); err != nil {
			return 0, fmt.Errorf("insert checklist item %d: %w", i, err)
		}
	}

	position := 0
	for _, a := range in.Attachments {
		if a.Name == "" || a.FullPath == "" {
			continue
		}
		url, thumbnailURL := s.urls.ResolveURLs(ctx, owner.OwnerID(), a.Name)
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO note_files (note_id, position, name, url, thumbnail_url, full_path) VALUES (?, ?, ?, ?, ?, ?)",
			noteID, position, a.Name, url, nullString(thumbnailURL), a.FullPath); err != nil {
			return 0, fmt.Errorf("insert note file %q: %w", a.Name, err)
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit note: %w", err)
	}

	s.log.Debug("note created", "note_id", noteID, "owner", owner.Nickname, "files", position)
	return noteID, nil
}

// ListNotes returns the owner's notes, newest first, with their children.
func (s *Service) ListNotes(ctx context.Context, owner models.User) ([]models.Note, error) {
	if strings.TrimSpace(owner.Nickname) == "" {
		return nil, ErrNoOwner
	}
	return s.list(ctx, "WHERE n.owner_nickname = ?", owner.Nickname)
}

// ListAllNotes returns every note of every owner.
func (s *Service) ListAllNotes(ctx context.Context) ([]models.Note, error) {
	return s.list(ctx, "")
}

func (s *Service) list(ctx context.Context, where string, args ...interface{}) ([]models.Note, error) {
	// One read transaction so the three queries see the same commits.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	notes, byID, err := queryNotes(ctx, tx, where, args)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}
	if err := queryChecklistItems(ctx, tx, where, args, byID); err != nil {
		return nil, err
	}
	if err := queryFiles(ctx, tx, where, args, byID); err != nil {
		return nil, err
	}

	out := make([]models.Note, len(notes))
	for i, n := range notes {
		out[i] = *n
	}
	return out, nil
}

func queryNotes(ctx context.Context, tx *sql.Tx, where string, args []interface{}) ([]*models.Note, map[int64]*models.Note, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT n.id, n.owner_nickname, n.title, n.content, n.created_at
		FROM notes n `+where+`
		ORDER BY n.created_at DESC, n.id DESC`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	byID := make(map[int64]*models.Note)
	for rows.Next() {
		n := &models.Note{}
		if err := rows.Scan(&n.ID, &n.Owner, &n.Title, &n.Content, &n.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
		byID[n.ID] = n
	}
	return notes, byID, rows.Err()
}

func queryChecklistItems(ctx context.Context, tx *sql.Tx, where string, args []interface{}, byID map[int64]*models.Note) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.note_id, c.position, c.title, c.checked
		FROM checklist_items c JOIN notes n ON n.id = c.note_id `+where+`
		ORDER BY c.note_id, c.position`, args...)
	if err != nil {
		return fmt.Errorf("query checklist items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CheckListItem
		if err := rows.Scan(&item.ID, &item.NoteID, &item.Position, &item.Title, &item.Checked); err != nil {
			return fmt.Errorf("scan checklist item: %w", err)
		}
		if n, ok := byID[item.NoteID]; ok {
			n.CheckListItems = append(n.CheckListItems, item)
		}
	}
	return rows.Err()
}

func queryFiles(ctx context.Context, tx *sql.Tx, where string, args []interface{}, byID map[int64]*models.Note) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT f.id, f.note_id, f.position, f.name, f.url, f.thumbnail_url, f.full_path
		FROM note_files f JOIN notes n ON n.id = f.note_id `+where+`
		ORDER BY f.note_id, f.position`, args...)
	if err != nil {
		return fmt.Errorf("query note files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			f     models.NoteFile
			thumb sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.NoteID, &f.Position, &f.Name, &f.URL, &thumb, &f.FullPath); err != nil {
			return fmt.Errorf("scan note file: %w", err)
		}
		f.ThumbnailURL = thumb.String
		if n, ok := byID[f.NoteID]; ok {
			n.Files = append(n.Files, f)
		}
	}
	return rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
