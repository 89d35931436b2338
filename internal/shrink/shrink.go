// Package shrink resizes every image attached to notes so that neither side
// exceeds MaxDimension. Running it again over shrunk files is harmless.
package shrink

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahsanfayaz52/notesservice/internal/imaging"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/mailer"
	"github.com/ahsanfayaz52/notesservice/internal/models"
	"github.com/ahsanfayaz52/notesservice/internal/storage"
)

const MaxDimension = 640

const (
	notificationSubject = "Shrink complete"
	notificationBody    = "All images attached to your notes have been shrunk"
)

type NoteLister interface {
	ListNotes(ctx context.Context, owner models.User) ([]models.Note, error)
	ListAllNotes(ctx context.Context) ([]models.Note, error)
}

type Result struct {
	Shrunk  int
	Skipped int
	Failed  int
}

type Shrinker struct {
	log      *logger.Logger
	notes    NoteLister
	store    storage.Store
	mail     mailer.Sender
	mailFrom string
}

func New(log *logger.Logger, notes NoteLister, store storage.Store, mail mailer.Sender, mailFrom string) *Shrinker {
	return &Shrinker{
		log:      log.With("service", "Shrinker"),
		notes:    notes,
		store:    store,
		mail:     mail,
		mailFrom: mailFrom,
	}
}

// ShrinkAllNotesFor shrinks the owner's attachments and emails the owner.
func (s *Shrinker) ShrinkAllNotesFor(ctx context.Context, owner models.User) (Result, error) {
	notes, err := s.notes.ListNotes(ctx, owner)
	if err != nil {
		return Result{}, fmt.Errorf("list notes for %s: %w", owner.Nickname, err)
	}
	res := s.shrinkNotes(ctx, notes)

	if err := s.mail.Send(ctx, mailer.Message{
		From:    s.mailFrom,
		To:      owner.Email,
		Subject: notificationSubject,
		Body:    notificationBody,
	}); err != nil {
		return res, fmt.Errorf("notify %s: %w", owner.Nickname, err)
	}
	s.log.Info("owner shrink complete", "owner", owner.Nickname, "shrunk", res.Shrunk, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

// ShrinkAllNotes is the scheduled variant; it sends no notification.
func (s *Shrinker) ShrinkAllNotes(ctx context.Context) (Result, error) {
	notes, err := s.notes.ListAllNotes(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list all notes: %w", err)
	}
	res := s.shrinkNotes(ctx, notes)
	s.log.Info("scheduled shrink complete", "notes", len(notes), "shrunk", res.Shrunk, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func (s *Shrinker) shrinkNotes(ctx context.Context, notes []models.Note) Result {
	var res Result
	for _, note := range notes {
		for _, f := range note.Files {
			if ctx.Err() != nil {
				return res
			}
			switch err := s.shrinkFile(ctx, f.FullPath); {
			case err == nil:
				res.Shrunk++
			case errors.Is(err, imaging.ErrNotImage):
				res.Skipped++
			case errors.Is(err, storage.ErrNotFound):
				s.log.Warn("attachment missing from storage", "note_id", note.ID, "path", f.FullPath)
				res.Skipped++
			default:
				s.log.Error("shrink failed", "note_id", note.ID, "path", f.FullPath, "error", err)
				res.Failed++
			}
		}
	}
	return res
}

func (s *Shrinker) shrinkFile(ctx context.Context, fullPath string) error {
	data, err := storage.ReadFile(ctx, s.store, fullPath)
	if err != nil {
		return err
	}
	shrunk, contentType, err := imaging.Shrink(data, MaxDimension)
	if err != nil {
		return err
	}
	return storage.WriteFile(ctx, s.store, fullPath, storage.WriteOptions{
		ContentType: contentType,
		PublicRead:  true,
	}, shrunk)
}
