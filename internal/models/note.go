package models

import "time"

// Note belongs to exactly one owner, keyed by the owner's nickname.
type Note struct {
	ID             int64
	Owner          string
	Title          string
	Content        string
	CreatedAt      time.Time
	CheckListItems []CheckListItem
	Files          []NoteFile
}

type CheckListItem struct {
	ID       int64
	NoteID   int64
	Position int
	Title    string
	Checked  bool
}

type NoteFile struct {
	ID           int64
	NoteID       int64
	Position     int
	Name         string
	URL          string
	ThumbnailURL string
	FullPath     string
}

// HasThumbnail reports whether the image service produced a thumbnail.
func (f NoteFile) HasThumbnail() bool {
	return f.ThumbnailURL != ""
}
