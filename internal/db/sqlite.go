package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		nickname TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_nickname TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`,

	`CREATE INDEX IF NOT EXISTS idx_notes_owner_created ON notes(owner_nickname, created_at);`,

	`CREATE TABLE IF NOT EXISTS checklist_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		note_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		checked BOOLEAN NOT NULL DEFAULT 0,
		UNIQUE(note_id, position),
		FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE
	);`,

	`CREATE TABLE IF NOT EXISTS note_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		note_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		thumbnail_url TEXT,
		full_path TEXT NOT NULL,
		UNIQUE(note_id, position),
		FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE
	);`,
}

// OpenSQLite opens (or creates) the database file and creates the schema.
func OpenSQLite(filepath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+filepath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := migrate(db, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
