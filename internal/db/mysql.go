package db

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		nickname VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB;`,

	`CREATE TABLE IF NOT EXISTS notes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		owner_nickname VARCHAR(255) NOT NULL,
		title VARCHAR(500) NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_notes_owner_created (owner_nickname, created_at)
	) ENGINE=InnoDB;`,

	`CREATE TABLE IF NOT EXISTS checklist_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		note_id BIGINT NOT NULL,
		position INT NOT NULL,
		title VARCHAR(500) NOT NULL,
		checked BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE KEY uq_checklist_position (note_id, position),
		FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE
	) ENGINE=InnoDB;`,

	`CREATE TABLE IF NOT EXISTS note_files (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		note_id BIGINT NOT NULL,
		position INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		url TEXT NOT NULL,
		thumbnail_url TEXT NULL,
		full_path VARCHAR(1024) NOT NULL,
		UNIQUE KEY uq_file_position (note_id, position),
		FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE
	) ENGINE=InnoDB;`,
}

// OpenMySQL connects to MySQL and creates the schema.
func OpenMySQL(user, password, host, dbName string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC", user, password, host, dbName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	if err := migrate(db, mysqlSchema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
