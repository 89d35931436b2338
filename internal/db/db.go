package db

import (
	"database/sql"
	"fmt"
)

// Open picks the driver named by the configuration.
func Open(driver, path, user, password, host, dbName string) (*sql.DB, error) {
	switch driver {
	case "mysql":
		return OpenMySQL(user, password, host, dbName)
	case "sqlite", "sqlite3", "":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

func migrate(db *sql.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
