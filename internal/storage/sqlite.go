package storage

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 1

// SQLiteStorage implements Storage using a SQLite database.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLiteStorage with the given database path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteStorage{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// migrate runs database migrations.
func (s *SQLiteStorage) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the initial schema.
func (s *SQLiteStorage) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS favorites (
			entry_id TEXT PRIMARY KEY NOT NULL
		);

		CREATE TABLE IF NOT EXISTS hidden (
			entry_id TEXT PRIMARY KEY NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tags (
			entry_id TEXT PRIMARY KEY NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]'
		);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the state from the SQLite database.
func (s *SQLiteStorage) Load() (*State, error) {
	state := NewState()

	rows, err := s.db.Query("SELECT entry_id FROM favorites ORDER BY entry_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		state.Favorites = append(state.Favorites, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query("SELECT entry_id FROM hidden ORDER BY entry_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		state.Hidden = append(state.Hidden, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query("SELECT entry_id, tags FROM tags")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, tagsJSON string
		if err := rows.Scan(&id, &tagsJSON); err != nil {
			return nil, err
		}
		var tags []string
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			tags = []string{}
		}
		state.Tags[id] = tags
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return state, nil
}

// Save writes the state to the SQLite database.
// Uses a transaction for atomicity - all or nothing.
func (s *SQLiteStorage) Save(state *State) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"favorites", "hidden", "tags"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	favStmt, err := tx.Prepare("INSERT INTO favorites (entry_id) VALUES (?)")
	if err != nil {
		return err
	}
	defer favStmt.Close()

	for _, id := range state.Favorites {
		if _, err := favStmt.Exec(id); err != nil {
			return err
		}
	}

	hiddenStmt, err := tx.Prepare("INSERT INTO hidden (entry_id) VALUES (?)")
	if err != nil {
		return err
	}
	defer hiddenStmt.Close()

	for _, id := range state.Hidden {
		if _, err := hiddenStmt.Exec(id); err != nil {
			return err
		}
	}

	tagStmt, err := tx.Prepare("INSERT INTO tags (entry_id, tags) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer tagStmt.Close()

	for id, tags := range state.Tags {
		tagsJSON, _ := json.Marshal(tags)
		if tags == nil {
			tagsJSON = []byte("[]")
		}
		if _, err := tagStmt.Exec(id, string(tagsJSON)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DefaultSQLitePath returns the default database path:
// ~/.config/driveview/state.db
func DefaultSQLitePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "driveview", "state.db"), nil
}
