// Package storage persists the local gallery state that survives
// sessions: favorite entry ids, curated hidden ids, and per-entry tag
// sets supplied by external taggers.
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// State holds everything persisted locally. Remote entries themselves are
// never cached across sessions.
type State struct {
	Favorites []string            `json:"favorites"`
	Hidden    []string            `json:"hidden"`
	Tags      map[string][]string `json:"tags"`
}

// NewState returns an empty State with initialized containers.
func NewState() *State {
	return &State{
		Favorites: []string{},
		Hidden:    []string{},
		Tags:      map[string][]string{},
	}
}

// IsFavorite reports whether the entry id is favorited.
func (s *State) IsFavorite(id string) bool {
	return contains(s.Favorites, id)
}

// ToggleFavorite adds or removes an entry id from the favorites set and
// returns the new membership.
func (s *State) ToggleFavorite(id string) bool {
	var added bool
	s.Favorites, added = toggle(s.Favorites, id)
	return added
}

// IsHidden reports whether the entry id is in the curation hidden set.
func (s *State) IsHidden(id string) bool {
	return contains(s.Hidden, id)
}

// ToggleHidden adds or removes an entry id from the hidden set and
// returns the new membership.
func (s *State) ToggleHidden(id string) bool {
	var added bool
	s.Hidden, added = toggle(s.Hidden, id)
	return added
}

// TagsFor returns the tag set recorded for an entry id, or nil.
func (s *State) TagsFor(id string) []string {
	return s.Tags[id]
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func toggle(ids []string, id string) ([]string, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), false
		}
	}
	return append(ids, id), true
}

// Storage defines the interface for persisting local gallery state.
type Storage interface {
	Load() (*State, error)
	Save(state *State) error
}

// JSONStorage implements Storage using a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage creates a new JSONStorage with the given file path.
func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the storage file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load reads the state from the JSON file.
// Returns an empty state if the file doesn't exist.
func (s *JSONStorage) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	// Ensure containers are not nil
	if state.Favorites == nil {
		state.Favorites = []string{}
	}
	if state.Hidden == nil {
		state.Hidden = []string{}
	}
	if state.Tags == nil {
		state.Tags = map[string][]string{}
	}

	return &state, nil
}

// Save writes the state to the JSON file.
// Creates the directory if it doesn't exist.
func (s *JSONStorage) Save(state *State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// DefaultStatePath returns the default JSON state path:
// ~/.config/driveview/state.json
func DefaultStatePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "driveview", "state.json"), nil
}

// OpenStorage opens the appropriate storage backend.
// Prefers SQLite if the database file exists, otherwise falls back to JSON.
func OpenStorage() (Storage, error) {
	sqlitePath, err := DefaultSQLitePath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(sqlitePath); err == nil {
		return NewSQLiteStorage(sqlitePath)
	}

	jsonPath, err := DefaultStatePath()
	if err != nil {
		return nil, err
	}
	return NewJSONStorage(jsonPath), nil
}
