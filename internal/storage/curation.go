package storage

import (
	"sync"

	"driveview/internal/derive"
)

// Curation wraps the persisted state with a lock so the derive pipeline
// can read favorites, hidden ids and tags from background merges while
// the UI toggles them.
type Curation struct {
	mu    sync.Mutex
	state *State
	store Storage
}

// NewCuration loads the persisted state from store.
func NewCuration(store Storage) (*Curation, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Curation{state: state, store: store}, nil
}

// Aux returns the predicate set the pipeline consumes. The closures are
// safe to call from any goroutine.
func (c *Curation) Aux() derive.Aux {
	return derive.Aux{
		Hidden: func(id string) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.state.IsHidden(id)
		},
		Favorite: func(id string) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.state.IsFavorite(id)
		},
		Tags: func(id string) []string {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.state.TagsFor(id)
		},
	}
}

// ToggleFavorite flips an entry's favorite mark and persists.
func (c *Curation) ToggleFavorite(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	on := c.state.ToggleFavorite(id)
	return on, c.store.Save(c.state)
}

// ToggleHidden flips an entry's hidden mark and persists.
func (c *Curation) ToggleHidden(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	on := c.state.ToggleHidden(id)
	return on, c.store.Save(c.state)
}

// IsFavorite reports whether an entry is marked favorite.
func (c *Curation) IsFavorite(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsFavorite(id)
}

// AddFavorites marks every id as favorite and persists once. Returns
// how many were newly added.
func (c *Curation) AddFavorites(ids []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := 0
	for _, id := range ids {
		if !c.state.IsFavorite(id) {
			c.state.ToggleFavorite(id)
			added++
		}
	}
	return added, c.store.Save(c.state)
}

// Favorites returns a copy of the favorite id list.
func (c *Curation) Favorites() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.state.Favorites...)
}
