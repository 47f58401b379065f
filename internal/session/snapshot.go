package session

import (
	"fmt"

	"driveview/internal/derive"
	"driveview/internal/model"
)

// Snapshot is a consistent copy of everything a renderer needs. Slices
// are shared with the session's immutable derive output and must be
// treated as read-only.
type Snapshot struct {
	Phase Phase
	Err   error

	Stack []model.Frame
	View  derive.ViewState

	Displayed []model.Entry
	MediaOnly []model.Entry
	Groups    []derive.Group
	Stats     derive.Stats
	Collapsed map[string]bool

	// ViewerIndex is the open entry's position within MediaOnly, -1 when
	// the viewer is closed.
	ViewerIndex int

	CountLabel string
	RawCount   int
	HasMore    bool

	// Location is the current shareable link, empty before the first
	// settled listing.
	Location string
}

// Snapshot captures the current state under the lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Phase:       s.phase,
		Err:         s.lastErr,
		Stack:       append([]model.Frame(nil), s.stack...),
		View:        s.view,
		Displayed:   s.result.Displayed,
		MediaOnly:   s.result.MediaOnly,
		Groups:      s.result.Groups,
		Stats:       derive.Tally(s.result.Displayed),
		Collapsed:   make(map[string]bool, len(s.collapsed)),
		ViewerIndex: mediaIndex(s.result.MediaOnly, s.view.OpenItemID),
		CountLabel:  countLabel(len(s.result.Displayed)),
		RawCount:    len(s.raw),
		HasMore:     s.cursor != "",
	}
	for k := range s.collapsed {
		snap.Collapsed[k] = true
	}
	if entry, ok := s.hist.Current(); ok {
		snap.Location = entry.Location
	}
	return snap
}

func countLabel(n int) string {
	switch n {
	case 0:
		return "No files"
	case 1:
		return "1 file"
	default:
		return fmt.Sprintf("%d files", n)
	}
}
