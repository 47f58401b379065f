// Package history keeps the ordered list of visited gallery locations and
// supports browser-style back/forward navigation over them.
package history

import "driveview/internal/model"

// WriteMode selects how a location write affects the history.
type WriteMode int

const (
	// Replace mutates the current entry in place. Used for filter, sort,
	// search and viewer changes, and for the corrective rewrite after
	// restoring state from history.
	Replace WriteMode = iota
	// Push creates a new entry, discarding any forward entries. Used when
	// the user drills into a new folder.
	Push
)

// Entry is one addressable gallery state: the encoded location plus the
// breadcrumb trail that was active when it was written, so that going
// back can restore ancestor frames a bare folder id cannot recover.
type Entry struct {
	Location string
	Trail    []model.Frame
}

// History is the navigation history. The zero value is empty; the first
// Write establishes the initial entry regardless of mode.
type History struct {
	entries []Entry
	pos     int
}

// New returns an empty history.
func New() *History {
	return &History{pos: -1}
}

// Write records a location. The mode is an explicit argument: the action
// that triggered the state change decides push vs. replace and threads it
// through to this single write site.
func (h *History) Write(e Entry, mode WriteMode) {
	e.Trail = cloneTrail(e.Trail)
	if h.pos < 0 {
		h.entries = []Entry{e}
		h.pos = 0
		return
	}
	if mode == Push {
		h.entries = append(h.entries[:h.pos+1], e)
		h.pos++
		return
	}
	h.entries[h.pos] = e
}

// Back moves to the previous entry. Returns false at the beginning.
func (h *History) Back() (Entry, bool) {
	if h.pos <= 0 {
		return Entry{}, false
	}
	h.pos--
	return h.current(), true
}

// Forward moves to the next entry. Returns false at the end.
func (h *History) Forward() (Entry, bool) {
	if h.pos < 0 || h.pos >= len(h.entries)-1 {
		return Entry{}, false
	}
	h.pos++
	return h.current(), true
}

// Current returns the entry at the cursor, or false when nothing has been
// written yet.
func (h *History) Current() (Entry, bool) {
	if h.pos < 0 {
		return Entry{}, false
	}
	return h.current(), true
}

// Len returns the number of entries held.
func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) current() Entry {
	e := h.entries[h.pos]
	e.Trail = cloneTrail(e.Trail)
	return e
}

func cloneTrail(trail []model.Frame) []model.Frame {
	if trail == nil {
		return nil
	}
	out := make([]model.Frame, len(trail))
	copy(out, trail)
	return out
}
