package tui

import (
	"github.com/charmbracelet/bubbles/textinput"

	"driveview/internal/tui/layout"
)

// Mode is the TUI interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch      // search input focused
	ModeViewer      // media viewer overlay
	ModeHelp        // help overlay
)

// SearchState holds the inline search input.
type SearchState struct {
	Input textinput.Model
}

// NewSearchState creates a SearchState with an initialized input.
func NewSearchState(cfg layout.LayoutConfig) SearchState {
	input := textinput.New()
	input.Placeholder = "Search files..."
	input.CharLimit = cfg.Input.SearchCharLimit
	input.Width = cfg.Input.SearchWidth
	return SearchState{Input: input}
}

// Reset clears the search input.
func (s *SearchState) Reset() {
	s.Input.Reset()
	s.Input.Blur()
}
