package layout

// LayoutConfig holds all layout-related configuration values.
type LayoutConfig struct {
	List  ListConfig
	Modal ModalConfig
	Input InputConfig
	Text  TextConfig
}

// ListConfig holds gallery list dimension configuration.
type ListConfig struct {
	// HeightReduction is subtracted from terminal height for list content.
	// Accounts for: app padding (1) + breadcrumb (1) + status line (1) +
	// tab bar (1) + help bar (3) = 7
	HeightReduction int

	// MinHeight is the minimum list height.
	MinHeight int

	// ContentPadding is subtracted from terminal width for row rendering.
	ContentPadding int

	// GroupHeaderLines is the height of a timeline month header row.
	GroupHeaderLines int
}

// ModalConfig holds modal dialog configuration (viewer, help overlay).
type ModalConfig struct {
	// DefaultWidthPercent is the standard modal width as percentage of terminal width.
	DefaultWidthPercent int

	// ViewerWidthPercent is used for the media viewer overlay.
	ViewerWidthPercent int

	// MinWidth is the minimum modal width in characters.
	MinWidth int

	// MaxWidth is the maximum modal width in characters.
	MaxWidth int

	// HelpLeftColumnWidth: width for help overlay left column.
	HelpLeftColumnWidth int

	// HelpRightColumnWidth: width for help overlay right column.
	HelpRightColumnWidth int
}

// InputConfig holds text input configuration.
type InputConfig struct {
	SearchCharLimit int
	SearchWidth     int
}

// TextConfig holds text truncation configuration.
type TextConfig struct {
	// Ellipsis is the string used to indicate truncation.
	Ellipsis string
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() LayoutConfig {
	return LayoutConfig{
		List: ListConfig{
			HeightReduction:  7, // app padding (1) + breadcrumb (1) + status (1) + tabs (1) + help bar (3)
			MinHeight:        5,
			ContentPadding:   6,
			GroupHeaderLines: 1,
		},
		Modal: ModalConfig{
			DefaultWidthPercent:  40,
			ViewerWidthPercent:   70,
			MinWidth:             50,
			MaxWidth:             100,
			HelpLeftColumnWidth:  18,
			HelpRightColumnWidth: 24,
		},
		Input: InputConfig{
			SearchCharLimit: 100,
			SearchWidth:     40,
		},
		Text: TextConfig{
			Ellipsis: "...",
		},
	}
}
