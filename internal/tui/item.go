package tui

import (
	"fmt"

	"driveview/internal/model"
	"driveview/internal/session"
)

// RowKind distinguishes entry rows from timeline month headers.
type RowKind int

const (
	RowEntry RowKind = iota
	RowHeader
)

// Row is one navigable line of the gallery list.
type Row struct {
	Kind     RowKind
	Entry    *model.Entry
	GroupKey string // set on headers and on entries inside a group
	Label    string // header text
}

// IsEntry returns true if this row is an entry.
func (r Row) IsEntry() bool {
	return r.Kind == RowEntry
}

// buildRows flattens a snapshot into navigable rows. In timeline view
// each month contributes a header row plus its entries, with collapsed
// months contributing the header only. Otherwise the displayed entries
// map one to one.
func buildRows(snap session.Snapshot) []Row {
	if snap.Groups == nil {
		rows := make([]Row, 0, len(snap.Displayed))
		for i := range snap.Displayed {
			rows = append(rows, Row{Kind: RowEntry, Entry: &snap.Displayed[i]})
		}
		return rows
	}

	var rows []Row
	for gi := range snap.Groups {
		g := &snap.Groups[gi]
		rows = append(rows, Row{Kind: RowHeader, GroupKey: g.Key, Label: g.Label})
		if snap.Collapsed[g.Key] {
			continue
		}
		for i := range g.Entries {
			rows = append(rows, Row{Kind: RowEntry, Entry: &g.Entries[i], GroupKey: g.Key})
		}
	}
	return rows
}

// entryIcon returns a one-column marker per entry kind.
func entryIcon(k model.Kind) string {
	switch k {
	case model.KindFolder:
		return "▸"
	case model.KindImage:
		return "◩"
	case model.KindVideo:
		return "▶"
	case model.KindAudio:
		return "♪"
	case model.KindDocument:
		return "≡"
	default:
		return "·"
	}
}

// formatSize renders a byte count compactly. A missing size renders
// empty rather than as "0 B".
func formatSize(n int64) string {
	if n <= 0 {
		return ""
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
