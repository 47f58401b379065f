package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"driveview/internal/derive"
	"driveview/internal/model"
	"driveview/internal/remote"
	"driveview/internal/session"
	"driveview/internal/tui/layout"
)

// renderView creates the complete gallery view.
func (a App) renderView() string {
	switch a.mode {
	case ModeHelp:
		return a.renderHelp()
	case ModeViewer:
		return a.renderViewer()
	}

	breadcrumb := a.renderBreadcrumb()
	status := a.renderStatusLine()
	tabs := a.renderTabBar()

	var body string
	switch a.snap.Phase {
	case session.PhaseListing:
		body = a.styles.Empty.Render("Loading...")
	case session.PhaseErrored:
		body = a.renderError()
	default:
		body = a.renderList()
	}

	helpBar := a.renderHelpBar()

	content := a.styles.App.Render(
		lipgloss.JoinVertical(lipgloss.Left, breadcrumb, status, tabs, body, helpBar),
	)

	// Use Place to ensure exact terminal dimensions and prevent overflow
	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top, content)
}

// renderBreadcrumb renders the folder trail above the list.
func (a App) renderBreadcrumb() string {
	names := make([]string, 0, len(a.snap.Stack))
	for _, f := range a.snap.Stack {
		names = append(names, f.Name)
	}
	path := strings.Join(names, " / ")
	if path == "" {
		path = "driveview"
	}

	// Terminal width minus app padding: left=2, right=2
	availableWidth := a.width - 4
	path = layout.TruncatePathFromLeft(path, availableWidth, a.layoutConfig.Text)

	return a.styles.Breadcrumb.Render(path)
}

// renderStatusLine renders the count label, kind tallies and transient
// status messages.
func (a App) renderStatusLine() string {
	var parts []string
	parts = append(parts, a.snap.CountLabel)

	st := a.snap.Stats
	if st.Images > 0 {
		parts = append(parts, fmt.Sprintf("%d img", st.Images))
	}
	if st.Videos > 0 {
		parts = append(parts, fmt.Sprintf("%d vid", st.Videos))
	}
	if st.Folders > 0 {
		parts = append(parts, fmt.Sprintf("%d dir", st.Folders))
	}
	if s := formatSize(st.TotalBytes); s != "" {
		parts = append(parts, s)
	}
	if a.snap.HasMore {
		parts = append(parts, "more available (m)")
	}
	line := strings.Join(parts, " · ")

	if a.status != "" {
		line += "  " + a.styles.Title.Render(a.status)
	}
	return a.styles.Status.Render(line)
}

// renderTabBar renders the filter tabs plus the active sort, view mode
// and search query.
func (a App) renderTabBar() string {
	tabs := []derive.Filter{
		derive.FilterAll,
		derive.Filter(model.KindImage.String()),
		derive.Filter(model.KindVideo.String()),
		derive.Filter(model.KindAudio.String()),
		derive.Filter(model.KindDocument.String()),
		derive.Filter(model.KindFolder.String()),
		derive.FilterFavorites,
	}

	active := a.snap.View.Filter
	if active == "" {
		active = derive.FilterAll
	}

	var b strings.Builder
	for _, t := range tabs {
		style := a.styles.Tab
		if t == active {
			style = a.styles.TabActive
		}
		b.WriteString(style.Render(string(t)))
	}

	b.WriteString(a.styles.Detail.Render("  sort:" + a.snap.View.Sort.String()))
	if a.snap.View.ViewMode != "" {
		b.WriteString(a.styles.Detail.Render(" view:" + a.snap.View.ViewMode))
	}

	if a.mode == ModeSearch {
		b.WriteString("  " + a.search.Input.View())
	} else if q := a.snap.View.Search; q != "" {
		b.WriteString(a.styles.Detail.Render("  /" + q))
	}

	return b.String()
}

// renderList renders the scrollable row list.
func (a App) renderList() string {
	if len(a.rows) == 0 {
		if a.snap.View.Search != "" || a.snap.View.Filter != derive.FilterAll {
			return a.styles.Empty.Render("Nothing matches.")
		}
		return a.styles.Empty.Render("This folder is empty.")
	}

	listHeight := layout.CalculateListHeight(a.height, a.layoutConfig.List)
	rowWidth := layout.CalculateRowWidth(a.width, a.layoutConfig.List)
	start, end := layout.CalculateVisibleListItems(listHeight, a.cursor, len(a.rows))

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(a.renderRow(a.rows[i], i == a.cursor, rowWidth))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderRow renders one list line.
func (a App) renderRow(r Row, selected bool, width int) string {
	if r.Kind == RowHeader {
		marker := "▾"
		if a.snap.Collapsed[r.GroupKey] {
			marker = "▸"
		}
		line := fmt.Sprintf("%s %s", marker, r.Label)
		if selected {
			return a.styles.ItemSelected.Render(line)
		}
		return a.styles.GroupHeader.Render(line)
	}

	e := r.Entry
	name := e.Name
	if a.snap.Collapsed != nil && r.GroupKey != "" {
		name = "  " + name
	}

	mark := " "
	if a.curation != nil && a.curation.IsFavorite(e.ID) {
		mark = "*"
	}

	detail := ""
	if a.snap.View.ViewMode == "list" {
		fields := []string{}
		if s := formatSize(e.Size); s != "" {
			fields = append(fields, s)
		}
		if !e.ModifiedAt.IsZero() {
			fields = append(fields, e.ModifiedAt.Format("2006-01-02"))
		}
		if e.OwnerTag != "" {
			fields = append(fields, e.OwnerTag)
		}
		detail = strings.Join(fields, "  ")
	}

	line := fmt.Sprintf("%s %s %s", entryIcon(e.Kind()), mark, name)
	if detail != "" {
		line += "  " + detail
	}
	line, _ = layout.TruncateText(line, width, a.layoutConfig.Text)

	if selected {
		return a.styles.ItemSelected.Render(line)
	}
	if e.Kind() == model.KindFolder {
		return a.styles.Item.Render(a.styles.Folder.Render(line))
	}
	return a.styles.Item.Render(line)
}

// renderError renders the failed-listing state.
func (a App) renderError() string {
	msg := "Listing failed."
	if a.snap.Err != nil {
		if remote.IsAuthExpired(a.snap.Err) {
			msg = "Your session expired. Sign in again to continue."
		} else {
			msg = a.snap.Err.Error()
		}
	}
	return a.styles.Error.Render(msg) + "\n\n" +
		a.styles.Empty.Render("r: retry  h: back  q: quit")
}

// renderViewer renders the media viewer overlay.
func (a App) renderViewer() string {
	i := a.snap.ViewerIndex
	if i < 0 || i >= len(a.snap.MediaOnly) {
		return a.renderView()
	}
	e := a.snap.MediaOnly[i]

	width := layout.CalculateModalWidth(a.width, a.layoutConfig.Modal.ViewerWidthPercent, a.layoutConfig.Modal)

	var b strings.Builder
	b.WriteString(a.styles.Title.Render(e.Name) + "\n\n")
	b.WriteString(a.styles.Detail.Render(e.Kind().String()))
	if s := formatSize(e.Size); s != "" {
		b.WriteString(a.styles.Detail.Render("  " + s))
	}
	if !e.ModifiedAt.IsZero() {
		b.WriteString(a.styles.Date.Render("  " + e.ModifiedAt.Format("2006-01-02 15:04")))
	}
	if e.OwnerTag != "" {
		b.WriteString(a.styles.Detail.Render("  by " + e.OwnerTag))
	}
	b.WriteString("\n")
	if e.ThumbnailLink != "" {
		b.WriteString(a.styles.Detail.Render(e.ThumbnailLink) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Empty.Render(fmt.Sprintf("%d / %d", i+1, len(a.snap.MediaOnly))))
	b.WriteString("\n\n")
	b.WriteString(a.renderHintsInline([]Hint{
		{Key: "n/p", Desc: "step"},
		{Key: "*", Desc: "favorite"},
		{Key: "Esc", Desc: "close"},
	}))

	modal := a.styles.Modal.Width(width).Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, modal)
}

// renderHelp renders the full-screen key reference.
func (a App) renderHelp() string {
	left := [][2]string{
		{"j/k", "move down/up"},
		{"gg/G", "jump to top/bottom"},
		{"l/Enter", "enter folder / open media"},
		{"h", "history back"},
		{"f", "history forward"},
		{"/", "search"},
		{"Tab", "cycle filter"},
		{"o", "cycle sort"},
		{"v", "toggle list details"},
	}
	right := [][2]string{
		{"m", "load more entries"},
		{"r", "check for new files"},
		{"*", "toggle favorite"},
		{"x", "hide entry"},
		{"Y", "copy share link"},
		{"z", "fold month group"},
		{"?", "close help"},
		{"q", "quit"},
	}

	lw := a.layoutConfig.Modal.HelpLeftColumnWidth
	rw := a.layoutConfig.Modal.HelpRightColumnWidth

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("driveview keys") + "\n\n")
	rows := len(left)
	if len(right) > rows {
		rows = len(right)
	}
	for i := 0; i < rows; i++ {
		var l, r string
		if i < len(left) {
			l = fmt.Sprintf("%-*s %s", lw, left[i][0], left[i][1])
		}
		if i < len(right) {
			r = fmt.Sprintf("%-*s %s", rw, right[i][0], right[i][1])
		}
		b.WriteString(fmt.Sprintf("%-40s%s\n", l, r))
	}

	width := layout.CalculateModalWidth(a.width, a.layoutConfig.Modal.ViewerWidthPercent, a.layoutConfig.Modal)
	modal := a.styles.Modal.Width(width).Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, modal)
}

// renderHelpBar renders the contextual hint bar at the bottom.
func (a App) renderHelpBar() string {
	return a.styles.Help.Render(a.renderHints(a.getContextualHints()))
}

func countLabelFor(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
