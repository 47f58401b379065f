package tui

import (
	"context"
	"errors"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"driveview/internal/derive"
	"driveview/internal/exporter"
	"driveview/internal/model"
	"driveview/internal/session"
	"driveview/internal/storage"
	"driveview/internal/tui/layout"
)

// RefreshMsg asks the app to re-read the session snapshot. The session's
// change callback forwards it through tea.Program.Send so background
// settles (poll merges, lazy name resolution) repaint the screen.
type RefreshMsg struct{}

// navResultMsg carries the outcome of an asynchronous navigation.
type navResultMsg struct {
	err error
}

// loadedMoreMsg carries the outcome of a LoadMore.
type loadedMoreMsg struct {
	added int
	err   error
}

// refreshedMsg carries the outcome of a manual live-update check.
type refreshedMsg struct {
	added int
}

// Visibility is the poller surface the app drives on focus changes.
type Visibility interface {
	SetVisible(bool)
	RunOnce(ctx context.Context) int
}

// App is the main bubbletea model for the gallery.
type App struct {
	session  *session.Session
	curation *storage.Curation
	poller   Visibility

	keys         KeyMap
	styles       Styles
	layoutConfig layout.LayoutConfig

	mode   Mode
	search SearchState
	snap   session.Snapshot
	rows   []Row
	cursor int

	// Initial target, consumed by Init.
	initialFolderID string
	initialLocation string

	// For gg command
	lastKeyWasG bool

	status string

	// Window dimensions
	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Session  *session.Session
	Curation *storage.Curation
	Poller   Visibility // optional

	// FolderID is the folder to open on start. Location, when set,
	// takes precedence and restores the full view state of a deep link.
	FolderID string
	Location string

	Keys   *KeyMap // optional, uses default if nil
	Styles *Styles // optional, uses default if nil
}

// NewApp creates a new App with the given parameters.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	cfg := layout.DefaultConfig()

	return App{
		session:         params.Session,
		curation:        params.Curation,
		poller:          params.Poller,
		keys:            keys,
		styles:          styles,
		layoutConfig:    cfg,
		search:          NewSearchState(cfg),
		initialFolderID: params.FolderID,
		initialLocation: params.Location,
		width:           80,
		height:          24,
	}
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Mode returns the current interaction mode.
func (a App) Mode() Mode {
	return a.mode
}

// Rows returns the current navigable rows.
func (a App) Rows() []Row {
	return a.rows
}

// Init implements tea.Model. It kicks off the initial navigation.
func (a App) Init() tea.Cmd {
	sess := a.session
	if a.initialLocation != "" {
		loc := a.initialLocation
		return func() tea.Msg {
			return navResultMsg{err: sess.OpenLocation(context.Background(), loc)}
		}
	}
	id := a.initialFolderID
	return func() tea.Msg {
		return navResultMsg{err: sess.Enter(context.Background(), id, "")}
	}
}

// refresh re-reads the snapshot and rebuilds rows, keeping the cursor
// on the same entry when it survived the change.
func (a *App) refresh() {
	var prevID string
	if a.cursor < len(a.rows) && a.rows[a.cursor].IsEntry() {
		prevID = a.rows[a.cursor].Entry.ID
	}

	a.snap = a.session.Snapshot()
	a.rows = buildRows(a.snap)

	if prevID != "" {
		for i, r := range a.rows {
			if r.IsEntry() && r.Entry.ID == prevID {
				a.cursor = i
				return
			}
		}
	}
	if a.cursor >= len(a.rows) {
		a.cursor = len(a.rows) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// currentEntry returns the entry under the cursor, or nil.
func (a *App) currentEntry() *model.Entry {
	if a.cursor < len(a.rows) && a.rows[a.cursor].IsEntry() {
		return a.rows[a.cursor].Entry
	}
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.FocusMsg:
		if a.poller != nil {
			a.poller.SetVisible(true)
		}
		return a, nil

	case tea.BlurMsg:
		if a.poller != nil {
			a.poller.SetVisible(false)
		}
		return a, nil

	case RefreshMsg:
		a.refresh()
		return a, nil

	case navResultMsg:
		if msg.err != nil && !errors.Is(msg.err, session.ErrListingInFlight) {
			a.status = msg.err.Error()
		}
		a.refresh()
		return a, nil

	case loadedMoreMsg:
		switch {
		case msg.err != nil:
			a.status = msg.err.Error()
		case msg.added > 0:
			a.status = countLabelFor(msg.added) + " loaded"
		}
		a.refresh()
		return a, nil

	case refreshedMsg:
		if msg.added > 0 {
			a.status = countLabelFor(msg.added) + " appeared"
		} else {
			a.status = "up to date"
		}
		a.refresh()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.mode {
	case ModeSearch:
		return a.updateSearch(msg)
	case ModeViewer:
		return a.updateViewer(msg)
	case ModeHelp:
		if key.Matches(msg, a.keys.Help) || key.Matches(msg, a.keys.Quit) || key.Matches(msg, a.keys.Close) {
			a.mode = ModeNormal
		}
		return a, nil
	}
	return a.updateNormal(msg)
}

func (a App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.status = ""

	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp

	case key.Matches(msg, a.keys.Down):
		if len(a.rows) > 0 && a.cursor < len(a.rows)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(a.rows) > 0 {
			a.cursor = len(a.rows) - 1
		}

	case key.Matches(msg, a.keys.Open):
		return a.openSelection()

	case key.Matches(msg, a.keys.Back):
		sess := a.session
		return a, func() tea.Msg {
			return navResultMsg{err: sess.Back(context.Background())}
		}

	case key.Matches(msg, a.keys.Forward):
		sess := a.session
		return a, func() tea.Msg {
			return navResultMsg{err: sess.Forward(context.Background())}
		}

	case key.Matches(msg, a.keys.Search):
		a.mode = ModeSearch
		return a, a.search.Input.Focus()

	case key.Matches(msg, a.keys.Sort):
		a.session.SetSort(nextSort(a.snap.View.Sort))
		a.refresh()

	case key.Matches(msg, a.keys.Filter):
		a.session.SetFilter(nextFilter(a.snap.View.Filter))
		a.refresh()

	case key.Matches(msg, a.keys.ViewMode):
		if a.snap.View.ViewMode == "" {
			a.session.SetViewMode("list")
		} else {
			a.session.SetViewMode("")
		}
		a.refresh()

	case key.Matches(msg, a.keys.LoadMore):
		sess := a.session
		return a, func() tea.Msg {
			added, err := sess.LoadMore(context.Background())
			return loadedMoreMsg{added: added, err: err}
		}

	case key.Matches(msg, a.keys.Refresh):
		if a.poller == nil {
			return a, nil
		}
		p := a.poller
		return a, func() tea.Msg {
			return refreshedMsg{added: p.RunOnce(context.Background())}
		}

	case key.Matches(msg, a.keys.Favorite):
		if e := a.currentEntry(); e != nil {
			on, err := a.curation.ToggleFavorite(e.ID)
			if err != nil {
				a.status = err.Error()
			} else if on {
				a.status = "favorited"
			} else {
				a.status = "unfavorited"
			}
			a.session.Rederive()
			a.refresh()
		}

	case key.Matches(msg, a.keys.Hide):
		if e := a.currentEntry(); e != nil {
			if _, err := a.curation.ToggleHidden(e.ID); err != nil {
				a.status = err.Error()
			} else {
				a.status = "hidden"
			}
			a.session.Rederive()
			a.refresh()
		}

	case key.Matches(msg, a.keys.YankLink):
		if e := a.currentEntry(); e != nil {
			if err := clipboard.WriteAll(exporter.EntryURL(*e)); err != nil {
				a.status = err.Error()
			} else {
				a.status = "link copied"
			}
		}

	case key.Matches(msg, a.keys.Collapse):
		if k := a.currentGroupKey(); k != "" {
			a.session.ToggleGroup(k)
			a.refresh()
		}
	}

	return a, nil
}

// openSelection opens the row under the cursor: folders are entered,
// media opens the viewer, headers toggle their month fold.
func (a App) openSelection() (tea.Model, tea.Cmd) {
	if a.cursor >= len(a.rows) {
		return a, nil
	}
	row := a.rows[a.cursor]
	if row.Kind == RowHeader {
		a.session.ToggleGroup(row.GroupKey)
		a.refresh()
		return a, nil
	}

	e := row.Entry
	if e.Kind() == model.KindFolder {
		sess := a.session
		id, name := e.ID, e.Name
		return a, func() tea.Msg {
			return navResultMsg{err: sess.Enter(context.Background(), id, name)}
		}
	}
	if e.IsMedia() {
		a.session.OpenItem(e.ID)
		a.refresh()
		if a.snap.ViewerIndex >= 0 {
			a.mode = ModeViewer
		}
	}
	return a, nil
}

func (a App) updateViewer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Close), key.Matches(msg, a.keys.Quit):
		a.session.CloseItem()
		a.refresh()
		a.mode = ModeNormal

	case key.Matches(msg, a.keys.Next):
		a.session.StepItem(1)
		a.refresh()

	case key.Matches(msg, a.keys.Prev):
		a.session.StepItem(-1)
		a.refresh()

	case key.Matches(msg, a.keys.Favorite):
		if i := a.snap.ViewerIndex; i >= 0 && i < len(a.snap.MediaOnly) {
			if _, err := a.curation.ToggleFavorite(a.snap.MediaOnly[i].ID); err != nil {
				a.status = err.Error()
			}
			a.session.Rederive()
			a.refresh()
			if a.snap.ViewerIndex < 0 {
				// The open entry fell out of the displayed set.
				a.mode = ModeNormal
			}
		}
	}
	return a, nil
}

func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		a.session.FlushSearch()
		a.search.Input.Blur()
		a.mode = ModeNormal
		a.refresh()
		return a, nil

	case tea.KeyEsc:
		a.session.SetSearch("")
		a.session.FlushSearch()
		a.search.Reset()
		a.mode = ModeNormal
		a.refresh()
		return a, nil
	}

	var cmd tea.Cmd
	a.search.Input, cmd = a.search.Input.Update(msg)
	a.session.SetSearch(a.search.Input.Value())
	return a, cmd
}

// currentGroupKey returns the month key the cursor sits in, if any.
func (a App) currentGroupKey() string {
	if a.cursor < len(a.rows) {
		return a.rows[a.cursor].GroupKey
	}
	return ""
}

// nextSort cycles name asc/desc, date asc/desc, size asc/desc, timeline.
func nextSort(s derive.Sort) derive.Sort {
	order := []derive.Sort{
		{Key: derive.SortName},
		{Key: derive.SortName, Desc: true},
		{Key: derive.SortDate},
		{Key: derive.SortDate, Desc: true},
		{Key: derive.SortSize},
		{Key: derive.SortSize, Desc: true},
		{Key: derive.SortTimeline},
	}
	for i, o := range order {
		if o == s {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// nextFilter cycles all, kinds, favorites.
func nextFilter(f derive.Filter) derive.Filter {
	order := []derive.Filter{
		derive.FilterAll,
		derive.Filter(model.KindImage.String()),
		derive.Filter(model.KindVideo.String()),
		derive.Filter(model.KindAudio.String()),
		derive.Filter(model.KindDocument.String()),
		derive.Filter(model.KindFolder.String()),
		derive.FilterFavorites,
	}
	for i, o := range order {
		if o == f {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}
