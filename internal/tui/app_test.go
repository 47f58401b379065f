package tui_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"driveview/internal/model"
	"driveview/internal/remote"
	"driveview/internal/session"
	"driveview/internal/storage"
	"driveview/internal/tui"
)

// fakeLister serves a fixed folder tree.
type fakeLister struct {
	folders map[string][]model.Entry
}

func (f *fakeLister) FetchPage(_ context.Context, folderID, _ string) (remote.Page, error) {
	return remote.Page{Entries: f.folders[folderID]}, nil
}

func (f *fakeLister) ListFolder(_ context.Context, folderID, _ string, _ int) ([]model.Entry, string, error) {
	return f.folders[folderID], "", nil
}

func (f *fakeLister) FolderName(_ context.Context, folderID string) string {
	return "Folder " + folderID
}

func image(id, name string) model.Entry {
	return model.Entry{ID: id, Name: name, MimeType: "image/jpeg", Size: 100,
		ModifiedAt: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
}

func folder(id, name string) model.Entry {
	return model.Entry{ID: id, Name: name, MimeType: "application/vnd.google-apps.folder"}
}

// newTestApp builds an app over a session already showing folder "root".
func newTestApp(t *testing.T) (tui.App, *session.Session, *storage.Curation) {
	t.Helper()

	lister := &fakeLister{folders: map[string][]model.Entry{
		"root": {
			image("a", "alpha.jpg"),
			image("b", "beta.jpg"),
			folder("sub", "Subfolder"),
		},
		"sub": {
			image("c", "gamma.jpg"),
		},
	}}

	store := storage.NewJSONStorage(filepath.Join(t.TempDir(), "state.json"))
	curation, err := storage.NewCuration(store)
	if err != nil {
		t.Fatalf("curation: %v", err)
	}

	sess := session.New(lister, curation.Aux(), zerolog.Nop(), session.Config{})
	if err := sess.Enter(context.Background(), "root", "Root"); err != nil {
		t.Fatalf("enter: %v", err)
	}

	app := tui.NewApp(tui.AppParams{Session: sess, Curation: curation, FolderID: "root"})
	updated, _ := app.Update(tui.RefreshMsg{})
	return updated.(tui.App), sess, curation
}

func press(t *testing.T, app tui.App, r rune) tui.App {
	t.Helper()
	updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return updated.(tui.App)
}

func TestApp_Navigation_JK(t *testing.T) {
	app, _, _ := newTestApp(t)

	if app.Cursor() != 0 {
		t.Errorf("expected initial cursor 0, got %d", app.Cursor())
	}

	app = press(t, app, 'j')
	if app.Cursor() != 1 {
		t.Errorf("after j, expected cursor 1, got %d", app.Cursor())
	}

	app = press(t, app, 'k')
	if app.Cursor() != 0 {
		t.Errorf("after k, expected cursor 0, got %d", app.Cursor())
	}

	// k at top should stay at 0 (no wrap)
	app = press(t, app, 'k')
	if app.Cursor() != 0 {
		t.Errorf("k at top should stay at 0, got %d", app.Cursor())
	}
}

func TestApp_Navigation_TopBottom(t *testing.T) {
	app, _, _ := newTestApp(t)

	app = press(t, app, 'G')
	if want := len(app.Rows()) - 1; app.Cursor() != want {
		t.Errorf("after G, expected cursor %d, got %d", want, app.Cursor())
	}

	// gg jumps back to top
	app = press(t, app, 'g')
	app = press(t, app, 'g')
	if app.Cursor() != 0 {
		t.Errorf("after gg, expected cursor 0, got %d", app.Cursor())
	}
}

func TestApp_EnterFolder(t *testing.T) {
	app, sess, _ := newTestApp(t)

	// Move cursor onto the subfolder (third row, name sort puts it last
	// only if names order that way; find it instead).
	for i, r := range app.Rows() {
		if r.IsEntry() && r.Entry.ID == "sub" {
			for app.Cursor() < i {
				app = press(t, app, 'j')
			}
		}
	}

	updated, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	app = updated.(tui.App)
	if cmd == nil {
		t.Fatal("opening a folder should produce a navigation command")
	}
	msg := cmd()
	updated, _ = app.Update(msg)
	app = updated.(tui.App)

	snap := sess.Snapshot()
	if len(snap.Stack) != 2 || snap.Stack[1].ID != "sub" {
		t.Fatalf("expected stack [root sub], got %+v", snap.Stack)
	}
	if len(app.Rows()) != 1 {
		t.Errorf("subfolder should show 1 row, got %d", len(app.Rows()))
	}
}

func TestApp_FilterCycle(t *testing.T) {
	app, sess, _ := newTestApp(t)

	// tab moves all -> image
	updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = updated.(tui.App)

	snap := sess.Snapshot()
	if string(snap.View.Filter) != "image" {
		t.Fatalf("expected image filter, got %q", snap.View.Filter)
	}
	for _, r := range app.Rows() {
		if r.IsEntry() && r.Entry.Kind() != model.KindImage {
			t.Errorf("non-image row survived filter: %s", r.Entry.Name)
		}
	}
	if snap.Location != "folder=root&filter=image" {
		t.Errorf("location not rewritten: %s", snap.Location)
	}
}

func TestApp_SortCycle(t *testing.T) {
	app, sess, _ := newTestApp(t)

	app = press(t, app, 'o')
	snap := sess.Snapshot()
	if snap.View.Sort.String() != "name-desc" {
		t.Errorf("expected name-desc after one cycle, got %s", snap.View.Sort.String())
	}

	rows := app.Rows()
	if len(rows) == 0 || rows[0].Entry.Name != "Subfolder" {
		t.Errorf("descending name sort should lead with Subfolder")
	}
}

func TestApp_SearchFlow(t *testing.T) {
	app, sess, _ := newTestApp(t)

	app = press(t, app, '/')
	if app.Mode() != tui.ModeSearch {
		t.Fatalf("expected search mode, got %v", app.Mode())
	}

	for _, r := range "beta" {
		app = press(t, app, r)
	}

	// Enter applies immediately and leaves search mode.
	updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = updated.(tui.App)
	if app.Mode() != tui.ModeNormal {
		t.Errorf("enter should return to normal mode")
	}

	snap := sess.Snapshot()
	if snap.View.Search != "beta" {
		t.Errorf("search query not applied: %q", snap.View.Search)
	}
	if len(app.Rows()) != 1 || app.Rows()[0].Entry.ID != "b" {
		t.Errorf("expected only beta.jpg, got %d rows", len(app.Rows()))
	}
}

func TestApp_SearchEscClears(t *testing.T) {
	app, sess, _ := newTestApp(t)

	app = press(t, app, '/')
	for _, r := range "beta" {
		app = press(t, app, r)
	}
	updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = updated.(tui.App)

	if app.Mode() != tui.ModeNormal {
		t.Errorf("esc should return to normal mode")
	}
	if q := sess.Snapshot().View.Search; q != "" {
		t.Errorf("esc should clear the query, got %q", q)
	}
	if len(app.Rows()) != 3 {
		t.Errorf("expected full listing restored, got %d rows", len(app.Rows()))
	}
}

func TestApp_ViewerOpenStepClose(t *testing.T) {
	app, sess, _ := newTestApp(t)

	// Cursor starts on alpha.jpg; l opens the viewer.
	app = press(t, app, 'l')
	if app.Mode() != tui.ModeViewer {
		t.Fatalf("expected viewer mode, got %v", app.Mode())
	}
	if sess.Snapshot().ViewerIndex != 0 {
		t.Fatalf("expected viewer on first media item")
	}

	// n steps forward, p steps back.
	app = press(t, app, 'n')
	if sess.Snapshot().ViewerIndex != 1 {
		t.Errorf("expected viewer index 1 after n")
	}
	app = press(t, app, 'p')
	if sess.Snapshot().ViewerIndex != 0 {
		t.Errorf("expected viewer index 0 after p")
	}

	updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = updated.(tui.App)
	if app.Mode() != tui.ModeNormal {
		t.Errorf("esc should close the viewer")
	}
	if sess.Snapshot().ViewerIndex != -1 {
		t.Errorf("viewer should be closed in the session")
	}
}

func TestApp_FavoriteToggle(t *testing.T) {
	app, _, curation := newTestApp(t)

	app = press(t, app, '*')
	if !curation.IsFavorite("a") {
		t.Errorf("expected alpha.jpg marked favorite")
	}
	app = press(t, app, '*')
	if curation.IsFavorite("a") {
		t.Errorf("second press should unmark")
	}
}

func TestApp_HideRemovesRow(t *testing.T) {
	app, _, _ := newTestApp(t)

	before := len(app.Rows())
	app = press(t, app, 'x')
	if got := len(app.Rows()); got != before-1 {
		t.Errorf("expected %d rows after hide, got %d", before-1, got)
	}
}

func TestApp_HelpOverlayToggles(t *testing.T) {
	app, _, _ := newTestApp(t)

	app = press(t, app, '?')
	if app.Mode() != tui.ModeHelp {
		t.Fatalf("expected help mode")
	}
	app = press(t, app, '?')
	if app.Mode() != tui.ModeNormal {
		t.Errorf("second ? should dismiss help")
	}
}

func TestApp_RefreshKeepsCursorOnEntry(t *testing.T) {
	app, sess, _ := newTestApp(t)

	app = press(t, app, 'j') // cursor on beta.jpg

	// A merged poll result prepends a new entry; the cursor must follow
	// beta.jpg to its new position.
	folderID, gen, ok := sess.PollTarget()
	if !ok {
		t.Fatal("session should be pollable")
	}
	sess.MergePoll(folderID, gen, []model.Entry{image("z", "aaa-new.jpg")})

	updated, _ := app.Update(tui.RefreshMsg{})
	app = updated.(tui.App)

	if app.Rows()[app.Cursor()].Entry.ID != "b" {
		t.Errorf("cursor should stay on beta.jpg, is on %s", app.Rows()[app.Cursor()].Entry.ID)
	}
}
