package session_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"

	"driveview/internal/derive"
	"driveview/internal/model"
	"driveview/internal/remote"
	"driveview/internal/session"
)

// fakeLister serves folders from memory with cursor-based pages.
type fakeLister struct {
	mu       sync.Mutex
	folders  map[string][]model.Entry
	names    map[string]string
	pageSize int
	fail     map[string]error
	block    chan struct{} // when set, ListFolder waits for a signal per call
}

func newFakeLister() *fakeLister {
	return &fakeLister{
		folders:  map[string][]model.Entry{},
		names:    map[string]string{},
		pageSize: 100,
		fail:     map[string]error{},
	}
}

func (f *fakeLister) FetchPage(ctx context.Context, folderID, cursor string) (remote.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[folderID]; err != nil {
		return remote.Page{}, err
	}
	all := f.folders[folderID]
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := start + f.pageSize
	next := ""
	if end >= len(all) {
		end = len(all)
	} else {
		next = strconv.Itoa(end)
	}
	page := append([]model.Entry(nil), all[start:end]...)
	return remote.Page{Entries: page, NextCursor: next}, nil
}

func (f *fakeLister) ListFolder(ctx context.Context, folderID, cursor string, limit int) ([]model.Entry, string, error) {
	if f.block != nil {
		<-f.block
	}
	var out []model.Entry
	for {
		page, err := f.FetchPage(ctx, folderID, cursor)
		if err != nil {
			return nil, "", err
		}
		out = append(out, page.Entries...)
		cursor = page.NextCursor
		if cursor == "" || (limit > 0 && len(out) >= limit) {
			return out, cursor, nil
		}
	}
}

func (f *fakeLister) FolderName(ctx context.Context, folderID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.names[folderID]; ok {
		return n
	}
	return remote.FolderNamePlaceholder
}

func media(id, name string, day int) model.Entry {
	return model.Entry{
		ID: id, Name: name, MimeType: "image/jpeg", Size: 100,
		ModifiedAt: time.Date(2024, 7, day, 0, 0, 0, 0, time.UTC),
	}
}

func folder(id, name string) model.Entry {
	return model.Entry{ID: id, Name: name, MimeType: "application/vnd.google-apps.folder"}
}

func newSession(l session.Lister, aux derive.Aux, cfg session.Config) *session.Session {
	return session.New(l, aux, zerolog.Nop(), cfg)
}

func TestEnter_LoadsAndDerives(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "b.jpg", 1), media("2", "a.jpg", 2)}

	s := newSession(l, derive.Aux{}, session.Config{})
	err := s.Enter(context.Background(), "A", "Holiday")
	assert.NilError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, snap.Phase, session.PhaseReady)
	assert.Equal(t, len(snap.Displayed), 2)
	assert.Equal(t, snap.Displayed[0].Name, "a.jpg") // name ascending
	assert.Equal(t, len(snap.Stack), 1)
	assert.Equal(t, snap.Stack[0].Name, "Holiday")
	assert.Equal(t, snap.CountLabel, "2 files")
	assert.Equal(t, snap.Location, "folder=A")
}

func TestEnter_SubfolderGrowsStack(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{folder("B", "Inner")}
	l.folders["B"] = []model.Entry{media("1", "x.jpg", 1)}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "Outer"))
	assert.NilError(t, s.Enter(context.Background(), "B", "Inner"))

	snap := s.Snapshot()
	assert.Equal(t, len(snap.Stack), 2)
	assert.Equal(t, snap.Stack[0].ID, "A")
	assert.Equal(t, snap.Stack[1].ID, "B")
	assert.Equal(t, snap.Location, "folder=B")
}

func TestEnter_AncestorTruncatesStack(t *testing.T) {
	l := newFakeLister()
	for _, id := range []string{"A", "B", "C"} {
		l.folders[id] = []model.Entry{media(id+"-1", id+".jpg", 1)}
	}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))
	assert.NilError(t, s.Enter(context.Background(), "B", "B"))
	assert.NilError(t, s.Enter(context.Background(), "C", "C"))

	// Breadcrumb jump back to A keeps exactly the frames up to A.
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))
	snap := s.Snapshot()
	assert.Equal(t, len(snap.Stack), 1)
	assert.Equal(t, snap.Stack[0].ID, "A")
}

func TestEnter_ResetsPreviousEntries(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("a1", "a.jpg", 1), media("a2", "b.jpg", 2)}
	l.folders["B"] = []model.Entry{media("b1", "c.jpg", 3)}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))
	assert.NilError(t, s.Enter(context.Background(), "B", "B"))

	snap := s.Snapshot()
	assert.Equal(t, snap.RawCount, 1)
	assert.Equal(t, snap.Displayed[0].ID, "b1")
}

func TestEnter_AutoLoadCeilingAndLoadMore(t *testing.T) {
	l := newFakeLister()
	var all []model.Entry
	for i := 0; i < 250; i++ {
		all = append(all, media(fmt.Sprintf("e%03d", i), fmt.Sprintf("img%03d.jpg", i), 1+i%28))
	}
	l.folders["big"] = all

	s := newSession(l, derive.Aux{}, session.Config{AutoLoadLimit: 200})
	assert.NilError(t, s.Enter(context.Background(), "big", "Big"))

	snap := s.Snapshot()
	assert.Equal(t, snap.RawCount, 200)
	assert.Assert(t, snap.HasMore)

	added, err := s.LoadMore(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, added, 50)

	snap = s.Snapshot()
	assert.Equal(t, snap.RawCount, 250)
	assert.Assert(t, !snap.HasMore)

	// A further LoadMore without a cursor is a no-op.
	added, err = s.LoadMore(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, added, 0)
}

func TestEnter_RejectsWhileListing(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "a.jpg", 1)}
	l.block = make(chan struct{})

	s := newSession(l, derive.Aux{}, session.Config{})

	done := make(chan error, 1)
	go func() { done <- s.Enter(context.Background(), "A", "A") }()

	// Wait for the first navigation to hold the listing slot.
	for {
		if s.Snapshot().Phase == session.PhaseListing {
			break
		}
		time.Sleep(time.Millisecond)
	}

	err := s.Enter(context.Background(), "B", "B")
	assert.ErrorIs(t, err, session.ErrListingInFlight)

	l.block <- struct{}{}
	assert.NilError(t, <-done)
	assert.Equal(t, s.Snapshot().Phase, session.PhaseReady)
}

func TestEnter_FailureEntersErroredState(t *testing.T) {
	l := newFakeLister()
	l.fail["A"] = &remote.RemoteError{Status: 404, Message: "not found"}

	s := newSession(l, derive.Aux{}, session.Config{})
	err := s.Enter(context.Background(), "A", "A")
	assert.ErrorContains(t, err, "not found")

	snap := s.Snapshot()
	assert.Equal(t, snap.Phase, session.PhaseErrored)
	assert.Assert(t, snap.Err != nil)

	// A fresh navigation exits the error state.
	l2 := l
	l2.mu.Lock()
	delete(l2.fail, "A")
	l2.folders["A"] = []model.Entry{media("1", "a.jpg", 1)}
	l2.mu.Unlock()
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))
	assert.Equal(t, s.Snapshot().Phase, session.PhaseReady)
}

func TestLazyNameResolution(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "a.jpg", 1)}
	l.names["A"] = "Resolved Name"

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", ""))

	deadline := time.After(2 * time.Second)
	for {
		if s.Snapshot().Stack[0].Name == "Resolved Name" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("name never resolved, stack = %+v", s.Snapshot().Stack)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestViewMutations_RewriteLocationInPlace(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{
		media("1", "a.jpg", 1),
		{ID: "2", Name: "doc.pdf", MimeType: "application/pdf", Size: 10},
	}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))

	s.SetFilter(derive.Filter("image"))
	snap := s.Snapshot()
	assert.Equal(t, len(snap.Displayed), 1)
	assert.Equal(t, snap.Location, "folder=A&filter=image")

	s.SetSort(derive.Sort{Key: derive.SortDate, Desc: true})
	snap = s.Snapshot()
	assert.Equal(t, snap.Location, "folder=A&filter=image&sort=date-desc")

	// View changes replace the current history entry rather than pushing.
	s.SetFilter(derive.FilterAll)
	assert.NilError(t, s.Back(context.Background()))
	snap = s.Snapshot()
	// Nothing before the first entry, so Back is a no-op.
	assert.Equal(t, len(snap.Stack), 1)
}

func TestSearch_DebouncedAndSuperseded(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "alpha.jpg", 1), media("2", "beta.jpg", 2)}

	s := newSession(l, derive.Aux{}, session.Config{SearchDebounce: 20 * time.Millisecond})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))

	s.SetSearch("al")
	s.SetSearch("alp")
	s.SetSearch("alpha")

	// Before the quiet period nothing has applied.
	assert.Equal(t, s.Snapshot().View.Search, "")

	deadline := time.After(2 * time.Second)
	for s.Snapshot().View.Search != "alpha" {
		select {
		case <-deadline:
			t.Fatalf("search never applied: %q", s.Snapshot().View.Search)
		case <-time.After(5 * time.Millisecond):
		}
	}
	snap := s.Snapshot()
	assert.Equal(t, len(snap.Displayed), 1)
	assert.Equal(t, snap.Displayed[0].ID, "1")
}

func TestSearch_FlushAppliesImmediately(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "alpha.jpg", 1), media("2", "beta.jpg", 2)}

	s := newSession(l, derive.Aux{}, session.Config{SearchDebounce: time.Hour})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))

	s.SetSearch("beta")
	s.FlushSearch()

	snap := s.Snapshot()
	assert.Equal(t, snap.View.Search, "beta")
	assert.Equal(t, len(snap.Displayed), 1)
	assert.Equal(t, snap.Location, "folder=A&q=beta")
}

func TestBack_RestoresTrailAndView(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{folder("B", "B")}
	l.folders["B"] = []model.Entry{folder("C", "C"), media("b1", "pic.jpg", 1)}
	l.folders["C"] = []model.Entry{media("c1", "deep.jpg", 2)}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))
	assert.NilError(t, s.Enter(context.Background(), "B", "B"))
	s.SetFilter(derive.Filter("image"))
	assert.NilError(t, s.Enter(context.Background(), "C", "C"))

	// Going back restores B with its filter and the full [A, B] trail.
	assert.NilError(t, s.Back(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, len(snap.Stack), 2)
	assert.Equal(t, snap.Stack[0].ID, "A")
	assert.Equal(t, snap.Stack[1].ID, "B")
	assert.Equal(t, snap.View.Filter, derive.Filter("image"))
	assert.Equal(t, snap.Location, "folder=B&filter=image")

	// Forward returns to C with the default view.
	assert.NilError(t, s.Forward(context.Background()))
	snap = s.Snapshot()
	assert.Equal(t, len(snap.Stack), 3)
	assert.Equal(t, snap.Stack[2].ID, "C")
	assert.Equal(t, snap.View.Filter, derive.FilterAll)
}

func TestBack_PendingRestoreConsumedOnce(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "a.jpg", 1), {ID: "2", Name: "d.pdf", MimeType: "application/pdf"}}
	l.folders["B"] = []model.Entry{media("b1", "b.jpg", 1)}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))
	s.SetFilter(derive.Filter("image"))
	assert.NilError(t, s.Enter(context.Background(), "B", "B"))
	assert.NilError(t, s.Back(context.Background()))

	assert.Equal(t, s.Snapshot().View.Filter, derive.Filter("image"))

	// The restored value is ordinary state now; later changes stick.
	s.SetFilter(derive.FilterAll)
	assert.Equal(t, s.Snapshot().View.Filter, derive.FilterAll)
}

func TestMergePoll_PrependsOnlyUnseen(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "a.jpg", 1), media("2", "b.jpg", 2)}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))

	folderID, gen, ok := s.PollTarget()
	assert.Assert(t, ok)
	assert.Equal(t, folderID, "A")

	// The poll page overlaps existing entries and carries two new ones.
	n := s.MergePoll(folderID, gen, []model.Entry{
		media("3", "new1.jpg", 3),
		media("1", "a.jpg", 1),
		media("4", "new2.jpg", 4),
	})
	assert.Equal(t, n, 2)

	snap := s.Snapshot()
	assert.Equal(t, snap.RawCount, 4)
	assert.Equal(t, snap.CountLabel, "4 files")

	// Re-merging the same page adds nothing.
	n = s.MergePoll(folderID, gen, []model.Entry{media("3", "new1.jpg", 3)})
	assert.Equal(t, n, 0)
}

func TestMergePoll_DiscardsStaleGeneration(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "a.jpg", 1)}
	l.folders["B"] = []model.Entry{media("b1", "b.jpg", 1)}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))
	folderID, gen, ok := s.PollTarget()
	assert.Assert(t, ok)

	// Navigation invalidates the captured generation.
	assert.NilError(t, s.Enter(context.Background(), "B", "B"))
	n := s.MergePoll(folderID, gen, []model.Entry{media("x", "x.jpg", 1)})
	assert.Equal(t, n, 0)
	assert.Equal(t, s.Snapshot().RawCount, 1)
}

func TestViewer_TracksIdentityAcrossRederive(t *testing.T) {
	hidden := map[string]bool{}
	var mu sync.Mutex
	aux := derive.Aux{Hidden: func(id string) bool {
		mu.Lock()
		defer mu.Unlock()
		return hidden[id]
	}}

	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "a.jpg", 1), media("2", "b.jpg", 2), media("3", "c.jpg", 3)}

	s := newSession(l, aux, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))

	s.OpenItem("2")
	snap := s.Snapshot()
	assert.Equal(t, snap.ViewerIndex, 1)
	assert.Equal(t, snap.Location, "folder=A&item=2")

	s.StepItem(1)
	assert.Equal(t, s.Snapshot().View.OpenItemID, "3")

	// Stepping past the end stays put.
	s.StepItem(1)
	assert.Equal(t, s.Snapshot().View.OpenItemID, "3")

	// When the open entry leaves the displayed set the viewer closes.
	mu.Lock()
	hidden["3"] = true
	mu.Unlock()
	s.Rederive()
	snap = s.Snapshot()
	assert.Equal(t, snap.View.OpenItemID, "")
	assert.Equal(t, snap.ViewerIndex, -1)
}

func TestOpenLocation_DeepLinkRestoresView(t *testing.T) {
	l := newFakeLister()
	l.folders["shared123"] = []model.Entry{
		media("1", "alpha.jpg", 1),
		{ID: "2", Name: "alpha.pdf", MimeType: "application/pdf"},
	}

	s := newSession(l, derive.Aux{}, session.Config{})
	err := s.OpenLocation(context.Background(), "https://example.com/g?folder=shared123&filter=image&q=alpha&embed=1")
	assert.NilError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, snap.View.Filter, derive.Filter("image"))
	assert.Equal(t, snap.View.Search, "alpha")
	assert.Equal(t, len(snap.Displayed), 1)

	// Passthrough params survive the rewrite.
	assert.Equal(t, snap.Location, "folder=shared123&filter=image&q=alpha&embed=1")
}

func TestOpenLocation_NoFolderFails(t *testing.T) {
	s := newSession(newFakeLister(), derive.Aux{}, session.Config{})
	err := s.OpenLocation(context.Background(), "filter=image")
	assert.ErrorContains(t, err, "no folder id")
}

func TestToggleGroup_ResetsOnNavigation(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "a.jpg", 1), media("2", "b.jpg", 2)}
	l.folders["B"] = []model.Entry{media("b1", "c.jpg", 3)}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))
	s.SetSort(derive.Sort{Key: derive.SortTimeline})

	s.ToggleGroup("2024-07")
	assert.Assert(t, s.Snapshot().Collapsed["2024-07"])

	assert.NilError(t, s.Enter(context.Background(), "B", "B"))
	assert.Equal(t, len(s.Snapshot().Collapsed), 0)
}

func TestOpenLocation_RejectionLeavesStateUntouched(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "a.jpg", 1)}
	l.block = make(chan struct{})

	s := newSession(l, derive.Aux{}, session.Config{})

	done := make(chan error, 1)
	go func() { done <- s.Enter(context.Background(), "A", "A") }()

	for {
		if s.Snapshot().Phase == session.PhaseListing {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// The deep link is rejected; its view state must not leak into the
	// navigation that holds the listing slot.
	err := s.OpenLocation(context.Background(), "?folder=B&filter=image&q=zzz")
	assert.ErrorIs(t, err, session.ErrListingInFlight)

	l.block <- struct{}{}
	assert.NilError(t, <-done)

	snap := s.Snapshot()
	assert.Equal(t, snap.View.Filter, derive.FilterAll)
	assert.Equal(t, snap.View.Search, "")
	assert.Equal(t, snap.Location, "folder=A")
}

func TestBack_RejectionKeepsHistoryInPlace(t *testing.T) {
	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("a1", "a.jpg", 1)}
	l.folders["B"] = []model.Entry{media("b1", "b.jpg", 2)}
	l.folders["C"] = []model.Entry{media("c1", "c.jpg", 3)}

	s := newSession(l, derive.Aux{}, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))
	assert.NilError(t, s.Enter(context.Background(), "B", "B"))

	l.block = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.Enter(context.Background(), "C", "C") }()

	for {
		if s.Snapshot().Phase == session.PhaseListing {
			break
		}
		time.Sleep(time.Millisecond)
	}

	err := s.Back(context.Background())
	assert.ErrorIs(t, err, session.ErrListingInFlight)

	l.block <- struct{}{}
	l.block = nil
	assert.NilError(t, <-done)
	assert.Equal(t, s.Snapshot().Location, "folder=C")

	// Had the rejected Back stepped the cursor, this would land on A.
	assert.NilError(t, s.Back(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, snap.Location, "folder=B")
	assert.Equal(t, len(snap.Stack), 2)
}

func TestMergePoll_FavoritesFilterHidesNewEntries(t *testing.T) {
	fav := map[string]bool{}
	var mu sync.Mutex
	aux := derive.Aux{Favorite: func(id string) bool {
		mu.Lock()
		defer mu.Unlock()
		return fav[id]
	}}

	l := newFakeLister()
	l.folders["A"] = []model.Entry{media("1", "a.jpg", 1), media("2", "b.jpg", 2)}

	s := newSession(l, aux, session.Config{})
	assert.NilError(t, s.Enter(context.Background(), "A", "A"))

	s.SetFilter(derive.FilterFavorites)
	assert.Equal(t, len(s.Snapshot().Displayed), 0)

	folderID, gen, ok := s.PollTarget()
	assert.Assert(t, ok)

	// New entries arrive but none is favorited; the raw set grows while
	// the displayed set stays empty.
	n := s.MergePoll(folderID, gen, []model.Entry{
		media("3", "new1.jpg", 3),
		media("4", "new2.jpg", 4),
		media("5", "new3.jpg", 5),
	})
	assert.Equal(t, n, 3)

	snap := s.Snapshot()
	assert.Equal(t, len(snap.Displayed), 0)
	assert.Equal(t, snap.RawCount, 5)

	// Favoriting one of the merged entries surfaces it.
	mu.Lock()
	fav["4"] = true
	mu.Unlock()
	s.Rederive()
	snap = s.Snapshot()
	assert.Equal(t, len(snap.Displayed), 1)
	assert.Equal(t, snap.Displayed[0].ID, "4")
}
