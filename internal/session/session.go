// Package session implements the gallery engine: one object owning the
// navigation stack, the current folder's raw entries, the view state and
// the navigation history, and keeping them consistent across overlapping
// fetches, debounced search input and live-update merges.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"driveview/internal/derive"
	"driveview/internal/history"
	"driveview/internal/link"
	"driveview/internal/model"
	"driveview/internal/remote"
)

// Phase is the engine's listing state for the current folder view.
type Phase int

const (
	PhaseIdle    Phase = iota // no gallery open
	PhaseListing              // fetch in flight
	PhaseReady                // derive has produced a displayed set
	PhaseErrored              // listing failed; exited only by a fresh navigation
)

// ErrListingInFlight is returned when a navigation is requested while
// another listing operation is still running. Navigations are serialized:
// the second request is rejected, not queued, and the rejection leaves
// session state untouched.
var ErrListingInFlight = errors.New("a listing is already in flight")

// Lister is the remote listing surface the session consumes.
type Lister interface {
	FetchPage(ctx context.Context, folderID, cursor string) (remote.Page, error)
	ListFolder(ctx context.Context, folderID, cursor string, limit int) ([]model.Entry, string, error)
	FolderName(ctx context.Context, folderID string) string
}

// Config tunes the session.
type Config struct {
	// AutoLoadLimit bounds how many entries a navigation fetches before
	// requiring an explicit LoadMore. 0 uses the default of 200.
	AutoLoadLimit int
	// SearchDebounce is the quiet period after the last keystroke before
	// a search re-derivation runs. 0 uses the default of 250ms.
	SearchDebounce time.Duration
}

const (
	defaultAutoLoadLimit  = 200
	defaultSearchDebounce = 250 * time.Millisecond
)

// Session is the engine instance. All state is guarded by one mutex;
// overlapping asynchronous results are ordered by a generation counter
// and discarded on arrival when stale.
type Session struct {
	mu     sync.Mutex
	cfg    Config
	lister Lister
	aux    derive.Aux
	log    zerolog.Logger
	hist   *history.History

	stack       []model.Frame
	raw         []model.Entry
	cursor      string
	view        derive.ViewState
	passthrough url.Values

	phase   Phase
	lastErr error
	gen     int
	listing bool

	pending   *derive.ViewState // restoration values consumed by the next derive run
	result    derive.Result
	collapsed map[string]bool

	searchTimer   *time.Timer
	pendingSearch string

	onChange func()
}

// New creates a session. aux predicates may be zero; they are composed
// into every derive run.
func New(lister Lister, aux derive.Aux, log zerolog.Logger, cfg Config) *Session {
	if cfg.AutoLoadLimit <= 0 {
		cfg.AutoLoadLimit = defaultAutoLoadLimit
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = defaultSearchDebounce
	}
	return &Session{
		cfg:       cfg,
		lister:    lister,
		aux:       aux,
		log:       log,
		hist:      history.New(),
		view:      derive.DefaultView(),
		collapsed: map[string]bool{},
	}
}

// SetOnChange registers a callback invoked after every state settling.
// It is called with the session lock held and must not call back into
// the session synchronously.
func (s *Session) SetOnChange(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = f
}

// Enter navigates to a folder. If the folder is already on the stack the
// stack truncates to and including that frame; otherwise the frame is
// appended and the location write pushes a new history entry. Entering
// always resets the previous folder's entries and cursor and refetches.
// An empty folderName is resolved lazily without blocking the listing.
func (s *Session) Enter(ctx context.Context, folderID, folderName string) error {
	return s.navigate(ctx, folderID, folderName, false)
}

// OpenLocation navigates to a decoded deep link, applying its view state
// as pending restoration values for the first derive run. The pending
// state is set only once the listing slot is claimed: a rejected deep
// link must leave no trace behind for the in-flight navigation to pick
// up.
func (s *Session) OpenLocation(ctx context.Context, raw string) error {
	loc := link.Decode(raw)
	if loc.FolderID == "" {
		return fmt.Errorf("location has no folder id: %q", raw)
	}

	s.mu.Lock()
	if s.listing {
		s.mu.Unlock()
		return ErrListingInFlight
	}
	v := loc.View
	s.pending = &v
	s.passthrough = loc.Passthrough
	gen, mode, resolveName, limit := s.beginLocked(loc.FolderID, "", false)
	s.mu.Unlock()

	return s.runListing(ctx, loc.FolderID, gen, mode, resolveName, limit)
}

// navigate performs the listing state transition. corrective marks a
// history restoration, whose single location write is always a replace.
func (s *Session) navigate(ctx context.Context, folderID, folderName string, corrective bool) error {
	s.mu.Lock()
	if s.listing {
		s.mu.Unlock()
		return ErrListingInFlight
	}
	gen, mode, resolveName, limit := s.beginLocked(folderID, folderName, corrective)
	s.mu.Unlock()

	return s.runListing(ctx, folderID, gen, mode, resolveName, limit)
}

// beginLocked claims the listing slot and resets the per-folder state.
// The caller holds the lock and has verified no listing is in flight;
// navigation side effects (pending restore, history step, stack rewrite)
// belong in the same critical section so a rejected navigation touches
// nothing.
func (s *Session) beginLocked(folderID, folderName string, corrective bool) (gen int, mode history.WriteMode, resolveName bool, limit int) {
	s.listing = true
	s.gen++
	gen = s.gen
	s.phase = PhaseListing
	s.lastErr = nil
	s.raw = nil
	s.cursor = ""
	s.collapsed = map[string]bool{}
	s.view.Search = ""
	s.view.Filter = derive.FilterAll
	s.view.OpenItemID = ""
	s.pendingSearch = ""

	mode = history.Replace
	if i := frameIndex(s.stack, folderID); i >= 0 {
		s.stack = s.stack[:i+1]
		if folderName != "" {
			s.stack[i].Name = folderName
		}
	} else {
		name := folderName
		if name == "" {
			name = folderID // placeholder until resolution completes
		}
		s.stack = append(s.stack, model.Frame{ID: folderID, Name: name})
		if !corrective {
			mode = history.Push
		}
	}
	resolveName = folderName == ""
	limit = s.cfg.AutoLoadLimit
	s.notifyLocked()
	return gen, mode, resolveName, limit
}

// runListing fetches the folder and settles the claimed navigation.
func (s *Session) runListing(ctx context.Context, folderID string, gen int, mode history.WriteMode, resolveName bool, limit int) error {
	if resolveName {
		go s.resolveFrameName(folderID, gen)
	}

	entries, cursor, err := s.lister.ListFolder(ctx, folderID, "", limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// A newer navigation superseded this one; discard on arrival.
		return nil
	}
	s.listing = false
	if err != nil {
		s.phase = PhaseErrored
		s.lastErr = err
		s.log.Error().Err(err).Str("folder", folderID).Msg("listing failed")
		s.notifyLocked()
		return err
	}
	s.raw = entries
	s.cursor = cursor
	s.phase = PhaseReady
	s.rederiveLocked(mode)
	return nil
}

// resolveFrameName fills in a lazily resolved folder name. It runs
// concurrently with the listing fetch and never blocks it.
func (s *Session) resolveFrameName(folderID string, gen int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	name := s.lister.FolderName(ctx, folderID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if i := frameIndex(s.stack, folderID); i >= 0 {
		s.stack[i].Name = name
		s.notifyLocked()
	}
}

// LoadMore resumes the listing from the held cursor. It is a no-op when
// no cursor is held or a listing is in flight. Returns how many entries
// were appended.
func (s *Session) LoadMore(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.listing || s.cursor == "" || s.phase != PhaseReady || len(s.stack) == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	s.listing = true
	gen := s.gen
	folderID := s.stack[len(s.stack)-1].ID
	cursor := s.cursor
	limit := s.cfg.AutoLoadLimit
	s.mu.Unlock()

	entries, next, err := s.lister.ListFolder(ctx, folderID, cursor, limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return 0, nil
	}
	s.listing = false
	if err != nil {
		// The current view stays intact; the cursor is kept for a retry.
		s.log.Error().Err(err).Str("folder", folderID).Msg("load more failed")
		return 0, err
	}
	s.raw = append(s.raw, entries...)
	s.cursor = next
	s.rederiveLocked(history.Replace)
	return len(entries), nil
}

// Back restores the previous history entry: stack trail, folder listing
// and the view state encoded in that entry's location.
func (s *Session) Back(ctx context.Context) error {
	return s.traverse(ctx, (*history.History).Back)
}

// Forward is the inverse of Back.
func (s *Session) Forward(ctx context.Context) error {
	return s.traverse(ctx, (*history.History).Forward)
}

func (s *Session) traverse(ctx context.Context, step func(*history.History) (history.Entry, bool)) error {
	s.mu.Lock()
	if s.listing {
		s.mu.Unlock()
		return ErrListingInFlight
	}
	e, ok := step(s.hist)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	loc := link.Decode(e.Location)
	if loc.FolderID == "" {
		s.mu.Unlock()
		return nil
	}
	v := loc.View
	s.pending = &v
	s.passthrough = loc.Passthrough
	s.stack = append([]model.Frame(nil), e.Trail...)
	name := ""
	if i := frameIndex(s.stack, loc.FolderID); i >= 0 {
		name = s.stack[i].Name
	}
	gen, mode, resolveName, limit := s.beginLocked(loc.FolderID, name, true)
	s.mu.Unlock()

	return s.runListing(ctx, loc.FolderID, gen, mode, resolveName, limit)
}

// SetFilter narrows the displayed set. The location write is a replace.
func (s *Session) SetFilter(f derive.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Filter == f || s.phase != PhaseReady {
		return
	}
	s.view.Filter = f
	s.rederiveLocked(history.Replace)
}

// SetSort reorders the displayed set.
func (s *Session) SetSort(sort derive.Sort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Sort == sort || s.phase != PhaseReady {
		return
	}
	s.view.Sort = sort
	s.rederiveLocked(history.Replace)
}

// SetViewMode switches between the default grid and the timeline view.
func (s *Session) SetViewMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == "grid" {
		mode = ""
	}
	if s.view.ViewMode == mode || s.phase != PhaseReady {
		return
	}
	s.view.ViewMode = mode
	s.rederiveLocked(history.Replace)
}

// SetSearch records search input and schedules a debounced re-derivation.
// A new keystroke replaces the scheduled task rather than interrupting a
// running one.
func (s *Session) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSearch = query
	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	s.searchTimer = time.AfterFunc(s.cfg.SearchDebounce, func() {
		s.applySearch(query)
	})
}

// FlushSearch applies the pending search input immediately.
func (s *Session) FlushSearch() {
	s.mu.Lock()
	q := s.pendingSearch
	if s.searchTimer != nil {
		s.searchTimer.Stop()
		s.searchTimer = nil
	}
	s.mu.Unlock()
	s.applySearch(q)
}

func (s *Session) applySearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if query != s.pendingSearch {
		// Superseded by a newer keystroke.
		return
	}
	if s.view.Search == query || s.phase != PhaseReady {
		return
	}
	s.view.Search = query
	s.rederiveLocked(history.Replace)
}

// OpenItem opens the media viewer on an entry id. The viewer tracks the
// entry by identity: re-derivations re-resolve its position instead of
// holding a raw index.
func (s *Session) OpenItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady || mediaIndex(s.result.MediaOnly, id) < 0 {
		return
	}
	s.view.OpenItemID = id
	s.rederiveLocked(history.Replace)
}

// CloseItem closes the media viewer.
func (s *Session) CloseItem() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.OpenItemID == "" {
		return
	}
	s.view.OpenItemID = ""
	s.rederiveLocked(history.Replace)
}

// StepItem moves the open viewer by delta within the media subsequence.
func (s *Session) StepItem(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := mediaIndex(s.result.MediaOnly, s.view.OpenItemID)
	if i < 0 {
		return
	}
	n := i + delta
	if n < 0 || n >= len(s.result.MediaOnly) {
		return
	}
	s.view.OpenItemID = s.result.MediaOnly[n].ID
	s.rederiveLocked(history.Replace)
}

// ToggleGroup collapses or expands a timeline month bucket. Collapsed
// groups survive re-derivations and poll merges; they reset on
// navigation.
func (s *Session) ToggleGroup(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collapsed[key] {
		delete(s.collapsed, key)
	} else {
		s.collapsed[key] = true
	}
	s.notifyLocked()
}

// Rederive re-runs the pipeline without changing the view state, for
// callers whose aux predicate inputs changed (favorite toggled, entry
// hidden).
func (s *Session) Rederive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady {
		return
	}
	s.rederiveLocked(history.Replace)
}

// PollTarget returns the folder id and generation a poll tick should
// capture at start. ok is false when no folder view is pollable.
func (s *Session) PollTarget() (folderID string, gen int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady || s.listing || len(s.stack) == 0 {
		return "", 0, false
	}
	return s.stack[len(s.stack)-1].ID, s.gen, true
}

// MergePoll splices previously unseen entries into the raw set. The tick
// is discarded when the captured folder id or generation no longer
// matches the session. New entries are prepended as most recent; held
// entries are never replaced or reordered. Returns the inserted count.
func (s *Session) MergePoll(folderID string, gen int, entries []model.Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.phase != PhaseReady || len(s.stack) == 0 ||
		s.stack[len(s.stack)-1].ID != folderID {
		return 0
	}

	known := make(map[string]bool, len(s.raw))
	for _, e := range s.raw {
		known[e.ID] = true
	}
	var fresh []model.Entry
	for _, e := range entries {
		if !known[e.ID] {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return 0
	}

	s.raw = append(fresh, s.raw...)
	s.rederiveLocked(history.Replace)
	return len(fresh)
}

// Reset leaves the gallery context entirely.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.listing = false
	s.stack = nil
	s.raw = nil
	s.cursor = ""
	s.view = derive.DefaultView()
	s.passthrough = nil
	s.pending = nil
	s.result = derive.Result{}
	s.collapsed = map[string]bool{}
	s.phase = PhaseIdle
	s.lastErr = nil
	s.notifyLocked()
}

// rederiveLocked consumes any pending restoration, runs the pipeline and
// performs exactly one location write, strictly after derive produced
// results. Callers hold the lock and pass the write mode decided by the
// action that triggered the change.
func (s *Session) rederiveLocked(mode history.WriteMode) {
	if s.pending != nil {
		s.view = *s.pending
		s.pending = nil
	}
	s.result = derive.Derive(s.raw, s.view, s.aux)
	if s.view.OpenItemID != "" && mediaIndex(s.result.MediaOnly, s.view.OpenItemID) < 0 {
		// The open entry fell out of the displayed set; close the viewer
		// rather than letting a raw index drift onto another entry.
		s.view.OpenItemID = ""
	}
	s.writeLocationLocked(mode)
	s.notifyLocked()
}

func (s *Session) writeLocationLocked(mode history.WriteMode) {
	if len(s.stack) == 0 {
		return
	}
	loc := link.Encode(link.Location{
		FolderID:    s.stack[len(s.stack)-1].ID,
		View:        s.view,
		Passthrough: s.passthrough,
	})
	s.hist.Write(history.Entry{Location: loc, Trail: s.stack}, mode)
}

func (s *Session) notifyLocked() {
	if s.onChange != nil {
		s.onChange()
	}
}

func frameIndex(stack []model.Frame, id string) int {
	for i, f := range stack {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func mediaIndex(media []model.Entry, id string) int {
	if id == "" {
		return -1
	}
	for i, e := range media {
		if e.ID == id {
			return i
		}
	}
	return -1
}
