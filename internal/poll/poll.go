// Package poll runs the periodic live-update check for the folder the
// session currently displays. Each tick captures the folder and
// generation up front and fetches only the first listing page; the
// session validates the capture again when the result is merged.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"driveview/internal/model"
	"driveview/internal/remote"
)

// Fetcher retrieves a single listing page of a folder.
type Fetcher interface {
	FetchPage(ctx context.Context, folderID, cursor string) (remote.Page, error)
}

// Target is the session surface the poller feeds.
type Target interface {
	// PollTarget reports the folder and generation a tick should check,
	// or ok=false when nothing is pollable right now.
	PollTarget() (folderID string, gen int, ok bool)
	// MergePoll offers the fetched entries back; stale results are
	// discarded inside. Returns how many entries were inserted.
	MergePoll(folderID string, gen int, entries []model.Entry) int
}

// Poller drives the live-update loop.
type Poller struct {
	fetcher Fetcher
	target  Target
	log     zerolog.Logger

	mu       sync.Mutex
	interval time.Duration
	visible  bool
	wake     chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a stopped poller. interval must be positive.
func New(fetcher Fetcher, target Target, log zerolog.Logger, interval time.Duration) *Poller {
	return &Poller{
		fetcher:  fetcher,
		target:   target,
		log:      log,
		interval: interval,
		visible:  true,
		wake:     make(chan struct{}, 1),
	}
}

// Start launches the loop. It is a no-op when already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop halts the loop and waits for a tick in flight to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SetVisible tells the poller whether the display is in the foreground.
// Ticks are skipped while hidden; the loop keeps running. Regaining
// visibility triggers an immediate check.
func (p *Poller) SetVisible(visible bool) {
	p.mu.Lock()
	was := p.visible
	p.visible = visible
	p.mu.Unlock()
	if visible && !was {
		p.kick()
	}
}

// SetInterval changes the tick interval and restarts the timer. Entries
// already merged into the session are unaffected.
func (p *Poller) SetInterval(d time.Duration) {
	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()
	p.kick()
}

// RunOnce performs a single check immediately, regardless of visibility.
// Returns how many new entries the session accepted.
func (p *Poller) RunOnce(ctx context.Context) int {
	return p.tick(ctx, true)
}

func (p *Poller) kick() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		p.mu.Lock()
		interval := p.interval
		p.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.wake:
			timer.Stop()
		case <-timer.C:
		}
		p.tick(ctx, false)
	}
}

// tick runs one check. Failures are logged and swallowed: the next tick
// proceeds on schedule and the session state is untouched.
func (p *Poller) tick(ctx context.Context, force bool) int {
	p.mu.Lock()
	visible := p.visible
	p.mu.Unlock()
	if !visible && !force {
		return 0
	}

	folderID, gen, ok := p.target.PollTarget()
	if !ok {
		return 0
	}

	page, err := p.fetcher.FetchPage(ctx, folderID, "")
	if err != nil {
		p.log.Warn().Err(err).Str("folder", folderID).Msg("live update check failed")
		return 0
	}

	n := p.target.MergePoll(folderID, gen, page.Entries)
	if n > 0 {
		p.log.Debug().Int("new", n).Str("folder", folderID).Msg("live update merged")
	}
	return n
}
