// Package notify keeps the signed-in account's unread badge and message
// preview current by polling the back office.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/brainhr/hrdesk/pkg/domain"
)

// PollInterval is the fixed cadence between polls.
const PollInterval = 30 * time.Second

// PreviewLimit is the maximum number of messages kept in the preview.
const PreviewLimit = 5

// Store is the subset of the back-office API the poller needs.
// *client.Client satisfies it.
type Store interface {
	UnreadCount(ctx context.Context) (int, error)
	MyMessages(ctx context.Context, role domain.Role, msgContext string) ([]domain.Message, error)
	MarkRead(ctx context.Context, id int64) error
}

// State is what the bell displays. Preview is in server order and is never
// modified after it is published.
type State struct {
	UnreadCount int
	Preview     []domain.Message
	Polling     bool
	LastUpdated time.Time
}

// Badge is the badge text for the unread count.
func (s State) Badge() string {
	return BadgeText(s.UnreadCount)
}

// Poller polls the unread count and inbox preview for one role.
//
// Polls may overlap. Each poll is numbered when it starts and a result older
// than the newest applied one is dropped, so a slow response never replaces
// a fresher one. Results that land after Stop are dropped too.
type Poller struct {
	store    Store
	logger   *slog.Logger
	interval time.Duration
	updates  chan State

	mu      sync.Mutex
	state   State
	role    domain.Role
	hook    func()
	running bool
	stopCh  chan struct{}
	epoch   uint64
	seq     uint64
	applied uint64

	// inflight counts running polls. Only tests wait on it.
	inflight sync.WaitGroup
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger. Failed polls are logged at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithInterval overrides PollInterval. Only tests should need it.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// New creates an idle Poller.
func New(store Store, opts ...Option) *Poller {
	p := &Poller{
		store:    store,
		logger:   slog.New(slog.DiscardHandler),
		interval: PollInterval,
		updates:  make(chan State, 16),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "notify")
	return p
}

// Start begins polling for role: one poll right away, then one per interval.
// onExternalRefresh, if non-nil, runs after a message is marked read through
// Select. Start on a running poller does nothing.
func (p *Poller) Start(role domain.Role, onExternalRefresh func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.role = role
	p.hook = onExternalRefresh
	p.epoch++
	p.stopCh = make(chan struct{})

	go p.loop(p.stopCh)
	p.launchLocked()
}

// Stop halts the ticker. Polls already in flight finish but their results
// are dropped.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
	p.hook = nil
	p.epoch++
}

// Refresh triggers one poll outside the cadence. Ignored while stopped.
func (p *Poller) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.launchLocked()
	}
}

// Select handles the user picking a preview message. An unread message is
// marked read, then the poller refreshes and the external refresh hook runs.
// A read message is ignored. A failed mark-read is logged and leaves the
// message unread so the user can pick it again.
func (p *Poller) Select(ctx context.Context, msg domain.Message) {
	if !msg.Unread() {
		return
	}
	if err := p.store.MarkRead(ctx, msg.ID); err != nil {
		p.logger.Warn("mark read failed", "message_id", msg.ID, "err", err)
		return
	}

	p.Refresh()

	p.mu.Lock()
	hook := p.hook
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Snapshot returns the current display state.
func (p *Poller) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.state
	st.Polling = p.running
	return st
}

// Updates delivers the state after every applied poll. Values are dropped
// when the reader falls behind; Snapshot always has the latest.
func (p *Poller) Updates() <-chan State {
	return p.updates
}

func (p *Poller) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.running && p.stopCh == stop {
				p.launchLocked()
			}
			p.mu.Unlock()
		}
	}
}

// launchLocked starts one poll. p.mu must be held.
func (p *Poller) launchLocked() {
	p.seq++
	p.inflight.Add(1)
	go p.poll(p.epoch, p.seq, p.role)
}

func (p *Poller) poll(epoch, seq uint64, role domain.Role) {
	defer p.inflight.Done()

	logger := p.logger.With("role", string(role), "poll", seq)
	ctx := context.Background()

	count, err := p.store.UnreadCount(ctx)
	if err != nil {
		logger.Warn("unread count poll failed", "err", err)
		return
	}
	msgs, err := p.store.MyMessages(ctx, role, "")
	if err != nil {
		logger.Warn("inbox poll failed", "err", err)
		return
	}

	preview := make([]domain.Message, min(len(msgs), PreviewLimit))
	copy(preview, msgs)

	p.mu.Lock()
	if !p.running || epoch != p.epoch {
		p.mu.Unlock()
		logger.Debug("poll finished after stop, dropped")
		return
	}
	if seq < p.applied {
		applied := p.applied
		p.mu.Unlock()
		logger.Debug("stale poll dropped", "applied", applied)
		return
	}
	p.applied = seq
	p.state = State{
		UnreadCount: count,
		Preview:     preview,
		Polling:     true,
		LastUpdated: time.Now(),
	}
	st := p.state
	p.mu.Unlock()

	select {
	case p.updates <- st:
	default:
	}
}
