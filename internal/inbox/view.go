package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brainhr/hrdesk/pkg/domain"
)

// Marker marks a message read on the backend. *client.Client satisfies it.
type Marker interface {
	MarkRead(ctx context.Context, id int64) error
}

// View is the grouped inbox state for one screen: the current groups, the
// single expanded sender, and the messages with a mark-read call in flight.
// It is safe for concurrent use.
type View struct {
	marker Marker
	logger *slog.Logger

	mu          sync.Mutex
	groups      Groups
	byID        map[int64]domain.Message
	expanded    string
	hasExpanded bool
	marking     map[int64]struct{}
}

// NewView returns an empty view with no group expanded.
func NewView(marker Marker, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &View{
		marker:  marker,
		logger:  logger.With("component", "inbox"),
		groups:  Group(nil),
		byID:    make(map[int64]domain.Message),
		marking: make(map[int64]struct{}),
	}
}

// SetMessages regroups from scratch. The expanded sender is kept even if it
// no longer has messages.
func (v *View) SetMessages(msgs []domain.Message) {
	g := Group(msgs)
	byID := make(map[int64]domain.Message, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.groups = g
	v.byID = byID
}

// Groups returns the current grouping.
func (v *View) Groups() Groups {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.groups
}

// Toggle expands sender, collapsing any other group. Toggling the expanded
// group collapses it.
func (v *View) Toggle(sender string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.hasExpanded && v.expanded == sender {
		v.expanded, v.hasExpanded = "", false
		return
	}
	v.expanded, v.hasExpanded = sender, true
}

// Expanded returns the expanded sender, if any.
func (v *View) Expanded() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expanded, v.hasExpanded
}

// IsExpanded reports whether sender is the expanded group.
func (v *View) IsExpanded(sender string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hasExpanded && v.expanded == sender
}

// UnreadCountFor counts unread messages in sender's group.
func (v *View) UnreadCountFor(sender string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.groups.UnreadCount(sender)
}

// Message looks up a message from the last SetMessages by id.
func (v *View) Message(id int64) (domain.Message, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	m, ok := v.byID[id]
	return m, ok
}

// IsMarking reports whether a mark-read call for id is in flight.
func (v *View) IsMarking(id int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.marking[id]
	return ok
}

// MarkAsRead marks one unread message read. Unknown and already-read
// messages, and messages with a call already in flight, are ignored without
// touching the backend. Once the call returns, success or not, the message
// becomes clickable again and onRefresh runs if non-nil. The call's error is
// returned for display; nothing here changes the message itself.
func (v *View) MarkAsRead(ctx context.Context, id int64, onRefresh func()) error {
	v.mu.Lock()
	msg, ok := v.byID[id]
	_, busy := v.marking[id]
	if !ok || !msg.Unread() || busy {
		v.mu.Unlock()
		return nil
	}
	v.marking[id] = struct{}{}
	v.mu.Unlock()

	err := v.marker.MarkRead(ctx, id)

	v.mu.Lock()
	delete(v.marking, id)
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("mark read failed", "message_id", id, "err", err)
	}
	if onRefresh != nil {
		onRefresh()
	}
	if err != nil {
		return fmt.Errorf("inbox.MarkAsRead: %w", err)
	}
	return nil
}
