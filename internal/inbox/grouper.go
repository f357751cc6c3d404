// Package inbox groups an account's messages by sender for display and
// tracks which group is open and which messages are being marked read.
package inbox

import "github.com/brainhr/hrdesk/pkg/domain"

// Groups is a sender-keyed partition of an inbox. Senders keep the order in
// which they first appear and each group keeps its messages' input order.
type Groups struct {
	senders  []string
	bySender map[string][]domain.Message
}

// Group partitions messages by SenderKey. It never reorders.
func Group(messages []domain.Message) Groups {
	g := Groups{bySender: make(map[string][]domain.Message)}
	for _, m := range messages {
		key := m.SenderKey()
		if _, ok := g.bySender[key]; !ok {
			g.senders = append(g.senders, key)
		}
		g.bySender[key] = append(g.bySender[key], m)
	}
	return g
}

// Senders returns the group keys in first-seen order.
func (g Groups) Senders() []string {
	return append([]string(nil), g.senders...)
}

// Messages returns the messages from sender, or nil.
func (g Groups) Messages(sender string) []domain.Message {
	return g.bySender[sender]
}

// Len is the number of groups.
func (g Groups) Len() int {
	return len(g.senders)
}

// Empty reports whether there is nothing to show.
func (g Groups) Empty() bool {
	return len(g.senders) == 0
}

// UnreadCount counts the unread messages from sender.
func (g Groups) UnreadCount(sender string) int {
	n := 0
	for _, m := range g.bySender[sender] {
		if m.Unread() {
			n++
		}
	}
	return n
}

// Flatten concatenates the groups in sender order.
func (g Groups) Flatten() []domain.Message {
	var out []domain.Message
	for _, s := range g.senders {
		out = append(out, g.bySender[s]...)
	}
	return out
}
