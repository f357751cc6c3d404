package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/brainhr/hrdesk/internal/notify"
	"github.com/brainhr/hrdesk/pkg/domain"
)

// -- messages --

// pollStateMsg carries a state published by the poller.
type pollStateMsg notify.State

// bellSelectedMsg reports that a preview message was handled.
type bellSelectedMsg struct {
	id int64
}

// waitForPoll blocks on the poller's update channel. Re-issue it after each
// pollStateMsg to keep listening.
func waitForPoll(p *notify.Poller) tea.Cmd {
	if p == nil {
		return nil
	}
	ch := p.Updates()
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return pollStateMsg(st)
	}
}

// -- model --

type bellModel struct {
	poller   *notify.Poller
	state    notify.State
	open     bool
	cursor   int
	selected map[int64]bool // preview picks in flight
	ring     int            // frames left in the new-mail flash
}

func newBellModel(p *notify.Poller) bellModel {
	return bellModel{poller: p, selected: make(map[int64]bool)}
}

func (m bellModel) Update(msg tea.Msg) (bellModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pollStateMsg:
		st := notify.State(msg)
		if st.UnreadCount > m.state.UnreadCount {
			m.ring = 12
		}
		m.state = st
		if m.cursor >= len(m.state.Preview) {
			m.cursor = 0
		}
		return m, waitForPoll(m.poller)

	case shimmerTickMsg:
		if m.ring > 0 {
			m.ring--
		}

	case bellSelectedMsg:
		delete(m.selected, msg.id)
	}
	return m, nil
}

// toggle opens or closes the dropdown.
func (m bellModel) toggle() bellModel {
	m.open = !m.open
	m.cursor = 0
	return m
}

func (m bellModel) handleKey(msg tea.KeyMsg, keys keyMap) (bellModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Bell):
		m.open = false
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.state.Preview)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Toggle):
		if m.cursor >= len(m.state.Preview) {
			return m, nil
		}
		sel := m.state.Preview[m.cursor]
		if !sel.Unread() || m.selected[sel.ID] {
			return m, nil
		}
		m.selected[sel.ID] = true
		p := m.poller
		return m, func() tea.Msg {
			p.Select(context.Background(), sel)
			return bellSelectedMsg{id: sel.ID}
		}
	}
	return m, nil
}

// icon renders the bell with its badge for the header.
func (m bellModel) icon() string {
	bell := "\U0001f514"
	badge := m.state.Badge()
	if badge == "" {
		return dimStyle.Render(bell)
	}
	style := badgeStyle
	if m.ring > 0 && m.ring%4 < 2 {
		style = style.Reverse(true)
	}
	return bell + style.Render(badge)
}

// dropdownView renders the preview list under the header.
func (m bellModel) dropdownView(width int) string {
	var b strings.Builder

	n := m.state.UnreadCount
	switch {
	case n <= 0:
		b.WriteString(sectionHeaderStyle.Render("Notifications"))
	case n == 1:
		b.WriteString(selectedStyle.Render("1 unread message"))
	default:
		b.WriteString(selectedStyle.Render(fmt.Sprintf("%d unread messages", n)))
	}
	b.WriteString("\n")

	if len(m.state.Preview) == 0 {
		b.WriteString("\n" + dimStyle.Render("No new messages"))
		return dropdownStyle.Render(b.String())
	}

	textWidth := max(width-30, 20)
	for i, msg := range m.state.Preview {
		b.WriteString("\n")
		b.WriteString(m.previewRow(msg, i == m.cursor, textWidth))
	}
	return dropdownStyle.Render(b.String())
}

func (m bellModel) previewRow(msg domain.Message, active bool, textWidth int) string {
	cursor := "  "
	if active {
		cursor = accentStyle.Render("▸ ")
	}
	dot := " "
	if msg.Unread() {
		dot = unreadDotStyle.Render("●")
	}

	sender := SenderStyle(msg.SenderKey()).Render(msg.SenderKey())
	line := fmt.Sprintf("%s%s %s  %s", cursor, dot, sender, ContextBadge(msg.Context))
	if m.selected[msg.ID] {
		line += "  " + markingStyle.Render("Marking...")
	} else if ts := formatTime(msg.CreatedTime()); ts != "" {
		line += "  " + metaStyle.Render(ts)
	}

	body := "    " + normalStyle.Render(truncStr(oneLine(msg.Body), textWidth))
	row := line + "\n" + body
	if active {
		row = selectedRowBg.Render(row)
	}
	return row
}
