package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/brainhr/hrdesk/internal/inbox"
	"github.com/brainhr/hrdesk/pkg/domain"
)

// inboxAPI is what the inbox tab needs from the backend.
type inboxAPI interface {
	MyMessages(ctx context.Context, role domain.Role, msgContext string) ([]domain.Message, error)
	MarkRead(ctx context.Context, id int64) error
}

// -- messages --

type inboxLoadedMsg struct {
	filter string
	msgs   []domain.Message
	err    error
}

type inboxMarkedMsg struct {
	id  int64
	err error
}

type copyResultMsg struct {
	err error
}

// reloadInboxMsg asks the inbox to re-pull, e.g. after the bell marked a
// message read.
type reloadInboxMsg struct{}

// -- model --

// inboxRow is one selectable line: a sender header, or a message inside the
// expanded group.
type inboxRow struct {
	sender string
	msg    *domain.Message
}

type inboxModel struct {
	api       inboxAPI
	role      domain.Role
	view      *inbox.View
	keys      keyMap
	onMarked  func() // runs after every mark-read call
	filterIdx int    // index into domain.InboxContexts
	rows      []inboxRow
	cursor    int
	loading   bool
	pending   int // mark-read calls in flight
	err       string
	status    string
	spinner   spinner.Model
	width     int
	height    int
}

func newInboxModel(api inboxAPI, role domain.Role, view *inbox.View, onMarked func()) inboxModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle
	return inboxModel{
		api:      api,
		role:     role,
		view:     view,
		keys:     defaultKeyMap(),
		onMarked: onMarked,
		spinner:  sp,
	}
}

func (m inboxModel) filter() string {
	return domain.InboxContexts[m.filterIdx]
}

func (m inboxModel) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick)
}

func (m inboxModel) load() tea.Cmd {
	api, role, filter := m.api, m.role, m.filter()
	return func() tea.Msg {
		msgs, err := api.MyMessages(context.Background(), role, filter)
		return inboxLoadedMsg{filter: filter, msgs: msgs, err: err}
	}
}

func (m inboxModel) reload() (inboxModel, tea.Cmd) {
	wasIdle := !m.loading && m.pending == 0
	m.loading = true
	if wasIdle {
		return m, tea.Batch(m.load(), m.spinner.Tick)
	}
	return m, m.load()
}

func (m inboxModel) Update(msg tea.Msg) (inboxModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case inboxLoadedMsg:
		if msg.filter != m.filter() {
			return m, nil // answer for a filter we have since left
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.view.SetMessages(msg.msgs)
		m.rebuildRows()

	case inboxMarkedMsg:
		m.pending--
		if msg.err != nil {
			m.status = "mark read failed: " + msg.err.Error()
		} else {
			m.status = ""
		}
		return m.reload()

	case reloadInboxMsg:
		return m.reload()

	case copyResultMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "copied to clipboard"
		}

	case spinner.TickMsg:
		if m.loading || m.pending > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// rebuildRows flattens the grouping into selectable rows, keeping the cursor
// on the same sender when it can.
func (m *inboxModel) rebuildRows() {
	var current string
	if m.cursor < len(m.rows) {
		current = m.rows[m.cursor].sender
	}

	g := m.view.Groups()
	rows := make([]inboxRow, 0, g.Len())
	for _, s := range g.Senders() {
		rows = append(rows, inboxRow{sender: s})
		if m.view.IsExpanded(s) {
			msgs := g.Messages(s)
			for i := range msgs {
				rows = append(rows, inboxRow{sender: s, msg: &msgs[i]})
			}
		}
	}
	m.rows = rows

	if m.cursor >= len(rows) {
		m.cursor = max(len(rows)-1, 0)
	}
	if current != "" && (m.cursor >= len(rows) || rows[m.cursor].sender != current) {
		for i, r := range rows {
			if r.sender == current && r.msg == nil {
				m.cursor = i
				break
			}
		}
	}
}

func (m inboxModel) selected() (inboxRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return inboxRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m inboxModel) handleKey(msg tea.KeyMsg) (inboxModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Toggle):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if row.msg == nil {
			m.view.Toggle(row.sender)
			m.rebuildRows()
			return m, nil
		}
		return m.markRead(*row.msg)
	case key.Matches(msg, m.keys.Copy):
		row, ok := m.selected()
		if !ok || row.msg == nil {
			return m, nil
		}
		text := row.msg.Body
		return m, func() tea.Msg {
			return copyResultMsg{err: clipboard.WriteAll(text)}
		}
	case key.Matches(msg, m.keys.Filter):
		m.filterIdx = (m.filterIdx + 1) % len(domain.InboxContexts)
		m.cursor = 0
		m.status = ""
		return m.reload()
	case key.Matches(msg, m.keys.Reload):
		m.status = ""
		return m.reload()
	}
	return m, nil
}

func (m inboxModel) markRead(msg domain.Message) (inboxModel, tea.Cmd) {
	if !msg.Unread() || m.view.IsMarking(msg.ID) {
		return m, nil
	}
	view, onMarked, id := m.view, m.onMarked, msg.ID
	wasIdle := !m.loading && m.pending == 0
	m.pending++
	m.status = ""
	mark := func() tea.Msg {
		err := view.MarkAsRead(context.Background(), id, onMarked)
		return inboxMarkedMsg{id: id, err: err}
	}
	if wasIdle {
		return m, tea.Batch(mark, m.spinner.Tick)
	}
	return m, mark
}

func (m inboxModel) View() string {
	var b strings.Builder

	filterLine := " " + metaStyle.Render("showing ") + ContextStyle(m.filter()).Render(domain.ContextLabel(m.filter()))
	if m.loading {
		filterLine += "  " + m.spinner.View()
	}
	b.WriteString(filterLine + "\n\n")

	g := m.view.Groups()
	if m.err != "" && g.Empty() {
		b.WriteString(" " + errStyle.Render("error: "+m.err) + "\n")
		return b.String()
	}
	if m.loading && g.Empty() {
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
		return b.String()
	}
	if g.Empty() {
		b.WriteString("\n " + dimStyle.Render("No messages yet") + "\n")
		return b.String()
	}

	for i, row := range m.rows {
		active := i == m.cursor
		if row.msg == nil {
			b.WriteString(m.headerRow(g, row.sender, active))
		} else {
			b.WriteString(m.messageRow(*row.msg, active))
		}
	}

	if m.err != "" {
		b.WriteString("\n " + errStyle.Render("error: "+m.err) + "\n")
	}
	if m.status != "" {
		b.WriteString("\n " + dimStyle.Render(m.status) + "\n")
	}
	return b.String()
}

func (m inboxModel) headerRow(g inbox.Groups, sender string, active bool) string {
	cursor := "  "
	if active {
		cursor = accentStyle.Render("▸ ")
	}
	chevron := "▸"
	if m.view.IsExpanded(sender) {
		chevron = "▾"
	}

	style := SenderStyle(sender)
	avatar := style.Render("[" + initial(sender) + "]")
	name := normalStyle.Render(sender)
	if m.view.UnreadCountFor(sender) > 0 {
		name = selectedStyle.Render(sender)
	}
	count := metaStyle.Render(plural(len(g.Messages(sender)), "message"))

	line := fmt.Sprintf("%s%s %s  %s", cursor, avatar, name, count)
	if n := m.view.UnreadCountFor(sender); n > 0 {
		line += " " + badgeStyle.Render(fmt.Sprintf("%d", n))
	}
	line += " " + dimStyle.Render(chevron)
	if active {
		line = selectedRowBg.Render(line)
	}
	return line + "\n"
}

func (m inboxModel) messageRow(msg domain.Message, active bool) string {
	cursor := "    "
	if active {
		cursor = "  " + accentStyle.Render("▸ ")
	}

	var state string
	switch {
	case m.view.IsMarking(msg.ID):
		state = markingStyle.Render("Marking...")
	case msg.Unread():
		state = unreadDotStyle.Render("●") + " " + unreadLabelStyle.Render("Unread")
	default:
		state = readLabelStyle.Render("✓ Read")
	}

	line := fmt.Sprintf("%s%s  %s", cursor, ContextBadge(msg.Context), state)
	if ts := formatTime(msg.CreatedTime()); ts != "" {
		line += "  " + metaStyle.Render(ts)
	}

	bodyWidth := max(m.width-8, 20)
	body := "      " + normalStyle.Render(truncStr(oneLine(msg.Body), bodyWidth))
	row := line + "\n" + body
	if active {
		row = selectedRowBg.Render(row)
	}
	return row + "\n"
}

func (m inboxModel) helpKeys() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Toggle, m.keys.Copy, m.keys.Filter, m.keys.Reload, m.keys.Bell, m.keys.Compose, m.keys.Quit}
}
