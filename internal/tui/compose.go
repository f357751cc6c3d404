package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/brainhr/hrdesk/pkg/domain"
)

// composeAPI is what the compose tab needs from the backend.
type composeAPI interface {
	SendMessage(ctx context.Context, msg domain.NewMessage) (*domain.MessageCreated, error)
	Managers(ctx context.Context) ([]domain.Recipient, error)
}

type composeField int

const (
	fieldTo composeField = iota
	fieldReceiverType
	fieldContext
	fieldBody
	numComposeFields
)

// composeContexts are the contexts a new message can be filed under.
var composeContexts = domain.InboxContexts[1:]

// -- messages --

type managersLoadedMsg struct {
	managers []domain.Recipient
	err      error
}

type messageSentMsg struct {
	created *domain.MessageCreated
	err     error
}

// -- model --

type composeModel struct {
	api      composeAPI
	role     domain.Role
	actor    *domain.Actor
	keys     keyMap
	focus    composeField
	managers []domain.Recipient
	mgrIdx   int
	toID     string // typed receiver id when not picking a manager
	rcvIdx   int    // index into domain.RoleOrder
	ctxIdx   int    // index into composeContexts
	body     string
	sending  bool
	status   string
	err      error
}

func newComposeModel(api composeAPI, role domain.Role) composeModel {
	m := composeModel{api: api, role: role, keys: defaultKeyMap()}
	m.ctxIdx = len(composeContexts) - 1 // messages
	return m
}

// picksManager reports whether the recipient comes from the managers list.
func (m composeModel) picksManager() bool {
	return m.role == domain.RoleEmployee
}

func (m composeModel) Init() tea.Cmd {
	if !m.picksManager() || m.api == nil {
		return nil
	}
	api := m.api
	return func() tea.Msg {
		ms, err := api.Managers(context.Background())
		return managersLoadedMsg{managers: ms, err: err}
	}
}

func (m composeModel) Update(msg tea.Msg) (composeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case meLoadedMsg:
		if msg.err == nil {
			m.actor = msg.actor
		}

	case managersLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "could not load managers"
			return m, nil
		}
		m.managers = msg.managers
		if m.mgrIdx >= len(m.managers) {
			m.mgrIdx = 0
		}

	case messageSentMsg:
		m.sending = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "failed to send message"
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("message sent (#%d)", msg.created.MessageID)
		m.body = ""
		m.focus = fieldBody

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m composeModel) visible(f composeField) bool {
	return f != fieldReceiverType || !m.picksManager()
}

func (m composeModel) step(delta int) composeModel {
	f := m.focus
	for {
		f = (f + composeField(delta) + numComposeFields) % numComposeFields
		if m.visible(f) {
			m.focus = f
			return m
		}
	}
}

func (m composeModel) updateKeys(msg tea.KeyMsg) (composeModel, tea.Cmd) {
	m.status = ""
	m.err = nil

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.submit()
	case key.Matches(msg, m.keys.NextField):
		return m.step(1), nil
	case key.Matches(msg, m.keys.PrevField):
		return m.step(-1), nil
	case key.Matches(msg, m.keys.Cycle):
		delta := 1
		if msg.Type == tea.KeyLeft {
			delta = -1
		}
		return m.cycle(delta), nil
	}

	switch m.focus {
	case fieldBody:
		if msg.Type == tea.KeyEnter {
			m.body += "\n"
			return m, nil
		}
		m.body = editInput(m.body, msg)
	case fieldTo:
		if m.picksManager() {
			return m, nil
		}
		next := editInput(m.toID, msg)
		if next == "" || isDigits(next) {
			m.toID = next
		}
	}
	return m, nil
}

func (m composeModel) cycle(delta int) composeModel {
	wrap := func(i, n int) int {
		if n == 0 {
			return 0
		}
		return (i + delta + n) % n
	}
	switch m.focus {
	case fieldTo:
		if m.picksManager() {
			m.mgrIdx = wrap(m.mgrIdx, len(m.managers))
		}
	case fieldReceiverType:
		m.rcvIdx = wrap(m.rcvIdx, len(domain.RoleOrder))
	case fieldContext:
		m.ctxIdx = wrap(m.ctxIdx, len(composeContexts))
	}
	return m
}

// draft builds the outgoing message, or explains what is missing.
func (m composeModel) draft() (domain.NewMessage, string) {
	body := strings.TrimSpace(m.body)
	if body == "" {
		return domain.NewMessage{}, "message is required"
	}

	nm := domain.NewMessage{
		Context:    composeContexts[m.ctxIdx],
		Message:    body,
		SenderType: string(m.role),
	}
	if m.actor != nil {
		id := m.actor.ID
		nm.SenderID = &id
		nm.SenderName = m.actor.DisplayName()
	}

	if m.picksManager() {
		if len(m.managers) == 0 {
			return domain.NewMessage{}, "no manager to send to"
		}
		id := m.managers[m.mgrIdx].ID
		nm.ReceiverID = &id
		nm.ReceiverType = string(domain.RoleManager)
		return nm, ""
	}

	if m.toID == "" {
		return domain.NewMessage{}, "receiver id is required"
	}
	id, err := strconv.ParseInt(m.toID, 10, 64)
	if err != nil {
		return domain.NewMessage{}, "receiver id must be a number"
	}
	nm.ReceiverID = &id
	nm.ReceiverType = string(domain.RoleOrder[m.rcvIdx])
	return nm, ""
}

func (m composeModel) submit() (composeModel, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	nm, problem := m.draft()
	if problem != "" {
		m.status = problem
		return m, nil
	}

	m.sending = true
	api := m.api
	return m, func() tea.Msg {
		created, err := api.SendMessage(context.Background(), nm)
		return messageSentMsg{created: created, err: err}
	}
}

func (m composeModel) View() string {
	var b strings.Builder

	b.WriteString(" " + sectionHeaderStyle.Render("New message") + "\n\n")

	if m.picksManager() {
		to := "no managers found"
		if len(m.managers) > 0 {
			r := m.managers[m.mgrIdx]
			to = fmt.Sprintf("%s (%s)  %s", r.EmployeeName, r.Username, metaStyle.Render("←/→"))
		}
		b.WriteString(renderChoice("to", to, m.focus == fieldTo) + "\n")
	} else {
		b.WriteString(renderInput("to", m.toID, "receiver id", m.focus == fieldTo) + "\n")
		b.WriteString(renderChoice("as", domain.Roles[domain.RoleOrder[m.rcvIdx]].Label+"  "+metaStyle.Render("←/→"), m.focus == fieldReceiverType) + "\n")
	}

	ctx := composeContexts[m.ctxIdx]
	b.WriteString(renderChoice("context", ContextBadge(ctx)+"  "+metaStyle.Render("←/→"), m.focus == fieldContext) + "\n")
	b.WriteString(renderInput("message", m.body, "type your message", m.focus == fieldBody) + "\n")

	b.WriteString("\n")
	switch {
	case m.sending:
		b.WriteString(" " + dimStyle.Render("sending..."))
	case m.err != nil:
		b.WriteString(" " + errStyle.Render(m.status+": "+m.err.Error()))
	case m.status != "":
		b.WriteString(" " + okStyle.Render(m.status))
	}
	return b.String()
}

// renderChoice renders a form line whose value is picked, not typed.
func renderChoice(label, value string, focused bool) string {
	prompt := "  "
	labelStyle := metaStyle
	if focused {
		prompt = inputPromptStyle.Render("> ")
		labelStyle = selectedStyle
	}
	return prompt + labelStyle.Render(label+":") + " " + value
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
