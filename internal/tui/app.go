package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brainhr/hrdesk/internal/inbox"
	"github.com/brainhr/hrdesk/internal/notify"
	"github.com/brainhr/hrdesk/pkg/client"
	"github.com/brainhr/hrdesk/pkg/domain"
)

type view int

const (
	viewInbox view = iota
	viewCompose
)

// meLoadedMsg carries the signed-in account.
type meLoadedMsg struct {
	actor *domain.Actor
	err   error
}

// waitForRefresh turns the poller's external refresh hook into a
// reloadInboxMsg. Re-issue it after each one.
func waitForRefresh(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return reloadInboxMsg{}
	}
}

// App is the root Bubbletea model.
type App struct {
	client    *client.Client
	role      domain.Role
	poller    *notify.Poller
	refreshCh chan struct{}
	keys      keyMap
	help      help.Model
	view      view
	bell      bellModel
	inbox     inboxModel
	compose   composeModel
	actor     *domain.Actor
	healthErr error
	helpOpen  bool
	width     int
	height    int
	frame     int // logo shimmer animation frame
}

// NewApp creates the TUI for a signed-in role. The poller is started by Init
// and stopped on quit.
func NewApp(c *client.Client, role domain.Role, p *notify.Poller, logger *slog.Logger) App {
	refreshCh := make(chan struct{}, 1)
	var onMarked func()
	if p != nil {
		onMarked = p.Refresh
	}
	return App{
		client:    c,
		role:      role,
		poller:    p,
		refreshCh: refreshCh,
		keys:      defaultKeyMap(),
		help:      help.New(),
		bell:      newBellModel(p),
		inbox:     newInboxModel(c, role, inbox.NewView(c, logger), onMarked),
		compose:   newComposeModel(c, role),
	}
}

func (a App) Init() tea.Cmd {
	if a.poller != nil {
		ch := a.refreshCh
		a.poller.Start(a.role, func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		})
	}
	return tea.Batch(
		waitForPoll(a.poller),
		waitForRefresh(a.refreshCh),
		a.inbox.Init(),
		a.compose.Init(),
		a.loadMe(),
		checkHealth(a.client),
		healthTickCmd(),
		shimmerTickCmd(),
	)
}

func (a App) loadMe() tea.Cmd {
	c, role := a.client, a.role
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		actor, err := c.Me(context.Background(), role)
		return meLoadedMsg{actor: actor, err: err}
	}
}

func (a App) quit() (tea.Model, tea.Cmd) {
	if a.poller != nil {
		a.poller.Stop()
	}
	return a, tea.Quit
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.inbox, _ = a.inbox.Update(bodyMsg)
		a.compose, _ = a.compose.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		a.bell, _ = a.bell.Update(msg)
		return a, shimmerTickCmd()

	case pollStateMsg, bellSelectedMsg:
		var cmd tea.Cmd
		a.bell, cmd = a.bell.Update(msg)
		return a, cmd

	case reloadInboxMsg:
		var cmd tea.Cmd
		a.inbox, cmd = a.inbox.Update(msg)
		return a, tea.Batch(cmd, waitForRefresh(a.refreshCh))

	case meLoadedMsg:
		if msg.err == nil && msg.actor != nil {
			a.actor = msg.actor
		}
		a.compose, _ = a.compose.Update(msg)
		return a, nil

	case healthMsg:
		a.healthErr = msg.err
		return a, nil

	case healthTickMsg:
		return a, tea.Batch(checkHealth(a.client), healthTickCmd())

	case managersLoadedMsg, messageSentMsg:
		var cmd tea.Cmd
		a.compose, cmd = a.compose.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Everything else (loads, marks, spinner ticks) belongs to the inbox.
	var cmd tea.Cmd
	a.inbox, cmd = a.inbox.Update(msg)
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a.quit()
	}

	// Help overlay captures all keys when open
	if a.helpOpen {
		switch {
		case key.Matches(msg, a.keys.Help), key.Matches(msg, a.keys.Back):
			a.helpOpen = false
		case key.Matches(msg, a.keys.Quit):
			return a.quit()
		}
		return a, nil
	}

	// Bell dropdown captures navigation keys when open
	if a.bell.open {
		if key.Matches(msg, a.keys.Quit) {
			return a.quit()
		}
		var cmd tea.Cmd
		a.bell, cmd = a.bell.handleKey(msg, a.keys)
		return a, cmd
	}

	// The compose form takes typed keys; only esc leaves it.
	if a.view == viewCompose {
		if key.Matches(msg, a.keys.Back) {
			a.view = viewInbox
			return a, nil
		}
		var cmd tea.Cmd
		a.compose, cmd = a.compose.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit()
	case key.Matches(msg, a.keys.Help):
		a.helpOpen = true
		return a, nil
	case key.Matches(msg, a.keys.Bell):
		a.bell = a.bell.toggle()
		return a, nil
	case key.Matches(msg, a.keys.Compose):
		a.view = viewCompose
		return a, nil
	case key.Matches(msg, a.keys.Inbox):
		return a, nil
	}

	var cmd tea.Cmd
	a.inbox, cmd = a.inbox.Update(msg)
	return a, cmd
}

func (a App) header() string {
	logo := renderShimmerLogo(a.frame)

	who := domain.Roles[a.role].Label
	if a.actor != nil {
		who = a.actor.DisplayName() + " · " + who
	}
	right := metaStyle.Render(who) + "  " + a.bell.icon()
	if a.healthErr != nil {
		right = errStyle.Render("offline") + "  " + right
	}

	gap := a.width - lipgloss.Width(logo) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := " " + logo + strings.Repeat(" ", gap) + right

	status := ""
	if st := a.bell.state; !st.LastUpdated.IsZero() {
		status = " " + metaStyle.Render("updated "+formatTime(st.LastUpdated))
	}
	return line + "\n" + status
}

func (a App) tabs() string {
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	entries := []tabEntry{
		{"1", "Inbox", viewInbox},
		{"2", "Compose", viewCompose},
	}

	var parts []string
	for _, t := range entries {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		if t.v == viewInbox {
			if badge := a.bell.state.Badge(); badge != "" {
				label += " " + unreadDotStyle.Render("●") + dimStyle.Render(badge)
			}
		}
		parts = append(parts, label)
	}
	return " " + strings.Join(parts, "    ")
}

func (a App) View() string {
	var body string
	var bindings []key.Binding
	switch a.view {
	case viewInbox:
		body = a.inbox.View()
		bindings = a.inbox.helpKeys()
	case viewCompose:
		body = a.compose.View()
		bindings = a.keys.composeHelp()
	}

	if a.bell.open {
		body = a.bell.dropdownView(a.width)
		bindings = a.keys.bellHelp()
	}

	helpBar := " " + a.help.ShortHelpView(bindings)
	if a.helpOpen {
		body = "\n" + a.help.FullHelpView(a.keys.FullHelp())
		helpBar = " " + a.help.ShortHelpView([]key.Binding{a.keys.Back})
	}

	// Chrome budget: header(2) + tabs(1) + help(1) = 4 lines + body
	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", a.header(), a.tabs(), body, helpBar)
}
