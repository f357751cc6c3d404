package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// healthInterval is how often the header re-checks the backend.
const healthInterval = time.Minute

// healthAPI pings the backend.
type healthAPI interface {
	Health(ctx context.Context) error
}

// healthMsg carries the result of a background health check.
type healthMsg struct {
	err error
}

// healthTickMsg schedules the next check.
type healthTickMsg struct{}

// checkHealth fires a non-blocking health request. The bell keeps showing the
// last good state while the backend is down; the header says so.
func checkHealth(api healthAPI) tea.Cmd {
	if api == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthMsg{err: api.Health(ctx)}
	}
}

func healthTickCmd() tea.Cmd {
	return tea.Tick(healthInterval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}
