package tui

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brainhr/hrdesk/internal/inbox"
	"github.com/brainhr/hrdesk/pkg/domain"
)

// Shimmer animation for the header logo and the bell when new mail lands.
type shimmerTickMsg struct{}

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return shimmerTickMsg{}
	})
}

// renderShimmerLogo renders "H R D E S K" as a slow wave of blue light.
// Deep navy (#1e3a5f) -> sky (#60a5fa).
func renderShimmerLogo(frame int) string {
	const text = "HRDESK"
	n := len(text)

	var out string
	t := float64(frame)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)
		tide := math.Sin(t*0.035) * 0.12
		b = b*0.75 + tide + 0.18

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(30 + b*(96-30))
		g := clampByte(58 + b*(165-58))
		bl := clampByte(95 + b*(250-95))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out += s.Render(string(text[i]))
		if i < n-1 {
			out += "  "
		}
	}
	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	// Base styles
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a5fa"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#22c55e"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444"))

	// Bell badge: white on red, like the web portal's notification dot
	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#ef4444")).
			Bold(true).
			Padding(0, 1)

	unreadDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444"))

	unreadLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#dc2626")).
				Bold(true)

	readLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#16a34a"))

	markingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ca3af")).
			Italic(true)

	dropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#606878"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#60a5fa")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	borderColor = lipgloss.Color("#2a2f3a")

	// Selected row background
	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	// Sender palette, indexed by inbox.SenderColor: blue, orange, green, red,
	// purple, pink.
	senderPalette = [inbox.PaletteSize]lipgloss.Color{
		lipgloss.Color("#3b82f6"),
		lipgloss.Color("#f97316"),
		lipgloss.Color("#22c55e"),
		lipgloss.Color("#ef4444"),
		lipgloss.Color("#a855f7"),
		lipgloss.Color("#ec4899"),
	}

	// Context badge colours
	contextColors = map[string]lipgloss.Color{
		domain.ContextTimesheets: lipgloss.Color("#60a5fa"),
		domain.ContextVisa:       lipgloss.Color("#c084fc"),
		domain.ContextActivities: lipgloss.Color("#4ade80"),
		domain.ContextMessages:   lipgloss.Color("#9ca3af"),
	}
)

// SenderStyle returns the bold style for a sender's avatar and header.
func SenderStyle(sender string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(senderPalette[inbox.SenderColor(sender)]).Bold(true)
}

// ContextStyle returns the style for a message context badge.
func ContextStyle(ctx string) lipgloss.Style {
	if c, ok := contextColors[ctx]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
}

// contextIcons prefix context labels in message rows.
var contextIcons = map[string]string{
	domain.ContextTimesheets:    "⏱", // stopwatch
	domain.ContextVisa:          "\U0001f4c4",
	domain.ContextActivities:    "\U0001f4cb",
	domain.ContextMessages:      "\U0001f4ac",
	domain.ContextDirectMessage: "\U0001f4ac",
}

// ContextBadge renders "icon Label" for a message context.
func ContextBadge(ctx string) string {
	icon, ok := contextIcons[ctx]
	if !ok {
		icon = "\U0001f4e8" // envelope
	}
	return ContextStyle(ctx).Render(icon + " " + domain.ContextLabel(ctx))
}
