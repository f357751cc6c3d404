package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"
)

var signedOutTips = [...]string{
	"Timesheets, visa paperwork and manager notes, all in one inbox.",
	"The bell checks for new messages every 30 seconds once you are in.",
	"Press f in the inbox to filter by timesheets, visa or activities.",
	"Messages are grouped by sender. Enter opens a group.",
	"Press c on a message to copy it to the clipboard.",
	"`hrdesk unread` prints your unread count for status bars and scripts.",
	"`hrdesk messages --grouped --format json` is handy for scripting.",
	"Managers can reply from the Compose tab with 2.",
}

func printGreeting(w io.Writer) {
	tip := signedOutTips[rand.IntN(len(signedOutTips))]

	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true).
		Render("HRDESK")

	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render(tip)

	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Render("To sign in: hrdesk login")

	fmt.Fprintf(w, "\n%s\n\n%s\n\n%s\n\n", title, quote, hint)
}
