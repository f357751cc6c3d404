package tui

import (
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in a form input.
const maxInputLen = 2000

// editInput applies a keystroke or paste to text. Backspace removes one rune;
// runes and spaces are appended up to maxInputLen. Other keys leave text
// unchanged.
func editInput(text string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		if text == "" {
			return text
		}
		runes := []rune(text)
		return string(runes[:len(runes)-1])
	case tea.KeySpace:
		return appendClamped(text, []rune{' '})
	case tea.KeyRunes:
		return appendClamped(text, msg.Runes)
	}
	return text
}

func appendClamped(text string, add []rune) string {
	room := maxInputLen - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	if len(add) > room {
		add = add[:room]
	}
	return text + string(add)
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderInput renders one labelled form line with a block cursor when focused.
func renderInput(label, value, placeholder string, focused bool) string {
	prompt := "  "
	labelStyle := metaStyle
	if focused {
		prompt = inputPromptStyle.Render("> ")
		labelStyle = selectedStyle
	}

	var body string
	switch {
	case value == "" && !focused:
		body = inputPlaceholderStyle.Render(placeholder)
	case focused:
		body = normalStyle.Render(strings.ReplaceAll(value, "\n", " ")) + accentStyle.Render("█")
	default:
		body = dimStyle.Render(strings.ReplaceAll(value, "\n", " "))
	}
	return prompt + labelStyle.Render(label+":") + " " + body
}
