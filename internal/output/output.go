// Package output renders CLI results as a table for people or JSON for
// scripts.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/brainhr/hrdesk/internal/inbox"
	"github.com/brainhr/hrdesk/internal/notify"
	"github.com/brainhr/hrdesk/pkg/domain"
)

// Format selects how results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ErrInvalidFormat is returned for an unknown --format value.
var ErrInvalidFormat = errors.New("invalid --format value")

// DefaultFormat is table on a terminal and json otherwise.
func DefaultFormat() Format {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat validates a --format flag. Empty picks DefaultFormat.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimSpace(strings.ToLower(s))); f {
	case "":
		return DefaultFormat(), nil
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q (want table or json)", ErrInvalidFormat, s)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func render(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func readMark(m domain.Message) string {
	if m.Unread() {
		return "unread"
	}
	return "read"
}

func messageRow(m domain.Message, bodyWidth int) []string {
	body := strings.Join(strings.Fields(m.Body), " ")
	if r := []rune(body); len(r) > bodyWidth {
		body = string(r[:bodyWidth-1]) + "…"
	}
	return []string{
		strconv.FormatInt(m.ID, 10),
		m.SenderKey(),
		domain.ContextLabel(m.Context),
		readMark(m),
		m.CreatedAt,
		body,
	}
}

var messageHeaders = []string{"ID", "FROM", "CONTEXT", "STATUS", "CREATED", "MESSAGE"}

// Messages prints an inbox listing in server order.
func Messages(w io.Writer, msgs []domain.Message, f Format) error {
	if f == FormatJSON {
		if msgs == nil {
			msgs = []domain.Message{}
		}
		return printJSON(w, msgs)
	}
	if len(msgs) == 0 {
		_, err := fmt.Fprintln(w, "No messages yet")
		return err
	}
	rows := make([][]string, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, messageRow(m, 60))
	}
	return render(w, messageHeaders, rows)
}

type groupJSON struct {
	Sender   string           `json:"sender"`
	Color    int              `json:"color"`
	Unread   int              `json:"unread"`
	Messages []domain.Message `json:"messages"`
}

// Groups prints messages grouped by sender, senders in first-seen order.
func Groups(w io.Writer, g inbox.Groups, f Format) error {
	if f == FormatJSON {
		out := make([]groupJSON, 0, g.Len())
		for _, s := range g.Senders() {
			out = append(out, groupJSON{
				Sender:   s,
				Color:    inbox.SenderColor(s),
				Unread:   g.UnreadCount(s),
				Messages: g.Messages(s),
			})
		}
		return printJSON(w, out)
	}
	if g.Empty() {
		_, err := fmt.Fprintln(w, "No messages yet")
		return err
	}

	for i, s := range g.Senders() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		msgs := g.Messages(s)
		header := fmt.Sprintf("%s  (%d messages", s, len(msgs))
		if len(msgs) == 1 {
			header = fmt.Sprintf("%s  (1 message", s)
		}
		if n := g.UnreadCount(s); n > 0 {
			header += fmt.Sprintf(", %d unread", n)
		}
		if _, err := fmt.Fprintln(w, header+")"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(msgs))
		for _, m := range msgs {
			rows = append(rows, messageRow(m, 60))
		}
		if err := render(w, messageHeaders, rows); err != nil {
			return err
		}
	}
	return nil
}

type unreadJSON struct {
	UnreadCount int    `json:"unread_count"`
	Badge       string `json:"badge"`
}

// Unread prints the unread count with its badge text.
func Unread(w io.Writer, n int, f Format) error {
	badge := notify.BadgeText(n)
	if f == FormatJSON {
		return printJSON(w, unreadJSON{UnreadCount: n, Badge: badge})
	}
	var err error
	switch {
	case n <= 0:
		_, err = fmt.Fprintln(w, "No unread messages")
	case n == 1:
		_, err = fmt.Fprintf(w, "1 unread message [%s]\n", badge)
	default:
		_, err = fmt.Fprintf(w, "%d unread messages [%s]\n", n, badge)
	}
	return err
}
