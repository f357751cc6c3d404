package inbox

import (
	"reflect"
	"testing"

	"github.com/brainhr/hrdesk/pkg/domain"
)

func msg(id int64, sender string, isRead int) domain.Message {
	return domain.Message{ID: id, SenderName: sender, IsRead: isRead, Body: "body"}
}

func ids(msgs []domain.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestGroup_AliceBob(t *testing.T) {
	g := Group([]domain.Message{
		msg(1, "Alice", 0),
		msg(2, "Bob", 1),
		msg(3, "Alice", 0),
	})

	if got, want := g.Senders(), []string{"Alice", "Bob"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Senders() = %v, want %v", got, want)
	}
	if got, want := ids(g.Messages("Alice")), []int64{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Alice = %v, want %v", got, want)
	}
	if got, want := ids(g.Messages("Bob")), []int64{2}; !reflect.DeepEqual(got, want) {
		t.Errorf("Bob = %v, want %v", got, want)
	}
	if got := g.UnreadCount("Alice"); got != 2 {
		t.Errorf("UnreadCount(Alice) = %d, want 2", got)
	}
	if got := g.UnreadCount("Bob"); got != 0 {
		t.Errorf("UnreadCount(Bob) = %d, want 0", got)
	}
}

func TestGroup_Partition(t *testing.T) {
	tests := []struct {
		name  string
		input []domain.Message
	}{
		{"empty", nil},
		{"single", []domain.Message{msg(1, "Alice", 0)}},
		{"interleaved", []domain.Message{
			msg(5, "Carol", 1), msg(4, "Alice", 0), msg(3, "Carol", 0),
			msg(2, "", 0), msg(1, "Alice", 1), msg(0, "", 1),
		}},
		{"same sender", []domain.Message{msg(3, "Dan", 0), msg(2, "Dan", 0), msg(1, "Dan", 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Group(tt.input)

			total := 0
			for _, s := range g.Senders() {
				ms := g.Messages(s)
				total += len(ms)
				// relative order within the group matches the input
				var want []int64
				for _, m := range tt.input {
					if m.SenderKey() == s {
						want = append(want, m.ID)
					}
				}
				if got := ids(ms); !reflect.DeepEqual(got, want) {
					t.Errorf("group %q = %v, want %v", s, got, want)
				}
			}
			if total != len(tt.input) {
				t.Errorf("grouped %d messages, want %d", total, len(tt.input))
			}
			if got := len(g.Flatten()); got != len(tt.input) {
				t.Errorf("len(Flatten()) = %d, want %d", got, len(tt.input))
			}
			if g.Empty() != (len(tt.input) == 0) {
				t.Errorf("Empty() = %v, want %v", g.Empty(), len(tt.input) == 0)
			}
		})
	}
}

func TestGroup_UnknownSender(t *testing.T) {
	g := Group([]domain.Message{msg(1, "", 0), msg(2, "Unknown", 1)})
	if got, want := g.Senders(), []string{domain.UnknownSender}; !reflect.DeepEqual(got, want) {
		t.Errorf("Senders() = %v, want %v", got, want)
	}
	if got := g.UnreadCount(domain.UnknownSender); got != 1 {
		t.Errorf("UnreadCount(Unknown) = %d, want 1", got)
	}
}

func TestGroup_Empty(t *testing.T) {
	g := Group(nil)
	if !g.Empty() || g.Len() != 0 {
		t.Errorf("Group(nil) Empty=%v Len=%d, want true 0", g.Empty(), g.Len())
	}
	if got := g.UnreadCount("Alice"); got != 0 {
		t.Errorf("UnreadCount on empty = %d, want 0", got)
	}
	if g.Messages("Alice") != nil {
		t.Error("Messages on empty groups is non-nil")
	}
}

func TestGroup_AllRead(t *testing.T) {
	g := Group([]domain.Message{msg(1, "Bob", 1), msg(2, "Bob", 1)})
	if got := g.UnreadCount("Bob"); got != 0 {
		t.Errorf("UnreadCount(Bob) = %d, want 0", got)
	}
}

func TestGroups_SendersIsACopy(t *testing.T) {
	g := Group([]domain.Message{msg(1, "Alice", 0), msg(2, "Bob", 0)})
	s := g.Senders()
	s[0] = "Mallory"
	if got := g.Senders()[0]; got != "Alice" {
		t.Errorf("Senders()[0] = %q after caller mutation, want Alice", got)
	}
}
