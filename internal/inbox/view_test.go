package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brainhr/hrdesk/pkg/domain"
)

// fakeMarker records MarkRead calls. When gate is set, each call blocks
// until a value is sent on it.
type fakeMarker struct {
	mu      sync.Mutex
	calls   []int64
	err     error
	gate    chan struct{}
	entered chan int64
}

func (m *fakeMarker) MarkRead(_ context.Context, id int64) error {
	m.mu.Lock()
	m.calls = append(m.calls, id)
	gate, entered, err := m.gate, m.entered, m.err
	m.mu.Unlock()

	if entered != nil {
		entered <- id
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (m *fakeMarker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func aliceBob() []domain.Message {
	return []domain.Message{
		msg(1, "Alice", 0),
		msg(2, "Bob", 1),
		msg(3, "Alice", 0),
	}
}

func TestView_InitialState(t *testing.T) {
	v := NewView(&fakeMarker{}, nil)
	if _, ok := v.Expanded(); ok {
		t.Error("a group is expanded initially")
	}
	if !v.Groups().Empty() {
		t.Error("new view is not empty")
	}
}

func TestView_ToggleSingleSelect(t *testing.T) {
	v := NewView(&fakeMarker{}, nil)
	v.SetMessages(aliceBob())

	v.Toggle("Alice")
	if !v.IsExpanded("Alice") {
		t.Fatal("Alice not expanded after Toggle(Alice)")
	}

	v.Toggle("Bob")
	if got, ok := v.Expanded(); !ok || got != "Bob" {
		t.Errorf("Expanded() = %q, %v, want Bob, true", got, ok)
	}
	if v.IsExpanded("Alice") {
		t.Error("Alice still expanded after Toggle(Bob)")
	}

	v.Toggle("Bob")
	if got, ok := v.Expanded(); ok {
		t.Errorf("Expanded() = %q, true after toggling Bob twice, want none", got)
	}
}

func TestView_ToggleSurvivesRefresh(t *testing.T) {
	v := NewView(&fakeMarker{}, nil)
	v.SetMessages(aliceBob())
	v.Toggle("Bob")
	v.SetMessages([]domain.Message{msg(4, "Bob", 0)})
	if !v.IsExpanded("Bob") {
		t.Error("Bob collapsed by SetMessages")
	}
}

func TestView_UnreadCountFor(t *testing.T) {
	v := NewView(&fakeMarker{}, nil)
	if got := v.UnreadCountFor("Alice"); got != 0 {
		t.Errorf("UnreadCountFor(Alice) on empty view = %d, want 0", got)
	}
	v.SetMessages(aliceBob())
	if got := v.UnreadCountFor("Alice"); got != 2 {
		t.Errorf("UnreadCountFor(Alice) = %d, want 2", got)
	}
	if got := v.UnreadCountFor("Bob"); got != 0 {
		t.Errorf("UnreadCountFor(Bob) = %d, want 0", got)
	}
}

func TestView_MarkAsRead(t *testing.T) {
	errBackend := errors.New("HTTP 500: boom")
	tests := []struct {
		name        string
		id          int64
		markErr     error
		wantCall    bool
		wantRefresh bool
		wantErr     bool
	}{
		{"unread message", 1, nil, true, true, false},
		{"backend failure still refreshes", 3, errBackend, true, true, true},
		{"already read", 2, nil, false, false, false},
		{"unknown id", 99, nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMarker{err: tt.markErr}
			v := NewView(m, nil)
			v.SetMessages(aliceBob())

			refreshed := false
			err := v.MarkAsRead(context.Background(), tt.id, func() { refreshed = true })

			if got := m.callCount() == 1; got != tt.wantCall {
				t.Errorf("backend called = %v, want %v", got, tt.wantCall)
			}
			if refreshed != tt.wantRefresh {
				t.Errorf("refreshed = %v, want %v", refreshed, tt.wantRefresh)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errBackend) {
				t.Errorf("err = %v, want it to wrap the backend error", err)
			}
			if v.IsMarking(tt.id) {
				t.Error("IsMarking still true after MarkAsRead returned")
			}
		})
	}
}

func TestView_MarkAsReadNoStateChangeForReadMessage(t *testing.T) {
	v := NewView(&fakeMarker{}, nil)
	v.SetMessages(aliceBob())
	v.Toggle("Bob")

	if err := v.MarkAsRead(context.Background(), 2, nil); err != nil {
		t.Fatalf("MarkAsRead() error: %v", err)
	}
	if !v.IsExpanded("Bob") || v.UnreadCountFor("Alice") != 2 || v.IsMarking(2) {
		t.Error("view state changed after marking a read message")
	}
}

func TestView_MarkAsReadNilRefresh(t *testing.T) {
	m := &fakeMarker{}
	v := NewView(m, nil)
	v.SetMessages(aliceBob())
	if err := v.MarkAsRead(context.Background(), 1, nil); err != nil {
		t.Fatalf("MarkAsRead() error: %v", err)
	}
	if m.callCount() != 1 {
		t.Errorf("calls = %d, want 1", m.callCount())
	}
}

func TestView_InFlightBlocksSameMessageOnly(t *testing.T) {
	m := &fakeMarker{gate: make(chan struct{}), entered: make(chan int64, 2)}
	v := NewView(m, nil)
	v.SetMessages(aliceBob())

	done := make(chan error, 1)
	go func() { done <- v.MarkAsRead(context.Background(), 1, nil) }()

	select {
	case <-m.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first MarkAsRead never reached the backend")
	}
	if !v.IsMarking(1) {
		t.Error("IsMarking(1) = false while in flight")
	}

	// same message: ignored while in flight
	if err := v.MarkAsRead(context.Background(), 1, nil); err != nil {
		t.Errorf("second MarkAsRead(1) error: %v", err)
	}
	if got := m.callCount(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}

	// another message is still clickable
	other := make(chan error, 1)
	go func() { other <- v.MarkAsRead(context.Background(), 3, nil) }()
	select {
	case <-m.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("MarkAsRead(3) blocked by message 1")
	}
	if !v.IsMarking(3) {
		t.Error("IsMarking(3) = false while in flight")
	}

	m.gate <- struct{}{}
	m.gate <- struct{}{}
	for _, ch := range []chan error{done, other} {
		select {
		case err := <-ch:
			if err != nil {
				t.Errorf("MarkAsRead error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("MarkAsRead did not return")
		}
	}
	if v.IsMarking(1) || v.IsMarking(3) {
		t.Error("in-flight markers not cleared")
	}
}

func TestView_MessageLookup(t *testing.T) {
	v := NewView(&fakeMarker{}, nil)
	v.SetMessages(aliceBob())

	if m, ok := v.Message(2); !ok || m.SenderName != "Bob" {
		t.Errorf("Message(2) = %+v, %v, want Bob, true", m, ok)
	}
	if _, ok := v.Message(99); ok {
		t.Error("Message(99) found, want missing")
	}

	v.SetMessages(nil)
	if _, ok := v.Message(2); ok {
		t.Error("Message(2) found after SetMessages(nil)")
	}
}
