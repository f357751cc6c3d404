package domain

import "time"

// UnknownSender is the display name used when a message has no sender_name.
const UnknownSender = "Unknown"

// createdAtLayout is the timestamp format the backend stores messages with.
const createdAtLayout = "2006-01-02 15:04:05"

// Message is a single inbox entry as returned by the backend.
// Only IsRead ever changes, and only through mark-read.
type Message struct {
	ID           int64  `json:"id"`
	Sender       string `json:"sender,omitempty"`
	SenderName   string `json:"sender_name"`
	SenderID     *int64 `json:"sender_id,omitempty"`
	SenderType   string `json:"sender_type,omitempty"`
	ReceiverID   *int64 `json:"receiver_id,omitempty"`
	ReceiverType string `json:"receiver_type,omitempty"`
	EmployeeID   *int64 `json:"employee_id,omitempty"`
	Context      string `json:"context"`
	ContextID    *int64 `json:"context_id,omitempty"`
	Body         string `json:"message"`
	CreatedAt    string `json:"created_at"`
	IsRead       int    `json:"is_read"`
}

// Unread reports whether the message has not been marked read.
func (m Message) Unread() bool {
	return m.IsRead == 0
}

// SenderKey is the grouping key for the message. Two senders sharing a
// display name share a key.
func (m Message) SenderKey() string {
	if m.SenderName == "" {
		return UnknownSender
	}
	return m.SenderName
}

// CreatedTime parses CreatedAt. It returns the zero time when the value is
// in neither the backend layout nor RFC 3339.
func (m Message) CreatedTime() time.Time {
	if t, err := time.ParseInLocation(createdAtLayout, m.CreatedAt, time.UTC); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
		return t
	}
	return time.Time{}
}

// Message contexts. Any other value is passed through untouched.
const (
	ContextTimesheets    = "timesheets"
	ContextVisa          = "visa"
	ContextActivities    = "activities"
	ContextMessages      = "messages"
	ContextDirectMessage = "direct_message"
)

// InboxContexts are the context filters offered when browsing an inbox.
// The empty string means no filter.
var InboxContexts = []string{"", ContextTimesheets, ContextVisa, ContextActivities, ContextMessages}

// ContextLabel returns the display label for a message context.
func ContextLabel(ctx string) string {
	switch ctx {
	case ContextTimesheets:
		return "Timesheets"
	case ContextVisa:
		return "Visa & Docs"
	case ContextActivities:
		return "Activities"
	case ContextMessages, ContextDirectMessage:
		return "Message"
	case "":
		return "All"
	default:
		return ctx
	}
}

// UnreadCount is the response of the unread-count endpoint.
type UnreadCount struct {
	UnreadCount int `json:"unread_count"`
}

// NewMessage is the payload for posting a message.
type NewMessage struct {
	Context      string `json:"context"`
	ContextID    *int64 `json:"context_id,omitempty"`
	Message      string `json:"message"`
	Sender       string `json:"sender,omitempty"`
	SenderName   string `json:"sender_name,omitempty"`
	SenderID     *int64 `json:"sender_id,omitempty"`
	SenderType   string `json:"sender_type,omitempty"`
	ReceiverID   *int64 `json:"receiver_id,omitempty"`
	ReceiverType string `json:"receiver_type,omitempty"`
	EmployeeID   *int64 `json:"employee_id,omitempty"`
}

// MessageCreated is the response of posting a message.
type MessageCreated struct {
	Success   bool  `json:"success"`
	MessageID int64 `json:"message_id"`
}
