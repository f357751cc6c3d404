package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/brainhr/hrdesk/internal/apitest"
	"github.com/brainhr/hrdesk/pkg/domain"
)

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c, err := New(url, opts...)
	if err != nil {
		t.Fatalf("New(%q) error: %v", url, err)
	}
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000/api", "/api"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) = nil error, want error", raw)
		}
	}
}

func TestLogin_SessionCookieSentOnLaterRequests(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser(domain.RoleManager, 7, "mgr", "pw", "", "Maria Manager")
	srv.SetInbox(domain.RoleManager, []domain.Message{
		{ID: 1, SenderName: "Alice", Context: "timesheets", Body: "hi"},
		{ID: 2, SenderName: "Bob", Context: "visa", Body: "doc", IsRead: 1},
	})

	c := newTestClient(t, srv.URL)
	if got := c.Session(); got != "" {
		t.Fatalf("Session() before login = %q, want empty", got)
	}

	actor, err := c.Login(context.Background(), domain.RoleManager, domain.Credentials{Username: "mgr", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if actor.ID != 7 || actor.Username != "mgr" {
		t.Errorf("Login() = %+v, want id 7 username mgr", actor)
	}
	if c.Session() == "" {
		t.Fatal("Session() after login is empty")
	}

	n, err := c.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount() error: %v", err)
	}
	if n != 1 {
		t.Errorf("UnreadCount() = %d, want 1", n)
	}

	me, err := c.Me(context.Background(), domain.RoleManager)
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if me.Name != "Maria Manager" {
		t.Errorf("Me().Name = %q, want %q", me.Name, "Maria Manager")
	}

	// A second client seeded with the stored cookie shares the session.
	c2 := newTestClient(t, srv.URL, WithSession(c.Session()))
	msgs, err := c2.MyMessages(context.Background(), domain.RoleManager, "")
	if err != nil {
		t.Fatalf("MyMessages() with seeded session error: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("len(msgs) = %d, want 2", len(msgs))
	}

	if err := c.Logout(context.Background(), domain.RoleManager); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	_, err = c2.MyMessages(context.Background(), domain.RoleManager, "")
	if !IsAuth(err) {
		t.Errorf("MyMessages() after logout error = %v, want auth error", err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser(domain.RoleEmployee, 3, "emp", "pw", "E-100", "Eve")

	c := newTestClient(t, srv.URL)
	_, err := c.Login(context.Background(), domain.RoleEmployee, domain.Credentials{EmployeeID: "E-999", Username: "emp", Password: "pw"})
	if !IsAuth(err) {
		t.Fatalf("Login() error = %v, want auth error", err)
	}
	if got := err.Error(); !strings.Contains(got, "Invalid credentials") {
		t.Errorf("error = %q, want it to contain 'Invalid credentials'", got)
	}
}

func TestMyMessages_RolePathAndContext(t *testing.T) {
	tests := []struct {
		name        string
		role        domain.Role
		msgContext  string
		wantPath    string
		wantContext string
	}{
		{"employee all", domain.RoleEmployee, "", "/api/employee/my-messages", ""},
		{"manager visa", domain.RoleManager, "visa", "/api/manager/my-messages", "visa"},
		{"admin timesheets", domain.RoleAdmin, "timesheets", "/api/admin/my-messages", "timesheets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotContext string
			var hasContext bool
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotContext = r.URL.Query().Get("context")
				hasContext = r.URL.Query().Has("context")
				json.NewEncoder(w).Encode([]domain.Message{ //nolint:errcheck
					{ID: 9, SenderName: "Alice", Context: "visa"},
					{ID: 8, SenderName: "", Context: "visa"},
				})
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			msgs, err := c.MyMessages(context.Background(), tt.role, tt.msgContext)
			if err != nil {
				t.Fatalf("MyMessages() error: %v", err)
			}
			if gotPath != tt.wantPath {
				t.Errorf("path = %q, want %q", gotPath, tt.wantPath)
			}
			if gotContext != tt.wantContext {
				t.Errorf("context = %q, want %q", gotContext, tt.wantContext)
			}
			if hasContext != (tt.wantContext != "") {
				t.Errorf("context param present = %v, want %v", hasContext, tt.wantContext != "")
			}
			if len(msgs) != 2 || msgs[0].ID != 9 || msgs[1].SenderKey() != domain.UnknownSender {
				t.Errorf("msgs = %+v, want server order with Unknown fallback", msgs)
			}
		})
	}
}

func TestMarkRead(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if err := c.MarkRead(context.Background(), 42); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/api/messages/mark-read/42" {
		t.Errorf("path = %q, want %q", gotPath, "/api/messages/mark-read/42")
	}
}

func TestSendMessage_AndManagers(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.AddUser(domain.RoleEmployee, 3, "emp", "pw", "E-100", "Eve")
	srv.AddUser(domain.RoleManager, 7, "mgr", "pw", "", "Maria Manager")

	c := newTestClient(t, srv.URL)
	if _, err := c.Login(context.Background(), domain.RoleEmployee, domain.Credentials{EmployeeID: "E-100", Username: "emp", Password: "pw"}); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	managers, err := c.Managers(context.Background())
	if err != nil {
		t.Fatalf("Managers() error: %v", err)
	}
	if len(managers) != 1 || managers[0].EmployeeName != "Maria Manager" {
		t.Fatalf("Managers() = %+v, want Maria Manager", managers)
	}

	to := managers[0].ID
	created, err := c.SendMessage(context.Background(), domain.NewMessage{
		Context:      domain.ContextMessages,
		Message:      "leaving early friday",
		SenderType:   "employee",
		ReceiverID:   &to,
		ReceiverType: "manager",
	})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if !created.Success || created.MessageID == 0 {
		t.Errorf("SendMessage() = %+v, want success with id", created)
	}

	inbox := srv.Inbox(domain.RoleManager)
	if len(inbox) != 1 || inbox[0].SenderName != "Eve" || !inbox[0].Unread() {
		t.Errorf("manager inbox = %+v, want one unread message from Eve", inbox)
	}
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
		wantAuth bool
	}{
		{"json error", http.StatusInternalServerError, `{"error":"boom"}`, "boom", false},
		{"plain body", http.StatusBadGateway, "upstream down", "upstream down", false},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable", false},
		{"unauthorized", http.StatusUnauthorized, `{"error":"Authentication required"}`, "Authentication required", true},
		{"forbidden", http.StatusForbidden, `{"error":"Forbidden"}`, "Forbidden", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			_, err := c.UnreadCount(context.Background())
			if err == nil {
				t.Fatalf("expected error for %d response", tt.status)
			}
			if got := err.Error(); !strings.Contains(got, tt.wantText) {
				t.Errorf("error = %q, want it to contain %q", got, tt.wantText)
			}
			if !IsStatus(err, tt.status) {
				t.Errorf("IsStatus(err, %d) = false", tt.status)
			}
			if got := IsAuth(err); got != tt.wantAuth {
				t.Errorf("IsAuth(err) = %v, want %v", got, tt.wantAuth)
			}
		})
	}
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"unread_count": "lots"`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.UnreadCount(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestRequestIDHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(domain.UnreadCount{UnreadCount: 2}) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.UnreadCount(context.Background()); err != nil {
		t.Fatalf("UnreadCount() error: %v", err)
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("X-Request-ID = %q, want a uuid: %v", got, err)
	}
}

// dropFirst closes the connection without a response on the first n calls.
func dropFirst(n int32, calls *atomic.Int32, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= n {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close() //nolint:errcheck
			}
			return
		}
		next(w, r)
	}
}

func TestGet_RetriedOnTransportError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(dropFirst(1, &calls, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(domain.UnreadCount{UnreadCount: 4}) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	n, err := c.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount() error: %v", err)
	}
	if n != 4 {
		t.Errorf("UnreadCount() = %d, want 4", n)
	}
	if got := calls.Load(); got < 2 {
		t.Errorf("calls = %d, want at least 2", got)
	}
}

func TestGet_NotRetriedOnHTTPError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.UnreadCount(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestPost_NotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(dropFirst(1, &calls, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if err := c.MarkRead(context.Background(), 1); err == nil {
		t.Fatal("expected error for dropped connection")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestBreaker_OpensAfterServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	for i := 0; i < breakerTrips; i++ {
		if err := c.MarkRead(context.Background(), 1); !IsStatus(err, http.StatusServiceUnavailable) {
			t.Fatalf("call %d error = %v, want 503", i, err)
		}
	}

	err := c.MarkRead(context.Background(), 1)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
	if got := calls.Load(); got != breakerTrips {
		t.Errorf("calls = %d, want %d", got, breakerTrips)
	}
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	for i := 0; i < breakerTrips+2; i++ {
		if err := c.MarkRead(context.Background(), 1); !IsAuth(err) {
			t.Fatalf("call %d error = %v, want 401", i, err)
		}
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second)                     // slow server
		json.NewEncoder(w).Encode(domain.UnreadCount{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.UnreadCount(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
