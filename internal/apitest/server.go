// Package apitest provides an in-memory fake of the back-office API for tests.
//
// It serves the message, session and health endpoints the client uses, keeps
// per-role inboxes, and can be told to fail the next N calls to a route.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/brainhr/hrdesk/pkg/domain"
)

// Route names accepted by FailNext, MalformNext and Calls.
const (
	RouteHealth      = "health"
	RouteLogin       = "login"
	RouteLogout      = "logout"
	RouteMe          = "me"
	RouteUnreadCount = "unread-count"
	RouteMyMessages  = "my-messages"
	RouteMarkRead    = "mark-read"
	RouteSend        = "send"
	RouteManagers    = "managers"
)

type user struct {
	role       domain.Role
	id         int64
	username   string
	password   string
	employeeID string
	name       string
}

type failure struct {
	remaining int
	status    int
	malformed bool
}

// Server is a fake back-office backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    []user
	sessions map[string]user
	inboxes  map[domain.Role][]domain.Message
	nextID   int64
	failures map[string]*failure
	calls    map[string]int
	sent     []domain.NewMessage
}

// New starts a fake backend. Close it with Close.
func New() *Server {
	s := &Server{
		sessions: make(map[string]user),
		inboxes:  make(map[domain.Role][]domain.Message),
		nextID:   1000,
		failures: make(map[string]*failure),
		calls:    make(map[string]int),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.wrap(RouteHealth, s.handleHealth)).Methods(http.MethodGet)
	r.HandleFunc("/api/unread-count", s.wrap(RouteUnreadCount, s.handleUnreadCount)).Methods(http.MethodGet)
	r.HandleFunc("/api/messages", s.wrap(RouteSend, s.handleSend)).Methods(http.MethodPost)
	r.HandleFunc("/api/messages/mark-read/{id:[0-9]+}", s.wrap(RouteMarkRead, s.handleMarkRead)).Methods(http.MethodPost)
	r.HandleFunc("/api/employee/managers", s.wrap(RouteManagers, s.handleManagers)).Methods(http.MethodGet)
	r.HandleFunc("/api/{role}/login", s.wrap(RouteLogin, s.handleLogin)).Methods(http.MethodPost)
	r.HandleFunc("/api/{role}/logout", s.wrap(RouteLogout, s.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/api/{role}/me", s.wrap(RouteMe, s.handleMe)).Methods(http.MethodGet)
	r.HandleFunc("/api/{role}/my-messages", s.wrap(RouteMyMessages, s.handleMyMessages)).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	return s
}

// AddUser registers an account that can sign in.
func (s *Server) AddUser(role domain.Role, id int64, username, password, employeeID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user{role: role, id: id, username: username, password: password, employeeID: employeeID, name: name})
}

// SetInbox replaces a role's inbox. Order is preserved in responses.
func (s *Server) SetInbox(role domain.Role, msgs []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inboxes[role] = append([]domain.Message(nil), msgs...)
}

// Inbox returns a copy of a role's inbox.
func (s *Server) Inbox(role domain.Role) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.inboxes[role]...)
}

// FailNext makes the next n calls to route answer with status.
func (s *Server) FailNext(route string, n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{remaining: n, status: status}
}

// MalformNext makes the next n calls to route answer 200 with a body that is
// not valid JSON.
func (s *Server) MalformNext(route string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{remaining: n, malformed: true}
}

// Calls returns how many requests route has received.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Sent returns every message posted so far.
func (s *Server) Sent() []domain.NewMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.NewMessage(nil), s.sent...)
}

func (s *Server) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		f := s.failures[route]
		var (
			status    int
			malformed bool
		)
		if f != nil && f.remaining > 0 {
			f.remaining--
			status, malformed = f.status, f.malformed
		}
		s.mu.Unlock()

		if malformed {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"truncated":`))
			return
		}
		if status != 0 {
			writeError(w, status, fmt.Sprintf("injected %s failure", route))
			return
		}
		h(w, r)
	}
}

func (s *Server) currentUser(r *http.Request) (user, bool) {
	ck, err := r.Cookie("session")
	if err != nil {
		return user{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.sessions[ck.Value]
	return u, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(mux.Vars(r)["role"])
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	s.mu.Lock()
	var found *user
	for i := range s.users {
		u := s.users[i]
		if u.role == role && u.username == creds.Username && u.password == creds.Password &&
			(role != domain.RoleEmployee || u.employeeID == creds.EmployeeID) {
			found = &u
			break
		}
	}
	var token string
	if found != nil {
		token = uuid.NewString()
		s.sessions[token] = *found
	}
	s.mu.Unlock()

	if found == nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "session", Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		string(role): map[string]any{"id": found.id, "username": found.username},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie("session"); err == nil {
		s.mu.Lock()
		delete(s.sessions, ck.Value)
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(r)
	if !ok || string(u.role) != mux.Vars(r)["role"] {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, domain.Actor{ID: u.id, Username: u.username, Name: u.name})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n := 0
	if u, ok := s.currentUser(r); ok {
		s.mu.Lock()
		for _, m := range s.inboxes[u.role] {
			if m.Unread() {
				n++
			}
		}
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, domain.UnreadCount{UnreadCount: n})
}

func (s *Server) handleMyMessages(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(r)
	if !ok || string(u.role) != mux.Vars(r)["role"] {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	filter := r.URL.Query().Get("context")

	s.mu.Lock()
	out := make([]domain.Message, 0, len(s.inboxes[u.role]))
	for _, m := range s.inboxes[u.role] {
		if filter == "" || m.Context == filter {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad id")
		return
	}
	s.mu.Lock()
	for role, msgs := range s.inboxes {
		for i := range msgs {
			if msgs[i].ID == id {
				s.inboxes[role][i].IsRead = 1
			}
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var nm domain.NewMessage
	if err := json.NewDecoder(r.Body).Decode(&nm); err != nil || nm.Context == "" || nm.Message == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	senderName := nm.SenderName
	if u, ok := s.currentUser(r); ok && (senderName == "" || senderName == "Unknown") {
		senderName = u.name
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.sent = append(s.sent, nm)
	if nm.ReceiverType != "" {
		role := domain.Role(nm.ReceiverType)
		msg := domain.Message{
			ID:           id,
			SenderName:   senderName,
			SenderType:   nm.SenderType,
			ReceiverID:   nm.ReceiverID,
			ReceiverType: nm.ReceiverType,
			Context:      nm.Context,
			ContextID:    nm.ContextID,
			Body:         nm.Message,
			CreatedAt:    time.Now().UTC().Format("2006-01-02 15:04:05"),
		}
		s.inboxes[role] = append([]domain.Message{msg}, s.inboxes[role]...)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, domain.MessageCreated{Success: true, MessageID: id})
}

func (s *Server) handleManagers(w http.ResponseWriter, r *http.Request) {
	if u, ok := s.currentUser(r); !ok || u.role != domain.RoleEmployee {
		writeError(w, http.StatusUnauthorized, "Employee authentication required")
		return
	}
	s.mu.Lock()
	var rs []domain.Recipient
	for _, u := range s.users {
		if u.role == domain.RoleManager {
			rs = append(rs, domain.Recipient{ID: u.id, Username: u.username, EmployeeName: u.name})
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, rs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
