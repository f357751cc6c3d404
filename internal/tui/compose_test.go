package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brainhr/hrdesk/pkg/domain"
)

func typeText(m composeModel, s string) composeModel {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestComposeDraft_Employee(t *testing.T) {
	m := newComposeModel(nil, domain.RoleEmployee)
	m, _ = m.Update(meLoadedMsg{actor: &domain.Actor{ID: 21, Username: "emma", Name: "Emma Employee"}})

	m.focus = fieldBody
	m = typeText(m, "timesheet attached")
	if _, problem := m.draft(); problem != "no manager to send to" {
		t.Errorf("draft() without managers problem = %q", problem)
	}

	m, _ = m.Update(managersLoadedMsg{managers: []domain.Recipient{{ID: 7, EmployeeName: "Maria"}, {ID: 8, EmployeeName: "Omar"}}})
	m.focus = fieldTo
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})

	nm, problem := m.draft()
	if problem != "" {
		t.Fatalf("draft() problem = %q", problem)
	}
	if nm.ReceiverID == nil || *nm.ReceiverID != 8 || nm.ReceiverType != "manager" {
		t.Errorf("receiver = %v/%q, want 8/manager", nm.ReceiverID, nm.ReceiverType)
	}
	if nm.SenderName != "Emma Employee" || nm.SenderType != "employee" || *nm.SenderID != 21 {
		t.Errorf("sender = %q/%q, want Emma Employee/employee", nm.SenderName, nm.SenderType)
	}
	if nm.Context != domain.ContextMessages || nm.Message != "timesheet attached" {
		t.Errorf("draft = %+v", nm)
	}
}

func TestComposeDraft_Manager(t *testing.T) {
	tests := []struct {
		name    string
		to      string
		body    string
		problem string
	}{
		{"missing body", "21", "  ", "message is required"},
		{"missing receiver", "", "hello", "receiver id is required"},
		{"ok", "21", "hello", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newComposeModel(nil, domain.RoleManager)
			m = typeText(m, tc.to)
			m.focus = fieldBody
			m = typeText(m, tc.body)

			nm, problem := m.draft()
			if problem != tc.problem {
				t.Fatalf("draft() problem = %q, want %q", problem, tc.problem)
			}
			if problem == "" && (*nm.ReceiverID != 21 || nm.ReceiverType != "employee") {
				t.Errorf("receiver = %d/%q, want 21/employee", *nm.ReceiverID, nm.ReceiverType)
			}
		})
	}
}

func TestCompose_ReceiverIDDigitsOnly(t *testing.T) {
	m := newComposeModel(nil, domain.RoleAdmin)
	m = typeText(m, "4x2")
	if m.toID != "42" {
		t.Errorf("toID = %q, want %q", m.toID, "42")
	}
}

func TestCompose_TabSkipsReceiverTypeForEmployees(t *testing.T) {
	m := newComposeModel(nil, domain.RoleEmployee)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != fieldContext {
		t.Errorf("focus after tab = %d, want %d", m.focus, fieldContext)
	}

	m = newComposeModel(nil, domain.RoleManager)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != fieldReceiverType {
		t.Errorf("manager focus after tab = %d, want %d", m.focus, fieldReceiverType)
	}
}

func TestCompose_SentClearsBody(t *testing.T) {
	m := newComposeModel(nil, domain.RoleManager)
	m.focus = fieldBody
	m = typeText(m, "hello")
	m.sending = true

	m, _ = m.Update(messageSentMsg{created: &domain.MessageCreated{Success: true, MessageID: 1001}})
	if m.body != "" || m.sending {
		t.Errorf("after send: body = %q, sending = %v", m.body, m.sending)
	}
	if m.status != "message sent (#1001)" {
		t.Errorf("status = %q", m.status)
	}
}
