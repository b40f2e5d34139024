package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ytscribe/ytscribe/internal/config"
	"github.com/ytscribe/ytscribe/internal/domain"
)

func TestSlackMessage_Build(t *testing.T) {
	msg := SlackMessage{
		Text: "Job completed",
		Attachments: []SlackAttachment{
			{
				Color: "good",
				Title: "job a1b2c3d4",
				Text:  "transcribe finished: 12 done, 0 errors",
			},
		},
	}

	payload, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	if len(payload) == 0 {
		t.Error("Payload should not be empty")
	}
}

func TestSlackNotifier_Send(t *testing.T) {
	// Mock Slack server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL)
	err := notifier.Send(Notification{
		Title:   "Test",
		Message: "Test message",
		Type:    NotifyInfo,
		JobID:   "a1b2c3d4",
	})

	if err != nil {
		t.Errorf("Send failed: %v", err)
	}
}

func TestNotificationTypeColors(t *testing.T) {
	tests := []struct {
		typ  NotificationType
		want string
	}{
		{NotifySuccess, "good"},
		{NotifyWarning, "warning"},
		{NotifyError, "danger"},
		{NotifyInfo, "#439FE0"},
	}

	for _, tt := range tests {
		got := SlackColor(tt.typ)
		if got != tt.want {
			t.Errorf("SlackColor(%v) = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestMultiNotifier(t *testing.T) {
	var called []string

	mock1 := &mockNotifier{name: "mock1", calls: &called}
	mock2 := &mockNotifier{name: "mock2", calls: &called}

	multi := NewMultiNotifier(mock1, mock2)
	multi.Send(Notification{Title: "Test"})

	if len(called) != 2 {
		t.Errorf("Expected 2 calls, got %d", len(called))
	}
}

func TestFromConfig_Disabled(t *testing.T) {
	n := FromConfig(config.NotificationsConfig{})
	if _, ok := n.(NoopNotifier); !ok {
		t.Errorf("Expected NoopNotifier, got %T", n)
	}
}

func TestForJob(t *testing.T) {
	tests := []struct {
		status    domain.JobStatus
		wantType  NotificationType
		wantTitle string
	}{
		{domain.JobCompleted, NotifySuccess, "Job completed"},
		{domain.JobStopped, NotifyWarning, "Job stopped"},
		{domain.JobFailed, NotifyError, "Job failed"},
	}

	for _, tt := range tests {
		job := &domain.Job{
			ID:      "a1b2c3d4e5f6",
			Command: "transcribe",
			Status:  tt.status,
			Total:   10,
			Done:    7,
		}
		n := ForJob(job)
		if n.Type != tt.wantType {
			t.Errorf("ForJob(%s).Type = %v, want %v", tt.status, n.Type, tt.wantType)
		}
		if n.Title != tt.wantTitle {
			t.Errorf("ForJob(%s).Title = %q, want %q", tt.status, n.Title, tt.wantTitle)
		}
		if n.JobID != "a1b2c3d4" {
			t.Errorf("JobID = %q, want short ID", n.JobID)
		}
		if !strings.Contains(n.Message, "transcribe") {
			t.Errorf("Message %q should mention the command", n.Message)
		}
	}
}

type mockNotifier struct {
	name  string
	calls *[]string
}

func (m *mockNotifier) Send(n Notification) error {
	*m.calls = append(*m.calls, m.name)
	return nil
}
