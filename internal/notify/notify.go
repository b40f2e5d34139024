package notify

import (
	"fmt"

	"github.com/ytscribe/ytscribe/internal/config"
	"github.com/ytscribe/ytscribe/internal/domain"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	JobID   string // Optional job reference
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }

// FromConfig builds a notifier from the notifications config section
func FromConfig(cfg config.NotificationsConfig) Notifier {
	var notifiers []Notifier
	if cfg.Desktop {
		notifiers = append(notifiers, NewDesktopNotifier(true))
	}
	if cfg.SlackWebhook != "" {
		notifiers = append(notifiers, NewSlackNotifier(cfg.SlackWebhook))
	}
	if len(notifiers) == 0 {
		return NoopNotifier{}
	}
	return NewMultiNotifier(notifiers...)
}

// ForJob builds the notification for a finished background job
func ForJob(job *domain.Job) Notification {
	n := Notification{JobID: job.ShortID()}
	switch job.Status {
	case domain.JobCompleted:
		n.Type = NotifySuccess
		n.Title = "Job completed"
		n.Message = fmt.Sprintf("%s finished: %d done, %d errors", job.Command, job.Done, job.Errors)
	case domain.JobStopped:
		n.Type = NotifyWarning
		n.Title = "Job stopped"
		n.Message = fmt.Sprintf("%s was stopped after %d of %d", job.Command, job.Done, job.Total)
	default:
		n.Type = NotifyError
		n.Title = "Job failed"
		n.Message = fmt.Sprintf("%s failed: %s", job.Command, job.ErrorMessage)
	}
	return n
}
