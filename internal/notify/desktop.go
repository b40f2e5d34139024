package notify

import (
	"os/exec"
	"runtime"
	"strings"
)

// DesktopNotifier surfaces job completion on the local desktop:
// osascript on macOS, notify-send on Linux. Other platforms are a
// silent no-op, job state is still in the DB and the log.
type DesktopNotifier struct {
	enabled bool
}

// NewDesktopNotifier creates a new desktop notifier
func NewDesktopNotifier(enabled bool) *DesktopNotifier {
	return &DesktopNotifier{enabled: enabled}
}

// Send sends a desktop notification
func (d *DesktopNotifier) Send(n Notification) error {
	if !d.enabled {
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command("osascript", "-e", appleScript(n)).Run()
	case "linux":
		return exec.Command("notify-send", "-a", "yt-scribe", "-u", urgencyForType(n.Type), n.Title, n.Message).Run()
	default:
		return nil
	}
}

var scriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// appleScript builds the osascript line. Title and message come from
// job state, which can include quoted error text, so both are escaped
// before interpolation.
func appleScript(n Notification) string {
	return `display notification "` + scriptEscaper.Replace(n.Message) +
		`" with title "` + scriptEscaper.Replace(n.Title) + `"`
}

// urgencyForType maps a notification type to a notify-send urgency
// level, so failed jobs stay on screen until dismissed.
func urgencyForType(t NotificationType) string {
	switch t {
	case NotifyError:
		return "critical"
	case NotifyWarning:
		return "normal"
	default:
		return "low"
	}
}
