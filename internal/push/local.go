package push

import (
	"log"
	"os/exec"
	"strings"
)

// Notifier displays notifications on this machine by running a configured
// shell command, e.g. "notify-send 'RunCoach' '{{.Body}}'". Best-effort:
// errors are logged, not returned.
type Notifier struct {
	Command string
}

// Display runs the notify command for a notification. A notifier with no
// command configured does nothing.
func (n *Notifier) Display(notification Notification) {
	if n == nil || n.Command == "" {
		return
	}
	cmdStr := templateCommand(n.Command, notification)
	cmd := exec.Command("sh", "-c", cmdStr)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("push: notify command failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
}

// templateCommand replaces placeholders in the command template with
// notification values.
func templateCommand(command string, n Notification) string {
	r := strings.NewReplacer(
		"{{.Title}}", n.Title,
		"{{.Body}}", n.Body,
	)
	return r.Replace(command)
}
