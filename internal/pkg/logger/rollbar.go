package logger

import (
	"os"

	"github.com/rollbar/rollbar-go"
)

// ConfigureRollbar turns on error reporting. It returns false and leaves
// rollbar disabled when token is empty.
func ConfigureRollbar(token, environment string) bool {
	if token == "" {
		rollbar.SetEnabled(false)
		return false
	}

	rollbar.SetToken(token)
	rollbar.SetEnvironment(environment)
	if host, err := os.Hostname(); err == nil {
		rollbar.SetServerHost(host)
	}
	rollbar.SetEnabled(true)
	return true
}

// ReportPanic sends a recovered panic to rollbar with request context
func ReportPanic(recovered interface{}, extras map[string]interface{}) {
	rollbar.Critical(recovered, extras)
}

// CloseRollbar flushes queued reports
func CloseRollbar() {
	rollbar.Close()
}
