package utils

import (
	"log"
	"strings"
)

// LogEvent prints a standardized log line with module/action/request_id.
// Storage and cache failures are logged through here and never escalated,
// so the message should summarize, not dump payloads.
func LogEvent(requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	log.Printf("[%s] action=%s request_id=%s msg=%s", strings.ToUpper(module), action, req, message)
}
