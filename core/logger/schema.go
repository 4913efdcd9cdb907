package logger

import "strings"

// Canonical level names written to the "level" key.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelNames = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// status is free-form, but these spellings are folded to lower case.
var knownStatus = map[string]struct{}{
	"ok": {}, "fail": {}, "skip": {}, "denied": {}, "rate_limited": {}, "cancelled": {},
}

// outcome values outside this set are dropped.
var knownOutcome = map[string]struct{}{
	"ok": {}, "fail": {}, "cancelled": {}, "rate_limited": {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	lower := strings.ToLower(strings.TrimSpace(status))
	if _, ok := knownStatus[lower]; ok {
		return lower
	}
	return strings.TrimSpace(status)
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := knownOutcome[outcome]
	return outcome, ok
}

// defaultKeyOrder puts envelope keys first, then request metadata, then the
// registration and payment fields, then error details. Other keys follow sorted.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"op",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"from",
	"to",
	"target",
	"student_id",
	"method",
	"reference",
	"students",
	"payments",
	"chunks",
	"sessions",
	"expired",
	"count",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"action",
	"endpoint",
	"err",
	"err_code",
	"cause",
	"attempts",
	"elapsed_ms",
}
