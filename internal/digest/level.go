package digest

import (
	"regexp"
	"strings"
)

type Level string

const (
	LevelError   Level = "ERROR"
	LevelWarn    Level = "WARN"
	LevelInfo    Level = "INFO"
	LevelDebug   Level = "DEBUG"
	LevelUnknown Level = "UNKNOWN"
)

var levelToken = regexp.MustCompile(`(?i)\b(fatal|severe|error|err|warning|warn|info|debug|trace)\b`)

var rank = map[Level]int{
	LevelUnknown: 0,
	LevelDebug:   1,
	LevelInfo:    2,
	LevelWarn:    3,
	LevelError:   4,
}

// ParseLevel maps a level name or alias to a Level.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fatal", "severe", "error", "err":
		return LevelError, true
	case "warning", "warn":
		return LevelWarn, true
	case "info":
		return LevelInfo, true
	case "debug", "trace":
		return LevelDebug, true
	}
	return LevelUnknown, false
}

// DetectLevel returns the first level token in line. Lines without one that
// mention an exception count as errors.
func DetectLevel(line string) Level {
	if m := levelToken.FindString(line); m != "" {
		if l, ok := ParseLevel(m); ok {
			return l
		}
	}
	if strings.Contains(line, "Exception") {
		return LevelError
	}
	return LevelUnknown
}

// AtLeast reports whether l is as severe as floor. Unknown lines are kept only
// when no minimum is set.
func (l Level) AtLeast(floor Level) bool {
	return rank[l] >= rank[floor]
}
