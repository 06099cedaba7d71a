package digest

import "regexp"

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}([.,]\d+)?(Z|[+-]\d{2}:?\d{2})?`),
	regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(:\d+)?\b`),
	regexp.MustCompile(`\b[0-9a-fA-F]{24,}\b`),
	regexp.MustCompile(`/[\w./-]+(:\d+)?`),
	regexp.MustCompile(`\b\d+(\.\d+)?\b`),
}

var placeholders = []string{
	"<UUID>",
	"<TIMESTAMP>",
	"<IP>",
	"<HEX>",
	"<PATH>",
	"<NUM>",
}

// Normalize replaces the variable parts of a log line (ids, timestamps,
// addresses, paths, numbers) with placeholders so that repeats of the same
// event share one template.
func Normalize(line string) string {
	for i, p := range patterns {
		line = p.ReplaceAllString(line, placeholders[i])
	}
	return line
}
