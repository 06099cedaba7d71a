package ingestor

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ricardonunez-io/loganalyser/internal/model"
	"github.com/rs/zerolog/log"
)

// EnvironmentLogFetcher returns the log text for an environment. The pipeline
// treats the text as opaque.
type EnvironmentLogFetcher interface {
	Fetch(ctx context.Context, environment string, filters model.Filters) (string, error)
}

var sampleLines = []string{
	"2024-01-01 10:00:00 INFO: Application startup successful.",
	"2024-01-01 10:05:00 ERROR: NullPointerException at com.example.UserService.getUser(UserService.java:101)",
	"2024-01-01 10:10:00 WARN: Deprecated API usage detected.",
}

// StubFetcher synthesizes environment logs without contacting any log
// backend. When the environment has a configured base URL, the URL that a
// real backend would be queried with is included in the text.
type StubFetcher struct {
	envURLs map[string]string
	now     func() time.Time
}

func NewStubFetcher(envURLs map[string]string) *StubFetcher {
	urls := make(map[string]string, len(envURLs))
	for name, u := range envURLs {
		urls[strings.ToLower(name)] = u
	}
	return &StubFetcher{
		envURLs: urls,
		now:     time.Now,
	}
}

func (f *StubFetcher) Fetch(_ context.Context, environment string, filters model.Filters) (string, error) {
	window := NewDayRange(filters.DaysOr(DefaultDays), f.now())
	days := window.Days()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Fetching logs from '%s' environment for the last %d days", environment, days)
	if filters.ApplicationSet() {
		fmt.Fprintf(&sb, " for application '%s'", filters.ApplicationName)
	}
	if filters.LogLevelSet() {
		fmt.Fprintf(&sb, " with level '%s'", filters.LogLevel)
	}
	sb.WriteString("...\n")

	if base, ok := f.envURLs[strings.ToLower(environment)]; ok {
		sb.WriteString("Source URL: ")
		sb.WriteString(sourceURL(base, window, filters))
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Join(sampleLines, "\n"))

	log.Debug().
		Str("environment", environment).
		Int("days", days).
		Str("logLevel", filters.LogLevel).
		Str("applicationName", filters.ApplicationName).
		Msg("Synthesized environment logs")

	return sb.String(), nil
}

func sourceURL(base string, tr DayRange, filters model.Filters) string {
	q := url.Values{}
	q.Set("days", strconv.Itoa(tr.Days()))
	q.Set("from", tr.Start().UTC().Format(time.RFC3339))
	q.Set("to", tr.End().UTC().Format(time.RFC3339))
	if filters.LogLevelSet() {
		q.Set("level", filters.LogLevel)
	}
	if filters.ApplicationSet() {
		q.Set("app", filters.ApplicationName)
	}
	return strings.TrimRight(base, "/") + "/api/logs?" + q.Encode()
}
