package ingestor

import (
	"context"
	"unicode/utf8"

	"github.com/ricardonunez-io/loganalyser/internal/errs"
	"github.com/ricardonunez-io/loganalyser/internal/model"
	"github.com/rs/zerolog/log"
)

const MaxLogChars = 1_000_000

// Resolver decides where a request's log text comes from.
type Resolver struct {
	fetcher EnvironmentLogFetcher
}

// NewResolver returns a Resolver backed by fetcher, which must be non-nil.
func NewResolver(fetcher EnvironmentLogFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve returns the environment's logs when an environment is named, the
// request's raw logs otherwise. Blank or oversized text is rejected.
func (r *Resolver) Resolve(ctx context.Context, req model.AnalysisRequest) (string, error) {
	var text string
	if req.UsesEnvironment() {
		log.Info().
			Str("environment", req.Environment).
			Msg("Fetching logs from environment")
		fetched, err := r.fetcher.Fetch(ctx, req.Environment, req.Filters())
		if err != nil {
			return "", errs.ExternalTool(err, "failed to fetch logs for environment '%s'", req.Environment)
		}
		text = fetched
	} else {
		text = req.RawLogs
	}

	if model.IsBlank(text) {
		return "", errs.Validation("no logs available")
	}
	if ExceedsChars(text, MaxLogChars) {
		return "", errs.Validation("log text length exceeds the limit of %d characters", MaxLogChars)
	}

	return text, nil
}

// ExceedsChars reports whether s holds more than limit characters.
func ExceedsChars(s string, limit int) bool {
	if len(s) <= limit {
		return false
	}
	return utf8.RuneCountInString(s) > limit
}
