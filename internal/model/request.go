package model

import "strings"

// AllSentinel is the filter value meaning "no restriction".
const AllSentinel = "All"

// AnalysisRequest is one inbound log-analysis call. Blank strings and a nil
// Days mean the field is absent.
type AnalysisRequest struct {
	RawLogs         string `json:"logs,omitempty"`
	Query           string `json:"query,omitempty"`
	RepoLink        string `json:"repoLink,omitempty"`
	LogLevel        string `json:"logLevel,omitempty"`
	Days            *int   `json:"days,omitempty"`
	ApplicationName string `json:"applicationName,omitempty"`
	Environment     string `json:"environment,omitempty"`
}

// WithRepoLink returns a copy of r with RepoLink replaced.
func (r AnalysisRequest) WithRepoLink(link string) AnalysisRequest {
	r.RepoLink = link
	return r
}

// UsesEnvironment reports whether the log text must come from the
// environment fetcher rather than RawLogs.
func (r AnalysisRequest) UsesEnvironment() bool {
	return !IsBlank(r.Environment)
}

func (r AnalysisRequest) Filters() Filters {
	return Filters{
		LogLevel:        r.LogLevel,
		Days:            r.Days,
		ApplicationName: r.ApplicationName,
	}
}

type Filters struct {
	LogLevel        string
	Days            *int
	ApplicationName string
}

// LogLevelSet is false for blank or "All" levels.
func (f Filters) LogLevelSet() bool {
	return IsSet(f.LogLevel)
}

func (f Filters) ApplicationSet() bool {
	return IsSet(f.ApplicationName)
}

// DaysOr returns Days, or fallback when absent.
func (f Filters) DaysOr(fallback int) int {
	if f.Days == nil {
		return fallback
	}
	return *f.Days
}

// ResolvedContext is the request-scoped output of the resolving stage.
type ResolvedContext struct {
	LogText     string
	RepoContext string
	Filters     Filters
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsSet is true when s is neither blank nor the "All" sentinel (any case).
func IsSet(s string) bool {
	return !IsBlank(s) && !strings.EqualFold(strings.TrimSpace(s), AllSentinel)
}
