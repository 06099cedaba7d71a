package model

import "testing"

func intPtr(i int) *int { return &i }

func TestIsSet_Sentinel(t *testing.T) {
	cases := map[string]bool{
		"":        false,
		"   ":     false,
		"All":     false,
		"all":     false,
		" ALL ":   false,
		"ERROR":   true,
		"billing": true,
	}
	for in, want := range cases {
		if got := IsSet(in); got != want {
			t.Errorf("IsSet(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestWithRepoLink_DoesNotMutate(t *testing.T) {
	orig := AnalysisRequest{RawLogs: "x", RepoLink: "https://host/org/repo.git"}
	enriched := orig.WithRepoLink("https://host/org/repo.git (cloned to /tmp/repo)")

	if orig.RepoLink != "https://host/org/repo.git" {
		t.Errorf("original mutated: got %q", orig.RepoLink)
	}
	if enriched.RepoLink == orig.RepoLink {
		t.Error("enriched request should carry the resolved link")
	}
	if enriched.RawLogs != "x" {
		t.Errorf("enriched RawLogs: got %q, want %q", enriched.RawLogs, "x")
	}
}

func TestUsesEnvironment(t *testing.T) {
	if (AnalysisRequest{Environment: "  "}).UsesEnvironment() {
		t.Error("blank environment should not be used")
	}
	if !(AnalysisRequest{Environment: "PROD", RawLogs: "x"}).UsesEnvironment() {
		t.Error("non-blank environment should take precedence")
	}
}

func TestFilters_DaysOr(t *testing.T) {
	if got := (Filters{}).DaysOr(1); got != 1 {
		t.Errorf("DaysOr absent: got %d, want 1", got)
	}
	if got := (Filters{Days: intPtr(7)}).DaysOr(1); got != 7 {
		t.Errorf("DaysOr set: got %d, want 7", got)
	}
}

func TestHasAlertSignal(t *testing.T) {
	cases := map[string]bool{
		"| NullPointerException | UserService |": true,
		"ERROR: timeout":                          true,
		"error: lowercase only":                   false,
		"exception in lowercase":                  false,
		"all clear":                               false,
	}
	for in, want := range cases {
		if got := HasAlertSignal(in); got != want {
			t.Errorf("HasAlertSignal(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestNewAnalysisResult(t *testing.T) {
	r := NewAnalysisResult("ERROR found")
	if !r.ContainsAlertSignal {
		t.Error("result with ERROR should carry alert signal")
	}
	if r.Content != "ERROR found" {
		t.Errorf("content: got %q", r.Content)
	}
}
