package repo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ricardonunez-io/loganalyser/internal/errs"
)

type cloneCall struct {
	name string
	args []string
}

type fakeGit struct {
	mu    sync.Mutex
	calls []cloneCall
	err   error
	block bool
}

func (f *fakeGit) run(ctx context.Context, name string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, cloneCall{name: name, args: args})
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func newTestResolver(t *testing.T, git *fakeGit, opts ...Option) (*Resolver, string) {
	t.Helper()
	sandbox := filepath.Join(t.TempDir(), "cloned-repos")
	opts = append([]Option{WithRunner(git.run)}, opts...)
	r, err := NewResolver(sandbox, opts...)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r, sandbox
}

func TestResolve_BlankPassthrough(t *testing.T) {
	git := &fakeGit{}
	r, _ := newTestResolver(t, git)
	for _, in := range []string{"", "   "} {
		got, err := r.Resolve(context.Background(), in)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", in, err)
		}
		if got != in {
			t.Errorf("Resolve(%q): got %q", in, got)
		}
	}
	if len(git.calls) != 0 {
		t.Errorf("git calls: got %d, want 0", len(git.calls))
	}
}

func TestResolve_NonGitPassthrough(t *testing.T) {
	git := &fakeGit{}
	r, _ := newTestResolver(t, git)
	in := "the billing service monorepo, see module payments"
	got, err := r.Resolve(context.Background(), in)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != in {
		t.Errorf("got %q, want %q", got, in)
	}
	if len(git.calls) != 0 {
		t.Errorf("git calls: got %d, want 0", len(git.calls))
	}
}

func TestResolve_ClonesAndAnnotates(t *testing.T) {
	git := &fakeGit{}
	r, sandbox := newTestResolver(t, git, WithGitBinary("/usr/bin/git"))
	link := "https://host/org/repo.git"

	got, err := r.Resolve(context.Background(), link)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(got, link+" (cloned to ") || !strings.HasSuffix(got, ")") {
		t.Errorf("annotation: got %q", got)
	}
	if len(git.calls) != 1 {
		t.Fatalf("git calls: got %d, want 1", len(git.calls))
	}
	call := git.calls[0]
	if call.name != "/usr/bin/git" {
		t.Errorf("binary: got %q", call.name)
	}
	target := call.args[len(call.args)-1]
	wantArgs := []string{"clone", "--depth", "1", link, target}
	if diff := cmp.Diff(wantArgs, call.args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
	if filepath.Dir(target) != sandbox {
		t.Errorf("target %q not under sandbox %q", target, sandbox)
	}
	if !strings.HasPrefix(filepath.Base(target), "repo-") {
		t.Errorf("target name: got %q, want repo-<suffix>", filepath.Base(target))
	}
	if !strings.Contains(got, target) {
		t.Errorf("annotation %q should contain clone path %q", got, target)
	}
	if info, err := os.Stat(sandbox); err != nil || !info.IsDir() {
		t.Errorf("sandbox should be created: %v", err)
	}
}

func TestResolve_UniqueTargets(t *testing.T) {
	git := &fakeGit{}
	r, _ := newTestResolver(t, git)
	fixed := time.Unix(1700000000, 0)
	r.now = func() time.Time { return fixed }

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve(context.Background(), "git@github.com:org/repo.git"); err != nil {
				t.Errorf("Resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, c := range git.calls {
		target := c.args[len(c.args)-1]
		if seen[target] {
			t.Errorf("duplicate clone target %q", target)
		}
		seen[target] = true
	}
}

func TestResolve_RemovesPartialClone(t *testing.T) {
	git := &fakeGit{}
	r, sandbox := newTestResolver(t, git)
	r.run = func(ctx context.Context, name string, args ...string) error {
		target := args[len(args)-1]
		if err := os.MkdirAll(filepath.Join(target, ".git"), 0o755); err != nil {
			t.Fatal(err)
		}
		return &exec.ExitError{}
	}

	if _, err := r.Resolve(context.Background(), "https://host/org/broken.git"); err == nil {
		t.Fatal("expected clone error")
	}
	entries, err := os.ReadDir(sandbox)
	if err != nil {
		t.Fatalf("read sandbox: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("sandbox should be empty after a failed clone, got %d entries", len(entries))
	}
}

func TestResolve_CloneFailed(t *testing.T) {
	git := &fakeGit{err: &exec.ExitError{}}
	r, _ := newTestResolver(t, git)

	_, err := r.Resolve(context.Background(), "https://host/org/missing.git")
	if !errs.Is(err, errs.KindExternalTool) {
		t.Fatalf("got %v, want external tool error", err)
	}
	if !strings.Contains(err.Error(), "clone failed") {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestResolve_Timeout(t *testing.T) {
	git := &fakeGit{block: true}
	r, _ := newTestResolver(t, git, WithTimeout(20*time.Millisecond))

	_, err := r.Resolve(context.Background(), "ssh://git@host/org/slow.git")
	if !errs.Is(err, errs.KindExternalTool) {
		t.Fatalf("got %v, want external tool error", err)
	}
	if !strings.Contains(err.Error(), "clone timed out") {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestResolve_ToolUnavailable(t *testing.T) {
	sandbox := filepath.Join(t.TempDir(), "cloned-repos")
	r, err := NewResolver(sandbox, WithGitBinary(filepath.Join(t.TempDir(), "no-such-git")))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	_, err = r.Resolve(context.Background(), "https://host/org/repo.git")
	if !errs.Is(err, errs.KindExternalTool) {
		t.Fatalf("got %v, want external tool error", err)
	}
	if !strings.Contains(err.Error(), "tool unavailable") {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestResolve_RealProcessNonZeroExit(t *testing.T) {
	falseBin, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false binary not available")
	}
	r, err := NewResolver(filepath.Join(t.TempDir(), "cloned-repos"), WithGitBinary(falseBin))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	_, err = r.Resolve(context.Background(), "https://host/org/repo.git")
	if !strings.Contains(errString(err), "clone failed") {
		t.Errorf("got %v, want clone failed", err)
	}
}

func TestLooksLikeGitLink(t *testing.T) {
	cases := map[string]bool{
		"https://github.com/org/repo.git": true,
		"HTTP://host/org/repo":            true,
		"ssh://git@host/org/repo.git":     true,
		"git@github.com:org/repo.git":     true,
		"deploy@gitlab.internal:team/svc": true,
		"github.com/org/repo":             false,
		"ftp://host/repo":                 false,
		"the payments repo":               false,
		"user@host without colon":         false,
	}
	for in, want := range cases {
		if got := LooksLikeGitLink(in); got != want {
			t.Errorf("LooksLikeGitLink(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestSanitizeRepoName(t *testing.T) {
	cases := map[string]string{
		"https://host/org/repo.git":      "repo",
		"https://host/org/my repo!/":     "my_repo_",
		"git@github.com:org/svc.api.git": "svc.api",
		"git@github.com:standalone.git":  "standalone",
		"https://host/org/.git":          "repo",
		`https://host\org\win-repo`:      "win-repo",
	}
	for in, want := range cases {
		if got := SanitizeRepoName(in); got != want {
			t.Errorf("SanitizeRepoName(%q): got %q, want %q", in, got, want)
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func TestResolve_TimeoutKillsForkedHelpers(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process groups are unix only")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "git")
	body := "#!" + sh + "\nmkdir -p \"$5\"\nsleep 30 &\nwait\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	sandbox := filepath.Join(t.TempDir(), "cloned-repos")
	r, err := NewResolver(sandbox, WithGitBinary(script), WithTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	start := time.Now()
	_, err = r.Resolve(context.Background(), "https://host/org/slow.git")
	elapsed := time.Since(start)

	if !strings.Contains(errString(err), "clone timed out") {
		t.Fatalf("got %v, want clone timed out", err)
	}
	if elapsed > 3*time.Second {
		t.Errorf("Resolve took %s, forked helpers outlived the timeout", elapsed)
	}
	entries, err := os.ReadDir(sandbox)
	if err != nil {
		t.Fatalf("read sandbox: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("sandbox should be empty after a timed out clone, got %d entries", len(entries))
	}
}
