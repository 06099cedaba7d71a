// Package repo enriches a request's repository reference with a local
// shallow clone.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ricardonunez-io/loganalyser/internal/errs"
	"github.com/ricardonunez-io/loganalyser/internal/model"
	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 2 * time.Minute

var (
	gitSchemes  = []string{"https://", "http://", "ssh://"}
	scpLike     = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:`)
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// Runner executes an external command and waits for it. Implementations must
// stop the process when ctx is done.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	killProcessGroup(cmd)
	// git forks helpers (remote-https) that inherit the output pipe.
	cmd.WaitDelay = 5 * time.Second
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) > 0 {
		log.Debug().Str("output", strings.TrimSpace(string(out))).Msg("git clone output")
	}
	return err
}

type Option func(*Resolver)

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

func WithGitBinary(path string) Option {
	return func(r *Resolver) { r.git = path }
}

func WithRunner(run Runner) Option {
	return func(r *Resolver) { r.run = run }
}

// Resolver clones git-style repository links under a sandbox root so the
// model can be told where the source lives.
type Resolver struct {
	sandbox string
	timeout time.Duration
	git     string
	run     Runner
	now     func() time.Time
}

func NewResolver(sandbox string, opts ...Option) (*Resolver, error) {
	abs, err := filepath.Abs(sandbox)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve clone sandbox %s: %w", sandbox, err)
	}
	r := &Resolver{
		sandbox: filepath.Clean(abs),
		timeout: DefaultTimeout,
		git:     "git",
		run:     execRunner,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns link unchanged when it is blank or not a git reference.
// Otherwise it shallow-clones the repository and returns the link annotated
// with the clone path.
func (r *Resolver) Resolve(ctx context.Context, link string) (string, error) {
	if model.IsBlank(link) || !LooksLikeGitLink(link) {
		return link, nil
	}
	link = strings.TrimSpace(link)

	if err := os.MkdirAll(r.sandbox, 0o755); err != nil {
		return "", errs.ExternalTool(err, "failed to create clone sandbox %s", r.sandbox)
	}
	target := r.clonePath(link)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log.Info().Str("repoLink", link).Str("target", target).Msg("Cloning repository")
	start := time.Now()

	err := r.run(ctx, r.git, "clone", "--depth", "1", link, target)
	if err != nil {
		if rmErr := os.RemoveAll(target); rmErr != nil {
			log.Warn().Err(rmErr).Str("target", target).Msg("Failed to remove partial clone")
		}
		return "", r.classify(ctx, link, err)
	}

	log.Info().
		Str("repoLink", link).
		Str("target", target).
		Dur("duration", time.Since(start)).
		Msg("Repository cloned")

	return fmt.Sprintf("%s (cloned to %s)", link, target), nil
}

func (r *Resolver) classify(ctx context.Context, link string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Error().Str("repoLink", link).Dur("timeout", r.timeout).Msg("Git clone timed out")
		return errs.ExternalTool(err, "clone timed out after %s for %s", r.timeout, link)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return errs.ExternalTool(ctx.Err(), "clone cancelled for %s", link)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Error().Err(err).Str("repoLink", link).Msg("Git clone failed")
		return errs.ExternalTool(err, "clone failed for %s", link)
	}

	log.Error().Err(err).Str("git", r.git).Msg("Unable to run git")
	return errs.ExternalTool(err, "tool unavailable: unable to run %s, ensure git is installed and on PATH", r.git)
}

func (r *Resolver) clonePath(link string) string {
	name := fmt.Sprintf("%s-%d-%s", SanitizeRepoName(link), r.now().UnixMilli(), uuid.NewString()[:8])
	return filepath.Join(r.sandbox, name)
}

// LooksLikeGitLink matches http(s)://, ssh:// and scp-style user@host: links.
func LooksLikeGitLink(link string) bool {
	normalized := strings.ToLower(strings.TrimSpace(link))
	for _, scheme := range gitSchemes {
		if strings.HasPrefix(normalized, scheme) {
			return true
		}
	}
	return scpLike.MatchString(normalized)
}

// SanitizeRepoName derives a directory name from the link's last path segment.
func SanitizeRepoName(link string) string {
	link = strings.TrimRight(strings.ReplaceAll(strings.TrimSpace(link), "\\", "/"), "/")
	candidate := link
	if i := strings.LastIndexAny(link, "/:"); i >= 0 {
		candidate = link[i+1:]
	}
	candidate = strings.TrimSuffix(candidate, ".git")
	sanitized := unsafeChars.ReplaceAllString(candidate, "_")
	if strings.Trim(sanitized, "_") == "" {
		return "repo"
	}
	return sanitized
}
