// Package store persists pipeline artifacts as timestamped text files.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ricardonunez-io/loganalyser/internal/errs"
	"github.com/rs/zerolog/log"
)

const (
	fileTimeLayout      = "2006-01-02_15-04-05"
	generatedTimeLayout = "2006-01-02T15:04:05.000"
	separatorWidth      = 80
	maxNameAttempts     = 1000

	AnalysisHeader = "Log Analysis Output"
)

// FileStore writes one new file per artifact and never overwrites.
type FileStore struct {
	dir    string
	prefix string
	now    func() time.Time
}

func NewFileStore(dir, prefix string) *FileStore {
	return &FileStore{
		dir:    dir,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Write stores body under a header line, a generation timestamp and an
// 80-character separator, and returns the file path.
func (s *FileStore) Write(header, body string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	now := s.now()
	f, path, err := s.create(now)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString("Generated at: ")
	sb.WriteString(now.Format(generatedTimeLayout))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", separatorWidth))
	sb.WriteString("\n\n")
	sb.WriteString(body)

	if _, err := f.WriteString(sb.String()); err != nil {
		return path, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// create opens a fresh file named after now, adding a -N suffix when an
// artifact with the same millisecond already exists.
func (s *FileStore) create(now time.Time) (*os.File, string, error) {
	base := fmt.Sprintf("%s_%s-%03d", s.prefix, now.Format(fileTimeLayout), now.Nanosecond()/int(time.Millisecond))
	for i := 0; i < maxNameAttempts; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		path := filepath.Join(s.dir, name+".txt")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("no free artifact name for %s in %s", base, s.dir)
}

// AnalysisStore is the Output Store for analysis results.
type AnalysisStore struct {
	files *FileStore
}

func NewAnalysisStore(dir string) *AnalysisStore {
	return &AnalysisStore{files: NewFileStore(dir, "analysis")}
}

func (s *AnalysisStore) Save(_ context.Context, content string) (string, error) {
	path, err := s.files.Write(AnalysisHeader, content)
	if err != nil {
		return "", errs.Persistence(err, "error saving analysis output")
	}
	log.Info().Str("path", path).Msg("Analysis output saved")
	return path, nil
}
