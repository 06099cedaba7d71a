// Package alert delivers the secondary notification produced when an
// analysis looks like it found errors.
package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/ricardonunez-io/loganalyser/internal/errs"
	"github.com/ricardonunez-io/loganalyser/internal/store"
	"github.com/rs/zerolog/log"
)

const DefaultSubject = "Log Analysis Error Alert"

type Dispatcher interface {
	Name() string
	Send(ctx context.Context, subject, body string) error
}

// EmailDispatcher stands in for mail delivery: every alert is written to
// <dir>/email_<timestamp>.txt.
type EmailDispatcher struct {
	files *store.FileStore
}

func NewEmailDispatcher(dir string) *EmailDispatcher {
	return &EmailDispatcher{files: store.NewFileStore(dir, "email")}
}

func (d *EmailDispatcher) Name() string {
	return "email"
}

func (d *EmailDispatcher) Send(_ context.Context, subject, body string) error {
	log.Info().Str("subject", subject).Msg("Sending email alert")
	path, err := d.files.Write("Subject: "+subject, body)
	if err != nil {
		return fmt.Errorf("error saving email to file: %w", err)
	}
	log.Info().Str("path", path).Msg("Email content saved")
	return nil
}

// Multi sends to every dispatcher, even after one fails.
type Multi []Dispatcher

func (m Multi) Name() string {
	return "multi"
}

func (m Multi) Send(ctx context.Context, subject, body string) error {
	var failures []error
	for _, d := range m {
		if err := d.Send(ctx, subject, body); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", d.Name(), err))
		}
	}
	if len(failures) > 0 {
		return errs.Alert(errors.Join(failures...), "alert delivery failed")
	}
	return nil
}
