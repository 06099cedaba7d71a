package llm

import (
	"context"
	"strings"
	"time"

	"github.com/ricardonunez-io/loganalyser/internal/errs"
	"github.com/rs/zerolog/log"
)

const defaultBackoff = time.Second

// Invoker is the uniform entry point the pipeline uses to reach the selected
// provider. Timeout and retries default to zero: one attempt, no deadline
// beyond the caller's context.
type Invoker struct {
	provider Provider
	timeout  time.Duration
	retries  int
	backoff  time.Duration
}

type InvokerOption func(*Invoker)

// WithTimeout bounds each attempt. 0 disables the bound.
func WithTimeout(d time.Duration) InvokerOption {
	return func(i *Invoker) { i.timeout = d }
}

// WithRetries sets how many extra attempts follow a failed call.
func WithRetries(n int) InvokerOption {
	return func(i *Invoker) { i.retries = n }
}

// WithBackoff sets the delay before the first retry; it doubles per retry.
func WithBackoff(d time.Duration) InvokerOption {
	return func(i *Invoker) { i.backoff = d }
}

func NewInvoker(p Provider, opts ...InvokerOption) *Invoker {
	i := &Invoker{
		provider: p,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// CallBudget is the longest Complete can run with the given timeout and
// retries under the default backoff. It is 0 when timeout is 0, since the
// call is then bounded only by the caller's context.
func CallBudget(timeout time.Duration, retries int) time.Duration {
	if timeout <= 0 {
		return 0
	}
	var backoff time.Duration
	for n, d := 0, defaultBackoff; n < retries; n, d = n+1, d*2 {
		backoff += d
	}
	return time.Duration(retries+1)*timeout + backoff
}

func (i *Invoker) ProviderName() string {
	return i.provider.Name()
}

// Complete sends prompt to the provider, preceded by systemPreamble when it
// is non-blank. Failures come back as errs.KindModelInvocation.
func (i *Invoker) Complete(ctx context.Context, systemPreamble, prompt string) (string, error) {
	if strings.TrimSpace(systemPreamble) == "" {
		systemPreamble = ""
	}

	var lastErr error
	delay := i.backoff
	for attempt := 0; attempt <= i.retries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Err(lastErr).
				Int("attempt", attempt+1).
				Dur("backoff", delay).
				Str("provider", i.provider.Name()).
				Msg("Retrying model call")
			select {
			case <-ctx.Done():
				return "", errs.ModelInvocation(ctx.Err(), "model call to %s cancelled", i.provider.Name())
			case <-time.After(delay):
			}
			delay *= 2
		}

		text, err := i.attempt(ctx, systemPreamble, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return "", errs.ModelInvocation(lastErr, "model call to %s failed", i.provider.Name())
}

func (i *Invoker) attempt(ctx context.Context, systemPreamble, prompt string) (string, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := i.provider.Complete(ctx, systemPreamble, prompt)
	log.Debug().
		Str("provider", i.provider.Name()).
		Int("promptChars", len(prompt)).
		Bool("system", systemPreamble != "").
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("Model call finished")
	return text, err
}
