package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ricardonunez-io/loganalyser/internal/errs"
)

type recordedCall struct {
	system string
	prompt string
}

type scriptedProvider struct {
	mu    sync.Mutex
	calls []recordedCall
	errs  []error // consumed in order; nil entries succeed
	reply string
	block bool
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, recordedCall{system: system, prompt: prompt})
	n := len(s.calls)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if n <= len(s.errs) && s.errs[n-1] != nil {
		return "", s.errs[n-1]
	}
	return s.reply, nil
}

func TestInvoker_SendsPreamble(t *testing.T) {
	p := &scriptedProvider{reply: "table"}
	inv := NewInvoker(p)

	got, err := inv.Complete(context.Background(), "Be precise.", "analyze")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "table" {
		t.Errorf("reply: got %q, want table", got)
	}
	if p.calls[0].system != "Be precise." {
		t.Errorf("system: got %q", p.calls[0].system)
	}
}

func TestInvoker_BlankPreambleOmitted(t *testing.T) {
	p := &scriptedProvider{reply: "ok"}
	inv := NewInvoker(p)

	if _, err := inv.Complete(context.Background(), "  \n ", "analyze"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if p.calls[0].system != "" {
		t.Errorf("blank preamble should not be sent, got %q", p.calls[0].system)
	}
}

func TestInvoker_NoRetryByDefault(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("503 overloaded")}, reply: "late"}
	inv := NewInvoker(p)

	_, err := inv.Complete(context.Background(), "", "analyze")
	if err == nil {
		t.Fatal("provider failure should propagate")
	}
	if !errs.Is(err, errs.KindModelInvocation) {
		t.Errorf("kind: got %v, want model invocation", err)
	}
	if len(p.calls) != 1 {
		t.Errorf("calls: got %d, want 1", len(p.calls))
	}
}

func TestInvoker_RetriesThenSucceeds(t *testing.T) {
	p := &scriptedProvider{
		errs:  []error{errors.New("timeout"), errors.New("timeout")},
		reply: "recovered",
	}
	inv := NewInvoker(p, WithRetries(2), WithBackoff(time.Millisecond))

	got, err := inv.Complete(context.Background(), "", "analyze")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "recovered" {
		t.Errorf("reply: got %q", got)
	}
	if len(p.calls) != 3 {
		t.Errorf("calls: got %d, want 3", len(p.calls))
	}
}

func TestInvoker_TimeoutBoundsAttempt(t *testing.T) {
	p := &scriptedProvider{block: true}
	inv := NewInvoker(p, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := inv.Complete(context.Background(), "", "analyze")
	if !errs.Is(err, errs.KindModelInvocation) {
		t.Fatalf("timeout: got %v, want model invocation error", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause should be deadline exceeded: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout did not bound the call")
	}
}

func TestInvoker_CancelledContextStopsRetries(t *testing.T) {
	p := &scriptedProvider{errs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	inv := NewInvoker(p, WithRetries(5), WithBackoff(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := inv.Complete(ctx, "", "analyze")
	if !errs.Is(err, errs.KindModelInvocation) {
		t.Fatalf("got %v, want model invocation error", err)
	}
	if len(p.calls) != 1 {
		t.Errorf("calls: got %d, want 1", len(p.calls))
	}
}

func TestCallBudget(t *testing.T) {
	cases := []struct {
		timeout time.Duration
		retries int
		want    time.Duration
	}{
		{0, 3, 0},
		{10 * time.Second, 0, 10 * time.Second},
		{10 * time.Second, 2, 30*time.Second + 3*time.Second},
	}
	for _, tc := range cases {
		if got := CallBudget(tc.timeout, tc.retries); got != tc.want {
			t.Errorf("CallBudget(%s, %d): got %s, want %s", tc.timeout, tc.retries, got, tc.want)
		}
	}
}
