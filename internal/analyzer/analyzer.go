// Package analyzer sequences one analysis pass: resolve the logs and the
// repository context, ask the model for the error table, persist it and
// raise an alert when the table reports errors.
package analyzer

import (
	"context"
	"time"

	"github.com/ricardonunez-io/loganalyser/internal/alert"
	"github.com/ricardonunez-io/loganalyser/internal/errs"
	"github.com/ricardonunez-io/loganalyser/internal/ingestor"
	"github.com/ricardonunez-io/loganalyser/internal/model"
	"github.com/ricardonunez-io/loganalyser/internal/prompt"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const MaxQueryChars = 100_000

type State string

const (
	Validating State = "validating"
	Resolving  State = "resolving"
	Prompting  State = "prompting"
	Invoking   State = "invoking"
	Persisting State = "persisting"
	Alerting   State = "alerting"
	Done       State = "done"
	Failed     State = "failed"
)

type LogResolver interface {
	Resolve(ctx context.Context, req model.AnalysisRequest) (string, error)
}

type RepoResolver interface {
	Resolve(ctx context.Context, link string) (string, error)
}

type Completer interface {
	Complete(ctx context.Context, systemPreamble, prompt string) (string, error)
}

type Templates interface {
	Guardrails() string
	EmailTemplate() string
}

type OutputStore interface {
	Save(ctx context.Context, content string) (string, error)
}

type AlertSender interface {
	Send(ctx context.Context, subject, body string) error
}

// Outcome is the result of a successful pass. PersistErr and AlertErr
// report best-effort side effects that failed without failing the pass.
type Outcome struct {
	Result       model.AnalysisResult
	ArtifactPath string
	PersistErr   error
	Alerted      bool
	AlertErr     error
}

type Analyzer struct {
	logs      LogResolver
	repos     RepoResolver
	completer Completer
	templates Templates
	store     OutputStore
	alerts    AlertSender
}

func New(logs LogResolver, repos RepoResolver, completer Completer, templates Templates, store OutputStore, alerts AlertSender) *Analyzer {
	return &Analyzer{
		logs:      logs,
		repos:     repos,
		completer: completer,
		templates: templates,
		store:     store,
		alerts:    alerts,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, req model.AnalysisRequest) (*Outcome, error) {
	start := time.Now()

	enter(Validating)
	if ingestor.ExceedsChars(req.Query, MaxQueryChars) {
		return nil, fail(errs.Validation("query length exceeds the limit of %d characters", MaxQueryChars))
	}

	enter(Resolving)
	resolved, err := a.resolve(ctx, req)
	if err != nil {
		return nil, fail(err)
	}

	enter(Prompting)
	enriched := req.WithRepoLink(resolved.RepoContext)
	analysisPrompt := prompt.BuildAnalysisPrompt(enriched, resolved.LogText)

	enter(Invoking)
	content, err := a.completer.Complete(ctx, a.templates.Guardrails(), analysisPrompt)
	if err != nil {
		return nil, fail(err)
	}
	outcome := &Outcome{Result: model.NewAnalysisResult(content)}

	enter(Persisting)
	outcome.ArtifactPath, outcome.PersistErr = a.store.Save(ctx, content)
	if outcome.PersistErr != nil {
		log.Err(outcome.PersistErr).Msg("Failed to persist analysis output")
	}

	if outcome.Result.ContainsAlertSignal {
		enter(Alerting)
		outcome.Alerted = true
		outcome.AlertErr = a.alert(ctx, content)
		if outcome.AlertErr != nil {
			log.Err(outcome.AlertErr).Msg("Failed to send error alert")
		}
	}

	enter(Done)
	log.Info().
		Bool("alerted", outcome.Alerted).
		Str("artifact", outcome.ArtifactPath).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis complete")
	return outcome, nil
}

// resolve runs the log source and repository lookups side by side. The first
// failure cancels the other, which kills a clone still in flight.
func (a *Analyzer) resolve(ctx context.Context, req model.AnalysisRequest) (model.ResolvedContext, error) {
	resolved := model.ResolvedContext{Filters: req.Filters()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := a.logs.Resolve(gctx, req)
		resolved.LogText = text
		return err
	})
	g.Go(func() error {
		repoContext, err := a.repos.Resolve(gctx, req.RepoLink)
		resolved.RepoContext = repoContext
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ResolvedContext{}, err
	}
	return resolved, nil
}

func (a *Analyzer) alert(ctx context.Context, analysis string) error {
	body, err := a.completer.Complete(ctx, a.templates.Guardrails(), prompt.BuildAlertPrompt(a.templates.EmailTemplate(), analysis))
	if err != nil {
		return errs.Alert(err, "alert generation failed")
	}
	return a.alerts.Send(ctx, alert.DefaultSubject, body)
}

func enter(s State) {
	log.Debug().Str("state", string(s)).Msg("Analysis state")
}

func fail(err error) error {
	ev := log.Warn().Err(err).Str("state", string(Failed))
	if kind, ok := errs.KindOf(err); ok {
		ev = ev.Str("kind", string(kind))
	}
	ev.Msg("Analysis failed")
	return err
}
