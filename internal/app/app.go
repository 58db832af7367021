// Package app wires configuration into a running conversation.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/lwmacct/251216-go-pkg-codeloop/internal/config"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/agent"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm/gemini"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm/lwagent"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm/openai"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/sandbox"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/transcript"
)

// TranscriptName is the registered name of the transcript recorder.
const TranscriptName = "transcript"

// DefaultMockResponse is returned by the offline providers when none is configured.
const DefaultMockResponse = "There is nothing to execute."

// Options carries process-level collaborators. Zero values are replaced by defaults.
type Options struct {
	Logger *slog.Logger
	// Output receives the transcript, nothing is echoed when nil.
	Output io.Writer
	// Completer replaces the configured provider.
	Completer llm.Completer
	// Runner replaces the configured sandbox.
	Runner sandbox.Runner
	// OnFailure is called for every handler failure as it is reported.
	OnFailure func(*actor.HandlerError)
}

// Result summarizes a finished conversation.
type Result struct {
	Transcript []transcript.Entry
	Failures   []*actor.HandlerError
	Stats      *actor.RuntimeStats
	// Executions counts sandbox runs that produced a report.
	Executions int64
}

// Failed reports whether any handler failure was reported.
func (r *Result) Failed() bool {
	return len(r.Failures) > 0
}

// Run executes one conversation seeded with prompt and blocks until it converges,
// fails fast or ctx ends. A ctx error is returned together with the partial result.
func Run(ctx context.Context, cfg *config.Config, prompt string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	completer := opts.Completer
	if completer == nil {
		c, err := NewCompleter(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if closer, ok := c.(io.Closer); ok {
			defer func() { _ = closer.Close() }()
		}
		completer = c
	}

	runner := opts.Runner
	if runner == nil {
		r, err := NewRunner(cfg, logger)
		if err != nil {
			return nil, err
		}
		runner = r
	}

	decider := actor.ResumingDecider
	if cfg.FailFast {
		decider = actor.StoppingDecider
	}
	rt := actor.NewRuntimeWithConfig("codeloop", &actor.RuntimeConfig{
		ErrorBufferSize: 100,
		Decider:         decider,
		Logger:          logger,
	})

	agentOpts := []agent.Option{agent.WithLogger(logger)}
	if cfg.SystemPrompt != "" {
		agentOpts = append(agentOpts, agent.WithSystemPrompt(cfg.SystemPrompt))
	}
	loop, err := agent.RegisterLoop(rt, actor.DefaultTopic, completer, runner, agentOpts...)
	if err != nil {
		return nil, fmt.Errorf("register loop: %w", err)
	}

	var recOpts []transcript.Option
	if opts.Output != nil {
		recOpts = append(recOpts, transcript.WithWriter(opts.Output))
	}
	rec := transcript.New(recOpts...)
	if err := rt.Register(TranscriptName, func() actor.Actor { return rec }); err != nil {
		return nil, fmt.Errorf("register transcript: %w", err)
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for herr := range rt.Errors() {
			if opts.OnFailure != nil {
				opts.OnFailure(herr)
			}
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	logger.Info("conversation started", "provider", cfg.Provider, "timeout", cfg.Timeout)
	convErr := agent.Converse(runCtx, rt, prompt, actor.DefaultTopic)
	if convErr != nil {
		rt.Stop()
	}
	<-rt.Done()
	<-drained

	result := &Result{
		Transcript: rec.Entries(0),
		Failures:   rt.Failures(),
		Stats:      rt.Stats(),
		Executions: loop.Executor.Runs(),
	}

	if convErr != nil {
		if errors.Is(convErr, context.DeadlineExceeded) && ctx.Err() == nil {
			return result, fmt.Errorf("conversation timed out after %s: %w", cfg.Timeout, convErr)
		}
		return result, fmt.Errorf("conversation interrupted: %w", convErr)
	}

	logger.Info("conversation finished",
		"messages", len(result.Transcript),
		"executions", result.Executions,
		"failures", len(result.Failures))
	return result, nil
}

// NewCompleter builds the completion provider named by cfg.Provider.
func NewCompleter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.Completer, error) {
	response := cfg.MockResponse
	if response == "" {
		response = DefaultMockResponse
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		oc.Logger = logger
		return openai.New(oc)

	case config.ProviderGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Logger:  logger,
		})

	case config.ProviderLWAgent:
		return lwagent.NewMock(response), nil

	case config.ProviderMock:
		return llm.NewScript(response), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// NewRunner builds the language router described by cfg.Sandbox.
//
// Starlark serves python unless a python command is configured, Go runs in yaegi
// and shell blocks run in the work directory.
func NewRunner(cfg *config.Config, logger *slog.Logger) (*sandbox.Router, error) {
	sc := cfg.Sandbox
	router := sandbox.NewRouter().Fallback(sc.DefaultLanguage)

	router.Handle(sandbox.NewStarlarkRunner(sandbox.StarlarkConfig{
		MaxSteps: sc.MaxSteps,
		Logger:   logger,
	}), sandbox.StarlarkLanguages...)

	if sc.Go {
		router.Handle(sandbox.NewYaegiRunner(sandbox.YaegiConfig{Logger: logger}), sandbox.YaegiLanguages...)
	}

	interpreters := make(map[string]sandbox.Interpreter)
	if sc.Shell {
		maps.Copy(interpreters, sandbox.DefaultInterpreters())
	}
	if sc.PythonCommand != "" {
		py := sandbox.Interpreter{Command: sc.PythonCommand, Extension: ".py"}
		interpreters["python"] = py
		interpreters["py"] = py
	}
	if len(interpreters) == 0 {
		return router, nil
	}

	local, err := sandbox.NewLocalRunner(sandbox.LocalConfig{
		WorkDir:          sc.WorkDir,
		Interpreters:     interpreters,
		Timeout:          sc.BlockTimeout,
		ArtifactPatterns: sc.Artifacts,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}
	router.Handle(local, local.Languages()...)
	return router, nil
}
