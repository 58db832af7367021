package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251216-go-pkg-codeloop/internal/config"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/codeblock"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm/lwagent"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/sandbox"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderMock
	cfg.Timeout = 5 * time.Second
	cfg.Sandbox.WorkDir = t.TempDir()
	cfg.Sandbox.Shell = false
	return &cfg
}

func TestRun_Converges(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	result, err := Run(context.Background(), cfg, "what is 2*21?", Options{
		Output:    &out,
		Completer: llm.NewScript("```python\nprint(2*21)\n```", "It is 42."),
	})
	require.NoError(t, err)

	assert.False(t, result.Failed())
	assert.Equal(t, int64(1), result.Executions)
	require.Len(t, result.Transcript, 4)
	assert.Equal(t, "user", result.Transcript[0].Sender)
	assert.Contains(t, result.Transcript[2].Content, "Received result:\n42\n")
	assert.Equal(t, "It is 42.", result.Transcript[3].Content)
	assert.Equal(t, int64(4), result.Stats.Published)

	assert.Equal(t, 4, strings.Count(out.String(), strings.Repeat("-", 80)))
}

func TestRun_MockProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.MockResponse = "Done."

	result, err := Run(context.Background(), cfg, "hi", Options{})
	require.NoError(t, err)
	require.Len(t, result.Transcript, 2)
	assert.Equal(t, "Done.", result.Transcript[1].Content)
	assert.Equal(t, int64(0), result.Executions)
}

func TestRun_FailFast(t *testing.T) {
	cfg := testConfig(t)
	cfg.FailFast = true

	var mu sync.Mutex
	var seen []*actor.HandlerError

	result, err := Run(context.Background(), cfg, "go", Options{
		Completer: llm.NewScript("```python\nprint(1)\n```", "never used"),
		Runner: sandbox.RunnerFunc(func(context.Context, []codeblock.Block) (*sandbox.Result, error) {
			return nil, errors.New("sandbox unavailable")
		}),
		OnFailure: func(herr *actor.HandlerError) {
			mu.Lock()
			seen = append(seen, herr)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	require.True(t, result.Failed())
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "executor", result.Failures[0].Actor)
	var infra *sandbox.ExecutionInfraError
	assert.ErrorAs(t, result.Failures[0], &infra)

	mu.Lock()
	assert.Len(t, seen, 1)
	mu.Unlock()
}

func TestRun_CompletionFailureWithoutFailFast(t *testing.T) {
	cfg := testConfig(t)

	result, err := Run(context.Background(), cfg, "go", Options{
		Completer: llm.CompleterFunc(func(context.Context, []llm.Entry) (string, error) {
			return "", llm.Wrap("test", errors.New("rate limited"))
		}),
	})
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)

	var cerr *llm.CompletionError
	require.ErrorAs(t, result.Failures[0], &cerr)
	assert.Equal(t, "test", cerr.Provider)
	assert.Len(t, result.Transcript, 1)
}

func TestRun_Timeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeout = 50 * time.Millisecond

	result, err := Run(context.Background(), cfg, "slow", Options{
		Completer: llm.CompleterFunc(func(ctx context.Context, _ []llm.Entry) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
	require.NotNil(t, result)
	assert.Empty(t, result.Failures)
}

func TestRun_Interrupted(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()

	_, err := Run(ctx, cfg, "slow", Options{
		Completer: llm.CompleterFunc(func(ctx context.Context, _ []llm.Entry) (string, error) {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		}),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "interrupted")
}

func TestNewCompleter(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	c, err := NewCompleter(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &llm.Script{}, c)

	cfg.Provider = config.ProviderLWAgent
	c, err = NewCompleter(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &lwagent.Client{}, c)

	cfg.Provider = config.ProviderOpenAI
	cfg.APIKey = ""
	_, err = NewCompleter(ctx, cfg, nil)
	assert.Error(t, err)

	cfg.Provider = "nope"
	_, err = NewCompleter(ctx, cfg, nil)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestNewRunner_Languages(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sandbox.Go = false

	router, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"py", "python", "star", "starlark"}, router.Languages())

	cfg.Sandbox.Go = true
	cfg.Sandbox.Shell = true
	router, err = NewRunner(cfg, nil)
	require.NoError(t, err)
	langs := router.Languages()
	assert.Contains(t, langs, "go")
	assert.Contains(t, langs, "sh")
	assert.Contains(t, langs, "bash")
}

func TestNewRunner_PythonCommand(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sandbox.PythonCommand = "cat"

	router, err := NewRunner(cfg, nil)
	require.NoError(t, err)

	code := "print('routed to a local interpreter')\n"
	res, err := router.Run(context.Background(), []codeblock.Block{{Language: "python", Code: code}})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, code, res.Output)
}

func TestNewRunner_DefaultLanguage(t *testing.T) {
	cfg := testConfig(t)

	router, err := NewRunner(cfg, nil)
	require.NoError(t, err)

	res, err := router.Run(context.Background(), []codeblock.Block{{Code: "print(len('abc'))"}})
	require.NoError(t, err)
	assert.Equal(t, "3\n", res.Output)
}
