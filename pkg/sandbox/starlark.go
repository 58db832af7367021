package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	starjson "go.starlark.net/lib/json"
	starmath "go.starlark.net/lib/math"
	startime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/codeblock"
)

// StarlarkLanguages StarlarkRunner 默认处理的语言
var StarlarkLanguages = []string{"python", "py", "starlark", "star"}

var starlarkFileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// StarlarkConfig StarlarkRunner 配置
type StarlarkConfig struct {
	// MaxSteps 每个代码块的最大执行步数，0 表示不限制
	MaxSteps uint64
	// Logger 日志器
	Logger *slog.Logger
}

// StarlarkRunner 进程内执行类 Python 的 Starlark 代码
//
// 每个代码块使用独立的全局环境，预置 json、math、time 模块。
type StarlarkRunner struct {
	maxSteps    uint64
	predeclared starlark.StringDict
	logger      *slog.Logger
}

// NewStarlarkRunner 创建 StarlarkRunner
func NewStarlarkRunner(cfg StarlarkConfig) *StarlarkRunner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StarlarkRunner{
		maxSteps: cfg.MaxSteps,
		predeclared: starlark.StringDict{
			"json": starjson.Module,
			"math": starmath.Module,
			"time": startime.Module,
		},
		logger: logger.With("runner", "starlark"),
	}
}

// Run 实现 Runner 接口
func (r *StarlarkRunner) Run(ctx context.Context, blocks []codeblock.Block) (*Result, error) {
	return runSequential(ctx, "starlark", blocks, r.runBlock)
}

func (r *StarlarkRunner) runBlock(ctx context.Context, index int, block codeblock.Block) (*blockOutcome, error) {
	var out strings.Builder
	thread := &starlark.Thread{
		Name: fmt.Sprintf("block-%d", index),
		Print: func(_ *starlark.Thread, msg string) {
			out.WriteString(msg)
			out.WriteByte('\n')
		},
	}
	if r.maxSteps > 0 {
		thread.SetMaxExecutionSteps(r.maxSteps)
	}

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	filename := fmt.Sprintf("block_%d.star", index)
	_, err := starlark.ExecFileOptions(starlarkFileOptions, thread, filename, block.Code, r.predeclared)
	if err == nil {
		return &blockOutcome{output: out.String()}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	r.logger.Debug("block failed", "block", index, "error", err)

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		out.WriteString(evalErr.Backtrace())
	} else {
		out.WriteString(err.Error())
	}
	return failure(withNewline(out.String())), nil
}
