package agent

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/codeblock"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/sandbox"
)

// Executor 执行器 Actor
//
// 从消息中提取代码块并执行，把原始内容与执行输出组成报告发布出去。
// 没有代码块时什么也不发布，这是反馈循环唯一的终止条件。
type Executor struct {
	runner  sandbox.Runner
	extract codeblock.Extractor
	topic   actor.TopicID
	logger  *slog.Logger

	runs      atomic.Int64
	failures  atomic.Int64
	converged atomic.Int64
}

// NewExecutor 创建执行器
func NewExecutor(runner sandbox.Runner, opts ...Option) *Executor {
	o := applyOptions(opts)
	return &Executor{
		runner:  runner,
		extract: o.extract,
		topic:   o.topic,
		logger:  o.logger,
	}
}

// Routes 实现 actor.Actor 接口
func (e *Executor) Routes() actor.Routes {
	return actor.Routes{
		KindMessage: actor.Handle(e.handleMessage),
	}
}

// handleMessage 处理对话消息
func (e *Executor) handleMessage(ctx *actor.Context, msg Message) error {
	blocks := e.extract(msg.Content)
	if len(blocks) == 0 {
		e.converged.Add(1)
		e.logger.Debug("no code blocks, nothing to execute", "message_id", msg.ID)
		return nil
	}

	if err := ctx.Token.Err(); err != nil {
		return err
	}

	e.logger.Info("executing code blocks",
		"message_id", msg.ID,
		"blocks", len(blocks),
		"languages", codeblock.Languages(blocks))

	result, err := e.runner.Run(ctx.Context(), blocks)
	if err != nil {
		if ctx.Token.IsCancelled() {
			return ctx.Token.Err()
		}
		var infra *sandbox.ExecutionInfraError
		if !errors.As(err, &infra) {
			err = &sandbox.ExecutionInfraError{Runner: "unknown", Cause: err}
		}
		return err
	}
	if err := ctx.Token.Err(); err != nil {
		return err
	}

	e.runs.Add(1)
	if !result.Succeeded {
		e.failures.Add(1)
	}
	e.logger.Debug("execution finished",
		"exit_code", result.ExitCode,
		"artifacts", len(result.Artifacts))

	return ctx.Publish(NewMessage(Report(msg.Content, result.Output)), e.topic)
}

// Runs 成功完成（含程序失败）的执行次数
func (e *Executor) Runs() int64 { return e.runs.Load() }

// ProgramFailures 程序失败的执行次数
func (e *Executor) ProgramFailures() int64 { return e.failures.Load() }

// Converged 收到不含代码块消息的次数
func (e *Executor) Converged() int64 { return e.converged.Load() }
