// Package executil 提供外部进程执行工具
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// TimeoutExitCode 单条命令超时时报告的退出码（与 coreutils timeout 一致）
const TimeoutExitCode = 124

// Command 一次进程调用
type Command struct {
	// Dir 工作目录
	Dir string
	// Name 可执行文件
	Name string
	// Args 参数
	Args []string
	// Env 追加的环境变量（KEY=VALUE）
	Env []string
	// Timeout 单条命令超时，0 表示不限制
	Timeout time.Duration
}

// String 返回命令行形式
func (c Command) String() string {
	s := c.Name
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// Outcome 进程运行结果
//
// 非零退出码属于程序结果而不是错误。
type Outcome struct {
	// Output stdout 与 stderr 合并后的输出
	Output []byte
	// ExitCode 退出码
	ExitCode int
	// TimedOut 是否因单条命令超时被终止
	TimedOut bool
}

// Executor 运行外部命令
type Executor interface {
	// Run 运行命令并返回合并输出
	// 只有无法启动进程或 ctx 被取消时才返回错误
	Run(ctx context.Context, cmd Command) (*Outcome, error)
}

// RealExecutor 通过 os/exec 运行真实进程
type RealExecutor struct{}

// Run 实现 Executor 接口
func (e *RealExecutor) Run(ctx context.Context, cmd Command) (*Outcome, error) {
	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}
	var buf bytes.Buffer
	c.Stdout = &buf
	c.Stderr = &buf

	err := c.Run()
	if err == nil {
		return &Outcome{Output: buf.Bytes()}, nil
	}

	// 上层取消优先于其它判断
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		fmt.Fprintf(&buf, "\ntimeout after %s", cmd.Timeout)
		return &Outcome{Output: buf.Bytes(), ExitCode: TimeoutExitCode, TimedOut: true}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Outcome{Output: buf.Bytes(), ExitCode: exitErr.ExitCode()}, nil
	}

	return nil, fmt.Errorf("exec %s: %w", cmd.Name, err)
}
