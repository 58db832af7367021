package executil

import (
	"context"
	"sync"
)

// RecordingExecutor 记录命令而不真正执行，用于测试
// 通过 Outputs、ExitCodes、Errors 按命令名控制返回值
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []Command

	// Outputs 命令名到输出的映射
	Outputs map[string][]byte

	// ExitCodes 命令名到退出码的映射
	ExitCodes map[string]int

	// Errors 命令名到错误的映射
	Errors map[string]error

	// OnRun 可选回调，在记录后调用（例如读取脚本文件）
	OnRun func(cmd Command)
}

// Run 记录命令并返回配置的结果
func (e *RecordingExecutor) Run(ctx context.Context, cmd Command) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.Commands = append(e.Commands, cmd)
	onRun := e.OnRun
	var (
		out  []byte
		code int
		err  error
	)
	if e.Outputs != nil {
		out = e.Outputs[cmd.Name]
	}
	if e.ExitCodes != nil {
		code = e.ExitCodes[cmd.Name]
	}
	if e.Errors != nil {
		err = e.Errors[cmd.Name]
	}
	e.mu.Unlock()

	if onRun != nil {
		onRun(cmd)
	}
	if err != nil {
		return nil, err
	}
	return &Outcome{Output: out, ExitCode: code}, nil
}

// Recorded 返回已记录的命令（副本）
func (e *RecordingExecutor) Recorded() []Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Command, len(e.Commands))
	copy(out, e.Commands)
	return out
}

// Reset 清空记录
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
