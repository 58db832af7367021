package sandbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/codeblock"
)

// Runner 代码执行能力
//
// 程序自身的失败（语法错误、异常、非零退出）作为数据返回在 Result 中；
// 只有执行环境本身出错或 ctx 被取消时才返回 *ExecutionInfraError。
type Runner interface {
	Run(ctx context.Context, blocks []codeblock.Block) (*Result, error)
}

// RunnerFunc 函数式 Runner
type RunnerFunc func(ctx context.Context, blocks []codeblock.Block) (*Result, error)

// Run 实现 Runner 接口
func (f RunnerFunc) Run(ctx context.Context, blocks []codeblock.Block) (*Result, error) {
	return f(ctx, blocks)
}

// Result 执行结果
type Result struct {
	// Output 所有已执行代码块的合并输出
	Output string
	// ExitCode 最后一个代码块的退出码
	ExitCode int
	// Succeeded 所有代码块都成功
	Succeeded bool
	// Artifacts 本次运行在工作目录中产生或修改的文件（相对路径）
	Artifacts []string
}

// ExecutionInfraError 执行环境故障
type ExecutionInfraError struct {
	// Runner 出错的执行器名称
	Runner string
	// Cause 原始错误
	Cause error
}

// Error 实现 error 接口
func (e *ExecutionInfraError) Error() string {
	return fmt.Sprintf("execution infrastructure failure (%s): %v", e.Runner, e.Cause)
}

// Unwrap 返回原始错误
func (e *ExecutionInfraError) Unwrap() error {
	return e.Cause
}

// ═══════════════════════════════════════════════════════════════════════════
// 顺序执行
// ═══════════════════════════════════════════════════════════════════════════

// blockOutcome 单个代码块的执行结果
type blockOutcome struct {
	output    string
	exitCode  int
	artifacts []string
}

// blockFunc 执行单个代码块，index 为代码块在本次运行中的序号
type blockFunc func(ctx context.Context, index int, block codeblock.Block) (*blockOutcome, error)

// runSequential 依次执行代码块，遇到第一个失败的代码块即停止
func runSequential(ctx context.Context, runner string, blocks []codeblock.Block, fn blockFunc) (*Result, error) {
	var out strings.Builder
	result := &Result{Succeeded: true}

	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, &ExecutionInfraError{Runner: runner, Cause: err}
		}

		bo, err := fn(ctx, i, block)
		if err != nil {
			return nil, &ExecutionInfraError{Runner: runner, Cause: err}
		}

		out.WriteString(bo.output)
		result.ExitCode = bo.exitCode
		result.Artifacts = append(result.Artifacts, bo.artifacts...)
		if bo.exitCode != 0 {
			result.Succeeded = false
			break
		}
	}

	result.Output = out.String()
	return result, nil
}

// failure 构造程序失败结果
func failure(output string) *blockOutcome {
	return &blockOutcome{output: output, exitCode: 1}
}

// withNewline 确保输出以换行结尾
func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
