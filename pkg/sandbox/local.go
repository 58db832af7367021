package sandbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/codeblock"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/executil"
)

// Interpreter 语言到解释器命令的映射
type Interpreter struct {
	// Command 可执行文件
	Command string
	// Extension 脚本文件扩展名
	Extension string
}

// DefaultInterpreters 默认的 shell 解释器
func DefaultInterpreters() map[string]Interpreter {
	sh := Interpreter{Command: "sh", Extension: ".sh"}
	return map[string]Interpreter{
		"sh":    sh,
		"bash":  sh,
		"shell": sh,
	}
}

// LocalConfig LocalRunner 配置
type LocalConfig struct {
	// WorkDir 工作目录，脚本与产物都在此目录中
	WorkDir string
	// Executor 进程执行器，默认 executil.RealExecutor
	Executor executil.Executor
	// Interpreters 语言映射，nil 时使用 DefaultInterpreters
	Interpreters map[string]Interpreter
	// Timeout 每个代码块的超时，0 表示不限制
	Timeout time.Duration
	// ArtifactPatterns 产物匹配模式，nil 时使用 DefaultArtifactPatterns
	ArtifactPatterns []string
	// Logger 日志器
	Logger *slog.Logger
}

// LocalRunner 把代码块写入工作目录并用本地解释器执行
type LocalRunner struct {
	workDir      string
	exec         executil.Executor
	interpreters map[string]Interpreter
	timeout      time.Duration
	patterns     []string
	logger       *slog.Logger
}

// NewLocalRunner 创建 LocalRunner，工作目录不存在时创建
func NewLocalRunner(cfg LocalConfig) (*LocalRunner, error) {
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("local runner: work dir is required")
	}
	abs, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("local runner: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("local runner: create work dir: %w", err)
	}

	r := &LocalRunner{
		workDir:      abs,
		exec:         cfg.Executor,
		interpreters: cfg.Interpreters,
		timeout:      cfg.Timeout,
		patterns:     cfg.ArtifactPatterns,
		logger:       cfg.Logger,
	}
	if r.exec == nil {
		r.exec = &executil.RealExecutor{}
	}
	if r.interpreters == nil {
		r.interpreters = DefaultInterpreters()
	}
	if r.patterns == nil {
		r.patterns = DefaultArtifactPatterns
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("runner", "local", "work_dir", abs)
	return r, nil
}

// WorkDir 返回工作目录的绝对路径
func (r *LocalRunner) WorkDir() string {
	return r.workDir
}

// Languages 返回支持的语言
func (r *LocalRunner) Languages() []string {
	langs := make([]string, 0, len(r.interpreters))
	for lang := range r.interpreters {
		langs = append(langs, lang)
	}
	return langs
}

// Run 实现 Runner 接口
func (r *LocalRunner) Run(ctx context.Context, blocks []codeblock.Block) (*Result, error) {
	before, err := scanArtifacts(r.workDir, r.patterns)
	if err != nil {
		return nil, &ExecutionInfraError{Runner: "local", Cause: err}
	}

	result, err := runSequential(ctx, "local", blocks, r.runBlock)
	if err != nil {
		return nil, err
	}

	after, err := scanArtifacts(r.workDir, r.patterns)
	if err != nil {
		return nil, &ExecutionInfraError{Runner: "local", Cause: err}
	}
	result.Artifacts = after.changedSince(before)
	result.Output += formatArtifacts(result.Artifacts)
	return result, nil
}

func (r *LocalRunner) runBlock(ctx context.Context, index int, block codeblock.Block) (*blockOutcome, error) {
	interp, ok := r.interpreters[block.Language]
	if !ok {
		return failure(fmt.Sprintf("unknown language %q\n", block.Language)), nil
	}

	name := scriptName(index, block, interp.Extension)
	if err := os.WriteFile(filepath.Join(r.workDir, name), []byte(block.Code), 0o644); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}

	outcome, err := r.exec.Run(ctx, executil.Command{
		Dir:     r.workDir,
		Name:    interp.Command,
		Args:    []string{name},
		Timeout: r.timeout,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("block executed", "block", index, "script", name, "exit_code", outcome.ExitCode)
	return &blockOutcome{
		output:   withNewline(string(outcome.Output)),
		exitCode: outcome.ExitCode,
	}, nil
}

// scriptName 根据代码内容生成稳定的脚本文件名
func scriptName(index int, block codeblock.Block, ext string) string {
	sum := sha256.Sum256([]byte(block.Code))
	return fmt.Sprintf("block_%d_%s%s", index, hex.EncodeToString(sum[:4]), ext)
}
