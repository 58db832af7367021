package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"log/slog"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/codeblock"
)

// YaegiLanguages YaegiRunner 默认处理的语言
var YaegiLanguages = []string{"go", "golang"}

// DefaultBlockedImports 默认禁止的 Go 导入
//
// 按路径前缀匹配："os" 同时禁止 os/exec、os/signal 等子包。
// log 的 Fatal 系列会调用 os.Exit 结束宿主进程，因此一并禁止。
var DefaultBlockedImports = []string{"os", "io/ioutil", "log", "net", "syscall", "unsafe", "plugin", "runtime/debug"}

// YaegiConfig YaegiRunner 配置
type YaegiConfig struct {
	// BlockedImports 禁止导入的包（含子包），nil 时使用 DefaultBlockedImports
	BlockedImports []string
	// Logger 日志器
	Logger *slog.Logger
}

// YaegiRunner 进程内解释执行 Go 代码
//
// 代码块可以是带 package main 与 main 函数的完整程序，也可以是语句片段。
// 每个代码块使用独立的解释器，stdout 与 stderr 被捕获。
//
// 禁止导入只是保护宿主进程的黑名单，不是隔离边界：被禁止的包既在解析阶段
// 拒绝，也不会注册到解释器的符号表中。
type YaegiRunner struct {
	blocked []string
	symbols interp.Exports
	logger  *slog.Logger
}

// NewYaegiRunner 创建 YaegiRunner
func NewYaegiRunner(cfg YaegiConfig) *YaegiRunner {
	blocked := cfg.BlockedImports
	if blocked == nil {
		blocked = DefaultBlockedImports
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &YaegiRunner{
		blocked: blocked,
		symbols: allowedSymbols(blocked),
		logger:  logger.With("runner", "yaegi"),
	}
}

// allowedSymbols 返回去掉被禁止包之后的 stdlib 符号表
//
// 键的格式为 "导入路径/包名"。yaegi 把符号表自身也注册为可导入的包，
// 通过它能拿到任意被禁止的函数，所以只保留标准库路径。
func allowedSymbols(blocked []string) interp.Exports {
	symbols := make(interp.Exports, len(stdlib.Symbols))
	for key, values := range stdlib.Symbols {
		path := key
		if i := strings.LastIndex(key, "/"); i > 0 {
			path = key[:i]
		}
		first, _, _ := strings.Cut(path, "/")
		if strings.Contains(first, ".") || isBlocked(blocked, path) {
			continue
		}
		symbols[key] = values
	}
	return symbols
}

func isBlocked(blocked []string, path string) bool {
	for _, b := range blocked {
		if path == b || strings.HasPrefix(path, b+"/") {
			return true
		}
	}
	return false
}

// Run 实现 Runner 接口
func (r *YaegiRunner) Run(ctx context.Context, blocks []codeblock.Block) (*Result, error) {
	return runSequential(ctx, "yaegi", blocks, r.runBlock)
}

func (r *YaegiRunner) runBlock(ctx context.Context, index int, block codeblock.Block) (out *blockOutcome, err error) {
	if forbidden, perr := r.checkImports(block.Code); perr != nil {
		return failure(withNewline(perr.Error())), nil
	} else if len(forbidden) > 0 {
		return failure(fmt.Sprintf("forbidden imports: %s\n", strings.Join(forbidden, ", "))), nil
	}

	var buf bytes.Buffer
	i := interp.New(interp.Options{
		Stdout: &buf,
		Stderr: &buf,
	})
	if err := i.Use(r.symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			fmt.Fprintf(&buf, "panic: %v\n", rec)
			out, err = failure(buf.String()), nil
		}
	}()

	_, evalErr := i.EvalWithContext(ctx, block.Code)
	if evalErr == nil {
		return &blockOutcome{output: buf.String()}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	r.logger.Debug("block failed", "block", index, "error", evalErr)
	buf.WriteString(withNewline(evalErr.Error()))
	return failure(withNewline(buf.String())), nil
}

// checkImports 解析导入声明，返回被禁止的导入
// 没有 package 子句的片段按 package main 解析
func (r *YaegiRunner) checkImports(code string) ([]string, error) {
	src := code
	if !hasPackageClause(code) {
		src = "package main\n" + code
	}

	file, err := parser.ParseFile(token.NewFileSet(), "block.go", src, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	var forbidden []string
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		if isBlocked(r.blocked, path) {
			forbidden = append(forbidden, path)
		}
	}
	return forbidden, nil
}

func hasPackageClause(code string) bool {
	for line := range strings.SplitSeq(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		return strings.HasPrefix(trimmed, "package ")
	}
	return false
}
