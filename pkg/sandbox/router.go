package sandbox

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/codeblock"
)

// Router 按代码块语言分派到不同的 Runner
//
// 代码块按顺序逐个执行，遇到第一个失败即停止。
// 未知语言作为程序失败返回（退出码 1），不是错误。
type Router struct {
	runners  map[string]Runner
	fallback string
}

// NewRouter 创建空路由
func NewRouter() *Router {
	return &Router{runners: make(map[string]Runner)}
}

// Handle 为语言注册 Runner，语言不区分大小写，后注册的覆盖先注册的
func (r *Router) Handle(runner Runner, languages ...string) *Router {
	for _, lang := range languages {
		r.runners[strings.ToLower(lang)] = runner
	}
	return r
}

// Fallback 设置未标注语言的代码块使用的语言
func (r *Router) Fallback(language string) *Router {
	r.fallback = strings.ToLower(language)
	return r
}

// Languages 返回已注册的语言（已排序）
func (r *Router) Languages() []string {
	return slices.Sorted(maps.Keys(r.runners))
}

// Run 实现 Runner 接口
func (r *Router) Run(ctx context.Context, blocks []codeblock.Block) (*Result, error) {
	var out strings.Builder
	result := &Result{Succeeded: true}

	for _, block := range blocks {
		lang := strings.ToLower(block.Language)
		if lang == "" {
			lang = r.fallback
		}

		runner, ok := r.runners[lang]
		if !ok {
			fmt.Fprintf(&out, "unknown language %q\n", block.Language)
			result.ExitCode = 1
			result.Succeeded = false
			break
		}

		block.Language = lang
		sub, err := runner.Run(ctx, []codeblock.Block{block})
		if err != nil {
			return nil, err
		}

		out.WriteString(sub.Output)
		result.ExitCode = sub.ExitCode
		result.Artifacts = append(result.Artifacts, sub.Artifacts...)
		if !sub.Succeeded {
			result.Succeeded = false
			break
		}
	}

	result.Output = out.String()
	return result, nil
}
