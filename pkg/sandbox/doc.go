// Package sandbox 提供代码执行能力
//
// [Runner] 按顺序执行一组代码块并返回合并输出。程序自身的失败是数据：
// [Result.Succeeded] 为 false 且 [Result.ExitCode] 非零。只有执行环境故障
// （无法写入脚本、无法启动解释器、ctx 被取消）才返回 [ExecutionInfraError]。
// 所有 Runner 在第一个失败的代码块处停止。
//
// 内置实现：
//
//   - [StarlarkRunner]: 进程内执行类 Python 的 Starlark 代码
//   - [YaegiRunner]: 进程内解释执行 Go 代码，按导入黑名单拒绝 os、net 等包（不是隔离边界）
//   - [LocalRunner]: 写入工作目录并通过本地解释器执行，收集产物文件
//   - [Router]: 按语言把代码块分派给上述 Runner
//
// 典型组合：
//
//	router := sandbox.NewRouter().
//	    Handle(sandbox.NewStarlarkRunner(sandbox.StarlarkConfig{}), sandbox.StarlarkLanguages...).
//	    Handle(sandbox.NewYaegiRunner(sandbox.YaegiConfig{}), sandbox.YaegiLanguages...).
//	    Handle(local, "sh", "bash", "shell").
//	    Fallback("python")
package sandbox
