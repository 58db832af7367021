// Package agent 提供代码生成与执行的反馈循环 Actor
//
// 两个 Actor 订阅同一主题，互相把输出作为对方的输入：
//
//   - [Assistant]: 生成器。维护只追加的对话历史（[History]），
//     用完整历史调用 [llm.Completer]，把回复发布为新的 [Message]
//   - [Executor]: 执行器。从消息中提取代码块，交给 [sandbox.Runner] 执行，
//     把原始内容与输出组成报告（[Report]）发布出去
//
// Runtime 不会把消息投递回发布者，所以执行器的报告只到达生成器，
// 生成器的回复只到达执行器。当生成器的回复不含代码块时，
// 执行器不再发布，Runtime 随之空闲，循环结束。
//
// # 失败处理
//
// 补全失败返回 [llm.CompletionError]，执行环境故障返回 [sandbox.ExecutionInfraError]，
// 两者都经由 Runtime 的错误通道上报且不发布消息。取消令牌被取消时返回
// [actor.CancelledError]，不视为失败。
//
// # 使用示例
//
//	rt := actor.NewRuntime("codeloop")
//	loop, _ := agent.RegisterLoop(rt, actor.DefaultTopic, completer, runner)
//	err := agent.Converse(ctx, rt, "plot the sine function", actor.DefaultTopic)
//	fmt.Println(len(loop.Assistant.History()))
//
// 完整使用示例请参考 example_test.go。
package agent
