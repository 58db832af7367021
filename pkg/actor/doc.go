// Package actor 提供单进程的主题订阅式 Actor 运行时
//
// 每个 Actor 是独立的计算单元：
// • 拥有私有状态（处理函数串行执行，无需锁保护）
// • 订阅一个或多个主题（[TopicID]），通过邮箱接收投递
// • 只能通过 [Context.Publish] 与其他 Actor 通信
//
// # 核心组件
//
// [Runtime] 管理 Actor 注册、主题订阅、消息投递与空闲检测：
//
//	rt := actor.NewRuntime("codeloop")
//	rt.Register("echo", newEcho, actor.DefaultTopic)
//	rt.Start()
//	rt.Publish(msg, actor.DefaultTopic)
//	rt.StopWhenIdle(ctx)
//
// [Actor] 在构造时通过 [Routes] 声明消息类型到处理函数的分发表，
// [Handle] 把类型化的处理函数适配为 [Handler]。
//
// # 投递语义
//
// 发布时为主题的每个订阅者各入队一次投递，发布者自身除外。
// 同一主题上的消息对每个订阅者保持发布顺序，
// 同一 Actor 不会并发执行两个处理函数。没有订阅者的消息计为死信。
//
// # 空闲与停止
//
// [Runtime.StopWhenIdle] 在排队数与执行中数同时为零时停止运行时，
// 检查与转换在同一把锁内完成。[Runtime.Stop] 立即停止，丢弃排队投递并取消
// 执行中投递的 [CancellationToken]。
//
// # 失败处理
//
// 处理函数返回的错误与 panic 被包装为 [HandlerError]，发送到 [Runtime.Errors]
// 并记录在 [Runtime.Failures] 中，之后由 [Decider] 决定 [Directive]：
// 继续、停止该 Actor 或停止整个运行时。协作式取消（[CancelledError]）不视为失败。
//
// 完整使用示例请参考 example_test.go 或运行 go doc -all。
package actor
