package actor

import (
	"context"
	"fmt"
	"log/slog"
)

// Message Actor 消息接口
// 所有通过 Runtime 发布的消息都必须实现此接口
type Message interface {
	// Kind 返回消息类型标识，Runtime 按此查找处理函数
	Kind() string
}

// TopicID 主题标识（路由键）
// 值类型，按值比较相等
type TopicID struct {
	// Type 主题类型
	Type string
	// Source 主题来源，用于区分同类型的多个会话
	Source string
}

// DefaultTopic 默认主题，代表隐式的单一会话通道
var DefaultTopic = TopicID{Type: "default", Source: "default"}

// String 返回主题的字符串表示
func (t TopicID) String() string {
	return fmt.Sprintf("%s/%s", t.Type, t.Source)
}

// Handler 消息处理函数
// 只能通过 Context.Publish 与其他 Actor 通信，返回值仅用于报告失败
type Handler func(ctx *Context, msg Message) error

// Routes 消息类型到处理函数的分发表
type Routes map[string]Handler

// Actor Actor 接口
// 实例构造时即声明分发表，Runtime 按 Kind 查表分发，不使用反射
type Actor interface {
	Routes() Routes
}

// Factory 创建一个 Actor 实例
type Factory func() Actor

// RoutesFunc 函数式 Actor，便于快速创建简单 Actor
type RoutesFunc func() Routes

// Routes 实现 Actor 接口
func (f RoutesFunc) Routes() Routes {
	return f()
}

// Handle 将类型化的处理函数转换为 Handler
//
// 用法示例:
//
//	actor.Routes{
//	    "agent.message": actor.Handle(a.handleMessage),
//	}
func Handle[T Message](fn func(ctx *Context, msg T) error) Handler {
	return func(ctx *Context, msg Message) error {
		m, ok := msg.(T)
		if !ok {
			return fmt.Errorf("unexpected message type %T for kind %q", msg, msg.Kind())
		}
		return fn(ctx, m)
	}
}

// Context 单次投递的执行上下文
type Context struct {
	// Self 当前 Actor 的注册名
	Self string
	// Sender 发布者的注册名，外部调用者为空
	Sender string
	// Topic 消息来源主题
	Topic TopicID
	// Token 本次投递的取消令牌
	Token *CancellationToken
	// MessageID 本次投递的序号（Runtime 内唯一）
	MessageID uint64

	runtime *Runtime
	logger  *slog.Logger
}

// Publish 以当前 Actor 身份发布消息
// 消息不会投递回当前 Actor 自身
func (c *Context) Publish(msg Message, topic TopicID) error {
	return c.runtime.publish(msg, topic, c.Self)
}

// Context 返回与取消令牌绑定的 Go context
func (c *Context) Context() context.Context {
	return c.Token.Context()
}

// Runtime 获取所属 Runtime
func (c *Context) Runtime() *Runtime {
	return c.runtime
}

// Logger 返回带有 actor 字段的日志器
func (c *Context) Logger() *slog.Logger {
	return c.logger
}
