package agent

import (
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/sandbox"
)

// 默认注册名
const (
	AssistantName = "assistant"
	ExecutorName  = "executor"
)

// AssistantFactory 返回每次调用都创建新 Assistant 的 actor.Factory
func AssistantFactory(completer llm.Completer, opts ...Option) actor.Factory {
	return func() actor.Actor {
		return NewAssistant(completer, opts...)
	}
}

// ExecutorFactory 返回每次调用都创建新 Executor 的 actor.Factory
func ExecutorFactory(runner sandbox.Runner, opts ...Option) actor.Factory {
	return func() actor.Actor {
		return NewExecutor(runner, opts...)
	}
}

// Loop 已注册的生成器与执行器
//
// 保留实例引用，便于运行结束后读取历史与统计。
type Loop struct {
	Assistant *Assistant
	Executor  *Executor
	Topic     actor.TopicID
}

// RegisterLoop 在 Runtime 中注册生成器与执行器，两者都订阅 topic 并向其发布
func RegisterLoop(
	rt *actor.Runtime,
	topic actor.TopicID,
	completer llm.Completer,
	runner sandbox.Runner,
	opts ...Option,
) (*Loop, error) {
	opts = append(opts, WithTopic(topic))
	loop := &Loop{
		Assistant: NewAssistant(completer, opts...),
		Executor:  NewExecutor(runner, opts...),
		Topic:     topic,
	}

	if err := rt.Register(AssistantName, func() actor.Actor { return loop.Assistant }, topic); err != nil {
		return nil, err
	}
	if err := rt.Register(ExecutorName, func() actor.Actor { return loop.Executor }, topic); err != nil {
		return nil, err
	}
	return loop, nil
}
