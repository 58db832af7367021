package actor_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
)

// PingMessage 示例消息类型
type PingMessage struct{}

func (m *PingMessage) Kind() string { return "ping" }

// PongMessage 示例响应消息
type PongMessage struct{}

func (m *PongMessage) Kind() string { return "pong" }

// CountMessage 计数器消息
type CountMessage struct {
	Value int
}

func (m *CountMessage) Kind() string { return "count" }

// Example_basic 演示 Runtime 的基本使用
func Example_basic() {
	rt := actor.NewRuntime("example")

	_ = rt.Register("greeter", func() actor.Actor {
		return actor.RoutesFunc(func() actor.Routes {
			return actor.Routes{
				"ping": func(ctx *actor.Context, msg actor.Message) error {
					fmt.Printf("%s received %s\n", ctx.Self, msg.Kind())
					return nil
				},
			}
		})
	})

	_ = rt.Start()
	_ = rt.Publish(&PingMessage{}, actor.DefaultTopic)

	// 等待所有消息处理完毕后停止
	_ = rt.StopWhenIdle(context.Background())
	fmt.Println("state:", rt.State())

	// Output:
	// greeter received ping
	// state: stopped
}

// counter 有状态的 Actor，处理函数串行执行，无需加锁
type counter struct {
	total int
}

func (c *counter) Routes() actor.Routes {
	return actor.Routes{
		"count": actor.Handle(c.handleCount),
	}
}

func (c *counter) handleCount(_ *actor.Context, msg *CountMessage) error {
	c.total += msg.Value
	fmt.Printf("Counter: %d\n", c.total)
	return nil
}

// Example_handle 演示类型化处理函数
func Example_handle() {
	rt := actor.NewRuntime("handle-example")
	_ = rt.Register("counter", func() actor.Actor { return &counter{} })
	_ = rt.Start()

	_ = rt.Publish(&CountMessage{Value: 1}, actor.DefaultTopic)
	_ = rt.Publish(&CountMessage{Value: 2}, actor.DefaultTopic)
	_ = rt.Publish(&CountMessage{Value: 3}, actor.DefaultTopic)
	_ = rt.StopWhenIdle(context.Background())

	// Output:
	// Counter: 1
	// Counter: 3
	// Counter: 6
}

// Example_pingPong 演示两个 Actor 通过主题往返通信
func Example_pingPong() {
	rt := actor.NewRuntime("ping-pong")
	pings := actor.TopicID{Type: "ping", Source: "demo"}
	pongs := actor.TopicID{Type: "pong", Source: "demo"}

	_ = rt.Register("ponger", func() actor.Actor {
		return actor.RoutesFunc(func() actor.Routes {
			return actor.Routes{
				"ping": func(ctx *actor.Context, _ actor.Message) error {
					return ctx.Publish(&PongMessage{}, pongs)
				},
			}
		})
	}, pings)

	_ = rt.Register("listener", func() actor.Actor {
		return actor.RoutesFunc(func() actor.Routes {
			return actor.Routes{
				"pong": func(ctx *actor.Context, msg actor.Message) error {
					fmt.Printf("%s got %s from %s\n", ctx.Self, msg.Kind(), ctx.Sender)
					return nil
				},
			}
		})
	}, pongs)

	_ = rt.Start()
	_ = rt.Publish(&PingMessage{}, pings)
	_ = rt.StopWhenIdle(context.Background())

	// Output:
	// listener got pong from ponger
}

// Example_topicBroadcast 演示主题的多订阅者
func Example_topicBroadcast() {
	rt := actor.NewRuntime("broadcast-example")

	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("worker-%d", i)
		_ = rt.Register(name, func() actor.Actor {
			return actor.RoutesFunc(func() actor.Routes {
				return actor.Routes{
					"ping": func(ctx *actor.Context, _ actor.Message) error {
						fmt.Printf("%s received ping\n", ctx.Self)
						return nil
					},
				}
			})
		})
	}

	_ = rt.Start()
	_ = rt.Publish(&PingMessage{}, actor.DefaultTopic)
	_ = rt.StopWhenIdle(context.Background())

	// Unordered output:
	// worker-1 received ping
	// worker-2 received ping
	// worker-3 received ping
}

// Example_failures 演示处理函数失败的上报
func Example_failures() {
	config := actor.DefaultRuntimeConfig()
	config.Decider = actor.IsolatingDecider
	rt := actor.NewRuntimeWithConfig("failure-example", config)

	_ = rt.Register("flaky", func() actor.Actor {
		return actor.RoutesFunc(func() actor.Routes {
			return actor.Routes{
				"ping": func(_ *actor.Context, _ actor.Message) error {
					return errors.New("flaky failure")
				},
			}
		})
	})

	_ = rt.Start()
	_ = rt.Publish(&PingMessage{}, actor.DefaultTopic)
	_ = rt.StopWhenIdle(context.Background())

	for herr := range rt.Errors() {
		fmt.Println(herr)
	}

	// Output:
	// actor flaky handling ping: flaky failure
}

// Example_cancellationToken 演示取消令牌
func Example_cancellationToken() {
	token := actor.NewCancellationToken(context.Background())
	fmt.Println("cancelled:", token.IsCancelled())

	token.Cancel("deadline reached")
	fmt.Println("cancelled:", token.IsCancelled())
	fmt.Println("reason:", token.Reason())

	select {
	case <-token.Done():
		fmt.Println("done closed")
	case <-time.After(time.Second):
	}

	// Output:
	// cancelled: false
	// cancelled: true
	// reason: deadline reached
	// done closed
}
