package agent

import (
	"context"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
)

// Converse 启动 Runtime，发布初始提示并等待对话收敛
//
// 这是一个便捷函数，封装了启动、发布、等待空闲的流程。
// ctx 结束时立即停止 Runtime 并返回 ctx.Err()。
func Converse(ctx context.Context, rt *actor.Runtime, prompt string, topic actor.TopicID) error {
	if err := rt.Start(); err != nil {
		return err
	}
	if err := rt.Publish(NewMessage(prompt), topic); err != nil {
		return err
	}

	if err := rt.StopWhenIdle(ctx); err != nil {
		rt.Stop()
		return err
	}
	return nil
}
