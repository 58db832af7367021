package agent

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
)

// Assistant 生成器 Actor
//
// 收到消息后把内容作为 user 条目追加到历史，用完整历史调用补全服务，
// 再把回复作为 assistant 条目追加并发布为新消息。
// 补全失败时不发布，该分支自然终止。
type Assistant struct {
	completer llm.Completer
	history   *History
	topic     actor.TopicID
	logger    *slog.Logger

	// 补全调用统计
	stats *actor.StatsCollector

	mu        sync.RWMutex
	lastError error
}

// Stats 是 Assistant 统计信息的类型别名
type Stats = actor.ActorStats

// NewAssistant 创建生成器
func NewAssistant(completer llm.Completer, opts ...Option) *Assistant {
	o := applyOptions(opts)
	return &Assistant{
		completer: completer,
		history:   NewHistory(o.systemPrompt),
		topic:     o.topic,
		logger:    o.logger,
		stats:     actor.NewStatsCollector(),
	}
}

// Routes 实现 actor.Actor 接口
func (a *Assistant) Routes() actor.Routes {
	return actor.Routes{
		KindMessage: actor.Handle(a.handleMessage),
	}
}

// handleMessage 处理对话消息
func (a *Assistant) handleMessage(ctx *actor.Context, msg Message) error {
	a.history.Append(llm.RoleUser, msg.Content)

	if err := ctx.Token.Err(); err != nil {
		return err
	}

	a.stats.RecordReceived()
	startTime := time.Now()
	reply, err := a.completer.Complete(ctx.Context(), a.history.Entries())
	a.stats.RecordHandled(time.Since(startTime))

	if err != nil {
		if ctx.Token.IsCancelled() {
			a.stats.RecordCancelled()
			return ctx.Token.Err()
		}
		var cerr *llm.CompletionError
		if !errors.As(err, &cerr) {
			err = &llm.CompletionError{Provider: "unknown", Cause: err}
		}
		a.recordError(err)
		return err
	}
	// 等待期间被取消：丢弃回复，不写历史也不发布
	if err := ctx.Token.Err(); err != nil {
		a.stats.RecordCancelled()
		return err
	}

	a.history.Append(llm.RoleAssistant, reply)
	a.logger.Debug("assistant replied",
		"message_id", msg.ID,
		"history", a.history.Len(),
		"duration", time.Since(startTime))

	return ctx.Publish(NewMessage(reply), a.topic)
}

// recordError 记录错误
func (a *Assistant) recordError(err error) {
	a.stats.RecordError(err)
	a.mu.Lock()
	a.lastError = err
	a.mu.Unlock()
}

// History 返回对话历史副本
func (a *Assistant) History() []llm.Entry {
	return a.history.Entries()
}

// LastError 返回最近一次补全失败
func (a *Assistant) LastError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastError
}

// Stats 获取补全调用统计
func (a *Assistant) Stats() *Stats {
	return a.stats.Stats()
}
