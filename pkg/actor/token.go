package actor

import (
	"context"
	"errors"
)

// CancellationToken 协作式取消令牌
//
// 每次投递（消息, 订阅者）创建一个，不跨消息复用。
// 取消是建议性的：处理函数在阻塞调用前后自行检查。
type CancellationToken struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// NewCancellationToken 创建取消令牌
// parent 被取消时令牌随之取消
func NewCancellationToken(parent context.Context) *CancellationToken {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	return &CancellationToken{ctx: ctx, cancel: cancel}
}

// Cancel 请求放弃当前工作，重复调用无效果
func (t *CancellationToken) Cancel(reason string) {
	t.cancel(&CancelledError{Reason: reason})
}

// IsCancelled 是否已取消（false→true 单调）
func (t *CancellationToken) IsCancelled() bool {
	return t.ctx.Err() != nil
}

// Reason 返回取消原因，未取消时为空
func (t *CancellationToken) Reason() string {
	if !t.IsCancelled() {
		return ""
	}
	cause := context.Cause(t.ctx)
	var ce *CancelledError
	if errors.As(cause, &ce) {
		return ce.Reason
	}
	if cause != nil {
		return cause.Error()
	}
	return ""
}

// Err 已取消时返回 *CancelledError，否则返回 nil
func (t *CancellationToken) Err() error {
	if !t.IsCancelled() {
		return nil
	}
	return &CancelledError{Reason: t.Reason()}
}

// Done 取消时关闭的通道
func (t *CancellationToken) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Context 返回令牌对应的 context，传给能力调用（补全、执行）
func (t *CancellationToken) Context() context.Context {
	return t.ctx
}

// release 投递结束后释放 context 资源
func (t *CancellationToken) release() {
	t.cancel(errDispatchDone)
}

var errDispatchDone = errors.New("dispatch complete")
