package actor

import (
	"context"
	"fmt"
)

// DuplicateNameError 注册了重复的 Actor 名称
type DuplicateNameError struct {
	Name string
}

// Error 实现 error 接口
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("actor %q already registered", e.Name)
}

// AlreadyStoppedError Runtime 停止后调用了 Start/Register
type AlreadyStoppedError struct {
	Op string
}

// Error 实现 error 接口
func (e *AlreadyStoppedError) Error() string {
	return fmt.Sprintf("%s: runtime already stopped", e.Op)
}

// NotRunningError 在非 Running 状态下发布消息
type NotRunningError struct {
	State State
}

// Error 实现 error 接口
func (e *NotRunningError) Error() string {
	return fmt.Sprintf("publish: runtime is %s, not running", e.State)
}

// CancelledError 协作式取消，属于正常终止
type CancelledError struct {
	Reason string
}

// Error 实现 error 接口
func (e *CancelledError) Error() string {
	if e.Reason == "" {
		return "cancelled"
	}
	return "cancelled: " + e.Reason
}

// Unwrap 使 errors.Is(err, context.Canceled) 成立
func (e *CancelledError) Unwrap() error {
	return context.Canceled
}

// PanicError 处理函数 panic 后恢复得到的错误
type PanicError struct {
	Value any
	Stack string
}

// Error 实现 error 接口
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// HandlerError 处理函数失败报告，通过 Runtime.Errors 发给调用者
type HandlerError struct {
	// Actor 失败的 Actor 名称
	Actor string
	// Kind 消息类型
	Kind string
	// Topic 消息主题
	Topic TopicID
	// MessageID 投递序号
	MessageID uint64
	// Err 原始错误
	Err error
}

// Error 实现 error 接口
func (e *HandlerError) Error() string {
	return fmt.Sprintf("actor %s handling %s: %v", e.Actor, e.Kind, e.Err)
}

// Unwrap 返回原始错误
func (e *HandlerError) Unwrap() error {
	return e.Err
}
