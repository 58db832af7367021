package llm

import (
	"context"
	"fmt"
)

// Role 对话条目角色
type Role string

const (
	// RoleSystem 系统指令
	RoleSystem Role = "system"
	// RoleUser 用户输入
	RoleUser Role = "user"
	// RoleAssistant 模型回复
	RoleAssistant Role = "assistant"
)

// Entry 对话历史中的一条记录
type Entry struct {
	Role    Role
	Content string
}

// System 创建系统条目
func System(content string) Entry { return Entry{Role: RoleSystem, Content: content} }

// User 创建用户条目
func User(content string) Entry { return Entry{Role: RoleUser, Content: content} }

// Assistant 创建助手条目
func Assistant(content string) Entry { return Entry{Role: RoleAssistant, Content: content} }

// Completer 文本补全能力
//
// 根据完整的对话历史生成下一条回复。实现应在 ctx 取消时尽快返回，
// 失败时返回 *CompletionError。
type Completer interface {
	Complete(ctx context.Context, entries []Entry) (string, error)
}

// CompleterFunc 函数式 Completer
type CompleterFunc func(ctx context.Context, entries []Entry) (string, error)

// Complete 实现 Completer 接口
func (f CompleterFunc) Complete(ctx context.Context, entries []Entry) (string, error) {
	return f(ctx, entries)
}

// CompletionError 补全服务调用失败
type CompletionError struct {
	// Provider 后端名称
	Provider string
	// Cause 原始错误
	Cause error
}

// Error 实现 error 接口
func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed (%s): %v", e.Provider, e.Cause)
}

// Unwrap 返回原始错误
func (e *CompletionError) Unwrap() error {
	return e.Cause
}

// Wrap 将错误包装为 *CompletionError，nil 保持为 nil
func Wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &CompletionError{Provider: provider, Cause: err}
}

// LastUser 返回最后一条用户条目的内容
func LastUser(entries []Entry) (string, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == RoleUser {
			return entries[i].Content, true
		}
	}
	return "", false
}

// SystemPrompt 返回首条系统条目的内容
func SystemPrompt(entries []Entry) string {
	if len(entries) > 0 && entries[0].Role == RoleSystem {
		return entries[0].Content
	}
	return ""
}
