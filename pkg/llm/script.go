package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted 预设回复已用完
var ErrScriptExhausted = errors.New("script exhausted")

// Script 按顺序返回预设回复的 Completer
//
// 回复用完后返回包装了 ErrScriptExhausted 的 *CompletionError。
// 记录每次调用收到的历史，便于断言。
type Script struct {
	mu        sync.Mutex
	responses []string
	calls     [][]Entry
}

// NewScript 创建预设回复序列
func NewScript(responses ...string) *Script {
	return &Script{responses: responses}
}

// Complete 实现 Completer 接口
func (s *Script) Complete(ctx context.Context, entries []Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]Entry, len(entries))
	copy(snapshot, entries)
	s.calls = append(s.calls, snapshot)

	if len(s.responses) == 0 {
		return "", &CompletionError{Provider: "script", Cause: ErrScriptExhausted}
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

// Calls 返回每次调用收到的历史（副本）
func (s *Script) Calls() [][]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]Entry, len(s.calls))
	copy(out, s.calls)
	return out
}
