package agent

import (
	"sync"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
)

// History 只追加的对话历史
//
// 首条记录总是构造时写入的系统指令。只由所属的 Assistant 写入，
// 读取方通过 Entries 获得副本。
type History struct {
	mu      sync.RWMutex
	entries []llm.Entry
}

// NewHistory 创建以系统指令开头的历史
func NewHistory(systemPrompt string) *History {
	return &History{entries: []llm.Entry{llm.System(systemPrompt)}}
}

// Append 追加一条记录
func (h *History) Append(role llm.Role, content string) {
	h.mu.Lock()
	h.entries = append(h.entries, llm.Entry{Role: role, Content: content})
	h.mu.Unlock()
}

// Entries 返回全部记录的副本
func (h *History) Entries() []llm.Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]llm.Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len 记录数
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Last 返回最后一条记录
func (h *History) Last() llm.Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entries[len(h.entries)-1]
}
