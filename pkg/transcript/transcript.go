// Package transcript 提供记录对话消息的 Actor
//
// Recorder 订阅对话主题，按投递顺序保存每条消息，并可把消息回显到任意 io.Writer。
package transcript

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/agent"
)

// UserLabel 外部发布者（无注册名）的显示名称
const UserLabel = "user"

// separator 消息之间的分隔线
var separator = strings.Repeat("-", 80)

// Entry 单条对话记录
type Entry struct {
	Seq       int       `json:"seq"`
	Sender    string    `json:"sender"`
	MessageID string    `json:"message_id"`
	Content   string    `json:"content"`
	At        time.Time `json:"at"`
}

// Recorder 对话记录 Actor
type Recorder struct {
	mu      sync.RWMutex
	entries []Entry
	out     io.Writer
}

// Option Recorder 配置选项
type Option func(*Recorder)

// WithWriter 设置回显输出
func WithWriter(w io.Writer) Option {
	return func(r *Recorder) {
		r.out = w
	}
}

// New 创建 Recorder
func New(opts ...Option) *Recorder {
	r := &Recorder{entries: make([]Entry, 0)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Routes 实现 actor.Actor 接口
func (r *Recorder) Routes() actor.Routes {
	return actor.Routes{
		agent.KindMessage: actor.Handle(r.handleMessage),
	}
}

func (r *Recorder) handleMessage(ctx *actor.Context, msg agent.Message) error {
	sender := ctx.Sender
	if sender == "" {
		sender = UserLabel
	}

	r.mu.Lock()
	r.entries = append(r.entries, Entry{
		Seq:       len(r.entries) + 1,
		Sender:    sender,
		MessageID: msg.ID,
		Content:   msg.Content,
		At:        time.Now(),
	})
	r.mu.Unlock()

	if r.out != nil {
		if _, err := fmt.Fprintf(r.out, "\n%s\n%s:\n%s\n", separator, sender, msg.Content); err != nil {
			ctx.Logger().Warn("transcript write failed", "error", err)
		}
	}
	return nil
}

// Entries 返回最近 limit 条记录，limit <= 0 返回全部
func (r *Recorder) Entries(limit int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	start := max(len(r.entries)-limit, 0)

	result := make([]Entry, limit)
	copy(result, r.entries[start:])
	return result
}

// Len 记录条数
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Senders 按出现次数统计各发布者
func (r *Recorder) Senders() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range r.entries {
		counts[e.Sender]++
	}
	return counts
}
