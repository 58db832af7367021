// Package lwagent 把 lwmacct agent 适配为 Completer
//
// agent 在内部维护自己的对话历史，因此一个 Client 只服务一段对话：
// 每次 Complete 只把最新的用户条目通过 Chat 发送给 agent。
package lwagent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	baseagent "github.com/lwmacct/251215-go-pkg-agent/pkg/agent"
	lwllm "github.com/lwmacct/251215-go-pkg-llm/pkg/llm"
	"github.com/lwmacct/251215-go-pkg-llm/pkg/llm/provider/localmock"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
)

const providerName = "lwagent"

// Config agent 配置
type Config struct {
	// Name agent 名称
	Name string
	// SystemPrompt 系统提示词，为空时使用历史中的首条系统条目
	SystemPrompt string
}

// Client 基于 lwmacct agent 的 Completer
type Client struct {
	provider lwllm.Provider
	config   Config

	mu    sync.Mutex
	agent baseagent.AgentInterface
}

// New 使用任意 lwmacct llm.Provider 创建 Client
func New(provider lwllm.Provider, cfg Config) *Client {
	if cfg.Name == "" {
		cfg.Name = "assistant"
	}
	return &Client{provider: provider, config: cfg}
}

// NewMock 创建总是返回固定回复的离线 Client
func NewMock(response string) *Client {
	return New(localmock.New(localmock.WithResponse(response)), Config{Name: "mock"})
}

// Complete 实现 llm.Completer 接口
func (c *Client) Complete(ctx context.Context, entries []llm.Entry) (string, error) {
	text, ok := llm.LastUser(entries)
	if !ok {
		return "", llm.Wrap(providerName, errors.New("history has no user entry"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.agent == nil {
		system := c.config.SystemPrompt
		if system == "" {
			system = llm.SystemPrompt(entries)
		}
		ag, err := baseagent.New().
			Provider(c.provider).
			Name(c.config.Name).
			System(system).
			Build()
		if err != nil {
			return "", llm.Wrap(providerName, fmt.Errorf("build agent: %w", err))
		}
		c.agent = ag
	}

	result, err := c.agent.Chat(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", llm.Wrap(providerName, err)
	}
	return result.Text, nil
}

// Close 释放 agent 资源
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.agent == nil {
		return nil
	}
	err := c.agent.Close()
	c.agent = nil
	return err
}
