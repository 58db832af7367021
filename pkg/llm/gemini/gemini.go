// Package gemini 提供基于 Google Gemini 的 Completer
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
)

const providerName = "gemini"

// Config Gemini 客户端配置
type Config struct {
	// APIKey Gemini API 密钥
	APIKey string
	// Model 模型名称，默认 gemini-2.5-flash
	Model string
	// BaseURL 可选的 API 根地址
	BaseURL string
	// Logger 日志器
	Logger *slog.Logger
}

// Client Gemini 补全客户端
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// New 创建 Gemini 客户端
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{
		client: client,
		model:  cfg.Model,
		logger: logger.With("provider", providerName, "model", cfg.Model),
	}, nil
}

// Complete 实现 llm.Completer 接口
func (c *Client) Complete(ctx context.Context, entries []llm.Entry) (string, error) {
	system, contents := toContents(entries)

	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", llm.Wrap(providerName, err)
	}

	text := resp.Text()
	if text == "" {
		return "", llm.Wrap(providerName, errors.New("empty response"))
	}

	c.logger.Debug("completion finished", "messages", len(entries), "response_len", len(text))
	return text, nil
}

// toContents 转换对话历史
// 系统条目合并为 SystemInstruction，assistant 映射为 model 角色
func toContents(entries []llm.Entry) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(entries))
	for _, e := range entries {
		switch e.Role {
		case llm.RoleSystem:
			system = append(system, e.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(e.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(e.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
