// Package openai 提供 OpenAI 兼容 /chat/completions 接口的 Completer
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
)

const providerName = "openai"

// Config OpenAI 客户端配置
type Config struct {
	// BaseURL API 根地址，默认 https://api.openai.com/v1
	BaseURL string
	// APIKey Bearer 令牌
	APIKey string
	// Model 模型名称，默认 gpt-4o-mini
	Model string
	// Timeout 单次请求超时，默认 5 分钟
	Timeout time.Duration
	// Logger 日志器
	Logger *slog.Logger
}

// DefaultConfig 返回默认配置
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL: "https://api.openai.com/v1",
		APIKey:  apiKey,
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Minute,
	}
}

// Client OpenAI 兼容补全客户端
type Client struct {
	http   *resty.Client
	model  string
	logger *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// New 创建客户端，未设置的字段使用默认值
func New(cfg Config) (*Client, error) {
	def := DefaultConfig(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   client,
		model:  cfg.Model,
		logger: logger.With("provider", providerName, "model", cfg.Model),
	}, nil
}

// Complete 实现 llm.Completer 接口
func (c *Client) Complete(ctx context.Context, entries []llm.Entry) (string, error) {
	req := chatRequest{Model: c.model, Messages: make([]chatMessage, 0, len(entries))}
	for _, e := range entries {
		req.Messages = append(req.Messages, chatMessage{Role: string(e.Role), Content: e.Content})
	}

	start := time.Now()
	var out chatResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", llm.Wrap(providerName, fmt.Errorf("request failed: %w", err))
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", llm.Wrap(providerName, fmt.Errorf("status %d: %s", resp.StatusCode(), msg))
	}
	if len(out.Choices) == 0 {
		return "", llm.Wrap(providerName, errors.New("no completion returned"))
	}

	content := out.Choices[0].Message.Content
	c.logger.Debug("completion finished",
		"messages", len(entries),
		"response_len", len(content),
		"duration", time.Since(start))
	return content, nil
}
