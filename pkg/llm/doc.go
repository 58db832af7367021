// Package llm 定义文本补全能力
//
// [Completer] 接收按顺序排列的对话条目（[Entry]），返回下一条回复文本。
// 具体后端位于子包：
//
//   - openai: OpenAI 兼容的 /chat/completions 接口
//   - gemini: Google Gemini
//   - lwagent: 基于 lwmacct agent 构建器，可使用 localmock 离线运行
//
// 后端失败统一包装为 [CompletionError]。[Script] 按顺序返回预设回复，
// 用于测试与演示。
package llm
