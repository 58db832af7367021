package agent

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// KindMessage 对话消息类型标识
const KindMessage = "agent.message"

// reportSeparator 执行报告中代码与结果之间的分隔线
var reportSeparator = strings.Repeat("-", 20)

// Message 在生成器与执行器之间流转的对话消息
//
// 值类型，构造后不可修改。
type Message struct {
	// ID 消息唯一标识
	ID string
	// Content 消息文本
	Content string
}

// NewMessage 创建带新 ID 的消息
func NewMessage(content string) Message {
	return Message{ID: uuid.NewString(), Content: content}
}

// Kind 实现 actor.Message 接口
func (m Message) Kind() string { return KindMessage }

// Report 生成执行报告，包含原始内容与执行输出
//
// 格式:
//
//	Executed code:
//	<content>
//	--------------------
//	Received result:
//	<output>
func Report(content, output string) string {
	return fmt.Sprintf("Executed code:\n%s\n%s\nReceived result:\n%s", content, reportSeparator, output)
}
