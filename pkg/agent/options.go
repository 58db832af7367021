package agent

import (
	"log/slog"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/codeblock"
)

// DefaultSystemPrompt 生成器默认系统指令
const DefaultSystemPrompt = `Write Python script in markdown block, and it will be executed.
Always save figures to file in the current directory. Do not use plt.show(). Do not ask to execute or open any python files.`

// Option 配置 Assistant 或 Executor
type Option func(*options)

type options struct {
	systemPrompt string
	topic        actor.TopicID
	extract      codeblock.Extractor
	logger       *slog.Logger
}

func defaultOptions() *options {
	return &options{
		systemPrompt: DefaultSystemPrompt,
		topic:        actor.DefaultTopic,
		extract:      codeblock.Extract,
		logger:       slog.Default(),
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithSystemPrompt 设置生成器的系统指令
func WithSystemPrompt(prompt string) Option {
	return func(o *options) {
		if prompt != "" {
			o.systemPrompt = prompt
		}
	}
}

// WithTopic 设置发布回复的主题
func WithTopic(topic actor.TopicID) Option {
	return func(o *options) {
		o.topic = topic
	}
}

// WithExtractor 设置执行器的代码块提取函数
func WithExtractor(extract codeblock.Extractor) Option {
	return func(o *options) {
		if extract != nil {
			o.extract = extract
		}
	}
}

// WithLogger 设置日志器
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
