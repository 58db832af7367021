package actor

// Directive 处理函数失败后的监督指令
type Directive int

const (
	// DirectiveResume 继续向该 Actor 投递后续消息
	DirectiveResume Directive = iota
	// DirectiveStopActor 丢弃该 Actor 的排队消息并不再投递
	DirectiveStopActor
	// DirectiveStop 停止整个 Runtime
	DirectiveStop
)

// String 返回指令名称
func (d Directive) String() string {
	switch d {
	case DirectiveResume:
		return "Resume"
	case DirectiveStopActor:
		return "StopActor"
	case DirectiveStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// Decider 决策函数类型
// 只会收到非取消类的失败（*HandlerError）
type Decider func(err *HandlerError) Directive

// ResumingDecider 恢复决策器
// 记录错误后继续运行，失败的分支自然终止
func ResumingDecider(_ *HandlerError) Directive {
	return DirectiveResume
}

// StoppingDecider 停止决策器
// 任何失败都停止整个 Runtime
func StoppingDecider(_ *HandlerError) Directive {
	return DirectiveStop
}

// IsolatingDecider 隔离决策器
// 只停止失败的 Actor，其余 Actor 继续运行
func IsolatingDecider(_ *HandlerError) Directive {
	return DirectiveStopActor
}

// PanicDecider 只对 panic 停止 Actor，其它错误继续
func PanicDecider(err *HandlerError) Directive {
	if _, ok := err.Err.(*PanicError); ok {
		return DirectiveStopActor
	}
	return DirectiveResume
}
