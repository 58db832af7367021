package agent_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/actor"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/agent"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm/lwagent"
	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/sandbox"
)

// Example_feedbackLoop 演示完整的生成与执行循环
//
// 脚本化的补全服务先回复一段代码，看到执行结果后给出不含代码的总结。
func Example_feedbackLoop() {
	rt := actor.NewRuntime("example")

	script := llm.NewScript(
		"```python\ntotal = 0\nfor x in [1, 2, 3]:\n    total += x\nprint(total)\n```",
		"The sum is 6.",
	)
	loop, err := agent.RegisterLoop(rt, actor.DefaultTopic, script,
		sandbox.NewStarlarkRunner(sandbox.StarlarkConfig{}))
	if err != nil {
		fmt.Println("register:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := agent.Converse(ctx, rt, "sum 1, 2 and 3", actor.DefaultTopic); err != nil {
		fmt.Println("converse:", err)
		return
	}

	history := loop.Assistant.History()
	fmt.Println("history entries:", len(history))
	fmt.Println("executions:", loop.Executor.Runs())
	fmt.Println(strings.TrimSpace(history[3].Content[strings.Index(history[3].Content, "Received result:"):]))
	fmt.Println("final:", history[len(history)-1].Content)

	// Output:
	// history entries: 5
	// executions: 1
	// Received result:
	// 6
	// final: The sum is 6.
}

// Example_report 演示执行报告格式
func Example_report() {
	fmt.Print(agent.Report("```python\nprint('hi')\n```", "hi\n"))

	// Output:
	// Executed code:
	// ```python
	// print('hi')
	// ```
	// --------------------
	// Received result:
	// hi
}

// Example_lwagentCompleter 演示使用 Mock Provider 驱动生成器
//
// 回复中没有代码块，执行器不发布任何消息，对话在一轮后收敛。
func Example_lwagentCompleter() {
	completer := lwagent.NewMock("Nothing to run, the task is complete.")
	defer func() { _ = completer.Close() }()

	rt := actor.NewRuntime("example")
	loop, err := agent.RegisterLoop(rt, actor.DefaultTopic, completer,
		sandbox.NewStarlarkRunner(sandbox.StarlarkConfig{}))
	if err != nil {
		fmt.Println("register:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := agent.Converse(ctx, rt, "hello", actor.DefaultTopic); err != nil {
		fmt.Println("converse:", err)
		return
	}

	fmt.Println("reply:", loop.Assistant.History()[2].Content)
	fmt.Println("executions:", loop.Executor.Runs())

	// Output:
	// reply: Nothing to run, the task is complete.
	// executions: 0
}
