package lwagent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251216-go-pkg-codeloop/pkg/llm"
)

func TestMockComplete(t *testing.T) {
	c := NewMock("```python\nprint(1+1)\n```")
	defer func() { _ = c.Close() }()

	out, err := c.Complete(context.Background(), []llm.Entry{
		llm.System("write code"),
		llm.User("add numbers"),
	})
	require.NoError(t, err)
	assert.Equal(t, "```python\nprint(1+1)\n```", out)

	// 同一 Client 继续对话
	out, err = c.Complete(context.Background(), []llm.Entry{
		llm.System("write code"),
		llm.User("add numbers"),
		llm.Assistant(out),
		llm.User("Executed code: ..."),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestCompleteWithoutUserEntry(t *testing.T) {
	c := NewMock("OK")

	_, err := c.Complete(context.Background(), []llm.Entry{llm.System("only system")})
	var cerr *llm.CompletionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "lwagent", cerr.Provider)
}

func TestCloseWithoutAgent(t *testing.T) {
	assert.NoError(t, NewMock("OK").Close())
}
