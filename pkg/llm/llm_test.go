package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := Wrap("openai", cause)

	var cerr *CompletionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "openai", cerr.Provider)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "completion failed (openai): quota exceeded", err.Error())

	assert.NoError(t, Wrap("openai", nil))
}

func TestHistoryHelpers(t *testing.T) {
	entries := []Entry{
		System("be helpful"),
		User("first"),
		Assistant("reply"),
		User("second"),
		Assistant("reply 2"),
	}

	last, ok := LastUser(entries)
	assert.True(t, ok)
	assert.Equal(t, "second", last)
	assert.Equal(t, "be helpful", SystemPrompt(entries))

	_, ok = LastUser(entries[:1])
	assert.False(t, ok)
	assert.Empty(t, SystemPrompt(entries[1:]))
}

func TestScript(t *testing.T) {
	s := NewScript("one", "two")
	ctx := context.Background()

	got, err := s.Complete(ctx, []Entry{User("a")})
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, err = s.Complete(ctx, []Entry{User("a"), Assistant("one"), User("b")})
	require.NoError(t, err)
	assert.Equal(t, "two", got)

	_, err = s.Complete(ctx, nil)
	assert.ErrorIs(t, err, ErrScriptExhausted)

	calls := s.Calls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[1], 3)
}

func TestScriptCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScript("x").Complete(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompleterFunc(t *testing.T) {
	var c Completer = CompleterFunc(func(_ context.Context, entries []Entry) (string, error) {
		return entries[len(entries)-1].Content + "!", nil
	})

	got, err := c.Complete(context.Background(), []Entry{User("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hi!", got)
}
