package llm

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uismith/internal/token"
)

type recordingHook struct {
	before []Request
	after  []Completion
}

func (h *recordingHook) Before(_ context.Context, _ string, req Request) {
	h.before = append(h.before, req)
}
func (h *recordingHook) After(_ context.Context, _ string, out Completion, _ error) {
	h.after = append(h.after, out)
}

func TestWithLoggingRecordsEveryMessageBeforeCall(t *testing.T) {
	var buf bytes.Buffer
	fake := NewFake(Completion{Content: "ok"})
	client := Wrap(fake, WithLogging(log.New(&buf, "", 0), token.Heuristic{}))

	ctx := WithStage(context.Background(), "design")
	out, err := client.Complete(ctx, Request{
		Model: "gpt-3.5-turbo",
		Messages: []Message{
			{Role: RoleSystem, Content: "you design components"},
			{Role: RoleUser, Content: "a pricing card"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Content)

	logged := buf.String()
	assert.Contains(t, logged, "message 0 [system]: 3 tokens")
	assert.Contains(t, logged, "message 1 [user]: 3 tokens")
	assert.Contains(t, logged, "you design components")
	assert.Contains(t, logged, "LLM request (design) model=gpt-3.5-turbo: 2 messages, 6 prompt tokens")
}

func TestWithHooksObservesCalls(t *testing.T) {
	hook := &recordingHook{}
	fake := NewFake(Completion{FunctionCall: map[string]any{"x": 1.0}})
	client := Wrap(fake, WithHooks())

	ctx := WithHookContext(WithStage(context.Background(), "design"), hook)
	_, err := client.Complete(ctx, Request{Model: "m", Messages: []Message{{Role: RoleUser, Content: "p"}}})
	require.NoError(t, err)
	require.Len(t, hook.before, 1)
	require.Len(t, hook.after, 1)
	assert.Equal(t, "m", hook.before[0].Model)
	assert.NotNil(t, hook.after[0].FunctionCall)
}

func TestWrapOrder(t *testing.T) {
	fake := NewFake(Completion{Content: "x"})
	var order []string
	mw := func(tag string) Middleware {
		return func(next Client) Client {
			return clientFunc(func(ctx context.Context, req Request) (Completion, error) {
				order = append(order, tag)
				return next.Complete(ctx, req)
			})
		}
	}
	c := Wrap(fake, mw("outer"), mw("inner"))
	_, _ = c.Complete(context.Background(), Request{})
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type clientFunc func(ctx context.Context, req Request) (Completion, error)

func (f clientFunc) Name() string { return "func" }
func (f clientFunc) Close() error { return nil }
func (f clientFunc) Complete(ctx context.Context, req Request) (Completion, error) {
	return f(ctx, req)
}
