package llm

import "context"

// PromptHook observes every gateway call. Before fires with the full request
// prior to issuing it; After fires with the result. Diagnostics only, must
// not mutate the request.
type PromptHook interface {
	Before(ctx context.Context, stage string, req Request)
	After(ctx context.Context, stage string, out Completion, err error)
}

type ctxKeyHook struct{}
type ctxKeyStage struct{}

// WithHookContext attaches a PromptHook to the context used by Complete.
func WithHookContext(ctx context.Context, hook PromptHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// WithStage tags the context with the pipeline stage name for diagnostics.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxKeyStage{}, stage)
}

// HookFrom returns the hook stored in the context, if any.
func HookFrom(ctx context.Context) PromptHook {
	if h, ok := ctx.Value(ctxKeyHook{}).(PromptHook); ok {
		return h
	}
	return nil
}

// StageFrom returns the stage name stored in the context.
func StageFrom(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyStage{}).(string); ok {
		return s
	}
	return "unknown"
}
