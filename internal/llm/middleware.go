package llm

import (
	"context"
	"log"

	"uismith/internal/token"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (logging, hooks, etc.).
type Middleware func(Client) Client

// Wrap layers middlewares around inner so the first argument ends up
// outermost: Wrap(inner, A, B) behaves like A(B(inner)).
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// WithLogging records every message's content length and measured token
// count before the call is issued, plus errors after. This is the gateway's
// auditability contract: every call must be observable. Provide a custom
// logger or nil to use log.Default().
func WithLogging(logger *log.Logger, counter token.Counter) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	if counter == nil {
		counter = token.Heuristic{}
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger, counter: counter}
	}
}

type logging struct {
	next    Client
	log     *log.Logger
	counter token.Counter
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Complete(ctx context.Context, req Request) (Completion, error) {
	stage := StageFrom(ctx)
	total := 0
	for i, m := range req.Messages {
		n := l.counter.Count(m.Content)
		total += n
		l.log.Printf("LLM prompt (%s) message %d [%s]: %d tokens\n%s", stage, i, m.Role, n, m.Content)
	}
	l.log.Printf("LLM request (%s) model=%s: %d messages, %d prompt tokens", stage, req.Model, len(req.Messages), total)
	out, err := l.next.Complete(ctx, req)
	if err != nil {
		l.log.Printf("LLM error (%s): %v", stage, err)
	}
	return out, err
}

// WithHooks calls HookFrom(ctx).Before/After around Complete.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next Client) Client {
		return &hooked{next: next}
	}
}

type hooked struct{ next Client }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) Complete(ctx context.Context, req Request) (Completion, error) {
	if hook := HookFrom(ctx); hook != nil {
		hook.Before(ctx, StageFrom(ctx), req)
	}
	out, err := h.next.Complete(ctx, req)
	if hook := HookFrom(ctx); hook != nil {
		hook.After(ctx, StageFrom(ctx), out, err)
	}
	return out, err
}
