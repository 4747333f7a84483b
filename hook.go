package qasid

import "context"

// Hook receives notifications as a turn moves through the routing pipeline.
// Implementations must be fast; they are invoked inline.
type Hook interface {
	OnBlocked(ctx context.Context, sessionID, reason string)
	OnEscalated(ctx context.Context, sessionID, reason string)
	OnFAQAnswered(ctx context.Context, sessionID, answer string)
	OnToolCall(ctx context.Context, agentName, toolName, arguments string)
	OnToolResult(ctx context.Context, agentName, toolName, result string)
	OnHandOff(ctx context.Context, from, to string)
	OnDelegateError(ctx context.Context, agentName string, err error)
}

// NoopHook ignores all notifications.
type NoopHook struct{}

var _ Hook = NoopHook{}

func (NoopHook) OnBlocked(context.Context, string, string)            {}
func (NoopHook) OnEscalated(context.Context, string, string)          {}
func (NoopHook) OnFAQAnswered(context.Context, string, string)        {}
func (NoopHook) OnToolCall(context.Context, string, string, string)   {}
func (NoopHook) OnToolResult(context.Context, string, string, string) {}
func (NoopHook) OnHandOff(context.Context, string, string)            {}
func (NoopHook) OnDelegateError(context.Context, string, error)       {}
