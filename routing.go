package qasid

// Decision is the routing outcome for a single turn.
type Decision int

const (
	// DecisionUnknown is the zero value; no routing happened.
	DecisionUnknown Decision = iota
	// DecisionBlock rejects the turn on a guardrail violation.
	DecisionBlock
	// DecisionEscalate routes the turn to the human role.
	DecisionEscalate
	// DecisionAnswer answers directly from the FAQ book.
	DecisionAnswer
	// DecisionTool answers through a deterministic tool path (order lookup).
	DecisionTool
	// DecisionDelegate answers through the bot agent.
	DecisionDelegate
)

func (d Decision) String() string {
	switch d {
	case DecisionBlock:
		return "block"
	case DecisionEscalate:
		return "escalate-to-human"
	case DecisionAnswer:
		return "answer-directly"
	case DecisionTool:
		return "invoke-tool"
	case DecisionDelegate:
		return "invoke-agent"
	default:
		return "unknown"
	}
}

// Turn is the result of handling one inbound message. It is derived per turn
// and never persisted.
type Turn struct {
	// Decision is how the message was routed.
	Decision Decision
	// Reply is the user-visible response, always plain language.
	Reply string
	// Agent names the agent that produced the reply, when one was involved.
	Agent string
	// Reason carries the guardrail or escalation reason, when any.
	Reason string
}
