// Package api holds the public contracts implemented across the module:
// agents and the models that back them.
package api

import (
	"github.com/qasid-ai/qasid/tool"
	"github.com/qasid-ai/qasid/types"
)

// Agent is a named role (bot, human, specialist) bound to an instruction
// string and a set of enabled capabilities. Implementations are immutable;
// dynamic behavior comes from rendering instructions against session state,
// not from runtime mutation.
type Agent interface {
	// Name returns the agent's unique identifier. It is used for logging and
	// for resolving hand-off targets.
	Name() string

	// Model returns the model configuration backing this agent.
	Model() Model

	// Instructions returns the agent's raw instruction template.
	Instructions() string

	// Tools returns the capabilities this agent may expose to the model.
	// Visibility is still gated per query by each tool's enablement predicate.
	Tools() []tool.Definition

	// ToolChoice returns the tool-choice policy passed to the provider
	// ("auto", "required", "none"; empty means provider default).
	ToolChoice() string

	// ParallelToolCalls reports whether the agent allows the model to batch
	// compatible tool calls together.
	ParallelToolCalls() bool

	// RenderInstructions produces the operational instructions for the
	// current turn from the session's context variables. It is called fresh
	// on every turn.
	RenderInstructions(types.ContextVars) (string, error)
}
