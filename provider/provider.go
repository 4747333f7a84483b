// Package provider abstracts the external model capability: given
// instructions, a conversation thread, and an enabled tool set, it produces an
// ordered stream of events (text, tool invocations, hand-offs, errors).
package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"

	"github.com/qasid-ai/qasid/messages"
	"github.com/qasid-ai/qasid/tool"
)

// Provider is implemented by model backends (e.g. OpenAI).
type Provider interface {
	ChatCompletion(context.Context, CompletionParams) (<-chan StreamEvent, error)
}

// CompletionParams carries everything a provider needs for one delegated call.
type CompletionParams struct {
	// RunID uniquely identifies this completion request.
	RunID uuid.UUID

	// Instructions is the rendered system prompt for the active agent.
	Instructions string

	// Thread holds the conversation history for this run.
	Thread *messages.Thread

	// Stream selects incremental chunks over a single terminal response.
	Stream bool

	// ResponseSchema, when set, asks the model to answer with JSON matching
	// the schema. Used by model-backed guardrails.
	ResponseSchema *StructuredOutput

	// Model names the model to use; it must also resolve its provider.
	Model interface {
		Name() string
		Provider() Provider
	}

	// Tools lists the capabilities visible to the model for this call. The
	// desk filters by enablement predicate before populating this.
	Tools []tool.Definition

	// ToolChoice is the provider-specific tool-choice policy ("auto",
	// "required", "none"). Empty means the provider default.
	ToolChoice string

	// ParallelToolCalls reports whether the model may batch compatible tool
	// calls together.
	ParallelToolCalls bool

	// MaxRetries bounds transport-level retries. Zero means the provider
	// default.
	MaxRetries int

	_ struct{}
}

// StructuredOutput defines a schema for formatted model responses.
type StructuredOutput struct {
	// Name identifies this output format.
	Name string

	// Description explains the purpose of the format.
	Description string

	// Schema is the JSON structure responses should follow.
	Schema *jsonschema.Schema
}
