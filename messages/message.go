// Package messages defines the conversation message types exchanged between
// the desk, its agents, and the model provider.
package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// Message is the closed set of conversation entries a thread can hold.
type Message interface {
	message()
}

// Request marks messages that flow towards the model.
type Request interface {
	Message
	request()
}

// Response marks messages produced by the model.
type Response interface {
	Message
	response()
}

// UserPrompt is an inbound message from the customer.
type UserPrompt struct {
	Content   string          `json:"content"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

func (UserPrompt) message() {}
func (UserPrompt) request() {}

// NewUserPrompt returns a timestamped user prompt.
func NewUserPrompt(sender, content string) UserPrompt {
	return UserPrompt{
		Content:   content,
		Sender:    sender,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

// AssistantMessage is a terminal text reply from an agent.
type AssistantMessage struct {
	Content   string          `json:"content"`
	Refusal   string          `json:"refusal,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

func (AssistantMessage) message()  {}
func (AssistantMessage) response() {}

// ToolCallData describes a single requested tool invocation.
type ToolCallData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCallMessage is a model turn that requests one or more tool invocations.
type ToolCallMessage struct {
	ToolCalls []ToolCallData  `json:"tool_calls"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

func (ToolCallMessage) message()  {}
func (ToolCallMessage) response() {}

// ToolResponse carries a tool invocation result back into the thread.
type ToolResponse struct {
	ToolName   string          `json:"tool_name"`
	ToolCallID string          `json:"tool_call_id"`
	Content    string          `json:"content"`
	Timestamp  strfmt.DateTime `json:"timestamp"`
}

func (ToolResponse) message() {}
func (ToolResponse) request() {}

// NewToolResponse returns a timestamped tool response.
func NewToolResponse(callID, toolName, content string) ToolResponse {
	return ToolResponse{
		ToolName:   toolName,
		ToolCallID: callID,
		Content:    content,
		Timestamp:  strfmt.DateTime(time.Now()),
	}
}
