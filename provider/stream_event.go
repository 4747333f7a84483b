package provider

import (
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/qasid-ai/qasid/messages"
)

var (
	delimJSON    = []byte(`{"type":"delim"}`)
	chunkJSON    = []byte(`{"type":"chunk"}`)
	responseJSON = []byte(`{"type":"response"}`)
	toolCallJSON = []byte(`{"type":"tool_call"}`)
	handOffJSON  = []byte(`{"type":"hand_off"}`)
	errorJSON    = []byte(`{"type":"error"}`)
)

// StreamEvent is the closed set of events a delegated call can yield. The
// consumer processes them in order; the last decisive event determines the
// turn's confidence.
type StreamEvent interface {
	streamEvent()
}

// Delim marks a stream boundary.
type Delim struct {
	RunID  uuid.UUID `json:"run_id"`
	TurnID uuid.UUID `json:"turn_id"`
	Delim  string    `json:"delim"`
}

func (Delim) streamEvent() {}

// Chunk is an incremental fragment of an assistant reply.
type Chunk struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Content   string          `json:"content"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Chunk) streamEvent() {}

// Response is a terminal assistant reply for the call.
type Response struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Content   string          `json:"content"`
	Refusal   string          `json:"refusal,omitempty"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Response) streamEvent() {}

// ToolCall requests execution of one or more tools.
type ToolCall struct {
	RunID     uuid.UUID               `json:"run_id"`
	TurnID    uuid.UUID               `json:"turn_id"`
	ToolCalls []messages.ToolCallData `json:"tool_calls"`
	Sender    string                  `json:"sender,omitempty"`
	Timestamp strfmt.DateTime         `json:"timestamp,omitempty"`
}

func (ToolCall) streamEvent() {}

// HandOff transfers the rest of the conversation to another role.
type HandOff struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (HandOff) streamEvent() {}

// Error reports a failed delegated call. It is both an event and an error.
type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Err       error           `json:"error"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Error) streamEvent() {}

func (e Error) Error() string {
	return fmt.Sprintf("run_id: %s, turn_id: %s, error: %v", e.RunID, e.TurnID, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements custom JSON marshaling for Delim.
func (d Delim) MarshalJSON() ([]byte, error) {
	result := delimJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", d.RunID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "turn_id", d.TurnID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "delim", d.Delim)
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Delim.
func (d *Delim) UnmarshalJSON(data []byte) error {
	base, err := parseEventEnvelope(data, "delim")
	if err != nil {
		return err
	}
	d.RunID = base.runID
	d.TurnID = base.turnID
	d.Delim = gjson.GetBytes(data, "delim").String()
	return nil
}

// MarshalJSON implements custom JSON marshaling for Chunk.
func (c Chunk) MarshalJSON() ([]byte, error) {
	result, err := marshalEnvelope(chunkJSON, c.RunID, c.TurnID, c.Sender, c.Timestamp)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "content", c.Content)
}

// UnmarshalJSON implements custom JSON unmarshaling for Chunk.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	base, err := parseEventEnvelope(data, "chunk")
	if err != nil {
		return err
	}
	c.RunID = base.runID
	c.TurnID = base.turnID
	c.Sender = base.sender
	c.Timestamp = base.timestamp
	c.Content = gjson.GetBytes(data, "content").String()
	return nil
}

// MarshalJSON implements custom JSON marshaling for Response.
func (r Response) MarshalJSON() ([]byte, error) {
	result, err := marshalEnvelope(responseJSON, r.RunID, r.TurnID, r.Sender, r.Timestamp)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "content", r.Content)
	if err != nil {
		return nil, err
	}
	if r.Refusal != "" {
		result, err = sjson.SetBytes(result, "refusal", r.Refusal)
	}
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Response.
func (r *Response) UnmarshalJSON(data []byte) error {
	base, err := parseEventEnvelope(data, "response")
	if err != nil {
		return err
	}
	r.RunID = base.runID
	r.TurnID = base.turnID
	r.Sender = base.sender
	r.Timestamp = base.timestamp
	r.Content = gjson.GetBytes(data, "content").String()
	r.Refusal = gjson.GetBytes(data, "refusal").String()
	return nil
}

// MarshalJSON implements custom JSON marshaling for ToolCall.
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	result, err := marshalEnvelope(toolCallJSON, tc.RunID, tc.TurnID, tc.Sender, tc.Timestamp)
	if err != nil {
		return nil, err
	}
	for i, call := range tc.ToolCalls {
		prefix := fmt.Sprintf("tool_calls.%d.", i)
		result, err = sjson.SetBytes(result, prefix+"id", call.ID)
		if err != nil {
			return nil, err
		}
		result, err = sjson.SetBytes(result, prefix+"name", call.Name)
		if err != nil {
			return nil, err
		}
		result, err = sjson.SetBytes(result, prefix+"arguments", call.Arguments)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for ToolCall.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	base, err := parseEventEnvelope(data, "tool_call")
	if err != nil {
		return err
	}
	tc.RunID = base.runID
	tc.TurnID = base.turnID
	tc.Sender = base.sender
	tc.Timestamp = base.timestamp

	tc.ToolCalls = nil
	for _, call := range gjson.GetBytes(data, "tool_calls").Array() {
		tc.ToolCalls = append(tc.ToolCalls, messages.ToolCallData{
			ID:        call.Get("id").String(),
			Name:      call.Get("name").String(),
			Arguments: call.Get("arguments").String(),
		})
	}
	return nil
}

// MarshalJSON implements custom JSON marshaling for HandOff.
func (h HandOff) MarshalJSON() ([]byte, error) {
	result, err := marshalEnvelope(handOffJSON, h.RunID, h.TurnID, "", h.Timestamp)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "from", h.From)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "to", h.To)
}

// UnmarshalJSON implements custom JSON unmarshaling for HandOff.
func (h *HandOff) UnmarshalJSON(data []byte) error {
	base, err := parseEventEnvelope(data, "hand_off")
	if err != nil {
		return err
	}
	h.RunID = base.runID
	h.TurnID = base.turnID
	h.Timestamp = base.timestamp
	h.From = gjson.GetBytes(data, "from").String()
	h.To = gjson.GetBytes(data, "to").String()
	return nil
}

// MarshalJSON implements custom JSON marshaling for Error.
func (e Error) MarshalJSON() ([]byte, error) {
	result, err := marshalEnvelope(errorJSON, e.RunID, e.TurnID, "", e.Timestamp)
	if err != nil {
		return nil, err
	}
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return sjson.SetBytes(result, "error", msg)
}

type eventEnvelope struct {
	runID     uuid.UUID
	turnID    uuid.UUID
	sender    string
	timestamp strfmt.DateTime
}

func marshalEnvelope(seed []byte, runID, turnID uuid.UUID, sender string, ts strfmt.DateTime) ([]byte, error) {
	result, err := sjson.SetBytes(seed, "run_id", runID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "turn_id", turnID.String())
	if err != nil {
		return nil, err
	}
	if sender != "" {
		result, err = sjson.SetBytes(result, "sender", sender)
		if err != nil {
			return nil, err
		}
	}
	if !ts.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", ts.String())
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func parseEventEnvelope(data []byte, wantType string) (eventEnvelope, error) {
	var env eventEnvelope

	if !gjson.ValidBytes(data) {
		return env, fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != wantType {
		return env, fmt.Errorf("missing or invalid type, expected %q", wantType)
	}

	runID := gjson.GetBytes(data, "run_id")
	if !runID.Exists() {
		return env, fmt.Errorf("missing required field 'run_id'")
	}
	if err := env.runID.UnmarshalText([]byte(runID.String())); err != nil {
		return env, fmt.Errorf("invalid run_id: %w", err)
	}

	turnID := gjson.GetBytes(data, "turn_id")
	if !turnID.Exists() {
		return env, fmt.Errorf("missing required field 'turn_id'")
	}
	if err := env.turnID.UnmarshalText([]byte(turnID.String())); err != nil {
		return env, fmt.Errorf("invalid turn_id: %w", err)
	}

	env.sender = gjson.GetBytes(data, "sender").String()

	if ts := gjson.GetBytes(data, "timestamp"); ts.Exists() && ts.String() != "" {
		parsed, err := strfmt.ParseDateTime(ts.String())
		if err != nil {
			return env, fmt.Errorf("invalid timestamp: %w", err)
		}
		env.timestamp = parsed
	}

	return env, nil
}
