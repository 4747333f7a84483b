package provider

import (
	"errors"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/qasid-ai/qasid/messages"
)

func TestChunkRoundTrip(t *testing.T) {
	in := Chunk{
		RunID:     uuid.New(),
		TurnID:    uuid.New(),
		Content:   "partial reply",
		Sender:    "BotAgent",
		Timestamp: strfmt.DateTime(time.Now().UTC()),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "chunk", gjson.GetBytes(data, "type").String())

	var out Chunk
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.RunID, out.RunID)
	assert.Equal(t, in.TurnID, out.TurnID)
	assert.Equal(t, in.Content, out.Content)
	assert.Equal(t, in.Sender, out.Sender)
}

func TestResponseRoundTrip(t *testing.T) {
	in := Response{
		RunID:   uuid.New(),
		TurnID:  uuid.New(),
		Content: "final reply",
		Refusal: "nope",
		Sender:  "HumanAgent",
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Response
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Content, out.Content)
	assert.Equal(t, in.Refusal, out.Refusal)
	assert.Equal(t, in.Sender, out.Sender)
}

func TestToolCallRoundTrip(t *testing.T) {
	in := ToolCall{
		RunID:  uuid.New(),
		TurnID: uuid.New(),
		ToolCalls: []messages.ToolCallData{
			{ID: "call_1", Name: "get_order_status", Arguments: `{"order_id":"123"}`},
		},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out ToolCall
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "get_order_status", out.ToolCalls[0].Name)
	assert.Equal(t, `{"order_id":"123"}`, out.ToolCalls[0].Arguments)
}

func TestHandOffRoundTrip(t *testing.T) {
	in := HandOff{RunID: uuid.New(), TurnID: uuid.New(), From: "BotAgent", To: "HumanAgent"}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out HandOff
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "BotAgent", out.From)
	assert.Equal(t, "HumanAgent", out.To)
}

func TestErrorEvent(t *testing.T) {
	ev := Error{RunID: uuid.New(), TurnID: uuid.New(), Err: errors.New("boom")}

	assert.Contains(t, ev.Error(), "boom")
	assert.ErrorContains(t, ev.Unwrap(), "boom")

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Equal(t, "boom", gjson.GetBytes(data, "error").String())
}

func TestUnmarshalRejectsWrongType(t *testing.T) {
	var chunk Chunk
	err := json.Unmarshal([]byte(`{"type":"response","run_id":"x","turn_id":"y"}`), &chunk)
	require.Error(t, err)

	var delim Delim
	err = json.Unmarshal([]byte(`not json`), &delim)
	require.Error(t, err)
}
