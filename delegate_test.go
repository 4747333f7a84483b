package qasid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qasid-ai/qasid/agent"
	"github.com/qasid-ai/qasid/api"
	"github.com/qasid-ai/qasid/knowledge"
	"github.com/qasid-ai/qasid/messages"
	"github.com/qasid-ai/qasid/provider"
	"github.com/qasid-ai/qasid/session"
	"github.com/qasid-ai/qasid/tool"
	"github.com/qasid-ai/qasid/types"
)

func toolCallEvent(id, name, arguments string) provider.StreamEvent {
	return provider.ToolCall{
		ToolCalls: []messages.ToolCallData{{ID: id, Name: name, Arguments: arguments}},
	}
}

func threadResponses(thread *messages.Thread) []messages.ToolResponse {
	var out []messages.ToolResponse
	for msg := range thread.MessagesIter() {
		if tr, ok := msg.(messages.ToolResponse); ok {
			out = append(out, tr)
		}
	}
	return out
}

func TestDelegateRunsToolCallLoop(t *testing.T) {
	orders := knowledge.DefaultOrders()
	orderTool := tool.Must(
		func(orderID string) (string, error) { return orders.Status(orderID) },
		tool.Name("get_order_status"),
		tool.Description("Look up an order's shipping status by its ID."),
		tool.Parameters("order_id"),
	)

	botProv := &scriptedProvider{
		steps: [][]provider.StreamEvent{
			{toolCallEvent("call_1", "get_order_status", `{"order_id":"123"}`)},
			{provider.Response{Content: "Aap ka order 123 Shipped hai."}},
		},
	}
	bot := agent.New(
		agent.Name("support-bot"),
		agent.Model(stubModel{name: "test-model", prov: botProv}),
		agent.Instructions("You are the support bot."),
		agent.Tools(orderTool),
	)
	human, _ := replyingAgent("human-agent", "unused")

	desk := New(Bot(bot), Human(human))

	turn, err := desk.Handle(context.Background(), "cust-1", "Parcel 123 kab pahunchay gi?")
	require.NoError(t, err)

	assert.Equal(t, DecisionDelegate, turn.Decision)
	assert.Equal(t, "Aap ka order 123 Shipped hai.", turn.Reply)
	require.Equal(t, 2, botProv.callCount())

	// user prompt, tool-call message, tool response joined from the first
	// round, plus the terminal assistant reply
	require.Equal(t, 4, botProv.calls[1].Thread.Len())
	responses := threadResponses(botProv.calls[1].Thread)
	require.Len(t, responses, 1)
	assert.Equal(t, "get_order_status", responses[0].ToolName)
	assert.Equal(t, "call_1", responses[0].ToolCallID)
	assert.Contains(t, responses[0].Content, "Shipped")
}

func TestDelegatePersistsToolSessionState(t *testing.T) {
	hotels := knowledge.DefaultHotels()
	hotelTool := tool.Must(
		func(cv types.ContextVars, name string) (string, error) {
			h, err := hotels.Lookup(name)
			if err != nil {
				return "", err
			}
			cv[session.ActiveHotelKey] = h.Name
			return h.Profile(), nil
		},
		tool.Name("get_hotel_info"),
		tool.Parameters("hotel_name"),
	)

	botProv := &scriptedProvider{
		steps: [][]provider.StreamEvent{
			{toolCallEvent("call_1", "get_hotel_info", `{"hotel_name":"Hotel Sannata"}`)},
			{provider.Response{Content: "Sannata me 180 rooms bookable hain."}},
		},
	}
	bot := agent.New(
		agent.Name("support-bot"),
		agent.Model(stubModel{name: "test-model", prov: botProv}),
		agent.Instructions("You are the support bot."),
		agent.Tools(hotelTool),
	)
	human, _ := replyingAgent("human-agent", "unused")

	desk := New(Bot(bot), Human(human), Hotels(hotels))

	// the message names no hotel, so only the tool can set the pointer
	turn, err := desk.Handle(context.Background(), "cust-9", "Mujhe us jagah ke baare me batao")
	require.NoError(t, err)
	assert.Equal(t, DecisionDelegate, turn.Decision)

	active, ok := desk.sessions.ActiveHotel("cust-9")
	require.True(t, ok, "tool-written session state must survive the turn")
	assert.Equal(t, "Hotel Sannata", active)
}

func TestDelegateResolvesPlaceholderArguments(t *testing.T) {
	orders := knowledge.DefaultOrders()
	// no tool.Parameters: the published schema names the argument param0
	orderTool := tool.Must(
		func(orderID string) (string, error) { return orders.Status(orderID) },
		tool.Name("get_order_status"),
	)

	botProv := &scriptedProvider{
		steps: [][]provider.StreamEvent{
			{toolCallEvent("call_1", "get_order_status", `{"param0":"123"}`)},
			{provider.Response{Content: "Mil gaya."}},
		},
	}
	bot := agent.New(
		agent.Name("support-bot"),
		agent.Model(stubModel{name: "test-model", prov: botProv}),
		agent.Instructions("You are the support bot."),
		agent.Tools(orderTool),
	)
	human, _ := replyingAgent("human-agent", "unused")

	desk := New(Bot(bot), Human(human))

	_, err := desk.Handle(context.Background(), "cust-1", "Parcel 123 kidhar hai?")
	require.NoError(t, err)

	require.Equal(t, 2, botProv.callCount())
	responses := threadResponses(botProv.calls[1].Thread)
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Content, "Shipped")
}

func TestDelegateTransfersViaToolResult(t *testing.T) {
	specialist, specialistProv := replyingAgent("hotel-specialist", "Specialist ka jawab.")

	transfer := tool.Must(
		func() api.Agent { return specialist },
		tool.Name("transfer_to_hotel_specialist"),
		tool.Description("Hand the conversation to the hotel specialist."),
	)

	botProv := &scriptedProvider{
		steps: [][]provider.StreamEvent{
			{toolCallEvent("call_1", "transfer_to_hotel_specialist", `{}`)},
		},
	}
	bot := agent.New(
		agent.Name("support-bot"),
		agent.Model(stubModel{name: "test-model", prov: botProv}),
		agent.Instructions("You are the support bot."),
		agent.Tools(transfer),
	)
	human, _ := replyingAgent("human-agent", "unused")

	desk := New(Bot(bot), Human(human), Agents(specialist))

	turn, err := desk.Handle(context.Background(), "cust-1", "Hotel booking me madad chahiye")
	require.NoError(t, err)

	assert.Equal(t, DecisionDelegate, turn.Decision)
	assert.Equal(t, "hotel-specialist", turn.Agent)
	assert.Equal(t, "Specialist ka jawab.", turn.Reply)
	assert.Equal(t, 1, botProv.callCount())
	assert.Equal(t, 1, specialistProv.callCount())
}

func TestDelegateFollowsHandOffEvent(t *testing.T) {
	specialist, specialistProv := replyingAgent("hotel-specialist", "Specialist yahan hai.")

	botProv := &scriptedProvider{
		steps: [][]provider.StreamEvent{
			{provider.HandOff{From: "support-bot", To: "hotel-specialist"}},
		},
	}
	bot := agent.New(
		agent.Name("support-bot"),
		agent.Model(stubModel{name: "test-model", prov: botProv}),
		agent.Instructions("You are the support bot."),
	)
	human, _ := replyingAgent("human-agent", "unused")

	desk := New(Bot(bot), Human(human), Agents(specialist))

	turn, err := desk.Handle(context.Background(), "cust-1", "Hotel wale se baat karwa do")
	require.NoError(t, err)

	assert.Equal(t, DecisionDelegate, turn.Decision)
	assert.Equal(t, "hotel-specialist", turn.Agent)
	assert.Equal(t, "Specialist yahan hai.", turn.Reply)
	assert.Equal(t, 1, specialistProv.callCount())
}

func TestDelegateEscalatesOnUnknownHandOffTarget(t *testing.T) {
	botProv := &scriptedProvider{
		steps: [][]provider.StreamEvent{
			{provider.HandOff{From: "support-bot", To: "ghost-agent"}},
		},
	}
	bot := agent.New(
		agent.Name("support-bot"),
		agent.Model(stubModel{name: "test-model", prov: botProv}),
		agent.Instructions("You are the support bot."),
	)
	human, humanProv := replyingAgent("human-agent", "Main sambhal leta hoon.")

	desk := New(Bot(bot), Human(human))

	turn, err := desk.Handle(context.Background(), "cust-1", "Kisi aur se baat karwao")
	require.NoError(t, err)

	assert.Equal(t, DecisionEscalate, turn.Decision)
	assert.Equal(t, "Main sambhal leta hoon.", turn.Reply)
	assert.Equal(t, 1, humanProv.callCount())
}

func TestDelegateFiltersDisabledTools(t *testing.T) {
	visible := tool.Must(
		func() string { return "ok" },
		tool.Name("always_on"),
	)
	hidden := tool.Must(
		func() string { return "never" },
		tool.Name("admin_only"),
		tool.Enabled(func(tool.Query) bool { return false }),
	)

	botProv := &scriptedProvider{
		steps: [][]provider.StreamEvent{
			{provider.Response{Content: "Theek hai."}},
		},
	}
	bot := agent.New(
		agent.Name("support-bot"),
		agent.Model(stubModel{name: "test-model", prov: botProv}),
		agent.Instructions("You are the support bot."),
		agent.Tools(visible, hidden),
	)
	human, _ := replyingAgent("human-agent", "unused")

	desk := New(Bot(bot), Human(human))

	_, err := desk.Handle(context.Background(), "cust-1", "Kuch poochna tha")
	require.NoError(t, err)

	require.Equal(t, 1, botProv.callCount())
	tools := botProv.calls[0].Tools
	require.Len(t, tools, 1)
	assert.Equal(t, "always_on", tools[0].Name)
}

func TestDelegateUsesToolErrorFallback(t *testing.T) {
	failing := tool.Must(
		func(orderID string) (string, error) {
			return "", &knowledge.NotFoundError{Kind: "order", Key: orderID}
		},
		tool.Name("get_order_status"),
		tool.Parameters("order_id"),
		tool.OnError(func(error, string) string {
			return "Maazrat, order ki maloomat abhi nahi mil saki."
		}),
	)

	botProv := &scriptedProvider{
		steps: [][]provider.StreamEvent{
			{toolCallEvent("call_1", "get_order_status", `{"order_id":"000"}`)},
			{provider.Response{Content: "Order nahi mila, koi aur madad?"}},
		},
	}
	bot := agent.New(
		agent.Name("support-bot"),
		agent.Model(stubModel{name: "test-model", prov: botProv}),
		agent.Instructions("You are the support bot."),
		agent.Tools(failing),
	)
	human, _ := replyingAgent("human-agent", "unused")

	desk := New(Bot(bot), Human(human))

	turn, err := desk.Handle(context.Background(), "cust-1", "Parcel 000 kidhar hai")
	require.NoError(t, err)

	assert.Equal(t, DecisionDelegate, turn.Decision)
	require.Equal(t, 2, botProv.callCount())

	responses := threadResponses(botProv.calls[1].Thread)
	require.Len(t, responses, 1)
	assert.Equal(t, "Maazrat, order ki maloomat abhi nahi mil saki.", responses[0].Content)
}

func TestDelegateEscalatesWhenToolFailsWithoutFallback(t *testing.T) {
	failing := tool.Must(
		func() (string, error) { return "", assert.AnError },
		tool.Name("flaky_tool"),
	)

	botProv := &scriptedProvider{
		steps: [][]provider.StreamEvent{
			{toolCallEvent("call_1", "flaky_tool", `{}`)},
		},
	}
	bot := agent.New(
		agent.Name("support-bot"),
		agent.Model(stubModel{name: "test-model", prov: botProv}),
		agent.Instructions("You are the support bot."),
		agent.Tools(failing),
	)
	human, humanProv := replyingAgent("human-agent", "Human dekh raha hai.")

	desk := New(Bot(bot), Human(human))

	turn, err := desk.Handle(context.Background(), "cust-1", "Kuch karo")
	require.NoError(t, err)

	assert.Equal(t, DecisionEscalate, turn.Decision)
	assert.Equal(t, "Human dekh raha hai.", turn.Reply)
	assert.Equal(t, 1, humanProv.callCount())
}
