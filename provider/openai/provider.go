package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/qasid-ai/qasid/messages"
	"github.com/qasid-ai/qasid/provider"
)

// Provider talks to the OpenAI chat completions API.
type Provider struct {
	client *openai.Client
}

// New creates a provider. The API key is read from OPENAI_API_KEY unless
// overridden via request options.
func New(options ...option.RequestOption) *Provider {
	client := openai.NewClient(options...)
	return &Provider{
		client: client,
	}
}

func (p *Provider) buildRequest(_ context.Context, params *provider.CompletionParams) (openai.ChatCompletionNewParams, []option.RequestOption, error) {
	instructions := params.Instructions
	if params.ResponseSchema != nil && params.ResponseSchema.Schema != nil {
		schemaJSON, err := json.Marshal(params.ResponseSchema.Schema)
		if err != nil {
			return openai.ChatCompletionNewParams{}, nil, fmt.Errorf("failed to marshal response schema: %w", err)
		}
		instructions = fmt.Sprintf(
			"%s\n\nRespond with a single JSON object matching this schema (%s):\n%s",
			instructions, params.ResponseSchema.Name, schemaJSON,
		)
	}

	result, user := messagesToOpenAI(instructions, params.Thread)

	tools := make([]openai.ChatCompletionToolParam, len(params.Tools))
	for i, tool := range params.Tools {
		if tool.Function == nil {
			return openai.ChatCompletionNewParams{}, nil, fmt.Errorf("tool %s has nil function", tool.Name)
		}

		name, parameters := tool.ToNameAndSchema()

		schemaJSON, err := json.Marshal(parameters)
		if err != nil {
			return openai.ChatCompletionNewParams{}, nil, fmt.Errorf("failed to marshal schema for tool %s: %w", tool.Name, err)
		}
		var jv map[string]any
		if err := json.Unmarshal(schemaJSON, &jv); err != nil {
			return openai.ChatCompletionNewParams{}, nil, fmt.Errorf("failed to convert schema for tool %s: %w", tool.Name, err)
		}

		def := openai.FunctionDefinitionParam{
			Name:       openai.String(name),
			Parameters: openai.F(shared.FunctionParameters(jv)),
		}
		if strings.TrimSpace(tool.Description) != "" {
			def.Description = openai.String(tool.Description)
		}

		tools[i] = openai.ChatCompletionToolParam{
			Type:     openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(def),
		}
	}

	oaiParams := openai.ChatCompletionNewParams{
		Messages:    openai.F(result),
		Model:       openai.F(params.Model.Name()),
		N:           openai.Int(1),
		Temperature: openai.Float(0.1),
	}
	if len(tools) > 0 {
		oaiParams.Tools = openai.F(tools)
		oaiParams.ParallelToolCalls = openai.Bool(params.ParallelToolCalls)
		if choice := strings.TrimSpace(params.ToolChoice); choice != "" {
			oaiParams.ToolChoice = openai.F[openai.ChatCompletionToolChoiceOptionUnionParam](
				openai.ChatCompletionToolChoiceOptionBehavior(choice),
			)
		}
	}
	if strings.TrimSpace(user) != "" {
		oaiParams.User = openai.String(user)
	}

	var reqOpts []option.RequestOption
	if params.MaxRetries > 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(params.MaxRetries))
	}

	return oaiParams, reqOpts, nil
}

// ChatCompletion issues one delegated call and returns its event stream.
func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	chatParams, reqOpts, err := p.buildRequest(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		if params.Stream {
			p.runStream(ctx, chatParams, reqOpts, &params, events)
		} else {
			p.runOnce(ctx, chatParams, reqOpts, &params, events)
		}
	}()
	return events, nil
}

func (p *Provider) runStream(ctx context.Context, params openai.ChatCompletionNewParams, reqOpts []option.RequestOption, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	strm := p.client.Chat.Completions.NewStreaming(ctx, params, reqOpts...)

	if strm.Err() != nil {
		events <- provider.Error{
			Err:       strm.Err(),
			RunID:     command.RunID,
			TurnID:    command.Thread.ID(),
			Timestamp: strfmt.DateTime(time.Now()),
		}
		strm.Close()
		return
	}

	// Ensure cleanup on all exit paths
	defer func() {
		strm.Close()
		if err := ctx.Err(); err != nil {
			events <- provider.Error{
				Err:       err,
				RunID:     command.RunID,
				TurnID:    command.Thread.ID(),
				Timestamp: strfmt.DateTime(time.Now()),
			}
		}
	}()

	var notFirst bool
	var acc openai.ChatCompletionAccumulator

	for strm.Next() {
		if err := ctx.Err(); err != nil {
			return
		}

		if !notFirst {
			notFirst = true
			events <- provider.Delim{RunID: command.RunID, TurnID: command.Thread.ID(), Delim: "start"}
		}

		chunk := strm.Current()
		if strm.Err() != nil {
			events <- provider.Error{
				Err:       strm.Err(),
				RunID:     command.RunID,
				TurnID:    command.Thread.ID(),
				Timestamp: strfmt.DateTime(time.Now()),
			}
			return
		}

		acc.AddChunk(chunk)
		if ev := completionChunkToStreamEvent(&chunk, command); ev != nil {
			events <- ev
		}
	}

	if notFirst && ctx.Err() == nil {
		events <- provider.Delim{RunID: command.RunID, TurnID: command.Thread.ID(), Delim: "end"}
		events <- completionToStreamEvent(&acc.ChatCompletion, command)
	}
}

func (p *Provider) runOnce(ctx context.Context, params openai.ChatCompletionNewParams, reqOpts []option.RequestOption, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	chat, err := p.client.Chat.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		events <- provider.Error{
			Err:       err,
			RunID:     command.RunID,
			TurnID:    command.Thread.ID(),
			Timestamp: strfmt.DateTime(time.Now()),
		}
		return
	}

	events <- completionToStreamEvent(chat, command)
}

func messagesToOpenAI(instructions string, thread *messages.Thread) ([]openai.ChatCompletionMessageParamUnion, string) {
	result := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(instructions),
	}

	var user string
	for message := range thread.MessagesIter() {
		switch msg := message.(type) {
		case messages.UserPrompt:
			if msg.Sender != "" {
				user = msg.Sender
			}
			if msg.Content != "" {
				result = append(result, openai.UserMessage(msg.Content))
			}
		case messages.AssistantMessage:
			am := openai.ChatCompletionAssistantMessageParam{
				Role: openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
			}
			if msg.Content != "" {
				am.Content.Value = append(am.Content.Value, openai.TextPart(msg.Content))
			}
			if msg.Refusal != "" {
				am.Refusal = openai.String(msg.Refusal)
			}
			result = append(result, am)
		case messages.ToolCallMessage:
			tcd := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				tcd[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   openai.String(tc.ID),
					Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
					Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      openai.String(tc.Name),
						Arguments: openai.String(tc.Arguments),
					}),
				}
			}
			result = append(result, openai.ChatCompletionMessageParam{
				Role:      openai.F(openai.ChatCompletionMessageParamRoleAssistant),
				ToolCalls: openai.F[any](tcd),
			})
		case messages.ToolResponse:
			result = append(result, openai.ToolMessage(msg.ToolCallID, msg.Content))
		}
	}
	return result, user
}

func completionChunkToStreamEvent(chunk *openai.ChatCompletionChunk, command *provider.CompletionParams) provider.StreamEvent {
	if len(chunk.Choices) == 0 {
		return nil
	}

	choice := chunk.Choices[0].Delta
	if len(choice.ToolCalls) > 0 {
		// tool-call deltas carry partial argument JSON; the accumulator folds
		// them into the single decisive ToolCall emitted at stream end
		return nil
	}

	return provider.Chunk{
		RunID:     command.RunID,
		TurnID:    command.Thread.ID(),
		Content:   choice.Content,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

func completionToStreamEvent(chat *openai.ChatCompletion, command *provider.CompletionParams) provider.StreamEvent {
	if len(chat.Choices) == 0 {
		return provider.Delim{RunID: command.RunID, TurnID: command.Thread.ID(), Delim: "empty"}
	}

	choice := chat.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		tcd := make([]messages.ToolCallData, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			tcd[i] = messages.ToolCallData{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
		}

		return provider.ToolCall{
			RunID:     command.RunID,
			TurnID:    command.Thread.ID(),
			ToolCalls: tcd,
			Timestamp: strfmt.DateTime(time.Now()),
		}
	}

	return provider.Response{
		RunID:     command.RunID,
		TurnID:    command.Thread.ID(),
		Content:   choice.Content,
		Refusal:   choice.Refusal,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}
