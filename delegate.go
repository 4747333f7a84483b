package qasid

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/qasid-ai/qasid/api"
	"github.com/qasid-ai/qasid/messages"
	"github.com/qasid-ai/qasid/provider"
	"github.com/qasid-ai/qasid/tool"
	"github.com/qasid-ai/qasid/types"
)

// delegate hands the message to an agent-mediated run and reports the reply
// together with a confidence signal derived from the last decisive event in
// the stream: a terminal text reply is confident, a hand-off or an error is
// not. The whole run is bounded by the desk timeout; expiry surfaces as a
// context error, which the caller treats as "not confident".
func (d *Desk) delegate(ctx context.Context, agent api.Agent, sessionID, text string) (string, string, bool, error) {
	cv := d.contextFor(sessionID, text)
	// tool handlers mutate cv; whatever state they wrote survives the turn
	defer d.persistSession(sessionID, cv)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	runID := uuid.New()
	thread := messages.NewThread()
	thread.Add(messages.NewUserPrompt(sessionID, text))

	active := agent
	for turn := 0; turn < d.maxTurns; turn++ {
		model := active.Model()
		if model == nil {
			return "", "", false, fmt.Errorf("agent %s has no model", active.Name())
		}
		prov := model.Provider()
		if prov == nil {
			return "", "", false, fmt.Errorf("model %s has no provider", model.Name())
		}

		instructions, err := active.RenderInstructions(cv)
		if err != nil {
			return "", "", false, fmt.Errorf("failed to render instructions: %w", err)
		}

		// work on a fork so a failed round leaves the thread untouched
		attempt := thread.Fork()
		stream, err := prov.ChatCompletion(ctx, provider.CompletionParams{
			RunID:             runID,
			Instructions:      instructions,
			Thread:            attempt,
			Model:             model,
			Tools:             enabledTools(active, text, cv),
			ToolChoice:        active.ToolChoice(),
			ParallelToolCalls: active.ParallelToolCalls(),
			MaxRetries:        d.maxRetries,
		})
		if err != nil {
			return "", "", false, err
		}

		reply, confident, again, err := d.consumeStream(ctx, stream, &active, attempt, cv, text)
		if err != nil {
			return "", "", false, err
		}
		if err := ctx.Err(); err != nil {
			return "", "", false, err
		}
		thread.Join(attempt)
		if again {
			continue
		}
		return reply, active.Name(), confident && reply != "", nil
	}

	return "", "", false, errors.New("max delegate turns exceeded")
}

// consumeStream drains one completion's event stream in order. It returns
// again=true when the run needs another completion round, either because
// tool calls were executed or the active agent changed.
func (d *Desk) consumeStream(
	ctx context.Context,
	stream <-chan provider.StreamEvent,
	active *api.Agent,
	thread *messages.Thread,
	cv types.ContextVars,
	text string,
) (reply string, confident, again bool, err error) {
	for {
		select {
		case event, hasMore := <-stream:
			if !hasMore {
				return reply, confident, again, nil
			}

			switch ev := event.(type) {
			case provider.Delim:
				// stream boundary, nothing to do

			case provider.Chunk:
				// incremental fragments; a terminal Response supersedes them

			case provider.Response:
				if ev.Content != "" {
					reply = ev.Content
					confident = true
				}
				thread.Add(messages.AssistantMessage{
					Content:   ev.Content,
					Refusal:   ev.Refusal,
					Sender:    (*active).Name(),
					Timestamp: ev.Timestamp,
				})

			case provider.ToolCall:
				thread.Add(messages.ToolCallMessage{
					ToolCalls: ev.ToolCalls,
					Sender:    (*active).Name(),
					Timestamp: ev.Timestamp,
				})
				next, terr := d.runToolCalls(ctx, *active, ev.ToolCalls, thread, cv, text)
				if terr != nil {
					return "", false, false, terr
				}
				if next != nil {
					d.hook.OnHandOff(ctx, (*active).Name(), next.Name())
					*active = next
				}
				confident = false
				again = true

			case provider.HandOff:
				if target, ok := d.agents.Get(ev.To); ok {
					d.hook.OnHandOff(ctx, ev.From, ev.To)
					*active = target
					again = true
				} else {
					// unresolvable hand-off: the run is not confident
					confident = false
				}

			case provider.Error:
				return "", false, false, ev
			}

		case <-ctx.Done():
			return "", false, false, ctx.Err()
		}
	}
}

// enabledTools filters the agent's tools by their enablement predicate so
// the model never sees a disabled tool.
func enabledTools(agent api.Agent, text string, cv types.ContextVars) []tool.Definition {
	query := tool.Query{Text: text, Session: cv}
	var out []tool.Definition
	for _, def := range agent.Tools() {
		if def.EnabledFor(query) {
			out = append(out, def)
		}
	}
	return out
}

// runToolCalls executes the requested tool calls in order and feeds their
// results back into the thread. A handler returning an api.Agent transfers
// the conversation; that agent is returned so the caller can switch. Handler
// failures degrade to the tool's error fallback when one is declared.
func (d *Desk) runToolCalls(
	ctx context.Context,
	agent api.Agent,
	calls []messages.ToolCallData,
	thread *messages.Thread,
	cv types.ContextVars,
	text string,
) (api.Agent, error) {
	agentTools := make(map[string]tool.Definition, len(agent.Tools()))
	for _, def := range agent.Tools() {
		agentTools[def.Name] = def
	}

	var nextAgent api.Agent
	for _, call := range calls {
		def, exists := agentTools[call.Name]
		if !exists {
			return nil, fmt.Errorf("unknown tool %s", call.Name)
		}
		if !def.EnabledFor(tool.Query{Text: text, Session: cv}) {
			return nil, fmt.Errorf("tool %s is not enabled for this query", call.Name)
		}

		d.hook.OnToolCall(ctx, agent.Name(), call.Name, call.Arguments)

		result, err := callFunction(ctx, def.Function, call.Arguments, def.Parameters, cv)
		if err != nil {
			fallback, ok := def.Fallback(err, call.Arguments)
			if !ok {
				return nil, fmt.Errorf("tool %s failed: %w", call.Name, err)
			}
			result = toolResult{Value: fallback}
		}

		if result.Agent != nil && nextAgent == nil {
			nextAgent = result.Agent
		}
		if result.Vars != nil {
			maps.Copy(cv, result.Vars)
		}

		d.hook.OnToolResult(ctx, agent.Name(), call.Name, result.Value)
		thread.Add(messages.NewToolResponse(call.ID, call.Name, result.Value))
	}

	return nextAgent, nil
}

type toolResult struct {
	Value string
	Agent api.Agent
	Vars  types.ContextVars
}

var (
	contextType     = reflect.TypeFor[context.Context]()
	contextVarsType = reflect.TypeFor[types.ContextVars]()
	errorType       = reflect.TypeFor[error]()
)

func injectedParam(t reflect.Type) bool {
	return t == contextType || t == contextVarsType
}

// callFunction invokes a tool handler via reflection. Arguments are matched
// positionally against the declared parameter names; context.Context and
// types.ContextVars parameters are injected.
func callFunction(ctx context.Context, fn any, arguments string, parameters map[string]string, cv types.ContextVars) (toolResult, error) {
	val := reflect.ValueOf(fn)
	vtpe := val.Type()
	if vtpe.Kind() != reflect.Func {
		return toolResult{}, fmt.Errorf("tool handler is not a function")
	}

	count := 0
	for fi := 0; fi < vtpe.NumIn(); fi++ {
		if !injectedParam(vtpe.In(fi)) {
			count++
		}
	}
	args := buildArgList(arguments, parameters, count)

	callArgs := make([]reflect.Value, vtpe.NumIn())
	argIdx := 0
	for fi := 0; fi < vtpe.NumIn(); fi++ {
		paramType := vtpe.In(fi)
		switch {
		case paramType == contextType:
			callArgs[fi] = reflect.ValueOf(ctx)
		case paramType == contextVarsType:
			callArgs[fi] = reflect.ValueOf(cv)
		default:
			if args[argIdx].IsValid() && args[argIdx].Type().ConvertibleTo(paramType) {
				callArgs[fi] = args[argIdx].Convert(paramType)
			} else {
				callArgs[fi] = reflect.Zero(paramType)
			}
			argIdx++
		}
	}

	results := val.Call(callArgs)

	var out toolResult
	for _, res := range results {
		if !res.IsValid() {
			continue
		}
		if res.Type().Implements(errorType) {
			if !res.IsNil() {
				return toolResult{}, res.Interface().(error)
			}
			continue
		}

		switch v := res.Interface().(type) {
		case api.Agent:
			out.Agent = v
			out.Value = fmt.Sprintf(`{"assistant":%q}`, v.Name())
		case types.ContextVars:
			out.Vars = v
		case string:
			out.Value = v
		default:
			out.Value = fmt.Sprintf("%v", v)
		}
	}
	return out, nil
}

// buildArgList resolves the declared parameter names against the arguments
// JSON in positional order. Undeclared positions fall back to the published
// "paramN" placeholder, which is what the schema advertised.
func buildArgList(arguments string, parameters map[string]string, count int) []reflect.Value {
	parsed := gjson.Parse(arguments)

	args := make([]reflect.Value, count)
	for i := range args {
		placeholder := fmt.Sprintf("param%d", i)
		name := placeholder
		if n, ok := parameters[placeholder]; ok && n != "" {
			name = n
		}
		if val := parsed.Get(name); val.Exists() {
			args[i] = reflect.ValueOf(val.Value())
		}
	}
	return args
}
