// Package agent provides the default api.Agent implementation.
package agent

import (
	"strings"
	"text/template"

	"github.com/fogfish/opts"

	"github.com/qasid-ai/qasid/api"
	"github.com/qasid-ai/qasid/tool"
	"github.com/qasid-ai/qasid/types"
)

var _ api.Agent = (*defaultAgent)(nil)

// defaultAgent is a named role bound to an instruction template, a model, and
// a tool set.
type defaultAgent struct {
	name              string
	model             api.Model
	instructions      string
	tools             []tool.Definition
	toolChoice        string
	parallelToolCalls bool
}

// Name returns the agent's name.
func (a *defaultAgent) Name() string {
	return a.name
}

// Model returns the agent's model.
func (a *defaultAgent) Model() api.Model {
	return a.model
}

// Instructions returns the agent's raw instruction template.
func (a *defaultAgent) Instructions() string {
	return a.instructions
}

// Tools returns the agent's tool definitions.
func (a *defaultAgent) Tools() []tool.Definition {
	return a.tools
}

// ToolChoice returns the agent's tool-choice policy.
func (a *defaultAgent) ToolChoice() string {
	return a.toolChoice
}

// ParallelToolCalls reports whether the agent allows batched tool calls.
func (a *defaultAgent) ParallelToolCalls() bool {
	return a.parallelToolCalls
}

// RenderInstructions renders the agent's instructions with the provided
// context variables. Instructions without template actions pass through
// unchanged.
func (a *defaultAgent) RenderInstructions(cv types.ContextVars) (string, error) {
	if !strings.Contains(a.instructions, "{{") {
		return a.instructions, nil
	}
	return renderTemplate("instructions", a.instructions, cv)
}

func renderTemplate(name, templateStr string, cv types.ContextVars) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, cv); err != nil {
		return "", err
	}

	return buf.String(), nil
}

var (
	// Name sets the agent's name.
	Name = opts.ForName[defaultAgent, string]("name")
	// Model sets the model backing the agent.
	Model = opts.ForName[defaultAgent, api.Model]("model")
	// Instructions sets the agent's instruction template.
	Instructions = opts.ForName[defaultAgent, string]("instructions")
	// ToolChoice sets the tool-choice policy ("auto", "required", "none").
	ToolChoice = opts.ForName[defaultAgent, string]("toolChoice")
	// ParallelToolCalls toggles batched tool calls.
	ParallelToolCalls = opts.ForName[defaultAgent, bool]("parallelToolCalls")
)

// Tools appends tool definitions to the agent.
func Tools(tool tool.Definition, extraTools ...tool.Definition) opts.Option[defaultAgent] {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.tools = append(o.tools, tool)
		o.tools = append(o.tools, extraTools...)
		return nil
	})
}

// New creates an agent with the provided options.
func New(options ...opts.Option[defaultAgent]) api.Agent {
	agent := &defaultAgent{
		parallelToolCalls: true,
	}
	if err := opts.Apply(agent, options); err != nil {
		panic(err)
	}
	return agent
}
