// Package tool defines the callable capabilities an agent can expose to the
// model provider, including per-tool enablement predicates and user-facing
// error fallbacks.
package tool

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/qasid-ai/qasid/types"
)

// Query is the context a tool's enablement predicate is evaluated against.
type Query struct {
	// Text is the raw inbound message for the current turn.
	Text string
	// Session holds the session's context variables.
	Session types.ContextVars
}

// Definition describes a tool the delegate capability may invoke.
type Definition struct {
	Name        string
	Description string
	// Parameters maps positional placeholders ("param0", "param1", ...) to the
	// argument names published in the tool's JSON schema.
	Parameters map[string]string
	Function   any

	// Enabled gates visibility: when it returns false for the current query
	// the tool is filtered out before delegation and the model never sees it.
	// A nil predicate means always enabled.
	Enabled func(Query) bool

	// OnError produces a user-facing message when the handler fails, so tool
	// failures degrade to a friendly reply instead of propagating. The raw
	// arguments JSON is passed through for message templating.
	OnError func(err error, arguments string) string
}

// EnabledFor reports whether the tool should be visible for the given query.
func (td Definition) EnabledFor(q Query) bool {
	if td.Enabled == nil {
		return true
	}
	return td.Enabled(q)
}

// Fallback renders the tool's error fallback, reporting whether one exists.
func (td Definition) Fallback(err error, arguments string) (string, bool) {
	if td.OnError == nil {
		return "", false
	}
	return td.OnError(err, arguments), true
}

// Structured Outputs uses a subset of JSON schema, these flags keep the
// reflected schemas inside that subset.
var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema reflects the tool function's signature into a JSON schema
// describing its parameters. context.Context and types.ContextVars parameters
// are injected by the runtime and excluded from the schema.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	val := reflect.ValueOf(td.Function)
	typ := val.Type()

	name := td.Name
	if name == "" && typ.Kind() == reflect.Func {
		name = functionName(td.Function)
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	if typ.Kind() != reflect.Func {
		return name, schema
	}

	var required []string
	argIdx := 0
	for i := 0; i < typ.NumIn(); i++ {
		paramType := typ.In(i)
		if isInjected(paramType) {
			continue
		}

		paramName := fmt.Sprintf("param%d", argIdx)
		if td.Parameters != nil {
			if p, ok := td.Parameters[paramName]; ok {
				paramName = p
			}
		}
		argIdx++

		propSchema := functionReflector.ReflectFromType(paramType)
		propSchema.Version = ""
		schema.Properties.Set(paramName, propSchema)
		required = append(required, paramName)
	}
	if len(required) > 0 {
		schema.Required = required
	}

	return name, schema
}

var (
	contextType     = reflect.TypeFor[context.Context]()
	contextVarsType = reflect.TypeFor[types.ContextVars]()
)

func isInjected(t reflect.Type) bool {
	return t == contextType || t == contextVarsType
}

func functionName(fn any) string {
	val := reflect.ValueOf(fn)
	typ := val.Type()
	if typ.Name() != "" {
		return typ.String()
	}
	if rf := runtime.FuncForPC(val.Pointer()); rf != nil {
		name := rf.Name()
		if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
			name = strings.TrimSuffix(name[lastDot+1:], "-fm")
		}
		return name
	}
	return typ.String()
}

// Option configures a tool definition.
type Option = opts.Option[Definition]

// Must wraps New and panics when the definition is invalid.
func Must(f any, options ...Option) Definition {
	def, err := New(f, options...)
	if err != nil {
		panic(err)
	}
	return def
}

// New creates a tool definition from the provided function and options.
func New(f any, options ...Option) (Definition, error) {
	if f == nil || reflect.TypeOf(f).Kind() != reflect.Func {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = functionName(f)
	}

	def.Function = f
	return def, nil
}

// Name sets the published name of the tool.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the tool description shown to the model.
var Description = opts.ForName[Definition, string]("Description")

// Parameters names the tool's positional parameters in declaration order.
func Parameters(parameters ...string) Option {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}

// Enabled sets the tool's enablement predicate.
func Enabled(pred func(Query) bool) Option {
	return opts.Type[Definition](func(o *Definition) error {
		o.Enabled = pred
		return nil
	})
}

// OnError sets the tool's error fallback producer.
func OnError(fn func(err error, arguments string) string) Option {
	return opts.Type[Definition](func(o *Definition) error {
		o.OnError = fn
		return nil
	})
}
