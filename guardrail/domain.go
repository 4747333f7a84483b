package guardrail

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"

	"github.com/qasid-ai/qasid/api"
	"github.com/qasid-ai/qasid/messages"
	"github.com/qasid-ai/qasid/provider"
)

// Structured Outputs uses a subset of JSON schema, these flags keep the
// reflected verdict schema inside that subset.
var verdictReflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

type topicVerdict struct {
	OnTopic bool   `json:"on_topic"`
	Reason  string `json:"reason"`
}

type topicChecker struct {
	name   string
	model  api.Model
	domain string
}

// Topic returns a model-backed checker that classifies whether a message is
// on-topic for the given domain (e.g. "mathematics", "hotel customer care").
// Off-topic messages and delegate failures both reject.
func Topic(name string, model api.Model, domain string) Checker {
	return &topicChecker{name: name, model: model, domain: domain}
}

func (c *topicChecker) Name() string {
	return c.name
}

func (c *topicChecker) Check(ctx context.Context, text string) (Verdict, error) {
	if text == "" {
		return Allow, nil
	}

	prov := c.model.Provider()
	if prov == nil {
		return Verdict{Allowed: false, Reason: "topic checker has no provider"},
			fmt.Errorf("model %s has no provider", c.model.Name())
	}

	thread := messages.NewThread()
	thread.Add(messages.NewUserPrompt("guardrail", text))

	stream, err := prov.ChatCompletion(ctx, provider.CompletionParams{
		RunID: uuid.New(),
		Instructions: fmt.Sprintf(
			"Classify whether the user message is on-topic for the domain %q. Answer with JSON only.",
			c.domain,
		),
		Thread: thread,
		Model:  c.model,
		ResponseSchema: &provider.StructuredOutput{
			Name:        "topic_verdict",
			Description: "Whether the message belongs to the allowed domain",
			Schema:      verdictReflector.Reflect(topicVerdict{}),
		},
	})
	if err != nil {
		return Verdict{Allowed: false, Reason: "topic classification failed"}, err
	}

	var content string
	var failure error
	for event := range stream {
		switch ev := event.(type) {
		case provider.Response:
			content = ev.Content
		case provider.Chunk:
			content += ev.Content
		case provider.Error:
			failure = ev
		}
	}
	if failure != nil {
		return Verdict{Allowed: false, Reason: "topic classification failed"}, failure
	}

	parsed := gjson.Parse(content)
	if !parsed.Get("on_topic").Exists() {
		return Verdict{Allowed: false, Reason: "topic classifier returned no verdict"},
			fmt.Errorf("unparseable topic verdict: %s", content)
	}

	if !parsed.Get("on_topic").Bool() {
		reason := parsed.Get("reason").String()
		if reason == "" {
			reason = fmt.Sprintf("message is off-topic for %s", c.domain)
		}
		return Verdict{Allowed: false, Reason: reason}, nil
	}

	return Allow, nil
}
