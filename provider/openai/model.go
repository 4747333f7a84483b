// Package openai implements the provider contract on top of the OpenAI chat
// completions API.
package openai

import (
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/qasid-ai/qasid/api"
	"github.com/qasid-ai/qasid/provider"
)

var modelRegistry = haxmap.New[string, api.Model]()

func GPT4oMini(opts ...option.RequestOption) api.Model {
	return Model(openai.ChatModelGPT4oMini, opts...)
}

func GPT4o(opts ...option.RequestOption) api.Model {
	return Model(openai.ChatModelChatgpt4oLatest, opts...)
}

// Model returns the registered model for name, creating it on first use.
func Model(name string, opts ...option.RequestOption) api.Model {
	m, _ := modelRegistry.GetOrCompute(name, func() api.Model {
		return &model{
			name: name,
			opts: opts,
		}
	})
	return m
}

var _ api.Model = (*model)(nil)

type model struct {
	name string
	opts []option.RequestOption

	prov     provider.Provider
	provOnce sync.Once
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Provider() provider.Provider {
	m.provOnce.Do(func() {
		m.prov = New(m.opts...)
	})
	return m.prov
}
