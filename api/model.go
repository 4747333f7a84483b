package api

import "github.com/qasid-ai/qasid/provider"

// Model pairs a model name with the provider that can execute it.
type Model interface {
	Name() string
	Provider() provider.Provider
}
