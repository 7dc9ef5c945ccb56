package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

type CompletionRequest struct {
	Operation string   `json:"operation"`
	Prompt    string   `json:"prompt"`
	Context   []string `json:"context"`
}

type CompletionResponse struct {
	Text string `json:"text"`
}

// InferenceProvider is the pluggable inference capability. Which vendor sits
// behind it is an operational choice, not part of the engine's design.
type InferenceProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, ProviderInfo, error)
}
