package providers

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// MockProvider produces deterministic extraction output without any network
// dependency. It scans the supplied context for a "Label: value" line that
// matches the field named in the prompt, so local runs and tests get stable,
// plausible results.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var mockFieldRe = regexp.MustCompile(`(?i)field name:\s*"?([^"\n]+)"?`)

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-extract-v1", Key: "mock"}

	field := ""
	if loc := mockFieldRe.FindStringSubmatch(req.Prompt); loc != nil {
		field = strings.TrimSpace(loc[1])
	}
	if field != "" {
		labelRe, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(field) + `\s*[:\-]\s*([^\n;.]+)`)
		if err == nil {
			for i, chunk := range req.Context {
				if sm := labelRe.FindStringSubmatch(chunk); sm != nil {
					quote := strings.TrimSpace(sm[0])
					payload, _ := json.Marshal(map[string]any{
						"value":       strings.TrimSpace(sm[1]),
						"confidence":  0.8,
						"chunk_index": i,
						"quote":       quote,
					})
					return CompletionResponse{Text: string(payload)}, info, nil
				}
			}
		}
	}
	return CompletionResponse{Text: `{"value": null, "confidence": 0.0, "chunk_index": -1, "quote": ""}`}, info, nil
}
