package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"tabrev/internal/models"
)

// UncitedConfidenceCap limits how much weight an answer can carry when the
// provider gives no verifiable citation.
const UncitedConfidenceCap = 0.35

var responseSchema = jsonschema.MustCompileString("extraction.json", `{
	"type": "object",
	"properties": {
		"value": {"type": ["string", "null"]},
		"confidence": {"type": "number"},
		"chunk_index": {"type": "integer"},
		"quote": {"type": "string"}
	},
	"required": ["value", "confidence"]
}`)

type rawResponse struct {
	Value      *string `json:"value"`
	Confidence float64 `json:"confidence"`
	ChunkIndex *int    `json:"chunk_index"`
	Quote      string  `json:"quote"`
}

// ParseResponse validates and interprets the provider's extraction output.
// chunks must be the excerpt list the prompt was built from, in the same
// order, so chunk_index resolves back to real document offsets. A null value
// means the model judged the field absent; ok=false in that case with no
// error.
func ParseResponse(text string, chunks []models.Chunk) (models.Candidate, bool, error) {
	payload, err := extractJSONObject(text)
	if err != nil {
		return models.Candidate{}, false, err
	}
	var loose any
	if err := json.Unmarshal([]byte(payload), &loose); err != nil {
		return models.Candidate{}, false, fmt.Errorf("decode extraction response: %w", err)
	}
	if err := responseSchema.Validate(loose); err != nil {
		return models.Candidate{}, false, fmt.Errorf("extraction response failed validation: %w", err)
	}
	var raw rawResponse
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return models.Candidate{}, false, fmt.Errorf("decode extraction response: %w", err)
	}

	if raw.Value == nil || strings.TrimSpace(*raw.Value) == "" {
		return models.Candidate{}, false, nil
	}

	conf := raw.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	cand := models.Candidate{Value: strings.TrimSpace(*raw.Value), Confidence: conf}
	cand.Citation = resolveCitation(raw, chunks)
	if cand.Citation == nil && cand.Confidence > UncitedConfidenceCap {
		cand.Confidence = UncitedConfidenceCap
	}
	return cand, true, nil
}

// resolveCitation maps the response's excerpt number and quote back onto the
// source chunk. Citations the text cannot corroborate are discarded rather
// than guessed at.
func resolveCitation(raw rawResponse, chunks []models.Chunk) *models.Citation {
	if raw.ChunkIndex == nil || *raw.ChunkIndex < 0 || *raw.ChunkIndex >= len(chunks) {
		return nil
	}
	chunk := chunks[*raw.ChunkIndex]
	needle := strings.TrimSpace(raw.Quote)
	if needle == "" && raw.Value != nil {
		needle = strings.TrimSpace(*raw.Value)
	}
	if needle == "" {
		return nil
	}
	at := strings.Index(chunk.Text, needle)
	if at < 0 {
		return nil
	}
	return &models.Citation{
		ChunkIndex: chunk.ChunkIndex,
		Start:      len([]rune(chunk.Text[:at])),
		End:        len([]rune(chunk.Text[:at+len(needle)])),
	}
}

// extractJSONObject tolerates providers that wrap the JSON object in prose
// or markdown fences by slicing from the first '{' to the last '}'.
func extractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in extraction response")
	}
	return text[start : end+1], nil
}
