package extract

import (
	"fmt"
	"strings"

	"tabrev/internal/models"
)

// BuildPrompt renders the extraction instruction for one field. Excerpts are
// numbered by their position in the excerpt list, not by document chunk
// index; the response's chunk_index refers to that excerpt numbering.
func BuildPrompt(def models.FieldDefinition, chunks []models.Chunk) (string, []string) {
	var b strings.Builder
	b.WriteString("Extract one field value from the numbered document excerpts below.\n\n")
	fmt.Fprintf(&b, "Field name: %q\n", def.Name)
	fmt.Fprintf(&b, "Field type: %s\n", def.Type)
	if strings.TrimSpace(def.Hint) != "" {
		fmt.Fprintf(&b, "Hint: %s\n", def.Hint)
	}
	if def.Type == models.FieldEnum && len(def.EnumValues) > 0 {
		fmt.Fprintf(&b, "Allowed values: %s\n", strings.Join(def.EnumValues, ", "))
	}
	b.WriteString("\nRespond with a single JSON object:\n")
	b.WriteString(`{"value": <string or null if absent>, "confidence": <0.0-1.0>, "chunk_index": <excerpt number containing the value, or -1>, "quote": <verbatim text supporting the value>}`)
	b.WriteString("\nDo not include any text outside the JSON object.")

	excerpts := make([]string, 0, len(chunks))
	for i, c := range chunks {
		excerpts = append(excerpts, fmt.Sprintf("[%d] %s", i, c.Text))
	}
	return b.String(), excerpts
}
