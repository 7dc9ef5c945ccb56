// Package heuristics is the deterministic, rule-based extractor. It applies
// a field's hint pattern (or stock patterns for the field's type) to chunk
// text in document order and returns the first match. Confidence is
// categorical per match kind, never learned.
package heuristics

import (
	"regexp"
	"strings"

	"tabrev/internal/models"
)

// Categorical confidence per match kind.
const (
	ConfidenceHint      = 0.9
	ConfidenceTypeMatch = 0.6
	ConfidenceProximity = 0.5
)

var typePatterns = map[models.FieldType][]*regexp.Regexp{
	models.FieldDate: {
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`),
	},
	models.FieldCurrency: {
		regexp.MustCompile(`\$[\d,]+(?:\.\d+)?`),
		regexp.MustCompile(`(?:USD|EUR|GBP)\s*[\d,]+(?:\.\d+)?`),
	},
	models.FieldBoolean: {
		regexp.MustCompile(`(?i)\b(yes|no|true|false|agreed|denied)\b`),
	},
}

// Match runs the heuristic extractor for one field over the document's
// chunks. The first match in chunk order wins; ties resolve to document
// order so results are reproducible. A miss returns ok=false, which is an
// absence of evidence rather than an error.
func Match(def models.FieldDefinition, chunks []models.Chunk) (models.Candidate, bool) {
	if hint := strings.TrimSpace(def.Hint); hint != "" {
		if re, err := regexp.Compile("(?i)" + hint); err == nil {
			if cand, ok := firstMatch(re, chunks, ConfidenceHint); ok {
				return cand, true
			}
		}
	}
	for _, re := range typePatterns[def.Type] {
		if cand, ok := firstMatch(re, chunks, ConfidenceTypeMatch); ok {
			return cand, true
		}
	}
	if re := labelPattern(def.Name); re != nil {
		if cand, ok := firstMatch(re, chunks, ConfidenceProximity); ok {
			return cand, true
		}
	}
	return models.Candidate{}, false
}

// firstMatch scans chunks in order and returns the first pattern hit. The
// captured group is preferred over the whole match when the pattern has one.
func firstMatch(re *regexp.Regexp, chunks []models.Chunk, confidence float64) (models.Candidate, bool) {
	for _, c := range chunks {
		loc := re.FindStringSubmatchIndex(c.Text)
		if loc == nil {
			continue
		}
		start, end := loc[0], loc[1]
		if len(loc) >= 4 && loc[2] >= 0 {
			start, end = loc[2], loc[3]
		}
		value := strings.TrimSpace(c.Text[start:end])
		if value == "" {
			continue
		}
		return models.Candidate{
			Value:      value,
			Confidence: confidence,
			Citation: &models.Citation{
				ChunkIndex: c.ChunkIndex,
				Start:      len([]rune(c.Text[:start])),
				End:        len([]rune(c.Text[:end])),
			},
		}, true
	}
	return models.Candidate{}, false
}

// labelPattern matches "Field Name: value" style labels for fields without
// a usable hint.
func labelPattern(name string) *regexp.Regexp {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(name) + `\s*[:\-]\s*([^\n;.]+)`)
	if err != nil {
		return nil
	}
	return re
}
