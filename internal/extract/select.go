package extract

import (
	"regexp"
	"sort"
	"strings"

	"tabrev/internal/models"
)

// DefaultTopK bounds how many chunks travel to the provider per field.
const DefaultTopK = 5

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range tokenRe.FindAllString(strings.ToLower(s), -1) {
		if len(t) < 2 {
			continue
		}
		out[t] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SelectChunks picks the chunks most likely to contain the field. The chunk
// a prior candidate cites always rides along first; the rest are ranked by
// token overlap with the field's name and hint, ties broken by document
// order.
func SelectChunks(def models.FieldDefinition, chunks []models.Chunk, prior *models.Candidate, topK int) []models.Chunk {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(chunks) <= topK {
		return chunks
	}

	query := tokenize(def.Name + " " + def.Hint)
	type scored struct {
		chunk models.Chunk
		score float64
	}
	ranked := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		ranked = append(ranked, scored{chunk: c, score: jaccard(query, tokenize(c.Text))})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].chunk.ChunkIndex < ranked[j].chunk.ChunkIndex
	})

	selected := make([]models.Chunk, 0, topK)
	seen := make(map[int]struct{})
	if prior != nil && prior.Citation != nil {
		for _, c := range chunks {
			if c.ChunkIndex == prior.Citation.ChunkIndex {
				selected = append(selected, c)
				seen[c.ChunkIndex] = struct{}{}
				break
			}
		}
	}
	for _, r := range ranked {
		if len(selected) >= topK {
			break
		}
		if _, ok := seen[r.chunk.ChunkIndex]; ok {
			continue
		}
		selected = append(selected, r.chunk)
		seen[r.chunk.ChunkIndex] = struct{}{}
	}
	// Present excerpts in document order regardless of rank.
	sort.Slice(selected, func(i, j int) bool { return selected[i].ChunkIndex < selected[j].ChunkIndex })
	return selected
}
