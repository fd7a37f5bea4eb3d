package domain

// RetrievedPassage is one passage selected for grounding a single query.
type RetrievedPassage struct {
	// ChunkID is the underlying chunk's identifier.
	ChunkID string `json:"chunk_id"`

	// Text is the passage text.
	Text string `json:"text"`

	// Source is the passage's source metadata.
	Source SourceMeta `json:"source"`

	// Score is the cosine similarity against the query embedding.
	Score float64 `json:"score"`
}

// ContextBundle is the ordered set of passages retrieved for one query.
// It is query-scoped: consumed by answer composition and then discarded.
type ContextBundle struct {
	// Query is the question the bundle was retrieved for.
	Query string `json:"query"`

	// Passages are ordered by descending similarity.
	Passages []RetrievedPassage `json:"passages"`
}

// Empty reports whether no grounding passages were retrieved.
func (b ContextBundle) Empty() bool {
	return len(b.Passages) == 0
}

// SourceIDs returns the distinct document IDs of the bundle's passages,
// ordered by first appearance.
func (b ContextBundle) SourceIDs() []string {
	seen := make(map[string]bool, len(b.Passages))
	ids := make([]string, 0, len(b.Passages))
	for _, p := range b.Passages {
		if seen[p.Source.DocumentID] {
			continue
		}
		seen[p.Source.DocumentID] = true
		ids = append(ids, p.Source.DocumentID)
	}
	return ids
}

// Answer is a generated response with its source attribution.
// Sources is always a subset of the ContextBundle the answer was composed
// from; the system never cites a document that was not retrieved.
type Answer struct {
	// Text is the generated answer, or the fixed fallback when no
	// grounding was available.
	Text string `json:"text"`

	// Sources are distinct source document IDs, ordered by retrieval rank.
	// Empty for fallback answers.
	Sources []string `json:"sources"`
}
