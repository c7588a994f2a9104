// Package knowledge holds a small built-in base of medical reference
// snippets and answers nearest-neighbor queries against it. The base is
// embedded once on startup and searched in memory; it is far too small
// to justify a round trip to the vector database.
package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/medreport/companion/internal/core/ports"
)

type entry struct {
	id   string
	text string
}

var builtinEntries = []entry{
	{"kb1", "Low hemoglobin (Hb) may indicate anemia; common causes include iron deficiency, chronic disease, or blood loss. Symptoms: fatigue, pallor, shortness of breath."},
	{"kb2", "High white blood cell count (leukocytosis) may suggest infection, inflammation, leukemia, or stress response. Normal range: 4,000-11,000 cells/μL."},
	{"kb3", "Low platelet counts (thrombocytopenia) increase bleeding risk; causes include medications, infection, or immune conditions."},
	{"kb6", "High LDL cholesterol increases cardiovascular risk; lifestyle and lipid-lowering therapy may be indicated depending on level."},
	{"kb7", "Low HDL cholesterol (<40 mg/dL in men, <50 mg/dL in women) increases cardiovascular risk; exercise and niacin may help increase levels."},
	{"kb8", "High triglycerides (>150 mg/dL) associated with metabolic syndrome, diabetes, and pancreatitis risk. Dietary modification recommended."},
	{"kb15", "Elevated creatinine indicates decreased kidney function; normal varies by age, sex, and muscle mass. Used to calculate eGFR."},
	{"kb23", "Elevated HbA1c (>6.5%) indicates diabetes diagnosis; 5.7-6.4% suggests prediabetes. Target <7% for most diabetic patients."},
	{"kb50", "Normal menisci and ligaments indicate healthy joint structures with no tears or damage. This is a positive finding showing good joint stability."},
	{"kb51", "Osteochondral changes may indicate early arthritis or cartilage damage. When absent, it suggests healthy joint surfaces."},
	{"kb52", "Subchondral cystic changes can indicate joint degeneration or arthritis. These appear as fluid-filled spaces in the bone under cartilage."},
	{"kb53", "Chondromalacia patella is softening of cartilage behind the kneecap, often causing knee pain and stiffness."},
	{"kb54", "Joint effusion means fluid accumulation in the joint space, often due to injury, inflammation, or infection."},
	{"kb55", "Normal joint space indicates healthy cartilage thickness and no significant arthritis or joint degeneration."},
}

// Base answers similarity searches over the built-in entries. Entry
// vectors are computed lazily on first use so constructing a Base never
// touches the embedding service.
type Base struct {
	embedder ports.Embedder
	entries  []entry

	mu      sync.Mutex
	vectors [][]float32
}

var _ ports.KnowledgeSearcher = (*Base)(nil)

func NewBase(embedder ports.Embedder) *Base {
	return &Base{
		embedder: embedder,
		entries:  builtinEntries,
	}
}

func (b *Base) Closest(ctx context.Context, text string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	vectors, err := b.entryVectors(ctx)
	if err != nil {
		return nil, err
	}

	queryVec, err := b.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed knowledge query: %w", err)
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(vectors))
	for i, vec := range vectors {
		ranked = append(ranked, scored{idx: i, score: cosine(queryVec, vec)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]string, 0, limit)
	for _, r := range ranked[:limit] {
		out = append(out, b.entries[r.idx].text)
	}
	return out, nil
}

func (b *Base) entryVectors(ctx context.Context) ([][]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.vectors != nil {
		return b.vectors, nil
	}

	texts := make([]string, len(b.entries))
	for i, e := range b.entries {
		texts[i] = e.text
	}
	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed knowledge base: %w", err)
	}
	if len(vectors) != len(b.entries) {
		return nil, fmt.Errorf("embed knowledge base: got %d vectors for %d entries", len(vectors), len(b.entries))
	}

	b.vectors = vectors
	return vectors, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
