package store

import (
	"math"

	"github.com/lectern-ai/lectern/internal/domain"
)

// mmrLambda balances relevance against diversity in maximal marginal
// relevance re-ranking. 0.5 weighs both equally.
const mmrLambda = 0.5

// rerankMMR selects up to k results from candidates by maximal marginal
// relevance: each pick maximizes query similarity minus redundancy with the
// results already picked. Candidates must carry their embeddings.
func rerankMMR(query []float32, candidates []domain.SearchResult, k int) []domain.SearchResult {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	remaining := make([]domain.SearchResult, len(candidates))
	copy(remaining, candidates)

	selected := make([]domain.SearchResult, 0, k)
	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			relevance := cosineSimilarity(query, cand.Embedding)
			redundancy := 0.0
			for _, sel := range selected {
				if sim := cosineSimilarity(cand.Embedding, sel.Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := mmrLambda*relevance - (1-mmrLambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
