package retrieval

import (
	"errors"
	"math"
	"sort"

	"queryly/internal/util"
)

// SearchResult is a chunk selected by Search with its similarity to the query.
type SearchResult struct {
	Text  string
	Score float64
}

// Index is a brute-force cosine index over the chunks of one document. It is
// built per request and never shared.
type Index struct {
	chunks  []string
	vectors [][]float32
}

func NewIndex(chunks []string, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, errors.New("chunks and vectors length mismatch")
	}
	return &Index{chunks: chunks, vectors: vectors}, nil
}

func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Search takes the fetchK chunks most similar to query and picks k of them by
// maximal marginal relevance. lambda 1 ranks purely by relevance, lambda 0
// purely by diversity.
func (idx *Index) Search(query []float32, k, fetchK int, lambda float64) ([]SearchResult, error) {
	if k <= 0 || len(idx.chunks) == 0 {
		return nil, nil
	}
	if fetchK < k {
		fetchK = k
	}

	scores := make([]float64, len(idx.vectors))
	for i, v := range idx.vectors {
		s, err := util.CosineSimilarity(query, v)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}

	candidates := make([]int, len(scores))
	for i := range candidates {
		candidates[i] = i
	}
	sort.SliceStable(candidates, func(a, b int) bool { return scores[candidates[a]] > scores[candidates[b]] })
	if len(candidates) > fetchK {
		candidates = candidates[:fetchK]
	}

	selected, err := idx.mmr(candidates, scores, min(k, len(candidates)), lambda)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(selected))
	for _, i := range selected {
		results = append(results, SearchResult{Text: idx.chunks[i], Score: scores[i]})
	}
	return results, nil
}

// mmr iterates candidates in descending relevance, so ties keep the more
// relevant candidate.
func (idx *Index) mmr(candidates []int, scores []float64, k int, lambda float64) ([]int, error) {
	if k <= 0 {
		return nil, nil
	}
	selected := []int{candidates[0]}
	chosen := map[int]bool{candidates[0]: true}

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)
		for _, c := range candidates {
			if chosen[c] {
				continue
			}
			redundancy := math.Inf(-1)
			for _, s := range selected {
				sim, err := util.CosineSimilarity(idx.vectors[c], idx.vectors[s])
				if err != nil {
					return nil, err
				}
				redundancy = math.Max(redundancy, sim)
			}
			score := lambda*scores[c] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				best = c
			}
		}
		if best == -1 {
			break
		}
		selected = append(selected, best)
		chosen[best] = true
	}
	return selected, nil
}
