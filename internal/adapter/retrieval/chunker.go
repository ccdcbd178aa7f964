package retrieval

import (
	"context"
	"regexp"
	"strings"

	"queryly/internal/domain"
	"queryly/internal/util"
)

var sentenceEnd = regexp.MustCompile(`[.?!]\s+`)

// SplitSentences splits text after every '.', '?' or '!' that is followed by
// whitespace. Empty pieces are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// SemanticChunker groups consecutive sentences into chunks, starting a new
// chunk wherever the embedding distance between neighbouring sentence windows
// is unusually large.
type SemanticChunker struct {
	embedder      domain.EmbeddingService
	bufferSize    int
	breakpointStd float64
}

func NewSemanticChunker(embedder domain.EmbeddingService, bufferSize int, breakpointStd float64) *SemanticChunker {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &SemanticChunker{embedder: embedder, bufferSize: bufferSize, breakpointStd: breakpointStd}
}

func (c *SemanticChunker) Chunk(ctx context.Context, text string) ([]string, error) {
	sentences := SplitSentences(text)
	if len(sentences) < 2 {
		return sentences, nil
	}

	vectors, err := c.embedder.EmbedBatch(ctx, combineSentences(sentences, c.bufferSize))
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(vectors)-1)
	for i := 0; i < len(vectors)-1; i++ {
		d, err := util.CosineDistance(vectors[i], vectors[i+1])
		if err != nil {
			return nil, domain.NewModelCallError("embedding vectors are not comparable", err)
		}
		distances[i] = d
	}

	return groupAtBreakpoints(sentences, Breakpoints(distances, c.breakpointStd)), nil
}

// combineSentences returns, for each sentence, the sentence joined with up to
// bufferSize neighbours on each side.
func combineSentences(sentences []string, bufferSize int) []string {
	combined := make([]string, len(sentences))
	for i := range sentences {
		lo := max(0, i-bufferSize)
		hi := min(len(sentences), i+bufferSize+1)
		combined[i] = strings.Join(sentences[lo:hi], " ")
	}
	return combined
}

// Breakpoints returns the indexes i whose distance exceeds
// mean + amount*stddev. A chunk ends after sentence i.
func Breakpoints(distances []float64, amount float64) []int {
	mean, std := util.MeanStdDev(distances)
	threshold := mean + amount*std
	var idxs []int
	for i, d := range distances {
		if d > threshold {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func groupAtBreakpoints(sentences []string, breakpoints []int) []string {
	chunks := make([]string, 0, len(breakpoints)+1)
	start := 0
	for _, end := range breakpoints {
		chunks = append(chunks, strings.Join(sentences[start:end+1], " "))
		start = end + 1
	}
	if start < len(sentences) {
		chunks = append(chunks, strings.Join(sentences[start:], " "))
	}
	return chunks
}
