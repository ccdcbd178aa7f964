package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"queryly/internal/adapter/llm/llmtest"
	"queryly/internal/config"
	"queryly/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text to keyword counts over a tiny vocabulary.
type keywordEmbedder struct {
	vocab      []string
	batchCalls int
	err        error
}

func (e *keywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab)+1)
	for i, w := range e.vocab {
		vec[i] = float32(strings.Count(lower, w))
	}
	vec[len(e.vocab)] = 0.01
	return vec
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchCalls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// fixedEmbedder returns preset vectors for EmbedBatch.
type fixedEmbedder struct {
	vectors [][]float32
	inputs  []string
}

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vectors[0], nil
}

func (e *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.inputs = texts
	return e.vectors[:len(texts)], nil
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"three kinds of ends", "SELECT reads rows. Does WHERE filter? Yes!  GROUP BY groups", []string{"SELECT reads rows.", "Does WHERE filter?", "Yes!", "GROUP BY groups"}},
		{"no whitespace after dot", "Version 2.0 added CTEs. Done.", []string{"Version 2.0 added CTEs.", "Done."}},
		{"newline counts as whitespace", "One.\nTwo.", []string{"One.", "Two."}},
		{"blank", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.text))
		})
	}
}

func TestCombineSentences(t *testing.T) {
	got := combineSentences([]string{"a.", "b.", "c."}, 1)
	assert.Equal(t, []string{"a. b.", "a. b. c.", "b. c."}, got)
	assert.Equal(t, []string{"a.", "b."}, combineSentences([]string{"a.", "b."}, 0))
}

func TestBreakpoints(t *testing.T) {
	// mean 0.3, std ~0.346, threshold ~0.646 at amount 1
	assert.Equal(t, []int{2}, Breakpoints([]float64{0.1, 0.1, 0.9, 0.1}, 1))
	assert.Empty(t, Breakpoints([]float64{0.2, 0.2, 0.2}, 1))
	assert.Equal(t, []int{0, 1, 2}, Breakpoints([]float64{0.1, 0.2, 0.3}, -10))
}

func TestSemanticChunker_Chunk(t *testing.T) {
	ctx := context.Background()

	t.Run("splits at the large distance", func(t *testing.T) {
		emb := &fixedEmbedder{vectors: [][]float32{{1, 0}, {1, 0}, {0, 1}, {0, 1}}}
		c := NewSemanticChunker(emb, 1, 1.0)

		chunks, err := c.Chunk(ctx, "Cats purr. Cats nap. SQL joins. SQL groups.")
		require.NoError(t, err)
		assert.Equal(t, []string{"Cats purr. Cats nap.", "SQL joins. SQL groups."}, chunks)
		assert.Equal(t, "Cats purr. Cats nap.", emb.inputs[0], "windows include one neighbour")
	})

	t.Run("single sentence is one chunk without embedding", func(t *testing.T) {
		emb := &keywordEmbedder{vocab: []string{"join"}}
		c := NewSemanticChunker(emb, 1, 1.0)

		chunks, err := c.Chunk(ctx, "Only one sentence here")
		require.NoError(t, err)
		assert.Equal(t, []string{"Only one sentence here"}, chunks)
		assert.Zero(t, emb.batchCalls)
	})

	t.Run("embedding failure propagates", func(t *testing.T) {
		emb := &keywordEmbedder{err: domain.NewModelCallError("embed failed", nil)}
		_, err := NewSemanticChunker(emb, 1, 1.0).Chunk(ctx, "One. Two.")
		assert.True(t, domain.IsCode(err, domain.ErrModelCall))
	})
}

func TestIndex_Search(t *testing.T) {
	chunks := []string{"exact", "near duplicate", "diagonal", "orthogonal"}
	vectors := [][]float32{{1, 0}, {0.99, 0.14}, {0.7, 0.7}, {0, 1}}
	idx, err := NewIndex(chunks, vectors)
	require.NoError(t, err)
	query := []float32{1, 0}

	t.Run("lambda one equals relevance ranking", func(t *testing.T) {
		res, err := idx.Search(query, 3, 20, 1.0)
		require.NoError(t, err)
		require.Len(t, res, 3)
		assert.Equal(t, "exact", res[0].Text)
		assert.Equal(t, "near duplicate", res[1].Text)
		assert.Equal(t, "diagonal", res[2].Text)
		assert.GreaterOrEqual(t, res[0].Score, res[1].Score)
	})

	t.Run("low lambda prefers diverse chunks", func(t *testing.T) {
		res, err := idx.Search(query, 2, 3, 0.3)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, "exact", res[0].Text)
		assert.Equal(t, "diagonal", res[1].Text)
	})

	t.Run("fetchK bounds candidates", func(t *testing.T) {
		res, err := idx.Search(query, 2, 2, 0.0)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, "near duplicate", res[1].Text)
	})

	t.Run("k larger than index", func(t *testing.T) {
		res, err := idx.Search(query, 10, 20, 1.0)
		require.NoError(t, err)
		assert.Len(t, res, 4)
	})

	t.Run("mismatched input", func(t *testing.T) {
		_, err := NewIndex([]string{"a"}, nil)
		assert.Error(t, err)
	})
}

func testRetrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{TopK: 3, FetchK: 20, Lambda: 1.0, BufferSize: 1, BreakpointStd: 1.0}
}

func TestAnswerer_Answer(t *testing.T) {
	ctx := context.Background()
	doc := "The employees table stores salary per person. Salary is paid monthly. " +
		"An index speeds up lookups. A join combines two tables."

	t.Run("answers from retrieved context", func(t *testing.T) {
		emb := &keywordEmbedder{vocab: []string{"salary", "index", "join"}}
		model := llmtest.NewScriptedModel(llmtest.Text("Salary is paid monthly."))
		a := NewAnswerer(model, emb, testRetrievalConfig())

		answer, err := a.Answer(ctx, doc, "How often is salary paid?")
		require.NoError(t, err)
		assert.Equal(t, "Salary is paid monthly.", answer)

		calls := model.Calls()
		require.Len(t, calls, 1)
		prompt := llmtest.PromptText(calls[0])
		assert.Contains(t, prompt, "Query: How often is salary paid?")
		assert.Contains(t, prompt, "Salary is paid monthly.")
		assert.Contains(t, prompt, "If the context does not contain the answer, say so.")
	})

	t.Run("empty document", func(t *testing.T) {
		a := NewAnswerer(llmtest.NewScriptedModel(), &keywordEmbedder{}, testRetrievalConfig())
		_, err := a.Answer(ctx, "  ", "anything")
		assert.True(t, domain.IsCode(err, domain.ErrInvalidInput))
	})

	t.Run("model failure", func(t *testing.T) {
		emb := &keywordEmbedder{vocab: []string{"salary"}}
		model := llmtest.NewScriptedModel(llmtest.Fail(errors.New("503 from provider")))
		a := NewAnswerer(model, emb, testRetrievalConfig())

		_, err := a.Answer(ctx, doc, "salary?")
		require.Error(t, err)
		assert.True(t, domain.IsCode(err, domain.ErrModelCall))
	})

	t.Run("embedding failure", func(t *testing.T) {
		emb := &keywordEmbedder{err: domain.NewModelCallError("embed failed", errors.New("timeout"))}
		model := llmtest.NewScriptedModel()
		a := NewAnswerer(model, emb, testRetrievalConfig())

		_, err := a.Answer(ctx, doc, "salary?")
		assert.True(t, domain.IsCode(err, domain.ErrModelCall))
		assert.Empty(t, model.Calls())
	})
}
