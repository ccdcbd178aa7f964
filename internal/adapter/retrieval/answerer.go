package retrieval

import (
	"context"
	"strings"

	"queryly/internal/adapter/llm"
	"queryly/internal/config"
	"queryly/internal/domain"
	"queryly/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"
)

const answerTemplate = `You are an expert at providing correct answers to user queries.
I will provide you with both context and query, so answer accordingly.
Answer only from the context. If the context does not contain the answer, say so.

Query: {{.query}}
Context:
{{.context}}`

// Answerer answers a question from one document: it chunks the document,
// indexes the chunks for this call only, retrieves the most relevant ones and
// asks the model to answer from them.
type Answerer struct {
	model    llms.Model
	embedder domain.EmbeddingService
	chunker  *SemanticChunker
	prompt   prompts.PromptTemplate
	topK     int
	fetchK   int
	lambda   float64
}

func NewAnswerer(model llms.Model, embedder domain.EmbeddingService, cfg config.RetrievalConfig) *Answerer {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	fetchK := cfg.FetchK
	if fetchK <= 0 {
		fetchK = 20
	}
	return &Answerer{
		model:    model,
		embedder: embedder,
		chunker:  NewSemanticChunker(embedder, cfg.BufferSize, cfg.BreakpointStd),
		prompt:   prompts.NewPromptTemplate(answerTemplate, []string{"query", "context"}),
		topK:     topK,
		fetchK:   fetchK,
		lambda:   cfg.Lambda,
	}
}

func (a *Answerer) Answer(ctx context.Context, documentText, query string) (string, error) {
	if strings.TrimSpace(documentText) == "" {
		return "", domain.NewInvalidInputError("document text is empty")
	}
	if strings.TrimSpace(query) == "" {
		return "", domain.NewInvalidInputError("query is empty")
	}
	l := logger.Get()

	chunks, err := a.chunker.Chunk(ctx, documentText)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", domain.NewInvalidInputError("document contains no text")
	}

	vectors, err := a.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return "", err
	}
	index, err := NewIndex(chunks, vectors)
	if err != nil {
		return "", domain.NewModelCallError("failed to index document", err)
	}

	queryVector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return "", err
	}
	results, err := index.Search(queryVector, a.topK, a.fetchK, a.lambda)
	if err != nil {
		return "", domain.NewModelCallError("failed to search document", err)
	}
	l.Debug("Retrieved document context",
		zap.Int("chunks", index.Len()),
		zap.Int("selected", len(results)))

	contextParts := make([]string, 0, len(results))
	for _, r := range results {
		contextParts = append(contextParts, r.Text)
	}
	prompt, err := a.prompt.Format(map[string]any{
		"query":   query,
		"context": strings.Join(contextParts, "\n\n"),
	})
	if err != nil {
		return "", domain.NewInternalError("failed to build retrieval prompt", err)
	}

	resp, err := a.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		l.Error("Retrieval answer model call failed", zap.Error(err))
		return "", domain.NewModelCallError("failed to answer from document", err)
	}
	choice, err := llm.FirstChoice(resp)
	if err != nil {
		return "", domain.NewModelCallError("failed to answer from document", err)
	}
	return choice.Content, nil
}
