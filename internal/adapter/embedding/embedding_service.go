package embedding

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"queryly/internal/cache"
	"queryly/internal/domain"
	"queryly/internal/logger"
	"queryly/internal/util"

	"github.com/tmc/langchaingo/embeddings"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultEmbeddingTTL = 168 * time.Hour
	defaultBatchSize    = 64
	maxParallelBatches  = 4
)

// LangchainEmbeddingService implements domain.EmbeddingService over a
// langchaingo embedder. When a cache is set, vectors are stored gob-encoded
// under a key derived from the text and the model.
type LangchainEmbeddingService struct {
	embedder  embeddings.Embedder
	source    string
	model     string
	cache     domain.Cache
	cacheTTL  time.Duration
	batchSize int
	sfGroup   singleflight.Group
}

// NewLangchainEmbeddingService wraps embedder. cache may be nil.
func NewLangchainEmbeddingService(embedder embeddings.Embedder, source, model string, cache domain.Cache, cacheTTL time.Duration) (*LangchainEmbeddingService, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultEmbeddingTTL
	}
	return &LangchainEmbeddingService{
		embedder:  embedder,
		source:    source,
		model:     model,
		cache:     cache,
		cacheTTL:  cacheTTL,
		batchSize: defaultBatchSize,
	}, nil
}

// Embed returns the embedding of a single text.
func (s *LangchainEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, domain.NewInvalidInputError("input text cannot be empty for embedding")
	}
	if s.cache == nil {
		vec, err := s.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, domain.NewModelCallError("failed to generate embedding", err)
		}
		return vec, nil
	}

	key := s.cacheKey(text)
	if vec, ok := s.readCache(ctx, key); ok {
		return vec, nil
	}

	res, err, _ := s.sfGroup.Do(key, func() (interface{}, error) {
		vec, fetchErr := s.embedder.EmbedQuery(ctx, text)
		if fetchErr != nil {
			return nil, domain.NewModelCallError("failed to generate embedding", fetchErr)
		}
		if vec == nil {
			return nil, domain.NewModelCallError("received nil embedding without error", nil)
		}
		s.writeCache(ctx, key, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	if vec, ok := res.([]float32); ok {
		return vec, nil
	}
	return nil, domain.NewInternalError(fmt.Sprintf("unexpected type from singleflight.Do for embedding: %T", res), nil)
}

// EmbedBatch embeds texts with as few embedder calls as the cache allows.
// Uncached texts are sent in batches, several batches in flight at once.
func (s *LangchainEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, len(texts))
	missing := make([]int, 0, len(texts))
	for i, text := range texts {
		if s.cache != nil {
			if vec, ok := s.readCache(ctx, s.cacheKey(text)); ok {
				result[i] = vec
				continue
			}
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return result, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBatches)
	for start := 0; start < len(missing); start += s.batchSize {
		end := min(start+s.batchSize, len(missing))
		batch := missing[start:end]
		g.Go(func() error {
			inputs := make([]string, len(batch))
			for j, idx := range batch {
				inputs[j] = texts[idx]
			}
			vecs, err := s.embedder.EmbedDocuments(gctx, inputs)
			if err != nil {
				return domain.NewModelCallError("failed to generate embeddings", err)
			}
			if len(vecs) != len(inputs) {
				return domain.NewModelCallError(fmt.Sprintf("embedder returned %d vectors for %d inputs", len(vecs), len(inputs)), nil)
			}
			for j, idx := range batch {
				result[idx] = vecs[j]
				if s.cache != nil {
					s.writeCache(gctx, s.cacheKey(texts[idx]), vecs[j])
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LangchainEmbeddingService) cacheKey(text string) string {
	return cache.GenerateCacheKey("embedding", s.source, util.HashText(text), s.model)
}

func (s *LangchainEmbeddingService) readCache(ctx context.Context, key string) ([]float32, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Embedding cache read failed", zap.String("cacheKey", key), zap.Error(err))
		}
		return nil, false
	}
	var vec []float32
	if err := gob.NewDecoder(bytes.NewReader([]byte(raw))).Decode(&vec); err != nil {
		logger.Get().Warn("Failed to decode cached embedding", zap.String("cacheKey", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (s *LangchainEmbeddingService) writeCache(ctx context.Context, key string, vec []float32) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(vec); err != nil {
		logger.Get().Warn("Failed to gob encode embedding for caching", zap.String("cacheKey", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, buffer.String(), s.cacheTTL); err != nil {
		logger.Get().Warn("Failed to cache embedding", zap.String("cacheKey", key), zap.Error(err))
	}
}
