// Package vectorstore holds the embedded catalog and answers top-k semantic searches over it.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/travelscout/internal/domain"
	"github.com/kailas-cloud/travelscout/internal/domain/vector"
)

// DefaultTopK is the candidate count handed to the generative model.
const DefaultTopK = 3

const defaultConcurrency = 4

type embeddedItem struct {
	item      domain.CatalogItem
	embedding []float32
}

type scoredItem struct {
	item  *embeddedItem
	score float64
}

// Options tunes the store.
type Options struct {
	Concurrency int // parallel item embedding calls during initialization
}

// Service is the in-memory vector store. It starts Uninitialized and moves to Ready once every
// catalog item has been embedded.
type Service struct {
	catalog     []domain.CatalogItem
	itemEmbed   Embedder
	queryEmbed  Embedder
	concurrency int
	logger      *zap.Logger

	group singleflight.Group

	mu    sync.RWMutex
	ready bool
	items []embeddedItem
	dims  int
}

// New creates a vector store over catalog. Items are embedded with itemEmbed (which may cache),
// queries with queryEmbed.
func New(catalog []domain.CatalogItem, itemEmbed, queryEmbed Embedder, opts Options, logger *zap.Logger) *Service {
	items := make([]domain.CatalogItem, len(catalog))
	for i, item := range catalog {
		items[i] = item.Clone()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Service{
		catalog:     items,
		itemEmbed:   itemEmbed,
		queryEmbed:  queryEmbed,
		concurrency: opts.Concurrency,
		logger:      logger,
	}
}

// Ready reports whether the catalog has been embedded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Size returns the number of catalog items the store covers.
func (s *Service) Size() int {
	return len(s.catalog)
}

// Initialize embeds the whole catalog. Concurrent callers share one pass; once Ready it is a no-op.
// On failure the store stays Uninitialized and the next call retries.
func (s *Service) Initialize(ctx context.Context) error {
	if s.Ready() {
		return nil
	}

	// The shared pass must not die with whichever caller happened to start it.
	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("init", func() (any, error) {
		if s.Ready() {
			return nil, nil
		}
		return nil, s.build(runCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("wait for vector store init: %w", ctx.Err())
	}
}

func (s *Service) build(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("Initializing vector store", zap.Int("items", len(s.catalog)))

	embedded := make([]embeddedItem, len(s.catalog))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range s.catalog {
		g.Go(func() error {
			res, err := s.itemEmbed.Embed(gctx, s.catalog[i].EmbeddingText())
			if err != nil {
				return fmt.Errorf("embed catalog item %d: %w", s.catalog[i].ID, err)
			}
			embedded[i] = embeddedItem{item: s.catalog[i], embedding: res.Embedding}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Vector store initialization failed", zap.Error(err))
		return err
	}

	dims := 0
	for _, e := range embedded {
		if dims == 0 {
			dims = len(e.embedding)
		}
		if len(e.embedding) != dims || dims == 0 {
			return fmt.Errorf("catalog item %d has %d dimensions, want %d: %w: %w",
				e.item.ID, len(e.embedding), dims, domain.ErrEmbeddingProviderError, domain.ErrVectorDimMismatch)
		}
	}

	s.mu.Lock()
	s.items = embedded
	s.dims = dims
	s.ready = true
	s.mu.Unlock()

	s.logger.Info("Vector store initialized",
		zap.Int("items", len(embedded)),
		zap.Int("dimensions", dims),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Search returns at most k catalog items ordered by descending cosine similarity to query.
// Ties keep catalog order. k <= 0 means DefaultTopK.
func (s *Service) Search(ctx context.Context, query string, k int) ([]domain.CatalogItem, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	if err := s.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize vector store: %w", err)
	}

	s.mu.RLock()
	items, dims := s.items, s.dims
	s.mu.RUnlock()

	if len(items) == 0 {
		return []domain.CatalogItem{}, nil
	}

	res, err := s.queryEmbed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(res.Embedding) != dims {
		return nil, fmt.Errorf("query has %d dimensions, catalog has %d: %w: %w",
			len(res.Embedding), dims, domain.ErrEmbeddingProviderError, domain.ErrVectorDimMismatch)
	}

	scored := make([]scoredItem, len(items))
	for i := range items {
		scored[i] = scoredItem{item: &items[i], score: vector.Cosine(res.Embedding, items[i].embedding)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if k > len(scored) {
		k = len(scored)
	}
	out := make([]domain.CatalogItem, k)
	for i := range out {
		out[i] = scored[i].item.item.Clone()
	}

	if ce := s.logger.Check(zap.DebugLevel, "Vector search completed"); ce != nil {
		ids := make([]int, k)
		for i := range out {
			ids[i] = out[i].ID
		}
		ce.Write(zap.Ints("candidate_ids", ids), zap.Float64("top_score", scored[0].score))
	}

	return out, nil
}
