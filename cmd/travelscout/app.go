package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/travelscout/internal/config"
	dbRedis "github.com/kailas-cloud/travelscout/internal/db/redis"
	"github.com/kailas-cloud/travelscout/internal/domain"
	"github.com/kailas-cloud/travelscout/internal/metrics"
	"github.com/kailas-cloud/travelscout/internal/repository/catalog"
	"github.com/kailas-cloud/travelscout/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/travelscout/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/travelscout/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/travelscout/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/travelscout/internal/usecase/health"
	rankinguc "github.com/kailas-cloud/travelscout/internal/usecase/ranking"
	"github.com/kailas-cloud/travelscout/internal/usecase/ratelimit"
	"github.com/kailas-cloud/travelscout/internal/usecase/vectorstore"
)

// app is the composition root shared by serve and search.
type app struct {
	cfg     config.Config
	store   *vectorstore.Service
	limiter *ratelimit.Service
	ranking *rankinguc.Service
	server  *chiTransport.Server
	cache   *dbRedis.Store
	logger  *zap.Logger
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.Register()

	items, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("Catalog loaded", zap.Int("items", len(items)), zap.String("path", cfg.Catalog.Path))

	a := &app{cfg: cfg, logger: logger}

	if cfg.Cache.Enabled {
		a.cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		if err := a.cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			a.cache.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Embedder chain: OpenAI -> Instrumented, plus Cached for catalog items only.
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	queryEmbedder := embeddinguc.NewInstrumentedEmbedder(base, cfg.Embedding.Provider, cfg.Embedding.Model, logger)

	var itemEmbedder domain.Embedder = queryEmbedder
	if a.cache != nil {
		itemEmbedder = embcache.New(queryEmbedder, a.cache, cfg.Embedding.Model,
			time.Duration(cfg.Cache.TTLHours)*time.Hour, metrics.EmbeddingCacheTotal, logger)
	}

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:         cfg.Generation.APIKey,
		BaseURL:        cfg.Generation.BaseURL,
		Model:          cfg.Generation.Model,
		Temperature:    cfg.Generation.Temperature,
		ResponseFormat: cfg.Generation.ResponseFormat,
		SchemaName:     rankinguc.SchemaName,
		Schema:         rankinguc.ResultSchema(),
		Timeout:        time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		Provider:       cfg.Generation.Provider,
		Logger:         logger,
	})

	a.store = vectorstore.New(items, itemEmbedder, queryEmbedder,
		vectorstore.Options{Concurrency: cfg.Embedding.Concurrency}, logger)
	a.limiter = ratelimit.New(ratelimit.Config{
		Limit:  cfg.RateLimit.Limit,
		Window: time.Duration(cfg.RateLimit.WindowSec) * time.Second,
	}, logger)
	a.ranking = rankinguc.New(a.limiter, a.store, generator, rankinguc.Options{
		TopK:           cfg.Ranking.TopK,
		MaxQueryLength: cfg.Ranking.MaxQueryLength,
	}, logger)

	components := healthuc.Components{
		Embedding:   base,
		Generation:  generator,
		VectorStore: a.store,
	}
	if a.cache != nil {
		components.Cache = a.cache
	}
	a.server = chiTransport.NewServer(a.ranking, healthuc.New(components), logger)

	logger.Info("Pipeline ready",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
		zap.String("response_format", cfg.Generation.ResponseFormat),
		zap.Int("top_k", cfg.Ranking.TopK),
	)
	return a, nil
}
