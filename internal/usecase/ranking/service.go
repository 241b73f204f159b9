// Package ranking turns a travel query into a validated, hallucination-filtered ranked result.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/travelscout/internal/domain"
	"github.com/kailas-cloud/travelscout/internal/logger"
	"github.com/kailas-cloud/travelscout/internal/metrics"
)

// DefaultTopK is the candidate count retrieved per query.
const DefaultTopK = 3

// Request is one ranking query.
type Request struct {
	Client ClientSignals
	Query  string
	// Malformed marks a request whose body could not be decoded. It still counts against the
	// client's rate limit and then fails validation.
	Malformed bool
}

// Options tunes the pipeline.
type Options struct {
	TopK           int
	MaxQueryLength int // runes, 0 = unlimited
}

// Service runs the ranking pipeline. Stages run strictly in order and the first failure ends the
// request; nothing is retried.
type Service struct {
	limiter   RateLimiter
	retriever Retriever
	generator Generator
	opts      Options
	logger    *zap.Logger
}

// New creates a ranking service.
func New(limiter RateLimiter, retriever Retriever, generator Generator, opts Options, logger *zap.Logger) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Service{
		limiter:   limiter,
		retriever: retriever,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Search runs one query through rate limiting, retrieval, generation, validation and filtering.
func (s *Service) Search(ctx context.Context, req Request) (domain.SearchResult, error) {
	log := logger.FromContext(ctx, s.logger)
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)

	res, err := s.search(ctx, log, req)

	outcome := outcomeOf(err)
	metrics.SearchesTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		log.Info("Search failed",
			zap.String("outcome", outcome),
			zap.Duration("duration", time.Since(start)),
			zap.Int("embedding_calls", usage.Calls()),
			zap.Error(err),
		)
		return domain.SearchResult{}, err
	}

	log.Info("Search completed",
		zap.Int("matches", len(res.Matches)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("embedding_calls", usage.Calls()),
		zap.Int("embedding_tokens", usage.TotalTokens()),
	)
	return res, nil
}

func (s *Service) search(ctx context.Context, log *zap.Logger, req Request) (domain.SearchResult, error) {
	key := ClientKey(req.Client)
	if d := s.limiter.Check(key); !d.Allowed {
		log.Debug("Client rate limited", zap.String("client", key), zap.Duration("retry_after", d.RetryAfter))
		return domain.SearchResult{}, domain.NewRateLimited(d.RetryAfter)
	}

	if req.Malformed {
		return domain.SearchResult{}, fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return domain.SearchResult{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if s.opts.MaxQueryLength > 0 && utf8.RuneCountInString(query) > s.opts.MaxQueryLength {
		return domain.SearchResult{}, fmt.Errorf("%w: query exceeds %d characters", domain.ErrValidation, s.opts.MaxQueryLength)
	}

	candidates, err := s.retriever.Search(ctx, query, s.opts.TopK)
	if err != nil {
		return domain.SearchResult{}, classifyUpstream(fmt.Errorf("retrieve candidates: %w", err))
	}
	log.Debug("Candidates retrieved", zap.Ints("candidate_ids", itemIDs(candidates)))

	prompt, err := BuildPrompt(query, candidates)
	if err != nil {
		return domain.SearchResult{}, err
	}

	gen, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return domain.SearchResult{}, classifyUpstream(fmt.Errorf("generate ranking: %w", err))
	}
	log.Debug("Model responded",
		zap.Int("prompt_tokens", gen.PromptTokens),
		zap.Int("completion_tokens", gen.CompletionTokens),
		zap.String("text", gen.Text),
	)

	tree, raw, err := parseModelOutput(gen.Text)
	if err != nil {
		return domain.SearchResult{}, err
	}

	out, err := validateSchema(tree, raw)
	if err != nil {
		return domain.SearchResult{}, err
	}

	matches, dropped := filterHallucinations(out.Matches, candidates)
	if dropped > 0 {
		metrics.HallucinatedMatchesTotal.Add(float64(dropped))
		log.Warn("Dropped matches outside the candidate set",
			zap.Int("dropped", dropped),
			zap.Ints("candidate_ids", itemIDs(candidates)),
		)
	}

	return domain.SearchResult{Matches: matches, Explanation: out.Explanation}, nil
}

// classifyUpstream marks quota-like provider failures with ErrUpstreamQuota, keeping the cause.
func classifyUpstream(err error) error {
	if domain.IsQuotaError(err) && !errors.Is(err, domain.ErrUpstreamQuota) {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamQuota, err)
	}
	return err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrUpstreamQuota):
		return "upstream_quota"
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return "embedding_error"
	case errors.Is(err, domain.ErrGenerativeModelError):
		return "generation_error"
	case errors.Is(err, domain.ErrModelOutputParse):
		return "parse_error"
	case errors.Is(err, domain.ErrSchemaValidation):
		return "schema_error"
	default:
		return "error"
	}
}

func itemIDs(items []domain.CatalogItem) []int {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
