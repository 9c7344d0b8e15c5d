package proxy

import (
	"context"
	"time"

	"github.com/aleister1102/faleproxy/internal/models"
	"github.com/aleister1102/faleproxy/internal/urlhandler"
	"github.com/aleister1102/faleproxy/internal/logger"
	"github.com/rs/zerolog"
)

// Service runs the fetch and rewrite pipeline for one request at a time.
// It keeps no per-request state and is safe for concurrent use.
type Service struct {
	fetcher     PageFetcher
	transformer PageTransformer
	logger      zerolog.Logger
}

// NewService creates a new Service
func NewService(fetcher PageFetcher, transformer PageTransformer, zLogger zerolog.Logger) *Service {
	return &Service{
		fetcher:     fetcher,
		transformer: transformer,
		logger:      logger.Component(zLogger, "ProxyService"),
	}
}

// Fetch validates req, fetches the normalized URL once and rewrites the page.
// It returns ErrMissingURL for an empty URL and *UpstreamError for anything
// that goes wrong afterwards.
func (s *Service) Fetch(ctx context.Context, req models.FetchRequest) (*models.FetchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrMissingURL
	}

	target := urlhandler.EnsureURLHasProtocol(req.URL)
	start := time.Now()

	page, err := s.fetcher.FetchPage(ctx, target)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", target).Msg("Upstream fetch failed")
		return nil, NewUpstreamError(target, "fetch", err)
	}
	if page.URL == "" {
		page.URL = target
	}
	finalURL := page.FinalURL
	if finalURL == "" {
		finalURL = page.URL
	}

	result, err := s.transformer.Transform(page)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", target).Msg("Failed to rewrite page")
		return nil, NewUpstreamError(target, "rewrite", err)
	}

	s.logger.Info().
		Str("url", target).
		Str("final_url", page.FinalURL).
		Str("host", urlhandler.ExtractHostname(finalURL)).
		Int("replacements", result.Replacements).
		Dur("duration", time.Since(start)).
		Msg("Page fetched and rewritten")

	return &models.FetchResponse{
		Success:     true,
		Content:     result.HTML,
		Title:       result.Title,
		OriginalURL: req.URL,
	}, nil
}
