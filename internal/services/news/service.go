// Package news aggregates headlines from several providers
package news

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

// Service implements NewsService
type Service struct {
	providers map[models.NewsSource]interfaces.NewsProvider
	logger    *common.Logger
}

// NewService creates a new news service
func NewService(providers map[models.NewsSource]interfaces.NewsProvider, logger *common.Logger) *Service {
	registry := make(map[models.NewsSource]interfaces.NewsProvider, len(providers))
	for src, p := range providers {
		if p != nil {
			registry[src] = p
		}
	}
	return &Service{
		providers: registry,
		logger:    logger,
	}
}

type sourceResult struct {
	items []models.NewsItem
	err   error
}

// FetchNews queries each source concurrently. A source that fails adds a
// warning; items from the others are concatenated in the order sources
// were given. A partially failed source keeps its items and adds one
// warning per failure.
func (s *Service) FetchNews(ctx context.Context, sources []models.NewsSource, req models.NewsRequest) *models.NewsResult {
	results := make([]sourceResult, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		p, ok := s.providers[src]
		if !ok {
			results[i].err = fmt.Errorf("unknown news source %q", src)
			continue
		}
		g.Go(func() error {
			start := time.Now()
			items, err := p.FetchNews(ctx, req)
			results[i] = sourceResult{items: items, err: err}
			s.logger.Debug().
				Str("source", string(src)).
				Int("items", len(items)).
				Dur("elapsed", time.Since(start)).
				Bool("ok", err == nil).
				Msg("News source fetched")
			return nil
		})
	}
	_ = g.Wait()

	out := &models.NewsResult{Items: []models.NewsItem{}}
	for i, r := range results {
		if partial, ok := common.AsPartial(r.err); ok {
			for _, f := range partial.Failures {
				s.logger.Warn().Str("source", string(sources[i])).Str("failure", f).Msg("News source partially failed")
				out.Warnings = append(out.Warnings, models.NewsWarning{Source: sources[i], Message: f})
			}
			out.Items = append(out.Items, r.items...)
			continue
		}
		if r.err != nil {
			s.logger.Warn().Str("source", string(sources[i])).Err(r.err).Msg("News source failed")
			out.Warnings = append(out.Warnings, models.NewsWarning{
				Source:  sources[i],
				Message: r.err.Error(),
			})
			continue
		}
		out.Items = append(out.Items, r.items...)
	}
	return out
}

// Ensure Service implements NewsService
var _ interfaces.NewsService = (*Service)(nil)
