package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	endpointArtClasses  = "/api/art-classes"
	endpointSmallGifts  = "/api/small-gifts"
	endpointArtSupplies = "/api/art-supplies"
	endpointReturnGifts = "/api/return-gifts"

	cacheKeyPrefix = "catalog:"
)

var allEndpoints = []string{
	endpointArtClasses,
	endpointSmallGifts,
	endpointArtSupplies,
	endpointReturnGifts,
}

var categoryEndpoints = map[string][]string{
	"classes":      {endpointArtClasses},
	"gifts":        {endpointSmallGifts},
	"supplies":     {endpointArtSupplies},
	"return-gifts": {endpointReturnGifts},
}

// Service serves catalog collections through the CMS client with a
// best-effort response cache in front. Cache failures degrade to a
// direct fetch, never to an error.
type Service struct {
	client Client
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewService wires the catalog service.
func NewService(client Client, cache Cache, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{client: client, cache: cache, ttl: ttl, logger: logger}
}

// ArtClasses lists the art-classes collection.
func (s *Service) ArtClasses(ctx context.Context) ([]json.RawMessage, error) {
	return s.fetch(ctx, endpointArtClasses)
}

// SmallGifts lists the small-gifts collection.
func (s *Service) SmallGifts(ctx context.Context) ([]json.RawMessage, error) {
	return s.fetch(ctx, endpointSmallGifts)
}

// ArtSupplies lists the art-supplies collection.
func (s *Service) ArtSupplies(ctx context.Context) ([]json.RawMessage, error) {
	return s.fetch(ctx, endpointArtSupplies)
}

// ReturnGifts lists the return-gifts collection.
func (s *Service) ReturnGifts(ctx context.Context) ([]json.RawMessage, error) {
	return s.fetch(ctx, endpointReturnGifts)
}

// Products lists one category, or every collection when category is
// empty. An unknown category falls back to art classes, matching the
// site's historical behavior.
func (s *Service) Products(ctx context.Context, category string) ([]json.RawMessage, error) {
	endpoints := allEndpoints
	if category != "" {
		if mapped, ok := categoryEndpoints[category]; ok {
			endpoints = mapped
		} else {
			endpoints = []string{endpointArtClasses}
		}
	}

	results := make([][]json.RawMessage, len(endpoints))
	g, gctx := errgroup.WithContext(ctx)
	for i, endpoint := range endpoints {
		g.Go(func() error {
			items, err := s.fetch(gctx, endpoint)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var combined []json.RawMessage
	for _, items := range results {
		combined = append(combined, items...)
	}
	return combined, nil
}

func (s *Service) fetch(ctx context.Context, endpoint string) ([]json.RawMessage, error) {
	key := cacheKeyPrefix + endpoint

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("catalog cache read failed", zap.String("endpoint", endpoint), zap.Error(err))
		} else if ok {
			var items []json.RawMessage
			if err := json.Unmarshal(cached, &items); err == nil {
				return items, nil
			}
			s.logger.Warn("catalog cache entry corrupt", zap.String("endpoint", endpoint))
		}
	}

	items, err := s.client.Fetch(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
				s.logger.Warn("catalog cache write failed", zap.String("endpoint", endpoint), zap.Error(err))
			}
		}
	}
	return items, nil
}
