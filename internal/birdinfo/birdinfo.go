// Package birdinfo enriches a bird species name with descriptive metadata
// from Wikipedia. Lookups are best-effort and memoized for the process
// lifetime: a failed or empty lookup never blocks the caller.
package birdinfo

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/wingman2025/birdtarifa/internal/logging"
	"github.com/wingman2025/birdtarifa/internal/observability"
)

// BirdInfo is the enrichment result for one species.
type BirdInfo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Extract     string `json:"extract,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	PageURL     string `json:"page_url,omitempty"`
	Source      string `json:"source"`
}

// Provider resolves a species name to metadata. A nil result with a nil
// error means the species could not be resolved.
type Provider interface {
	Lookup(ctx context.Context, species string) (*BirdInfo, error)
}

// cachedLookup wraps a result so absent lookups are memoized too.
type cachedLookup struct {
	info *BirdInfo
}

var (
	serviceLogger *slog.Logger
	closeLogger   func() error
)

func init() {
	var err error
	serviceLogger, closeLogger, err = logging.NewFileLogger("logs/birdinfo.log", "birdinfo", slog.LevelInfo)
	if err != nil || serviceLogger == nil {
		serviceLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLogger = func() error { return nil }
	}
}

// CloseLogger releases the package log file. Call during shutdown.
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}

// Service memoizes provider lookups keyed by normalized species name.
// Entries are immutable once stored; concurrent duplicate lookups for the
// same species may both hit the provider, last write wins.
type Service struct {
	provider Provider
	cache    Store
	metrics  *observability.Metrics
}

func NewService(provider Provider, cache Store, metrics *observability.Metrics) *Service {
	if cache == nil {
		cache = NewMemoryStore()
	}
	return &Service{provider: provider, cache: cache, metrics: metrics}
}

// Lookup returns enrichment metadata for a species, or nil when none could
// be found. Provider failures are logged and treated as a miss.
func (s *Service) Lookup(ctx context.Context, species string) *BirdInfo {
	species = strings.TrimSpace(species)
	if species == "" {
		return nil
	}
	key := strings.ToLower(species)

	if cached, ok := s.cache.Get(key); ok {
		s.metrics.CountEnrichmentLookup("cache_hit")
		return cached.info
	}

	start := time.Now()
	info, err := s.provider.Lookup(ctx, species)
	s.metrics.ObserveEnrichmentDuration(time.Since(start).Seconds())
	if err != nil {
		s.metrics.CountEnrichmentLookup("error")
		serviceLogger.Warn("bird info lookup failed", "species", species, "error", err)
		return nil
	}

	s.cache.Set(key, cachedLookup{info: info})
	if info == nil {
		s.metrics.CountEnrichmentLookup("miss")
		return nil
	}
	s.metrics.CountEnrichmentLookup("hit")
	return info
}
