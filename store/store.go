// Package store keeps ready-to-use rule trees and root zone indexes warm:
// it serves them from a cache, falls back to fetching the raw sources, and
// refreshes both on a fixed interval.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xbojch/domainparser/cache"
	derrors "github.com/xbojch/domainparser/errors"
	"github.com/xbojch/domainparser/iana"
	blog "github.com/xbojch/domainparser/log"
	"github.com/xbojch/domainparser/psl"
)

// DefaultPSLURI is the canonical location of the Public Suffix List.
const DefaultPSLURI = "https://publicsuffix.org/list/public_suffix_list.dat"

// DefaultRZDURI is the canonical location of the IANA root zone database.
const DefaultRZDURI = "https://data.iana.org/TLD/tlds-alpha-by-domain.txt"

// Fetcher retrieves a text document from a URI.
type Fetcher interface {
	FetchText(ctx context.Context, uri string) (string, error)
}

// Config carries the source locations and cache/refresh policy.
type Config struct {
	// PSLURI is the location of the Public Suffix List text. Defaults to
	// DefaultPSLURI.
	PSLURI string

	// RZDURI is the location of the root zone database text. Defaults to
	// DefaultRZDURI.
	RZDURI string

	// TTL is the lifetime of cached source data. Zero means no expiry.
	TTL time.Duration

	// RefreshInterval is the period of the background refresh loop started
	// by Start. Defaults to 24 hours.
	RefreshInterval time.Duration
}

// Store serves the parsed Public Suffix List and root zone index. All
// methods are safe for concurrent use.
type Store struct {
	cfg     Config
	fetcher Fetcher
	cache   cache.Cache
	clk     clock.Clock
	logger  blog.Logger

	lookups   *prometheus.CounterVec
	fetches   *prometheus.CounterVec
	refreshes *prometheus.CounterVec

	mu       sync.RWMutex
	rules    *psl.RuleTree
	rootZone *iana.RootZoneIndex
}

// Metric label values for the two sources.
const (
	sourcePSL = "psl"
	sourceRZD = "rzd"
)

// New builds a Store. Counters are registered on stats immediately.
func New(cfg Config, fetcher Fetcher, c cache.Cache, clk clock.Clock, logger blog.Logger, stats prometheus.Registerer) *Store {
	if cfg.PSLURI == "" {
		cfg.PSLURI = DefaultPSLURI
	}
	if cfg.RZDURI == "" {
		cfg.RZDURI = DefaultRZDURI
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 24 * time.Hour
	}

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "domainparser_cache_lookups",
		Help: "Cache lookups for source data, labelled by source and result.",
	}, []string{"source", "result"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "domainparser_source_fetches",
		Help: "Fetches of raw source data, labelled by source and result.",
	}, []string{"source", "result"})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "domainparser_refreshes",
		Help: "Full refreshes of both sources, labelled by result.",
	}, []string{"result"})
	stats.MustRegister(lookups, fetches, refreshes)

	return &Store{
		cfg:       cfg,
		fetcher:   fetcher,
		cache:     c,
		clk:       clk,
		logger:    logger,
		lookups:   lookups,
		fetches:   fetches,
		refreshes: refreshes,
	}
}

// Rules returns the rule tree, loading it from cache or source on first
// use.
func (s *Store) Rules(ctx context.Context) (*psl.RuleTree, error) {
	s.mu.RLock()
	rules := s.rules
	s.mu.RUnlock()
	if rules != nil {
		return rules, nil
	}

	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	return rules, nil
}

// RootZone returns the root zone index, loading it from cache or source
// on first use.
func (s *Store) RootZone(ctx context.Context) (*iana.RootZoneIndex, error) {
	s.mu.RLock()
	rootZone := s.rootZone
	s.mu.RUnlock()
	if rootZone != nil {
		return rootZone, nil
	}

	rootZone, err := s.loadRootZone(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.rootZone = rootZone
	s.mu.Unlock()
	return rootZone, nil
}

func (s *Store) loadRules(ctx context.Context) (*psl.RuleTree, error) {
	key := cache.Key(cache.PSLPrefix, s.cfg.PSLURI)
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		rules := &psl.RuleTree{}
		err = json.Unmarshal([]byte(cached), rules)
		if err != nil {
			s.lookups.WithLabelValues(sourcePSL, "corrupt").Inc()
			return nil, derrors.CacheCorruptedError(key, err)
		}
		s.lookups.WithLabelValues(sourcePSL, "hit").Inc()
		return rules, nil
	}
	s.lookups.WithLabelValues(sourcePSL, "miss").Inc()

	return s.fetchRules(ctx, key)
}

func (s *Store) fetchRules(ctx context.Context, key string) (*psl.RuleTree, error) {
	text, err := s.fetcher.FetchText(ctx, s.cfg.PSLURI)
	if err != nil {
		s.fetches.WithLabelValues(sourcePSL, "error").Inc()
		return nil, err
	}
	rules, err := psl.NewRuleTreeFromString(text)
	if err != nil {
		s.fetches.WithLabelValues(sourcePSL, "error").Inc()
		return nil, err
	}
	s.fetches.WithLabelValues(sourcePSL, "success").Inc()
	s.logger.Infof("loaded public suffix list from %s: %d rules", s.cfg.PSLURI, rules.NumRules())

	s.storeEncoded(ctx, key, rules)
	return rules, nil
}

func (s *Store) loadRootZone(ctx context.Context) (*iana.RootZoneIndex, error) {
	key := cache.Key(cache.RZDPrefix, s.cfg.RZDURI)
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		rootZone := &iana.RootZoneIndex{}
		err = json.Unmarshal([]byte(cached), rootZone)
		if err != nil {
			s.lookups.WithLabelValues(sourceRZD, "corrupt").Inc()
			return nil, derrors.CacheCorruptedError(key, err)
		}
		s.lookups.WithLabelValues(sourceRZD, "hit").Inc()
		return rootZone, nil
	}
	s.lookups.WithLabelValues(sourceRZD, "miss").Inc()

	return s.fetchRootZone(ctx, key)
}

func (s *Store) fetchRootZone(ctx context.Context, key string) (*iana.RootZoneIndex, error) {
	text, err := s.fetcher.FetchText(ctx, s.cfg.RZDURI)
	if err != nil {
		s.fetches.WithLabelValues(sourceRZD, "error").Inc()
		return nil, err
	}
	rootZone, err := iana.ConvertRootZoneDatabaseFromString(text)
	if err != nil {
		s.fetches.WithLabelValues(sourceRZD, "error").Inc()
		return nil, err
	}
	s.fetches.WithLabelValues(sourceRZD, "success").Inc()
	s.logger.Infof("loaded root zone database from %s: version %s, %d records", s.cfg.RZDURI, rootZone.Version(), rootZone.Len())

	s.storeEncoded(ctx, key, rootZone)
	return rootZone, nil
}

// storeEncoded writes the JSON form of v to the cache. A failed write is
// logged, not returned: the in-memory copy is already usable.
func (s *Store) storeEncoded(ctx context.Context, key string, v any) {
	encoded, err := json.Marshal(v)
	if err != nil {
		s.logger.Errf("encoding %s for the cache: %s", key, err)
		return
	}
	err = s.cache.Set(ctx, key, string(encoded), s.cfg.TTL)
	if err != nil {
		s.logger.Warningf("caching %s: %s", key, err)
	}
}

// Refresh bypasses the cache, refetches both sources and replaces the
// in-memory and cached copies.
func (s *Store) Refresh(ctx context.Context) error {
	start := s.clk.Now()

	rules, err := s.fetchRules(ctx, cache.Key(cache.PSLPrefix, s.cfg.PSLURI))
	if err != nil {
		s.refreshes.WithLabelValues("error").Inc()
		return err
	}
	rootZone, err := s.fetchRootZone(ctx, cache.Key(cache.RZDPrefix, s.cfg.RZDURI))
	if err != nil {
		s.refreshes.WithLabelValues("error").Inc()
		return err
	}

	s.mu.Lock()
	s.rules = rules
	s.rootZone = rootZone
	s.mu.Unlock()

	s.refreshes.WithLabelValues("success").Inc()
	s.logger.Debugf("refreshed source data in %s", s.clk.Now().Sub(start))
	return nil
}

// Start performs the initial load synchronously so the caller fails fast,
// then refreshes both sources periodically until ctx is cancelled.
func (s *Store) Start(ctx context.Context) error {
	_, err := s.Rules(ctx)
	if err != nil {
		return err
	}
	_, err = s.RootZone(ctx)
	if err != nil {
		return err
	}
	go s.refreshPeriodically(ctx)
	return nil
}

func (s *Store) refreshPeriodically(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			timeoutCtx, cancel := context.WithTimeout(ctx, s.cfg.RefreshInterval-s.cfg.RefreshInterval/10)
			err := s.Refresh(timeoutCtx)
			cancel()
			if err != nil {
				s.logger.Errf("refreshing source data: %s", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
