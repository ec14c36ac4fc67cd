package store

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xbojch/domainparser/cache"
	derrors "github.com/xbojch/domainparser/errors"
	blog "github.com/xbojch/domainparser/log"
	"github.com/xbojch/domainparser/psl"
	"github.com/xbojch/domainparser/test"
)

const listText = `// ===BEGIN ICANN DOMAINS===
com
uk
co.uk
// ===END ICANN DOMAINS===
// ===BEGIN PRIVATE DOMAINS===
github.io
// ===END PRIVATE DOMAINS===
`

const rootZoneText = `# Version 2023090400, Last Updated Mon Sep  4 07:07:01 2023 UTC
COM
ORG
UK
`

// fakeFetcher returns canned documents per URI and counts calls.
type fakeFetcher struct {
	docs  map[string]string
	err   error
	calls int
}

func (f *fakeFetcher) FetchText(_ context.Context, uri string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	doc, ok := f.docs[uri]
	if !ok {
		return "", derrors.SourceUnreachableError(uri, nil)
	}
	return doc, nil
}

func newTestStore(t *testing.T, fetcher Fetcher, c cache.Cache) *Store {
	t.Helper()
	return New(Config{
		PSLURI: "https://psl.example/list.dat",
		RZDURI: "https://rzd.example/tlds.txt",
		TTL:    time.Hour,
	}, fetcher, c, clock.NewFake(), blog.NewMock(), prometheus.NewRegistry())
}

func testFetcher() *fakeFetcher {
	return &fakeFetcher{docs: map[string]string{
		"https://psl.example/list.dat": listText,
		"https://rzd.example/tlds.txt": rootZoneText,
	}}
}

func TestRulesFetchOnMiss(t *testing.T) {
	fetcher := testFetcher()
	s := newTestStore(t, fetcher, cache.NewInMem(clock.NewFake()))

	rules, err := s.Rules(context.Background())
	test.AssertNotError(t, err, "loading rules")
	test.AssertEquals(t, rules.NumRules(), 3)
	test.AssertEquals(t, fetcher.calls, 1)

	test.AssertMetricWithLabelsEquals(t, s.lookups, prometheus.Labels{"source": "psl", "result": "miss"}, 1)
	test.AssertMetricWithLabelsEquals(t, s.fetches, prometheus.Labels{"source": "psl", "result": "success"}, 1)

	// Subsequent calls are served from memory.
	_, err = s.Rules(context.Background())
	test.AssertNotError(t, err, "reloading rules")
	test.AssertEquals(t, fetcher.calls, 1)
}

func TestRulesCacheHit(t *testing.T) {
	fetcher := testFetcher()
	c := cache.NewInMem(clock.NewFake())

	rules, err := psl.NewRuleTreeFromString(listText)
	test.AssertNotError(t, err, "building fixture rules")
	encoded, err := json.Marshal(rules)
	test.AssertNotError(t, err, "encoding fixture rules")
	key := cache.Key(cache.PSLPrefix, "https://psl.example/list.dat")
	err = c.Set(context.Background(), key, string(encoded), 0)
	test.AssertNotError(t, err, "seeding cache")

	s := newTestStore(t, fetcher, c)
	got, err := s.Rules(context.Background())
	test.AssertNotError(t, err, "loading rules")
	test.AssertEquals(t, got.NumRules(), rules.NumRules())
	test.AssertEquals(t, fetcher.calls, 0)
	test.AssertMetricWithLabelsEquals(t, s.lookups, prometheus.Labels{"source": "psl", "result": "hit"}, 1)
}

func TestRulesCorruptCache(t *testing.T) {
	c := cache.NewInMem(clock.NewFake())
	key := cache.Key(cache.PSLPrefix, "https://psl.example/list.dat")
	err := c.Set(context.Background(), key, "{not json", 0)
	test.AssertNotError(t, err, "seeding cache")

	s := newTestStore(t, testFetcher(), c)
	_, err = s.Rules(context.Background())
	test.AssertError(t, err, "loading corrupt cache entry")
	test.Assert(t, derrors.Is(err, derrors.CacheCorrupted), "expected a cache corruption error")
	test.AssertMetricWithLabelsEquals(t, s.lookups, prometheus.Labels{"source": "psl", "result": "corrupt"}, 1)
}

func TestRulesFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: derrors.SourceUnreachableError("https://psl.example/list.dat", nil)}
	s := newTestStore(t, fetcher, cache.NewInMem(clock.NewFake()))

	_, err := s.Rules(context.Background())
	test.AssertError(t, err, "fetching from a failing source")
	test.Assert(t, derrors.Is(err, derrors.SourceUnreachable), "expected an unreachable source error")
	test.AssertMetricWithLabelsEquals(t, s.fetches, prometheus.Labels{"source": "psl", "result": "error"}, 1)
}

func TestRootZone(t *testing.T) {
	fetcher := testFetcher()
	s := newTestStore(t, fetcher, cache.NewInMem(clock.NewFake()))

	rootZone, err := s.RootZone(context.Background())
	test.AssertNotError(t, err, "loading root zone")
	test.AssertEquals(t, rootZone.Len(), 3)
	test.AssertEquals(t, rootZone.Version(), "2023090400")
	test.Assert(t, rootZone.Contains("com"), "expected com in the root zone")
	test.AssertMetricWithLabelsEquals(t, s.fetches, prometheus.Labels{"source": "rzd", "result": "success"}, 1)

	// Subsequent calls are served from memory.
	_, err = s.RootZone(context.Background())
	test.AssertNotError(t, err, "reloading root zone")
	test.AssertEquals(t, fetcher.calls, 1)
}

func TestRootZoneRoundTripsThroughCache(t *testing.T) {
	fetcher := testFetcher()
	c := cache.NewInMem(clock.NewFake())

	first := newTestStore(t, fetcher, c)
	_, err := first.RootZone(context.Background())
	test.AssertNotError(t, err, "loading root zone")

	second := newTestStore(t, fetcher, c)
	rootZone, err := second.RootZone(context.Background())
	test.AssertNotError(t, err, "loading root zone from cache")
	test.AssertEquals(t, fetcher.calls, 1)
	test.Assert(t, rootZone.Contains("ORG"), "expected org in the cached root zone")
	test.AssertMetricWithLabelsEquals(t, second.lookups, prometheus.Labels{"source": "rzd", "result": "hit"}, 1)
}

func TestRefresh(t *testing.T) {
	fetcher := testFetcher()
	s := newTestStore(t, fetcher, cache.NewInMem(clock.NewFake()))

	rules, err := s.Rules(context.Background())
	test.AssertNotError(t, err, "loading rules")
	test.AssertEquals(t, rules.NumRules(), 3)

	fetcher.docs["https://psl.example/list.dat"] = strings.Replace(listText, "com\n", "com\njp\n", 1)
	err = s.Refresh(context.Background())
	test.AssertNotError(t, err, "refreshing")

	rules, err = s.Rules(context.Background())
	test.AssertNotError(t, err, "reloading rules")
	test.AssertEquals(t, rules.NumRules(), 4)
	test.AssertMetricWithLabelsEquals(t, s.refreshes, prometheus.Labels{"result": "success"}, 1)
}

func TestStart(t *testing.T) {
	fetcher := testFetcher()
	s := newTestStore(t, fetcher, cache.NewInMem(clock.NewFake()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := s.Start(ctx)
	test.AssertNotError(t, err, "starting")
	test.AssertEquals(t, fetcher.calls, 2)
}
