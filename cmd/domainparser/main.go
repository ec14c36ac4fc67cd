// Command domainparser resolves hostnames against the Public Suffix
// List and the IANA root zone database, printing the decomposition of
// each hostname given on the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/xbojch/domainparser/cache"
	"github.com/xbojch/domainparser/cmd"
	"github.com/xbojch/domainparser/config"
	"github.com/xbojch/domainparser/domain"
	"github.com/xbojch/domainparser/fetch"
	"github.com/xbojch/domainparser/idn"
	"github.com/xbojch/domainparser/psl"
	"github.com/xbojch/domainparser/store"
)

type Config struct {
	DomainParser struct {
		// PSLURI overrides the location of the Public Suffix List.
		PSLURI string `validate:"omitempty,url"`

		// RZDURI overrides the location of the root zone database.
		RZDURI string `validate:"omitempty,url"`

		// CacheTTL bounds the lifetime of cached source data. Zero
		// means cached copies never expire.
		CacheTTL config.Duration

		// RefreshInterval is how often the background refresh refetches
		// both sources.
		RefreshInterval config.Duration

		UserAgent string

		// Redis, when set, backs the source cache with a Redis ring
		// instead of process memory.
		Redis *cache.RedisConfig

		// DebugAddr is the address to serve /metrics on.
		DebugAddr string `validate:"omitempty,hostname_port"`

		// LogLevel is the maximum log priority to emit, 0=err
		// through 3=debug.
		LogLevel int `validate:"min=0,max=3"`
	}
}

func main() {
	configFile := flag.String("config", "", "File path to the configuration file for this service")
	icannOnly := flag.Bool("icann", false, "Resolve against the ICANN section only")
	flag.Parse()

	var c Config
	c.DomainParser.LogLevel = 2
	if *configFile != "" {
		err := cmd.ReadConfigFile(*configFile, &c)
		cmd.FailOnError(err, "Reading JSON config file into config structure")
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [-config file] [-icann] hostname...\n", os.Args[0])
		os.Exit(1)
	}

	stats, logger := cmd.StatsAndLogging(c.DomainParser.LogLevel, c.DomainParser.DebugAddr)
	clk := cmd.Clock()

	var sourceCache cache.Cache
	if c.DomainParser.Redis != nil {
		sourceCache = cache.NewRedis(*c.DomainParser.Redis)
	} else {
		sourceCache = cache.NewInMem(clk)
	}

	fetcher := &fetch.Client{UserAgent: c.DomainParser.UserAgent}
	s := store.New(store.Config{
		PSLURI:          c.DomainParser.PSLURI,
		RZDURI:          c.DomainParser.RZDURI,
		TTL:             c.DomainParser.CacheTTL.Duration,
		RefreshInterval: c.DomainParser.RefreshInterval.Duration,
	}, fetcher, sourceCache, clk, logger, stats)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cmd.CatchSignals(logger, cancel)

	rules, err := s.Rules(ctx)
	cmd.FailOnError(err, "Loading the Public Suffix List")
	rootZone, err := s.RootZone(ctx)
	cmd.FailOnError(err, "Loading the root zone database")

	opts := psl.ResolveOptions{}
	if *icannOnly {
		opts.Sections = psl.ICANNOnly
	}

	failed := false
	for _, hostname := range flag.Args() {
		d, err := domain.Parse(hostname, idn.DefaultAsciiFlags, idn.DefaultUnicodeFlags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", hostname, err)
			failed = true
			continue
		}
		resolved, err := rules.Resolve(d, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", hostname, err)
			failed = true
			continue
		}
		printResolution(hostname, resolved, rootZone.Contains(tld(d)))
	}
	if failed {
		os.Exit(1)
	}
}

func tld(d domain.Domain) string {
	label, err := d.Label(-1)
	if err != nil {
		return ""
	}
	return label
}

func printResolution(hostname string, r domain.ResolvedDomain, inRootZone bool) {
	fmt.Printf("%s\n", hostname)
	fmt.Printf("  domain:      %s\n", r.Domain())
	fmt.Printf("  suffix:      %s (%s)\n", r.PublicSuffix(), r.PublicSuffix().Section())
	fmt.Printf("  registrable: %s\n", r.RegistrableDomain())
	if !r.SubDomain().IsNull() {
		fmt.Printf("  subdomain:   %s\n", r.SubDomain())
	}
	fmt.Printf("  tld in root zone: %t\n", inRootZone)
}
