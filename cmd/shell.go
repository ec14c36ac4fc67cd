// Package cmd provides the scaffolding shared by the binaries in this
// repository: config loading and validation, metrics and logging setup,
// and process lifecycle helpers.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	blog "github.com/xbojch/domainparser/log"
)

// FailOnError exits and prints an error message if we encountered a
// problem.
func FailOnError(err error, msg string) {
	if err != nil {
		Fail(fmt.Sprintf("%s: %s", msg, err))
	}
}

// Fail prints a message to stderr and exits nonzero.
func Fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

// ReadConfigFile unmarshals the named JSON file into out, then checks
// any `validate` struct tags on it.
func ReadConfigFile(filename string, out interface{}) error {
	configData, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	err = json.Unmarshal(configData, out)
	if err != nil {
		return fmt.Errorf("parsing config file %q: %w", filename, err)
	}
	return ValidateConfig(out)
}

// ValidateConfig checks the `validate` struct tags on config.
func ValidateConfig(config interface{}) error {
	return validator.New().Struct(config)
}

// Clock returns the clock the binaries should use. Tests inject a fake
// clock further down the stack.
func Clock() clock.Clock {
	return clock.New()
}

// StatsAndLogging constructs a metrics registry and a logger, and
// exposes the registry on debugAddr under /metrics when debugAddr is
// nonempty.
func StatsAndLogging(logLevel int, debugAddr string) (prometheus.Registerer, blog.Logger) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	logger := blog.New(logLevel)

	if debugAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{
			Addr:        debugAddr,
			Handler:     mux,
			ReadTimeout: 30 * time.Second,
		}
		go func() {
			err := server.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				logger.Errf("debug server on %s: %s", debugAddr, err)
			}
		}()
	}

	return registry, logger
}

// CatchSignals cancels ctx on SIGINT or SIGTERM so the process can shut
// down cleanly.
func CatchSignals(logger blog.Logger, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Infof("caught %s, shutting down", sig)
	cancel()
}
