// Package log provides the leveled logger used by the non-pure parts of
// this module (fetching, caching, refreshing). The core value types never
// log.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"github.com/jmhodges/clock"
)

// Logger logs messages with explicit priority levels.
type Logger interface {
	Err(msg string)
	Errf(format string, a ...any)
	Warning(msg string)
	Warningf(format string, a ...any)
	Info(msg string)
	Infof(format string, a ...any)
	Debug(msg string)
	Debugf(format string, a ...any)
}

type level int

const (
	levelErr level = iota
	levelWarning
	levelInfo
	levelDebug
)

var levelPrefix = map[level]string{
	levelErr:     "E",
	levelWarning: "W",
	levelInfo:    "I",
	levelDebug:   "D",
}

// impl implements Logger on top of a writer.
type impl struct {
	w writer
}

type writer interface {
	logAtLevel(l level, msg string)
}

// New returns a Logger that writes to stdout, suppressing messages with a
// priority below maxLevel (0=err ... 3=debug).
func New(maxLevel int) Logger {
	return &impl{&stdoutWriter{out: os.Stdout, maxLevel: level(maxLevel), clk: clock.New()}}
}

// NewWriterLogger returns a Logger writing to the given writer; used by
// tests that want to inspect the output format.
func NewWriterLogger(out io.Writer, maxLevel int, clk clock.Clock) Logger {
	return &impl{&stdoutWriter{out: out, maxLevel: level(maxLevel), clk: clk}}
}

type stdoutWriter struct {
	out      io.Writer
	maxLevel level
	clk      clock.Clock
	mu       sync.Mutex
}

func (w *stdoutWriter) logAtLevel(l level, msg string) {
	if l > w.maxLevel {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s%s %s %s\n",
		levelPrefix[l],
		w.clk.Now().Format("150405"),
		path.Base(os.Args[0]),
		msg)
}

func (log *impl) Err(msg string) {
	log.w.logAtLevel(levelErr, msg)
}

func (log *impl) Errf(format string, a ...any) {
	log.Err(fmt.Sprintf(format, a...))
}

func (log *impl) Warning(msg string) {
	log.w.logAtLevel(levelWarning, msg)
}

func (log *impl) Warningf(format string, a ...any) {
	log.Warning(fmt.Sprintf(format, a...))
}

func (log *impl) Info(msg string) {
	log.w.logAtLevel(levelInfo, msg)
}

func (log *impl) Infof(format string, a ...any) {
	log.Info(fmt.Sprintf(format, a...))
}

func (log *impl) Debug(msg string) {
	log.w.logAtLevel(levelDebug, msg)
}

func (log *impl) Debugf(format string, a ...any) {
	log.Debug(fmt.Sprintf(format, a...))
}
