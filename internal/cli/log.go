// Package cli implements the packetflow command-line interface.
//
// This package provides commands for laying out network routes, simulating
// packet animations frame by frame, playing them interactively in the
// terminal, and serving them over HTTP. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - layout: Render the static topology of a route as SVG, PNG, PDF, JSON or DOT
//   - simulate: Run a command against a virtual clock and write frame snapshots
//   - play: Animate commands in the terminal
//   - serve: Expose layouts and live sessions over HTTP
//   - routes: List known destinations
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs scheduler and cache events through observability hooks. Loggers are
// passed through context.Context to commands that run long-lived loops.
//
// # Example
//
//	import "github.com/matzehuels/packetflow/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Rendered 3 formats (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logHooks logs observability events at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnRequest(command string, hops, legs int) {
	h.logger.Debug("request scheduled", "command", command, "hops", hops, "legs", legs)
}

func (h *logHooks) OnLegStart(command, direction string, nodes int, speed float64) {
	h.logger.Debug("leg started", "command", command, "direction", direction, "nodes", nodes, "speed", speed)
}

func (h *logHooks) OnPacketRetired(command, direction string) {
	h.logger.Debug("packet retired", "command", command, "direction", direction)
}

func (h *logHooks) OnTickFault(recovered any) {
	h.logger.Error("tick recovered from fault", "panic", recovered)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// httpLogHooks logs HTTP API events at debug level. It is separate from
// logHooks because both interfaces define OnRequest.
type httpLogHooks struct {
	logger *log.Logger
}

func (h *httpLogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("http request", "method", method, "path", path)
}

func (h *httpLogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "path", path, "status", status, "duration", d.Round(time.Microsecond))
}

func (h *httpLogHooks) OnError(_ context.Context, method, path string, err error) {
	h.logger.Warn("http error", "method", method, "path", path, "error", err)
}
