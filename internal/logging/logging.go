package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	slogctx "github.com/veqryn/slog-context"
)

type Options struct {
	Level string
	JSON  bool
	// Output defaults to stderr.
	Output io.Writer
}

var def atomic.Value

func init() {
	cfg := &slog.HandlerOptions{Level: slog.LevelInfo}
	h := slog.NewTextHandler(os.Stderr, cfg)
	def.Store(slog.New(h))
}

func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	cfg := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(out, cfg)
	} else {
		h = slog.NewTextHandler(out, cfg)
	}
	def.Store(slog.New(h))
}

func ParseLevel(s string) slog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func L() *slog.Logger {
	l, _ := def.Load().(*slog.Logger)
	return l
}

// WithContext stores the process logger, extended with attrs, in ctx.
func WithContext(ctx context.Context, attrs ...any) context.Context {
	if l := slogctx.FromCtx(ctx); l != nil && l != slog.Default() {
		return slogctx.NewCtx(ctx, l.With(attrs...))
	}
	return slogctx.NewCtx(ctx, L().With(attrs...))
}

// FromContext returns the logger carried by ctx, falling back to L().
func FromContext(ctx context.Context) *slog.Logger {
	if l := slogctx.FromCtx(ctx); l != nil && l != slog.Default() {
		return l
	}
	return L()
}

func InitFromEnv() {
	lvl := os.Getenv("TRANSMUTE_LOG_LEVEL")
	jsonStr := os.Getenv("TRANSMUTE_LOG_JSON")
	json := false
	if b, err := strconv.ParseBool(strings.TrimSpace(jsonStr)); err == nil {
		json = b
	}
	Configure(Options{Level: lvl, JSON: json})
}
