// Package logger provides structured logging using zerolog.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/polite-betrayal/adjudicator/pkg/diplomacy"
)

type contextKey string

const gameIDKey contextKey = "game_id"

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Options configures the global logger.
type Options struct {
	Level  string    // zerolog level name; empty means info
	Format string    // "console" or "json"
	File   string    // optional file that receives a copy of every line
	Out    io.Writer // defaults to stderr
}

// Init installs the global logger. Output defaults to stderr so command
// output on stdout stays clean. The returned func closes the log file, if
// one was opened; it is never nil on success.
func Init(opts Options) (func() error, error) {
	lvl := zerolog.InfoLevel
	if opts.Level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(strings.ToLower(opts.Level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	zerolog.CallerMarshalFunc = shortCaller

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	switch opts.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: milliTimeFormat, NoColor: true}
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	closeFn := func() error { return nil }
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(out, f)
		closeFn = f.Close
	}

	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
	log.Debug().Str("level", lvl.String()).Str("format", opts.Format).Msg("Logger initialized")
	return closeFn, nil
}

// shortCaller pads or trims "file.go:12" to a fixed width so messages line up.
func shortCaller(_ uintptr, file string, line int) string {
	const width = 24
	s := fmt.Sprintf("%s:%d", filepath.Base(file), line)
	if len(s) >= width {
		return s[len(s)-width:]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// WithGameID returns a new context carrying the game ID.
func WithGameID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, gameIDKey, id)
}

// GameIDFromContext extracts the game ID from context, or empty string.
func GameIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(gameIDKey).(string)
	return id
}

// ForTurn returns a logger enriched with the game ID from context and the
// turn being adjudicated.
func ForTurn(ctx context.Context, gs *diplomacy.GameState) zerolog.Logger {
	c := log.Logger.With()
	if id := GameIDFromContext(ctx); id != "" {
		c = c.Str("gameId", id)
	}
	if gs != nil {
		c = c.Int("year", gs.Year).Str("season", string(gs.Season)).Str("phase", string(gs.Phase))
	}
	return c.Logger()
}
