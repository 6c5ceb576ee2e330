// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pdiddy/bibmagic/pkg/types"
)

// newLogger builds a text or JSON slog logger writing to w and installs it
// as the default. Unknown levels fall back to info.
func newLogger(c types.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Level)}

	var handler slog.Handler
	if strings.EqualFold(c.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// logDiagnostics reports parse and validation diagnostics through the
// logger, one record per diagnostic.
func logDiagnostics(diags []types.Diagnostic) {
	for _, d := range diags {
		attrs := []any{"entry", d.Index, "err", d.Err}
		if d.Source != "" {
			attrs = append([]any{"source", d.Source}, attrs...)
		}
		if d.Key != "" {
			attrs = append(attrs, "key", strings.TrimSpace(d.Key))
		}
		if d.Severity == types.SeverityError {
			logger.Error("entry skipped", attrs...)
		} else {
			logger.Warn("entry degraded", attrs...)
		}
	}
}
