// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a slog logger writing to w in the configured format.
func NewLogger(w io.Writer, s LogSettings) (*slog.Logger, error) {
	level, err := parseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch s.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", s.Format)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// LogWithLogger logs the resolved settings.
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	if s.ConfigFile != "" {
		logger.DebugContext(ctx, "Config: file", "value", s.ConfigFile)
	}
	logger.DebugContext(ctx, "Config: state.path", "value", s.State.Path)
	logger.DebugContext(ctx, "Config: state.backend", "value", s.State.Backend)
	logger.DebugContext(ctx, "Config: state.lock", "value", s.State.Lock)
	if s.Source != "" {
		logger.DebugContext(ctx, "Config: source", "value", s.Source)
	}
	if s.Output != "" {
		logger.DebugContext(ctx, "Config: output", "value", s.Output)
	}
	logger.DebugContext(ctx, "Config: markers", "start", s.Markers.Start, "end", s.Markers.End)
}
