// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package observability builds the structured logger and the Prometheus
// metrics shared by the server components.
package observability

import (
	"io"
	"strings"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// LevelOption returns the filter option for a level name (debug, info, warn
// or error)
func LevelOption(name string) (level.Option, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return level.AllowDebug(), nil
	case "info", "":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	case "none":
		return level.AllowNone(), nil
	default:
		return nil, errors.Errorf("observability: unknown log level %q", name)
	}
}

// NewLogger returns a logfmt logger writing to w which drops records below
// levelName. Every record carries a UTC timestamp and the caller.
func NewLogger(w io.Writer, levelName string) (kitlog.Logger, error) {
	opt, err := LevelOption(levelName)
	if err != nil {
		return nil, err
	}

	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller)
	return level.NewFilter(logger, opt), nil
}

// Component tags logger with the name of a subsystem
func Component(logger kitlog.Logger, name string) kitlog.Logger {
	if logger == nil {
		return kitlog.NewNopLogger()
	}
	return kitlog.With(logger, "component", name)
}
