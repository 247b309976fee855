// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// NewSlogLogger returns an slog.Logger that writes through the global
// zerolog logger. Its only consumer is sutureslog, which logs supervisor
// events and demands an *slog.Logger:
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
func NewSlogLogger() *slog.Logger {
	return slog.New(&slogBridge{logger: Logger()})
}

// slogBridge implements the slog.Handler contract over zerolog. Groups
// are flattened into dotted key prefixes.
type slogBridge struct {
	logger zerolog.Logger
	attrs  []slog.Attr
	prefix string
}

func (b *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	var zl zerolog.Level
	switch {
	case level < slog.LevelInfo:
		zl = zerolog.DebugLevel
	case level < slog.LevelWarn:
		zl = zerolog.InfoLevel
	case level < slog.LevelError:
		zl = zerolog.WarnLevel
	default:
		zl = zerolog.ErrorLevel
	}
	return b.logger.GetLevel() <= zl
}

func (b *slogBridge) Handle(_ context.Context, record slog.Record) error {
	var event *zerolog.Event
	switch {
	case record.Level < slog.LevelInfo:
		event = b.logger.Debug()
	case record.Level < slog.LevelWarn:
		event = b.logger.Info()
	case record.Level < slog.LevelError:
		event = b.logger.Warn()
	default:
		event = b.logger.Error()
	}

	for _, attr := range b.attrs {
		event = b.appendAttr(event, attr, b.prefix)
	}
	record.Attrs(func(attr slog.Attr) bool {
		event = b.appendAttr(event, attr, b.prefix)
		return true
	})

	event.Msg(record.Message)
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(b.attrs)+len(attrs))
	merged = append(merged, b.attrs...)
	merged = append(merged, attrs...)
	return &slogBridge{logger: b.logger, attrs: merged, prefix: b.prefix}
}

func (b *slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	return &slogBridge{logger: b.logger, attrs: b.attrs, prefix: b.prefix + name + "."}
}

func (b *slogBridge) appendAttr(event *zerolog.Event, attr slog.Attr, prefix string) *zerolog.Event {
	key := prefix + attr.Key
	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return event.Str(key, value.String())
	case slog.KindInt64:
		return event.Int64(key, value.Int64())
	case slog.KindUint64:
		return event.Uint64(key, value.Uint64())
	case slog.KindFloat64:
		return event.Float64(key, value.Float64())
	case slog.KindBool:
		return event.Bool(key, value.Bool())
	case slog.KindDuration:
		return event.Dur(key, value.Duration())
	case slog.KindTime:
		return event.Time(key, value.Time())
	case slog.KindGroup:
		for _, member := range value.Group() {
			event = b.appendAttr(event, member, key+".")
		}
		return event
	default:
		return event.Interface(key, value.Any())
	}
}
