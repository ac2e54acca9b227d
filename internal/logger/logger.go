// Copyright 2026 The Live Restore Overlay Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides the process-wide leveled logger the overlay and
// its host-facing CLI write through: an slog.Logger whose severity and
// output format are reconfigurable at runtime, and an AsyncLogger for
// callers that must never block on log I/O.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity levels, mapped onto slog's integer level space the same way the
// standard library maps LevelInfo/LevelWarn/etc., so trace/debug sit below
// slog's defaults and "off" sits above every real level.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(16)
)

// LogRotateConfig mirrors lumberjack's own knobs, kept here rather than
// imported from internal/config since log rotation is an ambient concern
// independent of live_restore's own configuration surface.
type LogRotateConfig struct {
	MaxFileSizeMB   int
	BackupFileCount int
	Compress        bool
}

// DefaultLogRotateConfig rotates at 512 MB, keeps the 10 most recent
// backups, and compresses rotated files.
func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{
		MaxFileSizeMB:   512,
		BackupFileCount: 10,
		Compress:        true,
	}
}

type loggerFactory struct {
	file            *lumberjack.Logger
	sysWriter       io.Writer
	level           slog.LevelVar
	format          string
	logRotateConfig LogRotateConfig
}

var defaultLoggerFactory = &loggerFactory{
	sysWriter:       os.Stderr,
	logRotateConfig: DefaultLogRotateConfig(),
}

var defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, &defaultLoggerFactory.level, ""))

func init() {
	defaultLoggerFactory.level.Set(LevelInfo)
}

// createJsonOrTextHandler builds the slog.Handler for the configured
// format, prefixing every message with prefix (every caller in this
// module passes an empty prefix).
func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.MessageKey {
				a.Value = slog.StringValue(prefix + a.Value.String())
			}
			if a.Key == slog.LevelKey {
				a.Key = "severity"
			}
			return a
		},
	}
	if f.format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// setLoggingLevel maps a live_restore severity string onto the shared
// slog.LevelVar so every outstanding handler picks up the change without
// being rebuilt.
func setLoggingLevel(severity string, level *slog.LevelVar) {
	switch severity {
	case "TRACE":
		level.Set(LevelTrace)
	case "DEBUG":
		level.Set(LevelDebug)
	case "INFO":
		level.Set(LevelInfo)
	case "WARNING":
		level.Set(LevelWarn)
	case "ERROR":
		level.Set(LevelError)
	default:
		level.Set(LevelOff)
	}
}

// SetSeverity reconfigures the default logger's level.
func SetSeverity(severity string) {
	setLoggingLevel(severity, &defaultLoggerFactory.level)
}

// SetLogFormat switches the default logger between "text" and "json"
// (the default) output.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(defaultLoggerFactory.writer(), &defaultLoggerFactory.level, ""))
}

func (f *loggerFactory) writer() io.Writer {
	if f.file != nil {
		return f.file
	}
	return f.sysWriter
}

// InitLogFile redirects the default logger to a rotated file at path,
// using lumberjack for rotation, and applies severity and format.
func InitLogFile(path, severity, format string, rotate LogRotateConfig) error {
	if path == "" {
		return fmt.Errorf("logger: file path is required")
	}

	defaultLoggerFactory.file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotate.MaxFileSizeMB,
		MaxBackups: rotate.BackupFileCount,
		Compress:   rotate.Compress,
	}
	defaultLoggerFactory.sysWriter = nil
	defaultLoggerFactory.logRotateConfig = rotate
	defaultLoggerFactory.format = format

	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(defaultLoggerFactory.file, &defaultLoggerFactory.level, ""))
	setLoggingLevel(severity, &defaultLoggerFactory.level)
	return nil
}

func Tracef(format string, args ...interface{}) { logAt(LevelTrace, format, args...) }
func Debugf(format string, args ...interface{}) { logAt(LevelDebug, format, args...) }
func Infof(format string, args ...interface{})  { logAt(LevelInfo, format, args...) }
func Warnf(format string, args ...interface{})  { logAt(LevelWarn, format, args...) }
func Errorf(format string, args ...interface{}) { logAt(LevelError, format, args...) }

func logAt(level slog.Level, format string, args ...interface{}) {
	defaultLogger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}
