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

package logger

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func redirectLogsToBuffer(buf *bytes.Buffer, level string) {
	var programLevel slog.LevelVar
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(buf, &programLevel, ""))
	setLoggingLevel(level, &programLevel)
}

func TestLogging_SeverityFiltersOutput(t *testing.T) {
	defaultLoggerFactory.format = "text"
	var buf bytes.Buffer
	redirectLogsToBuffer(&buf, "WARNING")

	Infof("should not appear")
	assert.Empty(t, buf.String())

	buf.Reset()
	Warnf("should appear: %d", 1)
	assert.Regexp(t, regexp.MustCompile(`severity=WARN`), buf.String())
	assert.Contains(t, buf.String(), "should appear: 1")
}

func TestLogging_LevelOffSuppressesEverything(t *testing.T) {
	defaultLoggerFactory.format = "json"
	var buf bytes.Buffer
	redirectLogsToBuffer(&buf, "OFF")

	Tracef("t")
	Debugf("d")
	Infof("i")
	Warnf("w")
	Errorf("e")

	assert.Empty(t, buf.String())
}

func TestLogging_TraceIsBelowDebug(t *testing.T) {
	defaultLoggerFactory.format = "json"
	var buf bytes.Buffer
	redirectLogsToBuffer(&buf, "TRACE")

	Tracef("trace line")
	assert.Contains(t, buf.String(), "trace line")
}

func TestSetLoggingLevel(t *testing.T) {
	var level slog.LevelVar
	setLoggingLevel("DEBUG", &level)
	assert.Equal(t, LevelDebug, level.Level())

	setLoggingLevel("unknown", &level)
	assert.Equal(t, LevelOff, level.Level())
}
