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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupTest creates a temporary directory and returns its path and a cleanup function.
func setupTest(t *testing.T) (string, func()) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "async-logger-test-*")
	require.NoError(t, err)

	cleanup := func() {
		os.RemoveAll(tempDir)
	}

	return tempDir, cleanup
}

// captureStderr captures everything written to os.Stderr during the execution of a function.
func captureStderr(f func()) string {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		os.Stderr = oldStderr
	}()

	f()
	w.Close()

	var stderrBuf bytes.Buffer
	io.Copy(&stderrBuf, r)
	r.Close()
	return stderrBuf.String()
}

func TestAsyncLogger_WriteAndClose(t *testing.T) {
	// Arrange
	tempDir, cleanup := setupTest(t)
	defer cleanup()
	logPath := filepath.Join(tempDir, "test.log")
	lj := &lumberjack.Logger{Filename: logPath}
	asyncLogger := NewAsyncLogger(lj, 10)

	// Act
	fmt.Fprintln(asyncLogger, "message 1")
	fmt.Fprintln(asyncLogger, "message 2")
	fmt.Fprintln(asyncLogger, "message 3")
	err := asyncLogger.Close()

	// Assert
	require.NoError(t, err)
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	expected := "message 1\nmessage 2\nmessage 3\n"
	assert.Equal(t, expected, string(content))
}

// blockingWriter stalls its first Write until release is closed, signaling
// entered first so a test can wait for the writer goroutine to be inside
// Write (and therefore done draining the entries channel) before asserting
// on that channel's fullness. Without this handshake, "fill the buffer then
// overflow it" is a data race against the background goroutine's own drain.
type blockingWriter struct {
	entered chan struct{}
	release chan struct{}

	mu  sync.Mutex
	buf bytes.Buffer
}

func newBlockingWriter() *blockingWriter {
	return &blockingWriter{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	select {
	case w.entered <- struct{}{}:
	default:
	}
	<-w.release

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *blockingWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestAsyncLogger_DropMessageWhenBufferFull(t *testing.T) {
	// Arrange: a buffer of 1 entry, and a writer that blocks once it starts
	// draining the first entry, so the channel's fullness is deterministic
	// instead of a race against however fast the writer goroutine runs.
	bw := newBlockingWriter()
	asyncLogger := NewAsyncLogger(bw, 1)

	_, err := fmt.Fprintln(asyncLogger, "first")
	require.NoError(t, err)
	<-bw.entered // the writer goroutine is now blocked inside bw.Write("first\n").

	_, err = fmt.Fprintln(asyncLogger, "second")
	require.NoError(t, err) // queues behind "first"; fills the size-1 buffer.

	// Act: a third message arrives while the buffer is still full.
	var dropErr error
	captured := captureStderr(func() {
		_, dropErr = fmt.Fprintln(asyncLogger, "third")
	})
	close(bw.release)
	require.NoError(t, asyncLogger.Close())

	// Assert
	require.NoError(t, dropErr) // Write never returns an error, even when it drops.
	assert.Contains(t, captured, "asynclogger: log buffer is full, dropping message.")
	assert.Equal(t, "first\nsecond\n", bw.String())
}
