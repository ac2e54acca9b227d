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
	"fmt"
	"io"
	"os"
)

// AsyncLogger decouples a writer (typically a rotated file) from its
// callers: Write copies the buffer and hands it to a single background
// goroutine, so a slow or blocked disk never stalls the migration sweep or
// foreground I/O path that logged the message. A full buffer drops the
// message rather than blocking, with a warning to stderr.
type AsyncLogger struct {
	out     io.Writer
	entries chan []byte
	done    chan struct{}
	closed  chan struct{}
}

// NewAsyncLogger starts the background writer goroutine immediately.
// bufSize bounds how many pending log entries may queue before new writes
// are dropped.
func NewAsyncLogger(out io.Writer, bufSize int) *AsyncLogger {
	if bufSize <= 0 {
		bufSize = 1
	}
	l := &AsyncLogger{
		out:     out,
		entries: make(chan []byte, bufSize),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *AsyncLogger) run() {
	defer close(l.closed)
	for {
		select {
		case e, ok := <-l.entries:
			if !ok {
				return
			}
			l.out.Write(e)
		case <-l.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case e := <-l.entries:
					l.out.Write(e)
				default:
					return
				}
			}
		}
	}
}

// Write queues p for asynchronous delivery. It never blocks: if the buffer
// is full, the message is dropped and a warning is written directly to
// stderr.
func (l *AsyncLogger) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)

	select {
	case l.entries <- cp:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

// Close signals the writer goroutine to drain and exit, then waits for it.
// If out implements io.Closer, it is closed afterward.
func (l *AsyncLogger) Close() error {
	close(l.done)
	<-l.closed

	if c, ok := l.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
