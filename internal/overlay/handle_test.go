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

package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandle(t *testing.T, srcContent string) (*FileHandle, *fakeOS) {
	t.Helper()
	fos := newFakeOS()

	if srcContent != "" {
		src, err := fos.Open("/src/f", FileTypeData, FlagCreate)
		require.NoError(t, err)
		_, err = src.WriteAt([]byte(srcContent), 0)
		require.NoError(t, err)
	}

	dest, err := fos.Open("/dest/f", FileTypeData, FlagCreate)
	require.NoError(t, err)

	if srcContent == "" {
		return newFileHandle("/dest/f", FileTypeData, dest, nil, true, false, nil), fos
	}

	src, err := fos.Open("/src/f", FileTypeData, FlagReadonly)
	require.NoError(t, err)
	require.NoError(t, dest.Truncate(int64(len(srcContent))))

	h := newFileHandle("/dest/f", FileTypeData, dest, src, false, false, nil)
	h.holes.initializeWhole(int64(len(srcContent)))
	return h, fos
}

func TestFileHandle_ReadAt_PromotesFromSource(t *testing.T) {
	h, _ := newTestHandle(t, "hello world")

	buf := make([]byte, 5)
	n, err := h.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	// The promoted range must no longer be a hole.
	off, length, ok := h.peekHoleHead()
	require.True(t, ok)
	assert.Equal(t, int64(5), off)
	assert.Equal(t, int64(6), length)
}

func TestFileHandle_ReadAt_PartialOverlapPanics(t *testing.T) {
	h, _ := newTestHandle(t, "hello world")

	buf := make([]byte, 5)
	_, err := h.ReadAt(buf, 3)
	require.NoError(t, err) // splits the whole-file hole into [0,3) and [8,11)

	assert.Panics(t, func() {
		buf2 := make([]byte, 10)
		h.ReadAt(buf2, 0) // [0,10) partially overlaps both remaining holes
	})
}

func TestFileHandle_WriteAt_RetiresHole(t *testing.T) {
	h, _ := newTestHandle(t, "hello world")

	_, err := h.WriteAt([]byte("HELLO"), 0)
	require.NoError(t, err)

	off, length, ok := h.peekHoleHead()
	require.True(t, ok)
	assert.Equal(t, int64(5), off)
	assert.Equal(t, int64(6), length)
}

func TestFileHandle_Complete_NoSource(t *testing.T) {
	h, _ := newTestHandle(t, "")
	assert.True(t, h.Complete())

	_, _, ok := h.peekHoleHead()
	assert.False(t, ok)
}

func TestFileHandle_Truncate_RetiresExtension(t *testing.T) {
	h, _ := newTestHandle(t, "hello world")
	require.NoError(t, h.Truncate(20))

	size, err := h.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(20), size)
}

func TestFileHandle_CloseFreesHoles(t *testing.T) {
	h, _ := newTestHandle(t, "hello world")
	require.NoError(t, h.Close())
	assert.Nil(t, h.holes.head)
}
