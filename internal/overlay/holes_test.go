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

func holesOf(hl *holeList) [][2]int64 {
	var out [][2]int64
	for n := hl.head; n != nil; n = n.next {
		out = append(out, [2]int64{n.off, n.len})
	}
	return out
}

func TestHoleList_InitializeWhole(t *testing.T) {
	var hl holeList
	hl.initializeWhole(100)
	assert.Equal(t, [][2]int64{{0, 100}}, holesOf(&hl))

	hl.initializeWhole(0)
	assert.True(t, hl.isEmpty())
}

func TestHoleList_SubtractRange_FullCover(t *testing.T) {
	var hl holeList
	hl.initializeWhole(100)

	require.NoError(t, hl.subtractRange(0, 100))
	assert.True(t, hl.isEmpty())
}

func TestHoleList_SubtractRange_StrictlyInside_Splits(t *testing.T) {
	var hl holeList
	hl.initializeWhole(100)

	require.NoError(t, hl.subtractRange(40, 10))
	assert.Equal(t, [][2]int64{{0, 40}, {50, 50}}, holesOf(&hl))
}

func TestHoleList_SubtractRange_LeftOverlap(t *testing.T) {
	var hl holeList
	hl.initializeWhole(100)

	require.NoError(t, hl.subtractRange(0, 10))
	assert.Equal(t, [][2]int64{{10, 90}}, holesOf(&hl))
}

func TestHoleList_SubtractRange_RightOverlap(t *testing.T) {
	var hl holeList
	hl.initializeWhole(100)

	require.NoError(t, hl.subtractRange(90, 10))
	assert.Equal(t, [][2]int64{{0, 90}}, holesOf(&hl))
}

func TestHoleList_SubtractRange_SpansMultipleHoles(t *testing.T) {
	var hl holeList
	hl.head = &holeNode{off: 0, len: 10, next: &holeNode{off: 20, len: 10, next: &holeNode{off: 40, len: 10}}}

	require.NoError(t, hl.subtractRange(5, 40))
	assert.Equal(t, [][2]int64{{0, 5}, {45, 5}}, holesOf(&hl))
}

func TestHoleList_SubtractRange_RejectsBadArgs(t *testing.T) {
	var hl holeList
	assert.ErrorIs(t, hl.subtractRange(-1, 5), ErrInvalidArgument)
	assert.ErrorIs(t, hl.subtractRange(0, 0), ErrInvalidArgument)
}

func TestHoleList_CanServiceRead(t *testing.T) {
	var hl holeList
	hl.head = &holeNode{off: 10, len: 10}

	ok, err := hl.canServiceRead("f", 0, 5)
	require.NoError(t, err)
	assert.True(t, ok, "read entirely before the hole should be serviceable from destination")

	ok, err = hl.canServiceRead("f", 10, 10)
	require.NoError(t, err)
	assert.False(t, ok, "read exactly matching the hole should be source-served")

	ok, err = hl.canServiceRead("f", 5, 10)
	assert.False(t, ok)
	require.Error(t, err)
	var overlapErr *partialHoleOverlap
	assert.ErrorAs(t, err, &overlapErr)
}

func TestHoleList_CheckInvariants_PanicsOnOverlap(t *testing.T) {
	var hl holeList
	hl.head = &holeNode{off: 0, len: 10, next: &holeNode{off: 5, len: 10}}

	assert.Panics(t, func() { hl.checkInvariants() })
}

func TestHoleList_PopulateFromSparseMap(t *testing.T) {
	fos := newFakeOS()
	h, err := fos.Open("/dest/f", FileTypeData, FlagCreate)
	require.NoError(t, err)
	_, err = h.WriteAt(make([]byte, 100), 0)
	require.NoError(t, err)

	var hl holeList
	require.NoError(t, hl.populateFromSparseMap(h, 100))
	// fakeOSHandle reports the whole file as data, so no holes remain.
	assert.True(t, hl.isEmpty())
}
