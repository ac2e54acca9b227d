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

import "fmt"

// holeNode is a half-open byte range [Off, Off+Len) of a destination file
// whose authoritative contents still live only in source.
type holeNode struct {
	off  int64
	len  int64
	next *holeNode
}

func (h *holeNode) end() int64 { return h.off + h.len } // exclusive

// holeList is the ordered, singly linked sequence of holes for one open
// destination file. It is kept as a list rather than a balanced tree
// because the number of holes is typically small (bounded by the number
// of sparse regions in the destination file); subtractRange's one-node-
// at-a-time walk is tree-friendly should that ever stop being true.
//
// Every mutator below preserves the four invariants from the data model:
// sorted ascending by offset, non-overlapping and non-adjacent, contained
// within the file, and (checked separately, by the caller, against source
// size) bounded by source EOF.
type holeList struct {
	head *holeNode
}

// isEmpty reports whether there are no holes left to migrate.
func (hl *holeList) isEmpty() bool { return hl.head == nil }

// initializeWhole resets the list to a single hole covering [0, size),
// used when a destination file is freshly created to back a source file.
func (hl *holeList) initializeWhole(size int64) {
	if size <= 0 {
		hl.head = nil
		return
	}
	hl.head = &holeNode{off: 0, len: size}
}

// lastEnd returns the end offset (exclusive) of the last hole, and false
// if the list is empty.
func (hl *holeList) lastEnd() (int64, bool) {
	if hl.head == nil {
		return 0, false
	}
	n := hl.head
	for n.next != nil {
		n = n.next
	}
	return n.end(), true
}

// peekHead returns the first hole's offset and length, and false if the list
// is empty. Used by the migration sweep (iterate-for-migration).
func (hl *holeList) peekHead() (off, length int64, ok bool) {
	if hl.head == nil {
		return 0, 0, false
	}
	return hl.head.off, hl.head.len, true
}

// subtractRange removes [off, off+length) from the hole list: the portion
// of every hole it overlaps is retired, splitting a hole in two when the
// range falls strictly inside it. This is the only way the hole count can
// grow, and it is the one mutation every write, truncate and promoting
// read funnels through.
func (hl *holeList) subtractRange(off, length int64) error {
	if length <= 0 || off < 0 {
		return fmt.Errorf("%w: subtractRange requires off>=0 and length>0, got off=%d length=%d",
			ErrInvalidArgument, off, length)
	}

	writeEnd := off + length // exclusive end of the written range

	var prev *holeNode
	cur := hl.head
	for cur != nil {
		hEnd := cur.end()

		if writeEnd <= cur.off {
			// No further node can overlap: the list is sorted ascending.
			break
		}
		if off >= hEnd {
			prev = cur
			cur = cur.next
			continue
		}

		switch {
		case off <= cur.off && writeEnd >= hEnd:
			// Full cover: remove the node and keep walking, since a large
			// enough write can retire several consecutive holes.
			next := cur.next
			if prev == nil {
				hl.head = next
			} else {
				prev.next = next
			}
			cur = next

		case off > cur.off && writeEnd < hEnd:
			// Strictly inside: split into a left remainder (kept in
			// place) and a right remainder (new node after it). Nothing
			// past this hole can be affected.
			right := &holeNode{off: writeEnd, len: hEnd - writeEnd, next: cur.next}
			cur.len = off - cur.off
			cur.next = right
			cur = nil

		case off <= cur.off:
			// Left overlap: shrink the hole to start after the write.
			// Nothing past this hole can be affected (writeEnd < hEnd).
			cur.off = writeEnd
			cur.len = hEnd - writeEnd
			cur = nil

		default:
			// Right overlap: off > cur.off, writeEnd >= hEnd. Shrink the
			// hole to end at the write, then keep walking: the write may
			// also cover subsequent holes.
			cur.len = off - cur.off
			prev = cur
			cur = cur.next
		}
	}

	return nil
}

// populateFromSparseMap implements "initialize-from-sparse-map": it seeds
// the list with a single hole covering the whole file, then carves out
// every region the destination file system reports as containing data,
// leaving only genuine filesystem-level holes — the bytes still owed from
// source.
func (hl *holeList) populateFromSparseMap(fh OSFileHandle, size int64) error {
	if size <= 0 {
		hl.head = nil
		return nil
	}

	hl.initializeWhole(size)

	off := int64(0)
	for off < size {
		dataOff, err := fh.NextDataOffset(off)
		if err != nil {
			return fmt.Errorf("overlay: seek next data on %s: %w", fh.Name(), err)
		}
		if dataOff < 0 || dataOff >= size {
			break
		}

		holeOff, err := fh.NextHoleOffset(dataOff)
		if err != nil {
			return fmt.Errorf("overlay: seek next hole on %s: %w", fh.Name(), err)
		}

		dataEnd := size
		if holeOff >= 0 && holeOff < size {
			dataEnd = holeOff
		}

		if err := hl.subtractRange(dataOff, dataEnd-dataOff); err != nil {
			return err
		}
		off = dataEnd
	}

	return nil
}

// checkInvariants panics if the hole list's ordering/overlap invariants
// (data model invariants 1-2) are violated. Intended for use from tests
// and from FileHandle's syncutil.InvariantMutex.
func (hl *holeList) checkInvariants() {
	prevEnd := int64(-1)
	for n := hl.head; n != nil; n = n.next {
		if n.len <= 0 {
			panic(fmt.Sprintf("overlay: hole with non-positive length: %+v", *n))
		}
		if n.off < 0 {
			panic(fmt.Sprintf("overlay: hole with negative offset: %+v", *n))
		}
		if prevEnd >= 0 && n.off <= prevEnd {
			panic(fmt.Sprintf("overlay: holes not strictly sorted/disjoint: prevEnd=%d next=%+v", prevEnd, *n))
		}
		prevEnd = n.end()
	}
}

// canServiceRead decides whether a read of [off, off+length) can be
// satisfied from destination alone. It returns (true, nil) when no hole
// overlaps the range, (false, nil) when a single hole contains the whole
// range, equal bounds included (source-served case), and a non-nil error when a hole
// partially overlaps the range — a caller-side invariant break per spec.
func (hl *holeList) canServiceRead(name string, off, length int64) (bool, error) {
	readEnd := off + length

	for n := hl.head; n != nil; n = n.next {
		if n.off >= readEnd {
			break
		}
		hEnd := n.end()
		if hEnd <= off {
			continue
		}

		// This hole overlaps the read range at all. Only a hole that
		// contains the read range entirely is legal.
		if n.off <= off && hEnd >= readEnd {
			return false, nil
		}

		return false, &partialHoleOverlap{
			name:    name,
			readOff: off, readEnd: readEnd,
			holeOff: n.off, holeEnd: hEnd,
		}
	}

	return true, nil
}
