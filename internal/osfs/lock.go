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

package osfs

import "golang.org/x/sys/unix"

// Lock takes a BSD advisory lock on the underlying descriptor: exclusive
// when exclusive is true, shared otherwise. It never releases a lock. Used
// by storage engines that coordinate multi-process access to the
// destination root.
func (h *fileHandle) Lock(exclusive bool) error {
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	return unix.Flock(int(h.f.Fd()), how)
}
