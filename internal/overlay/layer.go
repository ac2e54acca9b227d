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
	"fmt"
	"path/filepath"
	"strings"
)

// LayerTag identifies which of the two layers a path belongs to.
type LayerTag int

const (
	// Destination is the writable root; the final restored file system.
	Destination LayerTag = iota
	// Source is the read-only donor directory.
	Source
)

func (t LayerTag) String() string {
	if t == Source {
		return "source"
	}
	return "destination"
}

// Layer pairs a tag with the layer's filesystem-root path.
type Layer struct {
	Tag  LayerTag
	Home string
}

// TombstoneSuffix is appended to a destination path to record that the
// corresponding logical name must never again be resolved against source.
// The value must stay byte-identical across releases: it is part of the
// on-disk format.
const TombstoneSuffix = ".wt_lr_tombstone"

// backingPath translates a logical name (always rooted at destRoot) into
// the concrete path in layer. No I/O is performed.
//
// For Destination, the logical name is returned unchanged: by convention a
// logical name IS its destination path. For Source, the destRoot prefix is
// replaced with layer.Home.
func backingPath(layer Layer, destRoot, logicalName string) (string, error) {
	if !strings.HasPrefix(logicalName, destRoot) {
		return "", fmt.Errorf("%w: %q is not rooted at destination %q",
			ErrInvalidArgument, logicalName, destRoot)
	}

	if layer.Tag == Destination {
		return logicalName, nil
	}

	rel := strings.TrimPrefix(logicalName, destRoot)
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	return filepath.Join(layer.Home, rel), nil
}

// rootRelativePath joins layer.Home with basename using the platform path
// separator. Nothing in this package calls it; DirectoryList joins entry
// basenames onto the logical directory name instead.
func rootRelativePath(layer Layer, basename string) string {
	return filepath.Join(layer.Home, basename)
}

// tombstonePath appends TombstoneSuffix to path.
func tombstonePath(path string) string {
	return path + TombstoneSuffix
}
