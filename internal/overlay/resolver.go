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

// layerResolver decides, for a logical name, whether the destination or
// the source is authoritative. It deliberately does not consult
// tombstones: rename needs to locate the ground-truth file regardless of
// whether a tombstone will later hide it from callers of open/exist.
type layerResolver struct {
	destRoot string
	source   Layer
	os       OSFileSystem
}

func newLayerResolver(destRoot string, source Layer, os OSFileSystem) *layerResolver {
	return &layerResolver{destRoot: destRoot, source: source, os: os}
}

// findLayer checks destination first, then source. exists is false iff
// neither layer has name.
func (r *layerResolver) findLayer(name string) (tag LayerTag, exists bool, err error) {
	destPath, err := backingPath(Layer{Tag: Destination, Home: r.destRoot}, r.destRoot, name)
	if err != nil {
		return 0, false, err
	}
	if r.os.Exists(destPath) {
		return Destination, true, nil
	}

	srcPath, err := backingPath(r.source, r.destRoot, name)
	if err != nil {
		return 0, false, err
	}
	if r.os.Exists(srcPath) {
		return Source, true, nil
	}

	return 0, false, nil
}
