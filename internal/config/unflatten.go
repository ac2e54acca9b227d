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

package config

import "strings"

// unflattenDottedKeys turns any top-level key containing a dot, such as
// "debug.fill_holes_on_close", into the equivalent nested map entry
// {"debug": {"fill_holes_on_close": ...}}, merging into any nested map
// already present under that key. Keys without a dot pass through
// untouched.
func unflattenDottedKeys(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if !strings.Contains(k, ".") {
			out[k] = v
		}
	}
	for k, v := range raw {
		head, rest, dotted := strings.Cut(k, ".")
		if !dotted {
			continue
		}

		nested := make(map[string]interface{})
		if existing, ok := out[head].(map[string]interface{}); ok {
			for ek, ev := range existing {
				nested[ek] = ev
			}
		}
		merged := unflattenDottedKeys(map[string]interface{}{rest: v})
		for mk, mv := range merged {
			nested[mk] = mv
		}
		out[head] = nested
	}
	return out
}
