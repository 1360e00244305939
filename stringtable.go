// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package avrsketch

// stringTable interns strings into a dense, order-stable table: identical
// strings share one entry, as the Compact AST Codec format requires (spec
// §4.4 "identical strings share one entry"). Unlike the teacher's global,
// process-lifetime symtab, this table is scoped to a single encode
// operation so that two encodes of the same AST produce the same table.
type stringTable struct {
	index  map[string]uint32
	values []string
}

func newStringTable() *stringTable {
	return &stringTable{index: make(map[string]uint32)}
}

// intern returns the table index for s, adding it if this is the first
// occurrence.
func (t *stringTable) intern(s string) uint32 {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := uint32(len(t.values))
	t.index[s] = i
	t.values = append(t.values, s)
	return i
}

func (t *stringTable) strings() []string {
	return t.values
}

// stringTableReader is the decode-side counterpart: a flat, already
// deduplicated list of strings addressed by index.
type stringTableReader struct {
	values []string
}

func (t *stringTableReader) at(i uint32) (string, bool) {
	if int(i) >= len(t.values) {
		return "", false
	}
	return t.values[i], true
}
