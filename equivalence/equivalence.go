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

// Package equivalence compares two Command streams — conventionally one
// produced by the host implementation and one by the embedded
// implementation of the same sketch — for the cross-platform
// equivalence property of spec §8: every field except timestamp must
// match, in order, command for command.
package equivalence

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/katisim/avrsketch"
)

// Mismatch describes one point of divergence between two command
// streams.
type Mismatch struct {
	Index   int
	Host    string
	Embedded string
	Diff    string
}

// Result is the outcome of comparing two streams.
type Result struct {
	Equivalent bool
	Mismatches []Mismatch
}

// Compare reports whether host and embedded are equivalent per spec §8's
// rule: same length, same Type per position, same field set and values
// per position, timestamp excluded. A length mismatch stops comparison
// at once and yields a single Mismatch at Index -1; otherwise every
// position whose type or fields differ yields one Mismatch.
func Compare(host, embedded []avrsketch.Command) Result {
	if len(host) != len(embedded) {
		return Result{
			Mismatches: []Mismatch{{
				Index: -1,
				Host:  fmt.Sprintf("%d commands", len(host)),
				Embedded: fmt.Sprintf("%d commands", len(embedded)),
				Diff:  "command stream length differs",
			}},
		}
	}
	var mismatches []Mismatch
	for i := range host {
		if m, ok := compareOne(i, host[i], embedded[i]); !ok {
			mismatches = append(mismatches, m)
		}
	}
	return Result{Equivalent: len(mismatches) == 0, Mismatches: mismatches}
}

func compareOne(i int, h, e avrsketch.Command) (Mismatch, bool) {
	hs := canonicalize(h)
	es := canonicalize(e)
	if hs == es {
		return Mismatch{}, true
	}
	glog.V(1).Infof("equivalence: command %d diverges: %s", i, hs)
	return Mismatch{
		Index:    i,
		Host:     hs,
		Embedded: es,
		Diff:     renderDiff(hs, es),
	}, false
}

// canonicalize renders a command as "TYPE field1=v1 field2=v2 ..." in
// schema order, deliberately omitting timestamp (spec §8 "compared
// field-by-field excluding timestamp").
func canonicalize(c avrsketch.Command) string {
	var sb strings.Builder
	sb.WriteString(string(c.Type))
	for _, name := range c.FieldNames() {
		v, _ := c.Field(name)
		fmt.Fprintf(&sb, " %s=%v", name, v)
	}
	return sb.String()
}

func renderDiff(a, b string) string {
	d := diffmatchpatch.New()
	diffs := d.DiffMain(a, b, false)
	return d.DiffPrettyText(diffs)
}
