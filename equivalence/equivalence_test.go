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

package equivalence

import (
	"testing"
	"time"

	"github.com/katisim/avrsketch"
)

// runSketch preprocesses, parses and runs src to completion, auto-answering
// any suspended request with a zero Value, and returns the full Command
// stream. It mirrors how a host or an embedded implementation would drive
// the same Interpreter API independently.
func runSketch(t *testing.T, src string, opts avrsketch.InterpreterOptions) []avrsketch.Command {
	t.Helper()
	platform := avrsketch.NewPlatformContext(avrsketch.ArduinoUno)
	registry := avrsketch.NewLibraryRegistry()
	pp := avrsketch.NewPreprocessor(platform, registry)
	clean, _, diags := pp.Process(src, "t.ino")
	if len(diags) != 0 {
		t.Fatalf("preprocessor diagnostics: %v", diags)
	}
	p := avrsketch.NewParser(clean)
	prog := p.ParseProgram()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("parser diagnostics: %v", p.Diagnostics())
	}
	in := avrsketch.NewInterpreter(prog, pp.Platform(), registry, opts)
	in.Start()

	var cmds []avrsketch.Command
	for {
		select {
		case cmd, ok := <-in.Commands():
			if !ok {
				return cmds
			}
			cmds = append(cmds, cmd)
			if in.State() == avrsketch.StateAwaitingResponse {
				reqID, _ := cmd.Field("requestId")
				if id, ok := reqID.(uint64); ok {
					in.HandleResponse(id, avrsketch.Value{Kind: avrsketch.ValueInt})
				}
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("sketch did not terminate within timeout")
		}
	}
}

const blinkSrc = `
int ledPin = 13;
void setup() { pinMode(ledPin, OUTPUT); }
void loop() {
  digitalWrite(ledPin, HIGH);
  delay(10);
  digitalWrite(ledPin, LOW);
  delay(10);
}
`

func TestCompareIdenticalRunsAreEquivalent(t *testing.T) {
	opts := avrsketch.DefaultInterpreterOptions()
	opts.MaxLoopIterations = 2
	host := runSketch(t, blinkSrc, opts)
	embedded := runSketch(t, blinkSrc, opts)

	result := Compare(host, embedded)
	if !result.Equivalent {
		t.Fatalf("expected two independent runs of the same sketch to be equivalent, got mismatches: %+v", result.Mismatches)
	}
}

func TestCompareIgnoresTimestampField(t *testing.T) {
	opts := avrsketch.DefaultInterpreterOptions()
	opts.MaxLoopIterations = 1
	host := runSketch(t, "void setup() {}\nvoid loop() { delay(5); }\n", opts)

	// Build an "embedded" stream with every timestamp shifted, otherwise
	// identical, by copying each Command and changing only its Timestamp.
	embedded := make([]avrsketch.Command, len(host))
	for i, c := range host {
		embedded[i] = c
		embedded[i].Timestamp = c.Timestamp + 999999
	}

	result := Compare(host, embedded)
	if !result.Equivalent {
		t.Fatalf("timestamp-only differences must not cause a mismatch, got: %+v", result.Mismatches)
	}
}

func TestCompareDetectsFieldMismatch(t *testing.T) {
	opts := avrsketch.DefaultInterpreterOptions()
	opts.MaxLoopIterations = 1
	host := runSketch(t, "void setup() {}\nvoid loop() { digitalWrite(13, HIGH); }\n", opts)
	embedded := runSketch(t, "void setup() {}\nvoid loop() { digitalWrite(13, LOW); }\n", opts)

	result := Compare(host, embedded)
	if result.Equivalent {
		t.Fatalf("expected a field-level mismatch between HIGH and LOW digitalWrite calls")
	}
	found := false
	for _, m := range result.Mismatches {
		if m.Diff != "" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected at least one mismatch to carry a rendered diff")
	}
}

func TestCompareDetectsLengthMismatch(t *testing.T) {
	shortOpts := avrsketch.DefaultInterpreterOptions()
	shortOpts.MaxLoopIterations = 1
	longOpts := avrsketch.DefaultInterpreterOptions()
	longOpts.MaxLoopIterations = 3

	host := runSketch(t, blinkSrc, shortOpts)
	embedded := runSketch(t, blinkSrc, longOpts)

	result := Compare(host, embedded)
	if result.Equivalent {
		t.Fatalf("expected streams of different lengths to be reported as non-equivalent")
	}
	if len(result.Mismatches) != 1 || result.Mismatches[0].Index != -1 {
		t.Errorf("expected a single length-mismatch entry at index -1, got %+v", result.Mismatches)
	}
}
