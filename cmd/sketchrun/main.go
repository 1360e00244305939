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

// Command sketchrun parses and runs one sketch file against a chosen
// board profile, printing the resulting Command stream as JSON lines.
// It is a wiring demonstration, not a full Arduino CLI replacement.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/katisim/avrsketch"
)

var (
	platformFlag = flag.String("platform", "ARDUINO_UNO", "board profile: ARDUINO_UNO, ARDUINO_MEGA, or ESP32_NANO")
	maxLoops     = flag.Int("max_loop_iterations", 3, "loop() iteration cap")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sketchrun [flags] <sketch.ino>")
		os.Exit(2)
	}
	src, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		glog.Exitf("reading sketch: %v", err)
	}

	platform := avrsketch.NewPlatformContext(avrsketch.PlatformID(*platformFlag))
	registry := avrsketch.NewLibraryRegistry()

	pp := avrsketch.NewPreprocessor(platform, registry)
	clean, _, diags := pp.Process(string(src), flag.Arg(0))
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}

	parser := avrsketch.NewParser(clean)
	program := parser.ParseProgram()
	for _, d := range parser.Diagnostics() {
		fmt.Fprintln(os.Stderr, d.String())
	}

	opts := avrsketch.DefaultInterpreterOptions()
	opts.MaxLoopIterations = *maxLoops

	in := avrsketch.NewInterpreter(program, pp.Platform(), registry, opts)
	in.Start()

	enc := json.NewEncoder(os.Stdout)
	for cmd := range in.Commands() {
		if in.State() == avrsketch.StateAwaitingResponse {
			// A bare wiring demonstration has no real host peripherals to
			// query; answer every request with zero so the stream still
			// completes deterministically.
			reqID, _ := cmd.Field("requestId")
			if id, ok := reqID.(uint64); ok {
				in.HandleResponse(id, avrsketch.Value{})
			}
		}
		if err := enc.Encode(cmd); err != nil {
			glog.Errorf("encoding command: %v", err)
		}
	}
	if err := in.Err(); err != nil {
		os.Exit(1)
	}
}
