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

// Stats is a read-only counter bundle attached to one Interpreter run.
// Only CommandsEmitted feeds back into execution: runProgram compares it
// with MaxCommandCount to end the loop() phase. The other counters are
// pure observability (§8 compares commands only).
type Stats struct {
	CommandsEmitted  int
	RequestsIssued   int
	LoopIterationsRun int
	ErrorsEmitted    int
}

func (s *Stats) onCommand(c Command) {
	s.CommandsEmitted++
	switch c.Type {
	case CmdAnalogReadRequest, CmdDigitalReadRequest, CmdMillisRequest,
		CmdMicrosRequest, CmdLibraryMethodRequest:
		s.RequestsIssued++
	case CmdLoopStart:
		s.LoopIterationsRun++
	case CmdError:
		s.ErrorsEmitted++
	}
}
