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

import "fmt"

// Severity classifies a Diagnostic. The interpreter never raises on any of
// these; they are always surfaced as data (a Diagnostic or an ErrorNode),
// per spec §7's propagation policy.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single preprocessor or parser complaint, always carrying
// the original-source position it was raised for.
type Diagnostic struct {
	Pos      Position
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

func warnf(pos Position, f string, a ...interface{}) Diagnostic {
	return Diagnostic{Pos: pos, Severity: SeverityWarning, Message: fmt.Sprintf(f, a...)}
}

func errorf(pos Position, f string, a ...interface{}) Diagnostic {
	return Diagnostic{Pos: pos, Severity: SeverityError, Message: fmt.Sprintf(f, a...)}
}
