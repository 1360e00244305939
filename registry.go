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

// MethodKind says whether a Library Registry method is computed locally by
// the interpreter or requires a round trip to the host (spec §3 "Library
// Descriptor").
type MethodKind int

const (
	MethodInternal MethodKind = iota
	MethodExternal
)

// MethodEntry describes one static or instance method of a library type.
type MethodEntry struct {
	Name  string
	Arity int
	Kind  MethodKind
}

// LibraryDescriptor is the side table the interpreter consults to route
// obj.method(args) calls (spec §3/§4.5 "Library dispatch"). The shape is
// adapted from the teacher's func.go dispatch-by-name-to-factory registry
// (funcMap), generalized from "one function per name" to "one descriptor
// per type, many methods per descriptor."
type LibraryDescriptor struct {
	TypeName        string
	StaticMethods   map[string]MethodEntry
	InstanceMethods map[string]MethodEntry
}

// LibraryRegistry is the complete side table, and the header-name ->
// library-name map the preprocessor uses to resolve #include (spec §4.2).
type LibraryRegistry struct {
	byHeader map[string]string
	byName   map[string]*LibraryDescriptor
}

// NewLibraryRegistry builds the registry with a representative set of real
// Arduino libraries: enough to exercise every branch of the dispatch rule
// in spec §4.5 (internal vs. external vs. "not a known library at all").
func NewLibraryRegistry() *LibraryRegistry {
	r := &LibraryRegistry{
		byHeader: map[string]string{
			"Servo.h":         "Servo",
			"Wire.h":          "Wire",
			"EEPROM.h":        "EEPROM",
			"LiquidCrystal.h": "LiquidCrystal",
		},
		byName: map[string]*LibraryDescriptor{
			"Servo": {
				TypeName: "Servo",
				InstanceMethods: map[string]MethodEntry{
					"attach":      {"attach", 1, MethodExternal},
					"write":       {"write", 1, MethodExternal},
					"writeMicroseconds": {"writeMicroseconds", 1, MethodExternal},
					"read":        {"read", 0, MethodExternal},
					"attached":    {"attached", 0, MethodInternal},
					"detach":      {"detach", 0, MethodExternal},
				},
			},
			"Wire": {
				TypeName: "Wire",
				StaticMethods: map[string]MethodEntry{
					"begin":            {"begin", 0, MethodExternal},
					"beginTransmission": {"beginTransmission", 1, MethodExternal},
					"endTransmission":  {"endTransmission", 0, MethodExternal},
					"write":            {"write", 1, MethodExternal},
					"requestFrom":      {"requestFrom", 2, MethodExternal},
					"available":        {"available", 0, MethodExternal},
					"read":             {"read", 0, MethodExternal},
				},
			},
			"EEPROM": {
				TypeName: "EEPROM",
				StaticMethods: map[string]MethodEntry{
					"read":   {"read", 1, MethodExternal},
					"write":  {"write", 2, MethodExternal},
					"update": {"update", 2, MethodExternal},
					"length": {"length", 0, MethodInternal},
				},
			},
			"LiquidCrystal": {
				TypeName: "LiquidCrystal",
				InstanceMethods: map[string]MethodEntry{
					"begin":      {"begin", 2, MethodExternal},
					"print":      {"print", 1, MethodExternal},
					"setCursor":  {"setCursor", 2, MethodExternal},
					"clear":      {"clear", 0, MethodExternal},
					"noDisplay":  {"noDisplay", 0, MethodExternal},
					"display":    {"display", 0, MethodExternal},
				},
			},
		},
	}
	return r
}

// ResolveInclude matches a bracketed/quoted #include name against the
// registry and returns the library's type name. It does not activate the
// library; the Preprocessor does that on a match.
func (r *LibraryRegistry) ResolveInclude(headerName string) (libraryName string, ok bool) {
	libraryName, ok = r.byHeader[headerName]
	return libraryName, ok
}

// Lookup returns the descriptor for a known library type name.
func (r *LibraryRegistry) Lookup(typeName string) (*LibraryDescriptor, bool) {
	d, ok := r.byName[typeName]
	return d, ok
}

// InstanceMethod returns the method entry for an instance call, and
// whether this type+method combination is known at all.
func (d *LibraryDescriptor) InstanceMethod(name string) (MethodEntry, bool) {
	m, ok := d.InstanceMethods[name]
	return m, ok
}

// StaticMethod returns the method entry for a static call.
func (d *LibraryDescriptor) StaticMethod(name string) (MethodEntry, bool) {
	m, ok := d.StaticMethods[name]
	return m, ok
}
