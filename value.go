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

// ValueKind tags which alternative of Value is live, mirroring the C++
// scalar/array/struct/pointer/library-handle domain of spec §4.5 "runtime
// values". Grounded on the teacher's Var interface (String/Flavor) in
// var.go, generalized from "a string, maybe with a recipe" to a proper
// tagged union since the interpreter needs real arithmetic, not text.
type ValueKind uint8

const (
	ValueVoid ValueKind = iota
	ValueBool
	ValueInt
	ValueUint
	ValueFloat
	ValueString
	ValueArray
	ValueStruct
	ValuePointer
	ValueLibraryObject
)

// Value is the interpreter's tagged runtime value.
type Value struct {
	Kind ValueKind

	Int   int64
	Uint  uint64
	Float float64
	Bool  bool
	Str   string

	// Elems backs ValueArray; Fields backs ValueStruct.
	Elems  []Value
	Fields map[string]Value

	// Pointee backs ValuePointer: the addressed variable's storage cell.
	Pointee *Value

	// LibraryType/InstanceID identify a ValueLibraryObject so Library
	// Registry dispatch (spec §4.5) can route obj.method(args...) calls.
	LibraryType string
	InstanceID  int
}

func voidValue() Value               { return Value{Kind: ValueVoid} }
func boolValue(b bool) Value         { return Value{Kind: ValueBool, Bool: b} }
func intValue(v int64) Value         { return Value{Kind: ValueInt, Int: v} }
func uintValue(v uint64) Value        { return Value{Kind: ValueUint, Uint: v} }
func floatValue(v float64) Value      { return Value{Kind: ValueFloat, Float: v} }
func stringValue(s string) Value      { return Value{Kind: ValueString, Str: s} }

// Truthy applies C truthiness: any non-zero scalar, or a non-empty
// string, is true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case ValueBool:
		return v.Bool
	case ValueInt:
		return v.Int != 0
	case ValueUint:
		return v.Uint != 0
	case ValueFloat:
		return v.Float != 0
	case ValueString:
		return v.Str != ""
	case ValuePointer:
		return v.Pointee != nil
	default:
		return false
	}
}

// AsFloat64 coerces a numeric value to float64 for mixed-type arithmetic
// (spec §4.5 "usual arithmetic conversions").
func (v Value) AsFloat64() float64 {
	switch v.Kind {
	case ValueInt:
		return float64(v.Int)
	case ValueUint:
		return float64(v.Uint)
	case ValueFloat:
		return v.Float
	case ValueBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// AsInt64 coerces a numeric value to int64, truncating floats toward
// zero as C does.
func (v Value) AsInt64() int64 {
	switch v.Kind {
	case ValueInt:
		return v.Int
	case ValueUint:
		return int64(v.Uint)
	case ValueFloat:
		return int64(v.Float)
	case ValueBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (v Value) isNumeric() bool {
	switch v.Kind {
	case ValueInt, ValueUint, ValueFloat, ValueBool:
		return true
	}
	return false
}

// String renders a value the way Serial.print would (spec §4.5 internal
// Serial helpers): floats at two decimal places, everything else in its
// natural text form.
func (v Value) String() string {
	switch v.Kind {
	case ValueVoid:
		return ""
	case ValueBool:
		if v.Bool {
			return "1"
		}
		return "0"
	case ValueInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueUint:
		return fmt.Sprintf("%d", v.Uint)
	case ValueFloat:
		return fmt.Sprintf("%.2f", v.Float)
	case ValueString:
		return v.Str
	case ValuePointer:
		return "<ptr>"
	case ValueLibraryObject:
		return fmt.Sprintf("<%s#%d>", v.LibraryType, v.InstanceID)
	default:
		return fmt.Sprintf("<%v>", v.Kind)
	}
}
