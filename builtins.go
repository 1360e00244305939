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

import (
	"fmt"
	"math"
)

// builtinConstant resolves the small set of Arduino pin-mode/level
// identifiers that are not board-specific pin aliases.
func builtinConstant(name string) (Value, bool) {
	switch name {
	case "HIGH":
		return intValue(1), true
	case "LOW":
		return intValue(0), true
	case "INPUT":
		return intValue(0), true
	case "OUTPUT":
		return intValue(1), true
	case "INPUT_PULLUP":
		return intValue(2), true
	case "HEX":
		return stringValue("HEX"), true
	case "DEC":
		return stringValue("DEC"), true
	case "BIN":
		return stringValue("BIN"), true
	case "OCT":
		return stringValue("OCT"), true
	default:
		return Value{}, false
	}
}

func pinModeName(v Value) string {
	switch v.AsInt64() {
	case 0:
		return "INPUT"
	case 2:
		return "INPUT_PULLUP"
	default:
		return "OUTPUT"
	}
}

// evalCallOrMember evaluates both a bare member-access read (struct field
// or library-object property) and a full call, routing calls through
// user functions, internal Arduino built-ins, external requests, or the
// Library Registry (spec §4.5 "Library dispatch").
func (in *Interpreter) evalCallOrMember(n *Node) (Value, error) {
	if n.Kind == KindMemberAccess {
		obj, err := in.evalExpr(n.child(slotMemberObject))
		if err != nil {
			return voidValue(), err
		}
		if obj.Kind == ValueStruct {
			return obj.Fields[n.Name], nil
		}
		return voidValue(), nil
	}

	callee := n.child(0)
	args := n.Children[1:]

	if callee.Kind == KindIdentifier {
		return in.evalFreeCall(n, callee.Name, args)
	}
	if callee.Kind == KindMemberAccess {
		return in.evalMethodCall(n, callee, args)
	}
	return voidValue(), fmt.Errorf("%s: unsupported call target", n.Pos)
}

func (in *Interpreter) evalArgs(nodes []*Node) ([]Value, error) {
	out := make([]Value, 0, len(nodes))
	for _, a := range nodes {
		v, err := in.evalExpr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (in *Interpreter) evalFreeCall(n *Node, name string, argNodes []*Node) (Value, error) {
	if name == "new" {
		return Value{Kind: ValueStruct, Fields: map[string]Value{}}, nil
	}
	if fn, ok := in.funcs[name]; ok {
		args, err := in.evalArgs(argNodes)
		if err != nil {
			return voidValue(), err
		}
		return in.callUserFunc(fn, args)
	}
	args, err := in.evalArgs(argNodes)
	if err != nil {
		return voidValue(), err
	}
	switch name {
	case "pinMode":
		in.emit(cmdPinMode(in.clock, int(args[0].AsInt64()), pinModeName(args[1])))
		return voidValue(), nil
	case "digitalWrite":
		in.emit(cmdDigitalWrite(in.clock, int(args[0].AsInt64()), int(args[1].AsInt64())))
		return voidValue(), nil
	case "analogWrite":
		in.emit(cmdAnalogWrite(in.clock, int(args[0].AsInt64()), int(args[1].AsInt64())))
		return voidValue(), nil
	case "delay":
		ms := args[0].AsInt64()
		in.emit(cmdDelay(in.clock, ms))
		in.clock += ms
		return voidValue(), nil
	case "delayMicroseconds":
		us := args[0].AsInt64()
		in.emit(cmdDelayMicroseconds(in.clock, us))
		return voidValue(), nil
	case "digitalRead":
		v := in.awaitResponse(func(id uint64) Command {
			return cmdDigitalReadRequest(in.clock, id, int(args[0].AsInt64()))
		})
		return v, nil
	case "analogRead":
		v := in.awaitResponse(func(id uint64) Command {
			return cmdAnalogReadRequest(in.clock, id, int(args[0].AsInt64()))
		})
		return v, nil
	case "millis":
		v := in.awaitResponse(func(id uint64) Command {
			return cmdMillisRequest(in.clock, id)
		})
		return v, nil
	case "micros":
		v := in.awaitResponse(func(id uint64) Command {
			return cmdMicrosRequest(in.clock, id)
		})
		return v, nil
	case "min":
		return arith(args[0], args[1], math.Min, func(a, b int64) int64 {
			if a < b {
				return a
			}
			return b
		}), nil
	case "max":
		return arith(args[0], args[1], math.Max, func(a, b int64) int64 {
			if a > b {
				return a
			}
			return b
		}), nil
	case "abs":
		if args[0].Kind == ValueFloat {
			return floatValue(math.Abs(args[0].Float)), nil
		}
		v := args[0].AsInt64()
		if v < 0 {
			v = -v
		}
		return intValue(v), nil
	case "constrain":
		v, lo, hi := args[0].AsFloat64(), args[1].AsFloat64(), args[2].AsFloat64()
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		if args[0].Kind == ValueFloat {
			return floatValue(v), nil
		}
		return intValue(int64(v)), nil
	case "map":
		x, inMin, inMax, outMin, outMax := args[0].AsFloat64(), args[1].AsFloat64(), args[2].AsFloat64(), args[3].AsFloat64(), args[4].AsFloat64()
		result := (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
		return intValue(int64(result)), nil
	case "pow":
		return floatValue(math.Pow(args[0].AsFloat64(), args[1].AsFloat64())), nil
	case "sqrt":
		return floatValue(math.Sqrt(args[0].AsFloat64())), nil
	case "random":
		if len(args) == 1 {
			return intValue(0), nil // deterministic: always the low end of the range
		}
		return intValue(args[0].AsInt64()), nil
	case "tone", "noTone", "analogReference", "randomSeed", "attachInterrupt", "detachInterrupt":
		return voidValue(), nil // accepted and ignored: no observable command per spec §4.5 scope
	default:
		return voidValue(), fmt.Errorf("%s: call to unknown function %q", n.Pos, name)
	}
}

func (in *Interpreter) evalMethodCall(n *Node, callee *Node, argNodes []*Node) (Value, error) {
	objNode := callee.child(slotMemberObject)
	method := callee.Name

	if objNode.Kind == KindIdentifier && objNode.Name == "Serial" {
		args, err := in.evalArgs(argNodes)
		if err != nil {
			return voidValue(), err
		}
		return in.evalSerialCall(method, args)
	}

	if objNode.Kind == KindIdentifier {
		if desc, ok := in.registry.Lookup(objNode.Name); ok {
			args, err := in.evalArgs(argNodes)
			if err != nil {
				return voidValue(), err
			}
			if entry, ok := desc.StaticMethod(method); ok {
				return in.dispatchLibraryMethod(desc.TypeName, "", entry, method, args)
			}
		}
	}

	obj, err := in.evalExpr(objNode)
	if err != nil {
		return voidValue(), err
	}
	args, err := in.evalArgs(argNodes)
	if err != nil {
		return voidValue(), err
	}
	if obj.Kind == ValueLibraryObject {
		desc, ok := in.registry.Lookup(obj.LibraryType)
		if !ok {
			return voidValue(), fmt.Errorf("%s: %s is not a registered library type", n.Pos, obj.LibraryType)
		}
		entry, ok := desc.InstanceMethod(method)
		if !ok {
			return voidValue(), fmt.Errorf("%s: %s has no method %q", n.Pos, obj.LibraryType, method)
		}
		return in.dispatchLibraryMethod(desc.TypeName, fmt.Sprintf("%s#%d", obj.LibraryType, obj.InstanceID), entry, method, args)
	}
	if obj.Kind == ValueStruct {
		return voidValue(), fmt.Errorf("%s: %q is not callable on a plain struct", n.Pos, method)
	}
	return voidValue(), fmt.Errorf("%s: cannot call %q on this value", n.Pos, method)
}

func (in *Interpreter) evalSerialCall(method string, args []Value) (Value, error) {
	switch method {
	case "begin":
		in.emit(cmdSerialBegin(in.clock, int(args[0].AsInt64())))
		return voidValue(), nil
	case "print":
		format := ""
		if len(args) > 1 {
			format = args[1].Str
		}
		in.emit(cmdSerialPrint(in.clock, args[0].String(), format))
		return voidValue(), nil
	case "println":
		format := ""
		if len(args) > 1 {
			format = args[1].Str
		}
		in.emit(cmdSerialPrintln(in.clock, args[0].String(), format))
		return voidValue(), nil
	case "available":
		return intValue(0), nil
	default:
		return voidValue(), fmt.Errorf("Serial has no method %q", method)
	}
}

// dispatchLibraryMethod routes one library call per its registered
// MethodKind: internal methods are computed locally and never touch the
// command stream; external methods always emit a LIBRARY_METHOD_REQUEST
// and suspend for the host's answer (spec §4.5).
func (in *Interpreter) dispatchLibraryMethod(typeName, object string, entry MethodEntry, method string, args []Value) (Value, error) {
	if entry.Kind == MethodInternal {
		switch method {
		case "attached":
			return boolValue(true), nil
		case "length":
			return intValue(1024), nil
		default:
			return voidValue(), nil
		}
	}
	argIfaces := make([]interface{}, len(args))
	for i, a := range args {
		argIfaces[i] = a.AsInt64()
		if a.Kind == ValueString {
			argIfaces[i] = a.Str
		}
	}
	objLabel := object
	if objLabel == "" {
		objLabel = typeName
	}
	v := in.awaitResponse(func(id uint64) Command {
		return cmdLibraryMethodRequest(in.clock, id, objLabel, method, argIfaces)
	})
	return v, nil
}
