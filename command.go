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
	"bytes"
	"fmt"
)

// CommandType enumerates the command taxonomy of spec §6.
type CommandType string

const (
	CmdVersionInfo      CommandType = "VERSION_INFO"
	CmdProgramStart     CommandType = "PROGRAM_START"
	CmdProgramEnd       CommandType = "PROGRAM_END"
	CmdSetupStart       CommandType = "SETUP_START"
	CmdSetupEnd         CommandType = "SETUP_END"
	CmdLoopStart        CommandType = "LOOP_START"
	CmdLoopEnd          CommandType = "LOOP_END"
	CmdLoopLimitReached CommandType = "LOOP_LIMIT_REACHED"
	CmdFunctionCall     CommandType = "FUNCTION_CALL"
	CmdError            CommandType = "ERROR"
	CmdTimeout          CommandType = "TIMEOUT"

	CmdPinMode           CommandType = "PIN_MODE"
	CmdDigitalWrite      CommandType = "DIGITAL_WRITE"
	CmdAnalogWrite       CommandType = "ANALOG_WRITE"
	CmdDelay             CommandType = "DELAY"
	CmdDelayMicroseconds CommandType = "DELAY_MICROSECONDS"

	CmdSerialBegin   CommandType = "SERIAL_BEGIN"
	CmdSerialPrint   CommandType = "SERIAL_PRINT"
	CmdSerialPrintln CommandType = "SERIAL_PRINTLN"

	CmdAnalogReadRequest     CommandType = "ANALOG_READ_REQUEST"
	CmdDigitalReadRequest    CommandType = "DIGITAL_READ_REQUEST"
	CmdMillisRequest         CommandType = "MILLIS_REQUEST"
	CmdMicrosRequest         CommandType = "MICROS_REQUEST"
	CmdLibraryMethodRequest  CommandType = "LIBRARY_METHOD_REQUEST"
)

// field is one ordered name/value pair in a Command's field set. Commands
// use an ordered slice rather than a map so that field insertion order is
// structural, not an incidental property of one JSON encoder (SPEC_FULL §6
// resolves spec's Open Question this way).
type field struct {
	name  string
	value interface{}
}

// Command is the primitive-only structured record the interpreter emits
// (spec §3 "Command"). Timestamp is opaque to equivalence comparison
// (spec §4.5 command stream invariants).
type Command struct {
	Type      CommandType
	Timestamp int64
	fields    []field
}

func newCommand(t CommandType, ts int64, fields ...field) Command {
	return Command{Type: t, Timestamp: ts, fields: fields}
}

func f(name string, value interface{}) field { return field{name, value} }

// Fields returns the command's fields in required schema order.
func (c Command) Fields() []field { return c.fields }

// FieldNames returns the field names in schema order, for callers outside
// this package (such as the equivalence comparator) that need to walk a
// command's fields without depending on the unexported field type.
func (c Command) FieldNames() []string {
	names := make([]string, len(c.fields))
	for i, fl := range c.fields {
		names[i] = fl.name
	}
	return names
}

// Name returns a field's name.
func (fl field) Name() string { return fl.name }

// Value returns a field's value.
func (fl field) Value() interface{} { return fl.value }

// Field looks up a single field by name; ok is false if absent.
func (c Command) Field(name string) (interface{}, bool) {
	for _, fl := range c.fields {
		if fl.name == name {
			return fl.value, true
		}
	}
	return nil, false
}

// MarshalJSON preserves the field insertion order type, timestamp,
// <fields in schema order> required by spec §6 for cross-platform byte
// comparison, by hand-writing the object instead of relying on map
// iteration order.
func (c Command) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	fmt.Fprintf(&buf, "%q:%q", "type", string(c.Type))
	fmt.Fprintf(&buf, `,%q:%d`, "timestamp", c.Timestamp)
	for _, fl := range c.fields {
		buf.WriteByte(',')
		if err := writeJSONField(&buf, fl); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONField(buf *bytes.Buffer, fl field) error {
	fmt.Fprintf(buf, "%q:", fl.name)
	return writeJSONValue(buf, fl.value)
}

func writeJSONValue(buf *bytes.Buffer, v interface{}) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		fmt.Fprintf(buf, "%q", t)
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int:
		fmt.Fprintf(buf, "%d", t)
	case int64:
		fmt.Fprintf(buf, "%d", t)
	case uint64:
		fmt.Fprintf(buf, "%d", t)
	case float64:
		fmt.Fprintf(buf, "%g", t)
	case []interface{}:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("command field: unsupported value type %T", v)
	}
	return nil
}

// --- constructors, one per taxonomy entry (spec §6) ---

func cmdVersionInfo(ts int64, component, version, status string) Command {
	return newCommand(CmdVersionInfo, ts, f("component", component), f("version", version), f("status", status))
}

func cmdProgramStart(ts int64, message string) Command {
	return newCommand(CmdProgramStart, ts, f("message", message))
}

func cmdProgramEnd(ts int64, message string) Command {
	return newCommand(CmdProgramEnd, ts, f("message", message))
}

func cmdSetupStart(ts int64) Command { return newCommand(CmdSetupStart, ts) }
func cmdSetupEnd(ts int64) Command   { return newCommand(CmdSetupEnd, ts) }

func cmdLoopStart(ts int64, iteration int, loopType string) Command {
	return newCommand(CmdLoopStart, ts, f("iteration", iteration), f("loopType", loopType))
}

func cmdLoopEnd(ts int64, iterations int, limitReached bool) Command {
	return newCommand(CmdLoopEnd, ts, f("iterations", iterations), f("limitReached", limitReached))
}

func cmdLoopLimitReached(ts int64, iterations int) Command {
	return newCommand(CmdLoopLimitReached, ts, f("iterations", iterations))
}

func cmdFunctionCall(ts int64, function string, iteration int, completed bool) Command {
	return newCommand(CmdFunctionCall, ts, f("function", function), f("iteration", iteration), f("completed", completed))
}

func cmdError(ts int64, message string) Command {
	return newCommand(CmdError, ts, f("message", message))
}

func cmdTimeout(ts int64, message string) Command {
	return newCommand(CmdTimeout, ts, f("message", message))
}

func cmdPinMode(ts int64, pin int, mode string) Command {
	return newCommand(CmdPinMode, ts, f("pin", pin), f("mode", mode))
}

func cmdDigitalWrite(ts int64, pin, value int) Command {
	return newCommand(CmdDigitalWrite, ts, f("pin", pin), f("value", value))
}

func cmdAnalogWrite(ts int64, pin, value int) Command {
	return newCommand(CmdAnalogWrite, ts, f("pin", pin), f("value", value))
}

func cmdDelay(ts int64, ms int64) Command {
	return newCommand(CmdDelay, ts, f("ms", ms))
}

func cmdDelayMicroseconds(ts int64, us int64) Command {
	return newCommand(CmdDelayMicroseconds, ts, f("us", us))
}

func cmdSerialBegin(ts int64, baud int) Command {
	return newCommand(CmdSerialBegin, ts, f("baud", baud))
}

func cmdSerialPrint(ts int64, value string, format string) Command {
	fields := []field{f("value", value)}
	if format != "" {
		fields = append(fields, f("format", format))
	}
	return newCommand(CmdSerialPrint, ts, fields...)
}

func cmdSerialPrintln(ts int64, value string, format string) Command {
	fields := []field{f("value", value)}
	if format != "" {
		fields = append(fields, f("format", format))
	}
	return newCommand(CmdSerialPrintln, ts, fields...)
}

func cmdAnalogReadRequest(ts int64, requestID uint64, pin int) Command {
	return newCommand(CmdAnalogReadRequest, ts, f("requestId", requestID), f("pin", pin))
}

func cmdDigitalReadRequest(ts int64, requestID uint64, pin int) Command {
	return newCommand(CmdDigitalReadRequest, ts, f("requestId", requestID), f("pin", pin))
}

func cmdMillisRequest(ts int64, requestID uint64) Command {
	return newCommand(CmdMillisRequest, ts, f("requestId", requestID))
}

func cmdMicrosRequest(ts int64, requestID uint64) Command {
	return newCommand(CmdMicrosRequest, ts, f("requestId", requestID))
}

func cmdLibraryMethodRequest(ts int64, requestID uint64, object, method string, args []interface{}) Command {
	return newCommand(CmdLibraryMethodRequest, ts,
		f("requestId", requestID), f("object", object), f("method", method), f("args", args))
}
