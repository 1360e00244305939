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
	"reflect"
	"testing"
)

func parseForCodec(t *testing.T, src string) *Node {
	t.Helper()
	p := NewParser(src)
	prog := p.ParseProgram()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics parsing %q: %v", src, p.Diagnostics())
	}
	return prog
}

func TestCodecRoundTrip(t *testing.T) {
	srcs := []string{
		"void setup() {}\nvoid loop() {}\n",
		"int x = 5;\nvoid setup() { x = x + 1; }\nvoid loop() {}\n",
		`void loop() { if (x > 0) { y = 1; } else { y = 2; } }`,
		`void loop() { for (int i = 0; i < 10; i++) { digitalWrite(i, HIGH); } }`,
		`void loop() { char *name = "hello"; }`,
	}
	for _, src := range srcs {
		prog := parseForCodec(t, src)
		encoded := EncodeAST(prog)
		decoded, err := DecodeAST(encoded)
		if err != nil {
			t.Fatalf("DecodeAST failed for %q: %v", src, err)
		}
		if !sameShape(prog, decoded) {
			t.Errorf("round trip changed shape for %q:\nbefore: %s\nafter:  %s", src, dumpShape(prog), dumpShape(decoded))
		}
	}
}

func TestCodecDeterministicEncoding(t *testing.T) {
	prog := parseForCodec(t, "int x = 1;\nvoid setup() { x = x + 1; }\nvoid loop() {}\n")
	a := EncodeAST(prog)
	b := EncodeAST(prog)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("encoding the same tree twice produced different bytes")
	}
}

func TestCodecHeaderFields(t *testing.T) {
	prog := parseForCodec(t, "void loop() {}\n")
	data := EncodeAST(prog)
	if len(data) < 16 {
		t.Fatalf("encoded stream too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "ASTP" {
		t.Errorf("magic = %q, want ASTP", data[0:4])
	}
}

func TestCodecRejectsMajorVersionMismatch(t *testing.T) {
	prog := parseForCodec(t, "void loop() {}\n")
	data := EncodeAST(prog)
	corrupt := append([]byte(nil), data...)
	corrupt[4] = 0xFF // version is little-endian: offset 4 is the minor byte,
	corrupt[5] = 0x02 // offset 5 the major byte
	_, err := DecodeAST(corrupt)
	if err == nil {
		t.Fatalf("expected an error for a major version mismatch")
	}
	if _, ok := err.(*ErrUnsupportedVersion); !ok {
		t.Errorf("error type = %T, want *ErrUnsupportedVersion", err)
	}
}

func TestCodecUnknownKindBecomesErrorNode(t *testing.T) {
	prog := parseForCodec(t, "void loop() {}\n")
	data := EncodeAST(prog)
	// The root Program node is the first node in the stream, right after
	// the 16-byte header and the string table region (whose size the
	// header's last u32 gives, little-endian).
	strTableSize := uint32(data[12]) | uint32(data[13])<<8 | uint32(data[14])<<16 | uint32(data[15])<<24
	nodeStreamStart := 16 + int(strTableSize)
	corrupt := append([]byte(nil), data...)
	corrupt[nodeStreamStart] = 0xEE // an unused kind byte
	decoded, err := DecodeAST(corrupt)
	if err != nil {
		t.Fatalf("unexpected hard failure on unknown kind: %v", err)
	}
	if decoded.Kind != KindError || decoded.RawKind != 0xEE {
		t.Errorf("got kind=%#02x rawKind=%#02x, want Error/0xEE", decoded.Kind, decoded.RawKind)
	}
}

func sameShape(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Name != b.Name || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !sameShape(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func dumpShape(n *Node) string {
	if n == nil {
		return "nil"
	}
	s := "("
	for i, c := range n.Children {
		if i > 0 {
			s += " "
		}
		s += dumpShape(c)
	}
	return s + ")"
}
