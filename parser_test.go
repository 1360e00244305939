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

import "testing"

func TestParserBareMinimum(t *testing.T) {
	src := "void setup() {}\nvoid loop() {}\n"
	p := NewParser(src)
	prog := p.ParseProgram()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
	if prog.Kind != KindProgram {
		t.Fatalf("root kind = %#02x, want Program", prog.Kind)
	}
	var names []string
	for _, c := range prog.Children {
		names = append(names, c.Name)
	}
	if len(names) != 2 || names[0] != "setup" || names[1] != "loop" {
		t.Errorf("top-level decls = %v, want [setup loop]", names)
	}
}

func TestParserBlinkLikeSketch(t *testing.T) {
	src := `
int ledPin = 13;

void setup() {
  pinMode(ledPin, OUTPUT);
}

void loop() {
  digitalWrite(ledPin, HIGH);
  delay(1000);
  digitalWrite(ledPin, LOW);
  delay(1000);
}
`
	p := NewParser(src)
	prog := p.ParseProgram()
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
	if len(prog.Children) != 3 {
		t.Fatalf("got %d top-level decls, want 3", len(prog.Children))
	}
	loop := prog.Children[2]
	body := loop.child(slotFuncDeclBody)
	if body == nil || len(body.Children) != 4 {
		t.Fatalf("loop() body has %v statements, want 4", body)
	}
}

func TestParserControlFlowConstructs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
	}{
		{"if", "void f() { if (1) { x = 1; } else { x = 2; } }", KindIf},
		{"while", "void f() { while (1) { x = 1; } }", KindWhile},
		{"do-while", "void f() { do { x = 1; } while (1); }", KindDoWhile},
		{"for", "void f() { for (int i = 0; i < 10; i++) { x = i; } }", KindFor},
		{"switch", "void f() { switch (x) { case 1: break; default: break; } }", KindSwitch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(tt.src)
			prog := p.ParseProgram()
			if len(p.Diagnostics()) != 0 {
				t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
			}
			body := prog.Children[0].child(slotFuncDeclBody)
			if len(body.Children) != 1 || body.Children[0].Kind != tt.kind {
				t.Fatalf("got %#v, want a single %#02x statement", body.Children, tt.kind)
			}
		})
	}
}

func TestParserExpressionPrecedence(t *testing.T) {
	src := "void f() { x = 1 + 2 * 3; }"
	p := NewParser(src)
	prog := p.ParseProgram()
	body := prog.Children[0].child(slotFuncDeclBody)
	assign := body.Children[0].child(0)
	rhs := assign.child(slotAssignRHS)
	if rhs.Kind != KindBinaryOp || rhs.Name != "+" {
		t.Fatalf("top operator = %v/%s, want +", rhs.Kind, rhs.Name)
	}
	mul := rhs.child(slotBinaryRHS)
	if mul.Kind != KindBinaryOp || mul.Name != "*" {
		t.Fatalf("rhs operator = %v/%s, want *", mul.Kind, mul.Name)
	}
}

func TestParserNeverRaisesOnGarbage(t *testing.T) {
	srcs := []string{
		"int x = ;",
		"void f( {",
		"###!!!",
		"if (",
		"struct { int x; ",
	}
	for _, src := range srcs {
		p := NewParser(src)
		prog := p.ParseProgram() // must not panic
		if prog == nil {
			t.Errorf("%q: ParseProgram returned nil", src)
		}
	}
}
