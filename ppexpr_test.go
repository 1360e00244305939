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

func TestEvalPPExpr(t *testing.T) {
	tests := []struct {
		expr string
		want int64
	}{
		{"1", 1},
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"1 == 1", 1},
		{"1 != 1", 0},
		{"1 && 0", 0},
		{"1 || 0", 1},
		{"!0", 1},
		{"~0", -1},
		{"1 << 3", 8},
		{"16 >> 2", 4},
		{"5 & 3", 1},
		{"5 | 2", 7},
		{"5 ^ 1", 4},
		{"1 ? 2 : 3", 2},
		{"0 ? 2 : 3", 3},
		{"10 / 3", 3},
		{"10 % 3", 1},
		{"-5", -5},
		{"'A'", 65},
	}
	for _, tt := range tests {
		got, err := evalPPExpr(tt.expr)
		if err != nil {
			t.Errorf("evalPPExpr(%q) error: %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("evalPPExpr(%q) = %d, want %d", tt.expr, got, tt.want)
		}
	}
}

func TestEvalPPExprDivisionByZero(t *testing.T) {
	if _, err := evalPPExpr("1 / 0"); err == nil {
		t.Errorf("expected an error for division by zero")
	}
}

func TestEvalPPExprUndefinedIdentifierIsZero(t *testing.T) {
	got, err := evalPPExpr("UNDEFINED_THING")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("undefined identifier evaluated to %d, want 0", got)
	}
}

func TestResolveDefined(t *testing.T) {
	p := newTestPreprocessor()
	p.macros["FOO"] = &Macro{Name: "FOO", Body: "1"}
	tests := []struct {
		in   string
		want string
	}{
		{"defined(FOO)", "1"},
		{"defined FOO", "1"},
		{"defined(BAR)", "0"},
	}
	for _, tt := range tests {
		got := p.resolveDefined(tt.in)
		if got != tt.want {
			t.Errorf("resolveDefined(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
