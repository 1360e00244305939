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

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		src  string
		want []TokenKind
	}{
		{"int x = 5;", []TokenKind{TokKeyword, TokIdent, TokOperator, TokIntLit, TokPunct, TokEOF}},
		{"x += 1.5f;", []TokenKind{TokIdent, TokOperator, TokFloatLit, TokPunct, TokEOF}},
		{`"hi" 'a'`, []TokenKind{TokStringLit, TokCharLit, TokEOF}},
		{"a && b || !c", []TokenKind{TokIdent, TokOperator, TokIdent, TokOperator, TokOperator, TokIdent, TokEOF}},
	}
	for _, tt := range tests {
		toks := newLexer(tt.src).tokenize()
		if len(toks) != len(tt.want) {
			t.Fatalf("%q: got %d tokens, want %d (%v)", tt.src, len(toks), len(tt.want), toks)
		}
		for i, k := range tt.want {
			if toks[i].Kind != k {
				t.Errorf("%q: token %d kind = %v, want %v", tt.src, i, toks[i].Kind, k)
			}
		}
	}
}

func TestLexerNumberLiterals(t *testing.T) {
	tests := []struct {
		src      string
		wantKind TokenKind
		wantInt  int64
		wantFlt  float64
	}{
		{"42", TokIntLit, 42, 0},
		{"0x2A", TokIntLit, 42, 0},
		{"3.14", TokFloatLit, 0, 3.14},
		{"1e3", TokFloatLit, 0, 1000},
		{"10L", TokIntLit, 10, 0},
	}
	for _, tt := range tests {
		toks := newLexer(tt.src).tokenize()
		got := toks[0]
		if got.Kind != tt.wantKind {
			t.Errorf("%q: kind = %v, want %v", tt.src, got.Kind, tt.wantKind)
			continue
		}
		if tt.wantKind == TokIntLit && got.IntVal != tt.wantInt {
			t.Errorf("%q: IntVal = %d, want %d", tt.src, got.IntVal, tt.wantInt)
		}
		if tt.wantKind == TokFloatLit && got.FloatVal != tt.wantFlt {
			t.Errorf("%q: FloatVal = %v, want %v", tt.src, got.FloatVal, tt.wantFlt)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks := newLexer(`"a\nb\tc"`).tokenize()
	if toks[0].StrVal != "a\nb\tc" {
		t.Errorf("StrVal = %q, want %q", toks[0].StrVal, "a\nb\tc")
	}
}

func TestLexerComments(t *testing.T) {
	src := "int x; // trailing\n/* block\ncomment */ int y;"
	toks := newLexer(src).tokenize()
	var idents int
	for _, tok := range toks {
		if tok.Kind == TokIdent {
			idents++
		}
	}
	if idents != 2 {
		t.Errorf("got %d identifiers, want 2 (comments not stripped): %v", idents, toks)
	}
}

func TestLexerMultiCharOperators(t *testing.T) {
	toks := newLexer("a<<=1 b>>=2 c->d e::f").tokenize()
	var ops []string
	for _, tok := range toks {
		if tok.Kind == TokOperator {
			ops = append(ops, tok.Lexeme)
		}
	}
	want := []string{"<<=", ">>=", "->", "::"}
	if len(ops) != len(want) {
		t.Fatalf("got ops %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op %d = %q, want %q", i, ops[i], want[i])
		}
	}
}
