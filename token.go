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

// TokenKind ranges over the lexical categories of spec §3 "Token".
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokKeyword
	TokIntLit
	TokFloatLit
	TokCharLit
	TokStringLit
	TokOperator
	TokPunct
	TokPreproc // not produced by the lexer; the Preprocessor reads directive lines as raw text
)

var keywords = map[string]bool{
	"void": true, "bool": true, "char": true, "int": true, "long": true,
	"short": true, "unsigned": true, "signed": true, "float": true, "double": true,
	"const": true, "static": true, "volatile": true, "struct": true, "enum": true,
	"typedef": true, "template": true, "class": true, "public": true, "private": true,
	"if": true, "else": true, "while": true, "do": true, "for": true,
	"switch": true, "case": true, "default": true, "break": true, "continue": true,
	"return": true, "sizeof": true, "true": true, "false": true, "new": true,
	"byte": true, "String": true, "word": true,
}

// Token is one lexical unit (spec §3).
type Token struct {
	Kind    TokenKind
	Lexeme  string
	Pos     Position
	IntVal  int64
	FloatVal float64
	// CharVal holds the decoded rune for TokCharLit.
	CharVal rune
	// StrVal holds the escape-processed content for TokStringLit.
	StrVal string
}

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokIdent:
		return "identifier"
	case TokKeyword:
		return "keyword"
	case TokIntLit:
		return "int-literal"
	case TokFloatLit:
		return "float-literal"
	case TokCharLit:
		return "char-literal"
	case TokStringLit:
		return "string-literal"
	case TokOperator:
		return "operator"
	case TokPunct:
		return "punct"
	case TokPreproc:
		return "preprocessor-line"
	default:
		return "unknown"
	}
}
