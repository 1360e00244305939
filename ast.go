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

// Kind is the AST node tag. Numeric values are the stable wire tags of
// spec §6's Compact AST format; gaps are reserved for kinds the table
// shows as "subset shown".
type Kind uint8

const (
	KindProgram      Kind = 0x01
	KindError        Kind = 0x02
	KindCompoundStmt Kind = 0x10
	KindIf           Kind = 0x12
	KindWhile        Kind = 0x13
	KindDoWhile      Kind = 0x14
	KindFor          Kind = 0x15
	KindRangeFor     Kind = 0x16
	KindSwitch       Kind = 0x17
	KindCase         Kind = 0x18
	KindReturn       Kind = 0x19
	KindBreak        Kind = 0x1a
	KindContinue     Kind = 0x1b
	KindExprStmt     Kind = 0x1c
	KindEmptyStmt    Kind = 0x1d
	KindVarDecl      Kind = 0x20
	KindFuncDef      Kind = 0x21
	KindFuncDecl     Kind = 0x22
	KindStructDecl   Kind = 0x23
	KindEnumDecl     Kind = 0x24
	KindTypedefDecl  Kind = 0x25
	KindBinaryOp     Kind = 0x30
	KindUnaryOp      Kind = 0x31
	KindAssignment   Kind = 0x32
	KindFuncCall     Kind = 0x33
	KindMemberAccess Kind = 0x34
	KindArrayAccess  Kind = 0x35
	KindTernary      Kind = 0x36
	KindComma        Kind = 0x37
	KindCast         Kind = 0x38
	KindSizeof       Kind = 0x39
	KindNumberLit    Kind = 0x40
	KindStringLit    Kind = 0x41
	KindCharLit      Kind = 0x42
	KindIdentifier   Kind = 0x43
	KindArrayInit    Kind = 0x44
	KindTypeNode     Kind = 0x50
)

// NodeFlag is the per-node flag set of spec §3.
type NodeFlag uint8

const (
	FlagHasChildren NodeFlag = 1 << iota
	FlagHasValue
	FlagHasMetadata
	FlagIsPointer
	FlagIsReference
	FlagIsConst
)

func (f NodeFlag) has(bit NodeFlag) bool { return f&bit != 0 }

// ScalarKind tags which alternative of Node.Value is populated.
type ScalarKind uint8

const (
	ScalarNone ScalarKind = iota
	ScalarVoid
	ScalarBool
	ScalarI8
	ScalarU8
	ScalarI16
	ScalarU16
	ScalarI32
	ScalarU32
	ScalarI64
	ScalarU64
	ScalarF32
	ScalarF64
	ScalarString
	ScalarNull
	ScalarOperator
)

// Scalar is the AST literal-value variant (spec §3 "an optional scalar
// value"), shared with the runtime Value domain's literal alternatives.
type Scalar struct {
	Kind   ScalarKind
	Int    int64
	Uint   uint64
	Float  float64
	Str    string
	Bool   bool
	Op     string
}

// Node is the single tagged AST variant spec §9 calls for in place of a
// class hierarchy: one struct, a kind discriminator, a flag set, an
// optional scalar value, and an ordered child list, with kind-specific
// named slots addressed by fixed child index (documented per kind below).
// This mirrors the teacher's ASTBase position-embedding, generalized from
// interface-per-kind (teacher's AssignAST/IfAST/...) to data-per-kind.
type Node struct {
	Kind     Kind
	Flags    NodeFlag
	Pos      Position
	Value    Scalar
	Children []*Node

	// Name carries identifiers, declared names, operators-as-text, member
	// names and type names.
	Name string
	// RawKind preserves an out-of-range kind byte seen by the codec (spec
	// §4.4 "unknown kinds... surfaced as Error nodes with the raw kind id
	// preserved").
	RawKind uint8
	// Message carries a parse/codec error's human-readable text.
	Message string
}

// Named child-slot indices, documented per kind. Nodes access these via
// the small accessor methods below rather than bare indices at call sites.
const (
	slotIfCondition = 0
	slotIfConsequent = 1
	slotIfAlternate = 2

	slotWhileCondition = 0
	slotWhileBody      = 1

	slotDoWhileBody      = 0
	slotDoWhileCondition = 1

	slotForInit      = 0
	slotForCondition = 1
	slotForPost      = 2
	slotForBody      = 3

	slotRangeForVar   = 0
	slotRangeForRange = 1
	slotRangeForBody  = 2

	slotSwitchSubject = 0
	// remaining children of a Switch are Case nodes.

	slotCaseValue = 0
	// remaining children of a Case are its statements; a nil value child
	// (slot 0 == nil) marks the default case.

	slotReturnValue = 0 // absent for bare `return;`

	slotVarDeclType = 0
	slotVarDeclInit = 1 // absent if no initializer

	slotFuncDeclType = 0
	slotFuncDeclBody = 1 // params are FuncDef.Children[2:]

	slotAssignLHS = 0
	slotAssignRHS = 1

	slotBinaryLHS = 0
	slotBinaryRHS = 1

	slotUnaryOperand = 0

	slotMemberObject = 0 // MemberAccess: Name holds the field

	slotArrayAccessBase  = 0
	slotArrayAccessIndex = 1

	slotTernaryCond = 0
	slotTernaryThen = 1
	slotTernaryElse = 2

	slotCastType    = 0
	slotCastOperand = 1
)

func newNode(kind Kind, pos Position) *Node {
	return &Node{Kind: kind, Pos: pos}
}

func (n *Node) withChildren(children ...*Node) *Node {
	var present []*Node
	for _, c := range children {
		if c != nil {
			present = append(present, c)
		}
	}
	n.Children = children
	if len(present) > 0 {
		n.Flags |= FlagHasChildren
	}
	return n
}

func (n *Node) withScalar(s Scalar) *Node {
	n.Value = s
	n.Flags |= FlagHasValue
	return n
}

func (n *Node) child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// errorNode builds a recovery node carrying a diagnostic message, per
// spec §4.3 "Error recovery".
func errorNode(pos Position, format string, a ...interface{}) *Node {
	n := newNode(KindError, pos)
	n.Message = fmt.Sprintf(format, a...)
	return n
}
