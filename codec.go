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
	"encoding/binary"
	"fmt"
	"math"
)

// Compact AST Codec (spec §4.4): a little-endian binary form of a Node
// tree meant to cross the host/embedded boundary. Grounded on the
// teacher's serialize.go dumpbuf writer (Int/Str/Bytes helpers built on
// encoding/binary.LittleEndian), generalized from make's flat DepNode
// graph dump to a general tagged-tree dump with explicit child indices.

var astMagic = [4]byte{'A', 'S', 'T', 'P'}

const astCodecVersion uint16 = 0x0100

const childNone uint32 = 0xFFFFFFFF

// ErrUnsupportedVersion is returned by DecodeAST when the stream's major
// version does not match the codec compiled into this build (spec §4.4
// "a major version mismatch is a hard failure").
type ErrUnsupportedVersion struct {
	Got, Want uint16
}

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("avrsketch: unsupported Compact AST major version %#04x (have %#04x)", e.Got, e.Want)
}

func majorVersion(v uint16) uint16 { return v >> 8 }

// dumpbuf is a tiny little-endian writer, mirroring the teacher's
// serialize.go helper of the same name and method set.
type dumpbuf struct {
	bytes.Buffer
}

func (d *dumpbuf) Byte(b byte) { d.WriteByte(b) }

func (d *dumpbuf) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	d.Write(b[:])
}

func (d *dumpbuf) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	d.Write(b[:])
}

// flatten walks n in preorder, assigning each reachable node (nil
// children excluded from the list itself, represented as childNone
// at their slot instead) a position in the returned slice equal to its
// eventual wire index. Because a node is appended before its children
// are visited, every child's index is strictly greater than its
// parent's, matching spec §4.4's reader invariant by construction.
func flatten(root *Node) []*Node {
	var out []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		out = append(out, n)
		for _, c := range n.Children {
			if c != nil {
				visit(c)
			}
		}
	}
	visit(root)
	return out
}

// EncodeAST serializes an AST rooted at root into the Compact AST wire
// format (spec §4.4).
func EncodeAST(root *Node) []byte {
	flat := flatten(root)
	index := make(map[*Node]uint32, len(flat))
	for i, n := range flat {
		index[n] = uint32(i)
	}
	strs := newStringTable()

	var body dumpbuf
	for _, n := range flat {
		var payload dumpbuf
		payload.U32(strs.intern(n.Name))
		if n.Flags.has(FlagHasValue) {
			encodeScalar(&payload, n.Value, strs)
		}
		payload.U32(uint32(len(n.Children)))
		for _, c := range n.Children {
			if c == nil {
				payload.U32(childNone)
				continue
			}
			payload.U32(index[c])
		}
		kindByte := byte(n.Kind)
		if n.Kind == KindError && n.RawKind != 0 {
			kindByte = n.RawKind
		}
		body.Byte(kindByte)
		body.Byte(byte(n.Flags))
		body.U16(uint16(payload.Len()))
		body.Write(payload.Bytes())
	}

	var strBuf dumpbuf
	strBuf.U32(uint32(len(strs.strings())))
	for _, s := range strs.strings() {
		strBuf.U32(uint32(len(s)))
		strBuf.WriteString(s)
		strBuf.Byte(0)
		pad := (4 - (len(s)+1)%4) % 4
		for i := 0; i < pad; i++ {
			strBuf.Byte(0)
		}
	}

	var out dumpbuf
	out.Write(astMagic[:])
	out.U16(astCodecVersion)
	out.U16(0) // flags, reserved
	out.U32(uint32(len(flat)))
	out.U32(uint32(strBuf.Len()))
	out.Write(strBuf.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

func encodeScalar(d *dumpbuf, s Scalar, strs *stringTable) {
	d.Byte(byte(s.Kind))
	switch s.Kind {
	case ScalarBool:
		if s.Bool {
			d.Byte(1)
		} else {
			d.Byte(0)
		}
	case ScalarI8, ScalarU8, ScalarI16, ScalarU16, ScalarI32, ScalarU32, ScalarI64, ScalarU64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(s.Int))
		d.Write(b[:])
	case ScalarF32, ScalarF64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(s.Float))
		d.Write(b[:])
	case ScalarString:
		d.U32(strs.intern(s.Str))
	case ScalarOperator:
		d.U32(strs.intern(s.Op))
	case ScalarNone, ScalarVoid, ScalarNull:
		// no payload
	}
}

// rawNode is the decode-side intermediate representation: the wire shape
// before child-index references are resolved into pointers.
type rawNode struct {
	kind     byte
	flags    NodeFlag
	hasName  bool
	nameRef  uint32
	value    Scalar
	hasValue bool
	children []uint32
}

// DecodeAST parses the Compact AST wire format back into a Node tree.
// Unknown kind bytes become Error nodes with RawKind preserved rather
// than a hard failure (spec §4.4 forward-compatibility contract). A bad
// magic, a major version mismatch, a truncated table or payload, an
// out-of-range string ref and a child index violating preorder are
// returned as errors.
func DecodeAST(data []byte) (*Node, error) {
	r := bytes.NewReader(data)
	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil || magic != astMagic {
		return nil, fmt.Errorf("avrsketch: bad Compact AST magic")
	}
	version := readU16(r)
	if majorVersion(version) != majorVersion(astCodecVersion) {
		return nil, &ErrUnsupportedVersion{Got: version, Want: astCodecVersion}
	}
	_ = readU16(r) // flags, reserved
	nodeCount := readU32(r)
	strTableSize := readU32(r)

	strBytes := make([]byte, strTableSize)
	if _, err := r.Read(strBytes); err != nil {
		return nil, fmt.Errorf("avrsketch: truncated string table: %w", err)
	}
	strs, err := decodeStringTable(strBytes)
	if err != nil {
		return nil, err
	}

	raws := make([]rawNode, 0, nodeCount)
	for i := uint32(0); i < nodeCount; i++ {
		kind := readByte(r)
		flags := NodeFlag(readByte(r))
		dataSize := readU16(r)
		payload := make([]byte, dataSize)
		if _, err := r.Read(payload); err != nil {
			return nil, fmt.Errorf("avrsketch: truncated node payload at index %d: %w", i, err)
		}
		rn, err := decodeNodePayload(kind, flags, payload)
		if err != nil {
			return nil, fmt.Errorf("avrsketch: node %d: %w", i, err)
		}
		raws = append(raws, rn)
	}

	nodes := make([]*Node, len(raws))
	for i, rn := range raws {
		n := newNode(Kind(rn.kind), Position{})
		n.Flags = rn.flags
		if !isKnownKind(Kind(rn.kind)) {
			n.Kind = KindError
			n.RawKind = rn.kind
			n.Message = fmt.Sprintf("unknown AST node kind %#02x", rn.kind)
		}
		if rn.hasName {
			name, ok := strs.at(rn.nameRef)
			if !ok {
				return nil, fmt.Errorf("avrsketch: node %d: name ref %d out of range", i, rn.nameRef)
			}
			n.Name = name
		}
		if rn.hasValue {
			n.Value = rn.value
			if n.Value.Kind == ScalarString {
				s, ok := strs.at(uint32(n.Value.Int))
				if !ok {
					return nil, fmt.Errorf("avrsketch: node %d: string value ref out of range", i)
				}
				n.Value.Str = s
				n.Value.Int = 0
			}
			if n.Value.Kind == ScalarOperator {
				s, ok := strs.at(uint32(n.Value.Int))
				if !ok {
					return nil, fmt.Errorf("avrsketch: node %d: operator value ref out of range", i)
				}
				n.Value.Op = s
				n.Value.Int = 0
			}
		}
		nodes[i] = n
	}
	for i, rn := range raws {
		children := make([]*Node, len(rn.children))
		for s, ci := range rn.children {
			if ci == childNone {
				continue
			}
			if int(ci) <= i || int(ci) >= len(nodes) {
				return nil, fmt.Errorf("avrsketch: node %d: child index %d violates ordering invariant", i, ci)
			}
			children[s] = nodes[ci]
		}
		nodes[i].Children = children
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("avrsketch: empty AST stream")
	}
	return nodes[0], nil
}

func isKnownKind(k Kind) bool {
	switch k {
	case KindProgram, KindError, KindCompoundStmt, KindIf, KindWhile, KindDoWhile,
		KindFor, KindRangeFor, KindSwitch, KindCase, KindReturn, KindBreak, KindContinue,
		KindExprStmt, KindEmptyStmt, KindVarDecl, KindFuncDef, KindFuncDecl, KindStructDecl,
		KindEnumDecl, KindTypedefDecl, KindBinaryOp, KindUnaryOp, KindAssignment, KindFuncCall,
		KindMemberAccess, KindArrayAccess, KindTernary, KindComma, KindCast, KindSizeof,
		KindNumberLit, KindStringLit, KindCharLit, KindIdentifier, KindArrayInit, KindTypeNode:
		return true
	}
	return false
}

func decodeNodePayload(kind byte, flags NodeFlag, payload []byte) (rawNode, error) {
	rn := rawNode{kind: kind, flags: flags}
	r := bytes.NewReader(payload)
	rn.hasName = true
	rn.nameRef = readU32(r)
	if flags.has(FlagHasValue) {
		rn.hasValue = true
		sk := ScalarKind(readByte(r))
		s := Scalar{Kind: sk}
		switch sk {
		case ScalarBool:
			s.Bool = readByte(r) != 0
		case ScalarI8, ScalarU8, ScalarI16, ScalarU16, ScalarI32, ScalarU32, ScalarI64, ScalarU64:
			s.Int = int64(readU64(r))
			s.Uint = uint64(s.Int)
		case ScalarF32, ScalarF64:
			s.Float = math.Float64frombits(readU64(r))
		case ScalarString, ScalarOperator:
			s.Int = int64(readU32(r)) // string-table ref, resolved by caller
		case ScalarNone, ScalarVoid, ScalarNull:
		}
		rn.value = s
	}
	count := readU32(r)
	rn.children = make([]uint32, count)
	for i := range rn.children {
		rn.children[i] = readU32(r)
	}
	if r.Len() != 0 {
		return rn, fmt.Errorf("trailing %d bytes in node payload", r.Len())
	}
	return rn, nil
}

func decodeStringTable(b []byte) (*stringTableReader, error) {
	r := bytes.NewReader(b)
	count := readU32(r)
	out := &stringTableReader{values: make([]string, 0, count)}
	for i := uint32(0); i < count; i++ {
		n := readU32(r)
		buf := make([]byte, n)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("avrsketch: truncated string table entry %d: %w", i, err)
		}
		if _, err := r.ReadByte(); err != nil { // NUL terminator
			return nil, fmt.Errorf("avrsketch: missing NUL terminator for string table entry %d: %w", i, err)
		}
		pad := (4 - (int(n)+1)%4) % 4
		for j := 0; j < pad; j++ {
			r.ReadByte()
		}
		out.values = append(out.values, string(buf))
	}
	return out, nil
}

func readByte(r *bytes.Reader) byte {
	b, _ := r.ReadByte()
	return b
}

func readU16(r *bytes.Reader) uint16 {
	var b [2]byte
	r.Read(b[:])
	return binary.LittleEndian.Uint16(b[:])
}

func readU32(r *bytes.Reader) uint32 {
	var b [4]byte
	r.Read(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

func readU64(r *bytes.Reader) uint64 {
	var b [8]byte
	r.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
