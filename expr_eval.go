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

// execStatement tree-walks one statement node, returning a control signal
// that unwinds toward the nearest enclosing loop/function when it is a
// break, continue or return (spec §4.5 control flow), instead of using
// panic/recover.
func (in *Interpreter) execStatement(n *Node) (control, error) {
	if n == nil {
		return noControl, nil
	}
	switch n.Kind {
	case KindCompoundStmt:
		in.scopes.push()
		defer in.scopes.pop()
		for _, stmt := range n.Children {
			ctrl, err := in.execStatement(stmt)
			if err != nil || ctrl.kind != ctrlNone {
				return ctrl, err
			}
		}
		return noControl, nil

	case KindEmptyStmt, KindStructDecl, KindEnumDecl, KindTypedefDecl:
		return noControl, nil

	case KindFuncDef, KindFuncDecl:
		in.funcs[n.Name] = n
		return noControl, nil

	case KindVarDecl:
		_, _, err := in.execVarDecl(n)
		return noControl, err

	case KindExprStmt:
		_, err := in.evalExpr(n.child(0))
		return noControl, err

	case KindIf:
		cond, err := in.evalExpr(n.child(slotIfCondition))
		if err != nil {
			return noControl, err
		}
		if cond.Truthy() {
			return in.execStatement(n.child(slotIfConsequent))
		}
		return in.execStatement(n.child(slotIfAlternate))

	case KindWhile:
		iter := 0
		for {
			if in.stopRequested() {
				return noControl, nil
			}
			cond, err := in.evalExpr(n.child(slotWhileCondition))
			if err != nil {
				return noControl, err
			}
			if !cond.Truthy() {
				return noControl, nil
			}
			if in.loopCapReached(iter) {
				in.emit(cmdLoopLimitReached(in.clock, iter))
				return noControl, nil
			}
			iter++
			ctrl, err := in.execStatement(n.child(slotWhileBody))
			if err != nil {
				return noControl, err
			}
			if ctrl.kind == ctrlBreak {
				return noControl, nil
			}
			if ctrl.kind == ctrlReturn {
				return ctrl, nil
			}
		}

	case KindDoWhile:
		iter := 0
		for {
			if in.stopRequested() {
				return noControl, nil
			}
			if in.loopCapReached(iter) {
				in.emit(cmdLoopLimitReached(in.clock, iter))
				return noControl, nil
			}
			iter++
			ctrl, err := in.execStatement(n.child(slotDoWhileBody))
			if err != nil {
				return noControl, err
			}
			if ctrl.kind == ctrlBreak {
				return noControl, nil
			}
			if ctrl.kind == ctrlReturn {
				return ctrl, nil
			}
			cond, err := in.evalExpr(n.child(slotDoWhileCondition))
			if err != nil {
				return noControl, err
			}
			if !cond.Truthy() {
				return noControl, nil
			}
		}

	case KindFor:
		in.scopes.push()
		defer in.scopes.pop()
		if initStmt := n.child(slotForInit); initStmt != nil {
			if _, err := in.execStatement(initStmt); err != nil {
				return noControl, err
			}
		}
		iter := 0
		for {
			if in.stopRequested() {
				return noControl, nil
			}
			if cond := n.child(slotForCondition); cond != nil {
				v, err := in.evalExpr(cond)
				if err != nil {
					return noControl, err
				}
				if !v.Truthy() {
					return noControl, nil
				}
			}
			if in.loopCapReached(iter) {
				in.emit(cmdLoopLimitReached(in.clock, iter))
				return noControl, nil
			}
			iter++
			ctrl, err := in.execStatement(n.child(slotForBody))
			if err != nil {
				return noControl, err
			}
			if ctrl.kind == ctrlBreak {
				return noControl, nil
			}
			if ctrl.kind == ctrlReturn {
				return ctrl, nil
			}
			if post := n.child(slotForPost); post != nil {
				if _, err := in.evalExpr(post); err != nil {
					return noControl, err
				}
			}
		}

	case KindRangeFor:
		in.scopes.push()
		defer in.scopes.pop()
		rangeVal, err := in.evalExpr(n.child(slotRangeForRange))
		if err != nil {
			return noControl, err
		}
		decl := n.child(slotRangeForVar)
		cell := in.scopes.declare(decl.Name, voidValue())
		for _, elem := range rangeVal.Elems {
			if in.stopRequested() {
				return noControl, nil
			}
			*cell = elem
			ctrl, err := in.execStatement(n.child(slotRangeForBody))
			if err != nil {
				return noControl, err
			}
			if ctrl.kind == ctrlBreak {
				return noControl, nil
			}
			if ctrl.kind == ctrlReturn {
				return ctrl, nil
			}
		}
		return noControl, nil

	case KindSwitch:
		subject, err := in.evalExpr(n.child(slotSwitchSubject))
		if err != nil {
			return noControl, err
		}
		cases := n.Children[1:]
		matched := -1
		for i, c := range cases {
			valNode := c.child(slotCaseValue)
			if valNode == nil {
				continue // default; matched only as a fallback below
			}
			v, err := in.evalExpr(valNode)
			if err != nil {
				return noControl, err
			}
			if numericEqual(subject, v) {
				matched = i
				break
			}
		}
		if matched < 0 {
			for i, c := range cases {
				if c.child(slotCaseValue) == nil {
					matched = i
					break
				}
			}
		}
		if matched < 0 {
			return noControl, nil
		}
		for _, c := range cases[matched:] {
			for _, stmt := range c.Children[1:] {
				ctrl, err := in.execStatement(stmt)
				if err != nil {
					return noControl, err
				}
				if ctrl.kind == ctrlBreak {
					return noControl, nil
				}
				if ctrl.kind == ctrlContinue || ctrl.kind == ctrlReturn {
					return ctrl, nil
				}
			}
		}
		return noControl, nil

	case KindReturn:
		if v := n.child(slotReturnValue); v != nil {
			val, err := in.evalExpr(v)
			if err != nil {
				return noControl, err
			}
			return control{kind: ctrlReturn, value: val}, nil
		}
		return control{kind: ctrlReturn, value: voidValue()}, nil

	case KindBreak:
		return control{kind: ctrlBreak}, nil
	case KindContinue:
		return control{kind: ctrlContinue}, nil

	case KindError:
		return noControl, fmt.Errorf("parse error at %s: %s", n.Pos, n.Message)

	default:
		return noControl, fmt.Errorf("%s: cannot execute node kind %#02x as a statement", n.Pos, n.Kind)
	}
}

func numericEqual(a, b Value) bool {
	if a.Kind == ValueString || b.Kind == ValueString {
		return a.Str == b.Str
	}
	return a.AsFloat64() == b.AsFloat64()
}

func (in *Interpreter) execVarDecl(n *Node) (Value, *Value, error) {
	ty := n.child(slotVarDeclType)
	var v Value
	if initNode := n.child(slotVarDeclInit); initNode != nil {
		var err error
		v, err = in.evalExpr(initNode)
		if err != nil {
			return voidValue(), nil, err
		}
	} else {
		v = in.zeroValueForType(ty)
	}
	cell := in.scopes.declare(n.Name, v)
	return v, cell, nil
}

func (in *Interpreter) zeroValueForType(ty *Node) Value {
	if ty == nil {
		return voidValue()
	}
	if _, ok := in.registry.Lookup(ty.Name); ok {
		in.nextInstanceID++
		return Value{Kind: ValueLibraryObject, LibraryType: ty.Name, InstanceID: in.nextInstanceID}
	}
	switch ty.Name {
	case "float", "double":
		return floatValue(0)
	case "bool":
		return boolValue(false)
	case "String":
		return stringValue("")
	default:
		return intValue(0)
	}
}

// evalExpr evaluates an expression node to a runtime Value, applying C's
// usual arithmetic conversions and short-circuit logical evaluation
// (spec §4.5).
func (in *Interpreter) evalExpr(n *Node) (Value, error) {
	if n == nil {
		return voidValue(), nil
	}
	switch n.Kind {
	case KindError:
		return voidValue(), fmt.Errorf("parse error at %s: %s", n.Pos, n.Message)

	case KindNumberLit:
		switch n.Value.Kind {
		case ScalarF32, ScalarF64:
			return floatValue(n.Value.Float), nil
		case ScalarBool:
			return boolValue(n.Value.Bool), nil
		default:
			return intValue(n.Value.Int), nil
		}
	case KindCharLit:
		return intValue(n.Value.Int), nil
	case KindStringLit:
		return stringValue(n.Value.Str), nil

	case KindIdentifier:
		if cell, ok := in.scopes.lookup(n.Name); ok {
			return *cell, nil
		}
		if alias, ok := in.platform.PinAliases()[n.Name]; ok {
			return intValue(int64(alias)), nil
		}
		if v, ok := builtinConstant(n.Name); ok {
			return v, nil
		}
		return voidValue(), fmt.Errorf("%s: undeclared identifier %q", n.Pos, n.Name)

	case KindArrayInit:
		var elems []Value
		for _, c := range n.Children {
			v, err := in.evalExpr(c)
			if err != nil {
				return voidValue(), err
			}
			elems = append(elems, v)
		}
		return Value{Kind: ValueArray, Elems: elems}, nil

	case KindBinaryOp:
		return in.evalBinaryOp(n)

	case KindUnaryOp:
		return in.evalUnaryOp(n)

	case KindAssignment:
		return in.evalAssignment(n)

	case KindTernary:
		cond, err := in.evalExpr(n.child(slotTernaryCond))
		if err != nil {
			return voidValue(), err
		}
		if cond.Truthy() {
			return in.evalExpr(n.child(slotTernaryThen))
		}
		return in.evalExpr(n.child(slotTernaryElse))

	case KindComma:
		if _, err := in.evalExpr(n.child(0)); err != nil {
			return voidValue(), err
		}
		return in.evalExpr(n.child(1))

	case KindCast:
		return in.evalCast(n)

	case KindSizeof:
		return intValue(2), nil // always 2 (the AVR int width), whatever the operand

	case KindArrayAccess:
		base, err := in.evalExpr(n.child(slotArrayAccessBase))
		if err != nil {
			return voidValue(), err
		}
		idx, err := in.evalExpr(n.child(slotArrayAccessIndex))
		if err != nil {
			return voidValue(), err
		}
		i := int(idx.AsInt64())
		if i < 0 || i >= len(base.Elems) {
			return voidValue(), fmt.Errorf("%s: array index %d out of range (len %d)", n.Pos, i, len(base.Elems))
		}
		return base.Elems[i], nil

	case KindMemberAccess, KindFuncCall:
		return in.evalCallOrMember(n)

	default:
		return voidValue(), fmt.Errorf("%s: cannot evaluate node kind %#02x as an expression", n.Pos, n.Kind)
	}
}

func (in *Interpreter) evalCast(n *Node) (Value, error) {
	ty := n.child(slotCastType)
	v, err := in.evalExpr(n.child(slotCastOperand))
	if err != nil {
		return voidValue(), err
	}
	switch ty.Name {
	case "float", "double":
		return floatValue(v.AsFloat64()), nil
	case "bool":
		return boolValue(v.Truthy()), nil
	case "unsigned", "word":
		return uintValue(uint64(v.AsInt64())), nil
	default:
		return intValue(v.AsInt64()), nil
	}
}

func (in *Interpreter) evalUnaryOp(n *Node) (Value, error) {
	operand := n.child(slotUnaryOperand)
	switch n.Name {
	case "pre++", "pre--", "post++", "post--":
		cell, err := in.lvalue(operand)
		if err != nil {
			return voidValue(), err
		}
		before := *cell
		delta := int64(1)
		if n.Name == "pre--" || n.Name == "post--" {
			delta = -1
		}
		*cell = addDelta(before, delta)
		if n.Name == "pre++" || n.Name == "pre--" {
			return *cell, nil
		}
		return before, nil
	}
	v, err := in.evalExpr(operand)
	if err != nil {
		return voidValue(), err
	}
	switch n.Name {
	case "pre!":
		return boolValue(!v.Truthy()), nil
	case "pre~":
		return intValue(^v.AsInt64()), nil
	case "pre-":
		if v.Kind == ValueFloat {
			return floatValue(-v.Float), nil
		}
		return intValue(-v.AsInt64()), nil
	case "pre+":
		return v, nil
	case "pre&", "pre*":
		return v, nil // pointer-of/deref on non-pointer values: pass through
	default:
		return voidValue(), fmt.Errorf("%s: unsupported unary operator %q", n.Pos, n.Name)
	}
}

func addDelta(v Value, delta int64) Value {
	if v.Kind == ValueFloat {
		return floatValue(v.Float + float64(delta))
	}
	return intValue(v.AsInt64() + delta)
}

func (in *Interpreter) evalBinaryOp(n *Node) (Value, error) {
	if n.Name == "&&" {
		lhs, err := in.evalExpr(n.child(slotBinaryLHS))
		if err != nil {
			return voidValue(), err
		}
		if !lhs.Truthy() {
			return boolValue(false), nil
		}
		rhs, err := in.evalExpr(n.child(slotBinaryRHS))
		if err != nil {
			return voidValue(), err
		}
		return boolValue(rhs.Truthy()), nil
	}
	if n.Name == "||" {
		lhs, err := in.evalExpr(n.child(slotBinaryLHS))
		if err != nil {
			return voidValue(), err
		}
		if lhs.Truthy() {
			return boolValue(true), nil
		}
		rhs, err := in.evalExpr(n.child(slotBinaryRHS))
		if err != nil {
			return voidValue(), err
		}
		return boolValue(rhs.Truthy()), nil
	}

	lhs, err := in.evalExpr(n.child(slotBinaryLHS))
	if err != nil {
		return voidValue(), err
	}
	rhs, err := in.evalExpr(n.child(slotBinaryRHS))
	if err != nil {
		return voidValue(), err
	}

	switch n.Name {
	case "+":
		if lhs.Kind == ValueString || rhs.Kind == ValueString {
			return stringValue(lhs.String() + rhs.String()), nil
		}
		return arith(lhs, rhs, func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b }), nil
	case "-":
		return arith(lhs, rhs, func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b }), nil
	case "*":
		return arith(lhs, rhs, func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b }), nil
	case "/":
		if isFloaty(lhs) || isFloaty(rhs) {
			if rhs.AsFloat64() == 0 {
				if lhs.AsFloat64() == 0 {
					return floatValue(math.NaN()), nil
				}
				return floatValue(math.Inf(sign(lhs.AsFloat64()))), nil
			}
			return floatValue(lhs.AsFloat64() / rhs.AsFloat64()), nil
		}
		if rhs.AsInt64() == 0 {
			in.emit(cmdError(in.clock, fmt.Sprintf("%s: division by zero", n.Pos)))
			return intValue(0), nil
		}
		return intValue(lhs.AsInt64() / rhs.AsInt64()), nil
	case "%":
		if rhs.AsInt64() == 0 {
			in.emit(cmdError(in.clock, fmt.Sprintf("%s: modulo by zero", n.Pos)))
			return intValue(0), nil
		}
		return intValue(lhs.AsInt64() % rhs.AsInt64()), nil
	case "==":
		return boolValue(numericEqual(lhs, rhs)), nil
	case "!=":
		return boolValue(!numericEqual(lhs, rhs)), nil
	case "<":
		return boolValue(lhs.AsFloat64() < rhs.AsFloat64()), nil
	case "<=":
		return boolValue(lhs.AsFloat64() <= rhs.AsFloat64()), nil
	case ">":
		return boolValue(lhs.AsFloat64() > rhs.AsFloat64()), nil
	case ">=":
		return boolValue(lhs.AsFloat64() >= rhs.AsFloat64()), nil
	case "&":
		return intValue(lhs.AsInt64() & rhs.AsInt64()), nil
	case "|":
		return intValue(lhs.AsInt64() | rhs.AsInt64()), nil
	case "^":
		return intValue(lhs.AsInt64() ^ rhs.AsInt64()), nil
	case "<<":
		return intValue(lhs.AsInt64() << uint(rhs.AsInt64())), nil
	case ">>":
		return intValue(lhs.AsInt64() >> uint(rhs.AsInt64())), nil
	default:
		return voidValue(), fmt.Errorf("%s: unsupported binary operator %q", n.Pos, n.Name)
	}
}

func sign(f float64) int {
	if f < 0 {
		return -1
	}
	return 1
}

func isFloaty(v Value) bool { return v.Kind == ValueFloat }

func arith(a, b Value, ff func(a, b float64) float64, fi func(a, b int64) int64) Value {
	if isFloaty(a) || isFloaty(b) {
		return floatValue(ff(a.AsFloat64(), b.AsFloat64()))
	}
	return intValue(fi(a.AsInt64(), b.AsInt64()))
}

var compoundOpBase = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"&=": "&", "|=": "|", "^=": "^", "<<=": "<<", ">>=": ">>",
}

func (in *Interpreter) evalAssignment(n *Node) (Value, error) {
	lhsNode := n.child(slotAssignLHS)
	cell, err := in.lvalue(lhsNode)
	if err != nil {
		return voidValue(), err
	}
	rhs, err := in.evalExpr(n.child(slotAssignRHS))
	if err != nil {
		return voidValue(), err
	}
	if n.Name == "=" {
		*cell = rhs
		return rhs, nil
	}
	base, ok := compoundOpBase[n.Name]
	if !ok {
		return voidValue(), fmt.Errorf("%s: unsupported assignment operator %q", n.Pos, n.Name)
	}
	synthetic := newNode(KindBinaryOp, n.Pos)
	synthetic.Name = base
	lit := func(v Value) *Node {
		nn := newNode(KindNumberLit, n.Pos)
		if v.Kind == ValueFloat {
			return nn.withScalar(Scalar{Kind: ScalarF64, Float: v.Float})
		}
		return nn.withScalar(Scalar{Kind: ScalarI64, Int: v.AsInt64()})
	}
	synthetic.withChildren(lit(*cell), lit(rhs))
	result, err := in.evalBinaryOp(synthetic)
	if err != nil {
		return voidValue(), err
	}
	*cell = result
	return result, nil
}

// lvalue resolves an expression node to the storage cell it names, for
// assignment and increment/decrement.
func (in *Interpreter) lvalue(n *Node) (*Value, error) {
	if n == nil {
		return nil, fmt.Errorf("missing assignment target")
	}
	switch n.Kind {
	case KindIdentifier:
		cell, ok := in.scopes.lookup(n.Name)
		if !ok {
			return nil, fmt.Errorf("%s: undeclared identifier %q", n.Pos, n.Name)
		}
		return cell, nil
	case KindArrayAccess:
		base, err := in.evalExpr(n.child(slotArrayAccessBase))
		if err != nil {
			return nil, err
		}
		idx, err := in.evalExpr(n.child(slotArrayAccessIndex))
		if err != nil {
			return nil, err
		}
		i := int(idx.AsInt64())
		baseCell, err := in.lvalue(n.child(slotArrayAccessBase))
		if err != nil || baseCell == nil {
			return nil, err
		}
		if i < 0 || i >= len(base.Elems) {
			return nil, fmt.Errorf("%s: array index %d out of range", n.Pos, i)
		}
		return &baseCell.Elems[i], nil
	default:
		return nil, fmt.Errorf("%s: expression is not assignable", n.Pos)
	}
}
