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
	"sync"

	"github.com/golang/glog"
)

// State is a step of the Interpreter lifecycle state machine (spec §5).
type State int

const (
	StateIdle State = iota
	StateRunning
	StateAwaitingResponse
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateAwaitingResponse:
		return "AWAITING_RESPONSE"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// InterpreterOptions bounds execution the way spec §5's safety caps
// require, with the teacher's conservative small defaults in mind.
type InterpreterOptions struct {
	MaxLoopIterations int
	MaxRecursionDepth int
	MaxCommandCount   int
}

// DefaultInterpreterOptions matches spec §5's stated defaults.
func DefaultInterpreterOptions() InterpreterOptions {
	return InterpreterOptions{
		MaxLoopIterations: 3,
		MaxRecursionDepth: 64,
		MaxCommandCount:   10000,
	}
}

// controlKind distinguishes a plain statement result from one unwinding
// toward a break/continue/return target, used in place of panic/recover
// so control flow stays in explicit Go return values.
type controlKind int

const (
	ctrlNone controlKind = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

type control struct {
	kind  controlKind
	value Value
}

var noControl = control{kind: ctrlNone}

// pendingRequest is the one outstanding external-data request the
// interpreter may have open at a time (spec §5 "single-outstanding-
// request invariant").
type pendingRequest struct {
	id  uint64
	cmd Command
}

// Interpreter tree-walks a parsed Arduino sketch and emits a Command
// stream instead of driving real pins. Its suspend/resume boundary is a
// goroutine plus a single-slot channel hand-off, adapted from the
// teacher's worker.go job/result channel pair (collapsed from a pool of
// workers to exactly one, since spec §5 requires single-threaded
// cooperative suspension with at most one request outstanding).
type Interpreter struct {
	program  *Node
	platform *PlatformContext
	registry *LibraryRegistry
	opts     InterpreterOptions

	funcs      map[string]*Node
	globalVars []*Node

	scopes *scopeStack
	stats  Stats

	mu    sync.Mutex
	state State

	cmdCh  chan Command
	respCh chan Value
	doneCh chan struct{}

	nextRequestID  uint64
	pending        *pendingRequest
	nextInstanceID int

	clock int64 // simulated millis(), advanced deterministically by delay()
	depth int

	innerCapHit bool // an in-sketch loop hit its cap; the loop() phase ends

	runErr error
}

// NewInterpreter prepares an interpreter for program, which must be the
// root Program node of a parsed (and, conventionally, preprocessed)
// sketch.
func NewInterpreter(program *Node, platform *PlatformContext, registry *LibraryRegistry, opts InterpreterOptions) *Interpreter {
	in := &Interpreter{
		program:  program,
		platform: platform,
		registry: registry,
		opts:     opts,
		funcs:    make(map[string]*Node),
		scopes:   newScopeStack(),
		cmdCh:    make(chan Command, 16),
		respCh:   make(chan Value),
		doneCh:   make(chan struct{}),
	}
	for _, top := range program.Children {
		if top == nil {
			continue
		}
		switch top.Kind {
		case KindFuncDef:
			in.funcs[top.Name] = top
		case KindVarDecl:
			in.globalVars = append(in.globalVars, top)
		}
	}
	return in
}

// State reports the current lifecycle state (spec §5).
func (in *Interpreter) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// Stats returns a snapshot of the run's counters.
func (in *Interpreter) Stats() Stats { return in.stats }

func (in *Interpreter) setState(s State) {
	in.mu.Lock()
	in.state = s
	in.mu.Unlock()
}

// Commands returns the channel the interpreter's goroutine publishes its
// Command stream on. The caller must keep draining it or the
// interpreter's goroutine will block at its next emit.
func (in *Interpreter) Commands() <-chan Command { return in.cmdCh }

// Start transitions IDLE -> RUNNING and begins executing setup()/loop() on
// a dedicated goroutine, per spec §5.
func (in *Interpreter) Start() {
	if in.State() != StateIdle {
		return
	}
	in.setState(StateRunning)
	go in.runProgram()
}

// HandleResponse resumes a suspended request with a host-supplied value.
// requestID must match the single outstanding request; a mismatch is
// logged and ignored rather than panicking, since a stale or duplicate
// response must never corrupt interpreter state (spec §5 "cancellation
// safety").
func (in *Interpreter) HandleResponse(requestID uint64, v Value) {
	in.mu.Lock()
	pending := in.pending
	st := in.state
	in.mu.Unlock()
	if st != StateAwaitingResponse || pending == nil || pending.id != requestID {
		glog.Warningf("avrsketch: HandleResponse(%d) ignored in state %s", requestID, st)
		return
	}
	in.respCh <- v
}

// Stop requests early termination. The running goroutine observes it only
// at the top of the next iteration of an in-sketch loop or of the loop()
// phase; a goroutine blocked awaiting a response does not observe it. The
// current loop() invocation runs its remaining statements, and the run
// still ends with LOOP_END and PROGRAM_END.
func (in *Interpreter) Stop() {
	select {
	case <-in.doneCh:
	default:
		close(in.doneCh)
	}
}

// loopCapReached reports whether an in-sketch while/do-while/for loop has
// already executed opts.MaxLoopIterations iterations, the same knob that
// bounds loop() invocations (spec §4.5 "bounded loop iterations"). A
// non-positive cap means unbounded, matching the outer loop-phase
// convention in runProgram. Once it reports true, runProgram starts no
// further loop() invocation.
func (in *Interpreter) loopCapReached(iter int) bool {
	if in.opts.MaxLoopIterations > 0 && iter >= in.opts.MaxLoopIterations {
		in.innerCapHit = true
		return true
	}
	return false
}

func (in *Interpreter) stopRequested() bool {
	select {
	case <-in.doneCh:
		return true
	default:
		return false
	}
}

func (in *Interpreter) emit(c Command) {
	in.stats.onCommand(c)
	in.cmdCh <- c
	in.clock++
}

func (in *Interpreter) runProgram() {
	defer close(in.cmdCh)
	in.emit(cmdVersionInfo(in.clock, "avrsketch", "1.0", "ok"))
	in.emit(cmdProgramStart(in.clock, "program start"))

	for _, g := range in.globalVars {
		if _, _, err := in.execVarDecl(g); err != nil {
			in.fail(err)
			return
		}
	}

	in.emit(cmdSetupStart(in.clock))
	if setup, ok := in.funcs["setup"]; ok {
		if _, err := in.callUserFunc(setup, nil); err != nil {
			in.fail(err)
			return
		}
	}
	in.emit(cmdSetupEnd(in.clock))

	loopFn, hasLoop := in.funcs["loop"]
	iterations := 0
	limitReached := false
	for hasLoop {
		if in.stopRequested() {
			break
		}
		if in.stats.CommandsEmitted >= in.opts.MaxCommandCount {
			limitReached = true
			break
		}
		if in.opts.MaxLoopIterations > 0 && iterations >= in.opts.MaxLoopIterations {
			limitReached = true
			break
		}
		if in.innerCapHit {
			limitReached = true
			break
		}
		iteration := iterations + 1 // spec §8 BareMinimum: LOOP_START/FUNCTION_CALL iteration counters are 1-based
		in.emit(cmdLoopStart(in.clock, iteration, "loop"))
		in.emit(cmdFunctionCall(in.clock, "loop", iteration, false))
		_, err := in.callUserFunc(loopFn, nil)
		iterations++
		if err != nil {
			in.fail(err)
			return
		}
		in.emit(cmdFunctionCall(in.clock, "loop", iteration, true))
	}
	in.emit(cmdLoopEnd(in.clock, iterations, limitReached))
	in.emit(cmdProgramEnd(in.clock, "program end"))
	in.setState(StateTerminated)
}

func (in *Interpreter) fail(err error) {
	in.emit(cmdError(in.clock, err.Error()))
	in.runErr = err
	in.setState(StateTerminated)
}

// Err returns the error that ended the run early, if any.
func (in *Interpreter) Err() error { return in.runErr }

// awaitResponse publishes a request command, suspends in
// AWAITING_RESPONSE, and blocks until HandleResponse wakes it — the
// single request/response hand-off point of the whole interpreter.
func (in *Interpreter) awaitResponse(buildCmd func(requestID uint64) Command) Value {
	in.nextRequestID++
	id := in.nextRequestID
	cmd := buildCmd(id)

	in.mu.Lock()
	in.pending = &pendingRequest{id: id, cmd: cmd}
	in.state = StateAwaitingResponse
	in.mu.Unlock()

	in.emit(cmd)
	v := <-in.respCh

	in.mu.Lock()
	in.pending = nil
	in.state = StateRunning
	in.mu.Unlock()
	return v
}

func (in *Interpreter) callUserFunc(fn *Node, args []Value) (Value, error) {
	in.depth++
	defer func() { in.depth-- }()
	if in.depth > in.opts.MaxRecursionDepth {
		return voidValue(), fmt.Errorf("max recursion depth %d exceeded calling %s", in.opts.MaxRecursionDepth, fn.Name)
	}
	// A call frame is chained to the global frame, not the caller's frame.
	global := in.scopes.top
	for global.parent != nil {
		global = global.parent
	}
	callerTop := in.scopes.top
	in.scopes.top = newScope(global)
	defer func() { in.scopes.top = callerTop }()

	params := fn.Children[2:]
	for i, p := range params {
		name := p.Name
		var v Value
		if i < len(args) {
			v = args[i]
		}
		in.scopes.declare(name, v)
	}
	body := fn.child(slotFuncDeclBody)
	if body == nil {
		return voidValue(), nil
	}
	ctrl, err := in.execStatement(body)
	if err != nil {
		return voidValue(), err
	}
	if ctrl.kind == ctrlReturn {
		return ctrl.value, nil
	}
	return voidValue(), nil
}
