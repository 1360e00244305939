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
	"regexp"
	"strings"

	"github.com/golang/glog"
)

// Macro is a #define'd name, object-like or function-like.
type Macro struct {
	Name         string
	Params       []string
	Body         string
	FunctionLike bool
}

// condFrame tracks one level of #if/#elif/#else/#endif nesting, mirroring
// the teacher's ifState/numIfNest bookkeeping in parser.go.
type condFrame struct {
	taken     bool // true if the currently-active branch of this frame is selected
	everTaken bool // true if some branch of this frame has already been selected
	inElse    bool
	malformed bool
}

// Preprocessor evaluates #define/#if/#include/#ifdef against a
// PlatformContext and produces clean source (spec §4.2).
type Preprocessor struct {
	platform    *PlatformContext
	registry    *LibraryRegistry
	macros      map[string]*Macro
	diagnostics []Diagnostic
	condStack   []condFrame
}

// NewPreprocessor constructs a preprocessor bound to a platform profile and
// a library registry used to resolve #include directives.
func NewPreprocessor(platform *PlatformContext, registry *LibraryRegistry) *Preprocessor {
	return &Preprocessor{
		platform: platform.clone(),
		registry: registry,
		macros:   make(map[string]*Macro),
	}
}

// active reports whether source text at the current nesting should be kept.
func (p *Preprocessor) active() bool {
	for _, c := range p.condStack {
		if !c.taken {
			return false
		}
	}
	return true
}

// Process runs the full preprocessing pass and returns clean code, the
// final macro table and any diagnostics raised along the way.
func (p *Preprocessor) Process(source, filename string) (string, map[string]*Macro, []Diagnostic) {
	lines := splitLinesKeepCount(source)
	var out strings.Builder
	lineno := 0
	for _, raw := range lines {
		lineno++
		pos := Position{Line: lineno, Column: 1}
		trimmed := strings.TrimLeft(raw, " \t")
		if strings.HasPrefix(trimmed, "#") {
			p.handleDirective(trimmed[1:], pos, filename)
			out.WriteByte('\n') // line-marker padding: preserve original line numbers
			continue
		}
		if !p.active() {
			out.WriteByte('\n')
			continue
		}
		out.WriteString(p.expandMacros(raw, pos))
		out.WriteByte('\n')
	}
	if len(p.condStack) > 0 {
		p.diagnostics = append(p.diagnostics, errorf(Position{Line: lineno}, "unterminated #if (missing #endif)"))
	}
	// Every segment got a '\n'; drop the last so the line count matches.
	return strings.TrimSuffix(out.String(), "\n"), p.macros, p.diagnostics
}

func splitLinesKeepCount(source string) []string {
	// Preserve a trailing empty line the way strings.Split would, so
	// line numbers of a file ending without a final newline still line up.
	return strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
}

var directiveWordRe = regexp.MustCompile(`^\s*(\w+)\s*(.*)$`)

func (p *Preprocessor) handleDirective(rest string, pos Position, filename string) {
	m := directiveWordRe.FindStringSubmatch(rest)
	if m == nil {
		// A bare '#' with nothing after it is harmless in C++ (null
		// directive); only surface a diagnostic for genuinely unknown text.
		return
	}
	name, arg := m[1], strings.TrimSpace(m[2])
	switch name {
	case "define":
		p.handleDefine(arg, pos)
	case "undef":
		if p.active() {
			delete(p.macros, strings.TrimSpace(arg))
		}
	case "include":
		p.handleInclude(arg, pos)
	case "if":
		p.pushIf(p.evalCondition(arg, pos), pos)
	case "ifdef":
		p.pushIf(p.isDefined(strings.TrimSpace(arg)), pos)
	case "ifndef":
		p.pushIf(!p.isDefined(strings.TrimSpace(arg)), pos)
	case "elif":
		p.handleElif(arg, pos)
	case "else":
		p.handleElse(pos)
	case "endif":
		p.handleEndif(pos)
	case "pragma":
		glog.V(2).Infof("%s: pragma %s (recorded, ignored)", pos, arg)
	case "error":
		if p.active() {
			p.diagnostics = append(p.diagnostics, errorf(pos, "#error %s", arg))
		}
	case "line":
		// Recognized so the read side of the line-preservation contract
		// round-trips; the logical line number it asserts is not tracked
		// further since diagnostics here are keyed to physical lines.
		glog.V(2).Infof("%s: #line %s", pos, arg)
	default:
		p.diagnostics = append(p.diagnostics, warnf(pos, "unknown preprocessor directive %q", name))
	}
}

func (p *Preprocessor) pushIf(taken bool, pos Position) {
	if !p.active() {
		// Parent branch not selected: nested conditionals are inert but
		// still need a stack frame so #endif balances.
		p.condStack = append(p.condStack, condFrame{taken: false, everTaken: true})
		return
	}
	p.condStack = append(p.condStack, condFrame{taken: taken, everTaken: taken})
}

func (p *Preprocessor) handleElif(arg string, pos Position) {
	if len(p.condStack) == 0 {
		p.diagnostics = append(p.diagnostics, errorf(pos, "#elif without #if"))
		return
	}
	top := &p.condStack[len(p.condStack)-1]
	if top.inElse {
		p.diagnostics = append(p.diagnostics, errorf(pos, "#elif after #else"))
		top.malformed = true
		top.taken = false
		return
	}
	parentActive := true
	for _, c := range p.condStack[:len(p.condStack)-1] {
		parentActive = parentActive && c.taken
	}
	if top.everTaken || !parentActive {
		top.taken = false
		return
	}
	top.taken = p.evalCondition(arg, pos)
	top.everTaken = top.taken
}

func (p *Preprocessor) handleElse(pos Position) {
	if len(p.condStack) == 0 {
		p.diagnostics = append(p.diagnostics, errorf(pos, "#else without #if"))
		return
	}
	top := &p.condStack[len(p.condStack)-1]
	if top.inElse {
		p.diagnostics = append(p.diagnostics, errorf(pos, "duplicate #else"))
		top.taken = false
		return
	}
	top.inElse = true
	parentActive := true
	for _, c := range p.condStack[:len(p.condStack)-1] {
		parentActive = parentActive && c.taken
	}
	top.taken = parentActive && !top.everTaken
	top.everTaken = top.everTaken || top.taken
}

func (p *Preprocessor) handleEndif(pos Position) {
	if len(p.condStack) == 0 {
		p.diagnostics = append(p.diagnostics, errorf(pos, "#endif without #if"))
		return
	}
	p.condStack = p.condStack[:len(p.condStack)-1]
}

func (p *Preprocessor) isDefined(name string) bool {
	if _, ok := p.macros[name]; ok {
		return true
	}
	_, ok := p.platform.defines[name]
	return ok
}

func (p *Preprocessor) handleDefine(arg string, pos Position) {
	if !p.active() {
		return
	}
	name := arg
	rest := ""
	for i, ch := range arg {
		if ch == '(' || ch == ' ' || ch == '\t' {
			name = arg[:i]
			rest = arg[i:]
			break
		}
	}
	if name == "" {
		p.diagnostics = append(p.diagnostics, errorf(pos, "malformed #define"))
		return
	}
	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end < 0 {
			p.diagnostics = append(p.diagnostics, errorf(pos, "malformed function-like #define %q", name))
			return
		}
		paramStr := rest[1:end]
		var params []string
		if strings.TrimSpace(paramStr) != "" {
			for _, prm := range strings.Split(paramStr, ",") {
				params = append(params, strings.TrimSpace(prm))
			}
		}
		body := strings.TrimSpace(rest[end+1:])
		p.macros[name] = &Macro{Name: name, Params: params, Body: body, FunctionLike: true}
		return
	}
	p.macros[name] = &Macro{Name: name, Body: strings.TrimSpace(rest)}
}

func (p *Preprocessor) handleInclude(arg string, pos Position) {
	if !p.active() {
		return
	}
	arg = strings.TrimSpace(arg)
	if len(arg) < 2 {
		p.diagnostics = append(p.diagnostics, errorf(pos, "malformed #include"))
		return
	}
	name := arg[1 : len(arg)-1]
	if libName, ok := p.registry.ResolveInclude(name); ok {
		p.platform.activateLibrary(libName)
		glog.V(1).Infof("%s: activated library %s via #include %s", pos, libName, arg)
		return
	}
	glog.V(2).Infof("%s: dropped unrecognized #include %s", pos, arg)
}

// Platform returns the (possibly library-activated) platform context as it
// stood after preprocessing, for the interpreter to consult.
func (p *Preprocessor) Platform() *PlatformContext { return p.platform }

// expandMacros applies object-like and function-like macro substitution to
// one line to a fixed point, bounded to avoid runaway expansion on
// self-referential defines.
func (p *Preprocessor) expandMacros(line string, pos Position) string {
	const maxPasses = 32
	cur := line
	for i := 0; i < maxPasses; i++ {
		next, changed := p.expandOnce(cur)
		if !changed {
			return next
		}
		cur = next
	}
	return cur
}

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

func (p *Preprocessor) expandOnce(line string) (string, bool) {
	changed := false
	var out strings.Builder
	i := 0
	for i < len(line) {
		loc := identRe.FindStringIndex(line[i:])
		if loc == nil {
			out.WriteString(line[i:])
			break
		}
		out.WriteString(line[i : i+loc[0]])
		word := line[i+loc[0] : i+loc[1]]
		next := i + loc[1]
		mac, ok := p.macros[word]
		if !ok {
			out.WriteString(word)
			i = next
			continue
		}
		if mac.FunctionLike {
			rest := strings.TrimLeft(line[next:], " \t")
			if !strings.HasPrefix(rest, "(") {
				out.WriteString(word)
				i = next
				continue
			}
			consumed := len(line[next:]) - len(rest)
			argsText, argsLen, ok := scanBalancedParens(rest)
			if !ok {
				out.WriteString(word)
				i = next
				continue
			}
			args := splitTopLevelArgs(argsText)
			out.WriteString(substituteParams(mac, args))
			i = next + consumed + argsLen
			changed = true
			continue
		}
		out.WriteString(mac.Body)
		i = next
		changed = true
	}
	return out.String(), changed
}

// scanBalancedParens expects s to start with '(' and returns the text
// strictly between the matching parens plus the number of bytes consumed
// including both parens.
func scanBalancedParens(s string) (inner string, length int, ok bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], i + 1, true
			}
		}
	}
	return "", 0, false
}

func splitTopLevelArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(s[start:]))
	return args
}

func substituteParams(mac *Macro, args []string) string {
	body := mac.Body
	for i, param := range mac.Params {
		val := ""
		if i < len(args) {
			val = args[i]
		}
		body = regexp.MustCompile(`\b`+regexp.QuoteMeta(param)+`\b`).ReplaceAllString(body, val)
	}
	return body
}
