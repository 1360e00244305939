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
	"strings"
	"testing"
)

func newTestPreprocessor() *Preprocessor {
	return NewPreprocessor(NewPlatformContext(ArduinoUno), NewLibraryRegistry())
}

func TestPreprocessorObjectLikeDefine(t *testing.T) {
	src := "#define PIN 13\nint p = PIN;"
	p := newTestPreprocessor()
	out, _, diags := p.Process(src, "t.ino")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if !strings.Contains(out, "int p = 13;") {
		t.Errorf("expansion failed, got %q", out)
	}
}

func TestPreprocessorFunctionLikeDefine(t *testing.T) {
	src := "#define ADD(a,b) ((a)+(b))\nint s = ADD(1,2);"
	p := newTestPreprocessor()
	out, _, diags := p.Process(src, "t.ino")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if !strings.Contains(out, "((1)+(2))") {
		t.Errorf("expansion failed, got %q", out)
	}
}

func TestPreprocessorConditionalCompilation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		skip string
	}{
		{
			name: "ifdef-taken",
			src:  "#define FOO\n#ifdef FOO\nint a;\n#else\nint b;\n#endif\n",
			want: "int a;",
			skip: "int b;",
		},
		{
			name: "ifndef-taken",
			src:  "#ifndef FOO\nint a;\n#else\nint b;\n#endif\n",
			want: "int a;",
			skip: "int b;",
		},
		{
			name: "platform-if",
			src:  "#if ARDUINO_ARCH_AVR\nint avrOnly;\n#endif\n",
			want: "int avrOnly;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPreprocessor()
			out, _, diags := p.Process(tt.src, "t.ino")
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("expected %q present in output %q", tt.want, out)
			}
			if tt.skip != "" && strings.Contains(out, tt.skip) {
				t.Errorf("expected %q absent from output %q", tt.skip, out)
			}
		})
	}
}

func TestPreprocessorElifChain(t *testing.T) {
	src := "#define B 1\n#if 0\nint a;\n#elif B\nint b;\n#else\nint c;\n#endif\n"
	p := newTestPreprocessor()
	out, _, diags := p.Process(src, "t.ino")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if !strings.Contains(out, "int b;") || strings.Contains(out, "int a;") || strings.Contains(out, "int c;") {
		t.Errorf("elif selection wrong, got %q", out)
	}
}

func TestPreprocessorUnbalancedIf(t *testing.T) {
	src := "#if 1\nint a;\n"
	p := newTestPreprocessor()
	_, _, diags := p.Process(src, "t.ino")
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "unterminated") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an unterminated-#if diagnostic, got %v", diags)
	}
}

func TestPreprocessorIncludeActivatesLibrary(t *testing.T) {
	src := "#include <Servo.h>\n"
	p := newTestPreprocessor()
	p.Process(src, "t.ino")
	if !p.Platform().ActivatedLibraries()["Servo"] {
		t.Errorf("expected Servo library to be activated")
	}
}

func TestPreprocessorIdempotence(t *testing.T) {
	src := "#define X 1\n#if X\nint a = X;\n#endif\n"
	p1 := newTestPreprocessor()
	out1, _, _ := p1.Process(src, "t.ino")
	p2 := newTestPreprocessor()
	out2, _, _ := p2.Process(out1, "t.ino")
	if out1 != out2 {
		t.Errorf("preprocessing is not idempotent on clean output:\n%q\nvs\n%q", out1, out2)
	}
}

func TestPreprocessorLineCountPreserved(t *testing.T) {
	src := "#define X 1\nint a;\n#if X\nint b;\n#endif\nint c;\n"
	p := newTestPreprocessor()
	out, _, _ := p.Process(src, "t.ino")
	wantLines := len(strings.Split(src, "\n"))
	gotLines := len(strings.Split(out, "\n"))
	if gotLines != wantLines {
		t.Errorf("line count changed: got %d, want %d", gotLines, wantLines)
	}
}
