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

// PlatformID names one of the built-in board profiles.
type PlatformID string

const (
	ArduinoUno PlatformID = "ARDUINO_UNO"
	ArduinoMega PlatformID = "ARDUINO_MEGA"
	ESP32Nano  PlatformID = "ESP32_NANO"
)

// PlatformContext is an immutable board profile (spec §3/§4.1): the
// defines, pin aliases and activated libraries the preprocessor and
// interpreter consult when resolving board-specific identifiers such as
// LED_BUILTIN. Built once per run, never mutated afterward.
type PlatformContext struct {
	displayName         string
	defines             map[string]string
	pinAliases          map[string]int
	activatedLibraries  map[string]bool
}

// NewPlatformContext builds the immutable context for a known platform id.
// Unknown ids fall back to the Arduino Uno profile rather than failing:
// the preprocessor and interpreter must still make forward progress (spec
// §7 propagation policy favors best-effort continuation over hard failure).
func NewPlatformContext(id PlatformID) *PlatformContext {
	switch id {
	case ArduinoMega:
		return &PlatformContext{
			displayName: "Arduino Mega 2560",
			defines: map[string]string{
				"ARDUINO_ARCH_AVR": "1",
				"ARDUINO_AVR_MEGA2560": "1",
				"F_CPU": "16000000L",
			},
			pinAliases: map[string]int{
				"LED_BUILTIN": 13,
				"A0":          54,
			},
			activatedLibraries: map[string]bool{},
		}
	case ESP32Nano:
		return &PlatformContext{
			displayName: "Arduino Nano ESP32",
			defines: map[string]string{
				"ARDUINO_ARCH_ESP32": "1",
				"F_CPU":              "240000000L",
			},
			pinAliases: map[string]int{
				"LED_BUILTIN": 2,
				"A0":          1,
			},
			activatedLibraries: map[string]bool{},
		}
	case ArduinoUno:
		fallthrough
	default:
		return &PlatformContext{
			displayName: "Arduino Uno",
			defines: map[string]string{
				"ARDUINO_ARCH_AVR": "1",
				"ARDUINO_AVR_UNO":  "1",
				"F_CPU":            "16000000L",
			},
			pinAliases: map[string]int{
				"LED_BUILTIN": 13,
				"A0":          14,
			},
			activatedLibraries: map[string]bool{},
		}
	}
}

func (p *PlatformContext) DisplayName() string { return p.displayName }

func (p *PlatformContext) Defines() map[string]string {
	out := make(map[string]string, len(p.defines))
	for k, v := range p.defines {
		out[k] = v
	}
	return out
}

func (p *PlatformContext) PinAliases() map[string]int {
	out := make(map[string]int, len(p.pinAliases))
	for k, v := range p.pinAliases {
		out[k] = v
	}
	return out
}

func (p *PlatformContext) ActivatedLibraries() map[string]bool {
	out := make(map[string]bool, len(p.activatedLibraries))
	for k, v := range p.activatedLibraries {
		out[k] = v
	}
	return out
}

// activateLibrary is called by the preprocessor when a recognized #include
// matches a Library Registry name (spec §4.2). It mutates a private copy
// taken at preprocessing start, never the shared immutable profile.
func (p *PlatformContext) activateLibrary(name string) {
	p.activatedLibraries[name] = true
}

// clone returns a private, mutable-during-preprocessing copy.
func (p *PlatformContext) clone() *PlatformContext {
	c := &PlatformContext{
		displayName:        p.displayName,
		defines:            make(map[string]string, len(p.defines)),
		pinAliases:         make(map[string]int, len(p.pinAliases)),
		activatedLibraries: make(map[string]bool, len(p.activatedLibraries)),
	}
	for k, v := range p.defines {
		c.defines[k] = v
	}
	for k, v := range p.pinAliases {
		c.pinAliases[k] = v
	}
	for k, v := range p.activatedLibraries {
		c.activatedLibraries[k] = v
	}
	return c
}
