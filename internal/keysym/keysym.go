// Package keysym maps command-engine key names to X11 keysym values and
// resolves modifier chords, per §4.G's key decoding rules.
package keysym

import (
	"fmt"
	"strings"
)

// byName is the fixed symbol table for named keys: modifiers, navigation,
// function keys, and keypad keys. Values are standard X11 keysyms, the
// same constants servers expect in KeyEvent messages.
var byName = map[string]uint32{
	"shift":     0xffe1,
	"shift_l":   0xffe1,
	"shift_r":   0xffe2,
	"ctrl":      0xffe3,
	"control":   0xffe3,
	"ctrl_l":    0xffe3,
	"ctrl_r":    0xffe4,
	"meta":      0xffe7,
	"meta_l":    0xffe7,
	"meta_r":    0xffe8,
	"alt":       0xffe9,
	"alt_l":     0xffe9,
	"alt_r":     0xffea,
	"super":     0xffeb,
	"super_l":   0xffeb,
	"super_r":   0xffec,

	"bsp":       0xff08,
	"backspace": 0xff08,
	"tab":       0xff09,
	"return":    0xff0d,
	"enter":     0xff0d,
	"escape":    0xff1b,
	"esc":       0xff1b,
	"ins":       0xff63,
	"insert":    0xff63,
	"del":       0xffff,
	"delete":    0xffff,
	"home":      0xff50,
	"end":       0xff57,
	"pgup":      0xff55,
	"pageup":    0xff55,
	"pgdn":      0xff56,
	"pagedown":  0xff56,
	"left":      0xff51,
	"up":        0xff52,
	"right":     0xff53,
	"down":      0xff54,
	"space":     0x0020,
	"spacebar":  0x0020,
	"capslock":  0xffe5,
	"numlock":   0xff7f,
	"scrolllock": 0xff14,
	"printscreen": 0xff61,
	"prtsc":     0xff61,
	"pause":     0xff13,
	"menu":      0xff67,

	"f1": 0xffbe, "f2": 0xffbf, "f3": 0xffc0, "f4": 0xffc1,
	"f5": 0xffc2, "f6": 0xffc3, "f7": 0xffc4, "f8": 0xffc5,
	"f9": 0xffc6, "f10": 0xffc7, "f11": 0xffc8, "f12": 0xffc9,
	"f13": 0xffca, "f14": 0xffcb, "f15": 0xffcc, "f16": 0xffcd,

	"kp0": 0xffb0, "kp1": 0xffb1, "kp2": 0xffb2, "kp3": 0xffb3,
	"kp4": 0xffb4, "kp5": 0xffb5, "kp6": 0xffb6, "kp7": 0xffb7,
	"kp8": 0xffb8, "kp9": 0xffb9,
	"kpenter":    0xff8d,
	"kpdivide":   0xffaf,
	"kpmultiply": 0xffaa,
	"kpsubtract": 0xffad,
	"kpadd":      0xffab,
	"kpdecimal":  0xffae,
}

// modifierNames is consulted by IsModifier; chord segments that name one
// of these are never the "victim" key of a force_caps promotion.
var modifierNames = map[string]bool{
	"shift": true, "shift_l": true, "shift_r": true,
	"ctrl": true, "control": true, "ctrl_l": true, "ctrl_r": true,
	"meta": true, "meta_l": true, "meta_r": true,
	"alt": true, "alt_l": true, "alt_r": true,
	"super": true, "super_l": true, "super_r": true,
}

// shiftedASCII is the force_caps table (§4.G): characters on a US
// keyboard that require the Shift modifier to type, besides uppercase
// letters.
var shiftedASCII = map[rune]rune{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
	'_': '-', '+': '=', '{': '[', '}': ']', '|': '\\',
	':': ';', '"': '\'', '<': ',', '>': '.', '?': '/', '~': '`',
}

// Lookup resolves one chord segment ("a", "shift", "f1", ...) to its
// keysym. A single rune not found by name maps to its own code point.
func Lookup(segment string) (uint32, bool) {
	lower := strings.ToLower(segment)
	if v, ok := byName[lower]; ok {
		return v, true
	}
	runes := []rune(segment)
	if len(runes) == 1 {
		return uint32(runes[0]), true
	}
	return 0, false
}

// byValue is the inverse of byName's canonical entries, for Name's use by
// the recording proxy's client-frame observer, which must map a numeric
// keysym from the wire back to the symbolic name a script would use.
// Picked explicitly (rather than derived from byName) so that keysyms
// with more than one name — "shift" and "shift_l" both mean 0xffe1 —
// record under one preferred spelling.
var byValue = map[uint32]string{
	0xffe1: "shift", 0xffe2: "shift_r",
	0xffe3: "ctrl", 0xffe4: "ctrl_r",
	0xffe7: "meta", 0xffe8: "meta_r",
	0xffe9: "alt", 0xffea: "alt_r",
	0xffeb: "super", 0xffec: "super_r",
	0xff08: "backspace", 0xff09: "tab", 0xff0d: "return", 0xff1b: "escape",
	0xff63: "ins", 0xffff: "del", 0xff50: "home", 0xff57: "end",
	0xff55: "pgup", 0xff56: "pgdn",
	0xff51: "left", 0xff52: "up", 0xff53: "right", 0xff54: "down",
	0x0020: "space", 0xffe5: "capslock", 0xff7f: "numlock",
	0xff14: "scrolllock", 0xff61: "printscreen", 0xff13: "pause", 0xff67: "menu",
	0xffbe: "f1", 0xffbf: "f2", 0xffc0: "f3", 0xffc1: "f4",
	0xffc2: "f5", 0xffc3: "f6", 0xffc4: "f7", 0xffc5: "f8",
	0xffc6: "f9", 0xffc7: "f10", 0xffc8: "f11", 0xffc9: "f12",
	0xffca: "f13", 0xffcb: "f14", 0xffcc: "f15", 0xffcd: "f16",
}

// Name maps a keysym back to its symbolic name, falling back to the
// literal character for printable code points the table doesn't name.
func Name(sym uint32) string {
	if name, ok := byValue[sym]; ok {
		return name
	}
	if sym >= 0x20 && sym < 0x7f {
		return string(rune(sym))
	}
	return fmt.Sprintf("0x%x", sym)
}

// IsModifier reports whether segment names a modifier key.
func IsModifier(segment string) bool {
	return modifierNames[strings.ToLower(segment)]
}

// SplitChord splits a key expression on '-' into its ordered segments,
// e.g. "ctrl-alt-delete" -> ["ctrl", "alt", "delete"].
func SplitChord(key string) []string {
	return strings.Split(key, "-")
}

// ForceCaps promotes a single character that requires Shift on a US
// keyboard into an explicit "shift-<char>" chord, per §4.G's force_caps
// option. Multi-character keys and already-chorded expressions pass
// through unchanged.
func ForceCaps(key string) string {
	runes := []rune(key)
	if len(runes) != 1 {
		return key
	}
	r := runes[0]
	if r >= 'A' && r <= 'Z' {
		return "shift-" + string(r+('a'-'A'))
	}
	if base, ok := shiftedASCII[r]; ok {
		return "shift-" + string(base)
	}
	return key
}
