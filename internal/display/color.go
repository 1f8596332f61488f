package display

import "strings"

// ANSI SGR parameters by color name
var sgr = map[string]string{
	"bold":           "1",
	"red":            "31",
	"green":          "32",
	"yellow":         "33",
	"blue":           "34",
	"magenta":        "35",
	"cyan":           "36",
	"bright_black":   "90",
	"bright_red":     "91",
	"bright_green":   "92",
	"bright_blue":    "94",
	"bright_magenta": "95",
	"bright_cyan":    "96",
}

// Colorize wraps text in the escape sequence for color. Unknown or empty
// colors leave text untouched.
func Colorize(text, color string, enabled bool) string {
	code, ok := sgr[color]
	if !enabled || !ok {
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}

// width is the number of terminal cells s occupies, ignoring escape
// sequences and variation selectors
func width(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		case r == '\uFE0E' || r == '\uFE0F':
		default:
			n++
		}
	}
	return n
}

// pad right-pads s with spaces to n cells
func pad(s string, n int) string {
	if w := width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

// padLeft left-pads s with spaces to n cells
func padLeft(s string, n int) string {
	if w := width(s); w < n {
		return strings.Repeat(" ", n-w) + s
	}
	return s
}
