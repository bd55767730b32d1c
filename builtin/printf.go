package builtin

import (
	"fmt"
	"strings"

	"qc/atom"
)

// formatPrintf renders format against args the way QC's printf does
// (spec.md §6): %s %c %d %i %u %x %X %o, with C-style flags/width/precision
// passed straight through to Go's fmt since Go's verbs accept the same
// modifier syntax; floating-point verbs are out of scope (spec.md
// Non-goals).
func formatPrintf(format string, args []atom.Atom) (string, error) {
	var out strings.Builder
	argi := 0
	i := 0
	for i < len(format) {
		if format[i] != '%' {
			out.WriteByte(format[i])
			i++
			continue
		}
		j := i + 1
		for j < len(format) && isSpecifierByte(format[j]) {
			j++
		}
		if j >= len(format) {
			return "", fmt.Errorf("printf: truncated format specifier")
		}
		verb := format[j]
		mods := stripLengthMods(format[i+1 : j])
		if verb == '%' {
			out.WriteByte('%')
			i = j + 1
			continue
		}
		if argi >= len(args) {
			return "", fmt.Errorf("printf: too few arguments for format %q", format)
		}
		piece, err := formatOne(mods, verb, args[argi])
		if err != nil {
			return "", err
		}
		argi++
		out.WriteString(piece)
		i = j + 1
	}
	return out.String(), nil
}

func isSpecifierByte(b byte) bool {
	return strings.IndexByte("-+ #0123456789.lhLqjzt", b) >= 0
}

// stripLengthMods drops C's length modifiers (l, h, L, and the rarer
// q/j/z/t), which Go's fmt verbs don't take and would otherwise reject.
func stripLengthMods(mods string) string {
	var b strings.Builder
	for i := 0; i < len(mods); i++ {
		switch mods[i] {
		case 'l', 'h', 'L', 'q', 'j', 'z', 't':
			continue
		default:
			b.WriteByte(mods[i])
		}
	}
	return b.String()
}

func formatOne(mods string, verb byte, a atom.Atom) (string, error) {
	switch verb {
	case 'd', 'i':
		return fmt.Sprintf("%"+mods+"d", a.I), nil
	case 'u':
		return fmt.Sprintf("%"+mods+"d", uint64(a.I)), nil
	case 'x':
		return fmt.Sprintf("%"+mods+"x", uint64(a.I)), nil
	case 'X':
		return fmt.Sprintf("%"+mods+"X", uint64(a.I)), nil
	case 'o':
		return fmt.Sprintf("%"+mods+"o", uint64(a.I)), nil
	case 'c':
		return fmt.Sprintf("%"+mods+"c", rune(a.I)), nil
	case 's':
		s, ok := a.P.(string)
		if !ok {
			return "", fmt.Errorf("printf: %%s requires a string argument")
		}
		return fmt.Sprintf("%"+mods+"s", s), nil
	default:
		return "", fmt.Errorf("printf: unsupported conversion %%%c", verb)
	}
}
