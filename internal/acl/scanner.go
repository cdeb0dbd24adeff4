package acl

import "strings"

// scanner walks ACI text one byte at a time.
type scanner struct {
	s   string
	pos int
}

func (sc *scanner) eof() bool {
	return sc.pos >= len(sc.s)
}

func (sc *scanner) peek() byte {
	if sc.eof() {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *scanner) rest() string {
	return sc.s[sc.pos:]
}

func (sc *scanner) skipSpace() {
	for !sc.eof() && isSpace(sc.s[sc.pos]) {
		sc.pos++
	}
}

func (sc *scanner) consume(c byte) bool {
	if !sc.eof() && sc.s[sc.pos] == c {
		sc.pos++
		return true
	}
	return false
}

// consumeFold consumes w if the input continues with it, ignoring case.
func (sc *scanner) consumeFold(w string) bool {
	if len(sc.s)-sc.pos < len(w) || !strings.EqualFold(sc.s[sc.pos:sc.pos+len(w)], w) {
		return false
	}
	sc.pos += len(w)
	return true
}

// word reads a run of ASCII letters.
func (sc *scanner) word() string {
	start := sc.pos
	for !sc.eof() && isLetter(sc.s[sc.pos]) {
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

// operator reads one of = != < <= > >=.
func (sc *scanner) operator() (Operator, bool) {
	switch {
	case sc.consumeFold("!="):
		return OpNotEqual, true
	case sc.consumeFold("<="):
		return OpLessOrEqual, true
	case sc.consumeFold(">="):
		return OpGreaterOrEqual, true
	case sc.consume('='):
		return OpEqual, true
	case sc.consume('<'):
		return OpLess, true
	case sc.consume('>'):
		return OpGreater, true
	}
	return 0, false
}

// quoted reads a double-quoted string and returns its content.
func (sc *scanner) quoted() (string, bool) {
	if !sc.consume('"') {
		return "", false
	}
	end := strings.IndexByte(sc.s[sc.pos:], '"')
	if end < 0 {
		return "", false
	}
	v := sc.s[sc.pos : sc.pos+end]
	sc.pos += end + 1
	return v, true
}

// indexOutsideQuotes returns the index of the first c in s that is not
// inside a double-quoted string, or -1.
func indexOutsideQuotes(s string, c byte) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"':
			inQuote = !inQuote
		case s[i] == c && !inQuote:
			return i
		}
	}
	return -1
}

// splitTopLevel splits s on sep where sep is outside parentheses.
func splitTopLevel(s, sep string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		default:
			if depth == 0 && strings.HasPrefix(s[i:], sep) {
				out = append(out, s[start:i])
				i += len(sep) - 1
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
