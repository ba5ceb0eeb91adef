// Package lexer implements the mode-switching scanner: VERBATIM text,
// DIRECTIVE (the expression/statement language between backticks), and
// QUOTATION (the body of a double-quoted string). Mode transitions are
// driven by the characters scanned, not by the caller, mirroring the
// three-mode design of the original preprocessor front-end.
package lexer

import (
	"github.com/tplpp/tplpp/internal/source"
	"github.com/tplpp/tplpp/internal/token"
)

// mode is the scanner's current sub-lexer.
type mode int

const (
	modeVerbatim mode = iota
	modeDirective
	modeQuotation
)

// Lexer scans one source.Buffer into a stream of token.Token values, one
// Next() call at a time. It holds no lookahead beyond the single byte
// needed to disambiguate two-character operators and the escaped-backtick
// rule, matching the original's single-pass, no-backtracking design.
type Lexer struct {
	buf *source.Buffer
	pos int
	at  token.Cursor

	mode         mode
	isInline     bool // current DIRECTIVE was opened by a bare backtick, not yet pinned to a block form
	nestingLevel int  // depth of unmatched ( [ {  opened while in DIRECTIVE mode

	startPos int
	startAt  token.Cursor
}

// New returns a Lexer positioned at the start of buf.
func New(buf *source.Buffer) *Lexer {
	return &Lexer{buf: buf, at: token.CursorInit}
}

// Clone returns an independent copy of l's scanning state, sharing the same
// read-only Buffer. The parser uses this for bounded lookahead (e.g.
// deciding whether a BACKTICK opens a new directive or belongs to an
// enclosing one) without disturbing l itself.
func (l *Lexer) Clone() *Lexer {
	c := *l
	return &c
}

// Synchronize resets the scanner to top-level VERBATIM mode, discarding any
// in-progress directive nesting. The parser calls this after reporting a
// syntax error, so scanning can resume at the next plausible statement
// boundary instead of cascading further errors from stale lexer state.
func (l *Lexer) Synchronize() {
	l.mode = modeVerbatim
	l.isInline = false
	l.nestingLevel = 0
}

func (l *Lexer) reset() {
	l.startPos = l.pos
	l.startAt = l.at
}

func (l *Lexer) peek() byte {
	if l.pos >= l.buf.Len() {
		return 0
	}
	return l.buf.At(l.pos)
}

func (l *Lexer) advance() byte {
	c := l.peek()
	if c == '\n' {
		l.at.Line++
		l.at.Column = 1
	} else {
		l.at.Column++
	}
	l.pos++
	return c
}

// match consumes and reports true if the next byte equals want.
func (l *Lexer) match(want byte) bool {
	if l.peek() != want {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) emit(kind token.Kind) token.Token {
	t := token.Token{
		Kind:    kind,
		Content: l.buf.Text(l.startPos, l.pos-l.startPos),
		Start:   l.startPos,
		Length:  l.pos - l.startPos,
		At:      l.startAt,
	}
	l.reset()
	return t
}

// Next scans and returns the next token, dispatching to the sub-lexer for
// the current mode.
func (l *Lexer) Next() token.Token {
	switch l.mode {
	case modeDirective:
		return l.nextDirective()
	case modeQuotation:
		return l.nextQuotation()
	default:
		return l.nextVerbatim()
	}
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }

func (l *Lexer) nextVerbatim() token.Token {
	if l.pos >= l.buf.Len() {
		return l.emit(token.EOF)
	}

	if l.peek() != '`' {
		for l.pos < l.buf.Len() && l.peek() != '`' {
			l.advance()
		}
		return l.emit(token.PlainText)
	}

	l.advance() // consume the opening backtick
	if l.peek() != '`' {
		l.mode = modeDirective
		l.isInline = true
		return l.emit(token.Backtick)
	}

	// A run of N>=2 consecutive backticks escapes to N-1 literal backticks:
	// drop the first, keep the rest verbatim.
	l.advance()
	l.startPos++
	l.startAt.Column++
	for l.peek() == '`' {
		l.advance()
	}
	return l.emit(token.PlainText)
}

func (l *Lexer) nextQuotation() token.Token {
	if l.pos >= l.buf.Len() {
		return l.emit(token.EOF)
	}
	switch l.peek() {
	case '"':
		l.advance()
		l.mode = modeDirective
		return l.emit(token.DoubleQuote)
	case '\\':
		l.advance() // the backslash, excluded from the token
		l.reset()
		l.advance() // the escaped byte, becomes Content
		return l.emit(token.EscapeSeq)
	default:
		for l.pos < l.buf.Len() && l.peek() != '\\' && l.peek() != '"' {
			l.advance()
		}
		return l.emit(token.PlainText)
	}
}

// closeInlineIf switches back to VERBATIM mode when an inline directive has
// just produced a token that cannot be extended into a longer expression at
// the top nesting level, matching the "terminates at the first token that
// cannot extend the expression" rule for inline directives.
func (l *Lexer) closeInlineIf(cond bool) {
	if l.nestingLevel == 0 && l.isInline && cond {
		l.mode = modeVerbatim
	}
}

func (l *Lexer) nextDirective() token.Token {
	for {
		if l.pos >= l.buf.Len() {
			return l.emit(token.EOF)
		}
		c := l.advance()
		switch c {
		case '\n':
			if l.nestingLevel == 0 {
				l.mode = modeVerbatim
				return l.emit(token.Newline)
			}
			l.reset()
			continue

		case ' ', '\t', '\r':
			for l.peek() == ' ' || l.peek() == '\t' || l.peek() == '\r' {
				l.advance()
			}
			l.reset()
			continue

		case '!':
			if l.match('=') {
				return l.emit(token.BangEq)
			}
			return l.emit(token.Bang)

		case '"':
			l.mode = modeQuotation
			return l.emit(token.DoubleQuote)

		case '$':
			return l.emit(token.Dollar)

		case '%':
			return l.emit(token.Percent)

		case '&':
			if l.match('&') {
				return l.emit(token.AmpAmp)
			}
			return l.emit(token.Amp)

		case '(':
			l.nestingLevel++
			return l.emit(token.LParen)

		case ')':
			if l.nestingLevel != 0 {
				l.nestingLevel--
			}
			l.closeInlineIf(true)
			return l.emit(token.RParen)

		case '*':
			if l.match('*') {
				return l.emit(token.StarStar)
			}
			return l.emit(token.Star)

		case '+':
			if l.match('=') {
				return l.emit(token.PlusEq)
			}
			return l.emit(token.Plus)

		case ',':
			return l.emit(token.Comma)

		case '-':
			return l.emit(token.Minus)

		case '.':
			if l.match('.') {
				return l.emit(token.DotDot)
			}
			return l.emit(token.Dot)

		case '/':
			return l.emit(token.Slash)

		case ':':
			return l.emit(token.Colon)

		case '<':
			if l.match('=') {
				return l.emit(token.LessEq)
			} else if l.match('<') {
				return l.emit(token.ShiftLeft)
			}
			return l.emit(token.Less)

		case '=':
			if l.match('=') {
				return l.emit(token.EqEq)
			}
			return l.emit(token.Eq)

		case '>':
			if l.match('=') {
				return l.emit(token.GreaterEq)
			} else if l.match('>') {
				return l.emit(token.ShiftRight)
			}
			return l.emit(token.Greater)

		case '?':
			return l.emit(token.Question)

		case '@':
			return l.emit(token.At)

		case '[':
			l.nestingLevel++
			return l.emit(token.LBracket)

		case ']':
			if l.nestingLevel != 0 {
				l.nestingLevel--
			}
			l.closeInlineIf(true)
			return l.emit(token.RBracket)

		case '^':
			return l.emit(token.Caret)

		case '`':
			// A closing backtick inside a directive is ordinary punctuation:
			// it neither opens nor closes a mode by itself. Writers use it
			// as optional decoration to mark where an inline directive ends;
			// the lexer's own auto-close rules (below, and on NEWLINE) are
			// what actually leave DIRECTIVE mode.
			return l.emit(token.Backtick)

		case '{':
			l.nestingLevel++
			return l.emit(token.LBrace)

		case '|':
			if l.match('|') {
				return l.emit(token.PipePipe)
			}
			return l.emit(token.Pipe)

		case '}':
			if l.nestingLevel != 0 {
				l.nestingLevel--
			}
			l.closeInlineIf(true)
			return l.emit(token.RBrace)

		case '~':
			return l.emit(token.Tilde)

		default:
			if isDigit(c) {
				for isDigit(l.peek()) {
					l.advance()
				}
				l.closeInlineIf(true)
				return l.emit(token.Integer)
			}
			if isAlpha(c) {
				for isAlnum(l.peek()) {
					l.advance()
				}
				name := l.buf.Text(l.startPos, l.pos-l.startPos)
				if kind, ok := token.Lookup(name); ok {
					if token.ClearsInline(kind) {
						l.isInline = false
					} else {
						l.closeInlineIf(l.peek() != '(')
					}
					return l.emit(kind)
				}
				l.closeInlineIf(l.peek() != '(')
				return l.emit(token.Identifier)
			}
			return l.emit(token.Invalid)
		}
	}
}
