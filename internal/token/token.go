// Package token defines the Token record produced by internal/lexer and
// consumed by internal/parser, plus the Cursor (line/column) position type
// shared by diagnostics.
package token

import "fmt"

// Kind classifies a Token.
type Kind int

const (
	EOF Kind = iota
	Invalid // an unexpected byte scanned in DIRECTIVE mode; Content holds the offending byte
	PlainText
	Newline
	Backtick     // single `, enters DIRECTIVE mode
	DoubleQuote  // ", toggles QUOTATION mode
	EscapeSeq    // \X inside a quotation
	Identifier
	Integer

	// Keywords
	KwLet
	KwDefine
	KwMacro
	KwEndmacro
	KwIf
	KwElseif
	KwElse
	KwEndif
	KwFor
	KwEndfor
	KwInclude
	KwTrue
	KwFalse
	KwInside

	// Built-ins
	KwLog2
	KwClog2
	KwSize
	KwMin
	KwMax

	// Punctuation / operators
	Bang         // !
	BangEq       // !=
	Percent      // %
	Amp          // &
	AmpAmp       // &&
	LParen       // (
	RParen       // )
	Star         // *
	StarStar     // **
	Plus         // +
	PlusEq       // +=
	Minus        // -
	Dot          // .
	DotDot       // ..
	Slash        // /
	Colon        // :
	Less         // <
	LessEq       // <=
	Eq           // =
	EqEq         // ==
	Greater      // >
	GreaterEq    // >=
	Question     // ?
	At           // @
	LBracket     // [
	RBracket     // ]
	Caret        // ^
	LBrace       // {
	Pipe         // |
	PipePipe     // ||
	RBrace       // }
	Tilde        // ~
	Comma        // ,
	Dollar       // $
	ShiftLeft    // <<
	ShiftRight   // >>
)

// keywords maps directive-mode identifier text to its keyword Kind.
var keywords = map[string]Kind{
	"let":      KwLet,
	"define":   KwDefine,
	"macro":    KwMacro,
	"endmacro": KwEndmacro,
	"if":       KwIf,
	"elseif":   KwElseif,
	"else":     KwElse,
	"endif":    KwEndif,
	"for":      KwFor,
	"endfor":   KwEndfor,
	"include":  KwInclude,
	"true":     KwTrue,
	"false":    KwFalse,
	"inside":   KwInside,
	"log2":     KwLog2,
	"clog2":    KwClog2,
	"size":     KwSize,
	"min":      KwMin,
	"max":      KwMax,
}

// Lookup returns the keyword Kind for name, or (Identifier, false) if name
// is not a reserved word.
func Lookup(name string) (Kind, bool) {
	k, ok := keywords[name]
	if !ok {
		return Identifier, false
	}
	return k, true
}

// IsKeyword reports whether kind is one of the reserved words (directive
// keyword or built-in name), as opposed to a punctuation token.
func IsKeyword(kind Kind) bool {
	switch kind {
	case KwLet, KwDefine, KwMacro, KwEndmacro, KwIf, KwElseif, KwElse, KwEndif,
		KwFor, KwEndfor, KwInclude, KwTrue, KwFalse, KwInside,
		KwLog2, KwClog2, KwSize, KwMin, KwMax:
		return true
	default:
		return false
	}
}

// ClearsInline reports whether lexing this keyword while scanning an inline
// directive (one opened with a bare backtick, no explicit block form) turns
// it into a block directive that now runs to the next NEWLINE instead of
// auto-closing at the first token that can't extend an expression. Only the
// structural directive keywords do this; built-in function names (log2,
// min, true, ...) are ordinary expression vocabulary and never clear it.
func ClearsInline(kind Kind) bool {
	switch kind {
	case KwLet, KwDefine, KwMacro, KwEndmacro, KwIf, KwElseif, KwElse, KwEndif,
		KwFor, KwEndfor, KwInclude:
		return true
	default:
		return false
	}
}

var kindNames = map[Kind]string{
	EOF: "end of file", Invalid: "invalid character", PlainText: "text",
	Newline: "newline", Backtick: "'`'", DoubleQuote: "'\"'", EscapeSeq: "escape sequence",
	Identifier: "identifier", Integer: "integer literal",
	KwLet: "'let'", KwDefine: "'define'", KwMacro: "'macro'", KwEndmacro: "'endmacro'",
	KwIf: "'if'", KwElseif: "'elseif'", KwElse: "'else'", KwEndif: "'endif'",
	KwFor: "'for'", KwEndfor: "'endfor'", KwInclude: "'include'",
	KwTrue: "'true'", KwFalse: "'false'", KwInside: "'inside'",
	KwLog2: "'log2'", KwClog2: "'clog2'", KwSize: "'size'", KwMin: "'min'", KwMax: "'max'",
	Bang: "'!'", BangEq: "'!='", Percent: "'%'", Amp: "'&'", AmpAmp: "'&&'",
	LParen: "'('", RParen: "')'", Star: "'*'", StarStar: "'**'",
	Plus: "'+'", PlusEq: "'+='", Minus: "'-'", Dot: "'.'", DotDot: "'..'",
	Slash: "'/'", Colon: "':'", Less: "'<'", LessEq: "'<='", Eq: "'='", EqEq: "'=='",
	Greater: "'>'", GreaterEq: "'>='", Question: "'?'", At: "'@'",
	LBracket: "'['", RBracket: "']'", Caret: "'^'", LBrace: "'{'",
	Pipe: "'|'", PipePipe: "'||'", RBrace: "'}'", Tilde: "'~'", Comma: "','",
	Dollar: "'$'", ShiftLeft: "'<<'", ShiftRight: "'>>'",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Cursor is a 1-based line/column position in a source buffer.
type Cursor struct {
	Line, Column int
}

// CursorInit is the position at the start of a buffer.
var CursorInit = Cursor{Line: 1, Column: 1}

func (c Cursor) String() string { return fmt.Sprintf("%d:%d", c.Line, c.Column) }

// Token is a value-copied record. Content is a string copy of the token's
// bytes; Start and Length locate those bytes in the buffer it was lexed from.
type Token struct {
	Kind    Kind
	Content string
	Start   int // byte offset into the owning buffer
	Length  int
	At      Cursor
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "<EOF>"
	}
	return fmt.Sprintf("%v(%q)@%v", t.Kind, t.Content, t.At)
}
