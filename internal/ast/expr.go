package ast

import "github.com/tplpp/tplpp/internal/token"

func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*BuiltinCall) exprNode()  {}
func (*IntLit) exprNode()       {}
func (*BoolLit) exprNode()      {}
func (*Quotation) exprNode()    {}
func (*StringLit) exprNode()    {}
func (*EscapeLit) exprNode()    {}
func (*ArrayLit) exprNode()     {}
func (*DictLit) exprNode()      {}
func (*MacroCall) exprNode()    {}
func (*Identifier) exprNode()   {}
func (*Subscript) exprNode()    {}
func (*Indirection) exprNode()  {}
func (*Ternary) exprNode()      {}

// BinaryExpr covers logical/bitwise/comparison/shift/arithmetic/exponent/
// `inside` binary operators; Op is the operator token kind (token.Plus,
// token.AmpAmp, token.KwInside, ...).
type BinaryExpr struct {
	Node
	Op    token.Kind
	L, R  Expr
}

// UnaryExpr covers `!`, `+`, `-`, `~` and `$` (interpolate). `@` is its own
// node, Indirection, because it is also a Storage/Location form.
type UnaryExpr struct {
	Node
	Op token.Kind
	X  Expr
}

// BuiltinCall is one of log2/clog2/size/min/max applied to its arguments.
type BuiltinCall struct {
	Node
	Name token.Kind
	Args []Expr
}

// IntLit is an integer literal.
type IntLit struct {
	Node
	Value int32
}

// BoolLit is `true` or `false`.
type BoolLit struct {
	Node
	Value bool
}

// StringLit is one PLAIN_TEXT segment inside a quotation.
type StringLit struct {
	Node
	Value string
}

// EscapeLit is one \X escape sequence inside a quotation; Value already
// holds the decoded byte (e.g. \n -> '\n').
type EscapeLit struct {
	Node
	Value byte
}

// Quotation is a double-quoted string literal: a sequence of StringLit and
// EscapeLit segments, concatenated at evaluation.
type Quotation struct {
	Node
	Segments []Expr
}

// ArrayElem is one element of an ArrayLit: a single value (Hi == nil) or an
// inclusive range Lo..Hi that expands to a sequence of integers at
// evaluation.
type ArrayElem struct {
	Lo Expr
	Hi Expr // nil unless this element is a lo..hi range
}

// ArrayLit is `[ e1, e2, ... ]`, where each element may be a range.
type ArrayLit struct {
	Node
	Elements []ArrayElem
}

// DictEntry is one `key: value` pair of a DictLit.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictLit is `{ k1: v1, ..., kn: vn }`.
type DictLit struct {
	Node
	Entries []DictEntry
}

// MacroCall is `callee(args...)`.
type MacroCall struct {
	Node
	Callee Expr
	Args   []Expr
}

// Identifier is a bare name, used both as an r-value reference and (when it
// appears as a Storage/Location) as an l-value place.
type Identifier struct {
	Node
	Name string
}

// Subscript is `base[index]`, used both as an r-value and, when base is
// itself a Location, as an l-value place.
type Subscript struct {
	Node
	Base  Expr
	Index Expr
}

// Indirection is `@expr`: the name to define/reference is computed at
// runtime by evaluating expr to a String.
type Indirection struct {
	Node
	X Expr
}

// Ternary is `cond ? then : else`.
type Ternary struct {
	Node
	Cond, Then, Else Expr
}
