// Package ast defines the two node families the parser produces: Stmt
// (statements) and Expr (expressions). They share no common supertype —
// only a Position() accessor for diagnostics, provided by embedding Node.
//
// Every node is owned by exactly one parent; the root Compound of a parsed
// file is owned by that file's *ast.File.
package ast

import "github.com/tplpp/tplpp/internal/token"

// Node carries the source position of a node, embedded by every concrete
// Stmt/Expr type instead of being a common supertype.
type Node struct {
	Pos token.Cursor
}

func (n Node) Position() token.Cursor { return n.Pos }

// At constructs a Node for embedding in a concrete Stmt/Expr literal.
func At(pos token.Cursor) Node { return Node{Pos: pos} }

// Stmt is implemented by every statement node.
type Stmt interface {
	Position() token.Cursor
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Position() token.Cursor
	exprNode()
}

// File is the root of one parsed file's AST: its top-level statement
// sequence plus the path it was parsed from (used by `include` and by
// diagnostics).
type File struct {
	Path string
	Body Stmt // always a *Compound
}
