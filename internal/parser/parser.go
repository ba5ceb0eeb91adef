// Package parser implements the recursive-descent, precedence-climbing
// parser that turns a token stream into the two AST node families (Stmt,
// Expr) defined by internal/ast.
package parser

import (
	"fmt"

	"github.com/tplpp/tplpp/internal/ast"
	"github.com/tplpp/tplpp/internal/diagnostics"
	"github.com/tplpp/tplpp/internal/lexer"
	"github.com/tplpp/tplpp/internal/source"
	"github.com/tplpp/tplpp/internal/token"
)

// maxReportedErrors caps the number of diagnostics shown per file; beyond
// this, further syntax errors are only counted, and a "N more error(s)"
// summary is emitted once parsing finishes.
const maxReportedErrors = 5

// Parser consumes tokens from one lexer.Lexer over one source.Buffer and
// builds the Stmt/Expr tree for that file.
type Parser struct {
	lex *lexer.Lexer
	buf *source.Buffer
	snk *diagnostics.Sink

	cur token.Token

	reported   int
	suppressed int
}

// New returns a Parser ready to parse buf, reporting diagnostics to snk.
func New(buf *source.Buffer, snk *diagnostics.Sink) *Parser {
	p := &Parser{lex: lexer.New(buf), buf: buf, snk: snk}
	p.cur = p.lex.Next()
	return p
}

// ParseFile parses the whole buffer and returns the resulting *ast.File
// together with whether parsing succeeded with zero errors. On failure the
// returned AST is nil: per the grammar, a file with any syntax error is
// discarded rather than partially used.
func (p *Parser) ParseFile() (*ast.File, bool) {
	body := p.compound(nil)
	if p.reported > 0 || p.suppressed > 0 {
		if p.suppressed > 0 {
			p.snk.Notice(p.buf.Path, fmt.Sprintf("%d more error(s)", p.suppressed))
		}
		return nil, false
	}
	return &ast.File{Path: p.buf.Path, Body: body}, true
}

// advance returns the current token and fetches the next one.
func (p *Parser) advance() token.Token {
	prev := p.cur
	p.cur = p.lex.Next()
	return prev
}

// peekAfterCur returns the token that would follow p.cur, without consuming
// anything: it scans ahead on a throwaway clone of the lexer's state.
func (p *Parser) peekAfterCur() token.Token {
	return p.lex.Clone().Next()
}

func (p *Parser) errorAt(at token.Cursor, format string, args ...any) {
	d := diagnostics.Diagnostic{
		Kind:    diagnostics.Syntactic,
		File:    p.buf.Path,
		At:      at,
		Message: fmt.Sprintf(format, args...),
	}
	if p.cur.Kind == token.Invalid {
		d.Kind = diagnostics.Lexical
	}
	if p.reported < maxReportedErrors {
		p.snk.Emit(d, p.buf.Line(at.Line))
		p.reported++
	} else {
		p.suppressed++
	}
}

// synchronize recovers from a syntax error by resetting the lexer to
// top-level VERBATIM scanning and discarding the offending token, so
// parsing can resume at the next plausible statement boundary.
func (p *Parser) synchronize() {
	p.lex.Synchronize()
	p.advance()
}

// expect reports an error if the current token is not kind, then always
// advances past it (recovery-friendly: callers don't need to branch on
// whether expect succeeded before continuing to build the node).
func (p *Parser) expect(kind token.Kind, what string) token.Token {
	if p.cur.Kind != kind {
		p.errorAt(p.cur.At, "expected %s, found %v", what, p.cur.Kind)
	}
	return p.advance()
}

// endDirective consumes the optional decorative closing BACKTICK some
// directives are written with, then the terminating NEWLINE if one is
// present. Both are optional here because the lexer's own auto-close rules
// already return many directives (most inline expressions) to VERBATIM
// mode before a NEWLINE token is ever produced.
func (p *Parser) endDirective() {
	if p.cur.Kind == token.Backtick {
		p.advance()
	}
	if p.cur.Kind == token.Newline {
		p.advance()
	}
}

// terminators names the keywords that end a compound() early without being
// consumed, because they belong to an enclosing construct.
type terminators map[token.Kind]bool

func (p *Parser) compound(stop terminators) ast.Stmt {
	at := p.cur.At
	var stmts []ast.Stmt
	for {
		switch p.cur.Kind {
		case token.EOF:
			return &ast.Compound{Node: ast.At(at), Stmts: stmts}

		case token.PlainText:
			stmts = append(stmts, &ast.PlainText{Node: ast.At(p.cur.At), Text: p.cur.Content})
			p.advance()

		case token.Backtick:
			if stop[p.peekAfterCur().Kind] {
				return &ast.Compound{Node: ast.At(at), Stmts: stmts}
			}
			if stmt := p.directive(); stmt != nil {
				stmts = append(stmts, stmt)
			}

		default:
			p.errorAt(p.cur.At, "unexpected token %v", p.cur.Kind)
			p.synchronize()
		}
	}
}

// directive consumes the opening BACKTICK (p.cur) and dispatches on the
// token that follows it.
func (p *Parser) directive() ast.Stmt {
	p.advance() // the BACKTICK
	switch p.cur.Kind {
	case token.Newline:
		p.advance()
		return nil // empty directive: no statement, no output
	case token.KwLet:
		return p.parseVarDef(false)
	case token.KwDefine:
		return p.parseVarDef(true)
	case token.KwMacro:
		return p.parseMacroDef()
	case token.KwIf:
		return p.parseSelection()
	case token.KwFor:
		return p.parseIteration()
	case token.KwInclude:
		return p.parseInclusion()
	case token.KwElse, token.KwElseif, token.KwEndif, token.KwEndfor, token.KwEndmacro:
		p.errorAt(p.cur.At, "%v has no matching opening directive", p.cur.Kind)
		p.synchronize()
		return nil
	default:
		at := p.cur.At
		x := p.parseExpr()
		p.endDirective()
		return &ast.ExprStmt{Node: ast.At(at), X: x}
	}
}

// parseStorage parses a Storage place: a bare identifier, or `@` followed
// by a prefix expression computing the name at runtime.
func (p *Parser) parseStorage() ast.Expr {
	if p.cur.Kind == token.At {
		at := p.cur.At
		p.advance()
		return &ast.Indirection{Node: ast.At(at), X: p.parseUnary()}
	}
	at := p.cur.At
	if p.cur.Kind != token.Identifier {
		p.errorAt(at, "expected an identifier or @name, found %v", p.cur.Kind)
	}
	name := p.cur.Content
	p.advance()
	return &ast.Identifier{Node: ast.At(at), Name: name}
}

func (p *Parser) parseVarDef(global bool) ast.Stmt {
	at := p.cur.At // positioned at `let`/`define`
	p.advance()
	target := p.parseStorage()
	p.expect(token.Eq, "'='")
	value := p.parseExpr()
	p.endDirective()
	if global {
		return &ast.GlobalVarDef{Node: ast.At(at), Target: target, Value: value}
	}
	return &ast.LocalVarDef{Node: ast.At(at), Target: target, Value: value}
}

func (p *Parser) parseMacroDef() ast.Stmt {
	at := p.cur.At // positioned at `macro`
	p.advance()
	target := p.parseStorage()
	p.expect(token.LParen, "'('")
	var params []string
	if p.cur.Kind != token.RParen {
		for {
			if p.cur.Kind != token.Identifier {
				p.errorAt(p.cur.At, "expected parameter name, found %v", p.cur.Kind)
			} else {
				params = append(params, p.cur.Content)
			}
			p.advance()
			if p.cur.Kind != token.Comma {
				break
			}
			p.advance()
		}
	}
	p.expect(token.RParen, "')'")
	p.endDirective()

	body := p.compound(terminators{token.KwEndmacro: true})
	p.expectBacktickKeyword(token.KwEndmacro)
	p.endDirective()
	return &ast.MacroDef{Node: ast.At(at), Target: target, Params: params, Body: body}
}

// expectBacktickKeyword consumes a BACKTICK known to be followed by want
// (the caller having already confirmed this via peekAfterCur, or having
// reached here expecting it), reporting an error if want is missing.
func (p *Parser) expectBacktickKeyword(want token.Kind) {
	p.expect(token.Backtick, "'`'")
	p.expect(want, fmt.Sprintf("%v", want))
}

func (p *Parser) parseParenExpr() ast.Expr {
	p.expect(token.LParen, "'('")
	x := p.parseExpr()
	p.expect(token.RParen, "')'")
	return x
}

func (p *Parser) parseSelection() ast.Stmt {
	at := p.cur.At // positioned at `if`
	p.advance()
	cond := p.parseParenExpr()
	p.endDirective()
	body := p.compound(terminators{token.KwElseif: true, token.KwElse: true, token.KwEndif: true})
	branches := []ast.CondBranch{{Cond: cond, Body: body}}

	for p.cur.Kind == token.Backtick && p.peekAfterCur().Kind == token.KwElseif {
		p.advance() // BACKTICK
		p.advance() // elseif
		cond := p.parseParenExpr()
		p.endDirective()
		body := p.compound(terminators{token.KwElseif: true, token.KwElse: true, token.KwEndif: true})
		branches = append(branches, ast.CondBranch{Cond: cond, Body: body})
	}

	if p.cur.Kind == token.Backtick && p.peekAfterCur().Kind == token.KwElse {
		elseAt := p.cur.At
		p.advance() // BACKTICK
		p.advance() // else
		p.endDirective()
		body := p.compound(terminators{token.KwEndif: true})
		branches = append(branches, ast.CondBranch{Cond: &ast.BoolLit{Node: ast.At(elseAt), Value: true}, Body: body})
	}

	p.expectBacktickKeyword(token.KwEndif)
	p.endDirective()
	return &ast.Selection{Node: ast.At(at), Branches: branches}
}

func (p *Parser) parseIteration() ast.Stmt {
	at := p.cur.At // positioned at `for`
	p.advance()
	p.expect(token.LParen, "'('")
	target := p.parseStorage()
	p.expect(token.Colon, "':'")
	src := p.parseExpr()
	p.expect(token.RParen, "')'")
	p.endDirective()

	body := p.compound(terminators{token.KwEndfor: true})
	p.expectBacktickKeyword(token.KwEndfor)
	p.endDirective()
	return &ast.Iteration{Node: ast.At(at), Target: target, Source: src, Body: body}
}

func (p *Parser) parseInclusion() ast.Stmt {
	at := p.cur.At // positioned at `include`
	p.advance()
	path := p.parseExpr()
	p.endDirective()
	return &ast.Inclusion{Node: ast.At(at), Path: path}
}
