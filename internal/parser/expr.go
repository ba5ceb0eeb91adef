package parser

import (
	"strconv"

	"github.com/tplpp/tplpp/internal/ast"
	"github.com/tplpp/tplpp/internal/token"
)

// binding gives the left-binding precedence of a binary operator token; the
// higher the number, the tighter it binds. rightAssoc marks `**`, the one
// right-associative binary operator (`?:` is handled separately).
type binding struct {
	prec       int
	rightAssoc bool
}

var binaryPrecedence = map[token.Kind]binding{
	token.PipePipe:   {prec: 1},
	token.AmpAmp:     {prec: 2},
	token.Pipe:       {prec: 3},
	token.Caret:      {prec: 4},
	token.Amp:        {prec: 5},
	token.EqEq:       {prec: 6},
	token.BangEq:     {prec: 6},
	token.Less:       {prec: 7},
	token.LessEq:     {prec: 7},
	token.Greater:    {prec: 7},
	token.GreaterEq:  {prec: 7},
	token.KwInside:   {prec: 7},
	token.ShiftLeft:  {prec: 8},
	token.ShiftRight: {prec: 8},
	token.Plus:       {prec: 9},
	token.Minus:      {prec: 9},
	token.Star:       {prec: 10},
	token.Slash:      {prec: 10},
	token.Percent:    {prec: 10},
	token.StarStar:   {prec: 11, rightAssoc: true},
}

// parseExpr parses a full expression, starting from the loosest-binding
// form (the ternary).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseTernary()
}

// parseTernary parses `cond ? then : else`, right-associative on the else
// branch so `a ? b : c ? d : e` groups as `a ? b : (c ? d : e)`.
func (p *Parser) parseTernary() ast.Expr {
	cond := p.parseBinary(1)
	if p.cur.Kind != token.Question {
		return cond
	}
	at := p.cur.At
	p.advance()
	then := p.parseExpr()
	p.expect(token.Colon, "':'")
	els := p.parseTernary()
	return &ast.Ternary{Node: ast.At(at), Cond: cond, Then: then, Else: els}
}

// parseBinary implements precedence climbing over binaryPrecedence.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		b, ok := binaryPrecedence[p.cur.Kind]
		if !ok || b.prec < minPrec {
			return left
		}
		op := p.cur
		p.advance()
		nextMin := b.prec + 1
		if b.rightAssoc {
			nextMin = b.prec
		}
		right := p.parseBinary(nextMin)
		left = &ast.BinaryExpr{Node: ast.At(op.At), Op: op.Kind, L: left, R: right}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Kind {
	case token.Bang, token.Plus, token.Minus, token.Tilde, token.Dollar:
		op := p.cur
		p.advance()
		return &ast.UnaryExpr{Node: ast.At(op.At), Op: op.Kind, X: p.parseUnary()}
	case token.At:
		at := p.cur.At
		p.advance()
		return &ast.Indirection{Node: ast.At(at), X: p.parseUnary()}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix handles the call and subscript suffixes, which chain:
// `f(x)[0](y)` is valid.
func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case token.LParen:
			at := p.cur.At
			p.advance()
			args := p.parseArgList(token.RParen)
			p.expect(token.RParen, "')'")
			x = &ast.MacroCall{Node: ast.At(at), Callee: x, Args: args}
		case token.LBracket:
			at := p.cur.At
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBracket, "']'")
			x = &ast.Subscript{Node: ast.At(at), Base: x, Index: idx}
		default:
			return x
		}
	}
}

func (p *Parser) parseArgList(end token.Kind) []ast.Expr {
	if p.cur.Kind == end {
		return nil
	}
	args := []ast.Expr{p.parseExpr()}
	for p.cur.Kind == token.Comma {
		p.advance()
		args = append(args, p.parseExpr())
	}
	return args
}

var builtinNames = map[token.Kind]bool{
	token.KwLog2:  true,
	token.KwClog2: true,
	token.KwSize:  true,
	token.KwMin:   true,
	token.KwMax:   true,
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur
	switch tok.Kind {
	case token.Integer:
		p.advance()
		n, err := strconv.ParseInt(tok.Content, 10, 64)
		if err != nil {
			p.errorAt(tok.At, "integer literal %q out of range", tok.Content)
		}
		return &ast.IntLit{Node: ast.At(tok.At), Value: int32(n)}

	case token.KwTrue:
		p.advance()
		return &ast.BoolLit{Node: ast.At(tok.At), Value: true}

	case token.KwFalse:
		p.advance()
		return &ast.BoolLit{Node: ast.At(tok.At), Value: false}

	case token.DoubleQuote:
		return p.parseQuotation()

	case token.LParen:
		p.advance()
		x := p.parseExpr()
		p.expect(token.RParen, "')'")
		return x

	case token.LBracket:
		return p.parseArrayLit()

	case token.LBrace:
		return p.parseDictLit()

	case token.Identifier:
		p.advance()
		return &ast.Identifier{Node: ast.At(tok.At), Name: tok.Content}

	default:
		if builtinNames[tok.Kind] {
			p.advance()
			p.expect(token.LParen, "'('")
			args := p.parseArgList(token.RParen)
			p.expect(token.RParen, "')'")
			return &ast.BuiltinCall{Node: ast.At(tok.At), Name: tok.Kind, Args: args}
		}
		p.errorAt(tok.At, "expected an expression, found %v", tok.Kind)
		p.advance()
		return &ast.IntLit{Node: ast.At(tok.At), Value: 0}
	}
}

func (p *Parser) parseQuotation() ast.Expr {
	at := p.cur.At
	p.advance() // opening DOUBLE_QUOTE
	var segs []ast.Expr
	for p.cur.Kind == token.PlainText || p.cur.Kind == token.EscapeSeq {
		if p.cur.Kind == token.PlainText {
			segs = append(segs, &ast.StringLit{Node: ast.At(p.cur.At), Value: p.cur.Content})
		} else {
			segs = append(segs, &ast.EscapeLit{Node: ast.At(p.cur.At), Value: decodeEscape(p.cur.Content)})
		}
		p.advance()
	}
	p.expect(token.DoubleQuote, "closing '\"'")
	return &ast.Quotation{Node: ast.At(at), Segments: segs}
}

// decodeEscape maps the byte following a `\` inside a quotation to its
// decoded value. An unrecognized escape is passed through unchanged.
func decodeEscape(raw string) byte {
	if len(raw) != 1 {
		return 0
	}
	switch raw[0] {
	case '\'':
		return '\''
	case '"':
		return '"'
	case '\\':
		return '\\'
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	default:
		return raw[0]
	}
}

func (p *Parser) parseArrayLit() ast.Expr {
	at := p.cur.At
	p.advance() // '['
	var elems []ast.ArrayElem
	if p.cur.Kind != token.RBracket {
		for {
			lo := p.parseExpr()
			var hi ast.Expr
			if p.cur.Kind == token.DotDot {
				p.advance()
				hi = p.parseExpr()
			}
			elems = append(elems, ast.ArrayElem{Lo: lo, Hi: hi})
			if p.cur.Kind != token.Comma {
				break
			}
			p.advance()
		}
	}
	p.expect(token.RBracket, "']'")
	return &ast.ArrayLit{Node: ast.At(at), Elements: elems}
}

func (p *Parser) parseDictLit() ast.Expr {
	at := p.cur.At
	p.advance() // '{'
	var entries []ast.DictEntry
	if p.cur.Kind != token.RBrace {
		for {
			key := p.parseExpr()
			p.expect(token.Colon, "':'")
			val := p.parseExpr()
			entries = append(entries, ast.DictEntry{Key: key, Value: val})
			if p.cur.Kind != token.Comma {
				break
			}
			p.advance()
		}
	}
	p.expect(token.RBrace, "'}'")
	return &ast.DictLit{Node: ast.At(at), Entries: entries}
}
