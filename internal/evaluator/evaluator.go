// Package evaluator implements the tree-walking evaluator: it drives an
// *ast.File over an *environment.Environment, producing one output string
// per file while resolving `include` against a shared *registry.Registry.
package evaluator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tplpp/tplpp/internal/ast"
	"github.com/tplpp/tplpp/internal/collections"
	"github.com/tplpp/tplpp/internal/diagnostics"
	"github.com/tplpp/tplpp/internal/environment"
	"github.com/tplpp/tplpp/internal/parser"
	"github.com/tplpp/tplpp/internal/registry"
	"github.com/tplpp/tplpp/internal/source"
	"github.com/tplpp/tplpp/internal/token"
	"github.com/tplpp/tplpp/internal/value"
)

// Evaluator walks one root file's AST, sharing its Environment and Registry
// with every macro call, include, and interpolation it performs along the
// way. An Evaluator is single-use: construct one per top-level Visit.
type Evaluator struct {
	env  *environment.Environment
	reg  *registry.Registry
	bufs []*source.Buffer // mirrors env's call/include frame stack, for rendering diagnostic source lines
	out  *strings.Builder
}

// New returns an Evaluator ready to visit rootFile, whose source text is
// rootBuf, reporting diagnostics through env and resolving `include` and
// macro cross-file lookups through reg.
func New(env *environment.Environment, reg *registry.Registry, rootBuf *source.Buffer) *Evaluator {
	return &Evaluator{env: env, reg: reg, bufs: []*source.Buffer{rootBuf}, out: &strings.Builder{}}
}

func (e *Evaluator) topBuf() *source.Buffer { return e.bufs[len(e.bufs)-1] }

// Visit evaluates file.Body into the output string. The returned error is
// non-nil only as a final aggregate signal that one or more statements
// failed and were already reported individually; the returned output still
// contains everything that did succeed.
func (e *Evaluator) Visit(file *ast.File) (string, error) {
	e.runBody(file.Body)
	if n := e.env.ErrorCount(); n > 0 {
		return e.out.String(), fmt.Errorf("evaluation failed with %d error(s)", n)
	}
	return e.out.String(), nil
}

// runBody evaluates every statement of a Compound body, recovering at each
// statement boundary: a failing statement is reported and skipped, and its
// siblings still run. Used for file bodies, macro bodies, selection
// branches, and loop bodies alike.
func (e *Evaluator) runBody(body ast.Stmt) {
	c, ok := body.(*ast.Compound)
	if !ok {
		return
	}
	for _, s := range c.Stmts {
		if err := e.evalStmt(s); err != nil {
			e.report(s.Position(), err)
		}
	}
}

func (e *Evaluator) report(at token.Cursor, err error) {
	e.env.Report(diagnostics.Semantic, at, e.topBuf().Line(at.Line), err)
}

func (e *Evaluator) evalStmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.PlainText:
		e.out.WriteString(s.Text)
		return nil

	case *ast.ExprStmt:
		v, err := e.evalExpr(s.X)
		if err != nil {
			return err
		}
		str, err := v.ToString()
		if err != nil {
			return err
		}
		e.out.WriteString(str)
		return nil

	case *ast.LocalVarDef:
		v, err := e.evalExpr(s.Value)
		if err != nil {
			return err
		}
		name, err := e.storageName(s.Target)
		if err != nil {
			return err
		}
		return e.env.PutLocal(name, v)

	case *ast.GlobalVarDef:
		v, err := e.evalExpr(s.Value)
		if err != nil {
			return err
		}
		name, err := e.storageName(s.Target)
		if err != nil {
			return err
		}
		return e.env.PutGlobal(name, v)

	case *ast.MacroDef:
		name, err := e.storageName(s.Target)
		if err != nil {
			return err
		}
		if dups := collections.FindDuplicates(s.Params); len(dups) > 0 {
			return fmt.Errorf("macro %q repeats parameter name %q", name, dups[0])
		}
		m := &value.Macro{SourceFile: e.env.CurrentFile(), Params: s.Params, Body: s.Body}
		return e.env.PutGlobal(name, value.MacroValue(m))

	case *ast.Selection:
		return e.evalSelection(s)

	case *ast.Iteration:
		return e.evalIteration(s)

	case *ast.Inclusion:
		return e.evalInclusion(s)

	default:
		return fmt.Errorf("internal error: unhandled statement %T", s)
	}
}

// storageName resolves a Storage target (Identifier or Indirection) to the
// name it binds.
func (e *Evaluator) storageName(target ast.Expr) (string, error) {
	switch t := target.(type) {
	case *ast.Identifier:
		return t.Name, nil
	case *ast.Indirection:
		v, err := e.evalExpr(t.X)
		if err != nil {
			return "", err
		}
		if v.Kind() != value.String {
			return "", fmt.Errorf("indirected name must be a string, got %s", v.Kind())
		}
		return v.Str(), nil
	default:
		return "", fmt.Errorf("internal error: invalid storage target %T", target)
	}
}

func (e *Evaluator) evalSelection(s *ast.Selection) error {
	for _, branch := range s.Branches {
		cond, err := e.evalExpr(branch.Cond)
		if err != nil {
			return err
		}
		if cond.Kind() != value.Bool {
			return fmt.Errorf("if condition must be bool, got %s", cond.Kind())
		}
		if cond.Bool() {
			e.env.PushBlock()
			e.runBody(branch.Body)
			e.env.PopBlock()
			return nil
		}
	}
	return nil
}

func (e *Evaluator) evalIteration(it *ast.Iteration) error {
	src, err := e.evalExpr(it.Source)
	if err != nil {
		return err
	}
	if src.Kind() != value.Array {
		return fmt.Errorf("for loop source must be an array, got %s", src.Kind())
	}
	name, err := e.storageName(it.Target)
	if err != nil {
		return err
	}
	for i, elem := range src.Elems() {
		e.env.PushBlock()
		if err := e.env.PutLocal(name, elem); err != nil {
			e.report(it.Position(), err)
		} else if err := e.env.PutLocal("index", value.IntValue(int32(i))); err != nil {
			e.report(it.Position(), err)
		} else {
			e.runBody(it.Body)
		}
		e.env.PopBlock()
	}
	return nil
}

func (e *Evaluator) evalInclusion(inc *ast.Inclusion) error {
	pathV, err := e.evalExpr(inc.Path)
	if err != nil {
		return err
	}
	if pathV.Kind() != value.String {
		return fmt.Errorf("include path must be a string, got %s", pathV.Kind())
	}
	path := filepath.Join(filepath.Dir(e.env.CurrentFile()), pathV.Str())
	entry, ok := e.reg.Get(path)
	if !ok {
		return fmt.Errorf("cannot include %q: not compiled or failed to compile", path)
	}
	e.env.PushInclude(entry.File.Path, inc.Position())
	e.bufs = append(e.bufs, entry.Buf)
	e.runBody(entry.File.Body)
	e.bufs = e.bufs[:len(e.bufs)-1]
	e.env.PopInclude()
	return nil
}

func (e *Evaluator) evalExpr(x ast.Expr) (value.Variant, error) {
	switch x := x.(type) {
	case *ast.IntLit:
		return value.IntValue(x.Value), nil

	case *ast.BoolLit:
		return value.BoolValue(x.Value), nil

	case *ast.StringLit:
		return value.StringValue(x.Value), nil

	case *ast.EscapeLit:
		return value.StringValue(string(x.Value)), nil

	case *ast.Quotation:
		return e.evalQuotation(x)

	case *ast.ArrayLit:
		return e.evalArrayLit(x)

	case *ast.DictLit:
		return e.evalDictLit(x)

	case *ast.Identifier:
		v, err := e.env.Get(x.Name)
		if err != nil {
			return value.Variant{}, err
		}
		return v, nil

	case *ast.Indirection:
		name, err := e.storageName(x)
		if err != nil {
			return value.Variant{}, err
		}
		return e.env.Get(name)

	case *ast.Subscript:
		base, err := e.evalExpr(x.Base)
		if err != nil {
			return value.Variant{}, err
		}
		idx, err := e.evalExpr(x.Index)
		if err != nil {
			return value.Variant{}, err
		}
		return base.Subscript(idx)

	case *ast.UnaryExpr:
		return e.evalUnary(x)

	case *ast.BinaryExpr:
		return e.evalBinary(x)

	case *ast.Ternary:
		cond, err := e.evalExpr(x.Cond)
		if err != nil {
			return value.Variant{}, err
		}
		if cond.Kind() != value.Bool {
			return value.Variant{}, fmt.Errorf("ternary condition must be bool, got %s", cond.Kind())
		}
		if cond.Bool() {
			return e.evalExpr(x.Then)
		}
		return e.evalExpr(x.Else)

	case *ast.BuiltinCall:
		return e.evalBuiltin(x)

	case *ast.MacroCall:
		return e.evalMacroCall(x)

	default:
		return value.Variant{}, fmt.Errorf("internal error: unhandled expression %T", x)
	}
}

func (e *Evaluator) evalQuotation(q *ast.Quotation) (value.Variant, error) {
	var b strings.Builder
	for _, seg := range q.Segments {
		v, err := e.evalExpr(seg)
		if err != nil {
			return value.Variant{}, err
		}
		b.WriteString(v.Str())
	}
	return value.StringValue(b.String()), nil
}

func (e *Evaluator) evalArrayLit(a *ast.ArrayLit) (value.Variant, error) {
	var elems []value.Variant
	for _, el := range a.Elements {
		lo, err := e.evalExpr(el.Lo)
		if err != nil {
			return value.Variant{}, err
		}
		if el.Hi == nil {
			elems = append(elems, lo)
			continue
		}
		if lo.Kind() != value.Int {
			return value.Variant{}, fmt.Errorf("range bound must be int, got %s", lo.Kind())
		}
		hi, err := e.evalExpr(el.Hi)
		if err != nil {
			return value.Variant{}, err
		}
		if hi.Kind() != value.Int {
			return value.Variant{}, fmt.Errorf("range bound must be int, got %s", hi.Kind())
		}
		lv, hv := lo.Int(), hi.Int()
		if lv <= hv {
			for i := lv; i <= hv; i++ {
				elems = append(elems, value.IntValue(i))
			}
		} else {
			for i := lv; i >= hv; i-- {
				elems = append(elems, value.IntValue(i))
			}
		}
	}
	return value.ArrayValue(elems), nil
}

func (e *Evaluator) evalDictLit(d *ast.DictLit) (value.Variant, error) {
	m := value.NewDict()
	for _, entry := range d.Entries {
		k, err := e.evalExpr(entry.Key)
		if err != nil {
			return value.Variant{}, err
		}
		if k.Kind() != value.String {
			return value.Variant{}, fmt.Errorf("dict key must be a string, got %s", k.Kind())
		}
		v, err := e.evalExpr(entry.Value)
		if err != nil {
			return value.Variant{}, err
		}
		m.Set(k.Str(), v)
	}
	return value.DictValue(m), nil
}

func (e *Evaluator) evalUnary(u *ast.UnaryExpr) (value.Variant, error) {
	if u.Op == token.Dollar {
		return e.evalInterpolation(u)
	}
	x, err := e.evalExpr(u.X)
	if err != nil {
		return value.Variant{}, err
	}
	switch u.Op {
	case token.Bang:
		return x.Not()
	case token.Plus:
		return x.Pos()
	case token.Minus:
		return x.Neg()
	case token.Tilde:
		return x.BitNot()
	default:
		return value.Variant{}, fmt.Errorf("internal error: unhandled unary operator %v", u.Op)
	}
}

// evalInterpolation implements `$e`: evaluate e to a String, then re-lex,
// re-parse and re-evaluate that string as a nested template sharing this
// Evaluator's environment (same scopes, same globals) but writing into a
// private output buffer instead of the enclosing one. Parse errors and
// errors of the nested template's top-level statements are not reported
// individually: they collapse into a single error attributed to the `$`
// site. Statements inside nested selection, loop and macro bodies run
// through runBody and are reported individually, as anywhere else.
func (e *Evaluator) evalInterpolation(u *ast.UnaryExpr) (value.Variant, error) {
	src, err := e.evalExpr(u.X)
	if err != nil {
		return value.Variant{}, err
	}
	if src.Kind() != value.String {
		return value.Variant{}, fmt.Errorf("$ requires a string operand, got %s", src.Kind())
	}

	file := e.env.CurrentFile()
	buf := source.FromString(file, src.Str())
	var discard strings.Builder
	p := parser.New(buf, diagnostics.NewSink(&discard))
	astFile, ok := p.ParseFile()
	if !ok {
		return value.Variant{}, fmt.Errorf("interpolated string failed to parse: %q", src.Str())
	}

	nested := &Evaluator{env: e.env, reg: e.reg, bufs: []*source.Buffer{buf}, out: &strings.Builder{}}
	if err := nested.runBodyQuiet(astFile.Body); err != nil {
		return value.Variant{}, fmt.Errorf("interpolated string failed to evaluate: %w", err)
	}
	return value.StringValue(nested.out.String()), nil
}

// runBodyQuiet evaluates a Compound body like runBody, but aborts and
// returns the first error instead of reporting it and continuing — used
// only for interpolation, where the outer `$` site is the one place the
// failure is attributed to.
func (e *Evaluator) runBodyQuiet(body ast.Stmt) error {
	c, ok := body.(*ast.Compound)
	if !ok {
		return nil
	}
	for _, s := range c.Stmts {
		if err := e.evalStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) evalBinary(b *ast.BinaryExpr) (value.Variant, error) {
	l, err := e.evalExpr(b.L)
	if err != nil {
		return value.Variant{}, err
	}
	r, err := e.evalExpr(b.R)
	if err != nil {
		return value.Variant{}, err
	}
	switch b.Op {
	case token.PipePipe:
		return l.Or(r)
	case token.AmpAmp:
		return l.And(r)
	case token.Pipe:
		return l.BitOr(r)
	case token.Caret:
		return l.BitXor(r)
	case token.Amp:
		return l.BitAnd(r)
	case token.EqEq:
		eq, err := l.Equal(r)
		if err != nil {
			return value.Variant{}, err
		}
		return value.BoolValue(eq), nil
	case token.BangEq:
		eq, err := l.Equal(r)
		if err != nil {
			return value.Variant{}, err
		}
		return value.BoolValue(!eq), nil
	case token.Less:
		return l.Lt(r)
	case token.LessEq:
		return l.Le(r)
	case token.Greater:
		return l.Gt(r)
	case token.GreaterEq:
		return l.Ge(r)
	case token.KwInside:
		return l.Inside(r)
	case token.ShiftLeft:
		return l.Shl(r)
	case token.ShiftRight:
		return l.Shr(r)
	case token.Plus:
		return l.Add(r)
	case token.Minus:
		return l.Sub(r)
	case token.Star:
		return l.Mul(r)
	case token.Slash:
		return l.Div(r)
	case token.Percent:
		return l.Mod(r)
	case token.StarStar:
		return l.Pow(r)
	default:
		return value.Variant{}, fmt.Errorf("internal error: unhandled binary operator %v", b.Op)
	}
}

func (e *Evaluator) evalArgs(args []ast.Expr) ([]value.Variant, error) {
	vals := make([]value.Variant, len(args))
	for i, a := range args {
		v, err := e.evalExpr(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (e *Evaluator) evalBuiltin(b *ast.BuiltinCall) (value.Variant, error) {
	args, err := e.evalArgs(b.Args)
	if err != nil {
		return value.Variant{}, err
	}
	switch b.Name {
	case token.KwLog2:
		if len(args) != 1 {
			return value.Variant{}, fmt.Errorf("log2 expects exactly 1 argument, got %d", len(args))
		}
		return value.Log2(args[0])
	case token.KwClog2:
		if len(args) != 1 {
			return value.Variant{}, fmt.Errorf("clog2 expects exactly 1 argument, got %d", len(args))
		}
		return value.Clog2(args[0])
	case token.KwSize:
		if len(args) != 1 {
			return value.Variant{}, fmt.Errorf("size expects exactly 1 argument, got %d", len(args))
		}
		return value.Size(args[0])
	case token.KwMin:
		return value.Min(args)
	case token.KwMax:
		return value.Max(args)
	default:
		return value.Variant{}, fmt.Errorf("internal error: unhandled built-in %v", b.Name)
	}
}

func (e *Evaluator) evalMacroCall(c *ast.MacroCall) (value.Variant, error) {
	callee, err := e.evalExpr(c.Callee)
	if err != nil {
		return value.Variant{}, err
	}
	if callee.Kind() != value.Macro {
		return value.Variant{}, fmt.Errorf("cannot call a %s value", callee.Kind())
	}
	m := callee.MacroValue()
	if len(c.Args) != len(m.Params) {
		return value.Variant{}, fmt.Errorf("macro expects %d argument(s), got %d", len(m.Params), len(c.Args))
	}
	argVals, err := e.evalArgs(c.Args)
	if err != nil {
		return value.Variant{}, err
	}

	buf := e.topBuf()
	if entry, ok := e.reg.Get(m.SourceFile); ok {
		buf = entry.Buf
	}

	e.env.PushCall(m.SourceFile, c.Position())
	e.bufs = append(e.bufs, buf)
	for i, p := range m.Params {
		if err := e.env.PutLocal(p, argVals[i]); err != nil {
			e.report(c.Position(), err)
		}
	}
	e.runBody(m.Body)
	e.bufs = e.bufs[:len(e.bufs)-1]
	e.env.PopCall()

	return value.VoidValue(), nil
}
