package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tplpp/tplpp/internal/ast"
	"github.com/tplpp/tplpp/internal/diagnostics"
	"github.com/tplpp/tplpp/internal/source"
)

func parse(t *testing.T, text string) (*ast.File, bool, string) {
	t.Helper()
	var out strings.Builder
	snk := diagnostics.NewSink(&out)
	p := New(source.FromString("test.tpl", text), snk)
	file, ok := p.ParseFile()
	return file, ok, out.String()
}

func stmts(t *testing.T, body ast.Stmt) []ast.Stmt {
	t.Helper()
	c, ok := body.(*ast.Compound)
	require.True(t, ok)
	return c.Stmts
}

func TestParsesLetDirective(t *testing.T) {
	file, ok, diag := parse(t, "`let x = 2 + 3`\nvalue=`x`\n")
	require.True(t, ok, diag)
	ss := stmts(t, file.Body)
	require.Len(t, ss, 3)

	def, ok := ss[0].(*ast.LocalVarDef)
	require.True(t, ok)
	target, ok := def.Target.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "x", target.Name)
	bin, ok := def.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, int32(2), bin.L.(*ast.IntLit).Value)
	assert.Equal(t, int32(3), bin.R.(*ast.IntLit).Value)

	text, ok := ss[1].(*ast.PlainText)
	require.True(t, ok)
	assert.Equal(t, "value=", text.Text)
}

func TestParsesIfElseChain(t *testing.T) {
	file, ok, diag := parse(t, "`if (1 < 2)`\nY\n`else`\nN\n`endif`\n")
	require.True(t, ok, diag)
	ss := stmts(t, file.Body)
	require.Len(t, ss, 1)
	sel, ok := ss[0].(*ast.Selection)
	require.True(t, ok)
	require.Len(t, sel.Branches, 2)
	assert.IsType(t, &ast.BinaryExpr{}, sel.Branches[0].Cond)
	elseCond, ok := sel.Branches[1].Cond.(*ast.BoolLit)
	require.True(t, ok)
	assert.True(t, elseCond.Value)
}

func TestParsesForLoop(t *testing.T) {
	file, ok, diag := parse(t, "`for (i : [1..3])`\na`i`\n`endfor`\n")
	require.True(t, ok, diag)
	ss := stmts(t, file.Body)
	require.Len(t, ss, 1)
	iter, ok := ss[0].(*ast.Iteration)
	require.True(t, ok)
	assert.Equal(t, "i", iter.Target.(*ast.Identifier).Name)
	arr, ok := iter.Source.(*ast.ArrayLit)
	require.True(t, ok)
	require.Len(t, arr.Elements, 1)
	assert.NotNil(t, arr.Elements[0].Hi)
}

func TestParsesMacroDefAndCall(t *testing.T) {
	file, ok, diag := parse(t, "`macro greet(n)`\nHello `n`!\n`endmacro`\n`greet(\"world\")`\n")
	require.True(t, ok, diag)
	ss := stmts(t, file.Body)
	require.Len(t, ss, 2)
	def, ok := ss[0].(*ast.MacroDef)
	require.True(t, ok)
	assert.Equal(t, []string{"n"}, def.Params)
	call := ss[1].(*ast.ExprStmt).X.(*ast.MacroCall)
	assert.Equal(t, "greet", call.Callee.(*ast.Identifier).Name)
	require.Len(t, call.Args, 1)
	assert.IsType(t, &ast.Quotation{}, call.Args[0])
}

func TestParsesInclude(t *testing.T) {
	file, ok, diag := parse(t, "`include \"a.tpl\"`\n")
	require.True(t, ok, diag)
	inc := stmts(t, file.Body)[0].(*ast.Inclusion)
	assert.IsType(t, &ast.Quotation{}, inc.Path)
}

func TestParsesInterpolation(t *testing.T) {
	file, ok, diag := parse(t, "`let s = \"1+2\"`\n`$s`\n")
	require.True(t, ok, diag)
	ss := stmts(t, file.Body)
	expr := ss[1].(*ast.ExprStmt).X
	unary, ok := expr.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, "s", unary.X.(*ast.Identifier).Name)
}

func TestOperatorPrecedence(t *testing.T) {
	// a || b && c should parse as a || (b && c)
	file, ok, diag := parse(t, "`a || b && c`\n")
	require.True(t, ok, diag)
	top := stmts(t, file.Body)[0].(*ast.ExprStmt).X.(*ast.BinaryExpr)
	assert.Equal(t, "a", top.L.(*ast.Identifier).Name)
	assert.IsType(t, &ast.BinaryExpr{}, top.R)
}

func TestPowIsRightAssociative(t *testing.T) {
	// 2 ** 3 ** 2 should parse as 2 ** (3 ** 2)
	file, ok, diag := parse(t, "`2 ** 3 ** 2`\n")
	require.True(t, ok, diag)
	top := stmts(t, file.Body)[0].(*ast.ExprStmt).X.(*ast.BinaryExpr)
	assert.Equal(t, int32(2), top.L.(*ast.IntLit).Value)
	inner, ok := top.R.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, int32(3), inner.L.(*ast.IntLit).Value)
}

func TestTernaryIsRightAssociative(t *testing.T) {
	file, ok, diag := parse(t, "`true ? 1 : false ? 2 : 3`\n")
	require.True(t, ok, diag)
	top := stmts(t, file.Body)[0].(*ast.ExprStmt).X.(*ast.Ternary)
	assert.IsType(t, &ast.Ternary{}, top.Else)
}

func TestDuplicateLetIsNotASyntaxError(t *testing.T) {
	// Duplicate-definition is a semantic error (evaluator's job), not a
	// parse error: both `let` statements parse fine here.
	file, ok, diag := parse(t, "`let x = 1`\n`let x = 2`\n")
	require.True(t, ok, diag)
	assert.Len(t, stmts(t, file.Body), 2)
}

func TestOutOfRangeIndexParsesFine(t *testing.T) {
	file, ok, diag := parse(t, "`let a = [1,2,3]`\n`a[5]`\n")
	require.True(t, ok, diag)
	assert.Len(t, stmts(t, file.Body), 2)
}

func TestSyntaxErrorRecoversAndReports(t *testing.T) {
	_, ok, diag := parse(t, "`let = 1`\nmore text\n")
	assert.False(t, ok)
	assert.Contains(t, diag, "test.tpl:1:")
}

func TestErrorCapAndSummary(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteString("`#`\n")
	}
	_, ok, diag := parse(t, b.String())
	assert.False(t, ok)
	assert.Contains(t, diag, "more error(s)")
}

func TestUnmatchedEndifReportsError(t *testing.T) {
	_, ok, diag := parse(t, "`endif`\n")
	assert.False(t, ok)
	assert.Contains(t, diag, "endif")
}
