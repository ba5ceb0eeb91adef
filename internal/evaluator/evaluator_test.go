package evaluator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tplpp/tplpp/internal/diagnostics"
	"github.com/tplpp/tplpp/internal/environment"
	"github.com/tplpp/tplpp/internal/parser"
	"github.com/tplpp/tplpp/internal/registry"
	"github.com/tplpp/tplpp/internal/source"
)

// run compiles and evaluates text as "root.tpl", returning the output, a
// rendering of any diagnostics, and whether evaluation succeeded with zero
// reported errors.
func run(t *testing.T, text string) (string, string, bool) {
	t.Helper()
	return runFiles(t, map[string]string{"root.tpl": text}, "root.tpl")
}

// runFiles compiles every named file into a shared registry, then
// evaluates entry.
func runFiles(t *testing.T, files map[string]string, entry string) (string, string, bool) {
	t.Helper()
	var diag strings.Builder
	snk := diagnostics.NewSink(&diag)
	reg := registry.New()
	bufs := map[string]*source.Buffer{}

	for path, text := range files {
		buf := source.FromString(path, text)
		bufs[path] = buf
		p := parser.New(buf, snk)
		file, ok := p.ParseFile()
		require.True(t, ok, "compiling %s: %s", path, diag.String())
		reg.Put(path, file, buf)
	}

	entryEntry, ok := reg.Get(entry)
	require.True(t, ok)
	env := environment.New(entry, snk)
	ev := New(env, reg, bufs[entry])
	out, err := ev.Visit(entryEntry.File)
	return out, diag.String(), err == nil
}

func TestLetThenInlineExpr(t *testing.T) {
	out, diag, ok := run(t, "`let x = 2 + 3`\nvalue=`x`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "value=5\n", out)
}

func TestForLoopOverRange(t *testing.T) {
	out, diag, ok := run(t, "`for (i : [1..3])`\na`i`\n`endfor`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "a1\na2\na3\n", out)
}

func TestMacroDefAndCall(t *testing.T) {
	out, diag, ok := run(t, "`macro greet(n)`\nHello `n`!\n`endmacro`\n`greet(\"world\")`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "Hello world!\n", out)
}

func TestIfElse(t *testing.T) {
	out, diag, ok := run(t, "`if (1 < 2)`\nY\n`else`\nN\n`endif`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "Y\n", out)
}

func TestIncludeSharesLocals(t *testing.T) {
	files := map[string]string{
		"a.tpl": "`let k = 1`\n",
		"b.tpl": "`include \"a.tpl\"`\nk=`k`\n",
	}
	out, diag, ok := runFiles(t, files, "b.tpl")
	require.True(t, ok, diag)
	assert.Equal(t, "k=1\n", out)
}

func TestInterpolationEvaluatesNestedExpr(t *testing.T) {
	out, diag, ok := run(t, "`let s = \"1+2\"`\n`$s`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "3\n", out)
}

func TestVerbatimRoundTrip(t *testing.T) {
	text := "no directives here, just plain text.\n"
	out, diag, ok := run(t, text)
	require.True(t, ok, diag)
	assert.Equal(t, text, out)
}

func TestEscapedBacktickRoundTrip(t *testing.T) {
	out, diag, ok := run(t, "a``b\n")
	require.True(t, ok, diag)
	assert.Equal(t, "a`b\n", out)
}

func TestUndefinedIdentifierIsReportedAndProducesNoOutput(t *testing.T) {
	out, diag, ok := run(t, "`x`\n")
	assert.False(t, ok)
	assert.Contains(t, diag, "undefined")
	assert.Equal(t, "", out)
}

func TestDuplicateLocalDefinitionIsReported(t *testing.T) {
	_, diag, ok := run(t, "`let x = 1`\n`let x = 2`\n")
	assert.False(t, ok)
	assert.Contains(t, diag, "already defined")
}

func TestOutOfRangeIndexIsReported(t *testing.T) {
	_, diag, ok := run(t, "`let a = [1,2,3]`\n`a[5]`\n")
	assert.False(t, ok)
	assert.Contains(t, diag, "out of range")
}

func TestDescendingRangeExpands(t *testing.T) {
	out, diag, ok := run(t, "`for (i : [3..1])`\n`i`\n`endfor`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "3\n2\n1\n", out)
}

func TestDictLiteralAndSubscript(t *testing.T) {
	out, diag, ok := run(t, "`let d = {\"a\": 1, \"b\": 2}`\n`d[\"b\"]`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "2\n", out)
}

func TestTernaryExpression(t *testing.T) {
	out, diag, ok := run(t, "`true ? \"yes\" : \"no\"`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "yes\n", out)
}

func TestBuiltinLog2AndSize(t *testing.T) {
	out, diag, ok := run(t, "`log2(8)` `size([1,2,3,4])`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "3 4\n", out)
}

func TestInsideOperator(t *testing.T) {
	out, diag, ok := run(t, "`2 inside [1,2,3]`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "true\n", out)
}

func TestIndirectionDefinesComputedName(t *testing.T) {
	out, diag, ok := run(t, "`let n = \"x\"`\n`let @n = 9`\n`x`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "9\n", out)
}

func TestMacroArityMismatchIsReported(t *testing.T) {
	_, diag, ok := run(t, "`macro f(a, b)`\n`endmacro`\n`f(1)`\n")
	assert.False(t, ok)
	assert.Contains(t, diag, "argument")
}

func TestMacroWithRepeatedParameterNameIsReported(t *testing.T) {
	_, diag, ok := run(t, "`macro f(a, a)`\n`endmacro`\n")
	assert.False(t, ok)
	assert.Contains(t, diag, "repeats parameter")
}

func TestMacroCallDoesNotSeeCallerLocals(t *testing.T) {
	_, diag, ok := run(t, "`let x = 1`\n`macro f()`\n`x`\n`endmacro`\n`f()`\n")
	assert.False(t, ok)
	assert.Contains(t, diag, "undefined")
}

func TestIncludeOfMissingFileIsReported(t *testing.T) {
	_, diag, ok := run(t, "`include \"missing.tpl\"`\n")
	assert.False(t, ok)
	assert.Contains(t, diag, "include")
}

func TestArrayConcatenation(t *testing.T) {
	out, diag, ok := run(t, "`let a = [1,2] + [3]`\n`size(a)`\n")
	require.True(t, ok, diag)
	assert.Equal(t, "3\n", out)
}
