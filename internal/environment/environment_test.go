package environment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tplpp/tplpp/internal/diagnostics"
	"github.com/tplpp/tplpp/internal/token"
	"github.com/tplpp/tplpp/internal/value"
)

func newEnv() *Environment {
	return New("root.tpl", diagnostics.NewSink(&strings.Builder{}))
}

func TestGlobalPutAndGet(t *testing.T) {
	e := newEnv()
	require.NoError(t, e.PutGlobal("x", value.IntValue(1)))
	v, err := e.Get("x")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int())
}

func TestDuplicateGlobalIsError(t *testing.T) {
	e := newEnv()
	require.NoError(t, e.PutGlobal("x", value.IntValue(1)))
	err := e.PutGlobal("x", value.IntValue(2))
	assert.ErrorIs(t, err, value.ErrDuplicate)
}

func TestLocalShadowsGlobal(t *testing.T) {
	e := newEnv()
	require.NoError(t, e.PutGlobal("x", value.IntValue(1)))
	e.PushBlock()
	require.NoError(t, e.PutLocal("x", value.IntValue(2)))
	v, err := e.Get("x")
	require.NoError(t, err)
	assert.Equal(t, int32(2), v.Int())
	e.PopBlock()
	v, err = e.Get("x")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int())
}

func TestDuplicateLocalInSameScopeIsError(t *testing.T) {
	e := newEnv()
	e.PushBlock()
	require.NoError(t, e.PutLocal("x", value.IntValue(1)))
	err := e.PutLocal("x", value.IntValue(2))
	assert.ErrorIs(t, err, value.ErrDuplicate)
}

func TestUndefinedLookupIsError(t *testing.T) {
	e := newEnv()
	_, err := e.Get("nope")
	assert.ErrorIs(t, err, value.ErrUndefined)
}

func TestCallFrameDoesNotSeeCallerLocals(t *testing.T) {
	e := newEnv()
	e.PushBlock()
	require.NoError(t, e.PutLocal("x", value.IntValue(1)))
	e.PushCall("macro.tpl", token.Cursor{Line: 1, Column: 1})
	_, err := e.Get("x")
	assert.ErrorIs(t, err, value.ErrUndefined)
	e.PopCall()
	v, err := e.Get("x")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int())
}

func TestIncludeFrameSharesCallerLocals(t *testing.T) {
	e := newEnv()
	e.PushBlock()
	require.NoError(t, e.PutLocal("x", value.IntValue(1)))
	e.PushInclude("included.tpl", token.Cursor{Line: 2, Column: 3})
	v, err := e.Get("x")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int())
	require.NoError(t, e.PutLocal("y", value.IntValue(9)))
	e.PopInclude()
	v, err = e.Get("y")
	require.NoError(t, err)
	assert.Equal(t, int32(9), v.Int())
}

func TestReportIncludesFrameTrail(t *testing.T) {
	var out strings.Builder
	e := New("root.tpl", diagnostics.NewSink(&out))
	e.PushInclude("child.tpl", token.Cursor{Line: 5, Column: 2})
	e.Report(diagnostics.Runtime, token.Cursor{Line: 1, Column: 1}, "", value.ErrUndefinedName("z"))
	assert.Equal(t, 1, e.ErrorCount())
	assert.Contains(t, out.String(), "child.tpl:1:1")
	assert.Contains(t, out.String(), "from root.tpl:5:2")
}
