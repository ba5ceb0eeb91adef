package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic(t *testing.T) {
	sum, err := IntValue(2).Add(IntValue(3))
	require.NoError(t, err)
	assert.Equal(t, int32(5), sum.Int())

	_, err = IntValue(2).Add(StringValue("x"))
	assert.ErrorIs(t, err, ErrBadAccess)
}

func TestStringConcat(t *testing.T) {
	v, err := StringValue("foo").Add(StringValue("bar"))
	require.NoError(t, err)
	assert.Equal(t, "foobar", v.Str())
}

func TestArrayConcatIsFreshBacking(t *testing.T) {
	a := ArrayValue([]Variant{IntValue(1), IntValue(2)})
	b := ArrayValue([]Variant{IntValue(3)})
	c, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, 3, len(c.Elems()))

	// Mutating the concatenation result must not leak into either operand.
	require.NoError(t, c.SetElem(IntValue(0), IntValue(99)))
	assert.Equal(t, int32(1), a.Elems()[0].Int())
}

func TestArrayAliasingSharesMutation(t *testing.T) {
	a := ArrayValue([]Variant{IntValue(1), IntValue(2), IntValue(3)})
	alias := a // Variant copy shares the backing array
	require.NoError(t, alias.SetElem(IntValue(1), IntValue(42)))
	assert.Equal(t, int32(42), a.Elems()[1].Int())
}

func TestSubscriptOutOfRange(t *testing.T) {
	a := ArrayValue([]Variant{IntValue(1), IntValue(2), IntValue(3)})
	_, err := a.Subscript(IntValue(5))
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = a.Subscript(IntValue(-1))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDictMergeRightWins(t *testing.T) {
	left := NewDict()
	left.Set("a", IntValue(1))
	left.Set("b", IntValue(2))
	right := NewDict()
	right.Set("b", IntValue(99))

	merged, err := DictValue(left).Add(DictValue(right))
	require.NoError(t, err)
	v, ok := merged.Dict().Get("b")
	require.True(t, ok)
	assert.Equal(t, int32(99), v.Int())
}

func TestInside(t *testing.T) {
	arr := ArrayValue([]Variant{IntValue(1), IntValue(2), IntValue(3)})
	found, err := IntValue(2).Inside(arr)
	require.NoError(t, err)
	assert.True(t, found.Bool())

	notFound, err := IntValue(9).Inside(arr)
	require.NoError(t, err)
	assert.False(t, notFound.Bool())
}

func TestLog2Clog2(t *testing.T) {
	for k := int32(0); k < 16; k++ {
		n := int32(1) << uint(k)
		got, err := Log2(IntValue(n))
		require.NoError(t, err)
		assert.Equal(t, k, got.Int())
	}

	got, err := Clog2(IntValue(5))
	require.NoError(t, err)
	assert.Equal(t, int32(3), got.Int())

	_, err = Log2(IntValue(0))
	assert.ErrorIs(t, err, ErrBadAccess)
}

func TestMinMax(t *testing.T) {
	got, err := Min([]Variant{IntValue(4), IntValue(1), IntValue(7)})
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.Int())

	got, err = Max([]Variant{IntValue(4), IntValue(1), IntValue(7)})
	require.NoError(t, err)
	assert.Equal(t, int32(7), got.Int())
}

func TestPowWrapsLikeMultiplication(t *testing.T) {
	got, err := IntValue(2).Pow(IntValue(31))
	require.NoError(t, err)
	assert.Equal(t, int32(-1<<31), got.Int())

	_, err = IntValue(2).Pow(IntValue(-1))
	assert.ErrorIs(t, err, ErrBadAccess)
}

func TestToString(t *testing.T) {
	s, err := IntValue(-7).ToString()
	require.NoError(t, err)
	assert.Equal(t, "-7", s)

	s, err = BoolValue(true).ToString()
	require.NoError(t, err)
	assert.Equal(t, "true", s)

	_, err = ArrayValue(nil).ToString()
	assert.ErrorIs(t, err, ErrBadAccess)
}
