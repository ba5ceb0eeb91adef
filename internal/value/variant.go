package value

import (
	"fmt"

	"github.com/tplpp/tplpp/internal/ast"
	"github.com/tplpp/tplpp/internal/collections"
)

// Macro is the runtime record bound to a macro name: its parameter list,
// its body statement, and the path of the file it was defined in, which
// lets call-stack frames attribute diagnostics to the right file even when
// the macro is invoked from an `include`d file.
type Macro struct {
	SourceFile string
	Params     []string
	Body       ast.Stmt
}

// Variant is the dynamic value type: Void | Int | Bool | String | Array |
// Dict | Macro. The zero Variant is Void.
type Variant struct {
	kind Kind
	i    int32
	b    bool
	s    string
	arr  []Variant
	dict *collections.OrderedMap[string, Variant]
	mac  *Macro
}

func VoidValue() Variant                { return Variant{kind: Void} }
func IntValue(i int32) Variant          { return Variant{kind: Int, i: i} }
func BoolValue(b bool) Variant          { return Variant{kind: Bool, b: b} }
func StringValue(s string) Variant      { return Variant{kind: String, s: s} }
func MacroValue(m *Macro) Variant       { return Variant{kind: Macro, mac: m} }

// ArrayValue wraps elems directly (no copy); callers that must not let the
// caller's slice be aliased should pass a copy.
func ArrayValue(elems []Variant) Variant {
	if elems == nil {
		elems = []Variant{}
	}
	return Variant{kind: Array, arr: elems}
}

// DictValue wraps an existing ordered map (no copy; see ArrayValue).
func DictValue(m *collections.OrderedMap[string, Variant]) Variant {
	if m == nil {
		m = collections.NewOrderedMap[string, Variant]()
	}
	return Variant{kind: Dict, dict: m}
}

// NewDict returns a fresh, empty backing map suitable for DictValue.
func NewDict() *collections.OrderedMap[string, Variant] {
	return collections.NewOrderedMap[string, Variant]()
}

func (v Variant) Kind() Kind { return v.kind }

// Int returns the payload of an Int Variant; callers must check Kind first.
func (v Variant) Int() int32 { return v.i }

// Bool returns the payload of a Bool Variant; callers must check Kind first.
func (v Variant) Bool() bool { return v.b }

// Str returns the payload of a String Variant; callers must check Kind first.
func (v Variant) Str() string { return v.s }

// Elems returns the backing slice of an Array Variant, shared with every
// other Variant copied from the same array.
func (v Variant) Elems() []Variant { return v.arr }

// Dict returns the backing ordered map of a Dict Variant, shared with every
// other Variant copied from the same dict.
func (v Variant) Dict() *collections.OrderedMap[string, Variant] { return v.dict }

// MacroValue returns the macro record of a Macro Variant; callers must check
// Kind first.
func (v Variant) MacroValue() *Macro { return v.mac }

// Debug renders a Variant for diagnostics/logging; it is not the directive
// language's to_string (see ToString).
func (v Variant) Debug() string {
	switch v.kind {
	case Void:
		return "<void>"
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Bool:
		return fmt.Sprintf("%t", v.b)
	case String:
		return fmt.Sprintf("%q", v.s)
	case Array:
		return fmt.Sprintf("array[%d]", len(v.arr))
	case Dict:
		return fmt.Sprintf("dict[%d]", v.dict.Len())
	case Macro:
		return fmt.Sprintf("macro(%v)", v.mac.Params)
	default:
		return "<unknown>"
	}
}
