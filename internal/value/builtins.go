package value

import "math/bits"

// Log2 implements the log2(n) built-in: floor(log2 n), requires n>0.
func Log2(n Variant) (Variant, error) {
	if n.kind != Int {
		return Variant{}, badAccess("log2 requires int, got %s", n.kind)
	}
	if n.i <= 0 {
		return Variant{}, badAccess("log2 requires a positive argument, got %d", n.i)
	}
	return IntValue(int32(bits.Len32(uint32(n.i)) - 1)), nil
}

// Clog2 implements the clog2(n) built-in: ceil(log2 n), requires n>0.
func Clog2(n Variant) (Variant, error) {
	if n.kind != Int {
		return Variant{}, badAccess("clog2 requires int, got %s", n.kind)
	}
	if n.i <= 0 {
		return Variant{}, badAccess("clog2 requires a positive argument, got %d", n.i)
	}
	if n.i == 1 {
		return IntValue(0), nil
	}
	return IntValue(int32(bits.Len32(uint32(n.i - 1)))), nil
}

// Size implements the size(arr) built-in: element count of an Array.
func Size(arr Variant) (Variant, error) {
	if arr.kind != Array {
		return Variant{}, badAccess("size requires array, got %s", arr.kind)
	}
	return IntValue(int32(len(arr.arr))), nil
}

// Min implements the min(e1,...,ek) built-in: folds < over Ints.
func Min(args []Variant) (Variant, error) {
	return foldCompare(args, "min", func(a, b int32) bool { return a < b })
}

// Max implements the max(e1,...,ek) built-in: folds > over Ints.
func Max(args []Variant) (Variant, error) {
	return foldCompare(args, "max", func(a, b int32) bool { return a > b })
}

func foldCompare(args []Variant, name string, better func(a, b int32) bool) (Variant, error) {
	if len(args) == 0 {
		return Variant{}, badAccess("%s requires at least one argument", name)
	}
	best := args[0]
	if best.kind != Int {
		return Variant{}, badAccess("%s requires int arguments, got %s", name, best.kind)
	}
	for _, arg := range args[1:] {
		if arg.kind != Int {
			return Variant{}, badAccess("%s requires int arguments, got %s", name, arg.kind)
		}
		if better(arg.i, best.i) {
			best = arg
		}
	}
	return best, nil
}
