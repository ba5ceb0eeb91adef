// Package environment implements the evaluator's lexically scoped runtime
// state: a stack of call/include frames (each owning a stack of block
// scopes), a flat global map, and the call/include frame trail diagnostics
// attach to a reported error.
package environment

import (
	"github.com/tplpp/tplpp/internal/collections"
	"github.com/tplpp/tplpp/internal/diagnostics"
	"github.com/tplpp/tplpp/internal/token"
	"github.com/tplpp/tplpp/internal/value"
)

// blockScope is one ordered name->value mapping; a call frame holds a stack
// of these, innermost last.
type blockScope struct {
	vars *collections.OrderedMap[string, value.Variant]
}

func newBlockScope() *blockScope {
	return &blockScope{vars: collections.NewOrderedMap[string, value.Variant]()}
}

// frame is one call or include frame. An include frame shares its caller's
// blocks slice (pushed/popped by the caller) instead of owning its own,
// matching "include is textual, not a new call".
type frame struct {
	file     string
	callSite token.Cursor // position in the caller that pushed this frame; zero Cursor for the root frame
	blocks   []*blockScope
}

// Environment is the evaluator's single mutable runtime state, owned by
// exactly one evaluator.
type Environment struct {
	globals *collections.OrderedMap[string, value.Variant]
	frames  []*frame
	snk     *diagnostics.Sink
	errors  int
}

// New returns an Environment ready to evaluate file starting at root.
func New(rootFile string, snk *diagnostics.Sink) *Environment {
	e := &Environment{
		globals: collections.NewOrderedMap[string, value.Variant](),
		snk:     snk,
	}
	e.frames = []*frame{{file: rootFile, blocks: []*blockScope{newBlockScope()}}}
	return e
}

func (e *Environment) top() *frame { return e.frames[len(e.frames)-1] }

// CurrentFile is the path attributed to diagnostics and to relative-path
// resolution for `include`: the file of the innermost call or include frame,
// or the root file if there is none.
func (e *Environment) CurrentFile() string { return e.top().file }

// PushBlock opens a new innermost block scope in the current frame, used
// for selection branches and loop iterations (a macro body gets its block
// scope from PushCall instead).
func (e *Environment) PushBlock() { f := e.top(); f.blocks = append(f.blocks, newBlockScope()) }

// PopBlock closes the innermost block scope of the current frame.
func (e *Environment) PopBlock() {
	f := e.top()
	f.blocks = f.blocks[:len(f.blocks)-1]
}

// PushCall opens a fresh call frame (fresh block-scope stack) for a macro
// invocation: macros never see the caller's locals.
func (e *Environment) PushCall(file string, callSite token.Cursor) {
	e.frames = append(e.frames, &frame{file: file, callSite: callSite, blocks: []*blockScope{newBlockScope()}})
}

// PopCall closes the innermost call frame.
func (e *Environment) PopCall() { e.frames = e.frames[:len(e.frames)-1] }

// PushInclude opens an include frame: it shares the caller's block-scope
// stack (the included file can read and write caller locals) but changes
// CurrentFile for diagnostics.
func (e *Environment) PushInclude(file string, callSite token.Cursor) {
	e.frames = append(e.frames, &frame{file: file, callSite: callSite, blocks: e.top().blocks})
}

// PopInclude closes the innermost include frame.
func (e *Environment) PopInclude() { e.frames = e.frames[:len(e.frames)-1] }

// PutGlobal defines name in the flat global map. It fails if name is
// already bound globally.
func (e *Environment) PutGlobal(name string, v value.Variant) error {
	if e.globals.Contains(name) {
		return value.ErrDupName(name)
	}
	e.globals.Set(name, v)
	return nil
}

// PutLocal defines name in the innermost block scope of the current call
// frame. It fails if name is already bound in that exact scope (shadowing
// an outer scope's binding of the same name is allowed).
func (e *Environment) PutLocal(name string, v value.Variant) error {
	f := e.top()
	scope := f.blocks[len(f.blocks)-1]
	if scope.vars.Contains(name) {
		return value.ErrDupName(name)
	}
	scope.vars.Set(name, v)
	return nil
}

// Get looks name up innermost-out through the current frame's block
// scopes, then falls back to globals.
func (e *Environment) Get(name string) (value.Variant, error) {
	f := e.top()
	for i := len(f.blocks) - 1; i >= 0; i-- {
		if v, ok := f.blocks[i].vars.Get(name); ok {
			return v, nil
		}
	}
	if v, ok := e.globals.Get(name); ok {
		return v, nil
	}
	return value.Variant{}, value.ErrUndefinedName(name)
}

// Report formats err as a diagnostic of kind at position at, attributing it
// to CurrentFile and attaching one Frame per enclosing call/include frame
// (innermost first; the root frame contributes none), then
// writes it to the sink. sourceLine is the offending line's text.
func (e *Environment) Report(kind diagnostics.Kind, at token.Cursor, sourceLine string, err error) {
	d := diagnostics.Diagnostic{
		Kind:    kind,
		File:    e.CurrentFile(),
		At:      at,
		Message: err.Error(),
	}
	for i := len(e.frames) - 1; i >= 1; i-- {
		d.Frames = append(d.Frames, diagnostics.Frame{File: e.frames[i-1].file, At: e.frames[i].callSite})
	}
	e.snk.Emit(d, sourceLine)
	e.errors++
}

// ErrorCount is the number of diagnostics Report has emitted so far.
func (e *Environment) ErrorCount() int { return e.errors }
