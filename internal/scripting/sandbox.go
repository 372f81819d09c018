// Package scripting runs seat skills written in Lua. Each scripted entity owns
// one sandboxed GopherLua state and a capability table; native table state is
// lent to a hook only through managed references that are invalidated when
// the hook's dispatch ends.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes a single
// script load or hook dispatch may execute when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's mainLoopWithContext calls Done() once
// per opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done returns the underlying cancellation channel. Each call decrements the
// remaining counter; when it reaches zero the cancel function fires,
// terminating the Lua VM on the next opcode boundary.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context that cancels after limit calls to Done().
// Precondition: limit > 0.
func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	}, cancel
}

// safeLibrary is a standard library opened into every sandboxed state.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

var safeLibraries = []safeLibrary{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// unsafeGlobals are base-library functions that reach outside the sandbox or
// defeat the capability table.
var unsafeGlobals = []string{
	"dofile", "loadfile", "load", "loadstring", "require",
	"collectgarbage", "getfenv", "setfenv", "getmetatable", "setmetatable",
	"rawget", "rawset", "rawequal", "module", "newproxy", "_printregs",
}

// NewSandboxedState creates a GopherLua LState with only base, table, string
// and math loaded and the unsafe base globals removed. Scripts never run
// against these globals directly; the capability table copies the curated
// subset it exposes.
//
// Postcondition: Returns a non-nil LState. The caller owns it and must Close it.
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibraries {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// withInstructionLimit runs fn with a fresh opcode budget of limit installed
// on L and removes it afterwards. It reports whether the budget ran out.
//
// Precondition: limit > 0.
func withInstructionLimit(L *lua.LState, limit int, fn func() error) (exhausted bool, err error) {
	ctx, cancel := newCountingContext(limit)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()
	err = fn()
	return err != nil && ctx.Err() != nil, err
}
