package scripting

import (
	"fmt"
	"slices"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/tilescript/internal/game/table"
)

// Hook names a script may define. The set is closed.
const (
	HookCheckInit = "checkinit"
	HookDice      = "ondice"
	HookMonkey    = "onmonkey"
	HookDraw      = "ondraw"
	HookGameEvent = "ongameevent"
)

// Hooks lists every hook slot in dispatch-table order.
var Hooks = []string{HookCheckInit, HookDice, HookMonkey, HookDraw, HookGameEvent}

// IdentityName is the reserved name holding the entity's own seat.
const IdentityName = "self"

// exposedBaseFuncs are the base-library functions copied into every
// capability table. pcall and xpcall stay out so a script cannot swallow a
// stale-reference error.
var exposedBaseFuncs = []string{
	"pairs", "ipairs", "next", "select", "unpack",
	"type", "tonumber", "error", "assert",
}

// exposedLibs are the library tables shallow-copied into every capability
// table. math loses its random-number generator.
var exposedLibs = map[string][]string{
	lua.MathLibName:   {"random", "randomseed"},
	lua.StringLibName: nil,
	lua.TabLibName:    nil,
}

// CapabilityTable is the namespace a skill script runs against.
//
// Three backing tables sit behind one script-visible environment:
//   - reserved: the curated library subset, print and self; read-only to scripts
//   - hooks: the hook slots; scripts may define or clear them
//   - data: the DataStore, receiving every other top-level name
//
// The environment itself holds raw fields only while a Scope is open. Any
// top-level read that misses a raw field is resolved reserved → hooks → data;
// any top-level write is routed by name the same way, and writes to reserved
// names raise a script error.
type CapabilityTable struct {
	state    *lua.LState
	env      *lua.LTable
	reserved *lua.LTable
	hooks    *lua.LTable
	data     *lua.LTable
}

// NewCapabilityTable builds a fresh capability table inside L for the entity
// seated at self. Output from print is passed to sink.
//
// Precondition: L must come from NewSandboxedState; sink must be non-nil.
// Postcondition: The table exposes only the curated subset, print, self and
// empty hook slots; the DataStore is empty.
func NewCapabilityTable(L *lua.LState, self table.Who, sink func(string)) *CapabilityTable {
	ct := &CapabilityTable{
		state:    L,
		env:      L.NewTable(),
		reserved: L.NewTable(),
		hooks:    L.NewTable(),
		data:     L.NewTable(),
	}

	for _, name := range exposedBaseFuncs {
		ct.reserved.RawSetString(name, L.GetGlobal(name))
	}
	for lib, drop := range exposedLibs {
		src, ok := L.GetGlobal(lib).(*lua.LTable)
		if !ok {
			continue
		}
		dst := L.NewTable()
		src.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok && slices.Contains(drop, string(ks)) {
				return
			}
			dst.RawSet(k, v)
		})
		ct.reserved.RawSetString(lib, dst)
	}
	ct.reserved.RawSetString("tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(render(L, L.CheckAny(1))))
		return 1
	}))
	ct.reserved.RawSetString("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, render(L, L.Get(i)))
		}
		sink(strings.Join(parts, " ") + "\n")
		return 0
	}))
	ct.reserved.RawSetString(IdentityName, lua.LNumber(self))

	mt := L.NewTable()
	mt.RawSetString("__index", L.NewFunction(ct.index))
	mt.RawSetString("__newindex", L.NewFunction(ct.newindex))
	L.SetMetatable(ct.env, mt)
	return ct
}

// render converts v to text the way tostring does, except that functions,
// threads, and tables or userdata without __tostring are rendered by type
// name alone. The output never depends on heap addresses.
func render(L *lua.LState, v lua.LValue) string {
	switch v.(type) {
	case *lua.LTable, *lua.LUserData:
		if L.GetMetaField(v, "__tostring") != lua.LNil {
			return L.ToStringMeta(v).String()
		}
		return v.Type().String()
	case *lua.LFunction, *lua.LState:
		return v.Type().String()
	}
	return v.String()
}

// isHook reports whether name is one of the hook slots.
func isHook(name string) bool {
	return slices.Contains(Hooks, name)
}

// IsReserved reports whether name is part of the control surface rather than
// script-owned state.
func (ct *CapabilityTable) IsReserved(name string) bool {
	return isHook(name) || ct.reserved.RawGetString(name) != lua.LNil
}

func (ct *CapabilityTable) index(L *lua.LState) int {
	key := L.Get(2)
	if ks, ok := key.(lua.LString); ok {
		name := string(ks)
		if v := ct.reserved.RawGetString(name); v != lua.LNil {
			L.Push(v)
			return 1
		}
		if isHook(name) {
			L.Push(ct.hooks.RawGetString(name))
			return 1
		}
	}
	L.Push(ct.data.RawGet(key))
	return 1
}

func (ct *CapabilityTable) newindex(L *lua.LState) int {
	key, val := L.Get(2), L.Get(3)
	if ks, ok := key.(lua.LString); ok {
		name := string(ks)
		if isHook(name) {
			ct.hooks.RawSetString(name, val)
			return 0
		}
		if ct.reserved.RawGetString(name) != lua.LNil {
			L.RaiseError("cannot assign to reserved name %q", name)
			return 0
		}
	}
	ct.data.RawSet(key, val)
	return 0
}

// Load compiles source as chunk name and runs it against the table.
//
// Postcondition: Returns nil or the compile/run error; top-level definitions
// made before a run error remain in place.
func (ct *CapabilityTable) Load(name, source string) error {
	fn, err := ct.state.Load(strings.NewReader(source), name)
	if err != nil {
		return err
	}
	fn.Env = ct.env
	return ct.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
}

// Hook returns the function in the named hook slot, or nil when the slot is
// empty or holds a non-function.
func (ct *CapabilityTable) Hook(name string) *lua.LFunction {
	fn, _ := ct.hooks.RawGetString(name).(*lua.LFunction)
	return fn
}

// Lookup resolves a top-level name exactly as a script would see it.
func (ct *CapabilityTable) Lookup(name string) lua.LValue {
	return ct.state.GetField(ct.env, name)
}

// Data returns the DataStore value stored under name, bypassing reserved
// names and open scopes.
func (ct *CapabilityTable) Data(name string) lua.LValue {
	return ct.data.RawGetString(name)
}

// Names returns every top-level name currently resolvable through the table:
// open scope bindings, reserved names, defined hooks and string DataStore keys.
//
// Postcondition: The result is sorted and free of duplicates.
func (ct *CapabilityTable) Names() []string {
	var names []string
	collect := func(t *lua.LTable) {
		t.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok && v != lua.LNil {
				names = append(names, string(ks))
			}
		})
	}
	collect(ct.env)
	collect(ct.reserved)
	collect(ct.hooks)
	collect(ct.data)
	slices.Sort(names)
	return slices.Compact(names)
}

// Snapshot converts the DataStore to plain Go values. Tables become
// map[string]any keyed by the Lua key's string form; functions and userdata
// become descriptive strings; a table reached twice on one path becomes
// "<cycle>".
func (ct *CapabilityTable) Snapshot() map[string]any {
	out, _ := toGo(ct.data, map[*lua.LTable]bool{}).(map[string]any)
	return out
}

func toGo(v lua.LValue, path map[*lua.LTable]bool) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		if path[x] {
			return "<cycle>"
		}
		path[x] = true
		m := make(map[string]any)
		x.ForEach(func(k, val lua.LValue) {
			m[k.String()] = toGo(val, path)
		})
		delete(path, x)
		return m
	case *lua.LFunction:
		return "<function>"
	case *lua.LUserData:
		if r, ok := x.Value.(Managed); ok {
			return fmt.Sprintf("<%s>", describe(r))
		}
		return "<userdata>"
	default:
		return nil
	}
}
