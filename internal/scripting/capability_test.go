package scripting_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tilescript/internal/game/table"
	"github.com/cory-johannsen/tilescript/internal/scripting"
)

func newTestCapabilities(t testing.TB, self table.Who) (*scripting.CapabilityTable, *strings.Builder) {
	t.Helper()
	L := scripting.NewSandboxedState()
	t.Cleanup(L.Close)
	var out strings.Builder
	return scripting.NewCapabilityTable(L, self, func(s string) { out.WriteString(s) }), &out
}

var luaKeywords = []string{
	"and", "break", "do", "else", "elseif", "end", "false", "for", "function", "goto",
	"if", "in", "local", "nil", "not", "or", "repeat", "return", "then", "true",
	"until", "while",
}

func TestCapabilityTable_ExposesCuratedSubset(t *testing.T) {
	ct, _ := newTestCapabilities(t, 2)

	for _, name := range []string{"math", "string", "table"} {
		assert.IsType(t, &lua.LTable{}, ct.Lookup(name), name)
	}
	for _, name := range []string{
		"pairs", "ipairs", "next", "select", "unpack",
		"type", "tostring", "tonumber", "error", "assert", "print",
	} {
		assert.IsType(t, &lua.LFunction{}, ct.Lookup(name), name)
	}
	for _, name := range []string{"os", "io", "debug", "require", "load", "dofile", "setmetatable", "rawset", "pcall", "xpcall", "_G"} {
		assert.Equal(t, lua.LNil, ct.Lookup(name), name)
	}
	assert.Equal(t, lua.LNumber(2), ct.Lookup(scripting.IdentityName))
}

func TestCapabilityTable_MathHasNoRandomness(t *testing.T) {
	ct, _ := newTestCapabilities(t, 0)
	require.NoError(t, ct.Load("t", `
		assert(math.random == nil, "math.random exposed")
		assert(math.randomseed == nil, "math.randomseed exposed")
		assert(math.floor(2.5) == 2, "math.floor missing")
	`))
}

func TestCapabilityTable_ScriptsCannotReachHostGlobals(t *testing.T) {
	L := scripting.NewSandboxedState()
	t.Cleanup(L.Close)
	ct := scripting.NewCapabilityTable(L, 0, func(string) {})
	L.SetGlobal("secret", lua.LString("host only"))
	require.NoError(t, ct.Load("t", `leaked = secret`))
	assert.Equal(t, lua.LNil, ct.Data("leaked"))
}

func TestCapabilityTable_TopLevelWritesGoToDataStore(t *testing.T) {
	ct, _ := newTestCapabilities(t, 0)
	require.NoError(t, ct.Load("t", `
		counter = 5
		counter = counter + 1
		names = {"a", "b"}
	`))
	assert.Equal(t, lua.LNumber(6), ct.Data("counter"))
	assert.IsType(t, &lua.LTable{}, ct.Data("names"))
	assert.Equal(t, lua.LNumber(6), ct.Lookup("counter"))
}

func TestCapabilityTable_ReservedNamesCannotBeOverwritten(t *testing.T) {
	for _, name := range []string{"self", "print", "math", "tostring"} {
		t.Run(name, func(t *testing.T) {
			ct, _ := newTestCapabilities(t, 1)
			before := ct.Lookup(name)
			err := ct.Load("t", name+` = 9`)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "reserved name")
			assert.Equal(t, before, ct.Lookup(name))
			assert.Equal(t, lua.LNil, ct.Data(name))
		})
	}
}

func TestCapabilityTable_HooksGoToHookSlots(t *testing.T) {
	ct, _ := newTestCapabilities(t, 0)
	require.NoError(t, ct.Load("t", `
		function ondice() end
		checkinit = 5
	`))
	assert.NotNil(t, ct.Hook(scripting.HookDice))
	assert.Nil(t, ct.Hook(scripting.HookCheckInit), "a non-function hook slot is treated as undefined")
	assert.Nil(t, ct.Hook(scripting.HookDraw))
	assert.Equal(t, lua.LNil, ct.Data(scripting.HookDice))
	assert.True(t, ct.IsReserved(scripting.HookDice))
}

func TestCapabilityTable_HookCanBeCleared(t *testing.T) {
	ct, _ := newTestCapabilities(t, 0)
	require.NoError(t, ct.Load("t", `
		function ondraw() end
		ondraw = nil
	`))
	assert.Nil(t, ct.Hook(scripting.HookDraw))
}

func TestCapabilityTable_PrintWritesToSink(t *testing.T) {
	ct, out := newTestCapabilities(t, 0)
	require.NoError(t, ct.Load("t", `print("a", 1, true, nil)`))
	assert.Equal(t, "a 1 true nil\n", out.String())
}

func TestCapabilityTable_PrintHidesAddresses(t *testing.T) {
	ct, out := newTestCapabilities(t, 0)
	require.NoError(t, ct.Load("t", `
		local t = {}
		print(t, print, tostring(t), tostring(ondice), tostring(math.floor))
		shown = tostring(1.5) .. tostring(false)
	`))
	assert.Equal(t, "table function table nil function\n", out.String())
	assert.Equal(t, lua.LString("1.5false"), ct.Data("shown"))
}

func TestCapabilityTable_ErrorAndAssertRaise(t *testing.T) {
	ct, _ := newTestCapabilities(t, 0)
	err := ct.Load("t", `assert(select("#", 1, 2) == 2) assert(false, "checked")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checked")

	err = ct.Load("t", `local a, b = unpack({3, 4}) error("sum " .. (a + b))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum 7")
}

func TestCapabilityTable_LoadReportsSyntaxError(t *testing.T) {
	ct, _ := newTestCapabilities(t, 0)
	err := ct.Load("broken", `function (`)
	require.Error(t, err)
}

func TestCapabilityTable_RunErrorKeepsEarlierDefinitions(t *testing.T) {
	ct, _ := newTestCapabilities(t, 0)
	err := ct.Load("t", `
		function ondice() end
		kept = 1
		error("boom")
		lost = 2
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NotNil(t, ct.Hook(scripting.HookDice))
	assert.Equal(t, lua.LNumber(1), ct.Data("kept"))
	assert.Equal(t, lua.LNil, ct.Data("lost"))
}

func TestCapabilityTable_Names(t *testing.T) {
	ct, _ := newTestCapabilities(t, 0)
	require.NoError(t, ct.Load("t", `
		zeta = 1
		function ongameevent() end
	`))
	names := ct.Names()
	assert.True(t, slices.IsSorted(names))
	assert.Contains(t, names, "zeta")
	assert.Contains(t, names, scripting.HookGameEvent)
	assert.Contains(t, names, scripting.IdentityName)
	assert.Contains(t, names, "print")
	assert.NotContains(t, names, scripting.HookDice)
}

func TestCapabilityTable_Snapshot(t *testing.T) {
	ct, _ := newTestCapabilities(t, 0)
	require.NoError(t, ct.Load("t", `
		n = 1
		s = "x"
		f = function() end
		t = {flag = true}
		t.me = t
	`))
	snap := ct.Snapshot()
	assert.Equal(t, 1.0, snap["n"])
	assert.Equal(t, "x", snap["s"])
	assert.Equal(t, "<function>", snap["f"])
	assert.Equal(t, map[string]any{"flag": true, "me": "<cycle>"}, snap["t"])
}

func TestProperty_DataStoreRedirectionPersists(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z][a-z0-9_]{0,8}`).
			Filter(func(s string) bool { return !slices.Contains(luaKeywords, s) }).
			Draw(rt, "name")
		value := rapid.IntRange(-1000, 1000).Draw(rt, "value")

		ct, _ := newTestCapabilities(t, 0)
		if ct.IsReserved(name) {
			before := ct.Lookup(name)
			err := ct.Load("t", name+" = 1")
			if slices.Contains(scripting.Hooks, name) {
				if err != nil {
					rt.Fatalf("hook assignment failed: %v", err)
				}
				return
			}
			if err == nil {
				rt.Fatalf("assignment to reserved %q succeeded", name)
			}
			if ct.Lookup(name) != before {
				rt.Fatalf("reserved %q was overwritten", name)
			}
			return
		}

		src := name + " = " + lua.LNumber(value).String()
		if err := ct.Load("t", src); err != nil {
			rt.Fatalf("load %q: %v", src, err)
		}
		if got := ct.Data(name); got != lua.LNumber(value) {
			rt.Fatalf("Data(%q) = %v, want %d", name, got, value)
		}
	})
}
