package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/tilescript/internal/game/dice"
	"github.com/cory-johannsen/tilescript/internal/game/table"
)

// Lua class names of the native objects lent to scripts.
const (
	ClassTable = "Table"
	ClassHand  = "Hand"
	ClassMount = "Mount"
	ClassExist = "Exist"
	ClassRand  = "Rand"
)

// className maps r to the Lua class whose metatable it carries.
func className(r Managed) string {
	switch r.(type) {
	case *ManagedRef[table.Table]:
		return ClassTable
	case *ManagedRef[table.Hand]:
		return ClassHand
	case *ManagedRef[table.Mount]:
		return ClassMount
	case *ManagedRef[table.Exist]:
		return ClassExist
	case *ManagedRef[dice.Roller]:
		return ClassRand
	}
	panic("scripting: no Lua class for managed reference")
}

// describe names r for diagnostics without dereferencing it.
func describe(r Managed) string {
	name := className(r)
	if !r.Valid() {
		return name + " (stale)"
	}
	return name
}

// registerClasses installs one metatable per class into L's registry.
func registerClasses(L *lua.LState) {
	registerClass(L, ClassTable, map[string]lua.LGFunction{
		"round":  tableRound,
		"dealer": tableDealer,
		"points": tablePoints,
		"river":  tableRiver,
		"hand":   tableHand,
	})
	registerClass(L, ClassHand, map[string]lua.LGFunction{
		"tiles": handTiles,
		"len":   handLen,
		"count": handCount,
	})
	registerClass(L, ClassMount, map[string]lua.LGFunction{
		"remain":     mountRemain,
		"deadremain": mountDeadRemain,
		"light":      mountLight,
		"lighta":     mountLightA,
	})
	registerClass(L, ClassExist, map[string]lua.LGFunction{
		"get": existGet,
		"inc": existInc,
	})
	registerClass(L, ClassRand, map[string]lua.LGFunction{
		"int":  randInt,
		"roll": randRoll,
	})
}

// registerClass builds the metatable for class. Field reads check validity
// before resolving a method; field writes always fail.
func registerClass(L *lua.LState, class string, methods map[string]lua.LGFunction) {
	mt := L.NewTypeMetatable(class)
	fns := L.SetFuncs(L.NewTable(), methods)
	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		checkLive(L, class)
		L.Push(fns.RawGetString(L.CheckString(2)))
		return 1
	}))
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		checkLive(L, class)
		L.RaiseError("cannot assign field %q of %s", L.CheckString(2), class)
		return 0
	}))
	mt.RawSetString("__tostring", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		r, ok := ud.Value.(Managed)
		if !ok {
			L.Push(lua.LString(class))
			return 1
		}
		L.Push(lua.LString(describe(r)))
		return 1
	}))
}

// pushRef wraps r in a userdata carrying class's metatable.
func pushRef(L *lua.LState, class string, r Managed) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = r
	L.SetMetatable(ud, L.GetTypeMetatable(class))
	return ud
}

// checkLive raises a script error when argument 1 is a stale reference.
func checkLive(L *lua.LState, class string) Managed {
	ud := L.CheckUserData(1)
	r, ok := ud.Value.(Managed)
	if !ok {
		L.ArgError(1, class+" expected")
		return nil
	}
	if !r.Valid() {
		L.RaiseError("%s: %s", class, ErrStaleReference)
		return nil
	}
	return r
}

// checkRef resolves argument 1 as a *ManagedRef[T] and returns its target.
// Stale or, for writes, read-only references raise a script error instead of
// being dereferenced.
func checkRef[T any](L *lua.LState, class string, write bool) (*ManagedRef[T], *T) {
	ud := L.CheckUserData(1)
	r, ok := ud.Value.(*ManagedRef[T])
	if !ok {
		L.ArgError(1, class+" expected")
		return nil, nil
	}
	var (
		target *T
		err    error
	)
	if write {
		target, err = r.GetMut()
	} else {
		target, err = r.Get()
	}
	if err != nil {
		L.RaiseError("%s: %s", class, err)
		return nil, nil
	}
	return r, target
}

func checkWho(L *lua.LState, n int) table.Who {
	w := table.Who(L.CheckInt(n))
	if !w.Valid() {
		L.ArgError(n, "seat must be 0-3")
	}
	return w
}

func checkTile(L *lua.LState, n int) table.Tile {
	t, err := table.ParseTile(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return t
}

// checkLight reads argument n as a light adjustment, rejecting values outside
// [-table.MaxLight, table.MaxLight].
func checkLight(L *lua.LState, n int) int {
	v := L.CheckNumber(n)
	if v < -table.MaxLight || v > table.MaxLight {
		L.ArgError(n, fmt.Sprintf("adjustment must be between %d and %d", -table.MaxLight, table.MaxLight))
	}
	return int(v)
}

func tilesToLua(L *lua.LState, tiles []table.Tile) *lua.LTable {
	out := L.CreateTable(len(tiles), 0)
	for _, t := range tiles {
		out.Append(lua.LString(t))
	}
	return out
}

func tableRound(L *lua.LState) int {
	_, t := checkRef[table.Table](L, ClassTable, false)
	L.Push(lua.LNumber(t.Round()))
	return 1
}

func tableDealer(L *lua.LState) int {
	_, t := checkRef[table.Table](L, ClassTable, false)
	L.Push(lua.LNumber(t.Dealer()))
	return 1
}

func tablePoints(L *lua.LState) int {
	_, t := checkRef[table.Table](L, ClassTable, false)
	L.Push(lua.LNumber(t.Points(checkWho(L, 2))))
	return 1
}

func tableRiver(L *lua.LState) int {
	_, t := checkRef[table.Table](L, ClassTable, false)
	L.Push(tilesToLua(L, t.River(checkWho(L, 2))))
	return 1
}

// tableHand lends who's hand for the rest of the current dispatch, read-only.
func tableHand(L *lua.LState) int {
	r, t := checkRef[table.Table](L, ClassTable, false)
	L.Push(pushRef(L, ClassHand, derive(r, t.Hand(checkWho(L, 2)), false)))
	return 1
}

func handTiles(L *lua.LState) int {
	_, h := checkRef[table.Hand](L, ClassHand, false)
	L.Push(tilesToLua(L, h.Tiles()))
	return 1
}

func handLen(L *lua.LState) int {
	_, h := checkRef[table.Hand](L, ClassHand, false)
	L.Push(lua.LNumber(h.Len()))
	return 1
}

func handCount(L *lua.LState) int {
	_, h := checkRef[table.Hand](L, ClassHand, false)
	L.Push(lua.LNumber(h.Count(checkTile(L, 2))))
	return 1
}

func mountRemain(L *lua.LState) int {
	_, m := checkRef[table.Mount](L, ClassMount, false)
	L.Push(lua.LNumber(m.Remain()))
	return 1
}

func mountDeadRemain(L *lua.LState) int {
	_, m := checkRef[table.Mount](L, ClassMount, false)
	L.Push(lua.LNumber(m.DeadRemain()))
	return 1
}

func mountLight(L *lua.LState) int {
	_, m := checkRef[table.Mount](L, ClassMount, false)
	L.Push(lua.LNumber(m.Light(checkTile(L, 2))))
	return 1
}

func mountLightA(L *lua.LState) int {
	_, m := checkRef[table.Mount](L, ClassMount, true)
	m.LightA(checkTile(L, 2), checkLight(L, 3))
	return 0
}

func existGet(L *lua.LState) int {
	_, e := checkRef[table.Exist](L, ClassExist, false)
	L.Push(lua.LNumber(e.Get(checkTile(L, 2))))
	return 1
}

func existInc(L *lua.LState) int {
	_, e := checkRef[table.Exist](L, ClassExist, true)
	e.Inc(checkTile(L, 2), checkLight(L, 3))
	return 0
}

func randInt(L *lua.LState) int {
	_, r := checkRef[dice.Roller](L, ClassRand, false)
	n := L.CheckInt(2)
	if n <= 0 {
		L.ArgError(2, "n must be positive")
	}
	L.Push(lua.LNumber(r.Intn(n)))
	return 1
}

func randRoll(L *lua.LState) int {
	_, r := checkRef[dice.Roller](L, ClassRand, false)
	res, err := r.RollExpr(L.CheckString(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	L.Push(lua.LNumber(res.Total()))
	return 1
}
