package scripting

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tilescript/internal/game/dice"
	"github.com/cory-johannsen/tilescript/internal/game/table"
	"github.com/cory-johannsen/tilescript/internal/observability"
)

// InitCheckCeiling is the highest checkinit retry counter passed to a script.
// Above it CheckInit accepts without running the script, so the host's
// re-deal search always terminates.
const InitCheckCeiling = 1000

// PopUpTag prefixes every pop-up text produced by a scripted entity.
const PopUpTag = "Lua\n"

// Notifier receives the pop-up request an entity raises after a dispatch that
// left diagnostics behind. *table.Table implements it.
type Notifier interface {
	PopUp(who table.Who)
}

// Arg is one named input of a dispatch. Value may be a Managed reference, a
// []Managed (bound as a Lua array), a table.Event (bound as a plain table
// copy), a table.Who, int, bool, string or lua.LValue.
type Arg struct {
	Name  string
	Value any
}

// Entity is a seat skill backed by a Lua script. It owns its LState and
// capability table exclusively.
//
// An Entity is not safe for concurrent use, and a hook must not cause another
// dispatch on the same Entity while it runs.
type Entity struct {
	id     string
	self   table.Who
	name   string
	state  *lua.LState
	caps   *CapabilityTable
	errs   ErrorBuffer
	limit  int
	logger *zap.Logger
}

// NewEntity builds the sandbox for the skill seated at self and runs source in
// it under chunk name name. Compile and run errors are buffered, not
// returned: the entity always exists, possibly without working hooks.
//
// Precondition: self.Valid(); logger must be non-nil.
// Postcondition: Returns a non-nil Entity. instLimit <= 0 uses
// DefaultInstructionLimit.
func NewEntity(self table.Who, name, source string, instLimit int, logger *zap.Logger) *Entity {
	if !self.Valid() {
		panic("scripting: NewEntity precondition violated: invalid seat")
	}
	if logger == nil {
		panic("scripting: NewEntity precondition violated: logger must be non-nil")
	}
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}

	id := uuid.New().String()
	e := &Entity{
		id:     id,
		self:   self,
		name:   name,
		state:  NewSandboxedState(),
		limit:  instLimit,
		logger: observability.ForSeat(logger, id, int(self)).With(zap.String("skill", name)),
	}
	registerClasses(e.state)
	e.caps = NewCapabilityTable(e.state, self, e.errs.Write)

	exhausted, err := withInstructionLimit(e.state, e.limit, func() error {
		return e.caps.Load(name, source)
	})
	if err != nil {
		e.addError("load", errorText(err, exhausted, e.limit))
	}
	return e
}

// ID returns the entity's unique instance ID.
func (e *Entity) ID() string { return e.id }

// Self returns the seat the entity plays for.
func (e *Entity) Self() table.Who { return e.self }

// Name returns the chunk name the script was loaded under.
func (e *Entity) Name() string { return e.name }

// Capabilities returns the entity's capability table.
func (e *Entity) Capabilities() *CapabilityTable { return e.caps }

// Has reports whether the script defines hook.
func (e *Entity) Has(hook string) bool { return e.caps.Hook(hook) != nil }

// Pending returns the diagnostics buffered since the last pop-up.
func (e *Entity) Pending() string { return e.errs.String() }

// Snapshot returns the entity's DataStore as plain Go values.
func (e *Entity) Snapshot() map[string]any { return e.caps.Snapshot() }

// PopUpStr returns the pending diagnostics prefixed with PopUpTag. Hosts
// call it from their Notifier while the pop-up is being raised.
func (e *Entity) PopUpStr() string {
	return PopUpTag + e.errs.String()
}

// Close releases the Lua state.
func (e *Entity) Close() {
	e.state.Close()
}

// Dispatch runs hook with args bound by name. An undefined hook is a no-op
// returning (LNil, false).
//
// Every Managed argument is tracked by one DisposalGuard, every argument is
// bound through one Scope, and on every exit path the Scope is closed and
// then the guard disposed. Script errors and panics are buffered, never
// returned. If the buffer is non-empty afterwards, n.PopUp(Self()) is raised
// and the buffer cleared.
//
// Dispatch must not be called on e from inside one of e's own hooks.
//
// Postcondition: Returns the hook's first result and true when it ran.
func (e *Entity) Dispatch(n Notifier, hook string, args ...Arg) (lua.LValue, bool) {
	fn := e.caps.Hook(hook)
	if fn == nil {
		return lua.LNil, false
	}
	ret := e.invoke(fn, hook, args)
	e.popUpIfAny(n)
	return ret, true
}

// CheckInit asks whether init is an acceptable initial hand for who.
//
// Postcondition: true without running the script when checkinit is undefined
// or iter > InitCheckCeiling; true with a buffered diagnostic when the hook
// returns a non-boolean.
func (e *Entity) CheckInit(who table.Who, init *table.Hand, tbl *table.Table, iter int) bool {
	fn := e.caps.Hook(HookCheckInit)
	if fn == nil {
		return true
	}
	if iter > InitCheckCeiling {
		return true
	}

	ret := e.invoke(fn, HookCheckInit, []Arg{
		{Name: "game", Value: NewManagedRef(tbl, false)},
		{Name: "init", Value: NewManagedRef(init, false)},
		{Name: "who", Value: who},
		{Name: "iter", Value: iter},
	})
	b, ok := ret.(lua.LBool)
	if !ok {
		e.addError(HookCheckInit, "non-boolean checkinit() result")
	}
	e.popUpIfAny(tbl)
	return !ok || bool(b)
}

// OnDice lends the host's randomness source to the ondice hook.
func (e *Entity) OnDice(roller *dice.Roller, tbl *table.Table) {
	e.Dispatch(tbl, HookDice,
		Arg{Name: "game", Value: NewManagedRef(tbl, false)},
		Arg{Name: "rand", Value: NewManagedRef(roller, false)},
	)
}

// OnMonkey lends the four seats' wall-presence adjustments, writable, to the
// onmonkey hook as a one-based array. It runs before the wall is built.
func (e *Entity) OnMonkey(exists *[table.Seats]table.Exist, tbl *table.Table) {
	refs := make([]Managed, len(exists))
	for i := range exists {
		refs[i] = NewManagedRef(&exists[i], true)
	}
	e.Dispatch(tbl, HookMonkey,
		Arg{Name: "game", Value: NewManagedRef(tbl, false)},
		Arg{Name: "exists", Value: refs},
	)
}

// OnDraw lends the mount, writable, to the ondraw hook before who draws.
func (e *Entity) OnDraw(tbl *table.Table, mount *table.Mount, who table.Who, rinshan bool) {
	e.Dispatch(tbl, HookDraw,
		Arg{Name: "game", Value: NewManagedRef(tbl, false)},
		Arg{Name: "mount", Value: NewManagedRef(mount, true)},
		Arg{Name: "who", Value: who},
		Arg{Name: "rinshan", Value: rinshan},
	)
}

// OnTableEvent passes event to the ongameevent hook. Pop-up events are never
// shown to scripts. A table start first flushes diagnostics left by loading.
func (e *Entity) OnTableEvent(tbl *table.Table, event table.Event) {
	if event.Type == table.EventPoppedUp {
		return
	}
	if event.Type == table.EventTableStarted {
		e.popUpIfAny(tbl)
	}
	e.Dispatch(tbl, HookGameEvent,
		Arg{Name: "game", Value: NewManagedRef(tbl, false)},
		Arg{Name: "event", Value: event},
	)
}

func (e *Entity) invoke(fn *lua.LFunction, hook string, args []Arg) (ret lua.LValue) {
	guard := NewDisposalGuard()
	defer guard.Dispose()

	bindings := make([]Binding, len(args))
	for i, a := range args {
		bindings[i] = Binding{Name: a.Name, Value: e.toLua(guard, a.Value)}
	}
	scope := e.caps.Inject(bindings...)
	defer scope.Close()

	defer func() {
		if r := recover(); r != nil {
			e.addError(hook, fmt.Sprintf("%s: %v", hook, r))
			ret = lua.LNil
		}
	}()

	exhausted, err := withInstructionLimit(e.state, e.limit, func() error {
		return e.state.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true})
	})
	if err != nil {
		e.addError(hook, errorText(err, exhausted, e.limit))
		return lua.LNil
	}
	ret = e.state.Get(-1)
	e.state.Pop(1)
	return ret
}

func (e *Entity) toLua(guard *DisposalGuard, v any) lua.LValue {
	switch x := v.(type) {
	case Managed:
		guard.Track(x)
		return pushRef(e.state, className(x), x)
	case []Managed:
		arr := e.state.CreateTable(len(x), 0)
		for _, r := range x {
			guard.Track(r)
			arr.Append(pushRef(e.state, className(r), r))
		}
		return arr
	case table.Event:
		ev := e.state.NewTable()
		ev.RawSetString("type", lua.LString(x.Type.String()))
		ev.RawSetString("who", lua.LNumber(x.Who))
		if x.Tile != "" {
			ev.RawSetString("tile", lua.LString(x.Tile))
		}
		return ev
	case table.Who:
		return lua.LNumber(x)
	case int:
		return lua.LNumber(x)
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case lua.LValue:
		return x
	}
	panic(fmt.Sprintf("scripting: unsupported dispatch argument type %T", v))
}

func (e *Entity) addError(hook, msg string) {
	e.errs.Add(msg)
	e.logger.Warn("scripting: lua error",
		zap.String("hook", hook),
		zap.String("error", msg),
	)
}

func (e *Entity) popUpIfAny(n Notifier) {
	if e.errs.Len() == 0 {
		return
	}
	n.PopUp(e.self)
	e.errs.Reset()
}

// errorText reduces a Lua error to its message, without the stack traceback.
func errorText(err error, exhausted bool, limit int) string {
	if exhausted {
		return fmt.Sprintf("instruction limit of %d exceeded", limit)
	}
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
