package scripting

import lua "github.com/yuin/gopher-lua"

// Binding is one call-local name installed by a Scope.
type Binding struct {
	Name  string
	Value lua.LValue
}

// Scope is an open set of call-local bindings in a capability table. The
// bindings live as raw fields of the script environment, shadowing reserved
// names and DataStore entries of the same name, and never reach the DataStore.
type Scope struct {
	ct     *CapabilityTable
	saved  []Binding
	closed bool
}

// Inject installs bindings in order and returns the open Scope.
//
// Precondition: no binding may name a reserved name.
// Postcondition: every binding resolves to its value until Close.
func (ct *CapabilityTable) Inject(bindings ...Binding) *Scope {
	s := &Scope{ct: ct, saved: make([]Binding, 0, len(bindings))}
	for _, b := range bindings {
		if ct.IsReserved(b.Name) {
			panic("scripting: Inject precondition violated: reserved name " + b.Name)
		}
		s.saved = append(s.saved, Binding{Name: b.Name, Value: ct.env.RawGetString(b.Name)})
		ct.env.RawSetString(b.Name, b.Value)
	}
	return s
}

// Close removes every binding, restoring each name's raw state from before
// Inject in reverse order. It is idempotent.
//
// Postcondition: ct.Names() equals its value before Inject, provided the
// hook did not itself write the DataStore.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.saved) - 1; i >= 0; i-- {
		s.ct.env.RawSetString(s.saved[i].Name, s.saved[i].Value)
	}
	s.saved = nil
}
