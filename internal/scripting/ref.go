package scripting

import "errors"

var (
	// ErrStaleReference is returned when a managed reference is used after
	// the dispatch that created it has ended.
	ErrStaleReference = errors.New("stale reference: its dispatch has ended")
	// ErrReadOnly is returned when a read-only managed reference is used for
	// a write.
	ErrReadOnly = errors.New("reference is read-only")
)

// Managed is the liveness contract shared by every ManagedRef instantiation.
// Only this package implements it.
type Managed interface {
	// Valid reports whether the reference may still be dereferenced.
	Valid() bool
	// Mutable reports whether writes are permitted through the reference.
	Mutable() bool

	invalidate()
	owner() *DisposalGuard
	adopt(g *DisposalGuard)
}

// ManagedRef lends a natively-owned *T to script space for one dispatch.
//
// The reference never owns target. Validity is an out-of-band flag cleared
// by the DisposalGuard that tracks the reference; the Lua collector keeping
// a wrapper alive has no bearing on it.
type ManagedRef[T any] struct {
	target  *T
	mutable bool
	valid   bool
	guard   *DisposalGuard
}

// NewManagedRef returns a valid reference to target.
//
// Precondition: target must be non-nil and outlive the dispatch the
// reference is used in.
func NewManagedRef[T any](target *T, mutable bool) *ManagedRef[T] {
	if target == nil {
		panic("scripting: NewManagedRef precondition violated: target must be non-nil")
	}
	return &ManagedRef[T]{target: target, mutable: mutable, valid: true}
}

// Valid reports whether the reference may still be dereferenced.
func (r *ManagedRef[T]) Valid() bool { return r.valid }

// Mutable reports whether writes are permitted through the reference.
func (r *ManagedRef[T]) Mutable() bool { return r.mutable }

// Get returns the target for reading.
//
// Postcondition: Returns ErrStaleReference, never the target, once invalidated.
func (r *ManagedRef[T]) Get() (*T, error) {
	if !r.valid {
		return nil, ErrStaleReference
	}
	return r.target, nil
}

// GetMut returns the target for writing.
//
// Postcondition: Returns ErrStaleReference once invalidated, ErrReadOnly for
// a read-only reference.
func (r *ManagedRef[T]) GetMut() (*T, error) {
	if !r.valid {
		return nil, ErrStaleReference
	}
	if !r.mutable {
		return nil, ErrReadOnly
	}
	return r.target, nil
}

func (r *ManagedRef[T]) invalidate() {
	r.valid = false
	r.target = nil
}

func (r *ManagedRef[T]) owner() *DisposalGuard  { return r.guard }
func (r *ManagedRef[T]) adopt(g *DisposalGuard) { r.guard = g }

// DisposalGuard owns the managed references created for one dispatch and
// invalidates all of them on Dispose.
type DisposalGuard struct {
	refs     []Managed
	disposed bool
}

// NewDisposalGuard returns a guard tracking refs.
func NewDisposalGuard(refs ...Managed) *DisposalGuard {
	g := &DisposalGuard{}
	for _, r := range refs {
		g.Track(r)
	}
	return g
}

// Track adds r to the guard. A reference tracked after Dispose is
// invalidated immediately.
func (g *DisposalGuard) Track(r Managed) {
	r.adopt(g)
	if g.disposed {
		r.invalidate()
		return
	}
	g.refs = append(g.refs, r)
}

// Len returns the number of references the guard tracks.
func (g *DisposalGuard) Len() int {
	return len(g.refs)
}

// Dispose invalidates every tracked reference. It is idempotent.
//
// Postcondition: Valid() is false for every reference tracked by g.
func (g *DisposalGuard) Dispose() {
	if g.disposed {
		return
	}
	g.disposed = true
	for _, r := range g.refs {
		r.invalidate()
	}
	g.refs = nil
}

// derive creates a reference to a child object reached through parent. The
// child shares parent's guard, so it dies with the same dispatch.
func derive[T any](parent Managed, target *T, mutable bool) *ManagedRef[T] {
	child := NewManagedRef(target, mutable && parent.Mutable())
	if g := parent.owner(); g != nil {
		g.Track(child)
	}
	return child
}
