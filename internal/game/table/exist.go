package table

// Exist holds one seat's per-tile wall-presence adjustments. Skills raise or
// lower them before the wall is built; the host folds every seat's Exist into
// the new Mount's light. The zero value is ready to use.
type Exist struct {
	counts map[Tile]int
}

// Get returns the adjustment for t.
func (e *Exist) Get(t Tile) int {
	return e.counts[t]
}

// Inc adds n to the adjustment for t.
//
// Postcondition: -MaxLight <= Get(t) <= MaxLight.
func (e *Exist) Inc(t Tile, n int) {
	if e.counts == nil {
		e.counts = make(map[Tile]int)
	}
	e.counts[t] = clampLight(e.counts[t] + clampLight(n))
}
