package table

import "slices"

// StartingPoints is every seat's score at the start of a table.
const StartingPoints = 25000

// Table is the shared state every seat observes.
type Table struct {
	round   int
	dealer  Who
	hands   [Seats]*Hand
	rivers  [Seats][]Tile
	points  [Seats]int
	onPopUp func(Who)
}

// New returns an empty table with the given dealer.
//
// Precondition: dealer.Valid().
func New(dealer Who) *Table {
	if !dealer.Valid() {
		panic("table: New precondition violated: invalid dealer seat")
	}
	t := &Table{dealer: dealer}
	for w := range t.hands {
		t.hands[w] = NewHand(nil)
		t.points[w] = StartingPoints
	}
	return t
}

// OnPopUp installs the handler receiving pop-up requests.
func (t *Table) OnPopUp(fn func(Who)) {
	t.onPopUp = fn
}

// PopUp asks the host to display who's pending pop-up text.
func (t *Table) PopUp(who Who) {
	if t.onPopUp != nil {
		t.onPopUp(who)
	}
}

// Round returns the zero-based round counter.
func (t *Table) Round() int {
	return t.round
}

// Dealer returns the dealer seat.
func (t *Table) Dealer() Who {
	return t.dealer
}

// Hand returns who's hand.
func (t *Table) Hand(who Who) *Hand {
	return t.hands[who]
}

// SetHand replaces who's hand.
func (t *Table) SetHand(who Who, h *Hand) {
	t.hands[who] = h
}

// River returns a copy of who's discards in order.
func (t *Table) River(who Who) []Tile {
	return slices.Clone(t.rivers[who])
}

// Discard moves tile from who's hand to who's river.
func (t *Table) Discard(who Who, tile Tile) bool {
	if !t.hands[who].Remove(tile) {
		return false
	}
	t.rivers[who] = append(t.rivers[who], tile)
	return true
}

// Points returns who's score.
func (t *Table) Points(who Who) int {
	return t.points[who]
}
