package table

import "slices"

// Hand is a seat's closed tiles.
type Hand struct {
	tiles []Tile
}

// NewHand returns a hand holding a copy of tiles.
func NewHand(tiles []Tile) *Hand {
	return &Hand{tiles: slices.Clone(tiles)}
}

// Tiles returns a copy of the closed tiles.
func (h *Hand) Tiles() []Tile {
	return slices.Clone(h.tiles)
}

// Len returns the number of closed tiles.
func (h *Hand) Len() int {
	return len(h.tiles)
}

// Count returns how many copies of t the hand holds.
func (h *Hand) Count(t Tile) int {
	n := 0
	for _, x := range h.tiles {
		if x == t {
			n++
		}
	}
	return n
}

// Add appends t to the hand.
func (h *Hand) Add(t Tile) {
	h.tiles = append(h.tiles, t)
}

// Remove takes one copy of t out of the hand. It reports false when the hand
// holds no copy of t.
func (h *Hand) Remove(t Tile) bool {
	i := slices.Index(h.tiles, t)
	if i < 0 {
		return false
	}
	h.tiles = slices.Delete(h.tiles, i, i+1)
	return true
}
