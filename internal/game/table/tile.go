// Package table is the host-side model of a four-seat tile table: seats,
// tiles, hands, the mount (wall and dead wall), per-seat exposure counts and
// table events. It is the native state that seat skills observe.
package table

import (
	"fmt"
	"strconv"
)

// Who identifies a seat, 0 through 3.
type Who int

// Seats is the number of seats at a table.
const Seats = 4

// Valid reports whether w names a seat.
func (w Who) Valid() bool {
	return w >= 0 && w < Seats
}

// Right returns the seat after w in turn order.
func (w Who) Right() Who {
	return (w + 1) % Seats
}

// String returns the seat as "seat<N>".
func (w Who) String() string {
	return "seat" + strconv.Itoa(int(w))
}

// Tile is a tile code: a rank digit followed by a suit letter, e.g. "5m".
// Suits m, p, s rank 1-9; honors (z) rank 1-7.
type Tile string

// copiesPerTile is the number of physical copies of each tile in a full set.
const copiesPerTile = 4

// ParseTile validates s as a tile code.
//
// Postcondition: Returns a valid Tile or a descriptive error.
func ParseTile(s string) (Tile, error) {
	if len(s) != 2 {
		return "", fmt.Errorf("table: invalid tile %q: want rank and suit", s)
	}
	rank := int(s[0] - '0')
	switch s[1] {
	case 'm', 'p', 's':
		if rank < 1 || rank > 9 {
			return "", fmt.Errorf("table: invalid tile %q: rank must be 1-9", s)
		}
	case 'z':
		if rank < 1 || rank > 7 {
			return "", fmt.Errorf("table: invalid tile %q: honor rank must be 1-7", s)
		}
	default:
		return "", fmt.Errorf("table: invalid tile %q: unknown suit %q", s, s[1])
	}
	return Tile(s), nil
}

// AllTiles returns the 34 distinct tile kinds in canonical order.
func AllTiles() []Tile {
	out := make([]Tile, 0, 34)
	for _, suit := range []byte{'m', 'p', 's'} {
		for r := byte('1'); r <= '9'; r++ {
			out = append(out, Tile([]byte{r, suit}))
		}
	}
	for r := byte('1'); r <= '7'; r++ {
		out = append(out, Tile([]byte{r, 'z'}))
	}
	return out
}
