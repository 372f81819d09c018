package table

import (
	"errors"

	"github.com/cory-johannsen/tilescript/internal/game/dice"
)

// DeadWallSize is the number of tiles set aside for replacement draws.
const DeadWallSize = 14

// baseWeight is the draw weight of a tile with zero light.
const baseWeight = 100

// MaxLight bounds every light value and every single adjustment, so draw
// weights stay within [1, baseWeight+MaxLight].
const MaxLight = 10_000

// clampLight saturates n to [-MaxLight, MaxLight].
func clampLight(n int) int {
	return min(max(n, -MaxLight), MaxLight)
}

// ErrMountExhausted is returned by Draw when the requested wall is empty.
var ErrMountExhausted = errors.New("table: mount exhausted")

// Mount is the undealt tiles: the live wall and the dead wall used for
// replacement (rinshan) draws. Draws from the live wall are weighted by
// per-tile light values that skills may adjust.
type Mount struct {
	wall  []Tile
	dead  []Tile
	light map[Tile]int
}

// NewMount shuffles a full 136-tile set with src and splits off the dead wall.
//
// Precondition: src must be non-nil.
// Postcondition: Remain()+DeadRemain() == 136.
func NewMount(src dice.Source) *Mount {
	all := make([]Tile, 0, len(AllTiles())*copiesPerTile)
	for _, t := range AllTiles() {
		for i := 0; i < copiesPerTile; i++ {
			all = append(all, t)
		}
	}
	for i := len(all) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		all[i], all[j] = all[j], all[i]
	}
	cut := len(all) - DeadWallSize
	return &Mount{
		wall:  all[:cut:cut],
		dead:  all[cut:],
		light: make(map[Tile]int),
	}
}

// Remain returns the number of tiles left in the live wall.
func (m *Mount) Remain() int {
	return len(m.wall)
}

// DeadRemain returns the number of tiles left in the dead wall.
func (m *Mount) DeadRemain() int {
	return len(m.dead)
}

// Light returns the draw-weight adjustment for t.
func (m *Mount) Light(t Tile) int {
	return m.light[t]
}

// LightA adds mk to the draw-weight adjustment for t. Negative values make t
// less likely; a tile's weight never drops below 1.
//
// Postcondition: -MaxLight <= Light(t) <= MaxLight.
func (m *Mount) LightA(t Tile, mk int) {
	m.light[t] = clampLight(m.light[t] + clampLight(mk))
}

// Bias adds every seat's Exist adjustment for each tile to the tile's light.
func (m *Mount) Bias(exists *[Seats]Exist) {
	for i := range exists {
		for _, t := range AllTiles() {
			if n := exists[i].Get(t); n != 0 {
				m.LightA(t, n)
			}
		}
	}
}

// Deal removes and returns the first n tiles of the live wall.
//
// Precondition: n <= Remain().
func (m *Mount) Deal(n int) []Tile {
	out := make([]Tile, n)
	copy(out, m.wall[:n])
	m.wall = m.wall[n:]
	return out
}

// Draw removes one tile. Replacement draws take the next dead-wall tile;
// live draws pick a wall position with probability proportional to the
// weight of the tile there.
func (m *Mount) Draw(src dice.Source, rinshan bool) (Tile, error) {
	if rinshan {
		if len(m.dead) == 0 {
			return "", ErrMountExhausted
		}
		t := m.dead[0]
		m.dead = m.dead[1:]
		return t, nil
	}
	if len(m.wall) == 0 {
		return "", ErrMountExhausted
	}

	total := 0
	for _, t := range m.wall {
		total += m.weight(t)
	}
	pick := src.Intn(total)
	idx := 0
	for i, t := range m.wall {
		pick -= m.weight(t)
		if pick < 0 {
			idx = i
			break
		}
	}
	t := m.wall[idx]
	m.wall = append(m.wall[:idx], m.wall[idx+1:]...)
	return t, nil
}

func (m *Mount) weight(t Tile) int {
	return min(max(1, baseWeight+m.light[t]), baseWeight+MaxLight)
}
