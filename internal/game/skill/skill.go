// Package skill catalogs the seat skills a table can host and builds them
// for a seat.
package skill

import (
	"github.com/cory-johannsen/tilescript/internal/game/dice"
	"github.com/cory-johannsen/tilescript/internal/game/table"
	"github.com/cory-johannsen/tilescript/internal/scripting"
)

// Skill is the hook contract a host drives for every seated skill.
type Skill interface {
	Self() table.Who
	CheckInit(who table.Who, init *table.Hand, tbl *table.Table, iter int) bool
	OnDice(roller *dice.Roller, tbl *table.Table)
	OnMonkey(exists *[table.Seats]table.Exist, tbl *table.Table)
	OnDraw(tbl *table.Table, mount *table.Mount, who table.Who, rinshan bool)
	OnTableEvent(tbl *table.Table, event table.Event)
	PopUpStr() string
	Close()
}

var _ Skill = (*scripting.Entity)(nil)

// Plain is a skill without behavior. It accepts every initial hand and never
// raises a pop-up.
type Plain struct {
	self table.Who
}

// NewPlain returns a Plain skill seated at self.
//
// Precondition: self.Valid().
func NewPlain(self table.Who) *Plain {
	if !self.Valid() {
		panic("skill: NewPlain precondition violated: invalid seat")
	}
	return &Plain{self: self}
}

// Self returns the seat p plays for.
func (p *Plain) Self() table.Who { return p.self }

// CheckInit accepts every initial hand.
func (p *Plain) CheckInit(table.Who, *table.Hand, *table.Table, int) bool { return true }

// OnDice does nothing.
func (p *Plain) OnDice(*dice.Roller, *table.Table) {}

// OnMonkey leaves every Exist unchanged.
func (p *Plain) OnMonkey(*[table.Seats]table.Exist, *table.Table) {}

// OnDraw leaves the mount unchanged.
func (p *Plain) OnDraw(*table.Table, *table.Mount, table.Who, bool) {}

// OnTableEvent ignores the event.
func (p *Plain) OnTableEvent(*table.Table, table.Event) {}

// PopUpStr returns the empty string; Plain never raises a pop-up.
func (p *Plain) PopUpStr() string { return "" }

// Close does nothing.
func (p *Plain) Close() {}
