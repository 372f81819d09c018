// Package match drives one hand at a four-seat table, calling every seated
// skill's hooks in table order.
package match

import (
	"errors"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilescript/internal/config"
	"github.com/cory-johannsen/tilescript/internal/game/dice"
	"github.com/cory-johannsen/tilescript/internal/game/skill"
	"github.com/cory-johannsen/tilescript/internal/game/table"
)

// HandSize is the number of tiles dealt to each seat.
const HandSize = 13

// PopUp is one pop-up raised by a seat's skill.
type PopUp struct {
	Seat table.Who
	Text string
}

// Result is the outcome of one Run.
type Result struct {
	Dealer      table.Who
	DealRetries int
	Turns       int
	Exhausted   bool
	Hands       [table.Seats][]table.Tile
	Rivers      [table.Seats][]table.Tile
	PopUps      []PopUp
}

// Match plays one hand. A Match is single-use and not safe for concurrent use.
type Match struct {
	cfg    config.MatchConfig
	skills [table.Seats]skill.Skill
	roller *dice.Roller
	logger *zap.Logger

	tbl    *table.Table
	popUps []PopUp
}

// New creates a Match over skills.
//
// Precondition: every skill, roller and logger must be non-nil; skills[w].Self() == w.
func New(cfg config.MatchConfig, skills [table.Seats]skill.Skill, roller *dice.Roller, logger *zap.Logger) *Match {
	if roller == nil || logger == nil {
		panic("match: New precondition violated: roller and logger must be non-nil")
	}
	for w, s := range skills {
		if s == nil || s.Self() != table.Who(w) {
			panic("match: New precondition violated: skill seated at the wrong position")
		}
	}
	return &Match{cfg: cfg, skills: skills, roller: roller, logger: logger}
}

// Run plays the hand: table start, dice, wall biasing, the initial-hand
// search, then cfg.Turns draw/discard turns starting with the dealer.
//
// Postcondition: Every pop-up raised during the hand is in Result.PopUps in
// the order raised.
func (m *Match) Run() Result {
	src := m.roller.Source()
	dealer := table.Who(m.roller.Intn(table.Seats))
	m.tbl = table.New(dealer)
	m.tbl.OnPopUp(m.popUp)

	m.logger.Info("match started",
		zap.Stringer("dealer", dealer),
		zap.Int("turns", m.cfg.Turns),
	)
	m.broadcast(table.Event{Type: table.EventTableStarted, Who: dealer})

	for _, s := range m.skills {
		s.OnDice(m.roller, m.tbl)
	}

	var exists [table.Seats]table.Exist
	for _, s := range m.skills {
		s.OnMonkey(&exists, m.tbl)
	}

	mount, retries := m.deal(src, &exists)
	m.broadcast(table.Event{Type: table.EventDealt, Who: dealer})

	res := Result{Dealer: dealer, DealRetries: retries}
	who := dealer
	for res.Turns < m.cfg.Turns {
		for _, s := range m.skills {
			s.OnDraw(m.tbl, mount, who, false)
		}
		tile, err := mount.Draw(src, false)
		if errors.Is(err, table.ErrMountExhausted) {
			res.Exhausted = true
			break
		}
		m.tbl.Hand(who).Add(tile)
		m.broadcast(table.Event{Type: table.EventDrawn, Who: who})

		m.tbl.Discard(who, tile)
		m.broadcast(table.Event{Type: table.EventDiscarded, Who: who, Tile: tile})

		res.Turns++
		who = who.Right()
	}

	m.broadcast(table.Event{Type: table.EventTableEnded, Who: dealer})

	for w := range res.Hands {
		res.Hands[w] = m.tbl.Hand(table.Who(w)).Tiles()
		res.Rivers[w] = m.tbl.River(table.Who(w))
	}
	res.PopUps = m.popUps
	m.logger.Info("match finished",
		zap.Int("turns", res.Turns),
		zap.Int("deal_retries", res.DealRetries),
		zap.Int("pop_ups", len(res.PopUps)),
		zap.Bool("exhausted", res.Exhausted),
	)
	return res
}

// deal builds biased walls until every skill accepts every seat's initial
// hand or cfg.MaxDealRetries is reached, then installs the hands.
func (m *Match) deal(src dice.Source, exists *[table.Seats]table.Exist) (*table.Mount, int) {
	for iter := 0; ; iter++ {
		mount := table.NewMount(src)
		mount.Bias(exists)

		var hands [table.Seats]*table.Hand
		for w := range hands {
			hands[w] = table.NewHand(nil)
		}
		for range HandSize {
			for w := range hands {
				tile, _ := mount.Draw(src, false)
				hands[w].Add(tile)
			}
		}

		if iter >= m.cfg.MaxDealRetries || m.accepts(&hands, iter) {
			for w, h := range hands {
				m.tbl.SetHand(table.Who(w), h)
			}
			if iter > 0 {
				m.logger.Debug("initial hands re-dealt", zap.Int("retries", iter))
			}
			return mount, iter
		}
	}
}

func (m *Match) accepts(hands *[table.Seats]*table.Hand, iter int) bool {
	for _, s := range m.skills {
		for w, h := range hands {
			if !s.CheckInit(table.Who(w), h, m.tbl, iter) {
				return false
			}
		}
	}
	return true
}

func (m *Match) broadcast(ev table.Event) {
	for _, s := range m.skills {
		s.OnTableEvent(m.tbl, ev)
	}
}

// popUp records who's pending pop-up text and tells every seat a pop-up
// happened.
func (m *Match) popUp(who table.Who) {
	text := m.skills[who].PopUpStr()
	m.popUps = append(m.popUps, PopUp{Seat: who, Text: text})
	m.logger.Info("pop-up",
		zap.Stringer("seat", who),
		zap.String("text", text),
	)
	m.broadcast(table.Event{Type: table.EventPoppedUp, Who: who})
}
