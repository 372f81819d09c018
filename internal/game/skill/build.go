package skill

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilescript/internal/game/table"
	"github.com/cory-johannsen/tilescript/internal/scripting"
)

// Build seats def at self. A nil definition or one without a script yields a
// Plain skill; otherwise the script is loaded into a new scripted entity.
//
// Precondition: self.Valid(); logger must be non-nil.
func Build(def *Definition, self table.Who, instLimit int, logger *zap.Logger) Skill {
	if def == nil || def.Script == "" {
		return NewPlain(self)
	}
	return scripting.NewEntity(self, def.ChunkName(), def.Script, instLimit, logger)
}

// Seat builds one skill per seat from ids. An empty ID seats a Plain skill.
//
// Postcondition: Returns all four skills, or an error naming the first
// unknown ID. No skill is left open on error.
func (r *Registry) Seat(ids []string, instLimit int, logger *zap.Logger) ([table.Seats]Skill, error) {
	var seats [table.Seats]Skill
	if len(ids) != table.Seats {
		return seats, fmt.Errorf("seating: want %d skill IDs, got %d", table.Seats, len(ids))
	}
	for w, id := range ids {
		if id == "" {
			seats[w] = NewPlain(table.Who(w))
			continue
		}
		def, ok := r.Get(id)
		if !ok {
			for _, s := range seats[:w] {
				s.Close()
			}
			return [table.Seats]Skill{}, fmt.Errorf("seating %s: unknown skill %q", table.Who(w), id)
		}
		seats[w] = Build(def, table.Who(w), instLimit, logger)
		logger.Info("skill seated",
			zap.Stringer("seat", table.Who(w)),
			zap.String("skill", def.ID),
		)
	}
	return seats, nil
}
