package table

// EventType enumerates table events observed by skills.
type EventType int

const (
	EventTableStarted EventType = iota
	EventDealt
	EventDrawn
	EventDiscarded
	EventPoppedUp
	EventTableEnded
)

var eventNames = map[EventType]string{
	EventTableStarted: "table_started",
	EventDealt:        "dealt",
	EventDrawn:        "drawn",
	EventDiscarded:    "discarded",
	EventPoppedUp:     "popped_up",
	EventTableEnded:   "table_ended",
}

// String returns the snake_case event name scripts compare against.
func (e EventType) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return "unknown"
}

// Event describes one thing that happened at the table. Tile is empty for
// events that do not concern a tile.
type Event struct {
	Type EventType
	Who  Who
	Tile Tile
}
