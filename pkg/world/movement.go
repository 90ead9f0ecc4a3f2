package world

import "fmt"

// ScriptID selects an agent's movement policy. Policies are looked up
// in a registry so content can bind agents to behavior by name.
type ScriptID string

const (
	// ScriptStationary never moves the agent. The zero policy.
	ScriptStationary ScriptID = "stationary"

	// ScriptTourGuide walks the ship tour route during chapter 4,
	// pulling the tour party (player included) along.
	ScriptTourGuide ScriptID = "tour_guide"
)

// ParseScriptID maps a content string to a movement policy identifier.
// Empty means stationary.
func ParseScriptID(s string) (ScriptID, error) {
	switch ScriptID(s) {
	case "", ScriptStationary:
		return ScriptStationary, nil
	case ScriptTourGuide:
		return ScriptTourGuide, nil
	default:
		return "", fmt.Errorf("unknown movement script %q", s)
	}
}

// MovementScript advances one agent's position by one tick.
type MovementScript interface {
	Advance(w *World, agent *Agent)
}

var movementScripts = map[ScriptID]MovementScript{
	ScriptStationary: stationaryScript{},
	ScriptTourGuide:  NewTourGuideScript(),
}

// movementScriptFor returns the agent's policy. Content loading
// guarantees the identifier is registered.
func movementScriptFor(id ScriptID) MovementScript {
	script, ok := movementScripts[id]
	if !ok {
		panic(fmt.Sprintf("world: unregistered movement script %q", id))
	}
	return script
}

type stationaryScript struct{}

func (stationaryScript) Advance(w *World, agent *Agent) {}

// TourGuideScript walks a fixed route keyed by chapter tick. On each
// route step the guide exits first, then the party follows in an order
// drawn from the session RNG. Party members no longer in the world are
// skipped, and the player follows along with the group.
type TourGuideScript struct {
	Chapter  int
	Route    map[int]string // chapter tick -> exit direction
	Party    []string
	Speeches map[string]string // destination room -> guide line
}

var _ MovementScript = (*TourGuideScript)(nil)

// NewTourGuideScript returns the ship tour route.
func NewTourGuideScript() *TourGuideScript {
	return &TourGuideScript{
		Chapter: 4,
		Route: map[int]string{
			3:  "down",
			6:  "down",
			9:  "down",
			12: "down",
			15: "down",
			18: "north",
		},
		Party: []string{"vip_reporter", "ex_convict", "research_scientist", "mercenary"},
		Speeches: map[string]string{
			"mess_hall_hallway": "\"Through those doors is the mess hall, where you will enjoy chef-prepared meals every day of the cruise.\"",
			"atrium":            "\"This is the atrium, the heart of the ship.  Most anywhere you want to go, you can get there from here.\"",
			"promenade":         "\"The promenade deck: shopping, drinks, and the best people watching off the coast of the Americas.\"",
			"stateroom_deck":    "\"Your staterooms are just down this corridor.  Do take a moment to settle in.\"",
			"pool_deck":         "\"And finally, the pool deck!  This is where I leave you.  Enjoy the cruise, and do keep out of trouble.\"",
		},
	}
}

func (t *TourGuideScript) Advance(w *World, guide *Agent) {
	if w.Chapter() != t.Chapter || guide.RoomID == nil {
		return
	}
	direction, ok := t.Route[w.TimeInChapter()]
	if !ok {
		return
	}

	playerJoins := *guide.RoomID == w.CurrentRoomID()
	w.SendAgent(guide, direction)
	if guide.RoomID == nil {
		return
	}
	destination := *guide.RoomID

	order := append([]string(nil), t.Party...)
	w.RNG().Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	for _, id := range order {
		if !w.HasAgent(id) {
			continue
		}
		member := w.Agent(id)
		if member.RoomID == nil {
			continue
		}
		w.PlaceAgent(member, destination)
	}
	if playerJoins {
		w.out.Print(fmt.Sprintf("You follow %s %s.", guide.Name(), NormalizeDirection(direction)))
		w.moveTo(destination)
	}

	if speech, ok := t.Speeches[destination]; ok {
		w.out.Print(fmt.Sprintf("%s gestures around: %s", guide.Name(), speech))
	}
}
