package world

import (
	"strconv"
	"strings"

	"github.com/generativefiction/fortuna-engine/pkg/lexicon"
)

// Description topic keys every room must define, plus the tick-indexed
// "Tic <n>" convention.
const (
	TopicLong  = "Long"
	TopicShort = "Short"
	ticTopic   = "Tic "
)

// Exit links a room to a target in one direction. Visibility and the
// pre/post scripts are templated over world state. Immutable.
type Exit struct {
	RoomID string

	// Visible, when set, is a templated predicate: rendering it with
	// a "False" token hides the exit.
	Visible string

	// Prescript runs before the move commits; a "False" token aborts
	// the move after its narration plays.
	Prescript string

	// Postscript runs after the move for side effects only.
	Postscript string
}

// Scenery is a non-agent interactive object attached to one or more
// rooms. Immutable.
type Scenery struct {
	ID string

	// Hints are highlight words bolded in room text.
	Hints []string

	// Rooms the scenery is attached to.
	Rooms []string

	// Names are the synonyms used for player-object matching.
	Names lexicon.Set

	// Actions maps a verb or action key to paginated text sections,
	// in declared order.
	Actions []SceneryAction
}

// SceneryAction is one verb-keyed response, ordered as declared in
// content.
type SceneryAction struct {
	Verb     string
	Sections []string
}

// ActionFor resolves the scenery action for a queried verb: an exact
// key match wins, otherwise the first action whose verb-class set
// intersects the query's. Returns nil if nothing matches.
func (s *Scenery) ActionFor(verb string, lex lexicon.Lexicon) *SceneryAction {
	verb = strings.ToLower(verb)
	for i := range s.Actions {
		if s.Actions[i].Verb == verb {
			return &s.Actions[i]
		}
	}
	verbClasses := lex.VerbClasses(verb)
	if len(verbClasses) == 0 {
		return nil
	}
	for i := range s.Actions {
		if verbClasses.Intersects(lex.VerbClasses(s.Actions[i].Verb)) {
			return &s.Actions[i]
		}
	}
	return nil
}

// MatchesObject reports whether an object phrase refers to this
// scenery, by exact name/synonym match on the phrase or its trailing
// token, or by hypernym-set intersection.
func (s *Scenery) MatchesObject(phrase, trailing string, hypernyms lexicon.Set) bool {
	if s.Names.Contains(phrase) || s.Names.Contains(trailing) {
		return true
	}
	return s.Names.Intersects(hypernyms)
}

// Room is one node of the location graph. Immutable post-load and
// shared across sessions.
type Room struct {
	ID    string
	Title string

	// Descriptions maps a topic ("Long", "Short", "Tic 3", ...) to
	// ordered pagination sections.
	Descriptions map[string][]string

	Scenery []*Scenery

	// Exits keyed by lowercase direction.
	Exits map[string]*Exit
}

// TicDescription returns the sections keyed to the given in-room tick
// count, if any.
func (r *Room) TicDescription(tick int) ([]string, bool) {
	sections, ok := r.Descriptions[ticKey(tick)]
	return sections, ok
}

func ticKey(tick int) string {
	return ticTopic + strconv.Itoa(tick)
}
