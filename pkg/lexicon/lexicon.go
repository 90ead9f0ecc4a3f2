// Package lexicon exposes the lexical capability consumed by the world
// engine: verb classification and hypernym lookup. The engine treats an
// empty result set as "no match", never as an error.
package lexicon

import "strings"

// Set is a case-normalized word or class-id set.
type Set map[string]struct{}

// NewSet builds a Set from words, lowercasing each.
func NewSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		s[strings.ToLower(w)] = struct{}{}
	}
	return s
}

// Contains reports whether the set holds the word (case-insensitive).
func (s Set) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Intersects reports whether two sets share any member.
func (s Set) Intersects(other Set) bool {
	if len(other) < len(s) {
		s, other = other, s
	}
	for w := range s {
		if _, ok := other[w]; ok {
			return true
		}
	}
	return false
}

// Lexicon is the consumed lexical capability.
type Lexicon interface {
	// VerbClasses returns the verb-class identifiers for a word.
	VerbClasses(word string) Set

	// Hypernyms returns the hypernym closure of a word.
	Hypernyms(word string) Set
}

// Verb-class identifiers follow the VerbNet numbering the content
// pipeline uses.
const (
	ClassPerception    = "30" // look, examine, watch
	ClassCommunication = "37" // tell, ask, say
	ClassMotion        = "51" // go, walk, run
	ClassTouch         = "20" // touch, feel
	ClassConsume       = "39" // eat, drink
	ClassPush          = "12" // push, pull, press
)

// Static is a table-backed Lexicon, sufficient for the core verbs and
// the shipped content. A production deployment swaps in a WordNet
// backed implementation; the engine is agnostic.
type Static struct {
	verbClasses map[string]Set
	hypernyms   map[string]Set
}

var _ Lexicon = (*Static)(nil)

// NewStatic returns a Lexicon with the built-in tables.
func NewStatic() *Static {
	return &Static{
		verbClasses: map[string]Set{
			"look":     NewSet(ClassPerception),
			"examine":  NewSet(ClassPerception),
			"inspect":  NewSet(ClassPerception),
			"watch":    NewSet(ClassPerception),
			"read":     NewSet(ClassPerception),
			"stare":    NewSet(ClassPerception),
			"tell":     NewSet(ClassCommunication),
			"ask":      NewSet(ClassCommunication),
			"say":      NewSet(ClassCommunication),
			"talk":     NewSet(ClassCommunication),
			"go":       NewSet(ClassMotion),
			"walk":     NewSet(ClassMotion),
			"run":      NewSet(ClassMotion),
			"move":     NewSet(ClassMotion),
			"climb":    NewSet(ClassMotion),
			"touch":    NewSet(ClassTouch),
			"feel":     NewSet(ClassTouch),
			"rub":      NewSet(ClassTouch),
			"eat":      NewSet(ClassConsume),
			"drink":    NewSet(ClassConsume),
			"taste":    NewSet(ClassConsume),
			"push":     NewSet(ClassPush),
			"pull":     NewSet(ClassPush),
			"press":    NewSet(ClassPush),
			"open":     NewSet(ClassPush),
			"persuade": NewSet(ClassCommunication),
		},
		hypernyms: map[string]Set{
			"ocean":    NewSet("ocean", "sea", "water", "body_of_water"),
			"sea":      NewSet("sea", "water", "body_of_water"),
			"water":    NewSet("water", "liquid"),
			"painting": NewSet("painting", "picture", "art", "artwork"),
			"picture":  NewSet("picture", "art", "artwork"),
			"fountain": NewSet("fountain", "structure", "water"),
			"safe":     NewSet("safe", "strongbox", "container"),
			"keycard":  NewSet("keycard", "card", "key"),
			"radio":    NewSet("radio", "receiver", "device"),
			"hot tub":  NewSet("hot tub", "tub", "pool"),
			"tub":      NewSet("tub", "vessel", "pool"),
			"pool":     NewSet("pool", "body_of_water"),
			"chair":    NewSet("chair", "seat", "furniture"),
			"desk":     NewSet("desk", "table", "furniture"),
			"bed":      NewSet("bed", "furniture"),
		},
	}
}

// VerbClasses implements Lexicon. Unknown verbs yield an empty set.
func (s *Static) VerbClasses(word string) Set {
	return s.verbClasses[strings.ToLower(word)]
}

// Hypernyms implements Lexicon. Unknown words yield an empty set.
func (s *Static) Hypernyms(word string) Set {
	return s.hypernyms[strings.ToLower(word)]
}

// Mock is a configurable Lexicon for tests.
type Mock struct {
	VerbClassesFunc func(word string) Set
	HypernymsFunc   func(word string) Set
}

var _ Lexicon = (*Mock)(nil)

func (m *Mock) VerbClasses(word string) Set {
	if m.VerbClassesFunc != nil {
		return m.VerbClassesFunc(word)
	}
	return nil
}

func (m *Mock) Hypernyms(word string) Set {
	if m.HypernymsFunc != nil {
		return m.HypernymsFunc(word)
	}
	return nil
}
