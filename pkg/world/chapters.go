package world

import (
	"fmt"
	"strings"

	"github.com/generativefiction/fortuna-engine/pkg/console"
)

// passwordWord is the solution to the captain's terminal puzzle.
// Letter hints reference positions in this word.
const passwordWord = "poverty"

// StartChapter transitions to chapter n: plays the opening text,
// applies the chapter's agent activations and placements, and resets
// the chapter clock.
func (w *World) StartChapter(n int) {
	w.onChapter = n
	w.timeInChapter = 0

	if opening := w.lib.Openings[n]; len(opening) > 0 {
		w.PlaySections(opening, console.StyleNormal, true)
	}

	spec, ok := w.lib.Chapters[n]
	if !ok {
		return
	}
	for _, id := range spec.Activate {
		w.activeAgents[id] = struct{}{}
	}
	for id, roomID := range spec.MoveAgents {
		if roomID == nil {
			w.PlaceAgent(w.Agent(id), "")
		} else {
			w.PlaceAgent(w.Agent(id), *roomID)
		}
	}
	if spec.PlayerRoom != "" {
		w.moveTo(spec.PlayerRoom)
	}
}

// CurrentQuest returns the player-facing goal line for the current
// chapter, or empty when no goal is shown.
func (w *World) CurrentQuest() string {
	switch w.onChapter {
	case 1:
		return "Reach the cruise terminal and board the Fortuna."
	case 2:
		return "Explore the ship before she departs."
	case 3:
		return "Join the welcome tour on the bridge deck."
	case 4:
		return "Follow the tour and learn your way around."
	case 5:
		return "Make friends among the passengers."
	case 6, 7:
		return "Recover the captain's password. Letters so far: " + w.passwordHint()
	}
	return ""
}

// passwordHint lists found letters as letter-position pairs against the
// password word.
func (w *World) passwordHint() string {
	parts := make([]string, 0, len(w.lettersFound))
	for i, r := range passwordWord {
		letter := string(r)
		if w.LetterFound(letter) {
			parts = append(parts, fmt.Sprintf("%s-%d", letter, i+1))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
