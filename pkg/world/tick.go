package world

import (
	"sort"

	"github.com/generativefiction/fortuna-engine/pkg/console"
)

// ticThreshold is the accumulator value at which an agent emits a tic.
const ticThreshold = 100

// Step advances simulated time by one tick: agent tics roll, movement
// policies run, timed room text plays, and chapter events fire. Draw
// order is fixed so a given RNG state always produces the same tick.
func (w *World) Step() {
	if w.gameOver {
		return
	}
	w.timeInRoom++
	w.timeInChapter++

	w.rollTics()
	w.advanceAgents()

	if sections, ok := w.CurrentRoom().TicDescription(w.timeInRoom); ok {
		w.PlaySections(sections, console.StyleFlavor, false)
	}

	w.fireChapterEvents()
}

// rollTics accumulates each present agent's tic chance and emits one
// random ambient line when the accumulator fills.
func (w *World) rollTics() {
	for _, agent := range w.AgentsInRoom() {
		spec := agent.Spec
		if len(spec.TicCreatives) == 0 {
			continue
		}
		count, sides, err := parseDice(spec.TicChance)
		if err != nil || count == 0 {
			continue
		}
		agent.TicPercentage += w.rng.Roll(count, sides)
		if agent.TicPercentage < ticThreshold {
			continue
		}
		agent.TicPercentage = 0
		creative := spec.TicCreatives[w.rng.IntN(len(spec.TicCreatives))]
		w.PlaySections([]string{creative}, console.StyleFlavor, false)
	}
}

// advanceAgents runs every placed agent's movement policy, in stable
// identifier order.
func (w *World) advanceAgents() {
	ids := make([]string, 0, len(w.agents))
	for id := range w.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		agent := w.agents[id]
		if agent.RoomID == nil {
			continue
		}
		movementScriptFor(agent.Spec.ScriptID).Advance(w, agent)
	}
}

// fireChapterEvents plays any scripted event bound to the current
// chapter tick. The chapter and tick are captured up front so an event
// that starts a new chapter does not retrigger matching.
func (w *World) fireChapterEvents() {
	chapter, tick := w.onChapter, w.timeInChapter
	for _, event := range w.lib.Script {
		if event.Chapter != chapter || event.Tick != tick {
			continue
		}
		if event.Beat != "" {
			w.PlaySections(w.lib.Beats[event.Beat], console.StyleNormal, true)
		}
		if event.UnplaceAgent != "" {
			w.PlaceAgent(w.Agent(event.UnplaceAgent), "")
		}
		if event.StartChapter != 0 {
			w.StartChapter(event.StartChapter)
		}
	}
}
