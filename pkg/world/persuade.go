package world

import (
	"context"
	"fmt"

	"github.com/generativefiction/fortuna-engine/pkg/console"
)

// FriendThreshold is the friend-point total at which an agent counts
// as the player's friend and can be persuaded.
const FriendThreshold = 2

// Persuade asks a befriended agent for their chapter-specific favor.
// Agents below the friendship threshold refuse.
func (w *World) Persuade(ctx context.Context, agent *Agent) {
	if agent.FriendPoints < FriendThreshold {
		w.out.Warning(fmt.Sprintf("%s doesn't know you well enough for that.", agent.Name()))
		return
	}

	switch agent.ID() {
	case "port_security_officer":
		w.PlaySections(w.lib.Beats["persuade_port_security_officer"], console.StyleSuccess, true)

	case "research_scientist":
		if w.onChapter >= 6 {
			if !w.ActOn(ctx, "look", "painting") {
				w.out.Print(fmt.Sprintf("%s has nothing more to show you here.", agent.Name()))
			}
		} else {
			w.out.Print(fmt.Sprintf("%s smiles: \"Ask me again once the cruise is properly underway.\"", agent.Name()))
		}

	case "vip_reporter":
		if w.onChapter < 6 {
			w.out.Print(fmt.Sprintf("%s winks: \"I'll save my favors for when you really need one.\"", agent.Name()))
			return
		}
		if w.LetterFound("v") {
			w.out.Print(fmt.Sprintf("%s shakes her head: \"I've already told you everything I know.\"", agent.Name()))
			return
		}
		w.FindLetter("v")
		w.PlaySections(w.lib.Beats["persuade_vip_reporter"], console.StyleSuccess, true)

	default:
		w.out.Print(fmt.Sprintf("%s shrugs apologetically. \"I don't know how I could help you.\"", agent.Name()))
	}
}
