// Package game is the command layer: it parses player input, drives
// the world engine, and routes conversation through the language model
// service.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/generativefiction/fortuna-engine/pkg/console"
	"github.com/generativefiction/fortuna-engine/pkg/lexicon"
	"github.com/generativefiction/fortuna-engine/pkg/world"
)

// maxAutoTicks bounds the auto-advance loop so a script that never
// returns control to the player cannot spin forever.
const maxAutoTicks = 25

// Converser is the conversational capability the session consumes.
// Implemented by conversation.Service.
type Converser interface {
	Converse(ctx context.Context, agent *world.Agent, statement string) (string, error)
	CheckIfMoreFriendly(ctx context.Context, agent *world.Agent, statement string) (bool, error)
}

// Session binds one player's world to the command loop.
type Session struct {
	World  *world.World
	Conv   Converser
	Lex    lexicon.Lexicon
	Logger *slog.Logger
}

// NewSession wires a session over an existing world.
func NewSession(w *world.World, conv Converser, lex lexicon.Lexicon, logger *slog.Logger) *Session {
	if lex == nil {
		lex = lexicon.NewStatic()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{World: w, Conv: conv, Lex: lex, Logger: logger}
}

// HandleCommand processes one line of player input. Output accumulates
// in the world's console buffer; the caller drains it.
func (s *Session) HandleCommand(ctx context.Context, command string) {
	w := s.World
	out := w.Output()

	if w.GameOver() {
		out.Warning("The story is over.")
		return
	}

	command = strings.TrimSpace(command)
	if command == "" {
		out.Warning("Say something, or type a command like \"look\" or \"north\".")
		return
	}

	fields := strings.Fields(command)
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(command[len(fields[0]):])

	switch {
	case world.IsDirection(verb):
		s.handleGo(verb)

	case verb == "wait" || verb == "z":
		out.Print("Time passes.")
		s.advance()

	case verb == "inventory" || verb == "i":
		s.printInventory()

	case verb == "look" || verb == "l":
		if rest == "" {
			w.Look()
			s.advance()
		} else {
			s.handleActOn(ctx, "look", rest)
		}

	case verb == "persuade":
		s.handlePersuade(ctx, rest)

	case s.hasClass(verb, lexicon.ClassMotion):
		if rest == "" || !world.IsDirection(rest) {
			out.Warning(fmt.Sprintf("%s where? Try a direction, like \"go north\".", fields[0]))
			return
		}
		s.handleGo(rest)

	case s.hasClass(verb, lexicon.ClassCommunication):
		s.handleTell(ctx, verb, rest)

	case rest != "":
		s.handleActOn(ctx, verb, rest)

	default:
		out.Warning(fmt.Sprintf("I don't understand %q.", command))
	}
}

func (s *Session) hasClass(verb, class string) bool {
	return s.Lex.VerbClasses(verb).Contains(class)
}

func (s *Session) handleGo(direction string) {
	if s.World.Go(direction) {
		s.advance()
	}
}

func (s *Session) handleActOn(ctx context.Context, verb, object string) {
	if s.World.ActOn(ctx, verb, object) {
		s.advance()
		return
	}
	s.World.Output().Warning(fmt.Sprintf("Could not find a %s to %s.", object, verb))
}

func (s *Session) printInventory() {
	out := s.World.Output()
	items := s.World.Inventory()
	if len(items) == 0 {
		out.Print("You are carrying nothing.")
		return
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "**You are carrying:**")
	for _, item := range items {
		lines = append(lines, "* "+item)
	}
	out.Print(strings.Join(lines, "\n"))
}

func (s *Session) handlePersuade(ctx context.Context, name string) {
	out := s.World.Output()
	if name == "" {
		out.Warning("Persuade whom?")
		return
	}
	agent, nearby := s.findAgent(name)
	if agent == nil {
		out.Warning(fmt.Sprintf("You don't know who %s is.", name))
		return
	}
	if !nearby {
		out.Warning(fmt.Sprintf("%s is not nearby.", agent.Name()))
		return
	}
	s.World.Persuade(ctx, agent)
	s.advance()
}

// handleTell parses 'tell <name> "statement"' and runs the exchange.
// The statement must be quoted so names with spaces stay unambiguous.
func (s *Session) handleTell(ctx context.Context, verb, rest string) {
	out := s.World.Output()

	name, statement, ok := splitQuoted(rest)
	if !ok {
		out.Warning(fmt.Sprintf("Put what you want to say in quotes, like: %s guard \"hello there\".", verb))
		return
	}

	agent, nearby := s.findAgent(name)
	if agent == nil {
		out.Warning(fmt.Sprintf("You don't know who %s is.", name))
		return
	}
	if !nearby {
		out.Warning(fmt.Sprintf("%s is not nearby.", agent.Name()))
		return
	}

	answer, err := s.Conv.Converse(ctx, agent, statement)
	if err != nil {
		s.Logger.Error("Conversation failed", "agent", agent.ID(), "error", err)
		out.Warning(fmt.Sprintf("%s doesn't seem to hear you.", agent.Name()))
		return
	}
	out.Print(fmt.Sprintf("%s: \"%s\"", agent.Name(), answer))

	s.awardFriendPoints(ctx, agent, statement)
	s.advance()
}

// awardFriendPoints probes whether the statement improved the agent's
// disposition and reports threshold crossings to the player.
func (s *Session) awardFriendPoints(ctx context.Context, agent *world.Agent, statement string) {
	if len(agent.Spec.FriendQuestions) == 0 || agent.FriendPoints >= world.FriendThreshold {
		return
	}
	friendly, err := s.Conv.CheckIfMoreFriendly(ctx, agent, statement)
	if err != nil {
		s.Logger.Warn("Friendliness check failed", "agent", agent.ID(), "error", err)
		return
	}
	if !friendly {
		return
	}

	out := s.World.Output()
	agent.FriendPoints++
	if agent.FriendPoints >= world.FriendThreshold {
		out.PrintStyled(fmt.Sprintf("%s is now your friend!", agent.Name()), console.StyleSuccess)
		if beat := s.World.Library().Beats["friend_"+agent.ID()]; len(beat) > 0 {
			s.World.PlaySections(beat, console.StyleNormal, true)
		}
	} else {
		out.PrintStyled(fmt.Sprintf("%s seems to feel more friendly toward you.", agent.Name()), console.StyleSuccess)
	}
}

// findAgent looks the name up among active agents. The second return
// reports whether the agent shares the player's room.
func (s *Session) findAgent(name string) (agent *world.Agent, nearby bool) {
	w := s.World
	for _, a := range w.AgentsInRoom() {
		if a.AnswersToName(name) {
			return a, true
		}
	}
	for id, a := range w.Agents() {
		if w.IsActive(id) && a.AnswersToName(name) {
			return a, false
		}
	}
	return nil, false
}

// advance steps the clock after a state-changing command, then keeps
// stepping while a script holds control away from the player.
func (s *Session) advance() {
	w := s.World
	w.Step()
	for i := 0; i < maxAutoTicks && !w.WaitingForPlayer() && !w.GameOver(); i++ {
		w.Step()
	}
	w.SetWaitingForPlayer(true)
}

// splitQuoted splits `name "statement"` into its parts.
func splitQuoted(input string) (name, statement string, ok bool) {
	open := strings.Index(input, "\"")
	if open < 0 {
		return "", "", false
	}
	end := strings.LastIndex(input, "\"")
	if end <= open {
		return "", "", false
	}
	name = strings.TrimSpace(input[:open])
	statement = strings.TrimSpace(input[open+1 : end])
	if name == "" || statement == "" {
		return "", "", false
	}
	return name, statement, true
}
