package world

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/generativefiction/fortuna-engine/pkg/console"
	"github.com/generativefiction/fortuna-engine/pkg/imagegen"
	"github.com/generativefiction/fortuna-engine/pkg/lexicon"
	"github.com/generativefiction/fortuna-engine/pkg/markup"
)

// Version is the save-format version. Snapshots from a different
// version are incompatible; there is no migration path.
const Version = 3

// PlayerName is the protagonist's name, used in dialogue priming.
const PlayerName = "Alfred"

// DefaultGuideAgentID is the agent that keeps the player with the tour
// during chapters 3 and 4.
const DefaultGuideAgentID = "tour_guide"

// TokenGameOver marks the session terminal when emitted by a script.
const TokenGameOver = "GameOver"

// Converser is the slice of the conversation service the engine needs
// for object/agent description. Defined here so world does not import
// the conversation package.
type Converser interface {
	// DescribeCharacter generates a player-facing description of an
	// agent.
	DescribeCharacter(ctx context.Context, agent *Agent) (string, error)

	// ImproviseScenery generates a description for an object the
	// content never defined, grounded in the current room's text.
	ImproviseScenery(ctx context.Context, objectName, roomTitle, roomText string) (string, error)
}

// Options configures a session's World.
type Options struct {
	Out    *console.Buffer
	Lex    lexicon.Lexicon
	Conv   Converser // nil disables generated descriptions
	Images imagegen.Renderer
	Logger *slog.Logger

	Seed uint64

	// ImprovScenery permits LLM-improvised descriptions for unknown
	// objects on "look".
	ImprovScenery bool

	// GuideAgentID overrides the default tour guide identifier.
	GuideAgentID string
}

// World owns the mutable simulation state for one session. It is
// single-writer: one command fully resolves before the next is
// accepted. Shared content (rooms, agent specs) is read-only.
type World struct {
	lib    *Library
	agents map[string]*Agent

	waitingForPlayer bool
	activeAgents     map[string]struct{}
	currentRoomID    string
	timeInRoom       int
	visitedRooms     map[string]struct{}
	onChapter        int
	timeInChapter    int
	inventory        []string
	gameOver         bool
	lettersFound     map[string]struct{}

	rng *RNG

	out           *console.Buffer
	lex           lexicon.Lexicon
	conv          Converser
	images        imagegen.Renderer
	logger        *slog.Logger
	improvScenery bool
	guideAgentID  string
}

// New builds a fresh session world over the shared content library.
func New(lib *Library, opts Options) *World {
	if opts.Out == nil {
		opts.Out = console.NewBuffer()
	}
	if opts.Lex == nil {
		opts.Lex = lexicon.NewStatic()
	}
	if opts.Images == nil {
		opts.Images = imagegen.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	if opts.GuideAgentID == "" {
		opts.GuideAgentID = DefaultGuideAgentID
	}

	w := &World{
		lib:              lib,
		agents:           make(map[string]*Agent, len(lib.AgentSpecs)),
		waitingForPlayer: true,
		activeAgents:     make(map[string]struct{}),
		visitedRooms:     make(map[string]struct{}),
		inventory:        make([]string, 0),
		lettersFound:     make(map[string]struct{}),
		rng:              NewRNG(opts.Seed),
		out:              opts.Out,
		lex:              opts.Lex,
		conv:             opts.Conv,
		images:           opts.Images,
		logger:           opts.Logger,
		improvScenery:    opts.ImprovScenery,
		guideAgentID:     opts.GuideAgentID,
	}
	for id, spec := range lib.AgentSpecs {
		w.agents[id] = NewAgent(spec)
	}
	return w
}

// Output returns the session's output buffer.
func (w *World) Output() *console.Buffer { return w.out }

// Library returns the shared content store.
func (w *World) Library() *Library { return w.lib }

// Agent returns the agent with the given identifier. A miss is a
// content-integrity violation.
func (w *World) Agent(id string) *Agent {
	a, ok := w.agents[id]
	if !ok {
		panic(fmt.Sprintf("world: unknown agent %q", id))
	}
	return a
}

// HasAgent reports whether the content defines the agent.
func (w *World) HasAgent(id string) bool {
	_, ok := w.agents[id]
	return ok
}

// CurrentRoom returns the player's room. The current room identifier
// always names a valid room; a miss means corrupted content or state
// and is fatal.
func (w *World) CurrentRoom() *Room {
	room, ok := w.lib.Rooms[w.currentRoomID]
	if !ok {
		panic(fmt.Sprintf("world: current room %q not in room table", w.currentRoomID))
	}
	return room
}

// CurrentRoomID returns the player's room identifier.
func (w *World) CurrentRoomID() string { return w.currentRoomID }

// TimeInRoom returns ticks elapsed in the current room.
func (w *World) TimeInRoom() int { return w.timeInRoom }

// TimeInChapter returns ticks elapsed in the current chapter.
func (w *World) TimeInChapter() int { return w.timeInChapter }

// Chapter returns the current chapter number.
func (w *World) Chapter() int { return w.onChapter }

// GameOver reports whether the session reached a terminal state.
func (w *World) GameOver() bool { return w.gameOver }

// WaitingForPlayer reports whether the engine expects player input
// (false while auto-advancing).
func (w *World) WaitingForPlayer() bool { return w.waitingForPlayer }

// SetWaitingForPlayer toggles the auto-advance flag.
func (w *World) SetWaitingForPlayer(v bool) { w.waitingForPlayer = v }

// Inventory returns the ordered item list.
func (w *World) Inventory() []string { return w.inventory }

// HasItem reports whether the inventory holds the item. Exported for
// script templates.
func (w *World) HasItem(item string) bool {
	for _, it := range w.inventory {
		if it == item {
			return true
		}
	}
	return false
}

// AddItem appends an item to the inventory if not already held.
func (w *World) AddItem(item string) {
	if !w.HasItem(item) {
		w.inventory = append(w.inventory, item)
	}
}

// RemoveItem drops an item from the inventory.
func (w *World) RemoveItem(item string) {
	for i, it := range w.inventory {
		if it == item {
			w.inventory = append(w.inventory[:i], w.inventory[i+1:]...)
			return
		}
	}
}

// Visited reports whether the player has visited the room. Exported
// for script templates.
func (w *World) Visited(roomID string) bool {
	_, ok := w.visitedRooms[roomID]
	return ok
}

// FriendsWith reports whether the agent reached the friendship
// threshold. Exported for script templates.
func (w *World) FriendsWith(agentID string) bool {
	a, ok := w.agents[agentID]
	return ok && a.FriendPoints >= FriendThreshold
}

// LetterFound reports whether a puzzle letter was discovered. Exported
// for script templates.
func (w *World) LetterFound(letter string) bool {
	_, ok := w.lettersFound[strings.ToLower(letter)]
	return ok
}

// FindLetter records a discovered puzzle letter.
func (w *World) FindLetter(letter string) {
	w.lettersFound[strings.ToLower(letter)] = struct{}{}
}

// IsActive reports whether the agent is in the active set.
func (w *World) IsActive(agentID string) bool {
	_, ok := w.activeAgents[agentID]
	return ok
}

// AgentsInRoom returns the agents standing in the player's room, in
// stable identifier order.
func (w *World) AgentsInRoom() []*Agent {
	var out []*Agent
	for _, a := range w.agents {
		if a.RoomID != nil && *a.RoomID == w.currentRoomID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Agents returns the full agent table.
func (w *World) Agents() map[string]*Agent { return w.agents }

// RNG returns the session's deterministic random source.
func (w *World) RNG() *RNG { return w.rng }

// Direction handling: short aliases expand to long forms, matching is
// case-insensitive.
var directionAliases = map[string]string{
	"n": "north",
	"s": "south",
	"e": "east",
	"w": "west",
	"u": "up",
	"d": "down",
}

var directions = map[string]struct{}{
	"north": {}, "south": {}, "east": {}, "west": {}, "up": {}, "down": {},
}

// NormalizeDirection lowercases and expands a direction word
// ("N" -> "north").
func NormalizeDirection(word string) string {
	word = strings.ToLower(word)
	if long, ok := directionAliases[word]; ok {
		return long
	}
	return word
}

// IsDirection reports whether the word is a direction verb.
func IsDirection(word string) bool {
	_, ok := directions[NormalizeDirection(word)]
	return ok
}

// Go attempts to move the player in the given direction. Returns false
// on any soft failure (no exit, invisible exit, blocked by the guide,
// vetoed by a prescript); world state is unchanged on failure except
// for prescript narration.
func (w *World) Go(direction string) bool {
	direction = NormalizeDirection(direction)
	exit, ok := w.CurrentRoom().Exits[direction]
	if !ok {
		w.out.Warning("You can't go that way.")
		return false
	}

	// During the tour chapters the guide keeps the group together.
	if w.onChapter == 3 || w.onChapter == 4 {
		if guide, ok := w.agents[w.guideAgentID]; ok && guide.RoomID != nil && *guide.RoomID == w.currentRoomID {
			w.out.Print(fmt.Sprintf("%s holds up a hand: \"Please stay close to me until the tour is over.  Soak up the sights and sounds!  There will be plenty of time to go back and visit a spot we missed.  Thank you!\"", guide.Name()))
			return false
		}
	}

	if !w.exitVisible(exit) {
		w.out.Warning("You can't go that way.")
		return false
	}

	if exit.Prescript != "" {
		rendered, tokens, err := w.Eval(exit.Prescript)
		if err != nil {
			w.logger.Error("Exit prescript failed", "room", w.currentRoomID, "direction", direction, "error", err)
			w.out.Warning("You can't go that way.")
			return false
		}
		if len(strings.TrimSpace(rendered)) > 0 {
			// Already rendered; printing must not re-evaluate it.
			w.printSections(SplitSections(rendered), console.StyleNormal, true)
		}
		if hasToken(tokens, TokenFalse) {
			return false
		}
	}

	w.moveTo(exit.RoomID)

	if exit.Postscript != "" {
		if _, tokens, err := w.Eval(exit.Postscript); err != nil {
			w.logger.Error("Exit postscript failed", "room", w.currentRoomID, "direction", direction, "error", err)
		} else {
			w.applyTokens(tokens)
		}
	}
	return true
}

// applyTokens executes side-effect control tokens emitted by a script.
func (w *World) applyTokens(tokens []string) {
	for _, token := range tokens {
		switch {
		case token == TokenGameOver:
			w.gameOver = true
		case strings.HasPrefix(token, TokenStartChapterPrefix):
			n, err := strconv.Atoi(strings.TrimPrefix(token, TokenStartChapterPrefix))
			if err != nil {
				w.logger.Error("Invalid chapter token", "token", token)
				continue
			}
			w.StartChapter(n)
		case strings.HasPrefix(token, TokenFindLetterPrefix):
			w.FindLetter(strings.TrimPrefix(token, TokenFindLetterPrefix))
		}
	}
}

// moveTo commits a move: updates the current room, resets the in-room
// tick counter, and plays the appropriate description.
func (w *World) moveTo(roomID string) {
	if _, ok := w.lib.Rooms[roomID]; !ok {
		panic(fmt.Sprintf("world: move to unknown room %q", roomID))
	}
	w.currentRoomID = roomID
	w.timeInRoom = 0
	if w.Visited(roomID) {
		w.LookQuickly()
	} else {
		w.visitedRooms[roomID] = struct{}{}
		w.Look()
	}
}

// exitVisible evaluates the exit's visibility predicate. An exit with
// no predicate is always visible.
func (w *World) exitVisible(exit *Exit) bool {
	if exit.Visible == "" {
		return true
	}
	_, tokens, err := w.Eval(exit.Visible)
	if err != nil {
		w.logger.Error("Exit visibility predicate failed", "error", err)
		return false
	}
	return !hasToken(tokens, TokenFalse)
}

// Look plays the full room description and marks the header/footer.
func (w *World) Look() {
	room := w.CurrentRoom()
	w.printHeader()
	w.PlaySections(room.Descriptions[TopicLong], console.StyleNormal, false)
	w.displayRoomImage(room)
	w.printFooter()
}

// LookQuickly plays the abbreviated description for a revisited room.
func (w *World) LookQuickly() {
	room := w.CurrentRoom()
	w.printHeader()
	w.PlaySections(room.Descriptions[TopicShort], console.StyleNormal, false)
	w.displayRoomImage(room)
	w.printFooter()
}

func (w *World) displayRoomImage(room *Room) {
	long := room.Descriptions[TopicLong]
	if len(long) == 0 {
		return
	}
	first, _, _ := strings.Cut(long[0], "\n\n")
	w.images.Display(first)
}

func (w *World) printHeader() {
	w.printGoal()
	w.out.PrintStyled(w.CurrentRoom().Title, console.StyleHeader)
}

func (w *World) printGoal() {
	if quest := w.CurrentQuest(); quest != "" {
		w.out.PrintStyled("Your current goal is: "+quest, console.StyleGoal)
	}
}

func (w *World) printFooter() {
	w.printAgents()
	w.printExits()
}

func (w *World) printAgents() {
	agents := w.AgentsInRoom()
	if len(agents) == 0 {
		return
	}
	lines := make([]string, 0, len(agents)+1)
	lines = append(lines, "**People Here:**")
	for _, a := range agents {
		lines = append(lines, fmt.Sprintf("* %s is standing here.", a.Name()))
	}
	w.out.Print(strings.Join(lines, "\n"))
}

func (w *World) printExits() {
	room := w.CurrentRoom()
	dirs := make([]string, 0, len(room.Exits))
	for direction := range room.Exits {
		dirs = append(dirs, direction)
	}
	sort.Strings(dirs)

	lines := make([]string, 0, len(dirs)+1)
	lines = append(lines, "**Exits:**")
	for _, direction := range dirs {
		exit := room.Exits[direction]
		if !w.exitVisible(exit) {
			continue
		}
		target, ok := w.lib.Rooms[exit.RoomID]
		if !ok {
			panic(fmt.Sprintf("world: exit to unknown room %q", exit.RoomID))
		}
		lines = append(lines, fmt.Sprintf("* %s: **%s**", markup.Title(direction), target.Title))
	}
	if len(lines) == 1 {
		return
	}
	w.out.Print(strings.Join(lines, "\n"))
}

// PlaySections renders and prints templated sections, one message per
// section, optionally with pagination pauses between them. Control
// tokens are honored.
func (w *World) PlaySections(sections []string, style console.Style, insertPauses bool) {
	for i, section := range sections {
		if i > 0 && insertPauses {
			w.out.Pause()
		}
		rendered, tokens, err := w.Eval(section)
		if err != nil {
			w.logger.Error("Section render failed", "error", err)
			continue
		}
		w.applyTokens(tokens)
		w.printSection(rendered, style)
	}
}

// printSections prints sections that have already been rendered, with
// no template evaluation or token handling.
func (w *World) printSections(sections []string, style console.Style, insertPauses bool) {
	for i, section := range sections {
		if i > 0 && insertPauses {
			w.out.Pause()
		}
		w.printSection(section, style)
	}
}

func (w *World) printSection(rendered string, style console.Style) {
	rendered = strings.TrimSpace(rendered)
	if len(rendered) > 0 && rendered != "None" {
		w.out.PrintStyled(rendered, style)
	}
}

// SendAgent walks an agent through an exit of its current room,
// narrating when the player can see it.
func (w *World) SendAgent(agent *Agent, direction string) {
	if agent.RoomID == nil {
		panic(fmt.Sprintf("world: agent %q moved while unplaced", agent.ID()))
	}
	direction = NormalizeDirection(direction)
	agentRoom, ok := w.lib.Rooms[*agent.RoomID]
	if !ok {
		panic(fmt.Sprintf("world: agent %q in unknown room %q", agent.ID(), *agent.RoomID))
	}
	exit, ok := agentRoom.Exits[direction]
	if !ok {
		panic(fmt.Sprintf("world: agent %q has no %q exit from %q", agent.ID(), direction, agentRoom.ID))
	}
	if *agent.RoomID == w.currentRoomID {
		w.out.Print(fmt.Sprintf("%s walks %s.", agent.Name(), direction))
	}
	w.PlaceAgent(agent, exit.RoomID)
	if agent.RoomID != nil && *agent.RoomID == w.currentRoomID {
		w.out.Print(fmt.Sprintf("%s walks in.", agent.Name()))
	}
}

// PlaceAgent puts an agent in a room, or removes it from the world
// when roomID is empty.
func (w *World) PlaceAgent(agent *Agent, roomID string) {
	if roomID == "" {
		agent.RoomID = nil
		return
	}
	if _, ok := w.lib.Rooms[roomID]; !ok {
		panic(fmt.Sprintf("world: place agent %q in unknown room %q", agent.ID(), roomID))
	}
	r := roomID
	agent.RoomID = &r
}

// ActOn resolves a (verb, object) action against agents and scenery in
// the current room. Returns false when nothing matched; the caller
// reports the soft failure.
func (w *World) ActOn(ctx context.Context, verb, object string) bool {
	verb = strings.ToLower(verb)
	parts := strings.Fields(object)
	trailing := object
	if len(parts) > 0 {
		trailing = parts[len(parts)-1]
	}

	// A "look" aimed at a present agent yields a generated character
	// description.
	if verb == "look" && w.conv != nil {
		for _, agent := range w.AgentsInRoom() {
			if agent.AnswersToName(trailing) {
				description, err := w.conv.DescribeCharacter(ctx, agent)
				if err != nil {
					w.logger.Error("Character description failed", "agent", agent.ID(), "error", err)
					w.out.Warning(fmt.Sprintf("%s seems lost in thought.", agent.Name()))
					return true
				}
				w.images.Display("Portrait of character with description: " + description)
				w.out.Print(description)
				return true
			}
		}
	}

	hypernyms := w.lex.Hypernyms(trailing)
	object = strings.ToLower(object)
	trailing = strings.ToLower(trailing)
	for _, scenery := range w.CurrentRoom().Scenery {
		if !scenery.MatchesObject(object, trailing, hypernyms) {
			continue
		}
		action := scenery.ActionFor(verb, w.lex)
		if action == nil {
			continue
		}
		w.PlaySections(action.Sections, console.StyleAction, false)
		if verb == "look" && len(action.Sections) > 0 {
			first, _, _ := strings.Cut(action.Sections[0], "\n\n")
			w.images.Display(first)
		}
		return true
	}

	if verb == "look" && w.improvScenery && w.conv != nil {
		room := w.CurrentRoom()
		improvised, err := w.conv.ImproviseScenery(ctx, object, room.Title, strings.Join(room.Descriptions[TopicLong], "\n\n"))
		if err != nil {
			w.logger.Error("Improvised scenery failed", "object", object, "error", err)
			return false
		}
		if improvised == "" {
			return false
		}
		if strings.Count(improvised, ".") > 1 {
			// Only draw objects with more than one sentence of
			// description.
			w.images.Display(improvised)
		}
		w.out.Print(improvised)
		return true
	}

	return false
}
