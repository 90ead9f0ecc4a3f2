package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/generativefiction/fortuna-engine/pkg/lexicon"
	"github.com/generativefiction/fortuna-engine/pkg/markup"
)

// Library is the process-wide, read-only content store: rooms, scenery,
// agent definitions and chapter scripts, keyed by stable identifiers.
// Loaded once at startup; safe for unlimited concurrent readers.
type Library struct {
	Rooms      map[string]*Room
	AgentSpecs map[string]*AgentSpec

	// Chapters maps a chapter number to its transition spec.
	Chapters map[int]*ChapterSpec

	// Openings maps a chapter number to its opening narrative
	// sections.
	Openings map[int][]string

	// Script is the ordered (chapter, tick, action) event table
	// driving one-shot narrative beats.
	Script []ChapterEvent

	// Beats maps a beat identifier to narrative sections.
	Beats map[string][]string
}

// ChapterSpec describes a chapter transition: which agents become
// active, where the player and agents are placed.
type ChapterSpec struct {
	Activate   []string           `yaml:"activate"`
	PlayerRoom string             `yaml:"player_room"`
	MoveAgents map[string]*string `yaml:"move_agents"`
}

// ChapterEvent is one scripted beat fired at exact (chapter, tick)
// coordinates. Zero-valued actions are skipped.
type ChapterEvent struct {
	Chapter int `yaml:"chapter"`
	Tick    int `yaml:"tick"`

	Beat         string `yaml:"beat"`
	UnplaceAgent string `yaml:"unplace_agent"`
	StartChapter int    `yaml:"start_chapter"`
}

type roomYAML struct {
	Title string              `yaml:"title"`
	Exits map[string]exitYAML `yaml:"exits"`
}

type exitYAML struct {
	Room       string `yaml:"room"`
	Visible    string `yaml:"visible"`
	Prescript  string `yaml:"prescript"`
	Postscript string `yaml:"postscript"`
}

type sceneryYAML struct {
	Hints []string `yaml:"hints"`
	Rooms []string `yaml:"rooms"`
	Names []string `yaml:"names"`
}

type agentYAML struct {
	Profile         *AgentProfile `yaml:"Profile"`
	Tics            *ticsYAML     `yaml:"Tics"`
	FriendQuestions []string      `yaml:"friend_questions"`
	Notes           []string      `yaml:"notes"`
	Aliases         []string      `yaml:"aliases"`
	Movement        movementYAML  `yaml:"movement"`
}

type ticsYAML struct {
	PercentIncreasePerTick string   `yaml:"percent_increase_per_tick"`
	Creative               []string `yaml:"creative"`
}

type movementYAML struct {
	StartingRoom *string `yaml:"starting_room"`
	ScriptID     string  `yaml:"script_id"`
}

// LoadLibrary reads the content directory and builds the immutable
// content store. Any malformed content (missing required topic,
// duplicate identifier, dangling room reference, invalid script
// template) is a fatal load error.
func LoadLibrary(dataDir string) (*Library, error) {
	lib := &Library{
		Rooms:      make(map[string]*Room),
		AgentSpecs: make(map[string]*AgentSpec),
		Chapters:   make(map[int]*ChapterSpec),
		Openings:   make(map[int][]string),
		Beats:      make(map[string][]string),
	}

	roomDescriptions, _, err := loadTwoLevelMarkdown(filepath.Join(dataDir, "rooms", "room_descriptions.md"))
	if err != nil {
		return nil, fmt.Errorf("room descriptions: %w", err)
	}

	roomsData, err := os.ReadFile(filepath.Join(dataDir, "rooms", "rooms.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read rooms.yaml: %w", err)
	}
	var roomsYAML map[string]roomYAML
	if err := yaml.Unmarshal(roomsData, &roomsYAML); err != nil {
		return nil, fmt.Errorf("failed to parse rooms.yaml: %w", err)
	}
	for roomID, ry := range roomsYAML {
		descriptions, ok := roomDescriptions[roomID]
		if !ok {
			return nil, fmt.Errorf("room %q has no descriptions", roomID)
		}
		for _, required := range []string{TopicLong, TopicShort} {
			if _, ok := descriptions[required]; !ok {
				return nil, fmt.Errorf("room %q missing required topic %q", roomID, required)
			}
		}
		room := &Room{
			ID:           roomID,
			Title:        ry.Title,
			Descriptions: descriptions,
			Exits:        make(map[string]*Exit, len(ry.Exits)),
		}
		for direction, ey := range ry.Exits {
			for _, script := range []string{ey.Visible, ey.Prescript, ey.Postscript} {
				if err := CheckScript(script); err != nil {
					return nil, fmt.Errorf("room %q exit %q: %w", roomID, direction, err)
				}
			}
			room.Exits[strings.ToLower(direction)] = &Exit{
				RoomID:     ey.Room,
				Visible:    ey.Visible,
				Prescript:  ey.Prescript,
				Postscript: ey.Postscript,
			}
		}
		lib.Rooms[roomID] = room
	}

	// Dangling exits are content-integrity errors.
	for roomID, room := range lib.Rooms {
		for direction, exit := range room.Exits {
			if _, ok := lib.Rooms[exit.RoomID]; !ok {
				return nil, fmt.Errorf("room %q exit %q targets unknown room %q", roomID, direction, exit.RoomID)
			}
		}
	}

	sceneryActions, actionOrder, err := loadTwoLevelMarkdown(filepath.Join(dataDir, "rooms", "scenery_actions.md"))
	if err != nil {
		return nil, fmt.Errorf("scenery actions: %w", err)
	}
	sceneryData, err := os.ReadFile(filepath.Join(dataDir, "rooms", "scenery.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read scenery.yaml: %w", err)
	}
	var sceneriesYAML map[string]sceneryYAML
	if err := yaml.Unmarshal(sceneryData, &sceneriesYAML); err != nil {
		return nil, fmt.Errorf("failed to parse scenery.yaml: %w", err)
	}
	for sceneryID, sy := range sceneriesYAML {
		actions, ok := sceneryActions[sceneryID]
		if !ok {
			return nil, fmt.Errorf("scenery %q has no actions", sceneryID)
		}
		scenery := &Scenery{
			ID:      sceneryID,
			Hints:   sy.Hints,
			Rooms:   sy.Rooms,
			Names:   lexicon.NewSet(sy.Names...),
			Actions: orderedActions(actions, actionOrder[sceneryID]),
		}
		for _, roomID := range sy.Rooms {
			room, ok := lib.Rooms[roomID]
			if !ok {
				return nil, fmt.Errorf("scenery %q attached to unknown room %q", sceneryID, roomID)
			}
			room.Scenery = append(room.Scenery, scenery)
		}
	}

	// Bold scenery hint words in room text so players can spot
	// interactive objects.
	for _, room := range lib.Rooms {
		var hints []string
		for _, scenery := range room.Scenery {
			hints = append(hints, scenery.Hints...)
		}
		if len(hints) == 0 {
			continue
		}
		highlighter := markup.NewHighlighter(hints)
		for topic, sections := range room.Descriptions {
			for i, section := range sections {
				sections[i] = highlighter.Bold(section)
			}
			room.Descriptions[topic] = sections
		}
	}

	agentsData, err := os.ReadFile(filepath.Join(dataDir, "agents", "agents.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read agents.yaml: %w", err)
	}
	var agentsYAML map[string]agentYAML
	if err := yaml.Unmarshal(agentsData, &agentsYAML); err != nil {
		return nil, fmt.Errorf("failed to parse agents.yaml: %w", err)
	}
	for agentID, ay := range agentsYAML {
		spec, err := buildAgentSpec(agentID, ay)
		if err != nil {
			return nil, err
		}
		lib.AgentSpecs[agentID] = spec
	}

	if err := lib.loadChapters(dataDir); err != nil {
		return nil, err
	}

	return lib, nil
}

func buildAgentSpec(agentID string, ay agentYAML) (*AgentSpec, error) {
	if ay.Profile == nil {
		return nil, fmt.Errorf("agent %q has no profile", agentID)
	}
	if ay.Profile.Name == "" || ay.Profile.Race == "" {
		return nil, fmt.Errorf("agent %q profile missing name or race", agentID)
	}
	spec := &AgentSpec{
		ID:              agentID,
		Profile:         ay.Profile,
		TicChance:       "0d1",
		FriendQuestions: ay.FriendQuestions,
		Notes:           ay.Notes,
		Aliases:         ay.Aliases,
		StartingRoom:    ay.Movement.StartingRoom,
	}
	if ay.Tics != nil {
		spec.TicChance = ay.Tics.PercentIncreasePerTick
		spec.TicCreatives = ay.Tics.Creative
	}
	if _, _, err := parseDice(spec.TicChance); err != nil {
		return nil, fmt.Errorf("agent %q: %w", agentID, err)
	}
	scriptID, err := ParseScriptID(ay.Movement.ScriptID)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", agentID, err)
	}
	spec.ScriptID = scriptID
	return spec, nil
}

func (lib *Library) loadChapters(dataDir string) error {
	chaptersData, err := os.ReadFile(filepath.Join(dataDir, "chapters", "chapters.yaml"))
	if err != nil {
		return fmt.Errorf("failed to read chapters.yaml: %w", err)
	}
	if err := yaml.Unmarshal(chaptersData, &lib.Chapters); err != nil {
		return fmt.Errorf("failed to parse chapters.yaml: %w", err)
	}
	for n, spec := range lib.Chapters {
		if spec.PlayerRoom != "" {
			if _, ok := lib.Rooms[spec.PlayerRoom]; !ok {
				return fmt.Errorf("chapter %d places player in unknown room %q", n, spec.PlayerRoom)
			}
		}
		for agentID, roomID := range spec.MoveAgents {
			if _, ok := lib.AgentSpecs[agentID]; !ok {
				return fmt.Errorf("chapter %d moves unknown agent %q", n, agentID)
			}
			if roomID != nil {
				if _, ok := lib.Rooms[*roomID]; !ok {
					return fmt.Errorf("chapter %d moves agent %q to unknown room %q", n, agentID, *roomID)
				}
			}
		}
	}

	scriptData, err := os.ReadFile(filepath.Join(dataDir, "chapters", "chapter_script.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read chapter_script.yaml: %w", err)
		}
	} else if err := yaml.Unmarshal(scriptData, &lib.Script); err != nil {
		return fmt.Errorf("failed to parse chapter_script.yaml: %w", err)
	}

	beatsPath := filepath.Join(dataDir, "chapters", "beats.md")
	if _, err := os.Stat(beatsPath); err == nil {
		beats, err := loadOneLevelMarkdown(beatsPath)
		if err != nil {
			return fmt.Errorf("beats: %w", err)
		}
		lib.Beats = beats
	}

	for chapter := range lib.Chapters {
		path := filepath.Join(dataDir, "chapters", fmt.Sprintf("start_ch%d.md", chapter))
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // chapters without an opening are allowed
			}
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		lib.Openings[chapter] = SplitSections(string(data))
	}

	return nil
}

// orderedActions converts a topic map into the declared-order action
// list, using the topic order recorded during parsing.
func orderedActions(actions map[string][]string, order []string) []SceneryAction {
	out := make([]SceneryAction, 0, len(actions))
	for _, verb := range order {
		out = append(out, SceneryAction{Verb: strings.ToLower(verb), Sections: actions[verb]})
	}
	return out
}

// loadTwoLevelMarkdown parses the content convention of top-level
// headings as entity identifiers and second-level headings as
// topic/action keys, with paragraph-break-delimited sections and
// explicit pagination markers. The second return value records topic
// declaration order per entity.
func loadTwoLevelMarkdown(path string) (map[string]map[string][]string, map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parseTwoLevelMarkdown(string(data))
}

func parseTwoLevelMarkdown(data string) (map[string]map[string][]string, map[string][]string, error) {
	raw := make(map[string]map[string][]string)
	order := make(map[string][]string)

	currentEntity := ""
	currentTopic := ""
	for _, section := range strings.Split(data, "\n\n") {
		switch {
		case strings.HasPrefix(section, "##"):
			currentTopic = strings.TrimSpace(section[2:])
			if currentEntity == "" {
				return nil, nil, fmt.Errorf("topic %q appears before any entity heading", currentTopic)
			}
			if _, ok := raw[currentEntity][currentTopic]; ok {
				return nil, nil, fmt.Errorf("duplicate topic %q for entity %q", currentTopic, currentEntity)
			}
			raw[currentEntity][currentTopic] = []string{}
			order[currentEntity] = append(order[currentEntity], currentTopic)
		case strings.HasPrefix(section, "#"):
			currentEntity = strings.TrimSpace(section[1:])
			currentTopic = ""
			if _, ok := raw[currentEntity]; ok {
				return nil, nil, fmt.Errorf("duplicate entity %q", currentEntity)
			}
			raw[currentEntity] = make(map[string][]string)
		default:
			if strings.TrimSpace(section) == "" {
				continue
			}
			if currentEntity == "" || currentTopic == "" {
				return nil, nil, fmt.Errorf("text outside of any entity/topic heading: %q", truncate(section, 40))
			}
			raw[currentEntity][currentTopic] = append(raw[currentEntity][currentTopic], section)
		}
	}

	// Rejoin each topic and split on pagination markers.
	out := make(map[string]map[string][]string, len(raw))
	for entity, topics := range raw {
		out[entity] = make(map[string][]string, len(topics))
		for topic, sections := range topics {
			out[entity][topic] = SplitSections(strings.Join(sections, "\n\n"))
		}
	}
	return out, order, nil
}

// loadOneLevelMarkdown parses beat files: top-level headings as beat
// identifiers, sections and pagination markers within.
func loadOneLevelMarkdown(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	raw := make(map[string][]string)
	current := ""
	for _, section := range strings.Split(string(data), "\n\n") {
		switch {
		case strings.HasPrefix(section, "#"):
			current = strings.TrimSpace(strings.TrimLeft(section, "#"))
			if _, ok := raw[current]; ok {
				return nil, fmt.Errorf("duplicate beat %q", current)
			}
			raw[current] = []string{}
		default:
			if strings.TrimSpace(section) == "" {
				continue
			}
			if current == "" {
				return nil, fmt.Errorf("text outside of any beat heading: %q", truncate(section, 40))
			}
			raw[current] = append(raw[current], section)
		}
	}

	out := make(map[string][]string, len(raw))
	for beat, sections := range raw {
		out[beat] = SplitSections(strings.Join(sections, "\n\n"))
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
