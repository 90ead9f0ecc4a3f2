package world

import (
	"fmt"
	"strconv"
	"strings"
)

// Gender of an agent profile.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// AgentProfile holds the descriptive attributes used to build prompt
// context for an agent. Name and race are required; the rest are
// optional. Immutable after load.
type AgentProfile struct {
	Name        string   `yaml:"name" json:"name"`
	Age         *int     `yaml:"age" json:"age,omitempty"`
	Race        string   `yaml:"race" json:"race"`
	Gender      *Gender  `yaml:"gender" json:"gender,omitempty"`
	Occupation  *string  `yaml:"occupation" json:"occupation,omitempty"`
	Personality []string `yaml:"personality" json:"personality,omitempty"`
	Backstory   []string `yaml:"backstory" json:"backstory,omitempty"`
	Appearance  []string `yaml:"physical appearance" json:"appearance,omitempty"`
	Hobbies     []string `yaml:"hobbies" json:"hobbies,omitempty"`
	Goals       []string `yaml:"goals" json:"goals,omitempty"`
}

// PlayerVisible returns a projection of the profile with private
// attributes removed, for read-only presentation to the player.
func (p *AgentProfile) PlayerVisible() *AgentProfile {
	return &AgentProfile{
		Name:       p.Name,
		Age:        p.Age,
		Race:       p.Race,
		Gender:     p.Gender,
		Appearance: p.Appearance,
	}
}

// AgentSpec is the immutable, shared definition of an agent, loaded
// once per process. Per-session mutable fields live on Agent.
type AgentSpec struct {
	ID      string
	Profile *AgentProfile

	// TicChance is a dice descriptor ("5d20") rolled per tick into
	// the agent's tic accumulator.
	TicChance    string
	TicCreatives []string

	FriendQuestions []string
	Notes           []string
	Aliases         []string

	StartingRoom *string
	ScriptID     ScriptID
}

// Agent is the per-session mutable overlay over an AgentSpec.
type Agent struct {
	Spec *AgentSpec

	// RoomID is nil when the agent is not placed in the world.
	RoomID        *string
	TicPercentage int
	FriendPoints  int
}

// NewAgent instantiates the mutable agent for one session.
func NewAgent(spec *AgentSpec) *Agent {
	a := &Agent{Spec: spec}
	if spec.StartingRoom != nil {
		room := *spec.StartingRoom
		a.RoomID = &room
	}
	return a
}

// ID returns the agent's stable identifier.
func (a *Agent) ID() string { return a.Spec.ID }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.Spec.Profile.Name }

// Names returns every name the agent answers to: aliases, full name,
// and first name.
func (a *Agent) Names() []string {
	names := append([]string(nil), a.Spec.Aliases...)
	if a.Spec.Profile.Name != "" {
		names = append(names, a.Spec.Profile.Name)
		if first, _, found := strings.Cut(a.Spec.Profile.Name, " "); found {
			names = append(names, first)
		}
	}
	return names
}

// AnswersToName reports whether the agent answers to the given name
// (case-insensitive).
func (a *Agent) AnswersToName(name string) bool {
	for _, n := range a.Names() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// parseDice parses a dice descriptor like "5d20" into count and sides.
// A trailing "t" (total) suffix from the content pipeline is accepted
// and ignored. "0d1" disables the roll.
func parseDice(descriptor string) (count, sides int, err error) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(descriptor)), "t")
	countStr, sidesStr, found := strings.Cut(d, "d")
	if !found {
		return 0, 0, fmt.Errorf("invalid dice descriptor %q", descriptor)
	}
	count, err = strconv.Atoi(countStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid dice count in %q", descriptor)
	}
	sides, err = strconv.Atoi(sidesStr)
	if err != nil || sides < 1 {
		return 0, 0, fmt.Errorf("invalid dice sides in %q", descriptor)
	}
	if count < 0 {
		return 0, 0, fmt.Errorf("invalid dice count in %q", descriptor)
	}
	return count, sides, nil
}
