package game

import (
	"context"
	"strings"
	"testing"

	"github.com/generativefiction/fortuna-engine/pkg/console"
	"github.com/generativefiction/fortuna-engine/pkg/lexicon"
	"github.com/generativefiction/fortuna-engine/pkg/world"
)

type mockConverser struct {
	answer   string
	friendly bool

	converseCalls int
	friendlyCalls int
}

func (m *mockConverser) Converse(ctx context.Context, agent *world.Agent, statement string) (string, error) {
	m.converseCalls++
	return m.answer, nil
}

func (m *mockConverser) CheckIfMoreFriendly(ctx context.Context, agent *world.Agent, statement string) (bool, error) {
	m.friendlyCalls++
	return m.friendly, nil
}

func strptr(s string) *string { return &s }

func sessionLibrary() *world.Library {
	rooms := map[string]*world.Room{
		"quay": {
			ID:    "quay",
			Title: "Quay",
			Descriptions: map[string][]string{
				world.TopicLong:  {"A stone quay slick with spray."},
				world.TopicShort: {"The quay."},
			},
			Exits: map[string]*world.Exit{
				"north": {RoomID: "gangway"},
			},
			Scenery: []*world.Scenery{
				{
					ID:    "bollard",
					Names: lexicon.NewSet("bollard", "post"),
					Actions: []world.SceneryAction{
						{Verb: "look", Sections: []string{"Rope-scarred iron."}},
					},
				},
			},
		},
		"gangway": {
			ID:    "gangway",
			Title: "Gangway",
			Descriptions: map[string][]string{
				world.TopicLong:  {"The gangway sways underfoot."},
				world.TopicShort: {"The gangway."},
			},
			Exits: map[string]*world.Exit{
				"south": {RoomID: "quay"},
			},
		},
	}
	agents := map[string]*world.AgentSpec{
		"guard": {
			ID:              "guard",
			Profile:         &world.AgentProfile{Name: "Brun Halloway", Race: "human"},
			TicChance:       "0d1",
			Aliases:         []string{"guard"},
			FriendQuestions: []string{"would Brun approve?"},
			StartingRoom:    strptr("quay"),
			ScriptID:        world.ScriptStationary,
		},
		"cook": {
			ID:           "cook",
			Profile:      &world.AgentProfile{Name: "Etta May", Race: "human"},
			TicChance:    "0d1",
			Aliases:      []string{"cook"},
			StartingRoom: strptr("gangway"),
			ScriptID:     world.ScriptStationary,
		},
	}
	return &world.Library{
		Rooms:      rooms,
		AgentSpecs: agents,
		Chapters: map[int]*world.ChapterSpec{
			1: {Activate: []string{"guard", "cook"}, PlayerRoom: "quay"},
		},
		Openings: map[int][]string{},
		Beats:    map[string][]string{},
	}
}

func newTestSession(t *testing.T, conv Converser) *Session {
	t.Helper()
	w := world.New(sessionLibrary(), world.Options{Seed: 3})
	s := NewSession(w, conv, lexicon.NewStatic(), nil)
	w.StartChapter(1)
	w.Output().Drain()
	return s
}

func drainText(s *Session) string {
	var sb strings.Builder
	for _, m := range s.World.Output().Drain() {
		sb.WriteString(m.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestDirectionCommandMoves(t *testing.T) {
	s := newTestSession(t, &mockConverser{})
	s.HandleCommand(context.Background(), "N")

	if s.World.CurrentRoomID() != "gangway" {
		t.Errorf("expected gangway, got %q", s.World.CurrentRoomID())
	}
	if s.World.TimeInChapter() != 1 {
		t.Error("a successful move should advance the clock")
	}
}

func TestGoVerbRequiresDirection(t *testing.T) {
	s := newTestSession(t, &mockConverser{})

	s.HandleCommand(context.Background(), "go")
	if !strings.Contains(drainText(s), "go where") {
		t.Error("expected direction prompt")
	}

	s.HandleCommand(context.Background(), "go north")
	if s.World.CurrentRoomID() != "gangway" {
		t.Errorf("expected gangway, got %q", s.World.CurrentRoomID())
	}
}

func TestFailedMoveDoesNotAdvanceClock(t *testing.T) {
	s := newTestSession(t, &mockConverser{})
	s.HandleCommand(context.Background(), "west")

	if s.World.TimeInChapter() != 0 {
		t.Error("a refused move must not cost a tick")
	}
}

func TestWaitPassesTime(t *testing.T) {
	s := newTestSession(t, &mockConverser{})
	s.HandleCommand(context.Background(), "wait")

	if s.World.TimeInChapter() != 1 {
		t.Error("wait should advance the clock")
	}
	if !strings.Contains(drainText(s), "Time passes.") {
		t.Error("expected wait narration")
	}
}

func TestLookAtScenery(t *testing.T) {
	s := newTestSession(t, &mockConverser{})
	s.HandleCommand(context.Background(), "look bollard")

	if !strings.Contains(drainText(s), "Rope-scarred iron.") {
		t.Error("expected scenery description")
	}
}

func TestUnmatchedActionWarns(t *testing.T) {
	s := newTestSession(t, &mockConverser{})
	s.HandleCommand(context.Background(), "eat bollard")

	if !strings.Contains(drainText(s), "Could not find a bollard to eat.") {
		t.Error("expected soft failure message")
	}
	if s.World.TimeInChapter() != 0 {
		t.Error("a failed action must not cost a tick")
	}
}

func TestTellRequiresQuotedStatement(t *testing.T) {
	s := newTestSession(t, &mockConverser{})
	s.HandleCommand(context.Background(), "tell guard hello")

	if !strings.Contains(drainText(s), "in quotes") {
		t.Error("expected syntax hint")
	}
}

func TestTellUnknownAndAbsentAgents(t *testing.T) {
	s := newTestSession(t, &mockConverser{})

	s.HandleCommand(context.Background(), `tell ghost "boo"`)
	if !strings.Contains(drainText(s), "don't know who ghost is") {
		t.Error("expected unknown-agent message")
	}

	// The cook is active but on the gangway, not here.
	s.HandleCommand(context.Background(), `tell cook "hello"`)
	if !strings.Contains(drainText(s), "Etta May is not nearby") {
		t.Error("expected not-nearby message")
	}
}

func TestTellConversesAndAwardsFriendPoints(t *testing.T) {
	conv := &mockConverser{answer: "Mind the ropes.", friendly: true}
	s := newTestSession(t, conv)

	s.HandleCommand(context.Background(), `tell guard "fine morning"`)
	text := drainText(s)
	if !strings.Contains(text, `Brun Halloway: "Mind the ropes."`) {
		t.Errorf("expected spoken answer, got: %s", text)
	}
	if !strings.Contains(text, "more friendly") {
		t.Errorf("expected friendliness note, got: %s", text)
	}
	if got := s.World.Agent("guard").FriendPoints; got != 1 {
		t.Fatalf("friend points = %d, want 1", got)
	}

	s.HandleCommand(context.Background(), `tell guard "another fine morning"`)
	text = drainText(s)
	if !strings.Contains(text, "is now your friend!") {
		t.Errorf("expected friendship announcement, got: %s", text)
	}
	if got := s.World.Agent("guard").FriendPoints; got != world.FriendThreshold {
		t.Fatalf("friend points = %d, want %d", got, world.FriendThreshold)
	}

	// At the threshold, no further probes are made.
	s.HandleCommand(context.Background(), `tell guard "third fine morning"`)
	if conv.friendlyCalls != 2 {
		t.Errorf("friendliness probes = %d, want 2", conv.friendlyCalls)
	}
}

func TestTellNoFriendQuestionsSkipsProbe(t *testing.T) {
	conv := &mockConverser{answer: "Soup's on.", friendly: true}
	s := newTestSession(t, conv)
	s.HandleCommand(context.Background(), "north")
	s.World.Output().Drain()

	s.HandleCommand(context.Background(), `tell cook "smells good"`)
	if conv.friendlyCalls != 0 {
		t.Error("agents without friend questions must not be probed")
	}
	if conv.converseCalls != 1 {
		t.Errorf("converse calls = %d, want 1", conv.converseCalls)
	}
}

func TestPersuadeUnfriendlyAgent(t *testing.T) {
	s := newTestSession(t, &mockConverser{})
	s.HandleCommand(context.Background(), "persuade guard")

	if !strings.Contains(drainText(s), "doesn't know you well enough") {
		t.Error("expected persuasion refusal")
	}
}

func TestInventoryCommand(t *testing.T) {
	s := newTestSession(t, &mockConverser{})

	s.HandleCommand(context.Background(), "i")
	if !strings.Contains(drainText(s), "carrying nothing") {
		t.Error("expected empty inventory message")
	}

	s.World.AddItem("lamp")
	s.HandleCommand(context.Background(), "inventory")
	if !strings.Contains(drainText(s), "lamp") {
		t.Error("expected lamp in inventory listing")
	}
}

func TestUnknownCommandWarns(t *testing.T) {
	s := newTestSession(t, &mockConverser{})
	s.HandleCommand(context.Background(), "xyzzy")

	msgs := s.World.Output().Drain()
	if len(msgs) == 0 || msgs[0].Style != console.StyleWarning {
		t.Errorf("expected a warning, got %+v", msgs)
	}
}
