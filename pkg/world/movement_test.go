package world

import (
	"strings"
	"testing"
)

func tourTestLibrary() *Library {
	plain := func(id, title string, exits map[string]*Exit) *Room {
		return &Room{
			ID:    id,
			Title: title,
			Descriptions: map[string][]string{
				TopicLong:  {title + ", described at length."},
				TopicShort: {title + "."},
			},
			Exits: exits,
		}
	}
	rooms := map[string]*Room{
		"upper": plain("upper", "Upper Deck", map[string]*Exit{"down": {RoomID: "lower"}}),
		"lower": plain("lower", "Lower Deck", map[string]*Exit{"up": {RoomID: "upper"}}),
	}
	agents := map[string]*AgentSpec{
		"tour_guide": {
			ID:        "tour_guide",
			Profile:   &AgentProfile{Name: "Felix Trent", Race: "human"},
			TicChance: "0d1",
			ScriptID:  ScriptTourGuide,
		},
		"vip_reporter": {
			ID:        "vip_reporter",
			Profile:   &AgentProfile{Name: "Nancy Voss", Race: "human"},
			TicChance: "0d1",
			ScriptID:  ScriptStationary,
		},
		"mercenary": {
			ID:        "mercenary",
			Profile:   &AgentProfile{Name: "Ryka Voss", Race: "human"},
			TicChance: "0d1",
			ScriptID:  ScriptStationary,
		},
	}
	return &Library{
		Rooms:      rooms,
		AgentSpecs: agents,
		Chapters: map[int]*ChapterSpec{
			1: {PlayerRoom: "upper"},
			4: {},
		},
		Openings: map[int][]string{},
		Beats:    map[string][]string{},
	}
}

func TestParseScriptID(t *testing.T) {
	tests := []struct {
		in      string
		want    ScriptID
		wantErr bool
	}{
		{"", ScriptStationary, false},
		{"stationary", ScriptStationary, false},
		{"tour_guide", ScriptTourGuide, false},
		{"moonwalk", "", true},
	}
	for _, tt := range tests {
		got, err := ParseScriptID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScriptID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScriptID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTourGuideWalksRouteWithParty(t *testing.T) {
	w := New(tourTestLibrary(), Options{Seed: 11})
	w.StartChapter(1)
	w.PlaceAgent(w.Agent("tour_guide"), "upper")
	w.PlaceAgent(w.Agent("vip_reporter"), "upper")
	w.PlaceAgent(w.Agent("mercenary"), "upper")
	w.onChapter = 4
	w.timeInChapter = 2
	w.Output().Drain()

	w.Step() // chapter tick 3 is a route step

	if got := *w.Agent("tour_guide").RoomID; got != "lower" {
		t.Fatalf("guide should have walked down, is in %q", got)
	}
	if got := *w.Agent("vip_reporter").RoomID; got != "lower" {
		t.Errorf("party member should follow, is in %q", got)
	}
	if w.CurrentRoomID() != "lower" {
		t.Errorf("player should follow the tour, is in %q", w.CurrentRoomID())
	}
	text := messagesText(w.Output().Drain())
	if !strings.Contains(text, "walks down") {
		t.Errorf("expected walk narration, got: %s", text)
	}
	if !strings.Contains(text, "You follow Felix Trent down.") {
		t.Errorf("expected follow narration, got: %s", text)
	}
}

func TestTourGuideIdleOffRouteTicks(t *testing.T) {
	w := New(tourTestLibrary(), Options{Seed: 11})
	w.StartChapter(1)
	w.PlaceAgent(w.Agent("tour_guide"), "upper")
	w.onChapter = 4
	w.timeInChapter = 0
	w.Output().Drain()

	w.Step() // chapter tick 1: not a route step
	if got := *w.Agent("tour_guide").RoomID; got != "upper" {
		t.Errorf("guide should not move off-route, is in %q", got)
	}
}

func TestTourGuideSkipsUnplacedPartyMembers(t *testing.T) {
	w := New(tourTestLibrary(), Options{Seed: 11})
	w.StartChapter(1)
	w.PlaceAgent(w.Agent("tour_guide"), "upper")
	w.PlaceAgent(w.Agent("mercenary"), "") // already left the world
	w.onChapter = 4
	w.timeInChapter = 2
	w.Output().Drain()

	w.Step()
	if w.Agent("mercenary").RoomID != nil {
		t.Error("unplaced party member must stay unplaced")
	}
}

func TestTourGuideIgnoresOtherChapters(t *testing.T) {
	w := New(tourTestLibrary(), Options{Seed: 11})
	w.StartChapter(1)
	w.PlaceAgent(w.Agent("tour_guide"), "upper")
	w.onChapter = 5
	w.timeInChapter = 2
	w.Output().Drain()

	w.Step()
	if got := *w.Agent("tour_guide").RoomID; got != "upper" {
		t.Errorf("tour script must only run in its chapter, guide is in %q", got)
	}
}
