package world

import (
	"strings"
	"testing"
)

func tickTestLibrary() *Library {
	lib := testLibrary()
	lib.AgentSpecs["hummer"] = &AgentSpec{
		ID:           "hummer",
		Profile:      &AgentProfile{Name: "Old Pete", Race: "human"},
		TicChance:    "1d1", // always +1 per tick
		TicCreatives: []string{"Pete hums a tune nobody remembers."},
		StartingRoom: strptr("cabin"),
		ScriptID:     ScriptStationary,
	}
	lib.Script = []ChapterEvent{
		{Chapter: 1, Tick: 2, Beat: "alarm", UnplaceAgent: "guard"},
		{Chapter: 1, Tick: 3, StartChapter: 2},
	}
	lib.Beats["alarm"] = []string{"A bell rings twice somewhere below."}
	return lib
}

func TestStepAdvancesClocks(t *testing.T) {
	w := New(tickTestLibrary(), Options{Seed: 7})
	w.StartChapter(1)
	w.Output().Drain()

	w.Step()
	if w.TimeInRoom() != 1 || w.TimeInChapter() != 1 {
		t.Errorf("clocks = (%d, %d), want (1, 1)", w.TimeInRoom(), w.TimeInChapter())
	}

	w.Go("north")
	if w.TimeInRoom() != 0 {
		t.Error("entering a room must reset the room clock")
	}
}

func TestTicAccumulatorFiresAtThreshold(t *testing.T) {
	w := New(tickTestLibrary(), Options{Seed: 7})
	w.StartChapter(1)
	w.Output().Drain()

	pete := w.Agent("hummer")
	pete.TicPercentage = 99

	w.Step()
	if pete.TicPercentage != 0 {
		t.Errorf("accumulator should reset after firing, got %d", pete.TicPercentage)
	}
	text := messagesText(w.Output().Drain())
	if !strings.Contains(text, "Pete hums a tune") {
		t.Errorf("expected tic line, got: %s", text)
	}

	w.Step()
	if pete.TicPercentage != 1 {
		t.Errorf("accumulator should accrue from zero, got %d", pete.TicPercentage)
	}
}

func TestTicOnlyRollsForPresentAgents(t *testing.T) {
	w := New(tickTestLibrary(), Options{Seed: 7})
	w.StartChapter(1)
	w.Go("north") // leave the cabin, and Pete
	w.Output().Drain()

	pete := w.Agent("hummer")
	pete.TicPercentage = 99
	w.Step()
	if pete.TicPercentage != 99 {
		t.Error("agents outside the player's room must not roll tics")
	}
}

func TestTimedRoomDescription(t *testing.T) {
	w := New(tickTestLibrary(), Options{Seed: 7})
	w.StartChapter(1)
	w.Go("north")
	w.Agent("guard").FriendPoints = FriendThreshold
	w.Go("north") // bridge has a "Tic 1" topic
	w.Output().Drain()

	w.Step()
	text := messagesText(w.Output().Drain())
	if !strings.Contains(text, "compass needle") {
		t.Errorf("expected timed room text on tick 1, got: %s", text)
	}
}

func TestChapterEventsFireAtExactTicks(t *testing.T) {
	w := New(tickTestLibrary(), Options{Seed: 7})
	w.StartChapter(1)
	w.Output().Drain()

	w.Step() // tick 1: nothing
	if text := messagesText(w.Output().Drain()); strings.Contains(text, "bell rings") {
		t.Fatal("beat fired early")
	}

	w.Step() // tick 2: beat plays, guard leaves the world
	text := messagesText(w.Output().Drain())
	if !strings.Contains(text, "A bell rings twice") {
		t.Errorf("expected beat text, got: %s", text)
	}
	if w.Agent("guard").RoomID != nil {
		t.Error("guard should be unplaced by the event")
	}

	w.Step() // tick 3: chapter transition
	if w.Chapter() != 2 {
		t.Errorf("expected chapter 2, got %d", w.Chapter())
	}
	if w.TimeInChapter() != 0 {
		t.Error("chapter clock should reset on transition")
	}
}

func TestStepIsNoOpAfterGameOver(t *testing.T) {
	w := New(tickTestLibrary(), Options{Seed: 7})
	w.StartChapter(1)
	w.gameOver = true
	w.Output().Drain()

	w.Step()
	if w.TimeInChapter() != 0 {
		t.Error("clock must not advance after game over")
	}
}
