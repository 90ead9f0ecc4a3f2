package world

import (
	"context"
	"strings"
	"testing"
)

func persuadeTestLibrary() *Library {
	lib := testLibrary()
	lib.AgentSpecs["vip_reporter"] = &AgentSpec{
		ID:           "vip_reporter",
		Profile:      &AgentProfile{Name: "Nancy Voss", Race: "human"},
		TicChance:    "0d1",
		StartingRoom: strptr("deck"),
		ScriptID:     ScriptStationary,
	}
	lib.Beats["persuade_vip_reporter"] = []string{"Nancy whispers a letter: V."}
	lib.Beats["persuade_port_security_officer"] = []string{"The rope lifts."}
	return lib
}

func TestPersuadeRequiresFriendship(t *testing.T) {
	w := New(persuadeTestLibrary(), Options{Seed: 7})
	w.StartChapter(1)
	w.Output().Drain()

	reporter := w.Agent("vip_reporter")
	w.Persuade(context.Background(), reporter)

	text := messagesText(w.Output().Drain())
	if !strings.Contains(text, "doesn't know you well enough") {
		t.Errorf("expected refusal, got: %s", text)
	}
}

func TestPersuadeReporterAwardsLetterOnce(t *testing.T) {
	w := New(persuadeTestLibrary(), Options{Seed: 7})
	w.StartChapter(1)
	w.Output().Drain()

	reporter := w.Agent("vip_reporter")
	reporter.FriendPoints = FriendThreshold

	w.onChapter = 5
	w.Persuade(context.Background(), reporter)
	if w.LetterFound("v") {
		t.Fatal("letter must not be awarded before chapter 6")
	}
	w.Output().Drain()

	w.onChapter = 6
	w.Persuade(context.Background(), reporter)
	if !w.LetterFound("v") {
		t.Fatal("expected letter v")
	}
	text := messagesText(w.Output().Drain())
	if !strings.Contains(text, "Nancy whispers a letter: V.") {
		t.Errorf("expected reporter beat, got: %s", text)
	}

	// A second ask changes nothing and plays the already-told line.
	w.Persuade(context.Background(), reporter)
	text = messagesText(w.Output().Drain())
	if !strings.Contains(text, "already told you") {
		t.Errorf("expected repeat refusal, got: %s", text)
	}
}

func TestQuestShowsFoundLetters(t *testing.T) {
	w := New(persuadeTestLibrary(), Options{Seed: 7})
	w.StartChapter(1)
	w.onChapter = 6

	if got := w.CurrentQuest(); !strings.Contains(got, "none") {
		t.Errorf("expected empty hint, got %q", got)
	}

	w.FindLetter("v")
	w.FindLetter("p")
	got := w.CurrentQuest()
	if !strings.Contains(got, "p-1") || !strings.Contains(got, "v-3") {
		t.Errorf("expected positional hints, got %q", got)
	}
}
