package world

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrIncompatibleSave is returned when a snapshot's version does not
// match the engine's. There is no migration path; the world is left
// untouched.
var ErrIncompatibleSave = errors.New("incompatible save version")

// AgentSnapshot is one agent's persisted mutable state.
type AgentSnapshot struct {
	RoomID        *string `json:"room_id"`
	TicPercentage int     `json:"tic_percentage"`
	FriendPoints  int     `json:"friend_points"`
}

// Snapshot is the full persisted session state. Set-valued fields are
// sorted so equal worlds encode to equal bytes.
type Snapshot struct {
	Version              int                      `json:"version"`
	WaitingForPlayer     bool                     `json:"waiting_for_player"`
	ActiveAgents         []string                 `json:"active_agents"`
	CurrentRoomID        string                   `json:"current_room_id"`
	TimeInRoom           int                      `json:"time_in_room"`
	VisitedRooms         []string                 `json:"visited_rooms"`
	OnChapter            int                      `json:"on_chapter"`
	TimeInChapter        int                      `json:"time_in_chapter"`
	Inventory            []string                 `json:"inventory"`
	GameOver             bool                     `json:"game_over"`
	PasswordLettersFound []string                 `json:"password_letters_found"`
	Agents               map[string]AgentSnapshot `json:"agents"`
	RNG                  string                   `json:"rng"`
}

// Save exports the world's mutable state.
func (w *World) Save() *Snapshot {
	snap := &Snapshot{
		Version:              Version,
		WaitingForPlayer:     w.waitingForPlayer,
		ActiveAgents:         sortedKeys(w.activeAgents),
		CurrentRoomID:        w.currentRoomID,
		TimeInRoom:           w.timeInRoom,
		VisitedRooms:         sortedKeys(w.visitedRooms),
		OnChapter:            w.onChapter,
		TimeInChapter:        w.timeInChapter,
		Inventory:            append([]string(nil), w.inventory...),
		GameOver:             w.gameOver,
		PasswordLettersFound: sortedKeys(w.lettersFound),
		Agents:               make(map[string]AgentSnapshot, len(w.agents)),
		RNG:                  w.rng.State(),
	}
	for id, agent := range w.agents {
		var roomID *string
		if agent.RoomID != nil {
			r := *agent.RoomID
			roomID = &r
		}
		snap.Agents[id] = AgentSnapshot{
			RoomID:        roomID,
			TicPercentage: agent.TicPercentage,
			FriendPoints:  agent.FriendPoints,
		}
	}
	return snap
}

// Restore replaces the world's mutable state with the snapshot's. On
// any error the world is unchanged.
func (w *World) Restore(snap *Snapshot) error {
	if snap.Version != Version {
		return fmt.Errorf("%w: got %d, want %d", ErrIncompatibleSave, snap.Version, Version)
	}
	if _, ok := w.lib.Rooms[snap.CurrentRoomID]; !ok {
		return fmt.Errorf("snapshot references unknown room %q", snap.CurrentRoomID)
	}
	for id := range snap.Agents {
		if _, ok := w.agents[id]; !ok {
			return fmt.Errorf("snapshot references unknown agent %q", id)
		}
	}
	rng := NewRNG(1)
	if err := rng.SetState(snap.RNG); err != nil {
		return err
	}

	w.waitingForPlayer = snap.WaitingForPlayer
	w.activeAgents = toSet(snap.ActiveAgents)
	w.currentRoomID = snap.CurrentRoomID
	w.timeInRoom = snap.TimeInRoom
	w.visitedRooms = toSet(snap.VisitedRooms)
	w.onChapter = snap.OnChapter
	w.timeInChapter = snap.TimeInChapter
	w.inventory = append([]string(nil), snap.Inventory...)
	w.gameOver = snap.GameOver
	w.lettersFound = toSet(snap.PasswordLettersFound)
	w.rng = rng
	for id, agent := range w.agents {
		as, ok := snap.Agents[id]
		if !ok {
			// Agent added to content after the save; keep its fresh
			// starting state.
			continue
		}
		if as.RoomID != nil {
			r := *as.RoomID
			agent.RoomID = &r
		} else {
			agent.RoomID = nil
		}
		agent.TicPercentage = as.TicPercentage
		agent.FriendPoints = as.FriendPoints
	}
	return nil
}

// EncodeSnapshot serializes a snapshot to JSON.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot, rejecting unknown fields so a save
// written by a newer engine never silently loses state.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
