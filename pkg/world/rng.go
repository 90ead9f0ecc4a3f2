package world

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"
)

// RNG is the session's deterministic random source. Its internal state
// is serialized with the session so replay after reload is
// bit-identical.
type RNG struct {
	src *rand.PCG
	r   *rand.Rand
}

// NewRNG seeds a fresh source. The same seed always yields the same
// draw sequence.
func NewRNG(seed uint64) *RNG {
	src := rand.NewPCG(seed, seed+1)
	return &RNG{src: src, r: rand.New(src)}
}

// IntN returns a uniform int in [0, n).
func (g *RNG) IntN(n int) int {
	return g.r.IntN(n)
}

// Roll rolls count dice with the given number of sides and returns the
// total.
func (g *RNG) Roll(count, sides int) int {
	total := 0
	for i := 0; i < count; i++ {
		total += g.r.IntN(sides) + 1
	}
	return total
}

// Shuffle randomizes the order of n elements.
func (g *RNG) Shuffle(n int, swap func(i, j int)) {
	g.r.Shuffle(n, swap)
}

// State exports the source's internal state.
func (g *RNG) State() string {
	data, err := g.src.MarshalBinary()
	if err != nil {
		// PCG marshal cannot fail.
		panic("world: rng marshal: " + err.Error())
	}
	return base64.StdEncoding.EncodeToString(data)
}

// SetState restores the source's internal state exactly.
func (g *RNG) SetState(state string) error {
	data, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		return fmt.Errorf("invalid rng state encoding: %w", err)
	}
	if err := g.src.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("invalid rng state: %w", err)
	}
	return nil
}
