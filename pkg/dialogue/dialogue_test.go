package dialogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDialogue() *Dialogue {
	name := "Brun Halloway"
	return &Dialogue{
		CharacterName: &name,
		ModelVersion:  "mock-model-v1",
		Question:      "Alfred: hello\nBrun Halloway:",
		Context:       "Brun is a guard.\nAlfred: hello\nBrun Halloway:",
		StopWords:     JoinStops([]string{"Alfred:", "\n"}),
	}
}

func TestFingerprintStable(t *testing.T) {
	a := sampleDialogue()
	b := sampleDialogue()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintDistinguishesKeyFields(t *testing.T) {
	base := sampleDialogue()

	modified := sampleDialogue()
	modified.Context += " "
	assert.NotEqual(t, base.Fingerprint(), modified.Fingerprint(), "context is part of the key")

	modified = sampleDialogue()
	modified.ModelVersion = "mock-model-v2"
	assert.NotEqual(t, base.Fingerprint(), modified.Fingerprint(), "model version is part of the key")

	modified = sampleDialogue()
	modified.StopWords = JoinStops([]string{"\n", "Alfred:"})
	assert.NotEqual(t, base.Fingerprint(), modified.Fingerprint(), "stop word order is part of the key")

	modified = sampleDialogue()
	modified.CharacterName = nil
	assert.NotEqual(t, base.Fingerprint(), modified.Fingerprint(), "nil character name is distinct")

	// Question is descriptive metadata; the context embeds it.
	modified = sampleDialogue()
	modified.Question = "different"
	assert.Equal(t, base.Fingerprint(), modified.Fingerprint())
}

func TestStopList(t *testing.T) {
	d := sampleDialogue()
	assert.Equal(t, []string{"Alfred:", "\n"}, d.StopList())

	d.StopWords = ""
	assert.Nil(t, d.StopList())
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	d := sampleDialogue()

	_, found, err := cache.Get(ctx, d)
	require.NoError(t, err)
	assert.False(t, found)

	require.ErrorIs(t, cache.Put(ctx, d), ErrNoAnswer)

	require.NoError(t, cache.Put(ctx, d.WithAnswer("Well met.")))
	answer, found, err := cache.Get(ctx, d)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Well met.", answer)
	assert.Equal(t, 1, cache.Len())
}
