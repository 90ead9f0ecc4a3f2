// Package dialogue implements the deduplicating cache around language
// model calls. A Dialogue record is keyed by the exact tuple of
// (character name, model version, context, stop words); the answer is
// the cached value. Equality is exact string equality, no
// normalization.
package dialogue

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Dialogue is one cached language-model exchange.
type Dialogue struct {
	// CharacterName is nil for non-agent queries (improvised scenery
	// descriptions).
	CharacterName *string `json:"character_name"`
	ModelVersion  string  `json:"model_version"`
	Question      string  `json:"question"`
	Context       string  `json:"context"`
	// StopWords is the ordered stop-token list, comma-joined. Order is
	// part of the cache key.
	StopWords string  `json:"stop_words,omitempty"`
	Answer    *string `json:"answer,omitempty"`
}

// fingerprintKey is the canonical serialization of the cache key
// tuple. Field order is fixed; Answer and Question are excluded
// (Question is descriptive metadata, the context embeds it).
type fingerprintKey struct {
	CharacterName *string `json:"character_name"`
	ModelVersion  string  `json:"model_version"`
	Context       string  `json:"context"`
	StopWords     string  `json:"stop_words"`
}

// Fingerprint returns a stable hex digest of the cache key tuple.
func (d *Dialogue) Fingerprint() string {
	key := fingerprintKey{
		CharacterName: d.CharacterName,
		ModelVersion:  d.ModelVersion,
		Context:       d.Context,
		StopWords:     d.StopWords,
	}
	data, err := json.Marshal(key)
	if err != nil {
		// All fields are strings; Marshal cannot fail.
		panic("dialogue: fingerprint marshal: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// StopList splits the comma-joined stop words into the ordered list
// passed to the model capability.
func (d *Dialogue) StopList() []string {
	if d.StopWords == "" {
		return nil
	}
	return strings.Split(d.StopWords, ",")
}

// WithAnswer returns a copy of the record carrying the computed answer.
func (d *Dialogue) WithAnswer(answer string) *Dialogue {
	out := *d
	out.Answer = &answer
	return &out
}

// JoinStops builds the comma-joined stop word field from an ordered
// token list.
func JoinStops(stops []string) string {
	return strings.Join(stops, ",")
}
