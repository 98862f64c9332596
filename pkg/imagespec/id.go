package imagespec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// idLength is how many hex characters of the digest end up in the tag. Short
// enough to read in a registry UI, long enough that collisions are not a
// practical concern.
const idLength = 16

type idPayload struct {
	Spec
	// Base is folded in as its own id so nested specs hash the same whether
	// the caller shares one *Spec or builds an equal copy.
	Base   *Spec  `json:"-"`
	BaseID string `json:"base_id,omitempty"`
}

// ID returns a deterministic content address for the spec. Any field change
// changes the id; equal specs always collapse to the same id, which is what
// makes skip-if-exists sound.
func (s *Spec) ID() string {
	payload := idPayload{Spec: *s}
	payload.Spec.Base = nil
	if s.Base != nil {
		payload.BaseID = s.Base.ID()
	}

	// Marshal is deterministic here: struct fields keep declaration order
	// and map keys are sorted.
	b, err := json.Marshal(payload)
	if err != nil {
		// Spec holds only strings, slices and string maps; Marshal cannot
		// fail on it.
		panic(err)
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:idLength]
}
