package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
)

// PromptSeedPolicy decides whether a marker token is appended to a
// generation prompt. The decision must be stable: the same question with
// the same seed always yields the same outcome.
type PromptSeedPolicy interface {
	Include(question string) bool
	Token() string
}

type promptSeedPolicy struct {
	seed  string
	ratio float64
}

// NewPromptSeedPolicy creates a policy that marks roughly ratio of all
// questions. An empty seed or non-positive ratio disables marking.
func NewPromptSeedPolicy(seed string, ratio float64) PromptSeedPolicy {
	return &promptSeedPolicy{seed: seed, ratio: ratio}
}

func (p *promptSeedPolicy) Include(question string) bool {
	if p.seed == "" || p.ratio <= 0 {
		return false
	}
	// Normalization means trimming leading/trailing whitespace, so
	// retries of the same question land in the same bucket.
	content := strings.TrimSpace(question) + "\x00" + p.seed
	hash := sha256.Sum256([]byte(content))
	v := binary.BigEndian.Uint64(hash[:8])
	return float64(v)/float64(math.MaxUint64) < p.ratio
}

func (p *promptSeedPolicy) Token() string {
	return p.seed
}
