package coupon

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand/v2"
	"strconv"
	"time"
)

// tiers are the labels mixed into every generated code.
var tiers = [...]string{"EMAS", "PERUNGU", "PERAK", "PLATINUM", "DIAMOND", "SAPPHIRE"}

// Generator produces opaque coupon codes: the SHA-256 hex digest of a random
// tier label, the current unix milliseconds and a random integer. Uniqueness
// is not checked.
type Generator struct {
	now  func() time.Time
	intn func(n int) int
}

// NewGenerator returns a Generator using the wall clock and math/rand/v2.
func NewGenerator() *Generator {
	return &Generator{now: time.Now, intn: rand.IntN}
}

// Code returns a new 64 character hex code.
func (g *Generator) Code() string {
	tier := tiers[g.intn(len(tiers))]
	raw := tier + strconv.FormatInt(g.now().UnixMilli(), 10) + strconv.Itoa(g.intn(1000))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewGeneratorFrom returns a Generator with an explicit clock and random
// source, for deterministic codes.
func NewGeneratorFrom(now func() time.Time, intn func(n int) int) *Generator {
	return &Generator{now: now, intn: intn}
}
