package round

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// NewSeed returns a random round seed.
func NewSeed() uint64 { return rand.Uint64() }

// EncodeChallenge renders a seed as a short base-36 code.
func EncodeChallenge(seed uint64) string {
	return strconv.FormatUint(seed, 36)
}

// ParseChallenge turns a code back into its seed.
func ParseChallenge(code string) (uint64, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return 0, ErrInvalidChallenge
	}
	seed, err := strconv.ParseUint(code, 36, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChallenge, code)
	}
	return seed, nil
}
