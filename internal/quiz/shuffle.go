package quiz

import (
	"math/rand"
	"time"
)

// Rand is the subset of *rand.Rand used for shuffling.
type Rand interface {
	Intn(n int) int
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Shuffle returns a uniformly random permutation of items. The input slice is
// left untouched.
func Shuffle[T any](rng Rand, items []T) []T {
	if rng == nil {
		rng = newRand()
	}

	shuffled := make([]T, len(items))
	copy(shuffled, items)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}
