package game

import (
	"math/rand"
)

// NewRand returns a generator seeded with seed. Every random choice a session
// makes goes through its own generator so an outcome can be replayed from the seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Random returns a number in [0, n). It returns 0 when n <= 0.
func Random(rng *rand.Rand, n int) int {
	if n <= 0 {
		return 0
	}
	return rng.Intn(n)
}

// SampleOne returns a random element of items.
func SampleOne[T any](rng *rand.Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

// Shuffle returns a shuffled copy of items.
func Shuffle[T any](rng *rand.Rand, items []T) []T {
	out := append([]T(nil), items...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// shinyChance is the 1-in-N chance of a mascot being shiny.
const shinyChance = 150

// RollShiny rolls the shiny chance, reduced by extraChance.
func RollShiny(rng *rand.Rand, extraChance int) bool {
	return Random(rng, shinyChance-extraChance) == 0
}
