// Package dice rolls dice and draws the other random values the world needs.
//
// Every function takes its random source explicitly so a conversation's
// world can be replayed from its seed.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrMissingDice is returned when no dice are requested.
	ErrMissingDice = errors.New("at least one die spec is required")
	// ErrInvalidDiceSpec is returned for a spec with non-positive sides or count.
	ErrInvalidDiceSpec = errors.New("dice spec must have positive sides and count")
)

// Rand is the random source used throughout the engine. *math/rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Spec describes Count dice with Sides faces each.
type Spec struct {
	Sides int
	Count int
}

// Roll is the outcome of one Spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result is the outcome of a set of specs.
type Result struct {
	Rolls []Roll
	Total int
}

// NewRand returns a deterministic source for seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// RollWithRng rolls every spec in order using rng.
func RollWithRng(rng Rand, specs []Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0

	for _, spec := range specs {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return Result{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := range results {
			value := rollDie(rng, spec.Sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return Result{
		Rolls: rolls,
		Total: total,
	}, nil
}

// Sum rolls count dice of the given size and returns the total.
func Sum(rng Rand, count, sides int) (int, error) {
	res, err := RollWithRng(rng, []Spec{{Sides: sides, Count: count}})
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// Between returns a uniform integer in [lo, hi].
func Between(rng Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// Chance reports true with probability p.
func Chance(rng Rand, p float64) bool {
	return rng.Float64() < p
}

// Pick returns a uniformly chosen element of items. It panics on an empty
// slice.
func Pick[T any](rng Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

// rollDie rolls a single die with the provided number of sides.
func rollDie(rng Rand, sides int) int {
	return rng.Intn(sides) + 1
}
