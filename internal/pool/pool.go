// Package pool builds the restricted universe every ticket is sampled from:
// a stratified pick across contiguous number ranges, optionally reweighted by
// how often each number appeared in past draws.
package pool

import (
	"math"
	"math/rand/v2"
	"slices"

	"loto-optimizer/internal/rules"
)

// Bias tunes the history reweighting. A number's weight is
// max(Floor, 1 + clamp(Multiplier*z, -Clamp, +Clamp)) where z is the
// number's frequency z-score.
type Bias struct {
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
	Clamp      float64 `yaml:"clamp" json:"clamp"`
	Floor      float64 `yaml:"floor" json:"floor"`
}

// DefaultBias returns the stock tuning: at most a 15% nudge per number.
func DefaultBias() Bias {
	return Bias{Multiplier: 0.03, Clamp: 0.15, Floor: 0.1}
}

// Config describes one pool build.
type Config struct {
	MaxNumber    int
	Size         int
	Bins         int
	ReweightBias bool
	Bias         Bias
}

// Quotas splits size over bins: size/bins each, the remainder going one unit
// at a time to the first bins.
func Quotas(size, bins int) []int {
	q := make([]int, bins)
	for i := range q {
		q[i] = size / bins
	}
	for i := 0; i < size%bins; i++ {
		q[i]++
	}
	return q
}

// Frequencies counts how often each number 1..v appears across draws. The
// result is indexed by number; index 0 is unused. Out-of-range numbers are
// ignored.
func Frequencies(draws [][]int, v int) []int {
	freq := make([]int, v+1)
	for _, d := range draws {
		for _, n := range d {
			if n >= 1 && n <= v {
				freq[n]++
			}
		}
	}
	return freq
}

// Weights returns the per-number sampling weight derived from draws, indexed
// by number. Without draws every weight is 1.
func Weights(v int, draws [][]int, b Bias) []float64 {
	w := make([]float64, v+1)
	for n := 1; n <= v; n++ {
		w[n] = 1
	}
	if len(draws) == 0 || v <= 0 {
		return w
	}
	freq := Frequencies(draws, v)
	kGuess := len(draws[0])
	expected := float64(len(draws)) * float64(kGuess) / float64(v)
	sd := math.Sqrt(math.Max(expected, 1e-9))
	for n := 1; n <= v; n++ {
		z := (float64(freq[n]) - expected) / sd
		nudge := math.Max(-b.Clamp, math.Min(b.Clamp, b.Multiplier*z))
		w[n] = math.Max(b.Floor, 1+nudge)
	}
	return w
}

// Build returns the sorted, duplicate-free pool of min(cfg.Size, cfg.MaxNumber)
// numbers. All randomness comes from rng.
func Build(rng *rand.Rand, cfg Config, draws [][]int) []int {
	v := cfg.MaxNumber
	if cfg.Size >= v {
		return universe(v)
	}
	if cfg.Size <= 0 {
		return nil
	}
	bins := cfg.Bins
	if bins <= 0 {
		bins = 1
	}
	width := rules.BinWidth(v, bins)
	quotas := Quotas(cfg.Size, bins)

	var weights []float64
	if cfg.ReweightBias && len(draws) > 0 {
		weights = Weights(v, draws, cfg.Bias)
	}

	var picked []int
	for b := 0; b < bins; b++ {
		start := b*width + 1
		end := min((b+1)*width, v)
		if start > end {
			continue
		}
		bucket := make([]int, 0, end-start+1)
		for n := start; n <= end; n++ {
			bucket = append(bucket, n)
		}
		if reweighted(bucket, weights) {
			picked = append(picked, roulette(rng, bucket, weights, quotas[b])...)
			continue
		}
		rng.Shuffle(len(bucket), func(i, j int) { bucket[i], bucket[j] = bucket[j], bucket[i] })
		picked = append(picked, bucket[:min(quotas[b], len(bucket))]...)
	}

	pool := sortedUnique(picked)
	for len(pool) < cfg.Size {
		pool = sortedUnique(append(pool, rng.IntN(v)+1))
	}
	return pool[:cfg.Size]
}

func universe(v int) []int {
	all := make([]int, 0, max(v, 0))
	for n := 1; n <= v; n++ {
		all = append(all, n)
	}
	return all
}

func reweighted(bucket []int, weights []float64) bool {
	if weights == nil {
		return false
	}
	for _, n := range bucket {
		if weights[n] != 1 {
			return true
		}
	}
	return false
}

// roulette draws quota numbers without replacement, each with probability
// proportional to its weight among the numbers left.
func roulette(rng *rand.Rand, bucket []int, weights []float64, quota int) []int {
	cands := slices.Clone(bucket)
	n := min(quota, len(cands))
	chosen := make([]int, 0, n)
	for i := 0; i < n; i++ {
		total := 0.0
		for _, c := range cands {
			total += weights[c]
		}
		r := rng.Float64() * total
		acc := 0.0
		at := len(cands) - 1
		for j, c := range cands {
			acc += weights[c]
			if acc >= r {
				at = j
				break
			}
		}
		chosen = append(chosen, cands[at])
		cands = slices.Delete(cands, at, at+1)
	}
	return chosen
}

func sortedUnique(nums []int) []int {
	slices.Sort(nums)
	return slices.Compact(nums)
}
