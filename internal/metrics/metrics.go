// Package metrics scores combinations and ticket sets: t-subset coverage,
// numeric overlap, popularity cost and the global objective.
package metrics

import (
	"math"

	"loto-optimizer/internal/combo"
)

// Popularity component weights.
const (
	dateWeight = 1.0
	seqWeight  = 1.0
	sumWeight  = 0.7

	// dateCeiling is the largest calendar day; numbers up to it are favoured
	// by people picking birthdays.
	dateCeiling = 31
)

// TSubsets returns the C(len(c), t) size-t sub-tuples of c, each sorted.
func TSubsets(c combo.Ticket, t int) []combo.Ticket {
	return combo.Combinations(c, t)
}

// Overlap sums |c ∩ ticket| over every ticket in the set.
func Overlap(c combo.Ticket, tickets []combo.Ticket) int {
	s := 0
	for _, tk := range tickets {
		s += combo.Intersect(c, tk)
	}
	return s
}

// PairwiseOverlap sums |a ∩ b| over every unordered pair of tickets.
func PairwiseOverlap(tickets []combo.Ticket) int {
	ov := 0
	for i := range tickets {
		for j := i + 1; j < len(tickets); j++ {
			ov += combo.Intersect(tickets[i], tickets[j])
		}
	}
	return ov
}

// Covered is the size of the union of every ticket's t-subsets.
func Covered(tickets []combo.Ticket, t int) int {
	seen := make(map[string]struct{})
	for _, tk := range tickets {
		combo.EachKey(tk, t, func(k string) {
			seen[k] = struct{}{}
		})
	}
	return len(seen)
}

// Popularity is the breakdown of a combination's popularity cost.
type Popularity struct {
	Date float64
	Seq  float64
	Sum  float64
}

// Cost combines the three penalties.
func (p Popularity) Cost() float64 {
	return dateWeight*p.Date + seqWeight*p.Seq + sumWeight*p.Sum
}

// PopularityBreakdown computes the date, sequence and central-sum penalties of
// c within the universe 1..v.
func PopularityBreakdown(c combo.Ticket, v int) Popularity {
	k := len(c)
	if k == 0 {
		return Popularity{}
	}
	half := float64(k) / 2

	var p Popularity
	if v > dateCeiling {
		dates := 0
		for _, x := range c {
			if x <= dateCeiling {
				dates++
			}
		}
		p.Date = math.Max(0, (float64(dates)-half)/half)
	}

	longest, cur := 1, 1
	for i := 1; i < k; i++ {
		if c[i] == c[i-1]+1 {
			cur++
			longest = max(longest, cur)
		} else {
			cur = 1
		}
	}
	p.Seq = math.Max(0, float64(longest-2)/(float64(k)/3))

	s := 0
	for _, x := range c {
		s += x
	}
	fk, fv := float64(k), float64(v)
	mu := fk * (fv + 1) / 2
	popVar := (fv*fv - 1) / 12
	fpc := 1.0
	if v > 1 {
		fpc = 1 - fk/fv
	}
	sd := math.Sqrt(math.Max(fk*popVar*fpc, 1e-9))
	z := math.Abs(float64(s)-mu) / sd
	p.Sum = 1 - math.Tanh(z)
	return p
}

// PopularityCost is the weighted popularity penalty of c, always >= 0.
func PopularityCost(c combo.Ticket, v int) float64 {
	return PopularityBreakdown(c, v).Cost()
}

// Objective scores a ticket set: covered t-subsets minus the weighted pairwise
// overlap and the weighted popularity cost. Higher is better.
func Objective(tickets []combo.Ticket, t int, lamOverlap, lamPop float64, v int) float64 {
	covered := Covered(tickets, t)
	ov := PairwiseOverlap(tickets)
	pop := 0.0
	for _, tk := range tickets {
		pop += PopularityCost(tk, v)
	}
	return float64(covered) - lamOverlap*float64(ov) - lamPop*pop
}
