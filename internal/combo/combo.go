// Package combo holds the ticket representation shared by every stage of the
// generator: sorted integer combinations, their canonical keys, random k-subset
// sampling from a pool and t-combination enumeration.
package combo

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
)

// Ticket is an ascending, duplicate-free combination of numbers.
type Ticket []int

// New copies nums into a sorted, duplicate-free Ticket.
func New(nums ...int) Ticket {
	t := make(Ticket, len(nums))
	copy(t, nums)
	slices.Sort(t)
	return slices.Compact(t)
}

// Key returns the canonical map key of the ticket. Two tickets share a key
// iff their sorted sequences are equal.
func (t Ticket) Key() string {
	return keyOf(t)
}

// Equal reports whether t and o hold the same numbers.
func (t Ticket) Equal(o Ticket) bool {
	return slices.Equal(t, o)
}

// Contains reports whether n is in the ticket.
func (t Ticket) Contains(n int) bool {
	_, ok := slices.BinarySearch(t, n)
	return ok
}

// Clone returns an independent copy.
func (t Ticket) Clone() Ticket {
	return slices.Clone(t)
}

func (t Ticket) String() string {
	parts := make([]string, len(t))
	for i, n := range t {
		parts[i] = strconv.Itoa(n)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Replace returns a new ticket with out removed and in inserted.
func (t Ticket) Replace(out, in int) Ticket {
	next := make(Ticket, 0, len(t))
	for _, n := range t {
		if n != out {
			next = append(next, n)
		}
	}
	next = append(next, in)
	slices.Sort(next)
	return slices.Compact(next)
}

// Intersect counts the numbers two sorted tickets have in common.
func Intersect(a, b Ticket) int {
	i, j, n := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// Sample draws k distinct elements of pool uniformly at random and returns them
// sorted. It returns nil when the pool holds fewer than k elements.
func Sample(rng *rand.Rand, pool []int, k int) Ticket {
	n := len(pool)
	if k > n || k < 0 {
		return nil
	}
	work := slices.Clone(pool)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		work[i], work[j] = work[j], work[i]
	}
	t := Ticket(work[:k:k])
	slices.Sort(t)
	return t
}

// Combinations returns every size-t combination of items in lexicographic
// index order. Sorted items yield sorted tuples.
func Combinations(items []int, t int) []Ticket {
	out := make([]Ticket, 0, Binomial(len(items), t))
	walk(items, t, func(buf []int) {
		out = append(out, slices.Clone(buf))
	})
	return out
}

// EachKey calls fn with the canonical key of every size-t combination of items.
func EachKey(items []int, t int, fn func(key string)) {
	walk(items, t, func(buf []int) {
		fn(keyOf(buf))
	})
}

// Binomial returns C(n, k), or 0 when k is outside [0, n].
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}

// BinomialAtMost reports whether C(n, k) <= limit. It stops multiplying as
// soon as the partial product passes limit, so it never overflows for the
// sizes that would.
func BinomialAtMost(n, k, limit int) bool {
	if k < 0 || k > n {
		return limit >= 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
		if r > limit {
			return false
		}
	}
	return r <= limit
}

// walk enumerates index combinations; buf is reused between calls.
func walk(items []int, t int, fn func(buf []int)) {
	n := len(items)
	if t < 0 || t > n {
		return
	}
	idx := make([]int, t)
	for i := range idx {
		idx[i] = i
	}
	buf := make([]int, t)
	for {
		for i, p := range idx {
			buf[i] = items[p]
		}
		fn(buf)

		i := t - 1
		for i >= 0 && idx[i] == n-t+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < t; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// keyOf packs each number into two big-endian bytes, the same fixed-width
// fingerprint scheme used for state dedup.
func keyOf(nums []int) string {
	buf := make([]byte, 0, 2*len(nums))
	for _, v := range nums {
		buf = append(buf, byte(v>>8), byte(v))
	}
	return string(buf)
}
