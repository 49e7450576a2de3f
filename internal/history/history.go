// Package history loads past draws. Draws only feed the frequency
// reweighting of the pool, so every source reduces to the same shape: a list
// of ascending, duplicate-free integer sets.
package history

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// ErrNoDraws is returned when a source holds no usable draw.
var ErrNoDraws = errors.New("history: no draws found")

// Draw is one past draw, ascending and duplicate-free.
type Draw []int

// Source yields past draws.
type Source interface {
	Load(ctx context.Context) ([]Draw, error)
}

// Normalize sorts nums and drops repeats.
func Normalize(nums []int) Draw {
	d := Draw(slices.Clone(nums))
	slices.Sort(d)
	return slices.Compact(d)
}

// Ints converts draws to plain integer slices.
func Ints(draws []Draw) [][]int {
	out := make([][]int, len(draws))
	for i, d := range draws {
		out[i] = d
	}
	return out
}

// FileSource reads draws from a file; ".json" files are parsed as JSON,
// anything else as CSV.
type FileSource struct {
	Path string
}

// Load implements Source.
func (f FileSource) Load(ctx context.Context) ([]Draw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(f.Path), ".json") {
		return ReadJSONFile(f.Path)
	}
	return ReadCSVFile(f.Path)
}

// collect normalizes raw draws, skipping empty ones and keeping only the
// first occurrence of each distinct draw.
func collect(raw [][]int) ([]Draw, error) {
	seen := make(map[string]struct{}, len(raw))
	var draws []Draw
	for _, nums := range raw {
		d := Normalize(nums)
		if len(d) == 0 {
			continue
		}
		key := fingerprint(d)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		draws = append(draws, d)
	}
	if len(draws) == 0 {
		return nil, ErrNoDraws
	}
	return draws, nil
}

func fingerprint(d Draw) string {
	var sb strings.Builder
	for i, n := range d {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// splitNumbers reads a "1 2 3" or "1,2,3" list, keeping plain digit tokens.
func splitNumbers(s string) []int {
	var out []int
	for _, tok := range strings.Fields(strings.ReplaceAll(s, ",", " ")) {
		if !isDigits(tok) {
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
