package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const numbersColumn = "numbers"

// ReadCSVFile parses a draw history CSV file.
func ReadCSVFile(path string) ([]Draw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	defer f.Close()
	draws, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("history: %s: %w", path, err)
	}
	return draws, nil
}

// ParseCSV reads a headed CSV of draws. When a row has a non-empty "numbers"
// column it is split on spaces and commas; otherwise every cell that parses
// as an integer contributes to the draw.
func ParseCSV(r io.Reader) ([]Draw, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoDraws
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	numbersAt := -1
	for i, h := range header {
		if strings.TrimSpace(h) == numbersColumn {
			numbersAt = i
		}
	}

	var raw [][]int
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		raw = append(raw, parseRecord(rec, numbersAt))
	}
	return collect(raw)
}

func parseRecord(rec []string, numbersAt int) []int {
	if numbersAt >= 0 && numbersAt < len(rec) && strings.TrimSpace(rec[numbersAt]) != "" {
		return splitNumbers(rec[numbersAt])
	}
	var nums []int
	for _, cell := range rec {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if n, err := strconv.Atoi(cell); err == nil {
			nums = append(nums, n)
		}
	}
	return nums
}
