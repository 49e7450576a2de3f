package history

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ReadJSONFile parses a draw history JSON file.
func ReadJSONFile(path string) ([]Draw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	draws, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("history: %s: %w", path, err)
	}
	return draws, nil
}

// ParseJSON accepts a top-level array of draws or an object with a "draws"
// array. A draw is an array of integers, a "1 2 3" string, or an object
// whose "numbers" field is either of those.
func ParseJSON(data []byte) ([]Draw, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	list := gjson.ParseBytes(data)
	if list.IsObject() {
		list = list.Get("draws")
	}
	if !list.IsArray() {
		return nil, errors.New(`expected an array of draws or an object with a "draws" array`)
	}
	var raw [][]int
	list.ForEach(func(_, v gjson.Result) bool {
		raw = append(raw, ParseDraw(v))
		return true
	})
	return collect(raw)
}

// ParseDraw reads one draw in any of the forms ParseJSON accepts.
func ParseDraw(v gjson.Result) []int {
	switch {
	case v.IsObject():
		return ParseDraw(v.Get("numbers"))
	case v.IsArray():
		var nums []int
		v.ForEach(func(_, item gjson.Result) bool {
			switch item.Type {
			case gjson.Number:
				nums = append(nums, int(item.Int()))
			case gjson.String:
				if n, err := strconv.Atoi(strings.TrimSpace(item.String())); err == nil {
					nums = append(nums, n)
				}
			}
			return true
		})
		return nums
	case v.Type == gjson.String:
		return splitNumbers(v.String())
	}
	return nil
}
