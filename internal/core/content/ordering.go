package content

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOrderInvalid is returned when section orders are not exactly 0..n-1.
var ErrOrderInvalid = errors.New("section order must be a contiguous sequence starting at 0")

// Renumber sets every section's Order to its index.
func Renumber(sections []*Section) {
	for i, s := range sections {
		s.Order = i
	}
}

// MoveUp swaps section i with its predecessor. It reports false, leaving the
// list untouched, when i is the first section or out of range.
func MoveUp(sections []*Section, i int) bool {
	if i <= 0 || i >= len(sections) {
		return false
	}
	sections[i-1], sections[i] = sections[i], sections[i-1]
	Renumber(sections)
	return true
}

// MoveDown swaps section i with its successor. It reports false, leaving the
// list untouched, when i is the last section or out of range.
func MoveDown(sections []*Section, i int) bool {
	if i < 0 || i >= len(sections)-1 {
		return false
	}
	sections[i], sections[i+1] = sections[i+1], sections[i]
	Renumber(sections)
	return true
}

// RemoveAt deletes section i and closes the gap.
func RemoveAt(sections []*Section, i int) []*Section {
	if i < 0 || i >= len(sections) {
		return sections
	}
	out := append(sections[:i:i], sections[i+1:]...)
	Renumber(out)
	return out
}

// InsertAt places s at index i, shifting later sections down.
func InsertAt(sections []*Section, i int, s *Section) []*Section {
	if i < 0 {
		i = 0
	}
	if i > len(sections) {
		i = len(sections)
	}
	out := make([]*Section, 0, len(sections)+1)
	out = append(out, sections[:i]...)
	out = append(out, s)
	out = append(out, sections[i:]...)
	Renumber(out)
	return out
}

// SortByOrder orders sections by their Order value.
func SortByOrder(sections []*Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
}

// ValidateOrder checks that orders is a permutation of 0..n-1.
func ValidateOrder(orders []int) error {
	seen := make([]bool, len(orders))
	for _, o := range orders {
		if o < 0 || o >= len(orders) {
			return fmt.Errorf("%w: order %d out of range", ErrOrderInvalid, o)
		}
		if seen[o] {
			return fmt.Errorf("%w: order %d used twice", ErrOrderInvalid, o)
		}
		seen[o] = true
	}
	return nil
}
