// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package roster

import (
	"cmp"
	"strings"
)

// Direction is the sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Valid reports whether d is asc or desc.
func (d Direction) Valid() bool { return d == Ascending || d == Descending }

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// Compare orders a and b by key in direction dir.
//
// A missing value is greater than every present value, so it sorts last when
// ascending and first when descending. Ties keep fetch order in both directions.
func Compare(a, b Account, key SortKey, dir Direction) int {
	result := compareColumn(a, b, key)
	if dir == Descending {
		result = -result
	}
	if result != 0 {
		return result
	}
	return cmp.Compare(a.index, b.index)
}

func compareColumn(a, b Account, key SortKey) int {
	aHas, bHas := a.Has(key), b.Has(key)
	switch {
	case !aHas && !bHas:
		return 0
	case !aHas:
		return 1
	case !bHas:
		return -1
	}

	switch key {
	case SortSignupTime:
		return a.SignupTime.Compare(b.SignupTime)
	case SortID:
		return strings.Compare(a.Key, b.Key)
	case SortUID:
		return strings.Compare(a.UID, b.UID)
	case SortEmail:
		return strings.Compare(a.Email, b.Email)
	case SortDisplayName:
		return strings.Compare(a.DisplayName, b.DisplayName)
	default:
		return 0
	}
}
