package id

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatEntryNumber returns an entry number like "JE-2025-01-001".
func FormatEntryNumber(year, month, seq int) string {
	return fmt.Sprintf("JE-%04d-%02d-%03d", year, month, seq)
}

// ParseEntryNumber parses "JE-2025-01-001" into year, month, seq.
func ParseEntryNumber(number string) (year, month, seq int, err error) {
	base, ok := strings.CutPrefix(number, "JE-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid entry number format: %q", number)
	}

	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid entry number format: %q", number)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in entry number %q: %w", number, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in entry number %q: %w", number, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in entry number %q: %w", number, err)
	}

	return year, month, seq, nil
}

// CompareEntryNumbers orders two entry numbers. Well-formed numbers compare
// by (year, month, seq); anything else falls back to text order.
func CompareEntryNumbers(a, b string) int {
	ay, am, as, errA := ParseEntryNumber(a)
	by, bm, bs, errB := ParseEntryNumber(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	switch {
	case ay != by:
		return cmpInt(ay, by)
	case am != bm:
		return cmpInt(am, bm)
	default:
		return cmpInt(as, bs)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
