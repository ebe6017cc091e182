package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// DateLayout is the only accepted date format.
const DateLayout = "2006-01-02"

// DateSet holds dates in DateLayout form. ParseDates and Normalize return it
// sorted and without duplicates.
type DateSet []string

// ParseDates validates values and returns them sorted and de-duplicated. No
// values means the single date of today.
func ParseDates(values []string, today time.Time) (DateSet, error) {
	if len(values) == 0 {
		return DateSet{today.Format(DateLayout)}, nil
	}
	out := make(DateSet, 0, len(values))
	for _, v := range values {
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", v)
		}
		out = append(out, d.Format(DateLayout))
	}
	return out.Normalize(), nil
}

// Normalize returns a sorted copy of d without duplicates.
func (d DateSet) Normalize() DateSet {
	out := append(DateSet(nil), d...)
	sort.Strings(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[n-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}

// Contains does not rely on d being sorted.
func (d DateSet) Contains(date string) bool {
	for _, v := range d {
		if v == date {
			return true
		}
	}
	return false
}

var dateToken = regexp.MustCompile(`[0-9]{4}-[0-9]{2}-[0-9]{2}`)

// ExtractDate returns the first valid calendar date written as YYYY-MM-DD in
// name, which may hold folders ("2023-10-02/part-0.csv"). The token must not
// touch other digits.
func ExtractDate(name string) (string, bool) {
	for _, loc := range dateToken.FindAllStringIndex(name, -1) {
		if loc[0] > 0 && isDigit(name[loc[0]-1]) {
			continue
		}
		if loc[1] < len(name) && isDigit(name[loc[1]]) {
			continue
		}
		tok := name[loc[0]:loc[1]]
		if _, err := time.Parse(DateLayout, tok); err == nil {
			return tok, true
		}
	}
	return "", false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
