package search

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout produced for pattern matches on dates.
const DateLayout = "2006-01-02"

// DateMutator parses the value with the first matching layout. Unparseable
// values drop the constraint. For pattern operators the date is rendered
// back with DateLayout and wrapped in wildcards.
func DateMutator(layouts ...string) Mutator {
	if len(layouts) == 0 {
		layouts = []string{DateLayout, time.RFC3339}
	}

	return func(value any, like bool) any {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		s = strings.TrimSpace(s)

		for _, layout := range layouts {
			t, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			if like {
				return "%" + t.Format(DateLayout) + "%"
			}
			return t
		}

		return nil
	}
}

// DecimalMutator parses the value as a decimal number, dropping the
// constraint when it is not one.
func DecimalMutator() Mutator {
	return func(value any, _ bool) any {
		s, ok := value.(string)
		if !ok {
			return nil
		}

		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		return d
	}
}

// IntMutator parses the value as an integer, dropping the constraint when it
// is not one. Zero is kept.
func IntMutator() Mutator {
	return func(value any, _ bool) any {
		s, ok := value.(string)
		if !ok {
			return nil
		}

		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		return n
	}
}
