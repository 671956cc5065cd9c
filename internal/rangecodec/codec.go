// Package rangecodec converts between ordered sets of ticket control numbers
// and the compact textual notation used everywhere a set crosses a human
// boundary: "1-5,7,10-12". Compress is canonical — the same set always
// yields the same string — and Parse(Compress(s)) == s for any finite set
// of non-negative integers.
package rangecodec

import (
	"sort"
	"strconv"
	"strings"

	"showtix/internal/ledger"
)

// Compress renders numbers in canonical range notation: ascending, comma
// separated, consecutive runs of two or more as "start-end", singletons as
// the bare number. The input is deduplicated and need not be sorted.
// An empty set yields an empty string.
func Compress(numbers []int) string {
	if len(numbers) == 0 {
		return ""
	}

	sorted := make([]int, 0, len(numbers))
	seen := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		sorted = append(sorted, n)
	}
	sort.Ints(sorted)

	var b strings.Builder
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(sorted[i]))
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(sorted[j]))
		}
		i = j + 1
	}
	return b.String()
}

// Parse expands range notation into the ascending set of control numbers.
// Tokens may be bare non-negative integers or "a-b" with a <= b; whitespace
// around tokens is tolerated because operators type these into free-text
// inputs. Returns *ledger.FormatError for malformed tokens and
// *ledger.DuplicateError when a number appears twice after expansion.
// An empty string yields an empty set.
func Parse(text string) ([]int, error) {
	if strings.TrimSpace(text) == "" {
		return []int{}, nil
	}

	seen := make(map[int]struct{})
	var out []int

	for _, raw := range strings.Split(text, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			return nil, &ledger.FormatError{Token: raw}
		}

		lo, hi, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		for n := lo; n <= hi; n++ {
			if _, dup := seen[n]; dup {
				return nil, &ledger.DuplicateError{ControlNumber: n}
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}

	sort.Ints(out)
	return out, nil
}

func parseToken(token string) (lo, hi int, err error) {
	if dash := strings.IndexByte(token, '-'); dash >= 0 {
		lo, err = parseNumber(token[:dash], token)
		if err != nil {
			return 0, 0, err
		}
		hi, err = parseNumber(token[dash+1:], token)
		if err != nil {
			return 0, 0, err
		}
		if lo > hi {
			return 0, 0, &ledger.FormatError{Token: token}
		}
		return lo, hi, nil
	}

	lo, err = parseNumber(token, token)
	if err != nil {
		return 0, 0, err
	}
	return lo, lo, nil
}

// parseNumber rejects signs, leading/trailing garbage, and negatives in one
// place. The token argument is only used for error reporting so a bad range
// bound names the whole "a-b" token the operator typed.
func parseNumber(s, token string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ledger.FormatError{Token: token}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, &ledger.FormatError{Token: token}
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ledger.FormatError{Token: token}
	}
	return n, nil
}
