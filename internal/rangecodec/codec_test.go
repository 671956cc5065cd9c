package rangecodec

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showtix/internal/ledger"
)

func TestCompress(t *testing.T) {
	cases := []struct {
		name string
		in   []int
		want string
	}{
		{"empty", nil, ""},
		{"singleton", []int{7}, "7"},
		{"run", []int{1, 2, 3, 4, 5}, "1-5"},
		{"mixed", []int{1, 2, 3, 5, 7, 8, 9}, "1-3,5,7-9"},
		{"unsorted input", []int{9, 1, 7, 3, 2, 8, 5}, "1-3,5,7-9"},
		{"duplicates collapsed", []int{4, 4, 5, 5, 6}, "4-6"},
		{"pair is a range", []int{10, 11}, "10-11"},
		{"zero allowed", []int{0, 1, 3}, "0-1,3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compress(tc.in))
		})
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("1-3,5,7-9")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 5, 7, 8, 9}, got)

	got, err = Parse("")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Operators paste ranges with stray spaces
	got, err = Parse(" 1-3 , 5 ,7 ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 5, 7}, got)

	// Out-of-order tokens still yield an ascending set
	got, err = Parse("7,1-3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 7}, got)
}

func TestParseRejectsMalformedTokens(t *testing.T) {
	for _, text := range []string{"a", "1-", "-3", "1--3", "1-3-5", "1,,3", "1.5", "+2", "-1"} {
		_, err := Parse(text)
		var ferr *ledger.FormatError
		require.ErrorAs(t, err, &ferr, "input %q", text)
	}

	// Inverted range
	_, err := Parse("9-3")
	var ferr *ledger.FormatError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "9-3", ferr.Token)
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse("1-5,3")
	var derr *ledger.DuplicateError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 3, derr.ControlNumber)

	_, err = Parse("4,4")
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 4, derr.ControlNumber)
}

// Round trip over randomized sets: Parse(Compress(S)) == S and Compress is
// idempotent through a parse cycle.
func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		set := make(map[int]struct{})
		for j := 0; j < rng.Intn(40); j++ {
			set[rng.Intn(100)] = struct{}{}
		}
		nums := make([]int, 0, len(set))
		for n := range set {
			nums = append(nums, n)
		}

		text := Compress(nums)
		back, err := Parse(text)
		require.NoError(t, err, "compressed %q", text)
		assert.ElementsMatch(t, nums, back)
		assert.Equal(t, text, Compress(back), "compress not stable for %q", text)
	}
}
