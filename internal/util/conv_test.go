package util

import "testing"

func TestMustParseUint(t *testing.T) {
	cases := map[string]uint{
		"0":    0,
		"42":   42,
		"":     0,
		"abc":  0,
		"-5":   0,
		"4.2":  0,
		" 12 ": 0,
	}
	for in, want := range cases {
		if got := MustParseUint(in); got != want {
			t.Errorf("MustParseUint(%q) = %d, want %d", in, got, want)
		}
	}
}
