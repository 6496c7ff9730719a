package utils

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Marketing Initiative", "marketing-initiative"},
		{"already slug", "marketing-initiative", "marketing-initiative"},
		{"punctuation run", "Hello,  World!", "hello-world"},
		{"mixed symbols", "Q3/Q4 Results: 2025", "q3-q4-results-2025"},
		{"leading and trailing junk", "  --Launch Day--  ", "launch-day"},
		{"digits kept", "Top 10 Tips", "top-10-tips"},
		{"empty", "", ""},
		{"only symbols", "!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.in); got != tc.want {
				t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
