package config

import (
	"testing"
	"time"
)

func TestSplitList(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"123", []string{"123"}},
		{"1, 2 ,3", []string{"1", "2", "3"}},
		{"1;2;3", []string{"1", "2", "3"}},
		{" , ,", nil},
	}
	for _, tc := range cases {
		got := splitList(tc.raw)
		if len(got) != len(tc.want) {
			t.Fatalf("splitList(%q) = %v, want %v", tc.raw, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("splitList(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		}
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	if loc := (Settings{}).Location(); loc != time.UTC {
		t.Fatalf("expected UTC for an empty timezone, got %v", loc)
	}
	if loc := (Settings{Timezone: "Not/AZone"}).Location(); loc != time.UTC {
		t.Fatalf("expected UTC for an unknown timezone, got %v", loc)
	}
	loc := (Settings{Timezone: "Europe/Berlin"}).Location()
	if loc.String() != "Europe/Berlin" {
		t.Fatalf("expected Europe/Berlin, got %v", loc)
	}
}
