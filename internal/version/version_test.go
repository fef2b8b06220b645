package version

import (
	"sort"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"equal", "7.0.0", "7.0.0", 0},
		{"numeric not lexical", "7.10.0", "7.9.0", 1},
		{"major wins", "10.0.0", "9.9.9", 1},
		{"shorter equal", "7.0", "7.0.0", 0},
		{"shorter older", "7.0", "7.0.1", -1},
		{"qualifier ignored", "7.0.0.GA", "7.0.0", 0},
		{"qualifier case", "7.0.0.ga", "7.0.0.RC", 0},
		{"qualifier does not win", "7.0.0.GA", "7.0.1.RC", -1},
		{"ci build", "7.1.0.v20180207150313", "7.0.2.GA", 1},
		{"empty before real", "", "0.0.1", -1},
		{"real after empty", "1.0.0", "", 1},
		{"both empty", "", "", 0},
		{"leading v", "v2.0.0", "1.9.0", 1},
		{"dash segment", "2.0.0-beta", "2.0.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareAntisymmetric(t *testing.T) {
	versions := []string{
		"", "0", "1", "1.0", "1.0.0", "1.0.0.GA", "1.0.1", "1.2.0", "1.10.0",
		"7.0.0.RC", "7.0.0.GA", "7.9.0", "7.10.0", "7.1.0.v20180207150313",
		"10.0.0", "v3.0.0",
	}

	for _, a := range versions {
		if got := Compare(a, a); got != 0 {
			t.Errorf("Compare(%q, %q) = %d, want 0", a, a, got)
		}
		for _, b := range versions {
			if Compare(a, b) != -Compare(b, a) {
				t.Errorf("Compare(%q, %q) = %d but Compare(%q, %q) = %d", a, b, Compare(a, b), b, a, Compare(b, a))
			}
			for _, c := range versions {
				if Compare(a, b) <= 0 && Compare(b, c) <= 0 && Compare(a, c) > 0 {
					t.Errorf("not transitive: %q <= %q <= %q but %q > %q", a, b, c, a, c)
				}
			}
		}
	}
}

func TestCompareReverse(t *testing.T) {
	vs := []string{"7.0.0", "7.10.0", "7.9.1", "6.3.0"}
	sort.SliceStable(vs, func(i, j int) bool { return CompareReverse(vs[i], vs[j]) < 0 })

	want := []string{"7.10.0", "7.9.1", "7.0.0", "6.3.0"}
	for i := range want {
		if vs[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", vs, want)
		}
	}
}

func TestCompareTimestamp(t *testing.T) {
	if CompareTimestamp("20180207150313", "20180107150313") != 1 {
		t.Error("later timestamp should sort after earlier")
	}
	if CompareTimestamp("20180207150313", "20180207150313") != 0 {
		t.Error("equal timestamps should compare equal")
	}
}

func TestStripQualifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"7.1.0.GA", "7.1.0"},
		{"7.1.0", "7.1.0"},
		{"7.1.0.v20180207150313", "7.1.0"},
		{"7.1.0.RC.1", "7.1.0"},
		{"master", "master"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripQualifier(tt.in); got != tt.want {
			t.Errorf("StripQualifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithQualifier(t *testing.T) {
	if got := WithQualifier("7.0.0"); got != "7.0.0.GA" {
		t.Errorf("WithQualifier(7.0.0) = %q", got)
	}
	if got := WithQualifier("7.0.0.RC"); got != "7.0.0.RC" {
		t.Errorf("WithQualifier(7.0.0.RC) = %q", got)
	}
}

func TestMax(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"empty", nil, ""},
		{"single", []string{"7.0.0.GA"}, "7.0.0.GA"},
		{"numeric", []string{"7.9.0.GA", "7.10.0.GA", "7.1.0.GA"}, "7.10.0.GA"},
		{"tie broken by name", []string{"7.0.0.GA", "7.0.0.RC"}, "7.0.0.RC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Max(tt.in); got != tt.want {
				t.Errorf("Max(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
