package inbox

import "testing"

func TestSenderColor(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"", 0},
		{"Alice", 4},
		{"Bob", 5},
		{"Unknown", 2},
		{"Maria Manager", 3},
		{"Zoë", 4},
		{"😀", 1},
	}
	for _, tt := range tests {
		if got := SenderColor(tt.name); got != tt.want {
			t.Errorf("SenderColor(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestSenderColor_StableAndInRange(t *testing.T) {
	names := []string{"Alice", "Bob", "a very long sender name that overflows the hash several times", "ÅÄÖ"}
	for _, n := range names {
		first := SenderColor(n)
		if first < 0 || first >= PaletteSize {
			t.Errorf("SenderColor(%q) = %d, out of range", n, first)
		}
		for i := 0; i < 5; i++ {
			if got := SenderColor(n); got != first {
				t.Errorf("SenderColor(%q) = %d on call %d, want %d", n, got, i, first)
			}
		}
	}
}
