package util

import "testing"

func TestMinMax(t *testing.T) {
	if got := Min(3, 7); got != 3 {
		t.Fatalf("Min(3,7) = %d, want 3", got)
	}
	if got := Min(7, 3); got != 3 {
		t.Fatalf("Min(7,3) = %d, want 3", got)
	}
	if got := Max(3, 7); got != 7 {
		t.Fatalf("Max(3,7) = %d, want 7", got)
	}
	if got := Max(7, 3); got != 7 {
		t.Fatalf("Max(7,3) = %d, want 7", got)
	}
}

func TestRounddownRoundup(t *testing.T) {
	cases := []struct{ v, b, down, up uint64 }{
		{0, 4096, 0, 0},
		{1, 4096, 0, 4096},
		{4096, 4096, 4096, 4096},
		{4097, 4096, 4096, 8192},
		{8191, 4096, 4096, 8192},
	}
	for _, c := range cases {
		if got := Rounddown(c.v, c.b); got != c.down {
			t.Errorf("Rounddown(%d,%d) = %d, want %d", c.v, c.b, got, c.down)
		}
		if got := Roundup(c.v, c.b); got != c.up {
			t.Errorf("Roundup(%d,%d) = %d, want %d", c.v, c.b, got, c.up)
		}
	}
}
