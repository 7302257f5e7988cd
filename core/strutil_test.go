package core

import "testing"

func TestItoa(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-42, "-42"},
		{65535, "65535"},
	}
	for _, tt := range tests {
		if got := itoa(tt.in); got != tt.want {
			t.Errorf("itoa(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := utoa(^uint32(0)); got != "4294967295" {
		t.Errorf("utoa(max) = %q", got)
	}
}
