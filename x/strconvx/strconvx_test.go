package strconvx

import "testing"

func TestParseUintBounds(t *testing.T) {
	ok := []struct {
		s    string
		bits int
		want uint64
	}{
		{"0", 32, 0},
		{"12500000", 32, 12_500_000},
		{"4294967295", 32, 1<<32 - 1},
		{"255", 8, 255},
	}
	for _, c := range ok {
		got, err := ParseUint(c.s, 10, c.bits)
		if err != nil || got != c.want {
			t.Fatalf("ParseUint(%q,%d) = %d,%v want %d", c.s, c.bits, got, err, c.want)
		}
	}
	for _, s := range []string{"", "4294967296", "12a", "-1", "1:2"} {
		if _, err := ParseUint(s, 10, 32); err == nil {
			t.Fatalf("ParseUint(%q) accepted", s)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := FormatUint(255, 16); got != "ff" {
		t.Fatalf("FormatUint = %q", got)
	}
	if got := Itoa(-42); got != "-42" {
		t.Fatalf("Itoa = %q", got)
	}
}
