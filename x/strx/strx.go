package strx

// Coalesce returns s if non-empty, otherwise d.
func Coalesce(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// KeepRange returns the bytes of src within [lo, hi], in order.
// The result never aliases src.
func KeepRange(src []byte, lo, hi byte) []byte {
	out := make([]byte, 0, len(src))
	for _, b := range src {
		if b >= lo && b <= hi {
			out = append(out, b)
		}
	}
	return out
}

// Fields splits s on sep and drops empty fragments.
func Fields(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
