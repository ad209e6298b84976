package conv

// Utoa writes base-10 representation of n into buf and returns the used slice.
// buf should be length >= 20 for uint64.
func Utoa(buf []byte, n uint64) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	i := len(buf)
	if n == 0 {
		i--
		buf[i] = '0'
	} else {
		for n > 0 && i > 0 {
			i--
			buf[i] = byte('0' + (n % 10))
			n /= 10
		}
	}
	return buf[i:]
}

// PadUtoa fills all of buf with n right-aligned, left-padded with pad.
// If n has more digits than buf holds, only the low-order digits remain.
func PadUtoa(buf []byte, n uint64, pad byte) []byte {
	used := Utoa(buf, n)
	for i := 0; i < len(buf)-len(used); i++ {
		buf[i] = pad
	}
	return buf
}
