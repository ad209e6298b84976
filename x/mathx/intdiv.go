package mathx

import "golang.org/x/exp/constraints"

// CeilDiv returns ceil(a/b) for unsigned operands; b == 0 yields 0.
func CeilDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// ToBoundary returns how many units fit between off and the next multiple
// of size, capped at n. size must be non-zero.
func ToBoundary[T constraints.Unsigned](off, size, n T) T {
	room := size - off%size
	if n < room {
		return n
	}
	return room
}
