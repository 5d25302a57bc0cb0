package common

// Halton returns element i of the Halton low-discrepancy sequence for the
// given base. The sequence is deterministic: the same (i, base) always yields
// the same value, which keeps procedural layouts reproducible.
//
// Reference: https://en.wikipedia.org/wiki/Halton_sequence
//
// Parameters:
//   - i: the 1-based sequence index (index 0 yields 0)
//   - base: the sequence base (must be >= 2; typically a small prime)
//
// Returns:
//   - float32: the sequence value in [0, 1)
func Halton(i uint32, base uint32) float32 {
	if base < 2 {
		base = 2
	}
	f := float32(1)
	r := float32(0)
	for i > 0 {
		f /= float32(base)
		r += f * float32(i%base)
		i /= base
	}
	return r
}

// Hash01 maps an integer to a deterministic pseudo-random value in [0, 1).
// Uses a 32-bit finalizer-style bit mix; not suitable for cryptography, only
// for reproducible jitter.
//
// Parameters:
//   - i: the input value
//
// Returns:
//   - float32: the hashed value in [0, 1)
func Hash01(i uint32) float32 {
	i ^= i >> 16
	i *= 0x7feb352d
	i ^= i >> 15
	i *= 0x846ca68b
	i ^= i >> 16
	return float32(i) / float32(1<<32)
}

// HashString01 maps a string to a deterministic value in [0, 1) using an
// FNV-1a style fold followed by Hash01.
//
// Parameters:
//   - s: the input string
//
// Returns:
//   - float32: the hashed value in [0, 1)
func HashString01(s string) float32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return Hash01(h)
}
