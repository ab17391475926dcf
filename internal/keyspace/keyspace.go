package keyspace

import "fmt"

const (
	// MinLength is the shortest supported PIN
	MinLength = 1

	// MaxLength bounds the keyspace at 10^8 candidates
	MaxLength = 8
)

var powers = [MaxLength + 1]uint64{
	1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000,
}

// ValidateLength reports whether length is a supported PIN length
func ValidateLength(length int) error {
	if length < MinLength || length > MaxLength {
		return fmt.Errorf("pin length %d outside [%d, %d]", length, MinLength, MaxLength)
	}
	return nil
}

// Size returns the number of candidates of the given length, 10^length.
// length must satisfy ValidateLength.
func Size(length int) uint64 {
	return powers[length]
}

// Generate returns the zero-padded decimal candidate for ordinal. Callers
// must keep 0 <= ordinal < Size(length); the contract is not checked.
func Generate(ordinal uint64, length int) string {
	var buf [MaxLength]byte
	return string(Append(buf[:0], ordinal, length))
}

// Append writes the candidate for ordinal to dst without allocating when dst
// has capacity for length more bytes.
func Append(dst []byte, ordinal uint64, length int) []byte {
	n := len(dst)
	for i := 0; i < length; i++ {
		dst = append(dst, '0')
	}
	for i := n + length - 1; i >= n; i-- {
		dst[i] = byte('0' + ordinal%10)
		ordinal /= 10
	}
	return dst
}
