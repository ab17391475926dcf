package keyspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		ordinal uint64
		length  int
		want    string
	}{
		{3, 4, "0003"},
		{9999, 4, "9999"},
		{0, 1, "0"},
		{9, 1, "9"},
		{420, 4, "0420"},
		{0, 8, "00000000"},
		{99999999, 8, "99999999"},
		{1234567, 8, "01234567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Generate(tt.ordinal, tt.length), "Generate(%d, %d)", tt.ordinal, tt.length)
	}
}

func TestGenerateInjective(t *testing.T) {
	for length := MinLength; length <= 4; length++ {
		seen := make(map[string]uint64, Size(length))
		for i := uint64(0); i < Size(length); i++ {
			c := Generate(i, length)
			require.Len(t, c, length)
			prev, dup := seen[c]
			require.False(t, dup, "ordinals %d and %d both map to %q", prev, i, c)
			seen[c] = i
		}
	}
}

func TestAppendReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, MaxLength)

	buf = Append(buf[:0], 42, 4)
	assert.Equal(t, "0042", string(buf))

	buf = Append(buf[:0], 7, 2)
	assert.Equal(t, "07", string(buf))

	prefixed := Append([]byte("pin:"), 5, 3)
	assert.Equal(t, "pin:005", string(prefixed))
}

func TestValidateLength(t *testing.T) {
	for length := MinLength; length <= MaxLength; length++ {
		assert.NoError(t, ValidateLength(length))
	}
	assert.Error(t, ValidateLength(0))
	assert.Error(t, ValidateLength(9))
	assert.Error(t, ValidateLength(-1))
}

func TestSize(t *testing.T) {
	assert.Equal(t, uint64(10), Size(1))
	assert.Equal(t, uint64(10000), Size(4))
	assert.Equal(t, uint64(100000000), Size(8))
}
