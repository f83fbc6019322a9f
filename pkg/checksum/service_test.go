package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = "/ABC\r\n1-0:31.7.0(012)\r\n"

func TestCalculate(t *testing.T) {
	assert.Equal(t, uint16(0xC9D8), Calculate([]byte(body)))
}

func TestValidate(t *testing.T) {
	result := Validate([]byte(body), "C9D8")
	assert.Equal(t, Valid, result.Status)
	assert.True(t, result.OK())
	assert.NoError(t, result.Err())

	// Lower case and a trailing CRLF are accepted.
	assert.Equal(t, Valid, Validate([]byte(body), "c9d8\r\n").Status)
}

func TestValidateMismatch(t *testing.T) {
	result := Validate([]byte(body), "1D4A")
	assert.Equal(t, Invalid, result.Status)
	assert.Equal(t, uint16(0x1D4A), result.Given)
	assert.Equal(t, uint16(0xC9D8), result.Calculated)
	assert.False(t, result.OK())
	assert.ErrorIs(t, result.Err(), ErrChecksumMismatch)
}

func TestValidateSkipsEmptyTrailer(t *testing.T) {
	for _, trailer := range []string{"", "\r\n", "  "} {
		result := Validate([]byte("anything"), trailer)
		assert.Equal(t, Skipped, result.Status)
		assert.True(t, result.OK())
	}
}

func TestValidateMalformedTrailer(t *testing.T) {
	result := Validate([]byte(body), "XYZ1")
	assert.Equal(t, Invalid, result.Status)
	assert.Equal(t, "XYZ1", result.Trailer)
	assert.ErrorIs(t, result.Err(), ErrChecksumMismatch)
}

func TestValidateDetectsSingleByteFlip(t *testing.T) {
	original := []byte(body)
	trailer := "C9D8"
	require.Equal(t, Valid, Validate(original, trailer).Status)

	for i := range original {
		flipped := append([]byte(nil), original...)
		flipped[i] ^= 0x01
		assert.Equal(t, Invalid, Validate(flipped, trailer).Status, "byte %d", i)
	}
}

func TestCalculateDoesNotModifyBody(t *testing.T) {
	buf := make([]byte, len(body), len(body)+8)
	copy(buf, body)
	Calculate(buf)
	assert.Equal(t, body, string(buf[:len(body)]))
	assert.Equal(t, byte(0), buf[:cap(buf)][len(body)])
}
