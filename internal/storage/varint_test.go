package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarint32_RoundTrip(t *testing.T) {
	assert := require.New(t)

	for _, v := range []uint32{0, 1, 127, 128, 999, 1<<14 - 1, 1 << 21, 1<<28 - 1} {
		buf := make([]byte, Varint32Len)
		n := PutVarint32(buf, v)
		assert.Equal(Varint32Len, n)

		got, read := GetVarint32(buf)
		assert.Equal(Varint32Len, read)
		assert.Equal(v, got)
	}
}

func TestVarint32_Encoding(t *testing.T) {
	assert := require.New(t)

	buf := make([]byte, Varint32Len)
	PutVarint32(buf, 4)
	assert.Equal([]byte{0x80, 0x80, 0x80, 0x04}, buf)

	PutVarint32(buf, 999)
	assert.Equal([]byte{0x80, 0x80, 0x87, 0x67}, buf)
}
