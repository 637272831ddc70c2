package storage

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileHeader_Bytes(t *testing.T) {
	assert := require.New(t)

	h := NewFileHeader(1024)
	bs := h.Bytes()

	assert.Len(bs, 100)
	assert.Equal([]byte{'S', 'Q', 'L', 'i', 't', 'e', ' ', 'f', 'o', 'r', 'm', 'a', 't', ' ', '3', 0}, bs[:16])
	assert.Equal([]byte{0x04, 0x00}, bs[16:18])
	assert.Equal([]byte{0x01, 0x01, 0x00, 0x40, 0x20, 0x20}, bs[0x12:0x18])
	assert.Equal(uint32(1), binary.BigEndian.Uint32(bs[0x2C:]))
	assert.Equal(uint32(20000), binary.BigEndian.Uint32(bs[0x30:]))
	assert.Equal(uint32(1), binary.BigEndian.Uint32(bs[0x38:]))

	// Everything past the user cookie block is unused.
	for i := 68; i < 100; i++ {
		assert.Zero(bs[i], "byte %d", i)
	}
}

func TestFileHeader_RoundTrip(t *testing.T) {
	assert := require.New(t)

	h := NewFileHeader(4096)
	h.FileChangeCounter = 7
	h.SchemaVersion = 3
	h.UserCookie = 99

	assert.Equal(h, ParseFileHeader(h.Bytes()))
}

func TestValidateFileHeader(t *testing.T) {
	valid := NewFileHeader(1024).Bytes()

	corrupt := func(offset int, b byte) []byte {
		bs := NewFileHeader(1024).Bytes()
		bs[offset] = b
		return bs
	}

	testcases := []struct {
		name   string
		header []byte
		err    error
	}{
		{name: "valid", header: valid, err: nil},
		{name: "bad magic", header: corrupt(0, 'Z'), err: ErrCorruptHeader},
		{name: "bad constant at 0x12", header: corrupt(0x12, 0xFF), err: ErrCorruptHeader},
		{name: "nonzero at 0x20", header: corrupt(0x20, 1), err: ErrCorruptHeader},
		{name: "nonzero at 0x24", header: corrupt(0x24, 1), err: ErrCorruptHeader},
		{name: "bad constant at 0x2C", header: corrupt(0x2F, 2), err: ErrCorruptHeader},
		{name: "bad page cache size", header: corrupt(0x33, 0), err: ErrCorruptHeader},
		{name: "nonzero at 0x34", header: corrupt(0x34, 1), err: ErrCorruptHeader},
		{name: "bad constant at 0x38", header: corrupt(0x3B, 0), err: ErrCorruptHeader},
		{name: "nonzero at 0x40", header: corrupt(0x40, 1), err: ErrCorruptHeader},
		{name: "truncated", header: valid[:50], err: ErrCorruptHeader},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.err, ValidateFileHeader(tt.header))
		})
	}
}
