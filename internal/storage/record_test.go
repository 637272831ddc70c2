package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecord_RoundTrip(t *testing.T) {
	assert := require.New(t)

	r := NewRecord([]*Field{
		{Type: Text, Data: "Databases"},
		{Type: Integer, Data: int32(42)},
		{Type: Null, Data: nil},
		{Type: Byte, Data: byte(7)},
		{Type: SmallInt, Data: int16(-3)},
	})

	bs, err := r.Bytes()
	assert.NoError(err)

	decoded, err := ReadRecord(bs)
	assert.NoError(err)
	assert.Len(decoded.Fields, 5)
	assert.Equal("Databases", decoded.Fields[0].Data)
	assert.Equal(int32(42), decoded.Fields[1].Data)
	assert.Nil(decoded.Fields[2].Data)
	assert.Equal(byte(7), decoded.Fields[3].Data)
	assert.Equal(int16(-3), decoded.Fields[4].Data)
}

func TestRecord_SingleText(t *testing.T) {
	assert := require.New(t)

	r := NewRecord([]*Field{{Type: Text, Data: "hello"}})
	bs, err := r.Bytes()
	assert.NoError(err)

	// 1 byte header length + varint32 serial type, then the body
	assert.Equal(byte(5), bs[0])
	assert.Equal("hello", string(bs[5:]))

	serial, _ := GetVarint32(bs[1:])
	assert.Equal(uint32(2*5+13), serial)
}

func TestRecord_Corrupt(t *testing.T) {
	assert := require.New(t)

	_, err := ReadRecord(nil)
	assert.ErrorIs(err, ErrCorruptRecord)

	// Header length pointing past the payload
	_, err = ReadRecord([]byte{0x40, 0x01})
	assert.ErrorIs(err, ErrCorruptRecord)

	// Integer field with a truncated body
	r := NewRecord([]*Field{{Type: Integer, Data: int32(5)}})
	bs, err := r.Bytes()
	assert.NoError(err)
	_, err = ReadRecord(bs[:len(bs)-2])
	assert.ErrorIs(err, ErrCorruptRecord)
}
