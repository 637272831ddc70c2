package storage

import "encoding/binary"

// Big-endian helpers for the two and four byte integers that appear
// throughout page headers and cells.

func Get2Byte(buf []byte) uint16 {
	return binary.BigEndian.Uint16(buf)
}

func Put2Byte(buf []byte, v uint16) {
	binary.BigEndian.PutUint16(buf, v)
}

func Get4Byte(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf)
}

func Put4Byte(buf []byte, v uint32) {
	binary.BigEndian.PutUint32(buf, v)
}
