package storage

// Varint32Len is the number of bytes reserved on disk for a varint32.
// Cell layouts assume the fixed width, so the encoder always emits all
// four bytes with continuation bits set on the first three.
const Varint32Len = 4

// PutVarint32 encodes v into the first four bytes of buf and returns
// the number of bytes written.
func PutVarint32(buf []byte, v uint32) int {
	buf[0] = byte((v>>21)&0x7F) | 0x80
	buf[1] = byte((v>>14)&0x7F) | 0x80
	buf[2] = byte((v>>7)&0x7F) | 0x80
	buf[3] = byte(v & 0x7F)
	return Varint32Len
}

// GetVarint32 decodes a varint32 from the start of buf and returns the
// value along with the number of bytes read.
func GetVarint32(buf []byte) (uint32, int) {
	v := uint32(buf[3] & 0x7F)
	v |= uint32(buf[2]&0x7F) << 7
	v |= uint32(buf[1]&0x7F) << 14
	v |= uint32(buf[0]&0x7F) << 21
	return v, Varint32Len
}
