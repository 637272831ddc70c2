package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// FileHeaderLen is the length of the database file header found at the
// start of page 1.
const FileHeaderLen = 100

// DefaultPageCacheSize is the canonical pager cache size recorded at
// offset 48 of the file header.
const DefaultPageCacheSize = 20000

var headerMagic = []byte("SQLite format 3\000")

// ErrCorruptHeader is returned when the database file header fails validation.
var ErrCorruptHeader = errors.New("corrupt file header")

// FileHeader represents a database file header
type FileHeader struct {
	// 16-17	PageSize	uint16	Size of database page
	PageSize uint16
	// 24-27	FileChangeCounter	uint32	Initialized to 0. Each time a modification is made to the database, this counter is increased.
	FileChangeCounter uint32
	// 40-43	SchemaVersion	uint32	Initialized to 0. Each time the database schema is modified, this counter is increased.
	SchemaVersion uint32
	// 48-51	PageCacheSize	uint32	Default pager cache size in bytes. Initialized to 20000
	PageCacheSize uint32
	// 60-63	UserCookie	uint32	Available to the user for read-write access. Initialized to 0
	UserCookie uint32
}

// NewFileHeader creates a new FileHeader
func NewFileHeader(pageSize uint16) FileHeader {
	return FileHeader{
		PageSize:          pageSize,
		FileChangeCounter: 0,
		SchemaVersion:     0,
		PageCacheSize:     DefaultPageCacheSize,
		UserCookie:        0,
	}
}

// Encode writes the 100 byte header at the start of data.
func (h FileHeader) Encode(data []byte) {
	copy(data, headerMagic)

	// PageSize: The two-byte value beginning at offset 16 determines the page size of the database.
	// Interpreted as a big-endian integer; must be a power of two between 512 and 32768, inclusive.
	binary.BigEndian.PutUint16(data[16:], h.PageSize)

	// 18	1	File format write version.
	data[18] = 1
	// 19	1	File format read version.
	data[19] = 1
	// 20	1	Bytes of unused "reserved" space at the end of each page. Usually 0.
	data[20] = 0
	// 21	1	Maximum embedded payload fraction. Must be 64.
	data[21] = 64
	// 22	1	Minimum embedded payload fraction. Must be 32.
	data[22] = 32
	// 23	1	Leaf payload fraction. Must be 32.
	data[23] = 32

	binary.BigEndian.PutUint32(data[24:], h.FileChangeCounter)
	binary.BigEndian.PutUint32(data[28:], 0)
	binary.BigEndian.PutUint32(data[32:], 0)
	binary.BigEndian.PutUint32(data[36:], 0)
	binary.BigEndian.PutUint32(data[40:], h.SchemaVersion)
	binary.BigEndian.PutUint32(data[44:], 1)
	binary.BigEndian.PutUint32(data[48:], h.PageCacheSize)
	binary.BigEndian.PutUint32(data[52:], 0)
	binary.BigEndian.PutUint32(data[56:], 1)
	binary.BigEndian.PutUint32(data[60:], h.UserCookie)
	binary.BigEndian.PutUint32(data[64:], 0)
}

// Bytes returns the header serialized to a fresh 100 byte slice.
func (h FileHeader) Bytes() []byte {
	data := make([]byte, FileHeaderLen)
	h.Encode(data)
	return data
}

// ParseFileHeader deserializes a FileHeader
func ParseFileHeader(buf []byte) FileHeader {
	if len(buf) < FileHeaderLen {
		panic("unexpected header length")
	}

	return FileHeader{
		PageSize:          binary.BigEndian.Uint16(buf[16:18]),
		FileChangeCounter: binary.BigEndian.Uint32(buf[24:28]),
		SchemaVersion:     binary.BigEndian.Uint32(buf[40:44]),
		PageCacheSize:     binary.BigEndian.Uint32(buf[48:52]),
		UserCookie:        binary.BigEndian.Uint32(buf[60:64]),
	}
}

// ValidateFileHeader checks the fixed fields of a 100 byte file header.
// Any mismatch means the file was not produced by a compatible writer
// and the database must not be opened.
func ValidateFileHeader(buf []byte) error {
	if len(buf) < FileHeaderLen {
		return ErrCorruptHeader
	}

	wellKnown := []byte{0x01, 0x01, 0x00, 0x40, 0x20, 0x20}

	switch {
	case !bytes.Equal(buf[0:16], headerMagic):
		return ErrCorruptHeader
	case !bytes.Equal(buf[0x12:0x18], wellKnown):
		return ErrCorruptHeader
	case binary.BigEndian.Uint32(buf[0x20:]) != 0:
		return ErrCorruptHeader
	case binary.BigEndian.Uint32(buf[0x24:]) != 0:
		return ErrCorruptHeader
	case binary.BigEndian.Uint32(buf[0x2C:]) != 1:
		return ErrCorruptHeader
	case binary.BigEndian.Uint32(buf[0x30:]) != DefaultPageCacheSize:
		return ErrCorruptHeader
	case binary.BigEndian.Uint32(buf[0x34:]) != 0:
		return ErrCorruptHeader
	case binary.BigEndian.Uint32(buf[0x38:]) != 1:
		return ErrCorruptHeader
	case binary.BigEndian.Uint32(buf[0x40:]) != 0:
		return ErrCorruptHeader
	}

	return nil
}
