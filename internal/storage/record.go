package storage

import (
	"errors"
	"fmt"
)

// SQLType identifies the storage class of a record field.
type SQLType uint32

const (
	Null     SQLType = 0
	Byte     SQLType = 1
	SmallInt SQLType = 2
	Integer  SQLType = 4
	Text     SQLType = 28
)

// ErrCorruptRecord is returned when a record payload cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt record")

// Field is a field in a database record
type Field struct {
	Type SQLType
	Data interface{}
}

// Record is a set of fields serialized into a table cell payload. The
// layout follows the record format: a header of serial types (one byte
// for the header length, then one entry per field) followed by the
// field contents in order.
type Record struct {
	Fields []*Field
}

// NewRecord creates a database record from a set of fields
func NewRecord(fields []*Field) Record {
	return Record{Fields: fields}
}

func (f *Field) serialSize() int {
	switch f.Type {
	case Null:
		return 0
	case Byte:
		return 1
	case SmallInt:
		return 2
	case Integer:
		return 4
	case Text:
		return len(f.Data.(string))
	}
	panic(fmt.Sprintf("unexpected sql type %d", f.Type))
}

// Bytes serializes the record for storage in a table leaf cell.
func (r Record) Bytes() ([]byte, error) {
	headerLen := 1
	bodyLen := 0
	for _, f := range r.Fields {
		if f.Data == nil {
			headerLen++
			continue
		}
		switch f.Type {
		case Byte, SmallInt, Integer:
			headerLen++
		case Text:
			headerLen += Varint32Len
		default:
			return nil, fmt.Errorf("record: unsupported sql type %d", f.Type)
		}
		bodyLen += f.serialSize()
	}

	buf := make([]byte, headerLen+bodyLen)
	buf[0] = byte(headerLen)

	// Header: one serial type entry per field. Text entries are encoded
	// as varint32(2n+13), which always carries a continuation bit in its
	// first byte and so cannot collide with the small scalar types.
	pos := 1
	for _, f := range r.Fields {
		if f.Data == nil {
			buf[pos] = byte(Null)
			pos++
			continue
		}
		switch f.Type {
		case Byte, SmallInt, Integer:
			buf[pos] = byte(f.Type)
			pos++
		case Text:
			pos += PutVarint32(buf[pos:], uint32(2*len(f.Data.(string))+13))
		}
	}

	// Body: field contents in field order.
	for _, f := range r.Fields {
		if f.Data == nil {
			continue
		}
		switch f.Type {
		case Byte:
			buf[pos] = f.Data.(byte)
			pos++
		case SmallInt:
			v := f.Data.(int16)
			Put2Byte(buf[pos:], uint16(v))
			pos += 2
		case Integer:
			v := f.Data.(int32)
			Put4Byte(buf[pos:], uint32(v))
			pos += 4
		case Text:
			pos += copy(buf[pos:], f.Data.(string))
		}
	}

	return buf, nil
}

// ReadRecord decodes a record from a table leaf cell payload.
func ReadRecord(data []byte) (Record, error) {
	if len(data) == 0 {
		return Record{}, ErrCorruptRecord
	}

	headerLen := int(data[0])
	if headerLen < 1 || headerLen > len(data) {
		return Record{}, ErrCorruptRecord
	}

	var fields []*Field
	textLens := make(map[int]int)

	pos := 1
	for pos < headerLen {
		b := data[pos]
		if b&0x80 != 0 {
			if pos+Varint32Len > headerLen {
				return Record{}, ErrCorruptRecord
			}
			serial, n := GetVarint32(data[pos:])
			pos += n
			if serial < 13 || serial%2 == 0 {
				return Record{}, ErrCorruptRecord
			}
			textLens[len(fields)] = int(serial-13) / 2
			fields = append(fields, &Field{Type: Text})
			continue
		}

		switch SQLType(b) {
		case Null:
			fields = append(fields, &Field{Type: Null})
		case Byte:
			fields = append(fields, &Field{Type: Byte})
		case SmallInt:
			fields = append(fields, &Field{Type: SmallInt})
		case Integer:
			fields = append(fields, &Field{Type: Integer})
		default:
			return Record{}, ErrCorruptRecord
		}
		pos++
	}

	pos = headerLen
	for i, f := range fields {
		switch f.Type {
		case Null:
			f.Data = nil
		case Byte:
			if pos+1 > len(data) {
				return Record{}, ErrCorruptRecord
			}
			f.Data = data[pos]
			pos++
		case SmallInt:
			if pos+2 > len(data) {
				return Record{}, ErrCorruptRecord
			}
			f.Data = int16(Get2Byte(data[pos:]))
			pos += 2
		case Integer:
			if pos+4 > len(data) {
				return Record{}, ErrCorruptRecord
			}
			f.Data = int32(Get4Byte(data[pos:]))
			pos += 4
		case Text:
			n := textLens[i]
			if pos+n > len(data) {
				return Record{}, ErrCorruptRecord
			}
			f.Data = string(data[pos : pos+n])
			pos += n
		}
	}

	return Record{Fields: fields}, nil
}
