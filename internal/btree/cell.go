package btree

import (
	"github.com/joeandaverde/chidb/internal/storage"
)

// TableLeafCellHeaderLen is the fixed prefix of a table leaf cell: the
// payload size varint and the key varint, four bytes each.
const TableLeafCellHeaderLen = 8

// TableInternalCellLen is the on-disk size of a table internal cell.
const TableInternalCellLen = 8

// IndexInternalCellLen is the on-disk size of an index internal cell.
const IndexInternalCellLen = 16

// IndexLeafCellLen is the on-disk size of an index leaf cell.
const IndexLeafCellLen = 12

// indexCellMarker is the constant byte run that precedes the keys of
// every index cell.
var indexCellMarker = []byte{0x0B, 0x03, 0x04, 0x04}

// Cell is a single entry in a b-tree node. The four variants correspond
// to the four node types; a cell may only be inserted into a node of
// its own type.
type Cell interface {
	// Key is the cell's ordering key.
	Key() uint32

	// Size is the number of bytes the cell occupies on disk.
	Size() int

	// NodeType is the type of node this cell belongs in.
	NodeType() storage.PageType

	// encode serializes the cell into buf, which must hold Size() bytes.
	encode(buf []byte)
}

// TableLeafCell holds a table entry: an integer key and an opaque
// payload produced by the record codec.
type TableLeafCell struct {
	RowID uint32
	Data  []byte
}

func (c *TableLeafCell) Key() uint32                { return c.RowID }
func (c *TableLeafCell) Size() int                  { return TableLeafCellHeaderLen + len(c.Data) }
func (c *TableLeafCell) NodeType() storage.PageType { return storage.PageTypeLeaf }

func (c *TableLeafCell) encode(buf []byte) {
	storage.PutVarint32(buf, uint32(len(c.Data)))
	storage.PutVarint32(buf[4:], c.RowID)
	copy(buf[TableLeafCellHeaderLen:], c.Data)
}

// TableInternalCell separates two subtrees of a table b-tree: MaxKey is
// greater than or equal to every key below ChildPage.
type TableInternalCell struct {
	ChildPage uint32
	MaxKey    uint32
}

func (c *TableInternalCell) Key() uint32                { return c.MaxKey }
func (c *TableInternalCell) Size() int                  { return TableInternalCellLen }
func (c *TableInternalCell) NodeType() storage.PageType { return storage.PageTypeInternal }

func (c *TableInternalCell) encode(buf []byte) {
	storage.Put4Byte(buf, c.ChildPage)
	storage.PutVarint32(buf[4:], c.MaxKey)
}

// IndexInternalCell carries an (index key, primary key) pair plus the
// child page of the subtree holding smaller index keys.
type IndexInternalCell struct {
	ChildPage  uint32
	IndexKey   uint32
	PrimaryKey uint32
}

func (c *IndexInternalCell) Key() uint32                { return c.IndexKey }
func (c *IndexInternalCell) Size() int                  { return IndexInternalCellLen }
func (c *IndexInternalCell) NodeType() storage.PageType { return storage.PageTypeInternalIndex }

func (c *IndexInternalCell) encode(buf []byte) {
	storage.Put4Byte(buf, c.ChildPage)
	copy(buf[4:], indexCellMarker)
	storage.Put4Byte(buf[8:], c.IndexKey)
	storage.Put4Byte(buf[12:], c.PrimaryKey)
}

// IndexLeafCell maps an index key to the primary key of the row where
// the indexed field holds that value.
type IndexLeafCell struct {
	IndexKey   uint32
	PrimaryKey uint32
}

func (c *IndexLeafCell) Key() uint32                { return c.IndexKey }
func (c *IndexLeafCell) Size() int                  { return IndexLeafCellLen }
func (c *IndexLeafCell) NodeType() storage.PageType { return storage.PageTypeLeafIndex }

func (c *IndexLeafCell) encode(buf []byte) {
	copy(buf, indexCellMarker)
	storage.Put4Byte(buf[4:], c.IndexKey)
	storage.Put4Byte(buf[8:], c.PrimaryKey)
}
