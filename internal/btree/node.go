package btree

import (
	"errors"
	"fmt"

	"github.com/joeandaverde/chidb/internal/storage"
)

// ErrInvalidCellNumber is returned when a cell index is out of range.
var ErrInvalidCellNumber = errors.New("invalid cell number")

// ErrInvalidPageType is returned when a page holds an unknown node type.
var ErrInvalidPageType = errors.New("invalid page type")

// BTreeNode is an in-memory view of a b-tree node. The header fields
// are copies of what is stored in the raw page; the cell offset array
// and the cells themselves are manipulated directly on the page buffer.
// Changes become effective once the node is written back via
// BTree.WriteNode.
type BTreeNode struct {
	page *storage.MemPage

	// Type is the node's page type
	Type storage.PageType

	// FreeOffset is the byte offset at which the free space starts.
	// Note that this must be updated every time the cell offset array grows.
	FreeOffset uint16

	// NumCells is the number of cells stored in this node.
	NumCells uint16

	// CellsOffset is the byte offset at which the packed cells start.
	// If the node contains no cells, this field holds the page size.
	// This value must be updated every time a cell is added.
	CellsOffset uint16

	// RightPage is the page of the rightmost subtree, internal nodes only.
	RightPage uint32
}

// nodeFromPage interprets the node header stored in page.
func nodeFromPage(page *storage.MemPage) (*BTreeNode, error) {
	hdr := page.Data[page.HeaderOffset():]

	typ := storage.PageType(hdr[0])
	if !typ.Valid() {
		return nil, fmt.Errorf("page %d: type 0x%02X: %w", page.PageNumber, hdr[0], ErrInvalidPageType)
	}

	node := &BTreeNode{
		page:        page,
		Type:        typ,
		FreeOffset:  storage.Get2Byte(hdr[1:]),
		NumCells:    storage.Get2Byte(hdr[3:]),
		CellsOffset: storage.Get2Byte(hdr[5:]),
	}
	if typ.Internal() {
		node.RightPage = storage.Get4Byte(hdr[8:])
	}

	return node, nil
}

// Page returns the node's page number.
func (n *BTreeNode) Page() int {
	return n.page.PageNumber
}

// headerLen is the size of the node header: 12 bytes for internal
// nodes, 8 for leaves.
func (n *BTreeNode) headerLen() int {
	if n.Type.Internal() {
		return storage.InteriorHeaderLen
	}
	return storage.LeafHeaderLen
}

// cellPointerPos is the offset within the page of entry i of the cell
// offset array.
func (n *BTreeNode) cellPointerPos(i uint16) int {
	return n.page.HeaderOffset() + n.headerLen() + int(i)*2
}

// cellPointer returns the page offset of cell i.
func (n *BTreeNode) cellPointer(i uint16) uint16 {
	return storage.Get2Byte(n.page.Data[n.cellPointerPos(i):])
}

// writeHeader stores the node header back into the page buffer. The
// cell offset array and cells are already mutated in place, so this is
// all that is needed before handing the page to the pager.
func (n *BTreeNode) writeHeader() {
	hdr := n.page.Data[n.page.HeaderOffset():]

	hdr[0] = byte(n.Type)
	storage.Put2Byte(hdr[1:], n.FreeOffset)
	storage.Put2Byte(hdr[3:], n.NumCells)
	storage.Put2Byte(hdr[5:], n.CellsOffset)
	hdr[7] = 0
	if n.Type.Internal() {
		storage.Put4Byte(hdr[8:], n.RightPage)
	}
}

// Fits reports whether the free region can hold a cell of the given
// size plus its two byte entry in the cell offset array.
func (n *BTreeNode) Fits(cell Cell) bool {
	return int(n.CellsOffset)-int(n.FreeOffset) >= cell.Size()+2
}

// GetCell reads cell i from the page and decodes it according to the
// node type.
func (n *BTreeNode) GetCell(i uint16) (Cell, error) {
	if i >= n.NumCells {
		return nil, fmt.Errorf("cell %d of %d: %w", i, n.NumCells, ErrInvalidCellNumber)
	}

	data := n.page.Data[n.cellPointer(i):]

	switch n.Type {
	case storage.PageTypeLeaf:
		size, _ := storage.GetVarint32(data)
		key, _ := storage.GetVarint32(data[4:])
		return &TableLeafCell{
			RowID: key,
			Data:  data[TableLeafCellHeaderLen : TableLeafCellHeaderLen+int(size)],
		}, nil
	case storage.PageTypeInternal:
		key, _ := storage.GetVarint32(data[4:])
		return &TableInternalCell{
			ChildPage: storage.Get4Byte(data),
			MaxKey:    key,
		}, nil
	case storage.PageTypeInternalIndex:
		return &IndexInternalCell{
			ChildPage:  storage.Get4Byte(data),
			IndexKey:   storage.Get4Byte(data[8:]),
			PrimaryKey: storage.Get4Byte(data[12:]),
		}, nil
	case storage.PageTypeLeafIndex:
		return &IndexLeafCell{
			IndexKey:   storage.Get4Byte(data[4:]),
			PrimaryKey: storage.Get4Byte(data[8:]),
		}, nil
	}

	return nil, fmt.Errorf("page %d: %w", n.page.PageNumber, ErrInvalidPageType)
}

// InsertCell inserts cell at position i, shifting the tail of the cell
// offset array one entry to the right. The caller must have verified
// there is room with Fits.
func (n *BTreeNode) InsertCell(i uint16, cell Cell) error {
	if i > n.NumCells {
		return fmt.Errorf("cell %d of %d: %w", i, n.NumCells, ErrInvalidCellNumber)
	}
	if cell.NodeType() != n.Type {
		return fmt.Errorf("cannot insert %s cell into %s node: %w",
			cell.NodeType(), n.Type, ErrInvalidPageType)
	}

	// Lay the cell out at the top of the cell content area.
	newOffset := n.CellsOffset - uint16(cell.Size())
	cell.encode(n.page.Data[newOffset : int(newOffset)+cell.Size()])
	n.CellsOffset = newOffset

	// Shift pointers at positions >= i one slot forward.
	arrStart := n.cellPointerPos(i)
	arrEnd := n.cellPointerPos(n.NumCells)
	copy(n.page.Data[arrStart+2:arrEnd+2], n.page.Data[arrStart:arrEnd])
	storage.Put2Byte(n.page.Data[arrStart:], n.CellsOffset)

	n.NumCells++
	n.FreeOffset += 2

	return nil
}

// clear resets the node to hold no cells, keeping its type and right
// page. Used when rebuilding a node after a split.
func (n *BTreeNode) clear(pageSize int) {
	n.NumCells = 0
	n.CellsOffset = uint16(pageSize)
	n.FreeOffset = uint16(n.page.HeaderOffset() + n.headerLen())
}
