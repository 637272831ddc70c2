package btree

import (
	"fmt"

	"github.com/joeandaverde/chidb/internal/storage"
)

// InsertInTable inserts a key and payload into the table b-tree rooted
// at nroot.
func (b *BTree) InsertInTable(nroot int, key uint32, data []byte) error {
	return b.Insert(nroot, &TableLeafCell{RowID: key, Data: data})
}

// InsertInIndex inserts an (index key, primary key) pair into the index
// b-tree rooted at nroot.
func (b *BTree) InsertInIndex(nroot int, keyIdx, keyPk uint32) error {
	return b.Insert(nroot, &IndexLeafCell{IndexKey: keyIdx, PrimaryKey: keyPk})
}

// Insert adds a cell to the b-tree rooted at nroot using the preemptive
// split discipline: a node is never allowed to overflow. The root is a
// special case because it must stay at the same page number; when full,
// its contents move to a fresh child and the root is reborn as an empty
// internal node pointing at that child, which is then split normally.
func (b *BTree) Insert(nroot int, cell Cell) error {
	root, err := b.GetNodeByPage(nroot)
	if err != nil {
		return err
	}

	if root.Fits(cell) {
		b.FreeNode(root)
		return b.insertNonFull(nroot, cell)
	}

	rootType := root.Type
	b.log.Debugf("btree: splitting root page %d", nroot)

	// Move everything in the root into a new node of the same type.
	nchild, err := b.NewNode(rootType)
	if err != nil {
		b.FreeNode(root)
		return err
	}
	child, err := b.GetNodeByPage(nchild)
	if err != nil {
		b.FreeNode(root)
		return err
	}

	for i := uint16(0); i < root.NumCells; i++ {
		c, err := root.GetCell(i)
		if err == nil {
			err = child.InsertCell(i, c)
		}
		if err != nil {
			b.FreeNode(child)
			b.FreeNode(root)
			return err
		}
	}

	// An internal root has a right page that must survive the move.
	if rootType.Internal() {
		child.RightPage = root.RightPage
	}

	err = b.WriteNode(child)
	b.FreeNode(child)
	b.FreeNode(root)
	if err != nil {
		return err
	}

	// Reinitialize the root in place as an empty internal node of the
	// matching family, pointing at the relocated contents.
	newType := storage.PageTypeInternal
	if rootType == storage.PageTypeLeafIndex || rootType == storage.PageTypeInternalIndex {
		newType = storage.PageTypeInternalIndex
	}
	if err := b.InitEmptyNode(nroot, newType); err != nil {
		return err
	}

	root, err = b.GetNodeByPage(nroot)
	if err != nil {
		return err
	}
	root.RightPage = uint32(nchild)
	err = b.WriteNode(root)
	b.FreeNode(root)
	if err != nil {
		return err
	}

	if _, err := b.split(nroot, nchild, 0); err != nil {
		return err
	}

	return b.insertNonFull(nroot, cell)
}

// insertNonFull inserts a cell into the subtree rooted at a node that
// is known to have room. On a leaf the cell is added at its ordered
// position. On an internal node the target child is located and split
// first if it cannot hold the cell, so the recursion below always finds
// room.
func (b *BTree) insertNonFull(npage int, cell Cell) error {
	node, err := b.GetNodeByPage(npage)
	if err != nil {
		return err
	}

	if !node.Type.Internal() {
		pos := node.NumCells
		for i := uint16(0); i < node.NumCells; i++ {
			existing, err := node.GetCell(i)
			if err != nil {
				b.FreeNode(node)
				return err
			}
			if cell.Key() == existing.Key() {
				b.FreeNode(node)
				return fmt.Errorf("key %d: %w", cell.Key(), ErrDuplicateKey)
			}
			if cell.Key() < existing.Key() {
				pos = i
				break
			}
		}

		if err := node.InsertCell(pos, cell); err != nil {
			b.FreeNode(node)
			return err
		}
		err = b.WriteNode(node)
		b.FreeNode(node)
		return err
	}

	ncell, childPage, err := b.chooseChild(node, cell.Key())
	if err != nil {
		b.FreeNode(node)
		return err
	}

	child, err := b.GetNodeByPage(childPage)
	if err != nil {
		b.FreeNode(node)
		return err
	}
	fits := child.Fits(cell)
	b.FreeNode(child)

	if !fits {
		b.FreeNode(node)
		if _, err := b.split(npage, childPage, ncell); err != nil {
			return err
		}

		// The split added a separator at ncell, which may redirect the
		// key into the new sibling.
		node, err = b.GetNodeByPage(npage)
		if err != nil {
			return err
		}
		_, childPage, err = b.chooseChild(node, cell.Key())
		if err != nil {
			b.FreeNode(node)
			return err
		}
	}

	b.FreeNode(node)
	return b.insertNonFull(childPage, cell)
}

// chooseChild locates the cell position and child page whose subtree
// covers the given key. Keys greater than every separator belong under
// the right page, reported at position NumCells.
func (b *BTree) chooseChild(node *BTreeNode, key uint32) (uint16, int, error) {
	for i := uint16(0); i < node.NumCells; i++ {
		cell, err := node.GetCell(i)
		if err != nil {
			return 0, 0, err
		}
		if key <= cell.Key() {
			switch c := cell.(type) {
			case *TableInternalCell:
				return i, int(c.ChildPage), nil
			case *IndexInternalCell:
				return i, int(c.ChildPage), nil
			default:
				return 0, 0, fmt.Errorf("descend through %s node: %w", node.Type, ErrInvalidPageType)
			}
		}
	}
	return node.NumCells, int(node.RightPage), nil
}

// split divides a full child into two nodes around its median cell and
// records the new sibling in the parent at position parentCell. The
// sibling takes the lower half of the cells; for table leaves the
// median row stays with the sibling, for every other type the median
// survives only as the separator in the parent. Returns the sibling's
// page number.
func (b *BTree) split(nparent, nchild int, parentCell uint16) (int, error) {
	parent, err := b.GetNodeByPage(nparent)
	if err != nil {
		return 0, err
	}
	child, err := b.GetNodeByPage(nchild)
	if err != nil {
		b.FreeNode(parent)
		return 0, err
	}
	b.log.Debugf("btree: splitting page %d under page %d", nchild, nparent)

	release := func() {
		b.FreeNode(child)
		b.FreeNode(parent)
	}

	median := child.NumCells / 2

	nsibling, err := b.NewNode(child.Type)
	if err != nil {
		release()
		return 0, err
	}
	sibling, err := b.GetNodeByPage(nsibling)
	if err != nil {
		release()
		return 0, err
	}

	// Lower half moves into the sibling.
	for i := uint16(0); i < median; i++ {
		c, err := child.GetCell(i)
		if err == nil {
			err = sibling.InsertCell(i, c)
		}
		if err != nil {
			b.FreeNode(sibling)
			release()
			return 0, err
		}
	}

	medianCell, err := child.GetCell(median)
	if err != nil {
		b.FreeNode(sibling)
		release()
		return 0, err
	}

	switch c := medianCell.(type) {
	case *TableLeafCell:
		// The median row stays with the lower half; the parent gets its
		// key as a separator only.
		if err := sibling.InsertCell(median, c); err != nil {
			b.FreeNode(sibling)
			release()
			return 0, err
		}
	case *TableInternalCell:
		sibling.RightPage = c.ChildPage
	case *IndexInternalCell:
		sibling.RightPage = c.ChildPage
	}

	// Rebuild the child from the cells above the median, compacting the
	// cell area from the end of the page. The payloads are copied out
	// first because the rebuild overwrites the region they live in.
	upper := make([]Cell, 0, child.NumCells-median-1)
	for i := median + 1; i < child.NumCells; i++ {
		c, err := child.GetCell(i)
		if err != nil {
			b.FreeNode(sibling)
			release()
			return 0, err
		}
		upper = append(upper, cloneCell(c))
	}

	child.clear(b.pager.PageSize())
	for i, c := range upper {
		if err := child.InsertCell(uint16(i), c); err != nil {
			b.FreeNode(sibling)
			release()
			return 0, err
		}
	}

	separator, err := separatorCell(parent.Type, uint32(nsibling), medianCell)
	if err == nil {
		err = parent.InsertCell(parentCell, separator)
	}
	if err != nil {
		b.FreeNode(sibling)
		release()
		return 0, err
	}

	err = b.WriteNode(sibling)
	b.FreeNode(sibling)
	if err != nil {
		release()
		return 0, err
	}
	if err := b.WriteNode(child); err != nil {
		release()
		return 0, err
	}
	if err := b.WriteNode(parent); err != nil {
		release()
		return 0, err
	}
	release()

	return nsibling, nil
}

// separatorCell builds the parent cell that points at a freshly split
// off sibling, keyed by the median of the split.
func separatorCell(parentType storage.PageType, childPage uint32, median Cell) (Cell, error) {
	switch parentType {
	case storage.PageTypeInternal:
		return &TableInternalCell{ChildPage: childPage, MaxKey: median.Key()}, nil
	case storage.PageTypeInternalIndex:
		switch m := median.(type) {
		case *IndexInternalCell:
			return &IndexInternalCell{ChildPage: childPage, IndexKey: m.IndexKey, PrimaryKey: m.PrimaryKey}, nil
		case *IndexLeafCell:
			return &IndexInternalCell{ChildPage: childPage, IndexKey: m.IndexKey, PrimaryKey: m.PrimaryKey}, nil
		}
	}
	return nil, fmt.Errorf("separator for %s parent from %s median: %w",
		parentType, median.NodeType(), ErrInvalidPageType)
}

// cloneCell deep-copies a cell so it stays valid after the page buffer
// it was read from is rewritten.
func cloneCell(c Cell) Cell {
	switch c := c.(type) {
	case *TableLeafCell:
		data := make([]byte, len(c.Data))
		copy(data, c.Data)
		return &TableLeafCell{RowID: c.RowID, Data: data}
	case *TableInternalCell:
		clone := *c
		return &clone
	case *IndexInternalCell:
		clone := *c
		return &clone
	case *IndexLeafCell:
		clone := *c
		return &clone
	}
	return c
}
