package btree

import (
	"fmt"

	"github.com/joeandaverde/chidb/internal/storage"
)

// Find locates the data associated with a key in a table b-tree rooted
// at nroot and returns a copy of the payload. The traversal is
// read-only; every loaded node is released before descending.
func (b *BTree) Find(nroot int, key uint32) ([]byte, error) {
	npage := nroot

	for {
		node, err := b.GetNodeByPage(npage)
		if err != nil {
			return nil, err
		}

		next, data, err := b.findStep(node, key)
		b.FreeNode(node)
		if err != nil {
			return nil, err
		}
		if data != nil {
			return data, nil
		}
		npage = next
	}
}

// findStep scans the cells of node in order. It returns the payload if
// the key was found on a table leaf, or the child page to descend into.
func (b *BTree) findStep(node *BTreeNode, key uint32) (int, []byte, error) {
	for i := uint16(0); i < node.NumCells; i++ {
		cell, err := node.GetCell(i)
		if err != nil {
			return 0, nil, err
		}

		if leaf, ok := cell.(*TableLeafCell); ok && leaf.RowID == key {
			data := make([]byte, len(leaf.Data))
			copy(data, leaf.Data)
			return 0, data, nil
		}

		if key <= cell.Key() {
			switch c := cell.(type) {
			case *TableLeafCell:
				return 0, nil, ErrNotFound
			case *TableInternalCell:
				return int(c.ChildPage), nil, nil
			default:
				return 0, nil, fmt.Errorf("find in %s node: %w", node.Type, ErrInvalidPageType)
			}
		}
	}

	// The key is greater than every cell key: on an internal node it can
	// only live under the right page.
	if node.Type == storage.PageTypeInternal {
		return int(node.RightPage), nil, nil
	}
	if node.Type == storage.PageTypeLeaf {
		return 0, nil, ErrNotFound
	}
	return 0, nil, fmt.Errorf("find in %s node: %w", node.Type, ErrInvalidPageType)
}
