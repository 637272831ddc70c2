package btree

import (
	"fmt"
)

// Cursor walks the entries of a table b-tree in key order. It keeps the
// path from the root to the current leaf loaded; Close releases every
// node still held. Cursors are read-only and must not be used across a
// write to the same tree.
type Cursor struct {
	Name string

	bt       *BTree
	rootPage int
	stack    []*cursorFrame
}

type cursorFrame struct {
	node *BTreeNode

	// cell the cursor is on (leaf) or child being visited (internal); for
	// internal nodes NumCells means the right page
	cell uint16
}

// NewCursor initializes a cursor over the b-tree rooted at rootPage.
func NewCursor(bt *BTree, rootPage int, name string) *Cursor {
	return &Cursor{
		Name:     name,
		bt:       bt,
		rootPage: rootPage,
	}
}

// Rewind positions the cursor on the first entry in key order and
// reports whether one exists.
func (c *Cursor) Rewind() (bool, error) {
	c.release()

	node, err := c.bt.GetNodeByPage(c.rootPage)
	if err != nil {
		return false, err
	}
	c.stack = append(c.stack, &cursorFrame{node: node})

	return c.descend()
}

// Next advances to the next entry and reports whether one exists.
func (c *Cursor) Next() (bool, error) {
	if len(c.stack) == 0 {
		return false, nil
	}

	top := c.stack[len(c.stack)-1]
	top.cell++
	if top.cell < top.node.NumCells {
		return true, nil
	}

	// Leaf exhausted: pop up to the nearest ancestor with children left,
	// then descend into its next subtree.
	c.pop()
	for len(c.stack) > 0 {
		frame := c.stack[len(c.stack)-1]
		frame.cell++
		if frame.cell <= frame.node.NumCells {
			return c.descend()
		}
		c.pop()
	}

	return false, nil
}

// CurrentCell returns the table leaf cell under the cursor.
func (c *Cursor) CurrentCell() (*TableLeafCell, error) {
	if len(c.stack) == 0 {
		return nil, fmt.Errorf("cursor %q is not positioned on a row", c.Name)
	}

	top := c.stack[len(c.stack)-1]
	cell, err := top.node.GetCell(top.cell)
	if err != nil {
		return nil, err
	}
	leaf, ok := cell.(*TableLeafCell)
	if !ok {
		return nil, fmt.Errorf("cursor %q on %s node: %w", c.Name, top.node.Type, ErrInvalidPageType)
	}
	return leaf, nil
}

// Close releases every node the cursor still holds.
func (c *Cursor) Close() {
	c.release()
}

// descend loads children from the current frame down to the leftmost
// leaf of the subtree the frame points at.
func (c *Cursor) descend() (bool, error) {
	for {
		top := c.stack[len(c.stack)-1]

		if !top.node.Type.Internal() {
			if top.cell < top.node.NumCells {
				return true, nil
			}
			// An empty leaf can only be the root of an empty tree.
			return false, nil
		}

		var childPage int
		if top.cell < top.node.NumCells {
			cell, err := top.node.GetCell(top.cell)
			if err != nil {
				return false, err
			}
			internal, ok := cell.(*TableInternalCell)
			if !ok {
				return false, fmt.Errorf("cursor %q on %s node: %w", c.Name, top.node.Type, ErrInvalidPageType)
			}
			childPage = int(internal.ChildPage)
		} else {
			childPage = int(top.node.RightPage)
		}

		child, err := c.bt.GetNodeByPage(childPage)
		if err != nil {
			return false, err
		}
		c.stack = append(c.stack, &cursorFrame{node: child})
	}
}

func (c *Cursor) pop() {
	top := c.stack[len(c.stack)-1]
	c.bt.FreeNode(top.node)
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Cursor) release() {
	for len(c.stack) > 0 {
		c.pop()
	}
}
