package btree

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/chidb/internal/storage"
)

// ErrNotFound is returned when a lookup finds no matching key.
var ErrNotFound = errors.New("key not found")

// ErrDuplicateKey is returned when an insert would add a key that is
// already present.
var ErrDuplicateKey = errors.New("duplicate key")

// BTree provides access to the b-trees stored in a single database
// file. Each b-tree is rooted at a page number; page 1 is the root of
// the schema table. All page access goes through the pager.
type BTree struct {
	pager *storage.Pager
	log   *logrus.Logger
}

// Open opens a database file and verifies that the file header is
// correct. If the file is empty, the file header is initialized using
// the default page size and an empty table leaf node is created in
// page 1.
func Open(filename string, logger *logrus.Logger) (*BTree, error) {
	return OpenWithPageSize(filename, storage.DefaultPageSize, logger)
}

// OpenWithPageSize opens a database file like Open, creating any new
// file with the given page size. The page size of an existing file is
// read from its header and pageSize is ignored. The page size must be
// a power of two between 512 and 32768.
func OpenWithPageSize(filename string, pageSize int, logger *logrus.Logger) (*BTree, error) {
	if pageSize < 512 || pageSize > 32768 || pageSize&(pageSize-1) != 0 {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}

	pager, err := storage.OpenPager(filename, logger)
	if err != nil {
		return nil, err
	}
	bt := &BTree{pager: pager, log: logger}

	isEmpty, err := pager.IsEmpty()
	if err != nil {
		pager.Close()
		return nil, err
	}

	if isEmpty {
		if err := pager.SetPageSize(pageSize); err != nil {
			pager.Close()
			return nil, err
		}
		if _, err := bt.NewNode(storage.PageTypeLeaf); err != nil {
			pager.Close()
			return nil, err
		}
		logger.Debugf("btree: created %s", filename)
		return bt, nil
	}

	header, err := pager.ReadHeader()
	if err != nil {
		pager.Close()
		return nil, err
	}
	if err := storage.ValidateFileHeader(header); err != nil {
		pager.Close()
		return nil, err
	}

	fileHeader := storage.ParseFileHeader(header)
	if err := pager.SetPageSize(int(fileHeader.PageSize)); err != nil {
		pager.Close()
		return nil, err
	}

	return bt, nil
}

// Close releases the pager and the underlying file.
func (b *BTree) Close() error {
	return b.pager.Close()
}

// Pager exposes the underlying pager.
func (b *BTree) Pager() *storage.Pager {
	return b.pager
}

// GetNodeByPage loads the b-tree node stored at the given page. The
// returned node owns its page buffer until FreeNode is called; callers
// must release it exactly once along every path.
func (b *BTree) GetNodeByPage(npage int) (*BTreeNode, error) {
	page, err := b.pager.ReadPage(npage)
	if err != nil {
		return nil, err
	}

	node, err := nodeFromPage(page)
	if err != nil {
		b.pager.ReleasePage(page)
		return nil, err
	}

	return node, nil
}

// FreeNode releases the page buffer underlying a loaded node.
func (b *BTree) FreeNode(node *BTreeNode) {
	b.pager.ReleasePage(node.page)
}

// NewNode allocates a new page in the file and initializes it as an
// empty b-tree node of the given type, returning its page number.
func (b *BTree) NewNode(typ storage.PageType) (int, error) {
	npage := b.pager.AllocatePage()
	if err := b.InitEmptyNode(npage, typ); err != nil {
		return 0, err
	}
	return npage, nil
}

// InitEmptyNode initializes an already allocated page to contain an
// empty b-tree node. When initializing page 1, the file header is
// written first using the current page size.
func (b *BTree) InitEmptyNode(npage int, typ storage.PageType) error {
	page, err := b.pager.ReadPage(npage)
	if err != nil {
		return err
	}
	defer b.pager.ReleasePage(page)

	pageSize := b.pager.PageSize()

	if npage == 1 {
		storage.NewFileHeader(uint16(pageSize)).Encode(page.Data)
	}

	node := &BTreeNode{page: page, Type: typ}
	node.clear(pageSize)
	node.writeHeader()

	return b.pager.WritePage(page)
}

// WriteNode writes an in-memory b-tree node back to disk. The cell
// offset array and the cells are already modified directly on the
// page, so only the header fields need to be stored.
func (b *BTree) WriteNode(node *BTreeNode) error {
	node.writeHeader()
	return b.pager.WritePage(node.page)
}
