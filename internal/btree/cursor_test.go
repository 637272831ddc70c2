package btree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursor_EmptyTree(t *testing.T) {
	assert := require.New(t)

	bt, _ := openBtree(t)

	cursor := NewCursor(bt, 1, "t")
	defer cursor.Close()

	hasRecords, err := cursor.Rewind()
	assert.NoError(err)
	assert.False(hasRecords)
}

func TestCursor_ScanInOrder(t *testing.T) {
	assert := require.New(t)

	bt, _ := openBtree(t)

	// Insert out of order; the scan must come back sorted.
	for _, k := range []uint32{5, 1, 9, 3, 7} {
		assert.NoError(bt.InsertInTable(1, k, []byte{byte(k)}))
	}

	cursor := NewCursor(bt, 1, "t")
	defer cursor.Close()

	var keys []uint32
	hasRecords, err := cursor.Rewind()
	assert.NoError(err)
	for hasRecords {
		cell, err := cursor.CurrentCell()
		assert.NoError(err)
		keys = append(keys, cell.RowID)
		assert.Equal([]byte{byte(cell.RowID)}, cell.Data)

		hasRecords, err = cursor.Next()
		assert.NoError(err)
	}

	assert.Equal([]uint32{1, 3, 5, 7, 9}, keys)
}

func TestCursor_ScanAcrossSplits(t *testing.T) {
	assert := require.New(t)

	path := filepath.Join(t.TempDir(), "cursor.db")
	bt, err := OpenWithPageSize(path, 512, testLogger())
	assert.NoError(err)
	defer bt.Close()

	const n = 120
	for k := uint32(1); k <= n; k++ {
		assert.NoError(bt.InsertInTable(1, k, []byte{byte(k), byte(k >> 8)}))
	}

	cursor := NewCursor(bt, 1, "t")
	defer cursor.Close()

	var keys []uint32
	hasRecords, err := cursor.Rewind()
	assert.NoError(err)
	for hasRecords {
		cell, err := cursor.CurrentCell()
		assert.NoError(err)
		keys = append(keys, cell.RowID)

		hasRecords, err = cursor.Next()
		assert.NoError(err)
	}

	assert.Len(keys, n)
	for i, k := range keys {
		assert.Equal(uint32(i+1), k)
	}
}
