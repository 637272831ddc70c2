package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testPager(t *testing.T) *Pager {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	dir := t.TempDir()
	p, err := OpenPager(filepath.Join(dir, "pager-test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	require.NoError(t, p.SetPageSize(512))
	return p
}

func TestPager_AllocateWriteRead(t *testing.T) {
	assert := require.New(t)
	p := testPager(t)

	assert.Equal(1, p.AllocatePage())
	assert.Equal(2, p.AllocatePage())
	assert.Equal(2, p.TotalPages())

	page, err := p.ReadPage(2)
	assert.NoError(err)
	assert.Len(page.Data, 512)

	copy(page.Data, []byte{0xCA, 0xFE})
	assert.NoError(p.WritePage(page))
	p.ReleasePage(page)

	again, err := p.ReadPage(2)
	assert.NoError(err)
	assert.Equal(byte(0xCA), again.Data[0])
	assert.Equal(byte(0xFE), again.Data[1])
	p.ReleasePage(again)
}

func TestPager_ReadOutOfBounds(t *testing.T) {
	assert := require.New(t)
	p := testPager(t)

	_, err := p.ReadPage(1)
	assert.True(errors.Is(err, ErrInvalidPageNumber))

	p.AllocatePage()
	_, err = p.ReadPage(0)
	assert.True(errors.Is(err, ErrInvalidPageNumber))
	_, err = p.ReadPage(2)
	assert.True(errors.Is(err, ErrInvalidPageNumber))
}

func TestPager_FreshPageReadsZeroes(t *testing.T) {
	assert := require.New(t)
	p := testPager(t)

	p.AllocatePage()
	page, err := p.ReadPage(1)
	assert.NoError(err)
	for _, b := range page.Data {
		assert.Zero(b)
	}
	p.ReleasePage(page)
}

func TestPager_HeaderOffset(t *testing.T) {
	assert := require.New(t)

	one := &MemPage{PageNumber: 1}
	two := &MemPage{PageNumber: 2}
	assert.Equal(100, one.HeaderOffset())
	assert.Equal(0, two.HeaderOffset())
}
