package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultPageSize is the page size used when creating a new database file.
const DefaultPageSize = 1024

// ErrInvalidPageNumber is returned when a page number is out of range.
var ErrInvalidPageNumber = errors.New("invalid page number")

// Pager manages database paging to and from disk. Every page handed out
// by ReadPage is a private copy; the caller owns it until ReleasePage.
type Pager struct {
	file       *os.File
	pageSize   int
	totalPages int
	log        *logrus.Logger
}

// OpenPager opens the file at path for paged access, creating it if
// necessary. The page size is unknown for an existing file until the
// caller reads the file header and calls SetPageSize.
func OpenPager(path string, logger *logrus.Logger) (*Pager, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, os.ModePerm)
	if err != nil {
		return nil, err
	}

	return &Pager{
		file:       file,
		pageSize:   0,
		totalPages: 0,
		log:        logger,
	}, nil
}

// IsEmpty reports whether the underlying file has no content yet.
func (p *Pager) IsEmpty() (bool, error) {
	info, err := p.file.Stat()
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}

// SetPageSize fixes the page size and derives the current page count
// from the file length.
func (p *Pager) SetPageSize(pageSize int) error {
	info, err := p.file.Stat()
	if err != nil {
		return err
	}
	p.pageSize = pageSize
	p.totalPages = int(info.Size()) / pageSize
	return nil
}

// PageSize returns the configured page size.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// TotalPages returns the number of pages in the file.
func (p *Pager) TotalPages() int {
	return p.totalPages
}

// ReadHeader reads the 100 byte file header. This works even before the
// page size is known since the header always occupies the first 100
// bytes of the file.
func (p *Pager) ReadHeader() ([]byte, error) {
	header := make([]byte, FileHeaderLen)
	if _, err := p.file.ReadAt(header, 0); err != nil {
		return nil, err
	}
	return header, nil
}

// AllocatePage extends the file by one page and returns its 1-based
// page number. The new page contents are materialized on the first
// ReadPage and persisted by WritePage.
func (p *Pager) AllocatePage() int {
	p.totalPages++
	return p.totalPages
}

// ReadPage reads a full page from disk into a fresh buffer. Pages
// allocated but never written read back as zeroes.
func (p *Pager) ReadPage(page int) (*MemPage, error) {
	if page < 1 || page > p.totalPages {
		return nil, fmt.Errorf("read page [%d]: %w", page, ErrInvalidPageNumber)
	}

	data := make([]byte, p.pageSize)
	n, err := p.file.ReadAt(data, p.pageOffset(page))
	if err != nil && n == 0 {
		// A freshly allocated page may lie past EOF; it reads as zeroes.
		info, serr := p.file.Stat()
		if serr != nil {
			return nil, serr
		}
		if p.pageOffset(page) < info.Size() {
			return nil, err
		}
	}
	p.log.Debugf("pager: read page %d", page)

	return &MemPage{
		PageNumber: page,
		Data:       data,
	}, nil
}

// WritePage writes the in-memory copy of a page back to disk.
func (p *Pager) WritePage(page *MemPage) error {
	if page.PageNumber < 1 || page.PageNumber > p.totalPages {
		return fmt.Errorf("write page [%d]: %w", page.PageNumber, ErrInvalidPageNumber)
	}
	if len(page.Data) != p.pageSize {
		return fmt.Errorf("write page [%d]: unexpected page size %d", page.PageNumber, len(page.Data))
	}

	if _, err := p.file.WriteAt(page.Data, p.pageOffset(page.PageNumber)); err != nil {
		return err
	}
	p.log.Debugf("pager: wrote page %d", page.PageNumber)

	return nil
}

// ReleasePage releases the in-memory copy of a page. Buffers must be
// released exactly once along every path that obtained them.
func (p *Pager) ReleasePage(page *MemPage) {
	page.Data = nil
}

// Close closes the underlying file.
func (p *Pager) Close() error {
	return p.file.Close()
}

func (p *Pager) pageOffset(page int) int64 {
	return int64(page-1) * int64(p.pageSize)
}
