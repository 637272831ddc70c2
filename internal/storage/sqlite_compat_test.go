package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// The file header shares its fixed prefix with the SQLite file format.
// Create a reference database with the real thing and check that our
// header writer agrees on the bytes both formats pin down.
func TestFileHeader_SQLiteCompat(t *testing.T) {
	assert := require.New(t)

	path := filepath.Join(t.TempDir(), "reference.db")

	db, err := sql.Open("sqlite3", path)
	assert.NoError(err)
	_, err = db.Exec("CREATE TABLE reference (id integer primary key)")
	assert.NoError(err)
	assert.NoError(db.Close())

	reference, err := os.ReadFile(path)
	assert.NoError(err)
	assert.True(len(reference) >= FileHeaderLen)

	ours := NewFileHeader(1024).Bytes()

	// Magic string.
	assert.Equal(reference[:16], ours[:16])

	// Reserved space and payload fraction constants at 20..23.
	assert.Equal(reference[20:24], ours[20:24])
}
