package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrepare(t *testing.T) {
	testcases := []struct {
		name    string
		command string
		tag     string
		wantErr bool
	}{
		{name: "set", command: "set 1 hello world", tag: "set"},
		{name: "get", command: "get 1", tag: "get"},
		{name: "scan", command: "scan", tag: "scan"},
		{name: "create", command: "create", tag: "create"},
		{name: "create index", command: "createindex", tag: "createindex"},
		{name: "empty", command: "", wantErr: true},
		{name: "unknown", command: "drop everything", wantErr: true},
		{name: "delete unsupported", command: "del 1", wantErr: true},
		{name: "set non-integer key", command: "set abc v", wantErr: true},
		{name: "get missing key", command: "get", wantErr: true},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			assert := require.New(t)

			stmt, err := Prepare(tt.command)
			if tt.wantErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tt.tag, stmt.Tag)
			assert.NotEmpty(stmt.Instructions)
		})
	}
}
