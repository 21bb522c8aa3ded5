package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListVersionsOrdersBySequence(t *testing.T) {
	assert.Contains(t, listVersionsSQL, "ORDER BY v.seq DESC")
	assert.NotContains(t, listVersionsSQL, "created_at DESC")
}

func TestMigrationsAddVersionSequence(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)

	var all strings.Builder
	for _, f := range files {
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		all.Write(b)
	}
	schema := all.String()

	assert.Contains(t, schema, "ADD COLUMN IF NOT EXISTS seq BIGSERIAL")
	assert.Contains(t, schema, "(entity_id, seq DESC)")
	assert.Equal(t, "002_state_version_seq.sql", filepath.Base(files[len(files)-1]))
}
