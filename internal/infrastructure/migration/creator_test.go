package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create orders table", "create_orders_table"},
		{"Create-Orders-Table", "create_orders_table"},
		{"CREATE_ORDERS_TABLE", "create_orders_table"},
		{"create__orders__table", "create_orders_table"},
		{"Add Index 123", "add_index_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	tmpDir := t.TempDir()

	mf, err := CreateMigration(tmpDir, "create orders table")
	require.NoError(t, err)
	require.NotNil(t, mf)

	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, "_create_orders_table.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_create_orders_table.down.sql"))

	upContent, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "create orders table")

	_, err = os.Stat(mf.DownPath)
	require.NoError(t, err)
}

func TestListMigrations(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{
		"20260101000000_one.up.sql",
		"20260101000000_one.down.sql",
		"20260102000000_two.up.sql",
		"20260102000000_two.down.sql",
		"ignored.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), nil, 0644))
	}

	migrations, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101000000_one", "20260102000000_two"}, migrations)
}

func TestListMigrations_MissingDir(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}
