package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductsSchema_DeclaresRequiredIndexes(t *testing.T) {
	raw, err := FS.ReadFile("0001_create_products.up.sql")
	require.NoError(t, err)
	schema := string(raw)

	// Live-row SKU uniqueness enables soft-delete plus restore.
	assert.Contains(t, schema, "CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku_live")
	assert.Contains(t, schema, "ON products (sku) WHERE deleted_at IS NULL")

	assert.Contains(t, schema, "CREATE INDEX IF NOT EXISTS idx_products_category")
	assert.Contains(t, schema, "CREATE INDEX IF NOT EXISTS idx_products_sku_status ON products (sku, status)")
}

func TestMigrationFiles_ComeInUpDownPairs(t *testing.T) {
	entries, err := FS.ReadDir(".")
	require.NoError(t, err)

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}

	assert.True(t, names["0001_create_products.up.sql"])
	assert.True(t, names["0001_create_products.down.sql"])
}
