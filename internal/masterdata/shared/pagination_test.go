package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	f, err := ListFilters{Search: "  pump "}.Normalize("name", "sku")
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, f.Page)
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, "name", f.SortBy)
	assert.Equal(t, SortAsc, f.SortDir)
	assert.Equal(t, "pump", f.Search)
	assert.Zero(t, f.Offset())
}

func TestNormalizeClampsAndOffsets(t *testing.T) {
	f, err := ListFilters{Page: 3, Limit: 500, SortBy: "SKU", SortDir: "DESC"}.Normalize("name", "sku")
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, "sku", f.SortBy)
	assert.Equal(t, SortDesc, f.SortDir)
	assert.Equal(t, 2*MaxLimit, f.Offset())
}

func TestNormalizeRejectsUnknownSort(t *testing.T) {
	_, err := ListFilters{SortBy: "password"}.Normalize("name", "sku")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ListFilters{SortDir: "sideways"}.Normalize("name")
	assert.ErrorIs(t, err, ErrValidation)
}
