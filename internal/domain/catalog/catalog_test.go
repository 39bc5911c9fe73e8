package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLookups(t *testing.T) {
	dir := Default()

	cat, ok := dir.CategoryByID("5")
	require.True(t, ok)
	assert.Equal(t, "Farming Inputs", cat.Name)

	_, ok = dir.CategoryByID("99")
	assert.False(t, ok)

	sub, ok := dir.SubcategoryByID("51")
	require.True(t, ok)
	assert.Equal(t, "5", sub.CategoryID)

	prod, ok := dir.ProductByID("5111")
	require.True(t, ok)
	assert.Equal(t, "511", prod.SeriesID)
	assert.Equal(t, 38.0, prod.Price)
}

func TestLookupsByNameAreCaseInsensitive(t *testing.T) {
	dir := Default()

	cat, ok := dir.CategoryByName("farming inputs")
	require.True(t, ok)
	assert.Equal(t, "5", cat.ID)

	sub, ok := dir.SubcategoryByName("5", "MAIZE")
	require.True(t, ok)
	assert.Equal(t, "51", sub.ID)

	_, ok = dir.SubcategoryByName("2", "Maize")
	assert.False(t, ok, "name lookup must honor the parent category")
}

func TestChildListingsFilterByParent(t *testing.T) {
	dir := Default()

	subs := dir.Subcategories("5")
	require.Len(t, subs, 2)
	for _, s := range subs {
		assert.Equal(t, "5", s.CategoryID)
	}

	assert.Empty(t, dir.Subcategories("99"))

	pkgs := dir.Packages("5111")
	require.Len(t, pkgs, 2)
	assert.Equal(t, "p1", pkgs[0].ID)
	assert.Equal(t, "p2", pkgs[1].ID)
}

func TestListingsReturnCopies(t *testing.T) {
	dir := Default()

	cats := dir.Categories()
	require.NotEmpty(t, cats)
	cats[0].Name = "mutated"

	fresh := dir.Categories()
	assert.NotEqual(t, "mutated", fresh[0].Name)
}
