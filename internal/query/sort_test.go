package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
)

func TestSort(t *testing.T) {
	items := sampleItems()

	testCases := []struct {
		name string
		spec SortSpec
		want []string
	}{
		{"none keeps order", SortSpec{}, names(items)},
		{"name", SortSpec{By: SortByName}, []string{"Aegis Chestplate", "Emerald Staff", "Glowing Resin", "Moonstone Ring", "Thunder Pike"}},
		{"level desc", SortSpec{By: SortByLevel, Desc: true}, []string{"Glowing Resin", "Thunder Pike", "Aegis Chestplate", "Emerald Staff", "Moonstone Ring"}},
		{"rarity", SortSpec{By: SortByRarity}, []string{"Glowing Resin", "Moonstone Ring", "Aegis Chestplate", "Emerald Staff", "Thunder Pike"}},
		{"dps is stable for ties", SortSpec{By: SortByDPS}, []string{"Aegis Chestplate", "Moonstone Ring", "Glowing Resin", "Emerald Staff", "Thunder Pike"}},
		{"type", SortSpec{By: SortByType}, []string{"Moonstone Ring", "Aegis Chestplate", "Glowing Resin", "Emerald Staff", "Thunder Pike"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assertNames(t, testCase.want, Sort(items, testCase.spec))
		})
	}
}

func TestSort_ReturnsCopy(t *testing.T) {
	items := sampleItems()
	before := names(items)

	_ = Sort(items, SortSpec{By: SortByName, Desc: true})
	assert.Equal(t, before, names(items))
}

func TestParseSortField(t *testing.T) {
	field, err := ParseSortField("DPS")
	require.NoError(t, err)
	assert.Equal(t, SortByDPS, field)

	field, err = ParseSortField("")
	require.NoError(t, err)
	assert.Equal(t, SortField(""), field)

	_, err = ParseSortField("weight")
	assert.Error(t, err)
}

func TestRarityRank(t *testing.T) {
	assert.Equal(t, 7, RarityRank("Mythic"))
	assert.Equal(t, 2, RarityRank("set"))
	assert.Equal(t, 0, RarityRank(models.UnknownRarity))
}
