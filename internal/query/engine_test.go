package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
)

func defaults() models.FilterState {
	return models.DefaultFilterState(models.DefaultFilterDomain())
}

func assertNames(t *testing.T, want []string, got []models.Item) {
	t.Helper()
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_DefaultsReturnEverythingInOrder(t *testing.T) {
	items := sampleItems()
	assertNames(t, names(items), Filter(items, defaults()))
}

func TestFilter_EmptyInput(t *testing.T) {
	assert.Empty(t, Filter(nil, defaults().Toggle(models.DimType, "weapon")))
}

func TestFilter_TypeScenario(t *testing.T) {
	items := []models.Item{sampleItems()[0], sampleItems()[2]}
	assertNames(t, []string{"Emerald Staff"}, Filter(items, defaults().Toggle(models.DimType, "weapon")))
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	items := sampleItems()
	before := names(items)

	_ = Filter(items, defaults().WithSearch("pike"))
	assert.Equal(t, before, names(items))
}

func TestFilter_Monotonic(t *testing.T) {
	items := sampleItems()
	full := Filter(items, defaults())

	for _, dim := range []models.Dimension{models.DimType, models.DimRarity, models.DimWeaponTypes, models.DimPowderSlots} {
		for _, value := range []string{"weapon", "rare", "spear", "0", "unknown"} {
			narrowed := Filter(items, defaults().Toggle(dim, value))
			assert.LessOrEqual(t, len(narrowed), len(full), "%s=%s", dim, value)
			for _, it := range narrowed {
				assert.Contains(t, names(full), it.DisplayName)
			}
		}
	}
}

func TestFilter_OrWithinDimensionAndAcross(t *testing.T) {
	items := sampleItems()

	state := defaults().Toggle(models.DimRarity, "rare").Toggle(models.DimRarity, "unique")
	assertNames(t, []string{"Emerald Staff", "Aegis Chestplate"}, Filter(items, state))

	state = state.Toggle(models.DimType, "armour")
	assertNames(t, []string{"Aegis Chestplate"}, Filter(items, state))
}

func TestFilter_Search(t *testing.T) {
	items := sampleItems()

	assertNames(t, []string{"Thunder Pike"}, Filter(items, defaults().WithSearch("PIKE")))
	assertNames(t, []string{"Emerald Staff"}, Filter(items, defaults().WithSearch("single emerald")))
	assert.Empty(t, Filter(items, defaults().WithSearch("nothing matches this")))
}

func TestFilter_MissingCategoricalAttributes(t *testing.T) {
	items := sampleItems()

	assertNames(t, []string{"Glowing Resin"}, Filter(items, defaults().Toggle(models.DimRarity, models.UnknownRarity)))
	assertNames(t, []string{"Moonstone Ring", "Glowing Resin"}, Filter(items, defaults().Toggle(models.DimPowderSlots, "0")))
	assertNames(t, []string{"Emerald Staff"}, Filter(items, defaults().Toggle(models.DimAttackSpeed, "fast")))
}

func TestFilter_ClassRequirementPassesUnrestrictedItems(t *testing.T) {
	items := sampleItems()
	assertNames(t,
		[]string{"Emerald Staff", "Aegis Chestplate", "Moonstone Ring", "Glowing Resin"},
		Filter(items, defaults().Toggle(models.DimClassRequirement, "mage")))
}

func TestFilter_Ingredients(t *testing.T) {
	items := sampleItems()

	assertNames(t, []string{"Glowing Resin"}, Filter(items, defaults().Toggle(models.DimCraftingProfession, "alchemism")))
	assert.Empty(t, Filter(items, defaults().Toggle(models.DimCraftingProfession, "cooking")))
	assertNames(t, []string{"Glowing Resin"}, Filter(items, defaults().ToggleTier(2)))
	assert.Empty(t, Filter(items, defaults().ToggleTier(3)))
}

func TestFilter_LevelRange(t *testing.T) {
	pike := []models.Item{sampleItems()[1]}

	assert.Len(t, Filter(pike, defaults().WithLevel(30, 40)), 1)
	assert.Empty(t, Filter(pike, defaults().WithLevel(36, 110)))
	assert.Len(t, Filter(pike, defaults().WithLevel(35, 35)), 1)
}

func TestFilter_MissingLevel(t *testing.T) {
	noLevel := []models.Item{{DisplayName: "Loose", Type: "weapon"}}

	assert.Len(t, Filter(noLevel, defaults().WithLevel(1, 50)), 1)
	assert.Empty(t, Filter(noLevel, defaults().WithLevel(10, 110)))
}

func TestFilter_SkillRanges(t *testing.T) {
	items := sampleItems()

	// items without a strength requirement count as zero
	assertNames(t,
		[]string{"Emerald Staff", "Thunder Pike", "Aegis Chestplate", "Moonstone Ring", "Glowing Resin"},
		Filter(items, defaults().WithSkill(models.SkillStrength, 0, 50)))

	assertNames(t, []string{"Thunder Pike"}, Filter(items, defaults().WithSkill(models.SkillStrength, 5, 150)))
	assertNames(t, []string{"Aegis Chestplate"}, Filter(items, defaults().WithSkill(models.SkillDefence, 20, 30)))
}

func TestFilter_DPSExcludesItemsWithoutDPS(t *testing.T) {
	items := sampleItems()

	assertNames(t, []string{"Emerald Staff", "Thunder Pike"}, Filter(items, defaults().WithDPS(0, 1000)))
	assertNames(t, []string{"Thunder Pike"}, Filter(items, defaults().WithDPS(200, 1300)))
}

func TestFilter_PresenceFlags(t *testing.T) {
	items := sampleItems()

	assertNames(t,
		[]string{"Emerald Staff", "Thunder Pike", "Aegis Chestplate"},
		Filter(items, defaults().WithHasIdentifications(true)))
	assertNames(t, []string{"Thunder Pike"}, Filter(items, defaults().WithHasMajorIDs(true)))
}

func TestFilter_MajorIDsSuperset(t *testing.T) {
	items := []models.Item{{DisplayName: "X", MajorIDs: map[string]string{"A": "", "B": ""}}}

	assert.Len(t, Filter(items, defaults().ToggleMajorID("A")), 1)
	assert.Len(t, Filter(items, defaults().ToggleMajorID("A").ToggleMajorID("B")), 1)
	assert.Empty(t, Filter(items, defaults().ToggleMajorID("A").ToggleMajorID("C")))
}

func TestFilter_DamageElementsExact(t *testing.T) {
	items := []models.Item{{
		DisplayName: "Steam",
		Base:        &models.Base{FireDamage: damage(1, 2), WaterDamage: damage(3, 4)},
	}}

	fire := defaults().Toggle(models.DimDamageElements, models.ElementFire)
	assert.Empty(t, Filter(items, fire))
	assert.Empty(t, Filter(items, fire.
		Toggle(models.DimDamageElements, models.ElementWater).
		Toggle(models.DimDamageElements, models.ElementAir)))

	assert.Len(t, Filter(items, fire.Toggle(models.DimDamageElements, models.ElementWater)), 1)
	assert.Len(t, Filter(items, defaults().
		Toggle(models.DimDamageElements, models.ElementWater).
		Toggle(models.DimDamageElements, models.ElementFire)), 1)
}

func TestFilter_IdentificationFilters(t *testing.T) {
	items := sampleItems()
	hi := 14.0

	testCases := []struct {
		name   string
		filter models.IdentificationFilter
		want   []string
	}{
		{"range average above", models.IdentificationFilter{Name: "spellDamage", Operator: models.OpGreater, Value: 11}, []string{"Emerald Staff"}},
		{"range average not above", models.IdentificationFilter{Name: "spellDamage", Operator: models.OpGreater, Value: 12}, []string{}},
		{"less", models.IdentificationFilter{Name: "walkSpeed", Operator: models.OpLess, Value: 11}, []string{"Thunder Pike"}},
		{"raw equal", models.IdentificationFilter{Name: "rawHealth", Operator: models.OpEqual, Value: 150}, []string{"Aegis Chestplate"}},
		{"range", models.IdentificationFilter{Name: "spellDamage", Operator: models.OpRange, Value: 10, MaxValue: &hi}, []string{"Emerald Staff"}},
		{"degenerate range", models.IdentificationFilter{Name: "manaRegen", Operator: models.OpRange, Value: 2}, []string{"Emerald Staff"}},
		{"unknown operator", models.IdentificationFilter{Name: "manaRegen", Operator: "between", Value: 2}, []string{}},
		{"missing identification", models.IdentificationFilter{Name: "lifeSteal", Operator: models.OpGreater, Value: -100}, []string{}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := Filter(items, defaults().AddIdentificationFilter(testCase.filter))
			assertNames(t, testCase.want, got)
		})
	}
}

func TestCompareIdentification_EqualTolerance(t *testing.T) {
	f := models.IdentificationFilter{Name: "x", Operator: models.OpEqual, Value: 10}

	assert.True(t, CompareIdentification(10.004, f))
	assert.True(t, CompareIdentification(9.996, f))
	assert.False(t, CompareIdentification(10.02, f))
}

func TestEngine_CustomDomain(t *testing.T) {
	domain := models.DefaultFilterDomain()
	domain.Level = models.Bounds{Min: 1, Max: 40}
	engine := NewEngine(domain)

	// 1..40 is this engine's "no constraint", so level-less and high-level items stay
	items := append(sampleItems(), models.Item{DisplayName: "Endgame", Requirements: models.Requirements{Level: intPtr(105)}})
	state := models.DefaultFilterState(domain)
	require.Len(t, engine.Filter(items, state), len(items))
	assert.Equal(t, len(items), engine.Count(items, state))

	narrowed := state.WithLevel(1, 30)
	assertNames(t, []string{"Emerald Staff", "Aegis Chestplate", "Moonstone Ring"}, engine.Filter(items, narrowed))
	assert.Equal(t, 3, engine.Count(items, narrowed))
	assert.True(t, engine.Match(&items[0], narrowed))
	assert.False(t, engine.Match(&items[1], narrowed))
}
