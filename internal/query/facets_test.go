package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
)

func TestExtractFacets(t *testing.T) {
	facets := ExtractFacets(sampleItems())

	want := models.Facets{
		Types:               []string{"accessory", "armour", "ingredient", "weapon"},
		Rarities:            []string{"unknown", "set", "unique", "rare", "legendary"},
		WeaponTypes:         []string{"spear", "wand"},
		ArmourTypes:         []string{"chestplate"},
		AccessoryTypes:      []string{"ring"},
		AttackSpeeds:        []string{"fast", "normal"},
		ClassRequirements:   []string{"mage", "warrior"},
		IdentificationNames: []string{"manaRegen", "rawHealth", "spellDamage", "walkSpeed"},
		MajorIDNames:        []string{"Rally", "Saviour's Sacrifice"},
		PowderSlots:         []string{"0", "1", "2", "3"},
		CraftingProfessions: []string{"alchemism", "woodworking"},
		IngredientTiers:     []int{2},
		DamageElements:      models.DamageElements(),
		MaxLevel:            40,
		MaxDPS:              500,
	}

	if diff := cmp.Diff(want, facets); diff != "" {
		t.Fatalf("facets mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractFacets_Empty(t *testing.T) {
	facets := ExtractFacets(nil)

	assert.Empty(t, facets.Types)
	assert.Empty(t, facets.PowderSlots)
	assert.Equal(t, models.DamageElements(), facets.DamageElements)
	assert.Zero(t, facets.MaxLevel)
}
