// internal/query/facets.go
package query

import (
	"sort"
	"strconv"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
)

type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ExtractFacets collects the distinct values the filter controls offer for items
func ExtractFacets(items []models.Item) models.Facets {
	var (
		types, rarities, weapons, armours = stringSet{}, stringSet{}, stringSet{}, stringSet{}
		accessories, speeds, classes      = stringSet{}, stringSet{}, stringSet{}
		idNames, majorIDs, professions    = stringSet{}, stringSet{}, stringSet{}
		slots                             = map[int]struct{}{}
		tiers                             = map[int]struct{}{}
		maxLevel, maxDPS                  float64
	)

	for i := range items {
		it := &items[i]

		types.add(it.Type)
		rarities.add(it.RarityOrUnknown())
		weapons.add(it.WeaponType)
		armours.add(it.ArmourType)
		accessories.add(it.AccessoryType)
		speeds.add(it.AttackSpeed)
		classes.add(it.Requirements.ClassRequirement)

		for name := range it.Identifications {
			idNames.add(name)
		}
		for name := range it.MajorIDs {
			majorIDs.add(name)
		}
		for _, skill := range it.Requirements.Skills {
			professions.add(skill)
		}

		if it.PowderSlots != nil {
			slots[*it.PowderSlots] = struct{}{}
		} else {
			slots[0] = struct{}{}
		}
		if it.Tier != nil {
			tiers[*it.Tier] = struct{}{}
		}

		if lvl := it.Requirements.Level; lvl != nil && float64(*lvl) > maxLevel {
			maxLevel = float64(*lvl)
		}
		if it.AverageDPS != nil && *it.AverageDPS > maxDPS {
			maxDPS = *it.AverageDPS
		}
	}

	return models.Facets{
		Types:               types.sorted(),
		Rarities:            sortRarities(rarities.sorted()),
		WeaponTypes:         weapons.sorted(),
		ArmourTypes:         armours.sorted(),
		AccessoryTypes:      accessories.sorted(),
		AttackSpeeds:        speeds.sorted(),
		ClassRequirements:   classes.sorted(),
		IdentificationNames: idNames.sorted(),
		MajorIDNames:        majorIDs.sorted(),
		PowderSlots:         sortedSlotKeys(slots),
		CraftingProfessions: professions.sorted(),
		IngredientTiers:     sortedInts(tiers),
		DamageElements:      models.DamageElements(),
		MaxLevel:            maxLevel,
		MaxDPS:              maxDPS,
	}
}

// sortRarities orders by rank, ties (unknown rarities) alphabetically
func sortRarities(names []string) []string {
	sort.SliceStable(names, func(i, j int) bool {
		return RarityRank(names[i]) < RarityRank(names[j])
	})
	return names
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func sortedSlotKeys(set map[int]struct{}) []string {
	keys := sortedInts(set)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strconv.Itoa(k))
	}
	return out
}
