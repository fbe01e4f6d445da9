package query

import "github.com/ifallious/Wynncraft-Item-Viewer/internal/models"

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func damage(min, max float64) *models.StatValue {
	v := models.RangeOf(min, max)
	return &v
}

func names(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.DisplayName)
	}
	return out
}

// sampleItems mirrors the built-in fallback set plus a few edge cases
func sampleItems() []models.Item {
	return []models.Item{
		{
			DisplayName:  "Emerald Staff",
			Type:         "weapon",
			WeaponType:   "wand",
			AttackSpeed:  "fast",
			AverageDPS:   floatPtr(120),
			Rarity:       "rare",
			Lore:         "Carved from a single emerald.",
			PowderSlots:  intPtr(2),
			Requirements: models.Requirements{Level: intPtr(20), ClassRequirement: "mage", Intelligence: intPtr(15)},
			Base:         &models.Base{Damage: damage(10, 20), EarthDamage: damage(5, 10)},
			Identifications: map[string]models.StatValue{
				"spellDamage": models.RangeOf(8, 16),
				"manaRegen":   models.Scalar(2),
			},
		},
		{
			DisplayName:  "Thunder Pike",
			Type:         "weapon",
			WeaponType:   "spear",
			AttackSpeed:  "normal",
			AverageDPS:   floatPtr(500),
			Rarity:       "legendary",
			PowderSlots:  intPtr(3),
			Requirements: models.Requirements{Level: intPtr(35), ClassRequirement: "warrior", Strength: intPtr(10)},
			Base:         &models.Base{Damage: damage(45, 70), ThunderDamage: damage(20, 40)},
			Identifications: map[string]models.StatValue{
				"walkSpeed": models.Scalar(10),
			},
			MajorIDs: map[string]string{"Saviour's Sacrifice": "x", "Rally": "y"},
		},
		{
			DisplayName:  "Aegis Chestplate",
			Type:         "armour",
			ArmourType:   "chestplate",
			Rarity:       "unique",
			PowderSlots:  intPtr(1),
			Requirements: models.Requirements{Level: intPtr(28), Defence: intPtr(25)},
			Identifications: map[string]models.StatValue{
				"rawHealth": models.RawOf(150),
			},
		},
		{
			DisplayName:   "Moonstone Ring",
			Type:          "accessory",
			AccessoryType: "ring",
			Rarity:        "set",
			Requirements:  models.Requirements{Level: intPtr(15)},
		},
		{
			DisplayName:  "Glowing Resin",
			Type:         "ingredient",
			Tier:         intPtr(2),
			Requirements: models.Requirements{Level: intPtr(40), Skills: []string{"woodworking", "alchemism"}},
		},
	}
}
