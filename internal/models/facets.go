// internal/models/facets.go
package models

// Facets are the distinct values that populate the filter controls
type Facets struct {
	Types               []string `json:"types"`
	Rarities            []string `json:"rarities"`
	WeaponTypes         []string `json:"weaponTypes"`
	ArmourTypes         []string `json:"armourTypes"`
	AccessoryTypes      []string `json:"accessoryTypes"`
	AttackSpeeds        []string `json:"attackSpeeds"`
	ClassRequirements   []string `json:"classRequirements"`
	IdentificationNames []string `json:"identificationNames"`
	MajorIDNames        []string `json:"majorIdNames"`
	PowderSlots         []string `json:"powderSlots"`
	CraftingProfessions []string `json:"craftingProfessions"`
	IngredientTiers     []int    `json:"ingredientTiers"`
	DamageElements      []string `json:"damageElements"`

	// observed maxima, for callers that want slider ends tighter than the domain
	MaxLevel float64 `json:"maxLevel"`
	MaxDPS   float64 `json:"maxDps"`

	Version uint64 `json:"version"`
}
