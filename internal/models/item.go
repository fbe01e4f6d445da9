// internal/models/item.go
package models

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Item categories derived from the populated sub-type field
const (
	CategoryWeapon    = "weapon"
	CategoryArmour    = "armour"
	CategoryAccessory = "accessory"
)

// UnknownRarity is the category used for items without a rarity
const UnknownRarity = "unknown"

// Damage elements, in the order an item's element set is reported
const (
	ElementNeutral = "neutral"
	ElementEarth   = "earth"
	ElementThunder = "thunder"
	ElementWater   = "water"
	ElementFire    = "fire"
	ElementAir     = "air"
)

// DamageElements lists every damage element
func DamageElements() []string {
	return []string{ElementNeutral, ElementEarth, ElementThunder, ElementWater, ElementFire, ElementAir}
}

// IsDamageElement reports whether name is a known damage element
func IsDamageElement(name string) bool {
	for _, element := range DamageElements() {
		if element == name {
			return true
		}
	}
	return false
}

// Item is one catalog entry as served by the upstream item database
type Item struct {
	DisplayName     string               `json:"displayName"` // key in the upstream map
	InternalName    string               `json:"internalName"`
	Type            string               `json:"type"`
	WeaponType      string               `json:"weaponType,omitempty"`
	ArmourType      string               `json:"armourType,omitempty"`
	AccessoryType   string               `json:"accessoryType,omitempty"`
	AttackSpeed     string               `json:"attackSpeed,omitempty"`
	AverageDPS      *float64             `json:"averageDps,omitempty"`
	DropRestriction string               `json:"dropRestriction,omitempty"`
	Requirements    Requirements         `json:"requirements"`
	MajorIDs        map[string]string    `json:"majorIds,omitempty"`
	PowderSlots     *int                 `json:"powderSlots,omitempty"`
	Lore            string               `json:"lore,omitempty"`
	DroppedBy       []DropSource         `json:"droppedBy,omitempty"`
	DropMeta        *DropMeta            `json:"dropMeta,omitempty"`
	Icon            *Icon                `json:"icon,omitempty"`
	Identifications map[string]StatValue `json:"identifications,omitempty"`
	Base            *Base                `json:"base,omitempty"`
	Rarity          string               `json:"rarity,omitempty"`
	Restrictions    string               `json:"restrictions,omitempty"`
	Identified      bool                 `json:"identified,omitempty"`
	Tier            *int                 `json:"tier,omitempty"`
	ConsumableIDs   *ConsumableOnlyIDs   `json:"consumableOnlyIDs,omitempty"`
	PositionMods    *PositionModifiers   `json:"ingredientPositionModifiers,omitempty"`
	ItemOnlyIDs     *ItemOnlyIDs         `json:"itemOnlyIDs,omitempty"`
}

// Requirements are the minimums to equip an item; nil skill points mean no requirement
type Requirements struct {
	Level            *int     `json:"level,omitempty"`
	ClassRequirement string   `json:"classRequirement,omitempty"`
	Strength         *int     `json:"strength,omitempty"`
	Dexterity        *int     `json:"dexterity,omitempty"`
	Intelligence     *int     `json:"intelligence,omitempty"`
	Defence          *int     `json:"defence,omitempty"`
	Agility          *int     `json:"agility,omitempty"`
	Skills           []string `json:"skills,omitempty"` // crafting professions for ingredients
}

// Skill point names, used by FilterState and Requirements.SkillPoint
const (
	SkillStrength     = "strength"
	SkillDexterity    = "dexterity"
	SkillIntelligence = "intelligence"
	SkillDefence      = "defence"
	SkillAgility      = "agility"
)

// SkillNames lists the five skill points
func SkillNames() []string {
	return []string{SkillStrength, SkillDexterity, SkillIntelligence, SkillDefence, SkillAgility}
}

// SkillPoint returns the named skill point requirement
func (r Requirements) SkillPoint(name string) *int {
	switch name {
	case SkillStrength:
		return r.Strength
	case SkillDexterity:
		return r.Dexterity
	case SkillIntelligence:
		return r.Intelligence
	case SkillDefence:
		return r.Defence
	case SkillAgility:
		return r.Agility
	}
	return nil
}

// Base holds typed damage and flat defence numbers
type Base struct {
	Damage        *StatValue `json:"baseDamage,omitempty"`
	EarthDamage   *StatValue `json:"baseEarthDamage,omitempty"`
	ThunderDamage *StatValue `json:"baseThunderDamage,omitempty"`
	WaterDamage   *StatValue `json:"baseWaterDamage,omitempty"`
	FireDamage    *StatValue `json:"baseFireDamage,omitempty"`
	AirDamage     *StatValue `json:"baseAirDamage,omitempty"`

	Health         *StatValue `json:"baseHealth,omitempty"`
	EarthDefence   *StatValue `json:"baseEarthDefence,omitempty"`
	ThunderDefence *StatValue `json:"baseThunderDefence,omitempty"`
	WaterDefence   *StatValue `json:"baseWaterDefence,omitempty"`
	FireDefence    *StatValue `json:"baseFireDefence,omitempty"`
	AirDefence     *StatValue `json:"baseAirDefence,omitempty"`
}

// DropSource is a mob that drops the item
type DropSource struct {
	Name   string      `json:"name"`
	Coords Coordinates `json:"coords"`
}

// Coordinates accepts null, a single [x,y,z] point or a list of points
type Coordinates [][]float64

// UnmarshalJSON implements json.Unmarshaler
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = nil
		return nil
	}

	var many [][]float64
	if err := json.Unmarshal(data, &many); err == nil {
		*c = many
		return nil
	}

	var one []float64
	if err := json.Unmarshal(data, &one); err != nil {
		// unexpected shape, treat as no coordinates
		*c = nil
		return nil
	}
	*c = Coordinates{one}
	return nil
}

// DropMeta is the structured drop location descriptor
type DropMeta struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates,omitempty"`
}

// Icon is the item's icon reference; the value shape depends on the format
type Icon struct {
	Format string          `json:"format"`
	Value  json.RawMessage `json:"value,omitempty"`
}

// ConsumableOnlyIDs are ingredient effects on consumables
type ConsumableOnlyIDs struct {
	Duration int `json:"duration"`
	Charges  int `json:"charges"`
}

// PositionModifiers are ingredient effectiveness modifiers by crafting grid position
type PositionModifiers struct {
	Left        int `json:"left"`
	Right       int `json:"right"`
	Above       int `json:"above"`
	Under       int `json:"under"`
	Touching    int `json:"touching"`
	NotTouching int `json:"not_touching"`
}

// ItemOnlyIDs are ingredient effects on crafted items
type ItemOnlyIDs struct {
	DurabilityModifier      int `json:"durabilityModifier"`
	StrengthRequirement     int `json:"strengthRequirement"`
	DexterityRequirement    int `json:"dexterityRequirement"`
	IntelligenceRequirement int `json:"intelligenceRequirement"`
	DefenceRequirement      int `json:"defenceRequirement"`
	AgilityRequirement      int `json:"agilityRequirement"`
}

// Category returns weapon, armour or accessory from whichever sub-type is populated
func (it *Item) Category() string {
	switch {
	case it.WeaponType != "":
		return CategoryWeapon
	case it.ArmourType != "":
		return CategoryArmour
	case it.AccessoryType != "":
		return CategoryAccessory
	}
	return ""
}

// SubType returns the populated weapon, armour or accessory kind
func (it *Item) SubType() string {
	switch {
	case it.WeaponType != "":
		return it.WeaponType
	case it.ArmourType != "":
		return it.ArmourType
	}
	return it.AccessoryType
}

// RarityOrUnknown returns the rarity, or "unknown" when absent
func (it *Item) RarityOrUnknown() string {
	if it.Rarity == "" {
		return UnknownRarity
	}
	return it.Rarity
}

// PowderSlotKey is the powder slot count as the string the filter panel uses
func (it *Item) PowderSlotKey() string {
	if it.PowderSlots == nil {
		return "0"
	}
	return strconv.Itoa(*it.PowderSlots)
}

// DamageElements returns the elements the item deals damage in
func (it *Item) DamageElements() []string {
	if it.Base == nil {
		return nil
	}

	elements := make([]string, 0, 6)
	if it.Base.Damage != nil {
		elements = append(elements, ElementNeutral)
	}
	if it.Base.EarthDamage != nil {
		elements = append(elements, ElementEarth)
	}
	if it.Base.ThunderDamage != nil {
		elements = append(elements, ElementThunder)
	}
	if it.Base.WaterDamage != nil {
		elements = append(elements, ElementWater)
	}
	if it.Base.FireDamage != nil {
		elements = append(elements, ElementFire)
	}
	if it.Base.AirDamage != nil {
		elements = append(elements, ElementAir)
	}
	return elements
}

// NormalizedIdentifications resolves every identification for display, sorted by name
func (it *Item) NormalizedIdentifications() []NormalizedStat {
	names := make([]string, 0, len(it.Identifications))
	for name := range it.Identifications {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]NormalizedStat, 0, len(names))
	for _, name := range names {
		out = append(out, it.Identifications[name].Normalize(name))
	}
	return out
}
