// internal/models/filter.go
package models

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	apperrors "github.com/ifallious/Wynncraft-Item-Viewer/internal/errors"
)

// Operator is the comparison an identification filter applies
type Operator string

const (
	OpGreater Operator = "greater"
	OpLess    Operator = "less"
	OpEqual   Operator = "equal"
	OpRange   Operator = "range"
)

// Valid reports whether op is a known operator
func (op Operator) Valid() bool {
	switch op {
	case OpGreater, OpLess, OpEqual, OpRange:
		return true
	}
	return false
}

// IdentificationFilter constrains one identification attribute
type IdentificationFilter struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Operator Operator `json:"operator"`
	Value    float64  `json:"value"`
	MaxValue *float64 `json:"maxValue,omitempty"` // range upper bound, defaults to Value
}

// Upper returns the range upper bound, falling back to Value for a degenerate range
func (f IdentificationFilter) Upper() float64 {
	if f.MaxValue == nil {
		return f.Value
	}
	return *f.MaxValue
}

// Bounds is an inclusive numeric range
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies in [Min, Max]
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// FilterDomain is the full range of each numeric filter; a filter at its domain is "no constraint"
type FilterDomain struct {
	Level Bounds `json:"level" yaml:"level"`
	Skill Bounds `json:"skill" yaml:"skill"`
	DPS   Bounds `json:"dps" yaml:"dps"`
}

// DefaultFilterDomain returns the domains the filter panel ships with
func DefaultFilterDomain() FilterDomain {
	return FilterDomain{
		Level: Bounds{Min: 1, Max: 110},
		Skill: Bounds{Min: 0, Max: 150},
		DPS:   Bounds{Min: 0, Max: 1300},
	}
}

// FilterState is the complete, flat filter configuration.
// Treat it as a value: the With*/Toggle* methods return a modified copy.
type FilterState struct {
	Search string `json:"search"`

	Type             []string `json:"type"`
	Rarity           []string `json:"rarity"`
	AttackSpeed      []string `json:"attackSpeed"`
	WeaponTypes      []string `json:"weaponTypes"`
	ArmourTypes      []string `json:"armourTypes"`
	AccessoryTypes   []string `json:"accessoryTypes"`
	ClassRequirement []string `json:"classRequirement"`
	PowderSlots      []string `json:"powderSlots"`

	LevelMin        float64 `json:"levelMin"`
	LevelMax        float64 `json:"levelMax"`
	StrengthMin     float64 `json:"strengthMin"`
	StrengthMax     float64 `json:"strengthMax"`
	DexterityMin    float64 `json:"dexterityMin"`
	DexterityMax    float64 `json:"dexterityMax"`
	IntelligenceMin float64 `json:"intelligenceMin"`
	IntelligenceMax float64 `json:"intelligenceMax"`
	DefenceMin      float64 `json:"defenceMin"`
	DefenceMax      float64 `json:"defenceMax"`
	AgilityMin      float64 `json:"agilityMin"`
	AgilityMax      float64 `json:"agilityMax"`
	DPSMin          float64 `json:"dpsMin"`
	DPSMax          float64 `json:"dpsMax"`

	HasIdentifications bool     `json:"hasIdentifications"`
	HasMajorIDs        bool     `json:"hasMajorIds"`
	SelectedMajorIDs   []string `json:"selectedMajorIds"`
	DamageElements     []string `json:"damageElements"`

	IdentificationFilters []IdentificationFilter `json:"identificationFilters"`

	CraftingProfessions []string `json:"craftingProfessions"`
	IngredientTiers     []int    `json:"ingredientTiers"`
}

// DefaultFilterState returns the "no constraint" state for a domain
func DefaultFilterState(domain FilterDomain) FilterState {
	return FilterState{
		LevelMin:        domain.Level.Min,
		LevelMax:        domain.Level.Max,
		StrengthMin:     domain.Skill.Min,
		StrengthMax:     domain.Skill.Max,
		DexterityMin:    domain.Skill.Min,
		DexterityMax:    domain.Skill.Max,
		IntelligenceMin: domain.Skill.Min,
		IntelligenceMax: domain.Skill.Max,
		DefenceMin:      domain.Skill.Min,
		DefenceMax:      domain.Skill.Max,
		AgilityMin:      domain.Skill.Min,
		AgilityMax:      domain.Skill.Max,
		DPSMin:          domain.DPS.Min,
		DPSMax:          domain.DPS.Max,
	}
}

// Dimension names a categorical multi-select
type Dimension string

const (
	DimType               Dimension = "type"
	DimRarity             Dimension = "rarity"
	DimAttackSpeed        Dimension = "attackSpeed"
	DimWeaponTypes        Dimension = "weaponTypes"
	DimArmourTypes        Dimension = "armourTypes"
	DimAccessoryTypes     Dimension = "accessoryTypes"
	DimClassRequirement   Dimension = "classRequirement"
	DimPowderSlots        Dimension = "powderSlots"
	DimSelectedMajorIDs   Dimension = "selectedMajorIds"
	DimDamageElements     Dimension = "damageElements"
	DimCraftingProfession Dimension = "craftingProfessions"
)

// Level returns the configured level bounds
func (f FilterState) Level() Bounds { return Bounds{Min: f.LevelMin, Max: f.LevelMax} }

// DPS returns the configured DPS bounds
func (f FilterState) DPS() Bounds { return Bounds{Min: f.DPSMin, Max: f.DPSMax} }

// Skill returns the configured bounds of a skill point
func (f FilterState) Skill(name string) Bounds {
	switch name {
	case SkillStrength:
		return Bounds{Min: f.StrengthMin, Max: f.StrengthMax}
	case SkillDexterity:
		return Bounds{Min: f.DexterityMin, Max: f.DexterityMax}
	case SkillIntelligence:
		return Bounds{Min: f.IntelligenceMin, Max: f.IntelligenceMax}
	case SkillDefence:
		return Bounds{Min: f.DefenceMin, Max: f.DefenceMax}
	case SkillAgility:
		return Bounds{Min: f.AgilityMin, Max: f.AgilityMax}
	}
	return Bounds{}
}

// Values returns the selected values of a categorical dimension
func (f FilterState) Values(dim Dimension) []string {
	if p := f.dimension(dim); p != nil {
		return *p
	}
	return nil
}

func (f *FilterState) dimension(dim Dimension) *[]string {
	switch dim {
	case DimType:
		return &f.Type
	case DimRarity:
		return &f.Rarity
	case DimAttackSpeed:
		return &f.AttackSpeed
	case DimWeaponTypes:
		return &f.WeaponTypes
	case DimArmourTypes:
		return &f.ArmourTypes
	case DimAccessoryTypes:
		return &f.AccessoryTypes
	case DimClassRequirement:
		return &f.ClassRequirement
	case DimPowderSlots:
		return &f.PowderSlots
	case DimSelectedMajorIDs:
		return &f.SelectedMajorIDs
	case DimDamageElements:
		return &f.DamageElements
	case DimCraftingProfession:
		return &f.CraftingProfessions
	}
	return nil
}

// clone copies every slice so the result shares no backing arrays with f
func (f FilterState) clone() FilterState {
	out := f
	out.Type = slices.Clone(f.Type)
	out.Rarity = slices.Clone(f.Rarity)
	out.AttackSpeed = slices.Clone(f.AttackSpeed)
	out.WeaponTypes = slices.Clone(f.WeaponTypes)
	out.ArmourTypes = slices.Clone(f.ArmourTypes)
	out.AccessoryTypes = slices.Clone(f.AccessoryTypes)
	out.ClassRequirement = slices.Clone(f.ClassRequirement)
	out.PowderSlots = slices.Clone(f.PowderSlots)
	out.SelectedMajorIDs = slices.Clone(f.SelectedMajorIDs)
	out.DamageElements = slices.Clone(f.DamageElements)
	out.IdentificationFilters = slices.Clone(f.IdentificationFilters)
	out.CraftingProfessions = slices.Clone(f.CraftingProfessions)
	out.IngredientTiers = slices.Clone(f.IngredientTiers)
	return out
}

// WithSearch sets the free text search
func (f FilterState) WithSearch(search string) FilterState {
	out := f.clone()
	out.Search = search
	return out
}

// Toggle adds value to a categorical dimension, or removes it when already selected
func (f FilterState) Toggle(dim Dimension, value string) FilterState {
	out := f.clone()
	p := out.dimension(dim)
	if p == nil {
		return out
	}
	if i := slices.Index(*p, value); i >= 0 {
		*p = slices.Delete(*p, i, i+1)
	} else {
		*p = append(*p, value)
	}
	return out
}

// ToggleMajorID adds or removes a required major ID
func (f FilterState) ToggleMajorID(name string) FilterState {
	return f.Toggle(DimSelectedMajorIDs, name)
}

// ToggleTier adds or removes an ingredient tier
func (f FilterState) ToggleTier(tier int) FilterState {
	out := f.clone()
	if i := slices.Index(out.IngredientTiers, tier); i >= 0 {
		out.IngredientTiers = slices.Delete(out.IngredientTiers, i, i+1)
	} else {
		out.IngredientTiers = append(out.IngredientTiers, tier)
	}
	return out
}

// WithLevel sets the level bounds
func (f FilterState) WithLevel(min, max float64) FilterState {
	out := f.clone()
	out.LevelMin, out.LevelMax = min, max
	return out
}

// WithDPS sets the DPS bounds
func (f FilterState) WithDPS(min, max float64) FilterState {
	out := f.clone()
	out.DPSMin, out.DPSMax = min, max
	return out
}

// WithSkill sets the bounds of one skill point; unknown names return an unchanged copy
func (f FilterState) WithSkill(name string, min, max float64) FilterState {
	out := f.clone()
	switch name {
	case SkillStrength:
		out.StrengthMin, out.StrengthMax = min, max
	case SkillDexterity:
		out.DexterityMin, out.DexterityMax = min, max
	case SkillIntelligence:
		out.IntelligenceMin, out.IntelligenceMax = min, max
	case SkillDefence:
		out.DefenceMin, out.DefenceMax = min, max
	case SkillAgility:
		out.AgilityMin, out.AgilityMax = min, max
	}
	return out
}

// WithHasIdentifications sets the identifications presence flag
func (f FilterState) WithHasIdentifications(on bool) FilterState {
	out := f.clone()
	out.HasIdentifications = on
	return out
}

// WithHasMajorIDs sets the major IDs presence flag
func (f FilterState) WithHasMajorIDs(on bool) FilterState {
	out := f.clone()
	out.HasMajorIDs = on
	return out
}

// AddIdentificationFilter appends a filter, assigning an id when it has none
func (f FilterState) AddIdentificationFilter(filter IdentificationFilter) FilterState {
	out := f.clone()
	if filter.ID == "" {
		filter.ID = uuid.NewString()
	}
	out.IdentificationFilters = append(out.IdentificationFilters, filter)
	return out
}

// RemoveIdentificationFilter drops the filter with the given id
func (f FilterState) RemoveIdentificationFilter(id string) FilterState {
	out := f.clone()
	out.IdentificationFilters = slices.DeleteFunc(out.IdentificationFilters, func(x IdentificationFilter) bool {
		return x.ID == id
	})
	return out
}

// Reset returns the default state for the domain
func (f FilterState) Reset(domain FilterDomain) FilterState {
	return DefaultFilterState(domain)
}

// Validate rejects configurations the query surface should not accept.
// The engine tolerates all of them; this is for callers that want a 400.
func (f FilterState) Validate() error {
	ranges := []struct {
		name string
		b    Bounds
	}{
		{"level", f.Level()},
		{"dps", f.DPS()},
	}
	for _, skill := range SkillNames() {
		ranges = append(ranges, struct {
			name string
			b    Bounds
		}{skill, f.Skill(skill)})
	}
	for _, r := range ranges {
		if r.b.Min > r.b.Max {
			return apperrors.NewValidationError(
				fmt.Sprintf("%s range is inverted (%v > %v)", r.name, r.b.Min, r.b.Max), nil)
		}
	}

	for _, element := range f.DamageElements {
		if !IsDamageElement(element) {
			return apperrors.NewValidationError(fmt.Sprintf("unknown damage element %q", element), nil)
		}
	}

	for _, idf := range f.IdentificationFilters {
		if idf.Name == "" {
			return apperrors.NewValidationError("identification filter without a name", nil)
		}
		if !idf.Operator.Valid() {
			return apperrors.NewValidationError(fmt.Sprintf("unknown operator %q", idf.Operator), nil)
		}
	}

	return nil
}
