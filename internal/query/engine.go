// internal/query/engine.go
package query

import (
	"math"
	"slices"
	"strings"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
)

// equalTolerance is the float tolerance of the "equal" identification operator
const equalTolerance = 0.01

type predicate func(it *models.Item) bool

// Engine evaluates a FilterState against an item collection.
// Numeric filters sitting on their Domain bounds are treated as "no constraint".
type Engine struct {
	Domain models.FilterDomain
}

// NewEngine creates an engine for the given numeric domains
func NewEngine(domain models.FilterDomain) *Engine {
	return &Engine{Domain: domain}
}

// Filter returns the items, in input order, for which every enabled predicate holds.
// It never modifies items or filters.
func (e *Engine) Filter(items []models.Item, filters models.FilterState) []models.Item {
	preds := e.compile(filters)

	out := make([]models.Item, 0, len(items))
	for i := range items {
		if matchAll(&items[i], preds) {
			out = append(out, items[i])
		}
	}
	return out
}

// Count is Filter without materialising the result
func (e *Engine) Count(items []models.Item, filters models.FilterState) int {
	preds := e.compile(filters)

	n := 0
	for i := range items {
		if matchAll(&items[i], preds) {
			n++
		}
	}
	return n
}

// Match reports whether a single item passes the filters
func (e *Engine) Match(it *models.Item, filters models.FilterState) bool {
	return matchAll(it, e.compile(filters))
}

// Filter runs the default-domain engine
func Filter(items []models.Item, filters models.FilterState) []models.Item {
	return NewEngine(models.DefaultFilterDomain()).Filter(items, filters)
}

func matchAll(it *models.Item, preds []predicate) bool {
	for _, p := range preds {
		if !p(it) {
			return false
		}
	}
	return true
}

// compile turns the non-default dimensions of filters into predicates
func (e *Engine) compile(f models.FilterState) []predicate {
	var preds []predicate

	if f.Search != "" {
		preds = append(preds, searchPredicate(f.Search))
	}

	preds = appendSet(preds, f.Type, func(it *models.Item) (string, bool) { return it.Type, true })
	preds = appendSet(preds, f.Rarity, func(it *models.Item) (string, bool) { return it.RarityOrUnknown(), true })
	preds = appendSet(preds, f.AttackSpeed, optional(func(it *models.Item) string { return it.AttackSpeed }))
	preds = appendSet(preds, f.WeaponTypes, optional(func(it *models.Item) string { return it.WeaponType }))
	preds = appendSet(preds, f.ArmourTypes, optional(func(it *models.Item) string { return it.ArmourType }))
	preds = appendSet(preds, f.AccessoryTypes, optional(func(it *models.Item) string { return it.AccessoryType }))
	preds = appendSet(preds, f.PowderSlots, func(it *models.Item) (string, bool) { return it.PowderSlotKey(), true })

	if len(f.ClassRequirement) > 0 {
		classes := toSet(f.ClassRequirement)
		preds = append(preds, func(it *models.Item) bool {
			class := it.Requirements.ClassRequirement
			if class == "" {
				return true
			}
			_, ok := classes[class]
			return ok
		})
	}

	if len(f.CraftingProfessions) > 0 {
		professions := toSet(f.CraftingProfessions)
		preds = append(preds, func(it *models.Item) bool {
			for _, skill := range it.Requirements.Skills {
				if _, ok := professions[skill]; ok {
					return true
				}
			}
			return false
		})
	}

	if len(f.IngredientTiers) > 0 {
		tiers := f.IngredientTiers
		preds = append(preds, func(it *models.Item) bool {
			return it.Tier != nil && slices.Contains(tiers, *it.Tier)
		})
	}

	if b := f.Level(); b != e.Domain.Level {
		preds = append(preds, rangePredicate(b, e.Domain.Level.Min, func(it *models.Item) *int {
			return it.Requirements.Level
		}))
	}

	for _, skill := range models.SkillNames() {
		skill := skill
		if b := f.Skill(skill); b != e.Domain.Skill {
			preds = append(preds, rangePredicate(b, e.Domain.Skill.Min, func(it *models.Item) *int {
				return it.Requirements.SkillPoint(skill)
			}))
		}
	}

	if b := f.DPS(); b != e.Domain.DPS {
		// an item without DPS never passes a narrowed DPS range
		preds = append(preds, func(it *models.Item) bool {
			return it.AverageDPS != nil && b.Contains(*it.AverageDPS)
		})
	}

	if f.HasIdentifications {
		preds = append(preds, func(it *models.Item) bool { return len(it.Identifications) > 0 })
	}

	if f.HasMajorIDs {
		preds = append(preds, func(it *models.Item) bool { return len(it.MajorIDs) > 0 })
	}

	if len(f.SelectedMajorIDs) > 0 {
		wanted := f.SelectedMajorIDs
		preds = append(preds, func(it *models.Item) bool {
			for _, name := range wanted {
				if _, ok := it.MajorIDs[name]; !ok {
					return false
				}
			}
			return true
		})
	}

	if len(f.DamageElements) > 0 {
		wanted := toSet(f.DamageElements)
		preds = append(preds, func(it *models.Item) bool {
			return sameSet(wanted, it.DamageElements())
		})
	}

	for _, idf := range f.IdentificationFilters {
		preds = append(preds, identificationPredicate(idf))
	}

	return preds
}

func searchPredicate(search string) predicate {
	needle := strings.ToLower(search)
	return func(it *models.Item) bool {
		return strings.Contains(strings.ToLower(it.DisplayName), needle) ||
			strings.Contains(strings.ToLower(it.Lore), needle)
	}
}

// optional adapts a string field where "" means the attribute is absent
func optional(get func(*models.Item) string) func(*models.Item) (string, bool) {
	return func(it *models.Item) (string, bool) {
		v := get(it)
		return v, v != ""
	}
}

// appendSet adds an any-of membership predicate when selected is non-empty
func appendSet(preds []predicate, selected []string, get func(*models.Item) (string, bool)) []predicate {
	if len(selected) == 0 {
		return preds
	}
	set := toSet(selected)
	return append(preds, func(it *models.Item) bool {
		v, ok := get(it)
		if !ok {
			return false
		}
		_, ok = set[v]
		return ok
	})
}

// rangePredicate checks an inclusive range; a missing attribute counts as zero and
// passes only when the configured minimum is still the domain floor.
func rangePredicate(b models.Bounds, floor float64, get func(*models.Item) *int) predicate {
	return func(it *models.Item) bool {
		v := get(it)
		if v == nil {
			return b.Min <= floor
		}
		return b.Contains(float64(*v))
	}
}

// identificationPredicate requires the identification to exist and satisfy the operator
func identificationPredicate(f models.IdentificationFilter) predicate {
	return func(it *models.Item) bool {
		stat, ok := it.Identifications[f.Name]
		if !ok {
			return false
		}
		v, ok := stat.Numeric()
		if !ok {
			return false
		}
		return CompareIdentification(v, f)
	}
}

// CompareIdentification applies f's operator to an already normalized value
func CompareIdentification(v float64, f models.IdentificationFilter) bool {
	switch f.Operator {
	case models.OpGreater:
		return v > f.Value
	case models.OpLess:
		return v < f.Value
	case models.OpEqual:
		return math.Abs(v-f.Value) < equalTolerance
	case models.OpRange:
		return v >= f.Value && v <= f.Upper()
	default:
		return false
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// sameSet reports whether have holds exactly the members of want
func sameSet(want map[string]struct{}, have []string) bool {
	got := toSet(have)
	if len(got) != len(want) {
		return false
	}
	for v := range got {
		if _, ok := want[v]; !ok {
			return false
		}
	}
	return true
}
