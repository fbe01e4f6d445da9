// internal/query/sort.go
package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
)

// SortField is a column the result grid can be ordered by
type SortField string

const (
	SortByName   SortField = "name"
	SortByLevel  SortField = "level"
	SortByRarity SortField = "rarity"
	SortByType   SortField = "type"
	SortByDPS    SortField = "dps"
)

// SortSpec selects the order of a result page. The zero value keeps input order.
type SortSpec struct {
	By   SortField `json:"by"`
	Desc bool      `json:"desc"`
}

// Valid reports whether the field is empty or known
func (s SortSpec) Valid() bool {
	switch s.By {
	case "", SortByName, SortByLevel, SortByRarity, SortByType, SortByDPS:
		return true
	}
	return false
}

// ParseSortField maps a user supplied field name, accepting the empty string as "none"
func ParseSortField(name string) (SortField, error) {
	spec := SortSpec{By: SortField(strings.ToLower(name))}
	if !spec.Valid() {
		return "", fmt.Errorf("unknown sort field %q", name)
	}
	return spec.By, nil
}

var rarityRank = map[string]int{
	"common":    1,
	"set":       2,
	"unique":    3,
	"rare":      4,
	"legendary": 5,
	"fabled":    6,
	"mythic":    7,
}

// RarityRank orders rarities from common to mythic; unknown rarities rank 0
func RarityRank(rarity string) int {
	return rarityRank[strings.ToLower(rarity)]
}

// Sort returns a stably sorted copy of items
func Sort(items []models.Item, spec SortSpec) []models.Item {
	out := slices.Clone(items)
	if spec.By == "" {
		return out
	}

	cmp := comparator(spec.By)
	if cmp == nil {
		return out
	}

	slices.SortStableFunc(out, func(a, b models.Item) int {
		c := cmp(&a, &b)
		if spec.Desc {
			return -c
		}
		return c
	})
	return out
}

func comparator(field SortField) func(a, b *models.Item) int {
	switch field {
	case SortByName:
		return func(a, b *models.Item) int {
			return strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName))
		}
	case SortByType:
		return func(a, b *models.Item) int {
			return strings.Compare(strings.ToLower(a.Type), strings.ToLower(b.Type))
		}
	case SortByLevel:
		return func(a, b *models.Item) int {
			return compareInt(levelOf(a), levelOf(b))
		}
	case SortByRarity:
		return func(a, b *models.Item) int {
			return compareInt(RarityRank(a.Rarity), RarityRank(b.Rarity))
		}
	case SortByDPS:
		return func(a, b *models.Item) int {
			return compareFloat(dpsOf(a), dpsOf(b))
		}
	}
	return nil
}

func levelOf(it *models.Item) int {
	if it.Requirements.Level == nil {
		return 0
	}
	return *it.Requirements.Level
}

func dpsOf(it *models.Item) float64 {
	if it.AverageDPS == nil {
		return 0
	}
	return *it.AverageDPS
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
