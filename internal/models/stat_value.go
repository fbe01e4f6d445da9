// internal/models/stat_value.go
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// StatKind tags the shape a stat value had in the upstream JSON
type StatKind string

const (
	StatScalar  StatKind = "scalar"  // 12
	StatRaw     StatKind = "raw"     // {"raw": 12, ...}
	StatRange   StatKind = "range"   // {"min": 8, "max": 16}
	StatUnknown StatKind = "unknown" // anything else, kept but never numeric
)

// StatValue is an identification or base stat resolved once at decode time.
// The upstream API uses a bare number, a {raw} wrapper or a {min,max} range
// for the same attribute depending on the item.
type StatValue struct {
	Kind   StatKind
	Scalar float64
	Raw    *float64
	Min    *float64
	Max    *float64

	original json.RawMessage
}

// Scalar builds a scalar stat value
func Scalar(v float64) StatValue {
	return StatValue{Kind: StatScalar, Scalar: v}
}

// RangeOf builds a {min,max} stat value
func RangeOf(min, max float64) StatValue {
	return StatValue{Kind: StatRange, Min: &min, Max: &max}
}

// RawOf builds a {raw} stat value
func RawOf(raw float64) StatValue {
	return StatValue{Kind: StatRaw, Raw: &raw}
}

// UnmarshalJSON never fails on an unexpected shape; the value is kept as StatUnknown
// so one odd attribute cannot reject the whole catalog.
func (s *StatValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*s = StatValue{Kind: StatUnknown, original: append(json.RawMessage(nil), trimmed...)}

	if len(trimmed) == 0 {
		return nil
	}

	switch c := trimmed[0]; {
	case c == '-' || (c >= '0' && c <= '9'):
		var v float64
		if err := json.Unmarshal(trimmed, &v); err == nil {
			s.Kind = StatScalar
			s.Scalar = v
		}
	case c == '{':
		var obj struct {
			Raw *float64 `json:"raw"`
			Min *float64 `json:"min"`
			Max *float64 `json:"max"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil
		}
		s.Raw, s.Min, s.Max = obj.Raw, obj.Min, obj.Max
		switch {
		case obj.Raw != nil:
			s.Kind = StatRaw
		case obj.Min != nil && obj.Max != nil:
			s.Kind = StatRange
		}
	}

	return nil
}

// MarshalJSON writes the value back in the shape it was read in
func (s StatValue) MarshalJSON() ([]byte, error) {
	if len(s.original) > 0 {
		return s.original, nil
	}

	switch s.Kind {
	case StatScalar:
		return json.Marshal(s.Scalar)
	case StatRaw, StatRange:
		obj := map[string]*float64{}
		if s.Raw != nil {
			obj["raw"] = s.Raw
		}
		if s.Min != nil {
			obj["min"] = s.Min
		}
		if s.Max != nil {
			obj["max"] = s.Max
		}
		return json.Marshal(obj)
	default:
		return []byte("null"), nil
	}
}

// Numeric reduces the value to the single number filters compare against.
// Ranges reduce to the average of min and max.
func (s StatValue) Numeric() (float64, bool) {
	switch s.Kind {
	case StatScalar:
		return s.Scalar, true
	case StatRaw:
		return *s.Raw, true
	case StatRange:
		return (*s.Min + *s.Max) / 2, true
	default:
		return 0, false
	}
}

// noPercentStats are attribute name fragments rendered without a percent sign
var noPercentStats = []string{
	"poison",
	"raw",
	"mana",
	"defence",
	"strength",
	"dexterity",
	"intelligence",
	"agility",
}

// Display renders the value for the attribute name the way the item card shows it
func (s StatValue) Display(name string) string {
	suffix := "%"
	lower := strings.ToLower(name)
	for _, fragment := range noPercentStats {
		if strings.Contains(lower, fragment) {
			suffix = ""
			break
		}
	}

	if s.Min != nil && s.Max != nil {
		return formatNumber(*s.Min) + " to " + formatNumber(*s.Max) + suffix
	}

	switch s.Kind {
	case StatScalar:
		return formatNumber(s.Scalar) + suffix
	case StatRaw:
		return formatNumber(*s.Raw) + suffix
	default:
		return string(s.original)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NormalizedStat is the display/numeric pair shared by the details view and the query engine
type NormalizedStat struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Display string   `json:"display"`
	Numeric *float64 `json:"numeric,omitempty"`
	Kind    StatKind `json:"kind"`
}

// Normalize resolves the value into a NormalizedStat for the attribute name
func (s StatValue) Normalize(name string) NormalizedStat {
	ns := NormalizedStat{
		Name:    name,
		Label:   FormatIdentificationName(name),
		Display: s.Display(name),
		Kind:    s.Kind,
	}
	if v, ok := s.Numeric(); ok {
		ns.Numeric = &v
	}
	return ns
}

var identificationLabels = map[string]string{
	"raw2ndSpellCost": "2nd Spell Cost",
	"raw4thSpellCost": "4th Spell Cost",
	"walkSpeed":       "Walk Speed",
	"xpBonus":         "XP Bonus",
	"earthDefence":    "Earth Defence",
	"waterDefence":    "Water Defence",
	"fireDefence":     "Fire Defence",
	"thunderDefence":  "Thunder Defence",
	"airDefence":      "Air Defence",
	"neutralDefence":  "Neutral Defence",
	"earthDamage":     "Earth Damage",
	"waterDamage":     "Water Damage",
	"fireDamage":      "Fire Damage",
	"thunderDamage":   "Thunder Damage",
	"airDamage":       "Air Damage",
	"neutralDamage":   "Neutral Damage",
	"healthRegen":     "Health Regen",
	"manaRegen":       "Mana Regen",
	"spellDamage":     "Spell Damage",
	"spellCost":       "Spell Cost",
	"rawSpellCost":    "Spell Cost",
	"rawSpellDamage":  "Spell Damage",
	"rawHealthRegen":  "Health Regen",
	"rawManaRegen":    "Mana Regen",
	"rawHealth":       "Health",
	"rawMana":         "Mana",
	"rawDefence":      "Defence",
	"rawStrength":     "Strength",
	"rawDexterity":    "Dexterity",
	"rawIntelligence": "Intelligence",
	"rawAgility":      "Agility",
	"rawWalkSpeed":    "Walk Speed",
	"rawXpBonus":      "XP Bonus",
}

// FormatIdentificationName turns an identification key into a human label:
// "lifeSteal" -> "Life Steal", "rawHealth" -> "Health".
func FormatIdentificationName(key string) string {
	if label, ok := identificationLabels[key]; ok {
		return label
	}
	if key == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		if i == 0 {
			r = []rune(strings.ToUpper(string(r)))[0]
		}
		b.WriteRune(r)
	}
	label := b.String()

	// first "raw" only, case-insensitive
	if idx := strings.Index(strings.ToLower(label), "raw"); idx >= 0 {
		label = label[:idx] + label[idx+3:]
	}
	return strings.TrimSpace(label)
}
