// cmd/server/cmd_query.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/query"
)

// queryOptions holds the flag values of the query command
type queryOptions struct {
	file string

	search         string
	types          []string
	rarities       []string
	attackSpeeds   []string
	weaponTypes    []string
	armourTypes    []string
	accessoryTypes []string
	classes        []string
	powderSlots    []string
	professions    []string
	tiers          []int
	elements       []string
	majorIDs       []string

	levelMin, levelMax float64
	dpsMin, dpsMax     float64
	skills             []string
	identifications    []string

	hasIdentifications bool
	hasMajorIDs        bool

	sortBy string
	desc   bool
	offset int
	limit  int
	asJSON bool
}

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}
	domain := models.DefaultFilterDomain()

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter a saved item database dump",
		Long: `Runs the filter engine over a saved upstream response.

Examples:
  wynnview query --file items.json --type weapon --level-min 80 --sort dps --desc
  wynnview query --file items.json --skill agility=40:150 --id walkSpeed>20
  wynnview query --file items.json --id spellDamage=10..30 --element neutral,fire`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.OutOrStdout(), opts, domain)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.file, "file", "", "saved item database JSON (required)")
	f.StringVar(&opts.search, "search", "", "case-insensitive substring of name or lore")
	f.StringSliceVar(&opts.types, "type", nil, "item types (weapon, armour, accessory, ingredient, ...)")
	f.StringSliceVar(&opts.rarities, "rarity", nil, "rarities")
	f.StringSliceVar(&opts.attackSpeeds, "attack-speed", nil, "attack speeds")
	f.StringSliceVar(&opts.weaponTypes, "weapon-type", nil, "weapon types")
	f.StringSliceVar(&opts.armourTypes, "armour-type", nil, "armour types")
	f.StringSliceVar(&opts.accessoryTypes, "accessory-type", nil, "accessory types")
	f.StringSliceVar(&opts.classes, "class", nil, "class requirements")
	f.StringSliceVar(&opts.powderSlots, "powder-slots", nil, "powder slot counts")
	f.StringSliceVar(&opts.professions, "profession", nil, "crafting professions")
	f.IntSliceVar(&opts.tiers, "tier", nil, "ingredient tiers")
	f.StringSliceVar(&opts.elements, "element", nil, "exact damage element set")
	f.StringSliceVar(&opts.majorIDs, "major-id", nil, "required major identifications")
	f.Float64Var(&opts.levelMin, "level-min", domain.Level.Min, "minimum level")
	f.Float64Var(&opts.levelMax, "level-max", domain.Level.Max, "maximum level")
	f.Float64Var(&opts.dpsMin, "dps-min", domain.DPS.Min, "minimum average DPS")
	f.Float64Var(&opts.dpsMax, "dps-max", domain.DPS.Max, "maximum average DPS")
	f.StringArrayVar(&opts.skills, "skill", nil, "skill point range as name=min:max")
	f.StringArrayVar(&opts.identifications, "id", nil, "identification filter: name>v, name<v, name=v or name=v..w")
	f.BoolVar(&opts.hasIdentifications, "has-ids", false, "only items with identifications")
	f.BoolVar(&opts.hasMajorIDs, "has-major-ids", false, "only items with major identifications")
	f.StringVar(&opts.sortBy, "sort", "", "sort field: name, level, rarity, type, dps")
	f.BoolVar(&opts.desc, "desc", false, "sort descending")
	f.IntVar(&opts.offset, "offset", 0, "result offset")
	f.IntVar(&opts.limit, "limit", query.DefaultPageSize, "page size")
	f.BoolVar(&opts.asJSON, "json", false, "print the page as JSON")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newFacetsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Print the filter facets of a saved item database dump",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadDump(file)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), query.ExtractFacets(items))
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "saved item database JSON (required)")
	cmd.MarkFlagRequired("file")
	return cmd
}

func runQuery(out io.Writer, opts *queryOptions, domain models.FilterDomain) error {
	filters, err := opts.filterState(domain)
	if err != nil {
		return err
	}

	sortBy, err := query.ParseSortField(opts.sortBy)
	if err != nil {
		return err
	}

	items, err := loadDump(opts.file)
	if err != nil {
		return err
	}

	matched := query.NewEngine(domain).Filter(items, filters)
	sorted := query.Sort(matched, query.SortSpec{By: sortBy, Desc: opts.desc})
	page := query.Paginate(sorted, opts.offset, opts.limit)

	if opts.asJSON {
		return writeJSON(out, page)
	}
	return writeTable(out, page)
}

// filterState converts the flags into a validated FilterState
func (o *queryOptions) filterState(domain models.FilterDomain) (models.FilterState, error) {
	state := models.DefaultFilterState(domain).
		WithSearch(o.search).
		WithLevel(o.levelMin, o.levelMax).
		WithDPS(o.dpsMin, o.dpsMax).
		WithHasIdentifications(o.hasIdentifications).
		WithHasMajorIDs(o.hasMajorIDs)

	toggles := []struct {
		dim    models.Dimension
		values []string
	}{
		{models.DimType, o.types},
		{models.DimRarity, o.rarities},
		{models.DimAttackSpeed, o.attackSpeeds},
		{models.DimWeaponTypes, o.weaponTypes},
		{models.DimArmourTypes, o.armourTypes},
		{models.DimAccessoryTypes, o.accessoryTypes},
		{models.DimClassRequirement, o.classes},
		{models.DimPowderSlots, o.powderSlots},
		{models.DimCraftingProfession, o.professions},
		{models.DimDamageElements, o.elements},
		{models.DimSelectedMajorIDs, o.majorIDs},
	}
	for _, toggle := range toggles {
		for _, value := range toggle.values {
			if !slices.Contains(state.Values(toggle.dim), value) {
				state = state.Toggle(toggle.dim, value)
			}
		}
	}

	for _, tier := range o.tiers {
		if !slices.Contains(state.IngredientTiers, tier) {
			state = state.ToggleTier(tier)
		}
	}

	for _, arg := range o.skills {
		name, bounds, err := parseSkillFlag(arg)
		if err != nil {
			return state, err
		}
		state = state.WithSkill(name, bounds.Min, bounds.Max)
	}

	for _, arg := range o.identifications {
		filter, err := parseIdentificationFlag(arg)
		if err != nil {
			return state, err
		}
		state = state.AddIdentificationFilter(filter)
	}

	if err := state.Validate(); err != nil {
		return state, err
	}
	return state, nil
}

// parseSkillFlag parses "agility=40:150"
func parseSkillFlag(arg string) (string, models.Bounds, error) {
	name, rng, ok := strings.Cut(arg, "=")
	if !ok {
		return "", models.Bounds{}, fmt.Errorf("skill %q: want name=min:max", arg)
	}
	lo, hi, ok := strings.Cut(rng, ":")
	if !ok {
		return "", models.Bounds{}, fmt.Errorf("skill %q: want name=min:max", arg)
	}

	minValue, err := strconv.ParseFloat(lo, 64)
	if err != nil {
		return "", models.Bounds{}, fmt.Errorf("skill %q: %w", arg, err)
	}
	maxValue, err := strconv.ParseFloat(hi, 64)
	if err != nil {
		return "", models.Bounds{}, fmt.Errorf("skill %q: %w", arg, err)
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if !slices.Contains(models.SkillNames(), name) {
		return "", models.Bounds{}, fmt.Errorf("skill %q: unknown skill %q", arg, name)
	}
	return name, models.Bounds{Min: minValue, Max: maxValue}, nil
}

// parseIdentificationFlag parses "walkSpeed>20", "manaRegen<0", "lifeSteal=5" and "spellDamage=10..30"
func parseIdentificationFlag(arg string) (models.IdentificationFilter, error) {
	idx := strings.IndexAny(arg, "<>=")
	if idx <= 0 {
		return models.IdentificationFilter{}, fmt.Errorf("identification %q: want name>v, name<v, name=v or name=v..w", arg)
	}

	filter := models.IdentificationFilter{Name: strings.TrimSpace(arg[:idx])}
	rest := arg[idx+1:]

	switch arg[idx] {
	case '>':
		filter.Operator = models.OpGreater
	case '<':
		filter.Operator = models.OpLess
	case '=':
		filter.Operator = models.OpEqual
		if lo, hi, ok := strings.Cut(rest, ".."); ok {
			filter.Operator = models.OpRange
			upper, err := strconv.ParseFloat(hi, 64)
			if err != nil {
				return filter, fmt.Errorf("identification %q: %w", arg, err)
			}
			filter.MaxValue = &upper
			rest = lo
		}
	}

	value, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return filter, fmt.Errorf("identification %q: %w", arg, err)
	}
	filter.Value = value
	return filter, nil
}

func loadDump(path string) ([]models.Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	items, err := models.DecodeCatalog(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeTable(out io.Writer, page query.Page) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tLEVEL\tRARITY\tDPS")
	for i := range page.Items {
		it := &page.Items[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.DisplayName, subTypeOrType(it), optionalInt(it.Requirements.Level), it.RarityOrUnknown(), optionalFloat(it.AverageDPS))
	}
	fmt.Fprintf(w, "\n%d of %d matching items (offset %d)\n", len(page.Items), page.Total, page.Offset)
	return w.Flush()
}

func subTypeOrType(it *models.Item) string {
	if sub := it.SubType(); sub != "" {
		return sub
	}
	return it.Type
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 0, 64)
}
