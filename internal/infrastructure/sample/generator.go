// Package sample generates a consistent set of demo input workbooks and
// mapping files for trying the pipeline without real distributor data.
package sample

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
)

// Paths are the files the generator writes
type Paths struct {
	Optoviks         string
	Dictionary       string
	BudgetDifference string
	DrugGroups       string
	RegionMapping    string
	TerritoryMapping string
}

// Options sizes the generated data
type Options struct {
	// Seed makes the output reproducible; 0 picks a random seed
	Seed     uint64
	Optoviks int
	Clients  int
	Rows     int
	// Month is the sales month of the generated dates
	Month time.Time
	// Reserve marks roughly one row in twenty with this reserve value when set
	Reserve string
	Labels  sales.Labels
}

type territoryInfo struct {
	region     string
	subregion  string
	name       string
	variations []string
}

type regionInfo struct {
	name    string
	aliases []string
}

var regions = []regionInfo{
	{"Ташкент", []string{"Ташкент", "г. Ташкент", "Toshkent"}},
	{"Самарканд", []string{"Самарканд", "Samarqand"}},
	{"Бухара", []string{"Бухара", "Buxoro"}},
	{"Фергана", []string{"Фергана", "Farg'ona"}},
}

var territories = []territoryInfo{
	{"Ташкент", "Ташкент город", "Чиланзар", []string{"Чиланзар", "Chilonzor"}},
	{"Ташкент", "Ташкент город", "Юнусабад", []string{"Юнусабад", "Yunusobod"}},
	{"Ташкент", "Ташкент город", "Мирзо Улугбек", []string{"Мирзо Улугбек", "Mirzo Ulugbek"}},
	{"Ташкент", "Ташкентская область", "Чирчик", []string{"Чирчик", "Chirchiq"}},
	{"Самарканд", "Самарканд", "Ургут", []string{"Ургут", "Urgut"}},
	{"Самарканд", "Самарканд", "Каттакурган", []string{"Каттакурган", "Kattaqurgon"}},
	{"Бухара", "Бухара", "Гиждуван", []string{"Гиждуван", "Gijduvon"}},
	{"Бухара", "Бухара", "Каган", []string{"Каган", "Kogon"}},
	{"Фергана", "Фергана", "Маргилан", []string{"Маргилан", "Margilon"}},
	{"Фергана", "Фергана", "Коканд", []string{"Коканд", "Qoqon"}},
}

type groupInfo struct {
	name  string
	drugs []string
}

var groups = []groupInfo{
	{"Обезболивающие", []string{"Аспирин", "Нурофен", "Парацетамол"}},
	{"Витамины", []string{"Витамин C", "Компливит"}},
	{"Дерматология", []string{"Бепантен", "Пантенол"}},
}

type client struct {
	name    string
	region  string
	address string
}

// Generator writes demo inputs
type Generator struct {
	faker *gofakeit.Faker
	opts  Options
}

// NewGenerator creates a generator, filling unset sizes with small defaults
func NewGenerator(opts Options) *Generator {
	if opts.Optoviks <= 0 {
		opts.Optoviks = 3
	}
	if opts.Clients <= 0 {
		opts.Clients = 40
	}
	if opts.Rows <= 0 {
		opts.Rows = 200
	}
	if opts.Month.IsZero() {
		now := time.Now()
		opts.Month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.Labels.Drug == "" {
		opts.Labels = sales.DefaultLabels()
	}
	return &Generator{faker: gofakeit.New(opts.Seed), opts: opts}
}

// Write generates every input file
func (g *Generator) Write(paths Paths) error {
	names := g.optovikNames()
	clients := g.clients()

	optovikSheets := make([]sheet, 0, len(names))
	dictSheets := make([]sheet, 0, len(names))
	for _, name := range names {
		aliases := g.drugAliases()
		optovikSheets = append(optovikSheets, sheet{name, g.optovikRows(clients, aliases)})
		dictSheets = append(dictSheets, sheet{name, dictionaryRows(aliases)})
	}

	steps := []struct {
		what string
		run  func() error
	}{
		{"optoviks", func() error { return writeBook(paths.Optoviks, optovikSheets) }},
		{"dictionary", func() error { return writeBook(paths.Dictionary, dictSheets) }},
		{"budget difference", func() error {
			return writeBook(paths.BudgetDifference, []sheet{{"Budget", g.budgetRows()}})
		}},
		{"drug groups", func() error { return writeBook(paths.DrugGroups, []sheet{{"Groups", groupRows()}}) }},
		{"region mapping", func() error { return writeJSON(paths.RegionMapping, regionMapping()) }},
		{"territory mapping", func() error { return writeJSON(paths.TerritoryMapping, territoryMapping()) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("failed to write %s: %w", step.what, err)
		}
	}
	return nil
}

func (g *Generator) optovikNames() []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, g.opts.Optoviks)
	for len(names) < g.opts.Optoviks {
		name := workbook.SanitizeSheetName(strings.Fields(g.faker.Company())[0] + " Pharm")
		if _, ok := seen[name]; ok {
			name = fmt.Sprintf("%s %d", name, len(names)+1)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// clients have one fixed region spelling and address each, so validation sees no conflicts
func (g *Generator) clients() []client {
	seen := make(map[string]struct{})
	out := make([]client, 0, g.opts.Clients)
	for len(out) < g.opts.Clients {
		name := fmt.Sprintf("Apteka %s %d", g.faker.LastName(), g.faker.Number(1, 99))
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		t := territories[g.faker.Number(0, len(territories)-1)]
		out = append(out, client{
			name:    name,
			region:  pick(g.faker, aliasesOf(t.region)),
			address: fmt.Sprintf("%s, %s", pick(g.faker, t.variations), g.faker.Street()),
		})
	}
	return out
}

// drugAliases gives each standard drug the spelling one optovik uses
func (g *Generator) drugAliases() map[string]string {
	styles := []func(string) string{
		func(s string) string { return s },
		strings.ToUpper,
		strings.ToLower,
		func(s string) string { return s + " " + fmt.Sprint(g.faker.RandomInt([]int{50, 100, 200, 500})) },
	}
	out := make(map[string]string)
	for _, grp := range groups {
		for _, drug := range grp.drugs {
			out[drug] = styles[g.faker.Number(0, len(styles)-1)](drug)
		}
	}
	return out
}

func (g *Generator) optovikRows(clients []client, aliases map[string]string) [][]any {
	l := g.opts.Labels
	rows := [][]any{{l.Drug, l.Client, l.Region, l.Territory, l.Quantity, l.Price, l.Reserve, l.Date}}
	days := g.opts.Month.AddDate(0, 1, -1).Day()
	for i := 0; i < g.opts.Rows; i++ {
		c := clients[g.faker.Number(0, len(clients)-1)]
		grp := groups[g.faker.Number(0, len(groups)-1)]
		drug := pick(g.faker, grp.drugs)
		reserve := ""
		if g.opts.Reserve != "" && g.faker.Number(1, 20) == 1 {
			reserve = g.opts.Reserve
		}
		date := g.opts.Month.AddDate(0, 0, g.faker.Number(0, days-1))
		rows = append(rows, []any{
			aliases[drug],
			c.name,
			c.region,
			c.address,
			g.faker.Number(1, 40),
			g.faker.Price(5000, 90000),
			reserve,
			date.Format("02.01.2006"),
		})
	}
	return rows
}

func dictionaryRows(aliases map[string]string) [][]any {
	rows := [][]any{{"Customer", "Standard"}}
	for _, grp := range groups {
		for _, drug := range grp.drugs {
			rows = append(rows, []any{aliases[drug], drug})
		}
	}
	return rows
}

func (g *Generator) budgetRows() [][]any {
	rows := [][]any{{"Drug", "Vtorichka", "By region"}}
	for _, grp := range groups {
		for _, drug := range grp.drugs {
			rows = append(rows, []any{
				drug,
				float64(g.faker.Number(5, 20)) / 100,
				g.faker.Number(100, 900),
			})
		}
	}
	return rows
}

func groupRows() [][]any {
	header := make([]any, len(groups))
	depth := 0
	for i, grp := range groups {
		header[i] = grp.name
		depth = max(depth, len(grp.drugs))
	}
	rows := [][]any{header}
	for r := 0; r < depth; r++ {
		row := make([]any, len(groups))
		for i, grp := range groups {
			if r < len(grp.drugs) {
				row[i] = grp.drugs[r]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func regionMapping() map[string][]string {
	out := make(map[string][]string, len(regions))
	for _, r := range regions {
		out[r.name] = r.aliases
	}
	return out
}

func territoryMapping() map[string]map[string]map[string][][]string {
	out := make(map[string]map[string]map[string][][]string)
	for _, t := range territories {
		if out[t.region] == nil {
			out[t.region] = make(map[string]map[string][][]string)
		}
		if out[t.region][t.subregion] == nil {
			out[t.region][t.subregion] = make(map[string][][]string)
		}
		out[t.region][t.subregion][t.name] = [][]string{t.variations}
	}
	return out
}

func aliasesOf(region string) []string {
	for _, r := range regions {
		if r.name == region {
			return r.aliases
		}
	}
	return []string{region}
}

func pick(f *gofakeit.Faker, values []string) string {
	return values[f.Number(0, len(values)-1)]
}

type sheet struct {
	name string
	rows [][]any
}

func writeBook(path string, sheets []sheet) error {
	f, err := workbook.NewFile(sheets[0].name)
	if err != nil {
		return err
	}
	defer f.Close()
	for i, s := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(s.name); err != nil {
				return err
			}
		}
		for r, row := range s.rows {
			if err := f.SetSheetRow(s.name, workbook.CellName(1, r+1), &row); err != nil {
				return err
			}
		}
	}
	return workbook.SaveAs(f, path)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
