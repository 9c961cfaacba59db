package pivot

// SheetKind tells the renderer which budget multiplier and totals apply
type SheetKind int

const (
	SheetVtorichka SheetKind = iota
	SheetReserve
	SheetRegion
	SheetTerritory
)

// Block is one optovik section of a sheet: a header row labelled with the
// optovik name followed by its rows
type Block struct {
	Label string
	Rows  []Row
}

// Sheet is the content planned for one worksheet
type Sheet struct {
	Name   string
	Kind   SheetKind
	Blocks []Block
	// Drugs is the union of drug columns in block order
	Drugs []string
}

// RowCount returns the number of data rows including block header rows
func (s *Sheet) RowCount() int {
	n := 0
	for _, b := range s.Blocks {
		n += 1 + len(b.Rows)
	}
	return n
}

// Plan holds every sheet of the vtorichka workbook and the per-region files
type Plan struct {
	Vtorichka *Sheet
	Reserves  []*Sheet
	Regions   []*Sheet
	// Territories holds the territory sheets of each region, keyed by region name
	Territories map[string][]*Sheet
}

// WorkbookSheets returns the vtorichka workbook sheets in write order
func (p *Plan) WorkbookSheets() []*Sheet {
	out := []*Sheet{p.Vtorichka}
	out = append(out, p.Reserves...)
	return append(out, p.Regions...)
}

type drugUnion struct {
	seen  map[string]struct{}
	drugs []string
}

func (u *drugUnion) add(drugs []string) {
	if u.seen == nil {
		u.seen = make(map[string]struct{})
	}
	for _, d := range drugs {
		if _, ok := u.seen[d]; ok {
			continue
		}
		u.seen[d] = struct{}{}
		u.drugs = append(u.drugs, d)
	}
}

type sheetBuilder struct {
	sheet *Sheet
	union drugUnion
}

func (b *sheetBuilder) add(t *Table, rows []Row) {
	b.sheet.Blocks = append(b.sheet.Blocks, Block{Label: t.Optovik, Rows: rows})
	b.union.add(t.Drugs)
	b.sheet.Drugs = b.union.drugs
}

// Split lays the optovik tables out across the vtorichka sheet, one sheet per
// reserve optovik, one sheet per region and one sheet per territory.
// Regions and territories keep their first-appearance order.
func Split(tables []*Table, vtorichkaName string) *Plan {
	tables = nonEmpty(tables)
	vt := &sheetBuilder{sheet: &Sheet{Name: vtorichkaName, Kind: SheetVtorichka}}
	for _, t := range tables {
		vt.add(t, t.Rows)
	}

	plan := &Plan{Vtorichka: vt.sheet, Territories: make(map[string][]*Sheet)}
	for _, t := range tables {
		if !t.Reserve {
			continue
		}
		plan.Reserves = append(plan.Reserves, &Sheet{
			Name:   t.Optovik,
			Kind:   SheetReserve,
			Blocks: []Block{{Label: t.Optovik, Rows: t.Rows}},
			Drugs:  vt.sheet.Drugs,
		})
	}

	var regionOrder []string
	regions := make(map[string]*sheetBuilder)
	territoryOrder := make(map[string][]string)
	territories := make(map[string]map[string]*sheetBuilder)

	for _, t := range tables {
		if t.Reserve {
			continue
		}
		for _, region := range uniqueValues(t.Rows, func(k Key) string { return k.Region }) {
			regionRows := t.rows(func(k Key) bool { return k.Region == region })
			rb, ok := regions[region]
			if !ok {
				rb = &sheetBuilder{sheet: &Sheet{Name: region, Kind: SheetRegion}}
				regions[region] = rb
				territories[region] = make(map[string]*sheetBuilder)
				regionOrder = append(regionOrder, region)
			}
			rb.add(t, regionRows)

			for _, terr := range uniqueValues(regionRows, func(k Key) string { return k.Territory }) {
				terrRows := t.rows(func(k Key) bool { return k.Region == region && k.Territory == terr })
				tb, ok := territories[region][terr]
				if !ok {
					tb = &sheetBuilder{sheet: &Sheet{Name: terr, Kind: SheetTerritory}}
					territories[region][terr] = tb
					territoryOrder[region] = append(territoryOrder[region], terr)
				}
				tb.add(t, terrRows)
			}
		}
	}

	for _, region := range regionOrder {
		plan.Regions = append(plan.Regions, regions[region].sheet)
		for _, terr := range territoryOrder[region] {
			plan.Territories[region] = append(plan.Territories[region], territories[region][terr].sheet)
		}
	}
	return plan
}

// nonEmpty drops optoviks left without rows, e.g. after every row moved to a reserve
func nonEmpty(tables []*Table) []*Table {
	out := make([]*Table, 0, len(tables))
	for _, t := range tables {
		if len(t.Rows) > 0 {
			out = append(out, t)
		}
	}
	return out
}
