package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

func (v *Validator) loadOptoviks() error {
	v.log.Info("Loading optoviks data...")

	book, err := workbook.Open(v.opts.Paths.Optoviks)
	if err != nil {
		return err
	}
	defer book.Close()

	dict, err := workbook.Open(v.opts.Paths.Dictionary)
	if err != nil {
		return err
	}
	dictSheets := dict.SheetNames()
	_ = dict.Close()

	cols := v.opts.Columns
	labels := v.opts.Labels
	rules := []workbook.FieldRule{
		workbook.Column(cols.Drug, labels.Drug).Required().Build(),
		workbook.Column(cols.Client, labels.Client).Required().Build(),
	}
	if v.opts.ValidateDates {
		rules = append(rules, workbook.Column(cols.Date, labels.Date).Required().Build())
	}
	rules = append(rules,
		workbook.Column(cols.Quantity, labels.Quantity).Decimal().Build(),
		workbook.Column(cols.Price, labels.Price).Decimal().Build(),
	)
	errs := workbook.NewErrorCollection(v.opts.MaxErrors)
	validator := workbook.NewFieldValidator(rules, errs)

	known := make(map[string]struct{}, len(dictSheets))
	for _, s := range dictSheets {
		known[s] = struct{}{}
	}

	sheets := make(map[string]*workbook.Sheet)
	for _, name := range book.SheetNames() {
		sheet, err := book.ReadSheet(name)
		if err != nil {
			return err
		}
		sheets[name] = sheet
		v.sheets = append(v.sheets, name)

		if n := sheet.ColumnCount(); n != cols.Count {
			errs.AddSheetError(name, workbook.ErrCodeColumnCount,
				fmt.Sprintf("❌ Sheet '%s' has %d columns, but exactly %d columns are required.", name, n, cols.Count))
		}
		for _, row := range sheet.Rows {
			if row.Empty() {
				continue
			}
			validator.ValidateRow(name, row)
		}
		if _, ok := known[name]; !ok {
			errs.AddSheetError(name, workbook.ErrCodeUnknownSheet,
				fmt.Sprintf("❌ The sheet '%s' exists in the Optoviks file but was not found in the Drug Dictionary Excel file.", name))
		}
	}

	if errs.HasErrors() {
		return v.sheetValidationError(errs, rules, dictSheets)
	}

	for _, name := range v.sheets {
		v.optoviks[name] = v.toOptovik(sheets[name])
	}
	v.log.Info("Loaded optovik sheets", zap.Int("sheets", len(v.sheets)))
	return nil
}

func (v *Validator) toOptovik(sheet *workbook.Sheet) *sales.Optovik {
	cols := v.opts.Columns
	o := &sales.Optovik{Name: sheet.Name}
	for _, row := range sheet.Rows {
		if row.Empty() {
			continue
		}
		qty, _ := workbook.ParseDecimal(row.Cell(cols.Quantity))
		price, _ := workbook.ParseDecimal(row.Cell(cols.Price))
		o.Records = append(o.Records, sales.Record{
			Drug:       workbook.Text(row.Cell(cols.Drug)),
			Client:     workbook.Text(row.Cell(cols.Client)),
			Region:     workbook.Text(row.Cell(cols.Region)),
			Territory:  workbook.Text(row.Cell(cols.Territory)),
			Reserve:    workbook.Text(row.Cell(cols.Reserve)),
			Quantity:   qty,
			TotalSales: price.Mul(qty),
			Date:       workbook.ParseDate(row.Cell(cols.Date), cols.DateLayout),
			Row:        row.Number,
		})
	}
	return o
}

func (v *Validator) sheetValidationError(errs *workbook.ErrorCollection, rules []workbook.FieldRule, dictSheets []string) error {
	var columnCount, mandatory, types, unknown []string
	for _, sheet := range v.sheets {
		for _, e := range errs.Errors() {
			if e.Sheet != sheet {
				continue
			}
			switch e.Code {
			case workbook.ErrCodeColumnCount:
				columnCount = append(columnCount, e.Message)
			case workbook.ErrCodeUnknownSheet:
				unknown = append(unknown, e.Message)
			}
		}
		required := errs.ColumnCounts(sheet, workbook.ErrCodeRequiredField)
		invalid := errs.ColumnCounts(sheet, workbook.ErrCodeInvalidType)
		for _, rule := range rules {
			if n := required[rule.Name]; n > 0 {
				mandatory = append(mandatory,
					fmt.Sprintf("❌ Sheet '%s': '%s' column contains %d missing values.", sheet, rule.Name, n))
			}
			if n := invalid[rule.Name]; n > 0 {
				types = append(types,
					fmt.Sprintf("❌ Sheet '%s': '%s' column contains %d non-numeric values.", sheet, rule.Name, n))
			}
		}
	}

	ee := shared.NewExpectedError(shared.ErrCodeSheetValidation, "Data validation failed")
	if len(columnCount) > 0 {
		ee.WithDetails(columnCount...)
		ee.WithDetails(fixBlock(
			"Open the sheets in your optoviks file.",
			fmt.Sprintf("Check the number of columns: you should have exactly %d columns.", v.opts.Columns.Count),
			"Remove any extra or unintended columns (empty, duplicate or helper columns).",
			"Make sure there are no hidden columns accidentally added.",
			"Save the corrected file.",
		)...)
	}
	if len(mandatory) > 0 {
		labels := v.opts.Labels
		locate := fmt.Sprintf("Locate the rows where the '%s' or '%s' columns are empty.", labels.Client, labels.Drug)
		steps := []string{
			"Open the sheets in your optoviks file.",
			locate,
			"Fill in the missing values with the correct data, or remove the rows if they are not needed.",
		}
		if v.opts.ValidateDates {
			steps[1] = fmt.Sprintf("Locate the rows where the '%s', '%s' or '%s' columns are empty.", labels.Client, labels.Drug, labels.Date)
			steps = append(steps, "Enter every missing date in the 'dd.mm.yyyy' format.")
		}
		steps = append(steps,
			"Make sure there are no unintended rows with stray values at the bottom of the sheet.",
			"Save the Excel file.",
		)
		ee.WithDetails(mandatory...)
		ee.WithDetails(fixBlock(steps...)...)
	}
	if len(types) > 0 {
		ee.WithDetails(types...)
		ee.WithDetails(fixBlock(
			fmt.Sprintf("Make sure '%s' and '%s' hold plain numbers.", v.opts.Labels.Quantity, v.opts.Labels.Price),
			"Remove text, units or currency signs typed into those cells.",
			"Save the Excel file.",
		)...)
	}
	if len(unknown) > 0 {
		ee.WithDetails(unknown...)
		ee.WithDetails("", fmt.Sprintf("📄 Available sheets in Drug Dictionary: %s", strings.Join(dictSheets, ", ")))
		ee.WithDetails(fixBlock(
			"Open the Drug Dictionary Excel file.",
			"Make sure that every sheet used in the Optoviks file exists in the Drug Dictionary file.",
			"Sheet names must match exactly, including case and spacing.",
			"Check for capitalization differences, extra spaces, invisible characters and typos.",
			"Rename or add the missing sheets to the Drug Dictionary file.",
			"Save the file and run again.",
		)...)
	}
	return ee.WithFooter("The run will not continue until the errors are corrected.")
}

type clientRow struct {
	optovik   string
	client    string
	region    string
	territory string
}

// checkDuplicateClients rejects clients recorded with more than one region or territory
func (v *Validator) checkDuplicateClients() error {
	v.log.Info("Validating client region duplicates...")

	regions := make(map[string]map[string]struct{})
	territories := make(map[string]map[string]struct{})
	var all []clientRow
	for _, name := range v.sheets {
		for _, r := range v.optoviks[name].Records {
			if regions[r.Client] == nil {
				regions[r.Client] = make(map[string]struct{})
				territories[r.Client] = make(map[string]struct{})
			}
			regions[r.Client][r.Region] = struct{}{}
			territories[r.Client][r.Territory] = struct{}{}
			all = append(all, clientRow{name, r.Client, r.Region, r.Territory})
		}
	}

	seen := make(map[clientRow]struct{})
	var conflicts []clientRow
	for _, row := range all {
		if len(regions[row.client]) < 2 && len(territories[row.client]) < 2 {
			continue
		}
		key := clientRow{client: row.client, region: row.region, territory: row.territory}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		conflicts = append(conflicts, row)
	}
	if len(conflicts) == 0 {
		v.log.Info("Client region validation completed successfully")
		return nil
	}

	sort.SliceStable(conflicts, func(i, j int) bool { return conflicts[i].client < conflicts[j].client })
	if err := v.writeDuplicateClients(conflicts); err != nil {
		return err
	}

	return shared.NewExpectedError(shared.ErrCodeDuplicateClients, "Data validation failed").
		WithDetails(
			"❌ Duplicate Clients with Conflicting Regions or Territories",
			"One or more clients (drug store names) appear multiple times with different Region or Territory values.",
			"",
			"→ Please review and correct the entries in the Excel file:",
			v.opts.Paths.DuplicateClients,
		).
		WithFix(
			"Ensure each client appears with only one Region and one Territory.",
			"Correct inconsistencies in the original input files (spelling, spacing, casing).",
			"Run again after fixing the data.",
		).
		WithFooter("Tip: use Excel filters or conditional formatting to spot differences easily.")
}

func (v *Validator) writeDuplicateClients(rows []clientRow) error {
	f, err := workbook.NewFile("Sheet1")
	if err != nil {
		return err
	}
	defer f.Close()

	labels := v.opts.Labels
	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, []any{r.optovik, r.client, r.region, r.territory})
	}
	if err := workbook.WriteTable(f, "Sheet1", []string{"Optoviks", labels.Client, labels.Region, labels.Territory}, data); err != nil {
		return err
	}
	return workbook.SaveAs(f, v.opts.Paths.DuplicateClients)
}
