package validation

import (
	"fmt"
	"strings"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

// loadDictionaries reads the dictionary sheets of the loaded optoviks
func (v *Validator) loadDictionaries() error {
	v.log.Info("Loading drug dictionaries...")

	book, err := workbook.Open(v.opts.Paths.Dictionary)
	if err != nil {
		return err
	}
	defer book.Close()

	cols := v.opts.Columns
	for _, name := range book.SheetNames() {
		if _, ok := v.optoviks[name]; !ok {
			continue
		}
		sheet, err := book.ReadSheet(name)
		if err != nil {
			return err
		}
		dict := &sales.DrugDictionary{Sheet: name}
		for _, row := range sheet.Rows {
			if row.Empty() {
				continue
			}
			dict.Entries = append(dict.Entries, sales.DictionaryEntry{
				Row:      row.Number,
				Customer: workbook.Text(row.Cell(cols.DictCustomer)),
				Standard: workbook.Text(row.Cell(cols.DictStandard)),
			})
		}
		v.dictSheets = append(v.dictSheets, name)
		v.dictionaries[name] = dict
	}
	v.log.Info("Loaded drug dictionaries", zap.Int("dictionaries", len(v.dictionaries)))
	return nil
}

func (v *Validator) validateDictionaries() error {
	v.log.Info("Validating drug dictionaries...")

	var missingNames, missingStandards, duplicates []string
	for _, name := range v.dictSheets {
		p := v.dictionaries[name].Inspect()
		if p.MissingCustomer > 0 {
			missingNames = append(missingNames, fmt.Sprintf("  - %s: %d empty/missing customer drug names", name, p.MissingCustomer))
		}
		if p.MissingStandard > 0 {
			missingStandards = append(missingStandards, fmt.Sprintf("  - %s: %d entries have a customer drug name but no standard mapping", name, p.MissingStandard))
		}
		if len(p.Duplicates) > 0 {
			duplicates = append(duplicates, fmt.Sprintf("  - %s: Duplicates found for - %s", name, strings.Join(p.Duplicates, ", ")))
		}
	}
	if len(missingNames)+len(missingStandards)+len(duplicates) == 0 {
		v.log.Info("Drug dictionaries validated successfully")
		return nil
	}

	ee := shared.NewExpectedError(shared.ErrCodeDictionary, "Drug name dictionary validation failed")
	if len(missingNames) > 0 {
		ee.WithDetails("❌ MISSING CUSTOMER DRUG NAMES:")
		ee.WithDetails(missingNames...)
		ee.WithFix("Fill empty cells in the customer drug names column.")
	}
	if len(missingStandards) > 0 {
		ee.WithDetails("❌ MISSING STANDARD NAMES:")
		ee.WithDetails(missingStandards...)
		ee.WithFix("Add standard names for customer entries that have drug names.")
	}
	if len(duplicates) > 0 {
		ee.WithDetails("❌ DUPLICATE CUSTOMER DRUG NAMES:")
		ee.WithDetails(duplicates...)
		ee.WithFix("Remove duplicate customer drug names or ensure consistent standard name mappings.")
	}
	return ee.WithFooter("Fix these issues in the dictionary file and try again.")
}

// validateUnmappedDrugs appends drugs without a standard name to their
// dictionary sheet so the operator only has to fill in the standard names
func (v *Validator) validateUnmappedDrugs() error {
	v.log.Info("Validating unmapped drugs...")

	unmapped := make(map[string][]string)
	for _, name := range v.dictSheets {
		if drugs := v.dictionaries[name].Unmapped(v.optoviks[name]); len(drugs) > 0 {
			unmapped[name] = drugs
		}
	}
	if len(unmapped) == 0 {
		v.log.Info("No unmapped drugs found")
		return nil
	}

	ee := shared.NewExpectedError(shared.ErrCodeUnmappedDrugs, "Unmapped drugs found in dictionary")
	for _, name := range v.dictSheets {
		if drugs, ok := unmapped[name]; ok {
			ee.WithDetails(fmt.Sprintf("➖ Sheet: %s %d unmapped drugs.", name, len(drugs)))
		}
	}

	if err := v.appendUnmapped(unmapped); err != nil {
		v.log.Warn("Failed to write unmapped drugs to dictionary", zap.Error(err))
		ee.WithFix(
			"❗ Failed to write unmapped drugs to the dictionary. You have to find the missing drugs yourself.",
			"Add standard (mapped) names for customer-entered drug names in the dictionary.",
		)
	} else {
		ee.WithFix(
			"Unmapped drug names were already added to the customer drug names column.",
			"Add standard (mapped) names for customer-entered drug names in the dictionary.",
		)
	}
	return ee.WithFooter("Fix these issues in the dictionary file and try again.")
}

func (v *Validator) appendUnmapped(unmapped map[string][]string) error {
	book, err := workbook.Open(v.opts.Paths.Dictionary)
	if err != nil {
		return err
	}
	defer book.Close()

	f := book.File()
	col := v.opts.Columns.DictCustomer
	for _, name := range v.dictSheets {
		drugs, ok := unmapped[name]
		if !ok {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return err
		}
		start := len(rows) + 2
		for i, drug := range drugs {
			if err := f.SetCellValue(name, workbook.CellName(col, start+i), drug); err != nil {
				return err
			}
		}
	}
	return book.Save()
}

func (v *Validator) standardize() error {
	v.log.Info("Standardizing drug names...")
	for _, name := range v.sheets {
		v.dictionaries[name].Standardize(v.optoviks[name])
	}
	v.log.Info("Drug names standardized successfully")
	return nil
}
