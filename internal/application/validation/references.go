package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
)

const (
	missingInBudgetFile = "missing_in_budget.txt"
	missingInGroupsFile = "missing_in_drug_groups.txt"
)

// firstSheet reads the first worksheet of a workbook
func firstSheet(path string) (*workbook.Sheet, error) {
	book, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	names := book.SheetNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	return book.ReadSheet(names[0])
}

// loadReferences reads the budget difference table and the drug groups
func (v *Validator) loadReferences() error {
	v.log.Info("Loading budget difference and drug groups...")

	budgetSheet, err := firstSheet(v.opts.Paths.BudgetDifference)
	if err != nil {
		return err
	}
	cols := v.opts.Columns
	budget := sales.NewBudget()
	counts := make(map[string]int)
	var budgetOrder []string
	for _, row := range budgetSheet.Rows {
		drug := workbook.Text(row.Cell(cols.BudgetDrug))
		if drug == "" {
			continue
		}
		if counts[drug] == 0 {
			budgetOrder = append(budgetOrder, drug)
		}
		counts[drug]++
		budget.Put(sales.BudgetEntry{
			Drug:      drug,
			Vtorichka: sales.ParseMultiplier(workbook.Text(row.Cell(cols.BudgetVtorichka))),
			ByRegion:  sales.ParseMultiplier(workbook.Text(row.Cell(cols.BudgetByRegion))),
		})
	}

	groupsSheet, err := firstSheet(v.opts.Paths.DrugGroups)
	if err != nil {
		return err
	}
	var groups []sales.DrugGroup
	for c, header := range groupsSheet.Header {
		g := sales.DrugGroup{Name: strings.TrimSpace(header)}
		for _, row := range groupsSheet.Rows {
			if p := workbook.Text(row.Cell(c + 1)); p != "" {
				g.Products = append(g.Products, p)
			}
		}
		if g.Name == "" && len(g.Products) == 0 {
			continue
		}
		groups = append(groups, g)
	}
	drugGroups := sales.NewDrugGroups(groups)

	var details []string
	var budgetDupes []string
	for _, d := range budgetOrder {
		if counts[d] > 1 {
			budgetDupes = append(budgetDupes, "- "+d)
		}
	}
	if len(budgetDupes) > 0 {
		details = append(details,
			"❌ Duplicate drugs found in budget difference file.",
			fmt.Sprintf("(%s):", filepath.Base(v.opts.Paths.BudgetDifference)))
		details = append(details, budgetDupes...)
	}
	if dupes := drugGroups.Duplicates(); len(dupes) > 0 {
		if len(details) > 0 {
			details = append(details, "")
		}
		details = append(details,
			"❌ Duplicate drugs found in drug groups file.",
			fmt.Sprintf("(%s):", filepath.Base(v.opts.Paths.DrugGroups)))
		for _, d := range dupes {
			details = append(details, "- "+d)
		}
	}
	if len(details) > 0 {
		return shared.NewExpectedError(shared.ErrCodeReferenceDuplicates, "Budget difference or drug groups has duplicates").
			WithDetails(details...).
			WithFix(
				"Open the Excel files listed above and locate the duplicate drug names.",
				"Ensure each drug appears only once in each file: merge budget rows of the same drug and keep each drug in a single group.",
				"Check for subtle differences in spelling, casing or spacing that may cause duplicates.",
				"Save the updated files.",
				"Run again to continue processing.",
			).
			WithFooter("The run cannot proceed until the duplicates are removed.")
	}

	v.budget = budget
	v.groups = drugGroups
	v.log.Info("Budget difference and drug groups loaded successfully")
	return nil
}

// validateReferences makes sure every optovik drug has a budget row and a group
func (v *Validator) validateReferences() error {
	v.log.Info("Validating budget difference and drug groups...")

	drugs := make(map[string]struct{})
	for _, o := range v.optoviks {
		for _, r := range o.Records {
			if r.Drug != "" {
				drugs[r.Drug] = struct{}{}
			}
		}
	}

	var missingBudget, missingGroups []string
	for d := range drugs {
		if _, ok := v.budget.Get(d); !ok {
			missingBudget = append(missingBudget, d)
		}
		if _, ok := v.groups.GroupOf(d); !ok {
			missingGroups = append(missingGroups, d)
		}
	}
	if len(missingBudget) == 0 && len(missingGroups) == 0 {
		v.log.Info("Budget difference and drug groups validated successfully")
		return nil
	}
	sort.Strings(missingBudget)
	sort.Strings(missingGroups)

	dir := v.opts.Paths.UnmatchedDrugsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	budgetFile := filepath.Join(dir, missingInBudgetFile)
	groupsFile := filepath.Join(dir, missingInGroupsFile)
	if err := os.WriteFile(budgetFile, []byte(strings.Join(missingBudget, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", budgetFile, err)
	}
	if err := os.WriteFile(groupsFile, []byte(strings.Join(missingGroups, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", groupsFile, err)
	}

	ee := shared.NewExpectedError(shared.ErrCodeReferenceMissing, "Budget difference or drug groups has missing drugs")
	if len(missingBudget) > 0 {
		ee.WithDetails(
			fmt.Sprintf("❌ %d drugs missing in %s.", len(missingBudget), filepath.Base(v.opts.Paths.BudgetDifference)),
			"The list of missing drugs exported to this txt file: "+budgetFile,
		)
	}
	if len(missingGroups) > 0 {
		ee.WithDetails(
			fmt.Sprintf("❌ %d drugs missing in %s.", len(missingGroups), filepath.Base(v.opts.Paths.DrugGroups)),
			"The list of missing drugs exported to this txt file: "+groupsFile,
		)
	}
	return ee.WithFix(
		"Open the text files listed above and review the missing drug names.",
		"Add the missing drugs to the budget difference file or the drug groups file.",
		"Double-check for typos, inconsistent casing or spacing issues.",
		"Save the updated files.",
		"Run again to continue processing.",
	).WithFooter("The run cannot proceed until all missing drugs are correctly added.")
}
