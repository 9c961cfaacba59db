// Package validation loads the optovik workbook and its reference files,
// rejects inputs the operator has to fix, and standardizes drug names.
package validation

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

// Paths locates the input workbooks and the files written for the operator
type Paths struct {
	Optoviks          string
	Dictionary        string
	BudgetDifference  string
	DrugGroups        string
	DuplicateClients  string
	UnmatchedDrugsDir string
}

// Options configures a validation run
type Options struct {
	Paths         Paths
	Columns       sales.ColumnMap
	Labels        sales.Labels
	ReserveValues []string
	// ValidateDates makes the date column mandatory, as the warehouse load needs it
	ValidateDates bool
	// MaxErrors caps the row errors kept for reporting
	MaxErrors int
}

// Prepared is the validated, standardized input of the report and load stages
type Prepared struct {
	Dataset      *sales.Dataset
	Dictionaries map[string]*sales.DrugDictionary
	Budget       *sales.Budget
	Groups       *sales.DrugGroups
}

// Validator runs the validation steps in order; each step may stop the run
// with a shared.ExpectedError describing what to fix.
type Validator struct {
	opts Options
	log  *zap.Logger

	// optoviks in workbook sheet order
	sheets       []string
	optoviks     map[string]*sales.Optovik
	dictSheets   []string
	dictionaries map[string]*sales.DrugDictionary
	budget       *sales.Budget
	groups       *sales.DrugGroups
}

// NewValidator creates a validator
func NewValidator(opts Options, log *zap.Logger) *Validator {
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 500
	}
	return &Validator{
		opts:         opts,
		log:          log.Named("validation"),
		optoviks:     make(map[string]*sales.Optovik),
		dictionaries: make(map[string]*sales.DrugDictionary),
	}
}

// ProcessAll runs every step and returns the prepared dataset
func (v *Validator) ProcessAll(ctx context.Context) (*Prepared, error) {
	steps := []struct {
		name string
		run  func() error
	}{
		{"required files", v.checkRequiredFiles},
		{"load optoviks", v.loadOptoviks},
		{"duplicate clients", v.checkDuplicateClients},
		{"load dictionaries", v.loadDictionaries},
		{"validate dictionaries", v.validateDictionaries},
		{"unmapped drugs", v.validateUnmappedDrugs},
		{"standardize", v.standardize},
		{"load references", v.loadReferences},
		{"validate references", v.validateReferences},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.run(); err != nil {
			if shared.IsExpected(err) {
				return nil, err
			}
			return nil, fmt.Errorf("validation step %q: %w", step.name, err)
		}
	}

	dataset := v.splitReserves()
	return &Prepared{
		Dataset:      dataset,
		Dictionaries: v.dictionaries,
		Budget:       v.budget,
		Groups:       v.groups,
	}, nil
}

func (v *Validator) checkRequiredFiles() error {
	required := []struct {
		name string
		path string
	}{
		{"Optoviks", v.opts.Paths.Optoviks},
		{"Drug Dictionary", v.opts.Paths.Dictionary},
		{"Budget Difference", v.opts.Paths.BudgetDifference},
		{"Drug Groups", v.opts.Paths.DrugGroups},
	}

	var details []string
	for _, f := range required {
		if workbook.Exists(f.path) {
			continue
		}
		details = append(details,
			fmt.Sprintf("• %s — Missing file: %s", f.name, filepath.Base(f.path)),
			fmt.Sprintf("  📁 Expected at: %s", f.path),
		)
	}
	if len(details) == 0 {
		return nil
	}

	return shared.NewExpectedError(shared.ErrCodeFilesMissing, "Files are missing").
		WithDetails("❌ The following required files are missing:").
		WithDetails(details...).
		WithFix(
			"Make sure each file listed above exists at its expected path.",
			"If missing, export or copy the correct version into the folder.",
			"Make sure none of the files are open in Excel or locked by another program.",
			"If the file paths are wrong in config, update them accordingly.",
		).
		WithFooter("The run cannot continue unless all required files are present in the expected location.")
}

// fixBlock renders a titled, numbered list of steps as detail lines
func fixBlock(steps ...string) []string {
	lines := []string{"", "🛠 HOW TO FIX:"}
	for i, s := range steps {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, s))
	}
	return append(lines, "__________________________________________________")
}
