package geocode

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

const previewRows = 10

type correctionRow struct {
	Client    string
	Region    string `validate:"required,known_region"`
	Territory string `validate:"required,known_territory"`
}

// corrections maps clients to operator-supplied locations; a later row wins
type corrections struct {
	regions     map[string]string
	territories map[string]string
}

func (s *Service) loadCorrections() (*corrections, error) {
	path := s.opts.CorrectionsPath
	book, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	names := book.SheetNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	sheet, err := book.ReadSheet(names[0])
	if err != nil {
		return nil, err
	}

	labels := s.opts.Labels
	required := []string{labels.Client, labels.Region, labels.Territory}
	index := make(map[string]int, len(sheet.Header))
	for i, h := range sheet.Header {
		index[strings.TrimSpace(h)] = i + 1
	}
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, shared.NewExpectedError(shared.ErrCodeManualCorrection, "Manual correction file is missing columns").
			WithDetails(
				fmt.Sprintf("❌ Missing required column(s) in '%s': %s", path, strings.Join(missing, ", ")),
				"",
				"✔️ Make sure your Excel file contains the following column headers exactly:",
				"- "+labels.Client,
				"- "+labels.Region,
				"- "+labels.Territory,
			).
			WithFooter("Tip: check for typos, extra spaces or formatting issues in the header row.")
	}

	c := &corrections{regions: make(map[string]string), territories: make(map[string]string)}
	var invalid []correctionRow
	for _, row := range sheet.Rows {
		if row.Empty() {
			continue
		}
		cr := correctionRow{
			Client:    workbook.Text(row.Cell(index[labels.Client])),
			Region:    workbook.Text(row.Cell(index[labels.Region])),
			Territory: workbook.Text(row.Cell(index[labels.Territory])),
		}
		if err := s.validate.Struct(cr); err != nil {
			invalid = append(invalid, cr)
			continue
		}
		c.regions[cr.Client] = cr.Region
		c.territories[cr.Client] = cr.Territory
	}
	if len(invalid) > 0 {
		return nil, s.invalidCorrectionsError(path, invalid)
	}

	s.log.Info("Loaded manual corrections", zap.Int("clients", len(c.regions)))
	return c, nil
}

func (s *Service) invalidCorrectionsError(path string, invalid []correctionRow) error {
	labels := s.opts.Labels
	preview := []string{fmt.Sprintf("  %s | %s", labels.Region, labels.Territory)}
	for i, r := range invalid {
		if i == previewRows {
			break
		}
		preview = append(preview, fmt.Sprintf("  %s | %s", display(r.Region), display(r.Territory)))
	}

	patterns := s.resolver.Patterns()
	ee := shared.NewExpectedError(shared.ErrCodeManualCorrection, "Invalid region or territory names").
		WithDetails(
			fmt.Sprintf("❌ %d rows with invalid region or territory names detected in '%s'.", len(invalid), filepath.Base(path)),
			"",
			"Here are a few sample rows:",
		)
	ee.WithDetails(preview...)
	return ee.WithDetails(
		"",
		"✔️ Valid region names should match entries in your territory mapping file.",
		"✔️ Valid territory names should match entries in your territory mapping file.",
		"",
		"📌 Valid Regions: "+strings.Join(patterns.ValidRegions(), ", "),
		"📌 Valid Territories: "+strings.Join(patterns.ValidTerritories(), ", "),
	).WithFooter("Tip: check for typos, extra spaces or casing issues.")
}

func display(v string) string {
	if v == "" {
		return "(empty)"
	}
	return v
}

// fill sets missing locations from the corrections and returns the filled counts
func (c *corrections) fill(o *sales.Optovik) (regions, territories int) {
	for i := range o.Records {
		r := &o.Records[i]
		if r.Region == "" {
			if v, ok := c.regions[r.Client]; ok {
				r.Region = v
				regions++
			}
		}
		if r.Territory == "" {
			if v, ok := c.territories[r.Client]; ok {
				r.Territory = v
				territories++
			}
		}
	}
	return regions, territories
}
