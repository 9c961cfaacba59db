package report

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pharmdist/salesflow/internal/domain/pivot"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

// Paths are the report outputs
type Paths struct {
	Vtorichka string
	// RegionDir receives one workbook per region
	RegionDir string
}

// Builder writes the vtorichka workbook and the per-region workbooks
type Builder struct {
	params Params
	paths  Paths
	log    *zap.Logger
}

// NewBuilder creates a report builder
func NewBuilder(params Params, paths Paths, log *zap.Logger) *Builder {
	return &Builder{params: params, paths: paths, log: log.Named("report")}
}

// WriteVtorichka writes the vtorichka, reserve and region sheets, preceded by the Total sheet
func (b *Builder) WriteVtorichka(ctx context.Context, plan *pivot.Plan) (string, error) {
	b.log.Info("Creating a file with separate sheets for each region...")

	f, err := workbook.NewFile(TotalSheetName)
	if err != nil {
		return "", err
	}
	defer f.Close()

	names := workbook.NewSheetNamer(TotalSheetName)
	renderer := NewSheetRenderer(f, b.params)
	var summaries []*SheetSummary
	for _, sheet := range plan.WorkbookSheets() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := names.Name(sheet.Name)
		if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
		summary, err := renderer.Render(name, sheet)
		if err != nil {
			return "", err
		}
		if sheet.Kind != pivot.SheetVtorichka {
			summaries = append(summaries, summary)
		}
	}

	if err := NewTotalSheet(f, b.params.Labels).Render(f, TotalSheetName, summaries); err != nil {
		return "", err
	}
	f.SetActiveSheet(0)

	if err := workbook.SaveAs(f, b.paths.Vtorichka); err != nil {
		return "", err
	}
	b.log.Info("Workbook saved", zap.String("path", b.paths.Vtorichka), zap.Int("sheets", len(summaries)+2))
	return b.paths.Vtorichka, nil
}

// WriteRegionFiles writes one workbook per region holding the region sheet
// and, when the region spans two or more territories, one sheet per territory
func (b *Builder) WriteRegionFiles(ctx context.Context, plan *pivot.Plan) ([]string, error) {
	b.log.Info("Exporting vtorichka data into individual files by region...")

	var written []string
	for _, region := range plan.Regions {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path := filepath.Join(b.paths.RegionDir, workbook.FileName(region.Name)+".xlsx")
		if err := b.writeRegion(region, plan.Territories[region.Name], path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	b.log.Info("All region workbooks saved", zap.String("dir", b.paths.RegionDir), zap.Int("files", len(written)))
	return written, nil
}

func (b *Builder) writeRegion(region *pivot.Sheet, territories []*pivot.Sheet, path string) error {
	names := workbook.NewSheetNamer()
	first := names.Name(region.Name)
	f, err := workbook.NewFile(first)
	if err != nil {
		return err
	}
	defer f.Close()

	renderer := NewSheetRenderer(f, b.params)
	if _, err := renderer.Render(first, region); err != nil {
		return err
	}
	if len(territories) >= 2 {
		for _, t := range territories {
			name := names.Name(t.Name)
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("failed to add sheet %s: %w", name, err)
			}
			if _, err := renderer.Render(name, t); err != nil {
				return err
			}
		}
	}
	return workbook.SaveAs(f, path)
}
