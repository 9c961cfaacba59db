package pipeline

import (
	"context"

	"github.com/pharmdist/salesflow/internal/application/geocode"
	"github.com/pharmdist/salesflow/internal/application/onec"
	"github.com/pharmdist/salesflow/internal/application/report"
	"github.com/pharmdist/salesflow/internal/application/stages"
	"github.com/pharmdist/salesflow/internal/application/validation"
	"github.com/pharmdist/salesflow/internal/application/warehouse"
	"github.com/pharmdist/salesflow/internal/domain/pivot"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/domain/territory"
	"go.uber.org/zap"
)

// Vtorichka validates the optovik workbook, places every client and writes the
// vtorichka, per-region and stage workbooks
func (p *Pipeline) Vtorichka(ctx context.Context) (*Result, error) {
	return p.run(ctx, NameVtorichka, func(ctx context.Context, res *Result) error {
		prepared, err := p.prepare(ctx, NameVtorichka, false)
		if err != nil {
			return err
		}

		var plan *pivot.Plan
		err = p.stage(ctx, NameVtorichka, "pivot", func(ctx context.Context, log *zap.Logger) error {
			plan = pivot.Split(pivot.BuildAll(prepared.Dataset), p.cfg.Layout.VtorichkaSheet)
			log.Info("Pivot tables built", zap.Int("sheets", len(plan.WorkbookSheets())))
			return nil
		})
		if err != nil {
			return err
		}

		err = p.stage(ctx, NameVtorichka, "report", func(ctx context.Context, log *zap.Logger) error {
			builder := report.NewBuilder(report.Params{
				Labels:      p.cfg.Labels(),
				Percentages: p.cfg.Percentages(),
				Budget:      prepared.Budget,
				Groups:      prepared.Groups,
			}, report.Paths{
				Vtorichka: p.cfg.Paths.Vtorichka,
				RegionDir: p.cfg.PoGorodomDir(),
			}, log)

			path, err := builder.WriteVtorichka(ctx, plan)
			if err != nil {
				return err
			}
			res.Files = append(res.Files, path)

			regionFiles, err := builder.WriteRegionFiles(ctx, plan)
			if err != nil {
				return err
			}
			res.Files = append(res.Files, regionFiles...)
			return nil
		})
		if err != nil {
			return err
		}

		err = p.stage(ctx, NameVtorichka, "stages", func(ctx context.Context, log *zap.Logger) error {
			files, err := stages.NewWriter(p.cfg.Paths.StagesDir, log).Run(ctx, prepared.Dataset, prepared.Groups)
			res.Files = append(res.Files, files...)
			return err
		})
		if err != nil {
			return err
		}

		return p.publish(ctx, NameVtorichka, res)
	})
}

// ETL validates the optovik workbook with dates, places every client and loads
// the rows into the warehouse
func (p *Pipeline) ETL(ctx context.Context) (*Result, error) {
	return p.run(ctx, NameETL, func(ctx context.Context, res *Result) error {
		if p.warehouse == nil {
			return warehouseNotConfigured()
		}

		prepared, err := p.prepare(ctx, NameETL, true)
		if err != nil {
			return err
		}

		return p.stage(ctx, NameETL, "load", func(ctx context.Context, log *zap.Logger) error {
			loaded, err := warehouse.NewLoader(p.warehouse, p.metrics, log).Run(ctx, prepared.Dataset, prepared.Groups)
			res.Load = loaded
			return err
		})
	})
}

// Clean1C converts the 1C export into the optovik format
func (p *Pipeline) Clean1C(ctx context.Context) (*Result, error) {
	return p.run(ctx, NameClean1C, func(ctx context.Context, res *Result) error {
		return p.stage(ctx, NameClean1C, "clean", func(ctx context.Context, log *zap.Logger) error {
			cleaned, err := onec.NewCleaner(p.cfg.Paths.OneCSource, p.cfg.Paths.OneCOptovik, p.cfg.Labels(), log).Run(ctx)
			if err != nil {
				return err
			}
			res.Files = append(res.Files, cleaned.Output)
			return nil
		})
	})
}

// prepare runs validation and territory assignment, the shared head of the
// vtorichka and ETL runs
func (p *Pipeline) prepare(ctx context.Context, pipeline string, validateDates bool) (*validation.Prepared, error) {
	var prepared *validation.Prepared
	err := p.stage(ctx, pipeline, "validate", func(ctx context.Context, log *zap.Logger) error {
		paths := p.cfg.Paths
		v := validation.NewValidator(validation.Options{
			Paths: validation.Paths{
				Optoviks:          paths.Optoviks,
				Dictionary:        paths.Dictionary,
				BudgetDifference:  paths.BudgetDifference,
				DrugGroups:        paths.DrugGroups,
				DuplicateClients:  paths.DuplicateClients,
				UnmatchedDrugsDir: paths.UnmatchedDrugsDir,
			},
			Columns:       p.cfg.ColumnMap(),
			Labels:        p.cfg.Labels(),
			ReserveValues: p.cfg.ReserveValues,
			ValidateDates: validateDates,
		}, log)

		var err error
		prepared, err = v.ProcessAll(ctx)
		if err != nil {
			return err
		}
		log.Info("Input validated",
			zap.Int("optoviks", prepared.Dataset.Len()),
			zap.Int("records", prepared.Dataset.RecordCount()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, pipeline, "territories", func(ctx context.Context, log *zap.Logger) error {
		resolver, err := p.resolver()
		if err != nil {
			return err
		}
		svc := geocode.NewService(resolver, p.locations, geocode.Options{
			Labels:          p.cfg.Labels(),
			RegionMatching:  p.cfg.Database.RegionMatching,
			ChunkSize:       p.cfg.Database.ChunkSize,
			CorrectionsPath: p.cfg.Paths.RegionsToBeCorrected,
			ExportPath:      p.cfg.Paths.ManualCorrection,
		}, log)

		if err := svc.Assign(ctx, prepared.Dataset); err != nil {
			return err
		}
		exported, missing, err := svc.ExtractMissing(prepared.Dataset)
		if err != nil {
			return err
		}
		if missing {
			return geocode.MissingLocationsError(exported, p.cfg.Paths.RegionsToBeCorrected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prepared, nil
}

func (p *Pipeline) resolver() (*territory.Resolver, error) {
	regions, err := territory.LoadRegionMapping(p.cfg.Paths.RegionMapping)
	if err != nil {
		return nil, err
	}
	patterns, err := territory.LoadPatterns(p.cfg.Paths.TerritoryMapping)
	if err != nil {
		return nil, err
	}
	return territory.NewResolver(regions, patterns), nil
}

func (p *Pipeline) publish(ctx context.Context, pipeline string, res *Result) error {
	if p.publisher == nil || len(res.Files) == 0 {
		return nil
	}
	return p.stage(ctx, pipeline, "publish", func(ctx context.Context, log *zap.Logger) error {
		keys, err := p.publisher.Publish(ctx, res.RunID.String(), res.Files)
		res.Published = keys
		return err
	})
}

func warehouseNotConfigured() error {
	return shared.NewExpectedError(shared.ErrCodeDatabase, "The warehouse database is not configured").
		WithDetails("The ETL run loads sales into the warehouse and needs a database connection.").
		WithFix(
			"Set the [database] section in config.toml (driver, host, port, user, dbname).",
			"Run the migrations for PostgreSQL: migrate up",
			"Run again.",
		)
}
