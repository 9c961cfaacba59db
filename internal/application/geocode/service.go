// Package geocode assigns canonical regions and territories to sales records
// and exports the clients it could not place for manual correction.
package geocode

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/pharmdist/salesflow/internal/domain/territory"
	"github.com/pharmdist/salesflow/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

const defaultChunkSize = 1000

// Options configures territory assignment
type Options struct {
	Labels sales.Labels
	// RegionMatching enables filling from the warehouse customer dimension
	RegionMatching bool
	ChunkSize      int
	// CorrectionsPath is the operator-corrected workbook read back on later runs
	CorrectionsPath string
	// ExportPath is the base path of the versioned missing-location export
	ExportPath string
}

// Service resolves record locations in three passes: address patterns,
// the customer dimension, then the manual corrections workbook.
type Service struct {
	resolver *territory.Resolver
	repo     territory.CustomerLocationRepository
	opts     Options
	log      *zap.Logger
	validate *validator.Validate
}

// NewService creates a territory service. repo may be nil when no warehouse is configured.
func NewService(resolver *territory.Resolver, repo territory.CustomerLocationRepository, opts Options, log *zap.Logger) *Service {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	patterns := resolver.Patterns()
	v := validator.New()
	_ = v.RegisterValidation("known_region", func(fl validator.FieldLevel) bool {
		return patterns.IsValidRegion(fl.Field().String())
	})
	_ = v.RegisterValidation("known_territory", func(fl validator.FieldLevel) bool {
		return patterns.IsValidTerritory(fl.Field().String())
	})
	return &Service{
		resolver: resolver,
		repo:     repo,
		opts:     opts,
		log:      log.Named("geocode"),
		validate: v,
	}
}

// Assign fills Region and Territory of every record in the dataset
func (s *Service) Assign(ctx context.Context, ds *sales.Dataset) error {
	s.log.Info("Region and territory identification process...",
		zap.Int("patterns", s.resolver.Patterns().PatternCount()))

	useDB := s.databaseReady(ctx)

	var corr *corrections
	if workbook.Exists(s.opts.CorrectionsPath) {
		c, err := s.loadCorrections()
		if err != nil {
			return err
		}
		corr = c
	}

	for _, o := range ds.Optoviks() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.resolve(o)
		if useDB {
			if err := s.fillFromDatabase(ctx, o); err != nil {
				return fmt.Errorf("failed to fill locations of %s from database: %w", o.Name, err)
			}
		}
		if corr != nil {
			regions, territories := corr.fill(o)
			s.log.Info("Filled from manual correction",
				zap.String("sheet", o.Name),
				zap.Int("regions", regions),
				zap.Int("territories", territories))
		}
	}
	return nil
}

func (s *Service) resolve(o *sales.Optovik) {
	var regions, territories int
	for i := range o.Records {
		r := &o.Records[i]
		r.Region, r.Territory, _ = s.resolver.Resolve(r.Region, r.Territory)
		if r.Region != "" {
			regions++
		}
		if r.Territory != "" {
			territories++
		}
	}
	s.log.Info("Filled via address patterns",
		zap.String("sheet", o.Name),
		zap.Int("regions", regions),
		zap.Int("territories", territories))
}

// databaseReady reports whether the customer dimension can serve lookups.
// Connection problems disable the database pass instead of failing the run.
func (s *Service) databaseReady(ctx context.Context) bool {
	if !s.opts.RegionMatching || s.repo == nil {
		return false
	}
	ok, err := s.repo.HasCustomers(ctx)
	if err != nil {
		s.log.Warn("❌ Database connection failed. Regions and territories will not be filled through the database.", zap.Error(err))
		return false
	}
	if !ok {
		s.log.Warn("⚠️ Database connection successful, but 'dim_customer' table is empty.")
		return false
	}
	s.log.Info("Database connection successful, and 'dim_customer' contains data.")
	return true
}

func (s *Service) fillFromDatabase(ctx context.Context, o *sales.Optovik) error {
	seen := make(map[string]struct{})
	var clients []string
	for _, r := range o.Records {
		if r.HasLocation() {
			continue
		}
		if _, ok := seen[r.Client]; ok {
			continue
		}
		seen[r.Client] = struct{}{}
		clients = append(clients, r.Client)
	}

	known := make(map[string]territory.Location, len(clients))
	for start := 0; start < len(clients); start += s.opts.ChunkSize {
		end := min(start+s.opts.ChunkSize, len(clients))
		found, err := s.repo.FindLocations(ctx, clients[start:end])
		if err != nil {
			return err
		}
		for k, loc := range found {
			known[k] = loc
		}
	}

	var regions, territories int
	for i := range o.Records {
		r := &o.Records[i]
		loc, ok := known[r.Client]
		if !ok {
			continue
		}
		if r.Region == "" && loc.Region != "" {
			r.Region = loc.Region
			regions++
		}
		if r.Territory == "" && loc.Territory != "" {
			r.Territory = loc.Territory
			territories++
		}
	}
	s.log.Info("Filled from database",
		zap.String("sheet", o.Name),
		zap.Int("regions", regions),
		zap.Int("territories", territories))
	return nil
}

// ExtractMissing writes clients still lacking a region or territory to the
// next free versioned export file. It reports false when nothing is missing.
func (s *Service) ExtractMissing(ds *sales.Dataset) (string, bool, error) {
	seen := make(map[string]struct{})
	var rows [][]any
	for _, o := range ds.Optoviks() {
		for _, r := range o.Records {
			if r.HasLocation() {
				continue
			}
			if _, ok := seen[r.Client]; ok {
				continue
			}
			seen[r.Client] = struct{}{}
			rows = append(rows, []any{r.Client, r.Region, r.Territory, o.Name})
		}
	}
	if len(rows) == 0 {
		s.log.Info("All territories successfully processed with no missing values")
		return "", false, nil
	}

	path := workbook.NextVersionedPath(s.opts.ExportPath)
	f, err := workbook.NewFile("Sheet1")
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	labels := s.opts.Labels
	header := []string{labels.Client, labels.Region, labels.Territory, "Sheet"}
	if err := workbook.WriteTable(f, "Sheet1", header, rows); err != nil {
		return "", false, err
	}
	if err := workbook.SaveAs(f, path); err != nil {
		return "", false, err
	}
	s.log.Info("Extracted missing values", zap.Int("clients", len(rows)), zap.String("path", path))
	return path, true, nil
}

// MissingLocationsError tells the operator how to feed the exported file back
func MissingLocationsError(exportPath, correctionsPath string) error {
	return shared.NewExpectedError(shared.ErrCodeMissingTerritories, "Some territories are still missing after automated filling").
		WithDetails(
			"📁 A file has been created at:",
			exportPath,
			"",
			"This file contains the list of clients with missing Region or Territory information.",
		).
		WithFix(
			"Open the Excel file above and manually fill in the missing Region and Territory values for each client.",
			"Save the file with the following exact name: "+correctionsPath,
			"Keep it in the 'prepared' folder inside your project directory: data/prepared/",
			"Run again after completing the above steps.",
		).
		WithFooter("Once these corrections are applied, processing continues automatically.")
}
