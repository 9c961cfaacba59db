package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/pharmdist/salesflow/internal/domain/sales"
	"github.com/pharmdist/salesflow/internal/domain/shared"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Log           LogConfig
	Paths         PathsConfig
	Layout        LayoutConfig
	Columns       ColumnsConfig
	ReserveValues []string
	Database      DatabaseConfig
	Redis         RedisConfig
	Storage       StorageConfig
	Scheduler     SchedulerConfig
	Metrics       MetricsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
	File   string // run log kept next to the data folders
}

// PathsConfig holds every input and output location, resolved against Root
type PathsConfig struct {
	Root                 string
	Optoviks             string `validate:"required"`
	Dictionary           string `validate:"required"`
	DrugGroups           string `validate:"required"`
	BudgetDifference     string `validate:"required"`
	RegionMapping        string `validate:"required"`
	TerritoryMapping     string `validate:"required"`
	ManualCorrection     string `validate:"required"`
	RegionsToBeCorrected string `validate:"required"`
	DuplicateClients     string `validate:"required"`
	UnmatchedDrugsDir    string `validate:"required"`
	Vtorichka            string `validate:"required"`
	PoGorodom            string `validate:"required"`
	StagesDir            string `validate:"required"`
	OneCSource           string `validate:"required"`
	OneCOptovik          string `validate:"required"`
}

// LayoutConfig holds workbook captions and summary percentages
type LayoutConfig struct {
	VtorichkaSheet         string `validate:"required"`
	MainHeader             string `validate:"required"`
	Client                 string `validate:"required"`
	Region                 string `validate:"required"`
	Territory              string `validate:"required"`
	Quantity               string `validate:"required"`
	TotalSales             string `validate:"required"`
	Total                  string `validate:"required"`
	Drug                   string `validate:"required"`
	Price                  string `validate:"required"`
	Reserve                string `validate:"required"`
	Date                   string `validate:"required"`
	Ungrouped              string `validate:"required"`
	Oblast                 string `validate:"required"`
	Address                string `validate:"required"`
	FinalSum               string `validate:"required"`
	FinalSumMinus          string `validate:"required"`
	FinalSumReklama        string `validate:"required"`
	FinalSumLeksiya        string `validate:"required"`
	OneCSheet              string `validate:"required"`
	FinalSumMinusPercent   int    `validate:"gte=0,lt=100"`
	FinalSumLeksiyaPercent int    `validate:"gt=0,lte=100"`
}

// ColumnsConfig holds 1-based input column positions
type ColumnsConfig struct {
	OptovikCount    int `validate:"gt=0"`
	Drug            int `validate:"gt=0"`
	Client          int `validate:"gt=0"`
	Region          int `validate:"gt=0"`
	Territory       int `validate:"gt=0"`
	Quantity        int `validate:"gt=0"`
	Price           int `validate:"gt=0"`
	Reserve         int `validate:"gt=0"`
	Date            int `validate:"gt=0"`
	DictCustomer    int `validate:"gt=0"`
	DictStandard    int `validate:"gt=0"`
	BudgetDrug      int `validate:"gt=0"`
	BudgetVtorichka int `validate:"gt=0"`
	BudgetByRegion  int `validate:"gt=0"`
	DateLayout      string
}

// DatabaseConfig holds warehouse connection settings
type DatabaseConfig struct {
	Driver          string // postgres, mysql, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	RegionMatching  bool
	ChunkSize       int
	SlowThreshold   time.Duration
}

// RedisConfig holds the optional customer-location cache settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// StorageConfig holds the optional S3 publishing settings
type StorageConfig struct {
	Enabled         bool
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// SchedulerConfig holds the scheduled ETL settings
type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// MetricsConfig holds Prometheus textfile output settings
type MetricsConfig struct {
	TextfilePath string
}

// Load reads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SALESFLOW_ prefix (e.g., SALESFLOW_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load(explicitFile ...string) (*Config, error) {
	v := viper.New()

	if len(explicitFile) > 0 && explicitFile[0] != "" {
		v.SetConfigFile(explicitFile[0])
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/salesflow")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SALESFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
			File:   v.GetString("log.file"),
		},
		Paths: PathsConfig{
			Root:                 v.GetString("paths.root"),
			Optoviks:             v.GetString("paths.optoviks"),
			Dictionary:           v.GetString("paths.dictionary"),
			DrugGroups:           v.GetString("paths.drug_groups"),
			BudgetDifference:     v.GetString("paths.budget_difference"),
			RegionMapping:        v.GetString("paths.region_mapping"),
			TerritoryMapping:     v.GetString("paths.territory_mapping"),
			ManualCorrection:     v.GetString("paths.manual_correction"),
			RegionsToBeCorrected: v.GetString("paths.regions_to_be_corrected"),
			DuplicateClients:     v.GetString("paths.duplicate_clients"),
			UnmatchedDrugsDir:    v.GetString("paths.unmatched_drugs_dir"),
			Vtorichka:            v.GetString("paths.vtorichka"),
			PoGorodom:            v.GetString("paths.po_gorodom"),
			StagesDir:            v.GetString("paths.stages_dir"),
			OneCSource:           v.GetString("paths.onec_source"),
			OneCOptovik:          v.GetString("paths.onec_optovik"),
		},
		Layout: LayoutConfig{
			VtorichkaSheet:         v.GetString("layout.vtorichka_sheet"),
			MainHeader:             v.GetString("layout.main_header"),
			Client:                 v.GetString("layout.client"),
			Region:                 v.GetString("layout.region"),
			Territory:              v.GetString("layout.territory"),
			Quantity:               v.GetString("layout.quantity"),
			TotalSales:             v.GetString("layout.total_sales"),
			Total:                  v.GetString("layout.total"),
			Drug:                   v.GetString("layout.drug"),
			Price:                  v.GetString("layout.price"),
			Reserve:                v.GetString("layout.reserve"),
			Date:                   v.GetString("layout.date"),
			Ungrouped:              v.GetString("layout.ungrouped"),
			Oblast:                 v.GetString("layout.oblast"),
			Address:                v.GetString("layout.address"),
			FinalSum:               v.GetString("layout.final_sum"),
			FinalSumMinus:          v.GetString("layout.final_sum_minus"),
			FinalSumReklama:        v.GetString("layout.final_sum_reklama"),
			FinalSumLeksiya:        v.GetString("layout.final_sum_leksiya"),
			OneCSheet:              v.GetString("layout.onec_sheet"),
			FinalSumMinusPercent:   v.GetInt("layout.final_sum_minus_percent"),
			FinalSumLeksiyaPercent: v.GetInt("layout.final_sum_leksiya_percent"),
		},
		Columns: ColumnsConfig{
			OptovikCount:    v.GetInt("columns.optovik_count"),
			Drug:            v.GetInt("columns.drug"),
			Client:          v.GetInt("columns.client"),
			Region:          v.GetInt("columns.region"),
			Territory:       v.GetInt("columns.territory"),
			Quantity:        v.GetInt("columns.quantity"),
			Price:           v.GetInt("columns.price"),
			Reserve:         v.GetInt("columns.reserve"),
			Date:            v.GetInt("columns.date"),
			DictCustomer:    v.GetInt("columns.dict_customer"),
			DictStandard:    v.GetInt("columns.dict_standard"),
			BudgetDrug:      v.GetInt("columns.budget_drug"),
			BudgetVtorichka: v.GetInt("columns.budget_vtorichka"),
			BudgetByRegion:  v.GetInt("columns.budget_by_region"),
			DateLayout:      v.GetString("columns.date_layout"),
		},
		ReserveValues: v.GetStringSlice("reserve_values"),
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			RegionMatching:  v.GetBool("database.region_matching"),
			ChunkSize:       v.GetInt("database.chunk_size"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Bucket:          v.GetString("storage.bucket"),
			Prefix:          v.GetString("storage.prefix"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Scheduler: SchedulerConfig{
			Interval: v.GetDuration("scheduler.interval"),
			Cron:     v.GetString("scheduler.cron"),
		},
		Metrics: MetricsConfig{
			TextfilePath: v.GetString("metrics.textfile_path"),
		},
	}

	applyDefaults(cfg)
	cfg.resolvePaths()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "salesflow"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "errors.log"
	}

	p := &cfg.Paths
	if p.Root == "" {
		p.Root = "."
	}
	setDefault(&p.Optoviks, "data/prepared/optoviks.xlsx")
	setDefault(&p.Dictionary, "data/prepared/drug_dictionary.xlsx")
	setDefault(&p.DrugGroups, "data/prepared/drug_groups.xlsx")
	setDefault(&p.BudgetDifference, "data/prepared/budget_difference.xlsx")
	setDefault(&p.RegionMapping, "config/regions.json")
	setDefault(&p.TerritoryMapping, "config/territories.json")
	setDefault(&p.ManualCorrection, "data/to_fix/regions_manual_correction.xlsx")
	setDefault(&p.RegionsToBeCorrected, "data/prepared/regions_to_be_corrected.xlsx")
	setDefault(&p.DuplicateClients, "data/to_fix/duplicate_clients.xlsx")
	setDefault(&p.UnmatchedDrugsDir, "data/to_fix")
	setDefault(&p.Vtorichka, "data/final/vtorichka.xlsx")
	setDefault(&p.PoGorodom, "data/final")
	setDefault(&p.StagesDir, "data/final")
	setDefault(&p.OneCSource, "data/1c_files/1c_source.xlsx")
	setDefault(&p.OneCOptovik, "data/1c_files/1c_optovik.xlsx")

	l := &cfg.Layout
	d := sales.DefaultLabels()
	setDefault(&l.VtorichkaSheet, d.VtorichkaSheet)
	setDefault(&l.MainHeader, d.MainHeader)
	setDefault(&l.Client, d.Client)
	setDefault(&l.Region, d.Region)
	setDefault(&l.Territory, d.Territory)
	setDefault(&l.Quantity, d.Quantity)
	setDefault(&l.TotalSales, d.TotalSales)
	setDefault(&l.Total, d.Total)
	setDefault(&l.Drug, d.Drug)
	setDefault(&l.Price, d.Price)
	setDefault(&l.Reserve, d.Reserve)
	setDefault(&l.Date, d.Date)
	setDefault(&l.Ungrouped, d.Ungrouped)
	setDefault(&l.Oblast, d.Oblast)
	setDefault(&l.Address, d.Address)
	setDefault(&l.FinalSum, d.FinalSum)
	setDefault(&l.FinalSumMinus, d.FinalSumMinus)
	setDefault(&l.FinalSumReklama, d.FinalSumReklama)
	setDefault(&l.FinalSumLeksiya, d.FinalSumLeksiya)
	setDefault(&l.OneCSheet, d.OneCSheet)
	if l.FinalSumMinusPercent == 0 {
		l.FinalSumMinusPercent = 10
	}
	if l.FinalSumLeksiyaPercent == 0 {
		l.FinalSumLeksiyaPercent = 2
	}

	c := &cfg.Columns
	dc := sales.DefaultColumns()
	setDefaultInt(&c.OptovikCount, dc.Count)
	setDefaultInt(&c.Drug, dc.Drug)
	setDefaultInt(&c.Client, dc.Client)
	setDefaultInt(&c.Region, dc.Region)
	setDefaultInt(&c.Territory, dc.Territory)
	setDefaultInt(&c.Quantity, dc.Quantity)
	setDefaultInt(&c.Price, dc.Price)
	setDefaultInt(&c.Reserve, dc.Reserve)
	setDefaultInt(&c.Date, dc.Date)
	setDefaultInt(&c.DictCustomer, dc.DictCustomer)
	setDefaultInt(&c.DictStandard, dc.DictStandard)
	setDefaultInt(&c.BudgetDrug, dc.BudgetDrug)
	setDefaultInt(&c.BudgetVtorichka, dc.BudgetVtorichka)
	setDefaultInt(&c.BudgetByRegion, dc.BudgetByRegion)
	setDefault(&c.DateLayout, dc.DateLayout)

	db := &cfg.Database
	setDefault(&db.Driver, "postgres")
	setDefault(&db.Host, "localhost")
	if db.Port == 0 {
		switch db.Driver {
		case "mysql":
			db.Port = 3306
		default:
			db.Port = 5432
		}
	}
	setDefault(&db.User, "postgres")
	setDefault(&db.DBName, "sales_dw")
	setDefault(&db.SSLMode, "disable")
	setDefault(&db.Path, "data/sales_dw.db")
	setDefaultInt(&db.MaxOpenConns, 10)
	setDefaultInt(&db.MaxIdleConns, 2)
	setDefaultInt(&db.ConnMaxLifetime, 30)
	setDefaultInt(&db.ChunkSize, 1000)
	if db.SlowThreshold == 0 {
		db.SlowThreshold = 200 * time.Millisecond
	}

	r := &cfg.Redis
	setDefault(&r.Host, "localhost")
	setDefaultInt(&r.Port, 6379)
	if r.TTL == 0 {
		r.TTL = 24 * time.Hour
	}

	setDefault(&cfg.Storage.Prefix, "salesflow")
	setDefault(&cfg.Storage.Region, "us-east-1")

	if cfg.Scheduler.Interval == 0 && cfg.Scheduler.Cron == "" {
		cfg.Scheduler.Interval = 24 * time.Hour
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setDefaultInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

// resolvePaths makes every relative path relative to Paths.Root
func (c *Config) resolvePaths() {
	p := &c.Paths
	for _, field := range []*string{
		&p.Optoviks, &p.Dictionary, &p.DrugGroups, &p.BudgetDifference,
		&p.RegionMapping, &p.TerritoryMapping, &p.ManualCorrection, &p.RegionsToBeCorrected,
		&p.DuplicateClients, &p.UnmatchedDrugsDir, &p.Vtorichka, &p.PoGorodom, &p.StagesDir,
		&p.OneCSource, &p.OneCOptovik,
	} {
		if !filepath.IsAbs(*field) {
			*field = filepath.Join(p.Root, *field)
		}
	}
	if c.Database.Driver == "sqlite" && !filepath.IsAbs(c.Database.Path) && c.Database.Path != ":memory:" {
		c.Database.Path = filepath.Join(p.Root, c.Database.Path)
	}
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(p.Root, c.Log.File)
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Paths); err != nil {
		return configError(err)
	}
	if err := validate.Struct(c.Layout); err != nil {
		return configError(err)
	}
	if err := validate.Struct(c.Columns); err != nil {
		return configError(err)
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be one of postgres, mysql, sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Database.ChunkSize <= 0 {
		return fmt.Errorf("database.chunk_size must be positive")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	if c.App.Env == "production" && c.Database.Driver != "sqlite" && c.Database.Password == "" {
		return fmt.Errorf("database.password is required in production")
	}

	return nil
}

func configError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ee := shared.NewExpectedError(shared.ErrCodeConfig, "Configuration is invalid")
	for _, fe := range verrs {
		ee.WithDetails(fmt.Sprintf("❌ Config key '%s' is invalid (rule: %s %s).", fe.Namespace(), fe.Tag(), fe.Param()))
	}
	return ee.WithFix(
		"Open 'config.toml'.",
		"Set every listed key to a valid value.",
		"Save and restart the application.",
	)
}

// EnsureDataFolders creates the standard data folder tree under the project root
func (c *Config) EnsureDataFolders() error {
	for _, sub := range []string{"prepared", "to_fix", "final", "1c_files"} {
		if err := os.MkdirAll(filepath.Join(c.Paths.Root, "data", sub), 0o755); err != nil {
			return fmt.Errorf("failed to create data folder %s: %w", sub, err)
		}
	}
	return nil
}

// PoGorodomDir returns the folder holding per-region workbooks
func (c *Config) PoGorodomDir() string {
	return filepath.Join(c.Paths.PoGorodom, "po_gorodom")
}

// Labels returns workbook captions as a domain value
func (c *Config) Labels() sales.Labels {
	l := c.Layout
	return sales.Labels{
		VtorichkaSheet:  l.VtorichkaSheet,
		MainHeader:      l.MainHeader,
		Client:          l.Client,
		Region:          l.Region,
		Territory:       l.Territory,
		Quantity:        l.Quantity,
		TotalSales:      l.TotalSales,
		Total:           l.Total,
		Drug:            l.Drug,
		Price:           l.Price,
		Reserve:         l.Reserve,
		Date:            l.Date,
		Ungrouped:       l.Ungrouped,
		Oblast:          l.Oblast,
		Address:         l.Address,
		FinalSum:        l.FinalSum,
		FinalSumMinus:   l.FinalSumMinus,
		FinalSumReklama: l.FinalSumReklama,
		FinalSumLeksiya: l.FinalSumLeksiya,
		OneCSheet:       l.OneCSheet,
	}
}

// ColumnMap returns input column positions as a domain value
func (c *Config) ColumnMap() sales.ColumnMap {
	cc := c.Columns
	return sales.ColumnMap{
		Count:           cc.OptovikCount,
		Drug:            cc.Drug,
		Client:          cc.Client,
		Region:          cc.Region,
		Territory:       cc.Territory,
		Quantity:        cc.Quantity,
		Price:           cc.Price,
		Reserve:         cc.Reserve,
		Date:            cc.Date,
		DictCustomer:    cc.DictCustomer,
		DictStandard:    cc.DictStandard,
		BudgetDrug:      cc.BudgetDrug,
		BudgetVtorichka: cc.BudgetVtorichka,
		BudgetByRegion:  cc.BudgetByRegion,
		DateLayout:      cc.DateLayout,
	}
}

// Percentages returns the summary-row percentages
func (c *Config) Percentages() sales.Percentages {
	return sales.Percentages{
		FinalSumMinus: 100 - c.Layout.FinalSumMinusPercent,
		Leksiya:       c.Layout.FinalSumLeksiyaPercent,
	}
}

// DSN returns the driver-specific connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", d.Host, d.Port)
		mc.DBName = d.DBName
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN()
	case "sqlite":
		return d.Path
	default:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.User, d.Password),
			Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:   d.DBName,
		}
		q := u.Query()
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
		return u.String()
	}
}

// Addr returns host:port of the cache
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
