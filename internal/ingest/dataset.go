package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/snfsearch/internal/models"
	"github.com/leapstack-labs/snfsearch/pkg/geo"
	"github.com/leapstack-labs/snfsearch/pkg/orm"
)

// Default CMS download file names.
const (
	DefaultZipCodesFile     = "zip_code_centroids.csv"
	DefaultProvidersFile    = "ProviderInfo_Download.csv"
	DefaultDeficienciesFile = "Deficiencies_Download.csv"
	DefaultPenaltiesFile    = "Penalties_Download.csv"
)

// Files locates the four input files.
type Files struct {
	ZipCodes     string `koanf:"zip_codes"`
	Providers    string `koanf:"providers"`
	Deficiencies string `koanf:"deficiencies"`
	Penalties    string `koanf:"penalties"`
}

// DefaultFiles returns the default file names under dir.
func DefaultFiles(dir string) Files {
	return Files{
		ZipCodes:     filepath.Join(dir, DefaultZipCodesFile),
		Providers:    filepath.Join(dir, DefaultProvidersFile),
		Deficiencies: filepath.Join(dir, DefaultDeficienciesFile),
		Penalties:    filepath.Join(dir, DefaultPenaltiesFile),
	}
}

// Paths returns the files in load order.
func (f Files) Paths() []string {
	return []string{f.ZipCodes, f.Providers, f.Deficiencies, f.Penalties}
}

// Path returns the file loaded into table.
func (f Files) Path(table string) (string, bool) {
	switch table {
	case models.ZipCodeTable:
		return f.ZipCodes, true
	case models.ProviderTable:
		return f.Providers, true
	case models.DeficiencyTable:
		return f.Deficiencies, true
	case models.PenaltyTable:
		return f.Penalties, true
	}
	return "", false
}

// Stats summarizes an ingestion run.
type Stats struct {
	ZipCodes        int `json:"zip_codes"`
	Providers       int `json:"providers"`
	Deficiencies    int `json:"deficiencies"`
	Penalties       int `json:"penalties"`
	DeficiencyTypes int `json:"deficiency_types"`

	// Rows referring to a provider that was not loaded.
	UnmatchedDeficiencies int `json:"unmatched_deficiencies"`
	UnmatchedPenalties    int `json:"unmatched_penalties"`

	// Penalty rows whose type is neither a fine nor a payment denial.
	UnknownPenalties int `json:"unknown_penalties"`

	CastFallbacks int `json:"cast_fallbacks"`
}

// Dataset is the in-memory working set of one run.
type Dataset struct {
	Providers *models.ProviderRepository
	ZipCodes  *models.ZipCodeRepository
	Factory   *orm.Factory
	Stats     Stats
}

// Loader builds datasets.
type Loader struct {
	logger *slog.Logger
	unit   geo.Unit
}

// NewLoader creates a Loader measuring distances in unit. If logger is nil, a
// discard logger is used.
func NewLoader(unit geo.Unit, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{logger: logger, unit: unit}
}

func (l *Loader) newDataset() *Dataset {
	f := orm.NewFactory(l.logger)
	return &Dataset{
		Providers: models.NewProviderRepository(f),
		ZipCodes:  models.NewZipCodeRepository(l.unit),
		Factory:   f,
	}
}

// LoadCSV reads the four input files in order. Each file is closed before
// the next one is opened. Deficiencies and penalties are counted one row at a
// time against the providers they refer to.
func (l *Loader) LoadCSV(ctx context.Context, files Files) (*Dataset, error) {
	if err := models.Validate(); err != nil {
		return nil, err
	}
	ds := l.newDataset()
	catalog := models.NewCatalog(ds.Factory)

	err := l.withCSV(ctx, files.ZipCodes, func(src orm.RowSource) (err error) {
		ds.Stats.ZipCodes, err = ds.ZipCodes.Load(src, ds.Factory)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = l.withCSV(ctx, files.Providers, func(src orm.RowSource) (err error) {
		ds.Stats.Providers, err = ds.Providers.Load(src)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = l.withCSV(ctx, files.Deficiencies, func(src orm.RowSource) (err error) {
		ds.Stats.Deficiencies, err = drain(src, func(row orm.Row) error {
			if _, err := catalog.Type(row); err != nil {
				return err
			}
			if !ds.Providers.CountDeficiency(row) {
				ds.Stats.UnmatchedDeficiencies++
				l.logger.Debug("deficiency refers to unknown provider", "row", row)
			}
			return ctx.Err()
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	ds.Stats.DeficiencyTypes = catalog.Len()

	err = l.withCSV(ctx, files.Penalties, func(src orm.RowSource) (err error) {
		ds.Stats.Penalties, err = drain(src, func(row orm.Row) error {
			if _, err := models.NewPenalty(row, ds.Factory); err != nil {
				if !errors.Is(err, models.ErrUnknownPenaltyType) {
					return err
				}
				ds.Stats.UnknownPenalties++
				l.logger.Debug("skipping penalty variant", "error", err)
			}
			if !ds.Providers.CountPenalty(row) {
				ds.Stats.UnmatchedPenalties++
				l.logger.Debug("penalty refers to unknown provider", "row", row)
			}
			return ctx.Err()
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	l.finish(ds, "csv")
	return ds, nil
}

func (l *Loader) withCSV(ctx context.Context, path string, fn func(orm.RowSource) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Debug("reading input file", "path", path)
	src, err := OpenCSV(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if err := fn(src); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// AggregateQuery counts the rows of table per provider on the server.
func AggregateQuery(table string) string {
	return fmt.Sprintf("SELECT p.num AS num, count(*) AS count FROM %s d INNER JOIN provider p ON d.provider_num=p.num GROUP BY p.num", table)
}

// LoadSQL reads a database populated by the store package. All providers are
// read, since the score CDFs need the full population. Deficiencies and
// penalties arrive pre-aggregated as one count per provider.
func (l *Loader) LoadSQL(ctx context.Context, db Querier) (*Dataset, error) {
	if err := models.Validate(); err != nil {
		return nil, err
	}
	ds := l.newDataset()

	err := l.withQuery(ctx, db, "SELECT * FROM "+models.ZipCodeTable, func(src orm.RowSource) (err error) {
		ds.Stats.ZipCodes, err = ds.ZipCodes.Load(src, ds.Factory)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = l.withQuery(ctx, db, "SELECT * FROM "+models.ProviderTable, func(src orm.RowSource) (err error) {
		ds.Stats.Providers, err = ds.Providers.Load(src)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = l.withQuery(ctx, db, AggregateQuery(models.DeficiencyTable), func(src orm.RowSource) error {
		_, err := drain(src, func(row orm.Row) error {
			if !ds.Providers.CountDeficiency(row) {
				ds.Stats.UnmatchedDeficiencies++
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	err = l.withQuery(ctx, db, AggregateQuery(models.PenaltyTable), func(src orm.RowSource) error {
		_, err := drain(src, func(row orm.Row) error {
			if !ds.Providers.CountPenalty(row) {
				ds.Stats.UnmatchedPenalties++
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, p := range ds.Providers.All() {
		ds.Stats.Deficiencies += p.NumDeficiencies
		ds.Stats.Penalties += p.NumPenalties
	}

	l.finish(ds, "sql")
	return ds, nil
}

func (l *Loader) withQuery(ctx context.Context, db Querier, query string, fn func(orm.RowSource) error) error {
	l.logger.Debug("executing query", "sql", query)
	src, err := Query(ctx, db, query)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if err := fn(src); err != nil {
		return fmt.Errorf("failed to load query results: %w", err)
	}
	return nil
}

func (l *Loader) finish(ds *Dataset, source string) {
	ds.Stats.CastFallbacks = ds.Factory.TotalCastFallbacks()
	l.logger.Info("dataset loaded",
		"source", source,
		"zip_codes", ds.ZipCodes.Len(),
		"providers", ds.Providers.Len(),
		"deficiencies", ds.Stats.Deficiencies,
		"penalties", ds.Stats.Penalties,
		"unmatched_deficiencies", ds.Stats.UnmatchedDeficiencies,
		"unmatched_penalties", ds.Stats.UnmatchedPenalties,
		"unknown_penalties", ds.Stats.UnknownPenalties,
		"cast_fallbacks", ds.Stats.CastFallbacks)
	for _, field := range ds.Factory.FallbackFields() {
		l.logger.Debug("cast fallbacks", "field", field, "count", ds.Factory.CastFallbacks()[field])
	}
}
