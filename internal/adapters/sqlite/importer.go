// Package sqlite imports review databases into datasets.
//
// The expected layout is a single `reviews` table with one row per record:
// a name, an integer id, optional latitude/longitude, and one floating point
// column per rated feature. Any other float column is treated as a feature
// unless it is listed in nonFeatureColumns.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"

	_ "modernc.org/sqlite"
)

const reviewsTable = "reviews"

// Float columns in the reviews table that are not ratings.
var nonFeatureColumns = map[string]bool{
	"latitude":       true,
	"longitude":      true,
	"closeststndist": true,
	"id":             true,
	"accesscount":    true,
}

type column struct {
	name     string
	declType string
}

// Importer reads review databases.
type Importer struct {
	logger *slog.Logger
}

// NewImporter creates an importer. A nil logger discards output.
func NewImporter(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{logger: logger.With("component", "sqlite")}
}

// Import reads every row of the reviews table in dbPath. The database is
// opened read-only and never modified.
func (im *Importer) Import(ctx context.Context, dbPath string) (*ports.Dataset, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("sqlite import: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("sqlite open %s: %w", dbPath, err)
	}
	defer db.Close()

	cols, err := tableColumns(ctx, db, reviewsTable)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("sqlite import %s: no %q table: %w", dbPath, reviewsTable, search.ErrInvalidArgument)
	}

	present := make(map[string]bool, len(cols))
	var features []string
	for _, c := range cols {
		present[strings.ToLower(c.name)] = true
		if isFloatType(c.declType) && !nonFeatureColumns[strings.ToLower(c.name)] {
			features = append(features, c.name)
		}
	}
	if !present["name"] || !present["id"] {
		return nil, fmt.Errorf("sqlite import %s: reviews table needs id and name columns: %w", dbPath, search.ErrInvalidArgument)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("sqlite import %s: no feature columns: %w", dbPath, search.ErrInvalidArgument)
	}
	sort.Strings(features)

	hasGeo := present["latitude"] && present["longitude"]
	hasURL := present["url"]

	selectCols := []string{"id", "name"}
	if hasURL {
		selectCols = append(selectCols, "url")
	}
	if hasGeo {
		selectCols = append(selectCols, "latitude", "longitude")
	}
	for _, f := range features {
		selectCols = append(selectCols, quoteIdent(f))
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(selectCols, ", "), reviewsTable)

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	var records []search.Record
	for rows.Next() {
		var (
			id       int
			name     string
			url      sql.NullString
			lat, lng sql.NullFloat64
			ratings  = make([]sql.NullFloat64, len(features))
		)
		dest := []any{&id, &name}
		if hasURL {
			dest = append(dest, &url)
		}
		if hasGeo {
			dest = append(dest, &lat, &lng)
		}
		for i := range ratings {
			dest = append(dest, &ratings[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}

		rec := search.Record{
			ID:     id,
			Name:   name,
			URL:    url.String,
			Rating: make(map[string]float64, len(features)),
		}
		for i, f := range features {
			if ratings[i].Valid && !math.IsNaN(ratings[i].Float64) {
				rec.Rating[f] = ratings[i].Float64
			}
		}
		if hasGeo && lat.Valid && lng.Valid {
			rec.Geo = &search.Geo{Latitude: lat.Float64, Longitude: lng.Float64}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite rows: %w", err)
	}

	im.logger.Info("imported",
		"path", dbPath,
		"records", len(records),
		"features", len(features),
		"elapsed", time.Since(start).String())

	return &ports.Dataset{
		Features:   features,
		Records:    records,
		Source:     dbPath,
		ImportedAt: time.Now().Unix(),
	}, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []column
	for rows.Next() {
		var (
			cid     int
			c       column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &c.name, &c.declType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("table info scan: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// isFloatType applies SQLite's REAL affinity rules to a declared type.
func isFloatType(declType string) bool {
	t := strings.ToUpper(declType)
	return strings.Contains(t, "REAL") || strings.Contains(t, "FLOA") || strings.Contains(t, "DOUB")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
