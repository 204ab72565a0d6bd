package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/corey/hscd/internal/domain/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// SQLite review importer: reviews table to dataset
// =============================================================================

const reviewsSchema = `
	CREATE TABLE reviews(
		name VARCHAR(100) NOT NULL,
		address VARCHAR(400) NOT NULL,
		delicious FLOAT NOT NULL,
		accommodating FLOAT NOT NULL,
		affordable FLOAT NOT NULL,
		atmospheric FLOAT NOT NULL,
		latitude FLOAT NOT NULL,
		longitude FLOAT NOT NULL,
		closestStnDist FLOAT NOT NULL,
		closestStnName VARCHAR(100) NOT NULL,
		accessCount INTEGER NOT NULL,
		id INTEGER PRIMARY KEY
	)`

func createDB(t *testing.T, schema string, inserts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reviews.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(schema)
	require.NoError(t, err)
	for _, stmt := range inserts {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestImport_ReviewsTable(t *testing.T) {
	path := createDB(t, reviewsSchema,
		`INSERT INTO reviews VALUES('Sushi Dai', 'Tsukiji', 0.9, 0.1, -0.4, 0.2, 35.66, 139.77, 0.3, 'Tsukiji', 0, 2)`,
		`INSERT INTO reviews VALUES('Ichiran', 'Shibuya', 0.5, 0.3, 0.6, -0.1, 35.66, 139.70, 0.1, 'Shibuya', 4, 1)`,
	)

	ds, err := NewImporter(nil).Import(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"accommodating", "affordable", "atmospheric", "delicious"}, ds.Features)
	assert.Equal(t, path, ds.Source)
	assert.NotZero(t, ds.ImportedAt)
	require.Len(t, ds.Records, 2)

	// Ordered by id
	first := ds.Records[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Ichiran", first.Name)
	assert.Equal(t, "", first.URL)
	assert.Equal(t, 0.6, first.Rating["affordable"])
	assert.Len(t, first.Rating, 4)
	require.NotNil(t, first.Geo)
	assert.Equal(t, 35.66, first.Geo.Latitude)
	assert.Equal(t, 139.70, first.Geo.Longitude)

	_, leaked := first.Rating["closestStnDist"]
	assert.False(t, leaked, "non-rating float columns must not become features")
}

func TestImport_URLAndNullRatings(t *testing.T) {
	path := createDB(t, `
		CREATE TABLE reviews(
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT,
			delicious REAL,
			cozy DOUBLE
		)`,
		`INSERT INTO reviews VALUES(1, 'Afuri', '/r/1', 0.1, NULL)`,
	)

	ds, err := NewImporter(nil).Import(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"cozy", "delicious"}, ds.Features)
	require.Len(t, ds.Records, 1)
	rec := ds.Records[0]
	assert.Equal(t, "/r/1", rec.URL)
	assert.Nil(t, rec.Geo)
	assert.Equal(t, 0.1, rec.Rating["delicious"])
	_, rated := rec.Rating["cozy"]
	assert.False(t, rated, "NULL rating should be left unrated")
}

func TestImport_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewImporter(nil).Import(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
		assert.Error(t, err)
	})

	t.Run("no reviews table", func(t *testing.T) {
		path := createDB(t, `CREATE TABLE other(id INTEGER)`)
		_, err := NewImporter(nil).Import(context.Background(), path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, search.ErrInvalidArgument))
	})

	t.Run("no feature columns", func(t *testing.T) {
		path := createDB(t, `CREATE TABLE reviews(id INTEGER PRIMARY KEY, name TEXT, latitude FLOAT, longitude FLOAT)`)
		_, err := NewImporter(nil).Import(context.Background(), path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, search.ErrInvalidArgument))
	})

	t.Run("missing name", func(t *testing.T) {
		path := createDB(t, `CREATE TABLE reviews(id INTEGER PRIMARY KEY, delicious FLOAT)`)
		_, err := NewImporter(nil).Import(context.Background(), path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, search.ErrInvalidArgument))
	})
}

func TestImport_Cancelled(t *testing.T) {
	path := createDB(t, reviewsSchema)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewImporter(nil).Import(ctx, path)
	assert.Error(t, err)
}

func TestIsFloatType(t *testing.T) {
	assert.True(t, isFloatType("FLOAT"))
	assert.True(t, isFloatType("real"))
	assert.True(t, isFloatType("DOUBLE PRECISION"))
	assert.False(t, isFloatType("INTEGER"))
	assert.False(t, isFloatType("VARCHAR(100)"))
	assert.False(t, isFloatType(""))
}
