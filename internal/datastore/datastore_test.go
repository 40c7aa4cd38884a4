package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingman2025/birdtarifa/internal/conf"
	"github.com/wingman2025/birdtarifa/internal/daypart"
	"github.com/wingman2025/birdtarifa/internal/errors"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	settings := &conf.Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := &SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewSelectsBackend(t *testing.T) {
	sqliteSettings := &conf.Settings{}
	sqliteSettings.Database.SQLite.Enabled = true
	assert.IsType(t, &SQLiteStore{}, New(sqliteSettings))

	mysqlSettings := &conf.Settings{}
	mysqlSettings.Database.MySQL.Enabled = true
	assert.IsType(t, &MySQLStore{}, New(mysqlSettings))

	assert.Nil(t, New(&conf.Settings{}))
}

func TestCreateAndListSightings(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC)
	for i, zone := range []string{"Tarifa Centro", "Bolonia", "Los Lances"} {
		sighting := &Sighting{
			Zone:       " " + zone + " ",
			ObservedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.CreateSighting(sighting))
		assert.NotZero(t, sighting.ID)
		assert.Equal(t, zone, sighting.Zone, "zone is stored trimmed")
	}

	sightings, err := store.ListSightings(2)
	require.NoError(t, err)
	require.Len(t, sightings, 2)
	assert.Equal(t, "Los Lances", sightings[0].Zone, "most recently observed first")
	assert.Equal(t, "Bolonia", sightings[1].Zone)
}

func TestCreatePredictionRuleConflict(t *testing.T) {
	store := newTestStore(t)

	rule := &PredictionRule{Zone: "Tarifa Centro", Month: 10, HourBucket: "dawn", Species: "Cernicalo vulgar", Weight: 4}
	require.NoError(t, store.CreatePredictionRule(rule))

	duplicate := &PredictionRule{Zone: " Tarifa Centro ", Month: 10, HourBucket: "dawn", Species: "Cernicalo vulgar", Weight: 9}
	err := store.CreatePredictionRule(duplicate)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	// Same species in another bucket is a different scope.
	other := &PredictionRule{Zone: "Tarifa Centro", Month: 10, HourBucket: "morning", Species: "Cernicalo vulgar", Weight: 2}
	require.NoError(t, store.CreatePredictionRule(other))
}

func TestSeedPredictionRulesIdempotent(t *testing.T) {
	store := newTestStore(t)

	inserted, err := store.SeedPredictionRules()
	require.NoError(t, err)
	assert.Equal(t, len(seedRules), inserted)

	inserted, err = store.SeedPredictionRules()
	require.NoError(t, err)
	assert.Zero(t, inserted, "second seed inserts nothing")
}

func TestDistinctZones(t *testing.T) {
	store := newTestStore(t)

	zones, err := store.DistinctZones()
	require.NoError(t, err)
	assert.Empty(t, zones)

	_, err = store.SeedPredictionRules()
	require.NoError(t, err)

	zones, err = store.DistinctZones()
	require.NoError(t, err)
	assert.Equal(t, []string{"Bolonia", "Tarifa Centro"}, zones)
}

func TestSumWeightsGroupedBySpecies(t *testing.T) {
	store := newTestStore(t)

	rules := []PredictionRule{
		{Zone: "Tarifa Centro", Month: 10, HourBucket: "dawn", Species: "Cernicalo vulgar", Weight: 4},
		{Zone: "Tarifa Centro", Month: 11, HourBucket: "dawn", Species: "Cernicalo vulgar", Weight: 2},
		{Zone: "Tarifa Centro", Month: 10, HourBucket: "dawn", Species: "Abejaruco europeo", Weight: 4},
		{Zone: "Tarifa Centro", Month: 10, HourBucket: "morning", Species: "Gorrion comun", Weight: 9},
		{Zone: "Bolonia", Month: 10, HourBucket: "dawn", Species: "Milano negro", Weight: 7},
	}
	for i := range rules {
		require.NoError(t, store.CreatePredictionRule(&rules[i]))
	}

	dawn := daypart.Dawn

	t.Run("exact month and bucket", func(t *testing.T) {
		rows, err := store.SumWeightsGroupedBySpecies("Tarifa Centro", []int{10}, &dawn, 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		// Equal totals resolve by species name ascending.
		assert.Equal(t, "Abejaruco europeo", rows[0].Species)
		assert.Equal(t, 4, rows[0].TotalWeight)
		assert.Equal(t, "Cernicalo vulgar", rows[1].Species)
	})

	t.Run("month filter without bucket sums across buckets", func(t *testing.T) {
		rows, err := store.SumWeightsGroupedBySpecies("Tarifa Centro", []int{10}, nil, 10)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Gorrion comun", rows[0].Species)
		assert.Equal(t, 9, rows[0].TotalWeight)
	})

	t.Run("multiple months aggregate weights", func(t *testing.T) {
		rows, err := store.SumWeightsGroupedBySpecies("Tarifa Centro", []int{10, 11}, &dawn, 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Cernicalo vulgar", rows[0].Species)
		assert.Equal(t, 6, rows[0].TotalWeight)
	})

	t.Run("zone only", func(t *testing.T) {
		rows, err := store.SumWeightsGroupedBySpecies("Bolonia", nil, nil, 10)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Milano negro", rows[0].Species)
	})

	t.Run("limit truncates", func(t *testing.T) {
		rows, err := store.SumWeightsGroupedBySpecies("Tarifa Centro", nil, nil, 1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})

	t.Run("unknown zone is empty", func(t *testing.T) {
		rows, err := store.SumWeightsGroupedBySpecies("Atlanterra", nil, nil, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
