package prediction

import (
	"context"
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingman2025/birdtarifa/internal/daypart"
	"github.com/wingman2025/birdtarifa/internal/ebird"
)

type ruleCall struct {
	zone   string
	months []int
	bucket *daypart.Bucket
	limit  int
}

type fakeRuleStore struct {
	calls   []ruleCall
	respond func(call ruleCall) ([]SpeciesWeight, error)
}

func (s *fakeRuleStore) SumWeightsGroupedBySpecies(zone string, months []int, bucket *daypart.Bucket, limit int) ([]SpeciesWeight, error) {
	call := ruleCall{zone: zone, months: months, bucket: bucket, limit: limit}
	s.calls = append(s.calls, call)
	if s.respond == nil {
		return nil, nil
	}
	return s.respond(call)
}

type fakeSource struct {
	nearby        []ebird.Observation
	byLocation    map[string][]ebird.Observation
	err           error
	nearbyCalls   int
	locationCalls int
	lastLocID     string
}

func (s *fakeSource) RecentNearby(ctx context.Context, lat, lng float64, distKm, backDays, maxResults int) ([]ebird.Observation, error) {
	s.nearbyCalls++
	return s.nearby, s.err
}

func (s *fakeSource) RecentByLocation(ctx context.Context, locID string, backDays, maxResults int) ([]ebird.Observation, error) {
	s.locationCalls++
	s.lastLocID = locID
	if s.err != nil {
		return nil, s.err
	}
	return s.byLocation[locID], nil
}

func testGeoDefaults() GeoDefaults {
	return GeoDefaults{Latitude: 36.0128, Longitude: -5.6012, DistanceKm: 25, BackDays: 30, MaxResults: 200}
}

func testRequest() Request {
	return Request{Zone: "Tarifa Centro", Month: 10, Bucket: daypart.Dawn, Limit: 10}
}

func TestResolveExactRulesWin(t *testing.T) {
	store := &fakeRuleStore{
		respond: func(call ruleCall) ([]SpeciesWeight, error) {
			return []SpeciesWeight{
				{Species: "Common Swift", TotalWeight: 9},
				{Species: "White Stork", TotalWeight: 4},
			}, nil
		},
	}
	source := &fakeSource{}
	resolver := NewResolver(store, source, testGeoDefaults(), nil)

	rows, path := resolver.resolve(context.Background(), testRequest())

	assert.Equal(t, pathRuleExact, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "Common Swift", rows[0].Species)
	assert.Equal(t, 9, rows[0].Score)
	assert.Equal(t, ConfidenceHigh, rows[0].Confidence)
	assert.False(t, rows[0].FallbackUsed)
	assert.Equal(t, "reglas: Tarifa Centro, mes 10, dawn", rows[0].Reason)
	assert.Nil(t, rows[0].ObservationsCount, "rule rows carry no observation stats")
	assert.Nil(t, rows[0].LastSeenDaysAgo)

	require.Len(t, store.calls, 1, "relaxed levels must not run once exact rules match")
	assert.Equal(t, []int{10}, store.calls[0].months)
	require.NotNil(t, store.calls[0].bucket)
	assert.Equal(t, daypart.Dawn, *store.calls[0].bucket)
	assert.Zero(t, source.nearbyCalls)
}

func TestResolveLevelCascade(t *testing.T) {
	tests := []struct {
		name         string
		answerAtCall int
		wantPath     resolutionPath
		wantReason   string
		wantConf     Confidence
		checkCall    func(t *testing.T, call ruleCall)
	}{
		{
			name:         "same month any bucket",
			answerAtCall: 2,
			wantPath:     pathRuleMonth,
			wantReason:   "reglas (fallback): Tarifa Centro, mes 10, franja relajada",
			wantConf:     ConfidenceMedium,
			checkCall: func(t *testing.T, call ruleCall) {
				assert.Equal(t, []int{10}, call.months)
				assert.Nil(t, call.bucket)
			},
		},
		{
			name:         "neighbor months same bucket",
			answerAtCall: 3,
			wantPath:     pathRuleNeighbor,
			wantReason:   "reglas (fallback): Tarifa Centro, mes cercano, dawn",
			wantConf:     ConfidenceLow,
			checkCall: func(t *testing.T, call ruleCall) {
				assert.Equal(t, []int{9, 11}, call.months)
				require.NotNil(t, call.bucket)
				assert.Equal(t, daypart.Dawn, *call.bucket)
			},
		},
		{
			name:         "zone only",
			answerAtCall: 4,
			wantPath:     pathRuleZone,
			wantReason:   "reglas (fallback): Tarifa Centro, mostrando base general",
			wantConf:     ConfidenceLow,
			checkCall: func(t *testing.T, call ruleCall) {
				assert.Empty(t, call.months)
				assert.Nil(t, call.bucket)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeRuleStore{}
			store.respond = func(call ruleCall) ([]SpeciesWeight, error) {
				if len(store.calls) == tc.answerAtCall {
					return []SpeciesWeight{{Species: "Little Owl", TotalWeight: 3}}, nil
				}
				return nil, nil
			}
			resolver := NewResolver(store, nil, testGeoDefaults(), nil)

			rows, path := resolver.resolve(context.Background(), testRequest())

			assert.Equal(t, tc.wantPath, path)
			require.Len(t, rows, 1)
			assert.Equal(t, tc.wantReason, rows[0].Reason)
			assert.Equal(t, tc.wantConf, rows[0].Confidence)
			assert.True(t, rows[0].FallbackUsed)
			require.Len(t, store.calls, tc.answerAtCall)
			tc.checkCall(t, store.calls[tc.answerAtCall-1])
		})
	}
}

func TestNeighborMonthsWrap(t *testing.T) {
	assert.Equal(t, []int{12, 2}, neighborMonths(1))
	assert.Equal(t, []int{11, 1}, neighborMonths(12))
	assert.Equal(t, []int{5, 7}, neighborMonths(6))
}

func TestResolveRuleStoreErrorSkipsLevel(t *testing.T) {
	store := &fakeRuleStore{}
	store.respond = func(call ruleCall) ([]SpeciesWeight, error) {
		if len(store.calls) == 1 {
			return nil, errors.New("database locked")
		}
		return []SpeciesWeight{{Species: "Black Kite", TotalWeight: 5}}, nil
	}
	resolver := NewResolver(store, nil, testGeoDefaults(), nil)

	rows, path := resolver.resolve(context.Background(), testRequest())

	assert.Equal(t, pathRuleMonth, path, "failed level falls through to the next")
	require.Len(t, rows, 1)
	assert.Equal(t, "Black Kite", rows[0].Species)
}

func TestResolveExternalFallback(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(scorerNow))
	t.Cleanup(func() { SetClock(nil) })

	source := &fakeSource{
		nearby: []ebird.Observation{
			timedObs("Griffon Vulture", "2026-10-14 07:00"),
		},
	}
	resolver := NewResolver(&fakeRuleStore{}, source, testGeoDefaults(), nil)

	rows, path := resolver.resolve(context.Background(), testRequest())

	assert.Equal(t, pathExternal, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "Griffon Vulture", rows[0].Species)
	assert.Equal(t, "eBird: zona cercana, filtros exactos", rows[0].Reason)
	assert.Equal(t, 1, source.nearbyCalls)
	assert.Zero(t, source.locationCalls)
}

func TestResolveExternalFallbackByLocation(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(scorerNow))
	t.Cleanup(func() { SetClock(nil) })

	source := &fakeSource{
		byLocation: map[string][]ebird.Observation{
			"L123456": {timedObs("Audouin's Gull", "2026-10-14 08:30")},
		},
	}
	resolver := NewResolver(&fakeRuleStore{}, source, testGeoDefaults(), nil)

	req := testRequest()
	req.LocationID = "L123456"
	req.Bucket = daypart.Morning
	rows, path := resolver.resolve(context.Background(), req)

	assert.Equal(t, pathExternal, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "Audouin's Gull", rows[0].Species)
	assert.Equal(t, "eBird: hotspot L123456, filtros exactos", rows[0].Reason)
	assert.Equal(t, "L123456", source.lastLocID)
	assert.Zero(t, source.nearbyCalls)
}

func TestResolveExternalEmptyVersusError(t *testing.T) {
	t.Run("empty feed resolves through the external path", func(t *testing.T) {
		resolver := NewResolver(&fakeRuleStore{}, &fakeSource{}, testGeoDefaults(), nil)
		rows, path := resolver.resolve(context.Background(), testRequest())
		assert.Equal(t, pathExternal, path)
		assert.Empty(t, rows)
	})

	t.Run("source failure is swallowed", func(t *testing.T) {
		source := &fakeSource{err: errors.New("connect timeout")}
		resolver := NewResolver(&fakeRuleStore{}, source, testGeoDefaults(), nil)
		rows, path := resolver.resolve(context.Background(), testRequest())
		assert.Equal(t, pathExternalError, path)
		assert.Empty(t, rows)
	})
}

func TestResolveWithoutSourceReturnsEmpty(t *testing.T) {
	resolver := NewResolver(&fakeRuleStore{}, nil, testGeoDefaults(), nil)

	rows := resolver.Resolve(context.Background(), testRequest())

	require.NotNil(t, rows, "callers always get a list, never nil")
	assert.Empty(t, rows)
}

func TestResolveNeverReturnsNil(t *testing.T) {
	source := &fakeSource{err: errors.New("boom")}
	resolver := NewResolver(&fakeRuleStore{}, source, testGeoDefaults(), nil)

	rows := resolver.Resolve(context.Background(), testRequest())

	require.NotNil(t, rows)
	assert.Empty(t, rows)
}
