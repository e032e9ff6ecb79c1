package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haesinais/aisdash/internal/vessel"
	"github.com/haesinais/aisdash/pkg/logger"
)

func collectResults() (chan PredictionResult, func(PredictionResult)) {
	ch := make(chan PredictionResult, 16)
	return ch, func(r PredictionResult) { ch <- r }
}

func nextResult(t *testing.T, ch chan PredictionResult) PredictionResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("no prediction result")
		return PredictionResult{}
	}
}

func TestPredictionCommitLatest(t *testing.T) {
	predict := func(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error) {
		assert.Equal(t, vessel.ShapeRoute, shape)
		return []vessel.RoutePoint{{Lat: 35.2, Lon: 129.0, MinutesAhead: 5}}, nil
	}
	f := NewPredictionFetcher(predict, vessel.ShapeRoute, true, time.Second, logger.NewNop())
	results, deliver := collectResults()

	tag := f.Trigger(context.Background(), vessel.Record{MMSI: 123, Latitude: 35.1, Longitude: 129.0}, deliver)
	res := nextResult(t, results)
	assert.Equal(t, tag, res.Tag)

	require.True(t, f.Commit(res, 123, true))
	route, owner := f.Route()
	assert.Equal(t, int64(123), owner)
	require.Len(t, route, 1)
	// 0.1 degrees of latitude is 6 NM
	assert.InDelta(t, 6.0, route[0].DistanceNM, 0.01)
}

func TestPredictionTriggerClearsRouteImmediately(t *testing.T) {
	release := make(chan struct{})
	predict := func(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error) {
		if mmsi == 456 {
			<-release
		}
		return []vessel.RoutePoint{{Lat: 1, Lon: 2}}, nil
	}
	f := NewPredictionFetcher(predict, vessel.ShapeRoute, true, 0, logger.NewNop())
	results, deliver := collectResults()

	f.Trigger(context.Background(), vessel.Record{MMSI: 123}, deliver)
	require.True(t, f.Commit(nextResult(t, results), 123, true))

	f.Trigger(context.Background(), vessel.Record{MMSI: 456}, deliver)
	route, owner := f.Route()
	assert.Empty(t, route)
	assert.Zero(t, owner)

	close(release)
	f.Wait()
}

func TestPredictionStaleGuard(t *testing.T) {
	var calls atomic.Int32
	predict := func(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error) {
		n := calls.Add(1)
		return []vessel.RoutePoint{{Lat: float64(n), Lon: float64(mmsi)}}, nil
	}
	f := NewPredictionFetcher(predict, vessel.ShapeRoute, true, 0, logger.NewNop())
	results, deliver := collectResults()
	ctx := context.Background()

	// Select 123, then 456, then 123 again before anything arrives
	first := f.Trigger(ctx, vessel.Record{MMSI: 123}, deliver)
	f.Trigger(ctx, vessel.Record{MMSI: 456}, deliver)
	latest := f.Trigger(ctx, vessel.Record{MMSI: 123}, deliver)
	f.Wait()

	byID := map[PredictionTag]PredictionResult{}
	for range 3 {
		r := nextResult(t, results)
		byID[r.Tag] = r
	}

	assert.False(t, f.Commit(byID[first], 123, true), "older request for the same vessel")
	for tag, r := range byID {
		if tag.MMSI == 456 {
			assert.False(t, f.Commit(r, 123, true), "other vessel")
		}
	}
	assert.True(t, f.Commit(byID[latest], 123, true))

	_, owner := f.Route()
	assert.Equal(t, int64(123), owner)
}

func TestPredictionSelectionMovedOn(t *testing.T) {
	predict := func(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error) {
		return []vessel.RoutePoint{{Lat: 1, Lon: 1}}, nil
	}
	f := NewPredictionFetcher(predict, vessel.ShapePoint, true, 0, logger.NewNop())
	results, deliver := collectResults()

	f.Trigger(context.Background(), vessel.Record{MMSI: 123}, deliver)
	res := nextResult(t, results)

	assert.False(t, f.Commit(res, 456, true))
	assert.False(t, f.Commit(res, 0, false))
}

func TestPredictionFailureLeavesRouteEmpty(t *testing.T) {
	predict := func(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error) {
		return nil, errors.New("timeout")
	}
	f := NewPredictionFetcher(predict, vessel.ShapeRoute, true, 0, logger.NewNop())
	results, deliver := collectResults()

	f.Trigger(context.Background(), vessel.Record{MMSI: 123}, deliver)
	assert.False(t, f.Commit(nextResult(t, results), 123, true))

	route, _ := f.Route()
	assert.Empty(t, route)
}

func TestPredictionDisabled(t *testing.T) {
	var calls atomic.Int32
	predict := func(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error) {
		calls.Add(1)
		return nil, nil
	}
	f := NewPredictionFetcher(predict, vessel.ShapeRoute, false, 0, logger.NewNop())
	_, deliver := collectResults()

	tag := f.Trigger(context.Background(), vessel.Record{MMSI: 1}, deliver)
	f.Wait()
	assert.Equal(t, int64(1), tag.MMSI)
	assert.Equal(t, int32(0), calls.Load())
}
