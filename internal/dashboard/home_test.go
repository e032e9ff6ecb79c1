package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haesinais/aisdash/internal/vessel"
	"github.com/haesinais/aisdash/pkg/logger"
)

type fakeRemote struct {
	mu           sync.Mutex
	list         []vessel.Record
	fetchErr     error
	fetches      int
	predictCalls []int64
	gates        map[int64]chan struct{}
}

func newFakeRemote(list []vessel.Record) *fakeRemote {
	return &fakeRemote{list: list, gates: map[int64]chan struct{}{}}
}

func (f *fakeRemote) FetchVessels(ctx context.Context, source string) ([]vessel.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]vessel.Record(nil), f.list...), nil
}

func (f *fakeRemote) Predict(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error) {
	f.mu.Lock()
	f.predictCalls = append(f.predictCalls, mmsi)
	gate := f.gates[mmsi]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []vessel.RoutePoint{{Lat: float64(mmsi), Lon: float64(mmsi), MinutesAhead: 5}}, nil
}

func (f *fakeRemote) setList(list []vessel.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = list
}

func (f *fakeRemote) gate(mmsi int64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[mmsi] = ch
	return ch
}

func (f *fakeRemote) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.predictCalls...)
}

func startHome(t *testing.T, remote Remote, opts Options) *Home {
	t.Helper()
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Hour
	}
	h := NewHome(remote, opts, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("dashboard did not stop")
		}
	})
	return h
}

func waitView(t *testing.T, h *Home, cond func(ViewState) bool) ViewState {
	t.Helper()
	require.Eventually(t, func() bool { return cond(h.View()) }, 2*time.Second, 5*time.Millisecond)
	return h.View()
}

func loaded(v ViewState) bool { return !v.Loading }

func TestHomeLoadingUntilFirstPoll(t *testing.T) {
	remote := newFakeRemote([]vessel.Record{{ID: 1, MMSI: 123, Latitude: 35.1, Longitude: 129.0}})
	h := NewHome(remote, Options{PollInterval: time.Hour}, logger.NewNop())

	v := h.View()
	assert.True(t, v.Loading)
	assert.Empty(t, v.Rows)
	assert.Equal(t, 1, v.Page.CurrentPage)
	assert.Equal(t, 10, v.Page.RowsPerPage)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	v = waitView(t, h, loaded)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, vessel.Record{ID: 1, MMSI: 123, Latitude: 35.1, Longitude: 129.0}, v.Rows[0].Record)
	assert.True(t, v.LastPollOK)
}

func TestHomeFailedFirstPollStillRenders(t *testing.T) {
	remote := newFakeRemote(nil)
	remote.fetchErr = errors.New("connection refused")
	h := startHome(t, remote, Options{})

	v := waitView(t, h, loaded)
	assert.False(t, v.LastPollOK)
	assert.Empty(t, v.Rows)
	assert.NotNil(t, v.Rows)
	assert.Equal(t, 0, v.Page.TotalPages)
	assert.False(t, v.HasSelection)
}

func TestHomeAutoSelectsFirstRow(t *testing.T) {
	remote := newFakeRemote([]vessel.Record{
		{MMSI: 111, Latitude: 35.0, Longitude: 129.0},
		{MMSI: 222, Latitude: 36.0, Longitude: 130.0},
	})
	h := startHome(t, remote, Options{DefaultCenter: defaultCenter})

	v := waitView(t, h, loaded)
	assert.True(t, v.HasSelection)
	assert.Equal(t, int64(111), v.SelectedMMSI)
	assert.Equal(t, Center{Lat: 35.0, Lon: 129.0}, v.Center)
	require.NotNil(t, v.Selected)
	assert.Equal(t, int64(111), v.Selected.MMSI)
	assert.True(t, v.Rows[0].Selected)
	assert.False(t, v.Rows[1].Selected)
	assert.True(t, v.Markers[0].Selected)
}

func TestHomeSearchScenario(t *testing.T) {
	remote := newFakeRemote(records(199, 299, 300))
	h := startHome(t, remote, Options{})
	waitView(t, h, loaded)

	v, err := h.Search(context.Background(), "99")
	require.NoError(t, err)
	assert.Equal(t, 2, v.FilteredCount)
	assert.Equal(t, 3, v.TotalVessels)
	assert.Equal(t, []int64{199, 299}, []int64{v.Rows[0].MMSI, v.Rows[1].MMSI})
	assert.Len(t, v.Markers, 3)

	v, err = h.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, 3, v.FilteredCount)
}

func TestHomePaginationScenario(t *testing.T) {
	remote := newFakeRemote(sequence(25))
	h := startHome(t, remote, Options{RowsPerPage: 10})
	waitView(t, h, loaded)

	ctx := context.Background()
	v, err := h.ChangePage(ctx, DirectionNext)
	require.NoError(t, err)
	v, err = h.ChangePage(ctx, DirectionNext)
	require.NoError(t, err)

	assert.Equal(t, PageWindow{CurrentPage: 3, TotalPages: 3, RowsPerPage: 10}, v.Page)
	require.Len(t, v.Rows, 5)
	assert.Equal(t, int64(1020), v.Rows[0].MMSI)
	assert.Equal(t, int64(1024), v.Rows[4].MMSI)
	assert.True(t, v.HasPrev)
	assert.False(t, v.HasNext)
	assert.Equal(t, "3 / 3", v.PageLabel)

	v, err = h.ChangePage(ctx, DirectionNext)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Page.CurrentPage)

	v, err = h.GoToPage(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Page.CurrentPage)

	v, err = h.GoToPage(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Page.CurrentPage)
}

func TestHomeSearchResetsToFirstPage(t *testing.T) {
	remote := newFakeRemote(sequence(25))
	h := startHome(t, remote, Options{})
	waitView(t, h, loaded)

	ctx := context.Background()
	_, err := h.GoToPage(ctx, 2)
	require.NoError(t, err)

	// "10" still matches every record, yet the page resets
	v, err := h.Search(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, 25, v.FilteredCount)
	assert.Equal(t, 1, v.Page.CurrentPage)
}

func TestHomePollShrinkResetsToFirstPage(t *testing.T) {
	remote := newFakeRemote(sequence(25))
	h := startHome(t, remote, Options{PollInterval: 10 * time.Millisecond})
	waitView(t, h, loaded)

	v, err := h.GoToPage(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 3, v.Page.CurrentPage)

	remote.setList(sequence(12))
	v = waitView(t, h, func(v ViewState) bool { return v.TotalVessels == 12 })
	assert.Equal(t, PageWindow{CurrentPage: 1, TotalPages: 2, RowsPerPage: 10}, v.Page)
	assert.Len(t, v.Rows, 10)
}

func TestHomePollReplacesList(t *testing.T) {
	remote := newFakeRemote(records(1, 2, 3))
	h := startHome(t, remote, Options{PollInterval: 10 * time.Millisecond})
	waitView(t, h, loaded)

	remote.setList(records(7))
	v := waitView(t, h, func(v ViewState) bool { return v.TotalVessels == 1 })
	assert.Equal(t, int64(7), v.Vessels[0].MMSI)

	_, ok := h.Vessel(1)
	assert.False(t, ok)
	rec, ok := h.Vessel(7)
	assert.True(t, ok)
	assert.Equal(t, int64(7), rec.MMSI)

	last, ok, cycles := h.PollStatus()
	assert.True(t, ok)
	assert.False(t, last.IsZero())
	assert.GreaterOrEqual(t, cycles, int64(2))
}

func TestHomeOnlyLatestSelectionRouteIsShown(t *testing.T) {
	remote := newFakeRemote([]vessel.Record{
		{MMSI: 123, Latitude: 35.1, Longitude: 129.0},
		{MMSI: 456, Latitude: 34.9, Longitude: 128.7},
	})
	gate123 := remote.gate(123)
	h := startHome(t, remote, Options{PredictionEnabled: true, PredictionShape: vessel.ShapeRoute})

	updates, cancelSub := h.Subscribe()
	defer cancelSub()

	var seen []ViewState
	var seenMu sync.Mutex
	go func() {
		for v := range updates {
			seenMu.Lock()
			seen = append(seen, v)
			seenMu.Unlock()
		}
	}()

	// Auto-select dispatches the request for 123, which stays in flight
	waitView(t, h, func(v ViewState) bool { return v.SelectedMMSI == 123 })
	require.Eventually(t, func() bool { return len(remote.calls()) == 1 }, time.Second, 5*time.Millisecond)

	v, err := h.Select(context.Background(), 456, SourceTable)
	require.NoError(t, err)
	assert.Equal(t, int64(456), v.SelectedMMSI)
	assert.Equal(t, Center{Lat: 34.9, Lon: 128.7}, v.Center)

	v = waitView(t, h, func(v ViewState) bool { return v.PredictedFor == 456 })
	require.Len(t, v.PredictedRoute, 1)
	assert.Equal(t, 456.0, v.PredictedRoute[0].Lat)

	close(gate123)
	time.Sleep(50 * time.Millisecond)
	_, err = h.Search(context.Background(), "")
	require.NoError(t, err)

	v = h.View()
	assert.Equal(t, int64(456), v.PredictedFor)
	assert.Equal(t, []int64{123, 456}, remote.calls())

	seenMu.Lock()
	defer seenMu.Unlock()
	for _, s := range seen {
		if len(s.PredictedRoute) > 0 {
			assert.Equal(t, int64(456), s.PredictedFor)
			assert.Equal(t, 456.0, s.PredictedRoute[0].Lat)
		}
	}
}

func TestHomeReselectDoesNotRefetch(t *testing.T) {
	remote := newFakeRemote([]vessel.Record{{MMSI: 123, Latitude: 35.1, Longitude: 129.0}})
	h := startHome(t, remote, Options{PredictionEnabled: true})

	waitView(t, h, func(v ViewState) bool { return v.PredictedFor == 123 })

	ctx := context.Background()
	_, err := h.Select(ctx, 123, SourceTable)
	require.NoError(t, err)
	v, err := h.Select(ctx, 123, SourceMap)
	require.NoError(t, err)

	assert.Equal(t, []int64{123}, remote.calls())
	assert.Equal(t, int64(123), v.PredictedFor, "route kept")
}

func TestHomeSelectUnknownVessel(t *testing.T) {
	remote := newFakeRemote(records(1))
	h := startHome(t, remote, Options{})
	waitView(t, h, loaded)

	_, err := h.Select(context.Background(), 999, SourceMap)
	assert.ErrorIs(t, err, ErrVesselNotFound)
}

func TestHomeStopSuppressesInFlightPrediction(t *testing.T) {
	remote := newFakeRemote([]vessel.Record{{MMSI: 123}})
	remote.gate(123)
	h := NewHome(remote, Options{PollInterval: time.Hour, PredictionEnabled: true}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()

	updates, _ := h.Subscribe()
	require.Eventually(t, func() bool { return len(remote.calls()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)

	assert.Empty(t, h.View().PredictedRoute)

	// Channel is drained then closed
	for range updates {
	}

	_, err := h.Search(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.ErrorIs(t, h.Run(context.Background()), ErrAlreadyRunning)

	ch, _ := h.Subscribe()
	_, open := <-ch
	assert.False(t, open)
}

func TestSubscribeLatestWins(t *testing.T) {
	remote := newFakeRemote(sequence(30))
	h := startHome(t, remote, Options{})
	waitView(t, h, loaded)

	updates, cancelSub := h.Subscribe()
	defer cancelSub()

	ctx := context.Background()
	for range 2 {
		_, err := h.ChangePage(ctx, DirectionNext)
		require.NoError(t, err)
	}

	// Only the most recent snapshot is buffered
	v := <-updates
	assert.Equal(t, 3, v.Page.CurrentPage)
	select {
	case extra := <-updates:
		t.Fatalf("unexpected buffered snapshot, version %d", extra.Version)
	default:
	}
}
