package simulation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haesinais/aisdash/internal/config"
	"github.com/haesinais/aisdash/internal/remote"
	"github.com/haesinais/aisdash/internal/vessel"
	"github.com/haesinais/aisdash/pkg/logger"
)

func newSimServer(t *testing.T) (*Fleet, *remote.Client) {
	t.Helper()
	fleet := NewFleet(7, logger.NewNop())
	srv := httptest.NewServer(NewHandler(fleet, logger.NewNop()).Routes())
	t.Cleanup(srv.Close)
	return fleet, remote.NewClient(srv.URL, 2*time.Second, logger.NewNop())
}

func TestClientReadsSimulatedVessels(t *testing.T) {
	fleet, client := newSimServer(t)
	require.NoError(t, fleet.Seed(30, 35.1, 129.0, 20))

	records, err := client.FetchVessels(context.Background(), config.VesselSourceAll)
	require.NoError(t, err)
	require.Len(t, records, 30)

	first := fleet.All()[0]
	assert.Equal(t, first.MMSI, records[0].MMSI)
	assert.Equal(t, first.ShipName, records[0].ShipName)
	assert.InDelta(t, first.Lat, records[0].Latitude, 1e-9)

	ts, ok := records[0].ReportTime()
	require.True(t, ok)
	assert.WithinDuration(t, first.LastUpdate, ts, time.Second)
}

func TestAbove60Source(t *testing.T) {
	fleet, client := newSimServer(t)
	require.NoError(t, fleet.Seed(40, 35.1, 129.0, 20))

	records, err := client.FetchVessels(context.Background(), config.VesselSourceAbove60)
	require.NoError(t, err)

	want := 0
	for _, v := range fleet.All() {
		if v.ShipType >= 60 {
			want++
		}
	}
	assert.Len(t, records, want)
	for _, r := range records {
		assert.NotContains(t, []string{"30", "31", "36", "52"}, r.ShipType)
	}
}

func TestClientReadsSimulatedPrediction(t *testing.T) {
	fleet, client := newSimServer(t)
	v, err := fleet.Spawn(35.0, 129.0, 12, 45)
	require.NoError(t, err)

	points, err := client.Predict(context.Background(), v.MMSI, vessel.ShapeRoute)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []int{5, 10, 30}, []int{points[0].MinutesAhead, points[1].MinutesAhead, points[2].MinutesAhead})

	_, err = client.Predict(context.Background(), 1, vessel.ShapeRoute)
	var statusErr *remote.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestJoinThenLogin(t *testing.T) {
	_, client := newSimServer(t)
	ctx := context.Background()
	creds := remote.Credentials{Username: "captain", Password: "secret"}

	assert.Error(t, client.Login(ctx, creds), "unknown user")
	require.NoError(t, client.Join(ctx, creds))
	assert.Error(t, client.Join(ctx, creds), "username taken")
	assert.NoError(t, client.Login(ctx, creds))
	assert.Error(t, client.Login(ctx, remote.Credentials{Username: "captain", Password: "wrong"}))
}
