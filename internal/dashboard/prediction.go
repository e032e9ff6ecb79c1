package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haesinais/aisdash/internal/nav"
	"github.com/haesinais/aisdash/internal/vessel"
	"github.com/haesinais/aisdash/pkg/logger"
)

// PredictFunc requests the predicted route of one vessel
type PredictFunc func(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error)

// PredictionTag identifies one dispatched prediction request
type PredictionTag struct {
	MMSI      int64
	RequestID uuid.UUID
}

// PredictionResult is a completed prediction request
type PredictionResult struct {
	Tag    PredictionTag
	Points []vessel.RoutePoint
	Err    error
}

// PredictionFetcher keeps the predicted route of the selected vessel.
// Trigger and Commit must be called from the same goroutine; only the
// network request runs elsewhere.
type PredictionFetcher struct {
	predict PredictFunc
	shape   string
	enabled bool
	timeout time.Duration
	logger  *logger.Logger

	latest PredictionTag
	route  []vessel.RoutePoint
	routeM int64 // MMSI the committed route belongs to

	wg sync.WaitGroup
}

// NewPredictionFetcher creates a fetcher. A nil predict or enabled=false
// turns Trigger into a plain clear.
func NewPredictionFetcher(predict PredictFunc, shape string, enabled bool, timeout time.Duration, loggerObj *logger.Logger) *PredictionFetcher {
	return &PredictionFetcher{
		predict: predict,
		shape:   shape,
		enabled: enabled && predict != nil,
		timeout: timeout,
		logger:  loggerObj.Named("prediction"),
	}
}

// Trigger clears the current route and dispatches one request for r. The
// result is handed to deliver from another goroutine.
func (f *PredictionFetcher) Trigger(ctx context.Context, r vessel.Record, deliver func(PredictionResult)) PredictionTag {
	f.route = nil
	f.routeM = 0

	tag := PredictionTag{MMSI: r.MMSI, RequestID: uuid.New()}
	f.latest = tag

	if !f.enabled {
		return tag
	}

	f.logger.Debug("Dispatching prediction request",
		logger.Int64("mmsi", r.MMSI),
		logger.String("request_id", tag.RequestID.String()),
	)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		reqCtx := ctx
		if f.timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
			defer cancel()
		}

		points, err := f.predict(reqCtx, r.MMSI, f.shape)
		for i := range points {
			points[i].DistanceNM = nav.DistanceNM(r.Latitude, r.Longitude, points[i].Lat, points[i].Lon)
		}
		deliver(PredictionResult{Tag: tag, Points: points, Err: err})
	}()

	return tag
}

// Commit stores res as the route if it answers the latest request and
// selected is still that request's vessel. Stale and failed results leave
// the route empty and return false.
func (f *PredictionFetcher) Commit(res PredictionResult, selected int64, hasSelection bool) bool {
	if res.Tag != f.latest || !hasSelection || res.Tag.MMSI != selected {
		f.logger.Debug("Discarding stale prediction",
			logger.Int64("mmsi", res.Tag.MMSI),
			logger.String("request_id", res.Tag.RequestID.String()),
		)
		return false
	}

	if res.Err != nil {
		f.logger.Warn("Prediction request failed",
			logger.Int64("mmsi", res.Tag.MMSI),
			logger.Error(res.Err),
		)
		return false
	}

	f.route = res.Points
	f.routeM = res.Tag.MMSI
	return true
}

// Route returns a copy of the committed route and the MMSI it belongs to
func (f *PredictionFetcher) Route() ([]vessel.RoutePoint, int64) {
	if len(f.route) == 0 {
		return []vessel.RoutePoint{}, 0
	}
	out := make([]vessel.RoutePoint, len(f.route))
	copy(out, f.route)
	return out, f.routeM
}

// Latest returns the tag of the most recent dispatch
func (f *PredictionFetcher) Latest() PredictionTag {
	return f.latest
}

// Wait blocks until all dispatched requests have returned
func (f *PredictionFetcher) Wait() {
	f.wg.Wait()
}
