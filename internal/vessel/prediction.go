package vessel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Prediction response shapes
const (
	ShapeRoute = "route" // {lat_five, lon_five, lat_ten, lon_ten, lat_thirty, lon_thirty}
	ShapePoint = "point" // {latitude, longitude}
)

// ErrNoPredictedPoints is returned when a prediction response carries no usable coordinates
var ErrNoPredictedPoints = errors.New("prediction response has no points")

// RoutePoint is one predicted position
type RoutePoint struct {
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	MinutesAhead int     `json:"minutes_ahead,omitempty"` // 0 when the source does not say
	DistanceNM   float64 `json:"distance_nm"`             // From the vessel's last reported position
}

type routeResponse struct {
	LatFive   FlexibleField `json:"lat_five"`
	LonFive   FlexibleField `json:"lon_five"`
	LatTen    FlexibleField `json:"lat_ten"`
	LonTen    FlexibleField `json:"lon_ten"`
	LatThirty FlexibleField `json:"lat_thirty"`
	LonThirty FlexibleField `json:"lon_thirty"`
}

type pointResponse struct {
	Latitude  FlexibleField `json:"latitude"`
	Longitude FlexibleField `json:"longitude"`
}

// ParsePrediction parses a prediction response in the given shape. A body
// wrapped as {"response": {...}} is unwrapped first. Pairs with a missing
// coordinate are skipped; a response without any complete pair is an error.
func ParsePrediction(body []byte, shape string) ([]RoutePoint, error) {
	body = unwrapResponse(bytes.TrimSpace(body))

	switch shape {
	case ShapeRoute:
		var resp routeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse route prediction: %w", err)
		}
		pairs := []struct {
			lat, lon FlexibleField
			minutes  int
		}{
			{resp.LatFive, resp.LonFive, 5},
			{resp.LatTen, resp.LonTen, 10},
			{resp.LatThirty, resp.LonThirty, 30},
		}
		points := make([]RoutePoint, 0, len(pairs))
		for _, p := range pairs {
			if !p.lat.IsSet() || !p.lon.IsSet() {
				continue
			}
			points = append(points, RoutePoint{
				Lat:          p.lat.Float64Or(0),
				Lon:          p.lon.Float64Or(0),
				MinutesAhead: p.minutes,
			})
		}
		if len(points) == 0 {
			return nil, ErrNoPredictedPoints
		}
		return points, nil

	case ShapePoint:
		var resp pointResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse point prediction: %w", err)
		}
		if !resp.Latitude.IsSet() || !resp.Longitude.IsSet() {
			return nil, ErrNoPredictedPoints
		}
		return []RoutePoint{{
			Lat: resp.Latitude.Float64Or(0),
			Lon: resp.Longitude.Float64Or(0),
		}}, nil

	default:
		return nil, fmt.Errorf("unknown prediction shape: %s", shape)
	}
}

func unwrapResponse(body []byte) []byte {
	var wrapped struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return body
	}
	inner := bytes.TrimSpace(wrapped.Response)
	if len(inner) > 0 && inner[0] == '{' {
		return inner
	}
	return body
}
