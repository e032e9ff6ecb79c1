package vessel

import (
	"strconv"
	"time"
)

// Record is one normalized vessel snapshot. Every field holds a concrete
// value: anything missing from the source payload is defaulted (0 or "").
type Record struct {
	ID        int64   `json:"id"`
	MMSI      int64   `json:"mmsi"`
	IMO       int64   `json:"imo"`
	ShipName  string  `json:"ship_name"`
	CallSign  string  `json:"call_sign"`
	ShipType  string  `json:"ship_type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Kinematics
	Speed     float64 `json:"speed"`   // Speed over ground in knots
	Course    float64 `json:"course"`  // Course over ground in degrees
	Heading   float64 `json:"heading"` // True heading in degrees
	ROT       float64 `json:"rot"`     // Rate of turn in degrees per minute
	NavStatus string  `json:"nav_status"`

	// Voyage
	Draught     float64 `json:"draught"`
	Destination string  `json:"destination"`
	ETA         string  `json:"eta"`
	MMAFName    string  `json:"mmaf_name"` // Name of the maritime affairs office reporting the vessel
	Timestamp   string  `json:"timestamp"` // Time of the position report as sent by the source

	// Environment at the vessel position
	WindSpeed        float64 `json:"wind_speed"`
	WindDirection    float64 `json:"wind_direction"`
	WaveHeight       float64 `json:"wave_height"`
	AirTemperature   float64 `json:"air_temperature"`
	WaterTemperature float64 `json:"water_temperature"`
	AirPressure      float64 `json:"air_pressure"`
	Visibility       float64 `json:"visibility"`
}

// MMSIText returns the MMSI in decimal form, as used for searching
func (r Record) MMSIText() string {
	return strconv.FormatInt(r.MMSI, 10)
}

// reportTimeLayouts are the timestamp formats seen from AIS sources
var reportTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
}

// ReportTime parses Timestamp. ok is false when the timestamp is empty
// or in an unknown format.
func (r Record) ReportTime() (t time.Time, ok bool) {
	if r.Timestamp == "" {
		return time.Time{}, false
	}
	for _, layout := range reportTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, r.Timestamp, time.Local); err == nil {
			return parsed, true
		}
	}
	if secs, err := strconv.ParseInt(r.Timestamp, 10, 64); err == nil {
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}

// RawRecord is a vessel entry as it arrives from the remote API.
// Fields may be absent, null, numeric or numeric strings.
type RawRecord struct {
	ID               FlexibleField `json:"id"`
	MMSI             FlexibleField `json:"mmsi"`
	IMO              FlexibleField `json:"imo"`
	ShipName         FlexibleField `json:"ship_name"`
	CallSign         FlexibleField `json:"call_sign"`
	ShipType         FlexibleField `json:"ship_type"`
	Latitude         FlexibleField `json:"latitude"`
	Longitude        FlexibleField `json:"longitude"`
	Speed            FlexibleField `json:"speed"`
	Course           FlexibleField `json:"course"`
	Heading          FlexibleField `json:"heading"`
	ROT              FlexibleField `json:"rot"`
	NavStatus        FlexibleField `json:"nav_status"`
	Draught          FlexibleField `json:"draught"`
	Destination      FlexibleField `json:"destination"`
	ETA              FlexibleField `json:"eta"`
	MMAFName         FlexibleField `json:"mmaf_name"`
	Timestamp        FlexibleField `json:"timestamp"`
	WindSpeed        FlexibleField `json:"wind_speed"`
	WindDirection    FlexibleField `json:"wind_direction"`
	WaveHeight       FlexibleField `json:"wave_height"`
	AirTemperature   FlexibleField `json:"air_temperature"`
	WaterTemperature FlexibleField `json:"water_temperature"`
	AirPressure      FlexibleField `json:"air_pressure"`
	Visibility       FlexibleField `json:"visibility"`
}

// Normalize converts a RawRecord to a Record. A field is defaulted only
// when it is absent or null; explicit zero values are kept.
func (r *RawRecord) Normalize() Record {
	return Record{
		ID:        r.ID.Int64Or(0),
		MMSI:      r.MMSI.Int64Or(0),
		IMO:       r.IMO.Int64Or(0),
		ShipName:  r.ShipName.StringOr(""),
		CallSign:  r.CallSign.StringOr(""),
		ShipType:  r.ShipType.StringOr(""),
		Latitude:  r.Latitude.Float64Or(0),
		Longitude: r.Longitude.Float64Or(0),

		Speed:     r.Speed.Float64Or(0),
		Course:    r.Course.Float64Or(0),
		Heading:   r.Heading.Float64Or(0),
		ROT:       r.ROT.Float64Or(0),
		NavStatus: r.NavStatus.StringOr(""),

		Draught:     r.Draught.Float64Or(0),
		Destination: r.Destination.StringOr(""),
		ETA:         r.ETA.StringOr(""),
		MMAFName:    r.MMAFName.StringOr(""),
		Timestamp:   r.Timestamp.StringOr(""),

		WindSpeed:        r.WindSpeed.Float64Or(0),
		WindDirection:    r.WindDirection.Float64Or(0),
		WaveHeight:       r.WaveHeight.Float64Or(0),
		AirTemperature:   r.AirTemperature.Float64Or(0),
		WaterTemperature: r.WaterTemperature.Float64Or(0),
		AirPressure:      r.AirPressure.Float64Or(0),
		Visibility:       r.Visibility.Float64Or(0),
	}
}
