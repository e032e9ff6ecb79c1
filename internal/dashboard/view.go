package dashboard

import (
	"time"

	"github.com/haesinais/aisdash/internal/nav"
	"github.com/haesinais/aisdash/internal/vessel"
)

// Row is one table row of the current page
type Row struct {
	vessel.Record
	MagneticHeading float64 `json:"magnetic_heading"`
	Selected        bool    `json:"selected"`
}

// Marker is one vessel on the map
type Marker struct {
	MMSI     int64   `json:"mmsi"`
	ShipName string  `json:"ship_name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Course   float64 `json:"course"`
	Selected bool    `json:"selected"`
}

// ViewState is an immutable snapshot of everything the dashboard renders
type ViewState struct {
	Version       uint64     `json:"version"`
	Loading       bool       `json:"loading"`
	SearchTerm    string     `json:"search_term"`
	TotalVessels  int        `json:"total_vessels"`
	FilteredCount int        `json:"filtered_count"`
	Page          PageWindow `json:"page"`
	HasPrev       bool       `json:"has_prev"`
	HasNext       bool       `json:"has_next"`
	PageLabel     string     `json:"page_label"`
	Rows          []Row      `json:"rows"`
	Markers       []Marker   `json:"markers"`

	HasSelection bool           `json:"has_selection"`
	SelectedMMSI int64          `json:"selected_mmsi"`
	Selected     *vessel.Record `json:"selected,omitempty"`
	Center       Center         `json:"center"`

	PredictedRoute []vessel.RoutePoint `json:"predicted_route"`
	PredictedFor   int64               `json:"predicted_for,omitempty"`

	Charts     Charts    `json:"charts"`
	LastPoll   time.Time `json:"last_poll"`
	LastPollOK bool      `json:"last_poll_ok"`

	// Vessels is the full working list. It is replaced, never modified.
	Vessels []vessel.Record `json:"-"`
}

// Row returns the page row for mmsi
func (v ViewState) Row(mmsi int64) (Row, bool) {
	for _, r := range v.Rows {
		if r.MMSI == mmsi {
			return r, true
		}
	}
	return Row{}, false
}

// Vessel returns the record with the given MMSI from the working list
func (v ViewState) Vessel(mmsi int64) (vessel.Record, bool) {
	for _, r := range v.Vessels {
		if r.MMSI == mmsi {
			return r, true
		}
	}
	return vessel.Record{}, false
}

// snapshot builds a ViewState from loop-owned state. Must run on the loop.
func (h *Home) snapshot() ViewState {
	selected, hasSelection := h.selection.Selected()
	route, routeFor := h.prediction.Route()

	v := ViewState{
		Version:        h.version,
		Loading:        h.loading,
		SearchTerm:     h.term,
		TotalVessels:   len(h.list),
		FilteredCount:  len(h.filtered),
		Page:           h.window,
		HasPrev:        h.window.HasPrev(),
		HasNext:        h.window.HasNext(),
		PageLabel:      h.window.Label(),
		Rows:           make([]Row, 0, len(h.page)),
		Markers:        make([]Marker, 0, len(h.list)),
		HasSelection:   hasSelection,
		SelectedMMSI:   selected,
		Center:         h.selection.Center(),
		PredictedRoute: route,
		PredictedFor:   routeFor,
		Charts:         h.charts,
		LastPoll:       h.lastPoll,
		LastPollOK:     h.lastPollOK,
		Vessels:        h.list,
	}

	now := time.Now()
	for _, r := range h.page {
		date, ok := r.ReportTime()
		if !ok {
			date = now
		}
		v.Rows = append(v.Rows, Row{
			Record:          r,
			MagneticHeading: nav.MagneticHeading(r.Heading, r.Latitude, r.Longitude, date),
			Selected:        h.selection.IsSelected(r),
		})
	}

	for _, r := range h.list {
		isSelected := h.selection.IsSelected(r)
		if isSelected && v.Selected == nil {
			rec := r
			v.Selected = &rec
		}
		v.Markers = append(v.Markers, Marker{
			MMSI:     r.MMSI,
			ShipName: r.ShipName,
			Lat:      r.Latitude,
			Lon:      r.Longitude,
			Course:   r.Course,
			Selected: isSelected,
		})
	}

	return v
}
