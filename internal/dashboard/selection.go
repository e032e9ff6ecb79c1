package dashboard

import (
	"github.com/haesinais/aisdash/internal/vessel"
)

// Selection sources
const (
	SourceTable = "table"
	SourceMap   = "map"
	SourceAuto  = "auto"
)

// Center is a map center position
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Selection holds the single selected vessel and the map center derived
// from it. The center follows the selection, never the reverse.
type Selection struct {
	mmsi   int64
	set    bool
	center Center
}

// NewSelection creates an empty selection centered on def
func NewSelection(def Center) *Selection {
	return &Selection{center: def}
}

// SelectFromTable selects a record clicked in the table
func (s *Selection) SelectFromTable(r vessel.Record) bool {
	return s.selectRecord(r)
}

// SelectFromMap selects a record clicked on the map
func (s *Selection) SelectFromMap(r vessel.Record) bool {
	return s.selectRecord(r)
}

// selectRecord re-centers on r and reports whether the selected MMSI changed
func (s *Selection) selectRecord(r vessel.Record) bool {
	s.center = Center{Lat: r.Latitude, Lon: r.Longitude}
	if s.set && s.mmsi == r.MMSI {
		return false
	}
	s.mmsi = r.MMSI
	s.set = true
	return true
}

// AutoSelect selects the first item of page when nothing is selected.
// It returns true only when this changed the selection.
func (s *Selection) AutoSelect(page []vessel.Record) bool {
	if s.set || len(page) == 0 {
		return false
	}
	return s.selectRecord(page[0])
}

// Selected returns the selected MMSI, ok is false when nothing is selected
func (s *Selection) Selected() (mmsi int64, ok bool) {
	return s.mmsi, s.set
}

// IsSelected reports whether r is the selected vessel
func (s *Selection) IsSelected(r vessel.Record) bool {
	return s.set && s.mmsi == r.MMSI
}

// Center returns the current map center
func (s *Selection) Center() Center {
	return s.center
}
