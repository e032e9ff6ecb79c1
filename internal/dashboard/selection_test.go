package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haesinais/aisdash/internal/vessel"
)

var defaultCenter = Center{Lat: 37.566, Lon: 126.978}

func TestTableAndMapSelectionAreEquivalent(t *testing.T) {
	r := vessel.Record{MMSI: 123, Latitude: 35.1, Longitude: 129.0}

	fromTable := NewSelection(defaultCenter)
	fromMap := NewSelection(defaultCenter)

	assert.True(t, fromTable.SelectFromTable(r))
	assert.True(t, fromMap.SelectFromMap(r))
	assert.Equal(t, fromTable, fromMap)
	assert.Equal(t, Center{Lat: 35.1, Lon: 129.0}, fromTable.Center())
}

func TestReselectSameVessel(t *testing.T) {
	s := NewSelection(defaultCenter)
	s.SelectFromTable(vessel.Record{MMSI: 123, Latitude: 35.1, Longitude: 129.0})

	// Same MMSI reported at a new position
	changed := s.SelectFromMap(vessel.Record{MMSI: 123, Latitude: 35.2, Longitude: 129.1})
	assert.False(t, changed)
	assert.Equal(t, Center{Lat: 35.2, Lon: 129.1}, s.Center())
}

func TestAutoSelect(t *testing.T) {
	s := NewSelection(defaultCenter)
	assert.Equal(t, defaultCenter, s.Center())

	assert.False(t, s.AutoSelect(nil))
	_, ok := s.Selected()
	assert.False(t, ok)

	page := []vessel.Record{{MMSI: 7, Latitude: 34.0, Longitude: 128.0}, {MMSI: 8}}
	assert.True(t, s.AutoSelect(page))
	mmsi, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, int64(7), mmsi)

	// Only acts on a transition
	assert.False(t, s.AutoSelect(page))
	assert.False(t, s.AutoSelect([]vessel.Record{{MMSI: 9}}))
	mmsi, _ = s.Selected()
	assert.Equal(t, int64(7), mmsi)
}

func TestIsSelected(t *testing.T) {
	s := NewSelection(defaultCenter)
	assert.False(t, s.IsSelected(vessel.Record{MMSI: 0}))

	s.SelectFromTable(vessel.Record{MMSI: 5})
	assert.True(t, s.IsSelected(vessel.Record{MMSI: 5}))
	assert.False(t, s.IsSelected(vessel.Record{MMSI: 6}))
}
