package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/haesinais/aisdash/internal/nav"
	"github.com/haesinais/aisdash/pkg/logger"
)

const (
	MaxSimulatedVessels = 500 // Hardcoded maximum number of simulated vessels

	// Ship type codes 60-69 are passenger ships, 70-79 cargo, 80-89 tankers
	passengerShipType = 60
)

// reportTimeLayout is the timestamp format the AIS API reports in
const reportTimeLayout = "2006-01-02 15:04:05"

// predictionOffsets are the horizons of a route prediction
var predictionOffsets = []time.Duration{5 * time.Minute, 10 * time.Minute, 30 * time.Minute}

var (
	shipTypes = []int{30, 31, 36, 52, 60, 69, 70, 79, 80, 89}
	offices   = []string{"Busan", "Incheon", "Ulsan", "Yeosu", "Pohang", "Mokpo", "Gunsan", "Donghae"}
	prefixes  = []string{"HANJIN", "SEA", "OCEAN", "KOREA", "PAN", "HYUNDAI", "STAR", "GOLDEN"}
	suffixes  = []string{"PIONEER", "GLORY", "BRIDGE", "MARU", "QUEEN", "WAVE", "SPIRIT", "HARMONY"}
)

// SimulatedVessel is a single simulated vessel with its current state
type SimulatedVessel struct {
	MMSI        int64     `json:"mmsi"`
	ShipName    string    `json:"ship_name"`
	ShipType    int       `json:"ship_type"`
	CallSign    string    `json:"call_sign"`
	MMAFName    string    `json:"mmaf_name"`
	Destination string    `json:"destination"`
	Lat         float64   `json:"latitude"`
	Lon         float64   `json:"longitude"`
	Speed       float64   `json:"speed"`  // knots over ground
	Course      float64   `json:"course"` // degrees true
	LastUpdate  time.Time `json:"last_update"`
	CreatedAt   time.Time `json:"created_at"`
}

// Fleet manages simulated vessels
type Fleet struct {
	vessels map[int64]*SimulatedVessel
	mutex   sync.RWMutex
	rng     *rand.Rand
	now     func() time.Time
	logger  *logger.Logger
}

// NewFleet creates an empty fleet. seed makes the generated names and
// positions reproducible.
func NewFleet(seed int64, logger *logger.Logger) *Fleet {
	return &Fleet{
		vessels: make(map[int64]*SimulatedVessel),
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
		logger:  logger.Named("simulation"),
	}
}

// Spawn creates a new simulated vessel
func (f *Fleet) Spawn(lat, lon, speed, course float64) (*SimulatedVessel, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if len(f.vessels) >= MaxSimulatedVessels {
		return nil, fmt.Errorf("maximum number of simulated vessels (%d) reached", MaxSimulatedVessels)
	}

	now := f.now()
	v := &SimulatedVessel{
		MMSI:        f.generateUniqueMMSI(),
		ShipName:    f.generateShipName(),
		ShipType:    shipTypes[f.rng.Intn(len(shipTypes))],
		CallSign:    fmt.Sprintf("D%s%04d", string(rune('A'+f.rng.Intn(26))), f.rng.Intn(10000)),
		MMAFName:    offices[f.rng.Intn(len(offices))],
		Destination: offices[f.rng.Intn(len(offices))],
		Lat:         lat,
		Lon:         lon,
		Speed:       speed,
		Course:      nav.Normalize360(course),
		LastUpdate:  now,
		CreatedAt:   now,
	}

	f.vessels[v.MMSI] = v
	f.logger.Debug("Created simulated vessel",
		logger.Int64("mmsi", v.MMSI),
		logger.String("name", v.ShipName),
		logger.Float64("lat", lat),
		logger.Float64("lon", lon),
	)

	return v, nil
}

// Seed spawns n vessels scattered within radiusNM of the given center
func (f *Fleet) Seed(n int, lat, lon, radiusNM float64) error {
	for i := 0; i < n; i++ {
		f.mutex.Lock()
		bearing := f.rng.Float64() * 360
		dist := f.rng.Float64() * radiusNM
		speed := 0.0
		if f.rng.Intn(5) > 0 { // one in five is moored
			speed = 2 + f.rng.Float64()*20
		}
		course := f.rng.Float64() * 360
		f.mutex.Unlock()

		vLat, vLon := nav.DestinationPoint(lat, lon, bearing, dist)
		if _, err := f.Spawn(vLat, vLon, speed, course); err != nil {
			return err
		}
	}
	f.logger.Info("Seeded simulated fleet", logger.Int("vessels", n))
	return nil
}

// UpdateControls changes the speed and course of a simulated vessel
func (f *Fleet) UpdateControls(mmsi int64, course, speed float64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	v, exists := f.vessels[mmsi]
	if !exists {
		return fmt.Errorf("simulated vessel with mmsi %d not found", mmsi)
	}

	v.Course = nav.Normalize360(course)
	v.Speed = speed

	f.logger.Debug("Updated simulation controls",
		logger.Int64("mmsi", mmsi),
		logger.Float64("course", v.Course),
		logger.Float64("speed", speed),
	)
	return nil
}

// Remove removes a simulated vessel
func (f *Fleet) Remove(mmsi int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if _, exists := f.vessels[mmsi]; !exists {
		return fmt.Errorf("simulated vessel with mmsi %d not found", mmsi)
	}

	delete(f.vessels, mmsi)
	f.logger.Info("Removed simulated vessel", logger.Int64("mmsi", mmsi))
	return nil
}

// Get returns a copy of the vessel with the given MMSI
func (f *Fleet) Get(mmsi int64) (SimulatedVessel, bool) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	v, exists := f.vessels[mmsi]
	if !exists {
		return SimulatedVessel{}, false
	}
	return *v, true
}

// All returns copies of all vessels ordered by MMSI
func (f *Fleet) All() []SimulatedVessel {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	result := make([]SimulatedVessel, 0, len(f.vessels))
	for _, v := range f.vessels {
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MMSI < result[j].MMSI })
	return result
}

// UpdatePositions moves every vessel along its course by the time
// elapsed since its last update
func (f *Fleet) UpdatePositions() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	now := f.now()
	for _, v := range f.vessels {
		elapsed := now.Sub(v.LastUpdate)
		if elapsed <= 0 {
			continue
		}
		if v.Speed > 0 {
			v.Lat, v.Lon = nav.DeadReckon(v.Lat, v.Lon, v.Speed, v.Course, elapsed)
		}
		v.LastUpdate = now
	}
}

// Run advances the fleet every interval until ctx is cancelled
func (f *Fleet) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.UpdatePositions()
		}
	}
}

// Predict dead-reckons the vessel 5, 10 and 30 minutes ahead
func (f *Fleet) Predict(mmsi int64) ([]PredictedPoint, bool) {
	v, ok := f.Get(mmsi)
	if !ok {
		return nil, false
	}

	points := make([]PredictedPoint, 0, len(predictionOffsets))
	for _, d := range predictionOffsets {
		lat, lon := nav.DeadReckon(v.Lat, v.Lon, v.Speed, v.Course, d)
		points = append(points, PredictedPoint{Lat: lat, Lon: lon, Ahead: d})
	}
	return points, true
}

// PredictedPoint is a dead-reckoned position
type PredictedPoint struct {
	Lat   float64
	Lon   float64
	Ahead time.Duration
}

// generateUniqueMMSI returns a Korean (440) MMSI not used in the fleet
func (f *Fleet) generateUniqueMMSI() int64 {
	for {
		mmsi := int64(440000000 + f.rng.Intn(1000000))
		if _, exists := f.vessels[mmsi]; !exists {
			return mmsi
		}
	}
}

func (f *Fleet) generateShipName() string {
	return prefixes[f.rng.Intn(len(prefixes))] + " " + suffixes[f.rng.Intn(len(suffixes))]
}
