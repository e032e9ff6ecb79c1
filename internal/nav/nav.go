package nav

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Constants
const (
	EarthRadiusM = 6371000.0 // Mean earth radius (m)
	MetersPerNM  = 1852.0    // Meters in one nautical mile
	KnotsToMs    = 0.514444  // Conversion factor from Knots to m/s
)

// Haversine returns the great-circle distance in meters between two points
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dPhi := toRad(lat2 - lat1)
	dLambda := toRad(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// MetersToNM converts meters to nautical miles
func MetersToNM(m float64) float64 {
	return m / MetersPerNM
}

// DistanceNM returns the great-circle distance in nautical miles
func DistanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	return MetersToNM(Haversine(lat1, lon1, lat2, lon2))
}

// InitialBearing returns the initial true bearing (0-360) from point 1 to point 2
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLambda := toRad(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	return Normalize360(toDeg(math.Atan2(y, x)))
}

// DestinationPoint returns the position reached after travelling distNM
// nautical miles from (lat, lon) on the given true bearing
func DestinationPoint(lat, lon, bearingDeg, distNM float64) (float64, float64) {
	delta := distNM * MetersPerNM / EarthRadiusM
	theta := toRad(bearingDeg)
	phi1 := toRad(lat)
	lambda1 := toRad(lon)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	return toDeg(phi2), normalize180(toDeg(lambda2))
}

// DeadReckon projects a position forward for the given duration at speed
// (knots) along course (degrees true)
func DeadReckon(lat, lon, speedKnots, courseDeg float64, d time.Duration) (float64, float64) {
	distNM := speedKnots * d.Hours()
	if distNM <= 0 {
		return lat, lon
	}
	return DestinationPoint(lat, lon, courseDeg, distNM)
}

// MagneticVariation calculates the magnetic declination for a given sea-level position and time
// Returns declination in degrees (+East, -West)
func MagneticVariation(lat, lon float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, 0)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		// Return 0 for safety if calculation fails
		return 0.0
	}

	return mag.D() // Declination
}

// MagneticHeading converts a true heading to magnetic using the local variation
func MagneticHeading(trueDeg, lat, lon float64, date time.Time) float64 {
	return Normalize360(trueDeg - MagneticVariation(lat, lon, date))
}

// Normalize360 maps an angle into [0, 360)
func Normalize360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func normalize180(deg float64) float64 {
	deg = Normalize360(deg + 180)
	return deg - 180
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }
