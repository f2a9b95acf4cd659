package graph

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by Haversine.
	EarthRadiusKm = 6371.0
	// AverageSpeedKmh is the urban speed used to estimate travel times.
	AverageSpeedKmh = 40.0
)

// Haversine returns the great-circle distance in kilometres between two
// latitude/longitude pairs given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// NodeDistance is Haversine between two nodes.
func NodeDistance(a, b Node) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// TravelMinutes converts a distance in kilometres to minutes at AverageSpeedKmh.
func TravelMinutes(km float64) float64 {
	return km / AverageSpeedKmh * 60
}
