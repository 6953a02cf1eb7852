package geo

import "math"

const earthRadiusKM = 6371.0

// DistanceKM returns the haversine distance in kilometers between two
// points. Any nil coordinate yields +Inf so callers can still rank a
// mixed pool: agents without coordinates always sort last.
func DistanceKM(lat1, lon1, lat2, lon2 *float64) float64 {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return math.Inf(1)
	}

	rlat1 := radians(*lat1)
	rlat2 := radians(*lat2)
	dlat := radians(*lat2 - *lat1)
	dlon := radians(*lon2 - *lon1)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// DistanceMeters is DistanceKM scaled to meters, used by the
// nearby-radius check.
func DistanceMeters(lat1, lon1, lat2, lon2 *float64) float64 {
	km := DistanceKM(lat1, lon1, lat2, lon2)
	if math.IsInf(km, 1) {
		return km
	}
	return km * 1000
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
