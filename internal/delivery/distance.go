package delivery

import "math"

const earthRadiusKm = 6371.0

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance is the great-circle distance in kilometres (haversine).
func Distance(from, to Coordinates) float64 {
	lat0 := toRad(from.Lat)
	lat1 := toRad(to.Lat)
	dLat := toRad(to.Lat - from.Lat)
	dLng := toRad(to.Lng - from.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat0)*math.Cos(lat1)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
