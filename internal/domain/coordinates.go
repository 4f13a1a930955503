package domain

import "strconv"

// Immutable geographic coordinate in decimal degrees (latitude, longitude).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Return the coordinate as "lat,lng" for external API query strings.
func (c Coordinate) LatLng() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Project stops onto their coordinates, preserving order.
func Coordinates(stops []Stop) []Coordinate {
	out := make([]Coordinate, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.Coordinate)
	}
	return out
}
