// Package geodesy provides great-circle distance and coordinate helpers.
package geodesy

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// EarthRadiusKM is the mean Earth radius used by the haversine formula.
const EarthRadiusKM = 6371.0

// SRID is the spatial reference used for stored points (WGS 84).
const SRID = 4326

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"latitude" yaml:"latitude"`
	Lon float64 `json:"longitude" yaml:"longitude"`
}

// Valid reports whether the coordinate is finite and inside the WGS 84 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceTo returns the great-circle distance to o in kilometers.
func (c Coordinate) DistanceTo(o Coordinate) float64 {
	return DistanceKM(c.Lat, c.Lon, o.Lat, o.Lon)
}

// Point converts the coordinate to a go-geom point (X = lon, Y = lat).
func (c Coordinate) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(SRID)
}

// DistanceKM computes the haversine distance between two coordinates in km.
// NaN inputs produce NaN.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := lat2Rad - lat1Rad
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusKM * c
}

// EncodeEWKB marshals the coordinate as a little-endian EWKB point with SRID 4326.
func EncodeEWKB(c Coordinate) ([]byte, error) {
	data, err := ewkb.Marshal(c.Point(), ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geodesy: encode EWKB")
	}
	return data, nil
}

// DecodeEWKB parses an EWKB point back into a coordinate.
func DecodeEWKB(data []byte) (Coordinate, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return Coordinate{}, eris.Wrap(err, "geodesy: decode EWKB")
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return Coordinate{}, eris.Errorf("geodesy: expected point geometry, got %T", g)
	}
	return Coordinate{Lat: p.Y(), Lon: p.X()}, nil
}
