package refdata

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/geodesy"
)

// DefaultPINField is the attribute holding the PIN code in postal boundary
// shapefiles.
const DefaultPINField = "pincode"

// ReadCentroids reads locality centroids from a shapefile of PIN code
// boundaries or points. The centroid is the center of each shape's bounding
// box. Records with a blank or malformed PIN are skipped.
func ReadCentroids(shpPath, pinField string) (map[string]geodesy.Coordinate, error) {
	if pinField == "" {
		pinField = DefaultPINField
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	pinIdx := fieldIndex(reader, pinField)
	if pinIdx < 0 {
		return nil, eris.Errorf("refdata: shapefile has no %q field", pinField)
	}

	out := make(map[string]geodesy.Coordinate)
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			skipped++
			continue
		}

		pin := strings.TrimSpace(strings.TrimRight(reader.Attribute(pinIdx), "\x00"))
		if !ValidPIN(pin) {
			skipped++
			continue
		}

		box := shape.BBox()
		c := geodesy.Coordinate{
			Lat: (box.MinY + box.MaxY) / 2,
			Lon: (box.MinX + box.MaxX) / 2,
		}
		if !c.Valid() {
			skipped++
			continue
		}
		out[pin] = c
	}

	if skipped > 0 {
		zap.L().Debug("refdata: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return out, nil
}

// fieldIndex returns the index of a named attribute field, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
