// Package batch values many requests read from a CSV file concurrently and
// writes one JSON line per request.
package batch

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/propval/internal/model"
)

// Row is one parsed CSV line. Err is set when a cell could not be parsed;
// such rows are reported without being valued.
type Row struct {
	Line    int
	ID      string
	Request model.Request
	Err     error
}

// ReadRequests parses a CSV whose header names request fields (city,
// property_type, area_name, pin_code, latitude, longitude, distance_km, sqft,
// acres, bedrooms, age_years, furnishing, road_facing, corner_plot,
// amenities, water_access, development_potential). An optional id column is
// echoed in the output. Unknown columns are ignored.
func ReadRequests(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, eris.New("batch: empty csv")
	}
	if err != nil {
		return nil, eris.Wrap(err, "batch: read header")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[model.NormalizeKey(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := cols["property_type"]; !ok {
		return nil, eris.New("batch: csv header has no property_type column")
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read row")
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, parseRow(line, cols, rec))
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseRow(line int, cols map[string]int, rec []string) Row {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	p := &cellParser{cell: cell}
	req := model.Request{
		City:                 cell("city"),
		PropertyType:         cell("property_type"),
		AreaName:             cell("area_name"),
		PINCode:              cell("pin_code"),
		Latitude:             p.optFloat("latitude"),
		Longitude:            p.optFloat("longitude"),
		DistanceKM:           p.optFloat("distance_km"),
		SqFt:                 p.float("sqft"),
		Acres:                p.float("acres"),
		Bedrooms:             p.int("bedrooms"),
		AgeYears:             p.int("age_years"),
		Furnishing:           cell("furnishing"),
		RoadFacing:           cell("road_facing"),
		CornerPlot:           p.bool("corner_plot"),
		Amenities:            splitList(cell("amenities")),
		WaterAccess:          cell("water_access"),
		DevelopmentPotential: cell("development_potential"),
	}
	return Row{Line: line, ID: cell("id"), Request: req, Err: p.err}
}

// cellParser converts cells and keeps the first conversion error.
type cellParser struct {
	cell func(string) string
	err  error
}

func (p *cellParser) fail(name, v string) {
	if p.err == nil {
		p.err = eris.Errorf("batch: column %s: cannot parse %q", name, v)
	}
}

func (p *cellParser) optFloat(name string) *float64 {
	v := strings.ReplaceAll(p.cell(name), ",", "")
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(name, v)
		return nil
	}
	return &f
}

func (p *cellParser) float(name string) float64 {
	if f := p.optFloat(name); f != nil {
		return *f
	}
	return 0
}

func (p *cellParser) int(name string) int {
	v := p.cell(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(name, v)
	}
	return n
}

func (p *cellParser) bool(name string) bool {
	switch strings.ToLower(p.cell(name)) {
	case "", "0", "false", "no", "n":
		return false
	case "1", "true", "yes", "y":
		return true
	default:
		p.fail(name, p.cell(name))
		return false
	}
}

// splitList splits a multi-valued cell on ';' or '|'.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == '|' })
	out := parts[:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
