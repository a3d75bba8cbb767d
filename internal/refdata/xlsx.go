package refdata

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/geodesy"
	"github.com/sells-group/propval/internal/model"
)

// WorkbookOptions configures the guidance workbook reader.
type WorkbookOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadPINWorkbook reads PIN records from a guidance workbook. The first row
// is a header; columns are matched by name, case-insensitively:
//
//	pin_code, city, locality, tier, region, guidance_min, guidance_max,
//	latitude, longitude, and <class>_<field> where field is one of
//	market_min, market_max, market_multiplier, guidance_min, guidance_max,
//	min, max, value, unit.
//
// Rows without a valid PIN code are skipped.
func ReadPINWorkbook(path string, opts WorkbookOptions) ([]PINRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "refdata: open workbook")
	}

	sheet, err := workbookSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("refdata: sheet %q is empty", sheet.Name)
	}

	header := rowToStrings(sheet.Rows[0])
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[model.NormalizeKey(h)] = i
	}
	pinCol, ok := lookupColumn(cols, "pin_code", "pincode", "pin")
	if !ok {
		return nil, eris.New("refdata: workbook has no pin_code column")
	}

	var (
		recs    []PINRecord
		skipped int
	)
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		cell := func(i int) string {
			if i < 0 || i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[i])
		}

		pin := cell(pinCol)
		if !ValidPIN(pin) {
			skipped++
			continue
		}

		rec, err := workbookRecord(pin, cols, cell)
		if err != nil {
			return nil, eris.Wrapf(err, "refdata: pin %s", pin)
		}
		recs = append(recs, rec)
	}

	if skipped > 0 {
		zap.L().Debug("refdata: skipped workbook rows without a pin code",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return recs, nil
}

func workbookRecord(pin string, cols map[string]int, cell func(int) string) (PINRecord, error) {
	col := func(name string) string {
		i, ok := cols[name]
		if !ok {
			return ""
		}
		return cell(i)
	}

	rec := PINRecord{
		PIN:        pin,
		City:       col("city"),
		Locality:   col("locality"),
		Tier:       col("tier"),
		Region:     col("region"),
		Properties: make(map[model.PropertyClass]ClassPrice),
	}

	gmin, err := parseOptional(col("guidance_min"))
	if err != nil {
		return rec, err
	}
	gmax, err := parseOptional(col("guidance_max"))
	if err != nil {
		return rec, err
	}
	if gmin != nil && gmax != nil {
		rec.GuidanceValue = &Bounds{Min: *gmin, Max: *gmax}
	}

	lat, err := parseOptional(col("latitude"))
	if err != nil {
		return rec, err
	}
	lon, err := parseOptional(col("longitude"))
	if err != nil {
		return rec, err
	}
	if lat != nil && lon != nil {
		rec.Centroid = &geodesy.Coordinate{Lat: *lat, Lon: *lon}
	}

	for _, class := range model.PropertyClasses {
		prefix := string(class) + "_"
		var (
			cp  ClassPrice
			set bool
		)
		fields := []struct {
			name string
			dst  **float64
		}{
			{"market_min", &cp.MarketMin},
			{"market_max", &cp.MarketMax},
			{"market_multiplier", &cp.MarketMultiplier},
			{"guidance_min", &cp.GuidanceMin},
			{"guidance_max", &cp.GuidanceMax},
			{"min", &cp.Min},
			{"max", &cp.Max},
			{"value", &cp.Value},
		}
		for _, fld := range fields {
			v, err := parseOptional(col(prefix + fld.name))
			if err != nil {
				return rec, err
			}
			if v != nil {
				*fld.dst = v
				set = true
			}
		}
		if unit := col(prefix + "unit"); unit != "" {
			cp.Unit = unit
		}
		if set {
			rec.Properties[class] = cp
		}
	}

	return rec, nil
}

func parseOptional(s string) (*float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "parse number %q", s)
	}
	return &v, nil
}

func lookupColumn(cols map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i, true
		}
	}
	return -1, false
}

func workbookSheet(f *xlsx.File, opts WorkbookOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("refdata: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("refdata: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
