package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/valerr"
)

var valuateCmd = &cobra.Command{
	Use:   "valuate <apartment|plot|villa|agricultural>",
	Short: "Value a single property",
	Long: `Values one property and prints the result as JSON.

The location mode follows the selectors given: --pin selects PIN code mode,
--area selects tiered mode, --city alone selects flat mode. Coordinates
(--lat and --lon) override --distance.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req, err := requestFromFlags(cmd.Flags(), args[0])
		if err != nil {
			return err
		}

		env, err := initEngine(ctx, "valuate", false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Engine.Valuate(req)
		if err != nil {
			writeValuationError(os.Stdout, err)
			return eris.Wrap(err, "valuate")
		}
		return printJSON(os.Stdout, res)
	},
}

func init() {
	addValuateFlags(valuateCmd.Flags())
	rootCmd.AddCommand(valuateCmd)
}

func addValuateFlags(f *pflag.FlagSet) {
	f.String("city", "", "city name (bangalore or mysore)")
	f.String("area", "", "area or locality name")
	f.String("pin", "", "6-digit PIN code")
	f.Float64("lat", 0, "latitude of the property")
	f.Float64("lon", 0, "longitude of the property")
	f.Float64("distance", 0, "distance from the city center or PIN centroid, in km")
	f.Float64("sqft", 0, "built-up or plot area in square feet")
	f.Float64("acres", 0, "land area in acres")
	f.Int("bedrooms", 0, "number of bedrooms")
	f.Int("age", 0, "building age in years")
	f.String("furnishing", "", "unfurnished, semi_furnished or fully_furnished")
	f.String("road", "", "road facing: main_road or inner_road")
	f.Bool("corner", false, "corner plot")
	f.StringSlice("amenities", nil, "villa amenities (pool, gym, gated, private_garden)")
	f.String("water", "", "water access: wet, garden or dry")
	f.String("potential", "", "development potential: high, medium or low")
}

// requestFromFlags builds a wire request from valuate flags. Optional
// numeric selectors are set only when their flag was given.
func requestFromFlags(f *pflag.FlagSet, class string) (model.Request, error) {
	if _, ok := model.ParsePropertyClass(class); !ok {
		return model.Request{}, eris.Errorf("unknown property type %q", class)
	}

	req := model.Request{PropertyType: class}
	req.City, _ = f.GetString("city")
	req.AreaName, _ = f.GetString("area")
	req.PINCode, _ = f.GetString("pin")
	req.SqFt, _ = f.GetFloat64("sqft")
	req.Acres, _ = f.GetFloat64("acres")
	req.Bedrooms, _ = f.GetInt("bedrooms")
	req.AgeYears, _ = f.GetInt("age")
	req.Furnishing, _ = f.GetString("furnishing")
	req.RoadFacing, _ = f.GetString("road")
	req.CornerPlot, _ = f.GetBool("corner")
	req.Amenities, _ = f.GetStringSlice("amenities")
	req.WaterAccess, _ = f.GetString("water")
	req.DevelopmentPotential, _ = f.GetString("potential")

	req.Latitude = changedFloat(f, "lat")
	req.Longitude = changedFloat(f, "lon")
	req.DistanceKM = changedFloat(f, "distance")

	if strings.TrimSpace(req.City) == "" && strings.TrimSpace(req.PINCode) == "" {
		return req, eris.New("either --city or --pin is required")
	}
	return req, nil
}

func changedFloat(f *pflag.FlagSet, name string) *float64 {
	if !f.Changed(name) {
		return nil
	}
	v, err := f.GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

type valuationError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeValuationError(w io.Writer, err error) {
	_ = printJSON(w, valuationError{Error: valerr.Message(err), Kind: string(valerr.KindOf(err))})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
