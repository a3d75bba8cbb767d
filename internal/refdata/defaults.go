package refdata

import (
	"github.com/sells-group/propval/internal/geodesy"
	"github.com/sells-group/propval/internal/model"
)

// ReferencePlotSqFt is the lot size the plot lot prices below are quoted for.
const ReferencePlotSqFt = 2400

// Lot and villa prices are quoted per reference parcel; the tables store
// them per unit.
const (
	bangalorePlotLot  = 1140000.0
	mysorePlotLot     = 385000.0
	bangaloreVilla2Ac = 6000000.0
	mysoreVilla2Ac    = 1600000.0
)

// mysoreWestGuidance is government guidance per sq.ft for named Mysore West
// layouts.
var mysoreWestGuidance = map[string]float64{
	"yogakshema_housing_coop":   7000,
	"nithyanandasagara_telecom": 7000,
	"silver_springs":            11000,
	"bharathi_enclave":          12000,
	"bharathi_monarch":          10000,
	"royal_enclave":             8500,
	"sky_top_green_city":        7500,
	"spoorthy_sunshine":         8500,
	"mysore_west_average":       9187,
}

// Default returns the built-in dataset with no PIN records.
func Default() *Dataset {
	return New([]City{bangalore(), mysore()}, nil)
}

func bangalore() City {
	flat := ClassPrices{
		model.Apartment:    11750,
		model.Plot:         bangalorePlotLot / ReferencePlotSqFt,
		model.Villa:        bangaloreVilla2Ac / 2,
		model.Agricultural: 2750000,
	}
	return City{
		Key:  "bangalore",
		Name: "Bangalore",
		Center: Center{
			Name:       "MG Road / Brigade Road (CBD)",
			Coordinate: geodesy.Coordinate{Lat: 12.9716, Lon: 77.6412},
		},
		Flat: flat,
		TierPrices: map[Tier]ClassPrices{
			TierPremium: {
				model.Apartment:    16500,
				model.Plot:         665,
				model.Villa:        4200000,
				model.Agricultural: 3850000,
			},
			TierMid: flat,
			TierBudget: {
				model.Apartment:    7600,
				model.Plot:         310,
				model.Villa:        1950000,
				model.Agricultural: 1800000,
			},
		},
		Areas: areaTiers(
			[]string{"koramangala", "indiranagar", "jayanagar", "sadashivanagar", "malleshwaram", "mg_road", "richmond_town", "hsr_layout"},
			[]string{"whitefield", "marathahalli", "jp_nagar", "btm_layout", "hebbal", "yelahanka", "banashankari", "rajajinagar"},
			[]string{"electronic_city", "hoskote", "kengeri", "anekal", "attibele", "bidadi", "nelamangala"},
		),
		DefaultTier: TierMid,
	}
}

func mysore() City {
	flat := ClassPrices{
		model.Apartment:    9187,
		model.Plot:         mysorePlotLot / ReferencePlotSqFt,
		model.Villa:        mysoreVilla2Ac / 2,
		model.Agricultural: 2000000,
	}

	mid := []string{"vijayanagar", "kuvempunagar", "jp_nagar", "ramakrishnanagar", "srirampura"}
	for k := range mysoreWestGuidance {
		mid = append(mid, k)
	}

	named := make(map[string]float64, len(mysoreWestGuidance))
	for k, v := range mysoreWestGuidance {
		named[k] = v
	}

	return City{
		Key:  "mysore",
		Name: "Mysore",
		Center: Center{
			Name:       "Devaraja Market / Sayyaji Rao Rd (CBD)",
			Coordinate: geodesy.Coordinate{Lat: 12.3099, Lon: 76.6474},
		},
		Flat: flat,
		TierPrices: map[Tier]ClassPrices{
			TierPremium: {
				model.Apartment:    12500,
				model.Plot:         225,
				model.Villa:        1120000,
				model.Agricultural: 2800000,
			},
			TierMid: flat,
			TierBudget: {
				model.Apartment:    6000,
				model.Plot:         105,
				model.Villa:        520000,
				model.Agricultural: 1300000,
			},
		},
		Areas: areaTiers(
			[]string{"saraswathipuram", "jayalakshmipuram", "gokulam", "vv_mohalla", "yadavagiri", "lakshmipuram"},
			mid,
			[]string{"hootagalli", "bogadi", "hebbal", "bannimantap", "ilavala", "srirangapatna"},
		),
		DefaultTier: TierMid,
		NamedPlots:  named,
	}
}

func areaTiers(premium, mid, budget []string) map[string]Tier {
	out := make(map[string]Tier, len(premium)+len(mid)+len(budget))
	for _, a := range premium {
		out[a] = TierPremium
	}
	for _, a := range mid {
		out[a] = TierMid
	}
	for _, a := range budget {
		out[a] = TierBudget
	}
	return out
}
