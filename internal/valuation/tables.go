package valuation

import "github.com/sells-group/propval/internal/model"

// Point quotes are widened by a symmetric band around the mid price.
var bands = map[model.PropertyClass]float64{
	model.Apartment:    0.10,
	model.Plot:         0.10,
	model.Villa:        0.15,
	model.Agricultural: 0.10,
}

// Confidence labels for city-level (flat and tiered) valuations.
var cityConfidence = map[model.PropertyClass]string{
	model.Apartment:    "75-80%",
	model.Plot:         "70-75%",
	model.Villa:        "65-70%",
	model.Agricultural: "60-65%",
}

// Confidence labels for PIN code valuations.
var pinConfidence = map[model.PropertyClass]string{
	model.Apartment:    "80-85%",
	model.Plot:         "75-80%",
	model.Villa:        "70-75%",
	model.Agricultural: "65-70%",
}

// Band returns the relative half-width applied to point quotes of class.
func Band(class model.PropertyClass) float64 {
	return bands[class]
}

// Confidence returns the static confidence label for class in mode.
func Confidence(class model.PropertyClass, mode model.Mode) string {
	if mode == model.ModePIN {
		return pinConfidence[class]
	}
	return cityConfidence[class]
}
