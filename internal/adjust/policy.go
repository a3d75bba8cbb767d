package adjust

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/propval/internal/model"
)

// CornerPolicy selects which corner-plot premium is active.
type CornerPolicy string

const (
	// CornerByMode uses 1.05 for flat and tiered valuations and 1.15 for PIN code valuations.
	CornerByMode CornerPolicy = "by_mode"
	// CornerStandard always uses 1.05.
	CornerStandard CornerPolicy = "standard"
	// CornerPINCode always uses 1.15.
	CornerPINCode CornerPolicy = "pincode"
)

// ParseCornerPolicy validates a configured policy name. Empty means CornerByMode.
func ParseCornerPolicy(s string) (CornerPolicy, error) {
	switch p := CornerPolicy(model.NormalizeKey(s)); p {
	case "":
		return CornerByMode, nil
	case CornerByMode, CornerStandard, CornerPINCode:
		return p, nil
	default:
		return "", eris.Errorf("adjust: unknown corner policy %q", s)
	}
}

// Premium returns the corner premium for a valuation in the given mode.
func (p CornerPolicy) Premium(mode model.Mode) float64 {
	switch p {
	case CornerStandard:
		return StandardCornerPremium
	case CornerPINCode:
		return PINCodeCornerPremium
	default:
		if mode == model.ModePIN {
			return PINCodeCornerPremium
		}
		return StandardCornerPremium
	}
}
