package refdata

import (
	"fmt"
	"math"

	"github.com/sells-group/propval/internal/model"
)

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a dataset.
type Issue struct {
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Severity, i.Subject, i.Message)
}

// Validate checks that every city table prices every class in every tier
// and that every PIN record is attached to a known city and can price the
// classes it lists. An empty result means the dataset is usable.
func Validate(d *Dataset) []Issue {
	var issues []Issue
	add := func(sev Severity, subject, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	for _, c := range d.Cities() {
		subject := "city " + c.Key
		if !c.Center.Valid() {
			add(SeverityError, subject, "reference center %v is not a valid coordinate", c.Center.Coordinate)
		}
		for _, class := range model.PropertyClasses {
			if !positive(c.Flat[class]) {
				add(SeverityError, subject, "no flat %s price", class)
			}
			for _, t := range Tiers {
				if !positive(c.TierPrices[t][class]) {
					add(SeverityError, subject, "no %s tier %s price", t, class)
				}
			}
		}
		for area, t := range c.Areas {
			if _, ok := c.TierPrices[t]; !ok {
				add(SeverityError, subject, "area %s maps to unknown tier %q", area, t)
			}
		}
		for name, v := range c.NamedPlots {
			if !positive(v) {
				add(SeverityError, subject, "named plot guidance %s is not positive", name)
			}
		}
	}

	for _, r := range d.PINs() {
		subject := "pin " + r.PIN
		if !ValidPIN(r.PIN) {
			add(SeverityError, subject, "not a six digit PIN code")
		}
		if _, ok := d.City(r.City); !ok {
			add(SeverityError, subject, "unknown city %q", r.City)
		} else if inferred := CityForPIN(r.PIN); inferred != "" && inferred != r.City {
			add(SeverityWarning, subject, "city %q differs from the %q PIN prefix", r.City, inferred)
		}
		if r.Centroid != nil && !r.Centroid.Valid() {
			add(SeverityError, subject, "centroid %v is not a valid coordinate", *r.Centroid)
		}
		if len(r.Properties) == 0 {
			add(SeverityWarning, subject, "no property classes")
		}
		for class := range r.Properties {
			if _, ok := model.ParsePropertyClass(string(class)); !ok {
				add(SeverityWarning, subject, "unknown property class %q", class)
				continue
			}
			if _, ok := r.Range(class); !ok {
				add(SeverityError, subject, "%s has no positive price range", class)
			}
		}
	}

	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
