package tree

import (
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// NumericFields are the props Update coerces from strings to numbers.
var NumericFields = []string{
	"minItems",
	"maxItems",
	"columns",
	"desktopItems",
	"tabletItems",
	"mobileItems",
}

func isNumericField(key string) bool {
	for _, f := range NumericFields {
		if f == key {
			return true
		}
	}
	return false
}

// CoercePatch splits patch into the values to merge and the keys to clear.
// A string value for one of the NumericFields is parsed into a float64; a
// string that is not a finite number (blank and "Infinity" included) clears
// the field instead.
// Every other key passes through as-is. patch itself is not modified.
func CoercePatch(patch domain.Patch) (domain.Patch, []string) {
	set := make(domain.Patch, len(patch))
	var unset []string
	for k, v := range patch {
		s, ok := v.(string)
		if !ok || !isNumericField(k) {
			set[k] = v
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			unset = append(unset, k)
			continue
		}
		set[k] = f
	}
	return set, unset
}
