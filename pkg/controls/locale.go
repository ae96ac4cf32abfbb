package controls

import (
	"maps"

	"github.com/aretw0/lattice/pkg/domain"
)

// Localized returns the variant of props[key] for locale. A localized prop
// is a map from locale to value; plain values are shared by every locale.
// When the locale has no variant, fallback's variant is used.
func Localized(props map[string]any, key, locale, fallback string) (any, bool) {
	v, ok := props[key]
	if !ok {
		return nil, false
	}
	variants, ok := v.(map[string]any)
	if !ok {
		return v, true
	}
	if val, ok := variants[locale]; ok {
		return val, true
	}
	val, ok := variants[fallback]
	return val, ok
}

// LocalizedPatch returns the patch that sets the locale variant of key to
// value, keeping the other variants. A plain value is promoted to a map with
// no variants.
func LocalizedPatch(props map[string]any, key, locale string, value any) domain.Patch {
	variants := map[string]any{}
	if existing, ok := props[key].(map[string]any); ok {
		variants = maps.Clone(existing)
	}
	variants[locale] = value
	return domain.Patch{key: variants}
}
