package classify

import "strings"

// Override is a manually assigned classification for an exact query string.
// Store is empty unless the segment is location-bound.
type Override struct {
	Segment Segment
	Store   string
}

// Classify assigns a segment (and store label for location-bound segments)
// to a raw query. Overrides are keyed by the query exactly as received and
// fully bypass rule evaluation. Rule matching is case-insensitive substring
// containment on the trimmed query, first match wins at every level.
func Classify(query string, overrides map[string]Override) (Segment, string) {
	q := strings.ToLower(strings.TrimSpace(query))

	if ov, ok := overrides[query]; ok {
		return ov.Segment, ov.Store
	}

	// Noise terms are unrelated-business homographs of the brand; a brand
	// term alongside one means the brand reading still wins.
	if containsAny(q, noiseTerms) && !containsAny(q, brandPureTerms) {
		return SegNoise, ""
	}

	isBrand := containsAny(q, brandPureTerms)

	for _, loc := range StoreLocations {
		if containsAny(q, loc.Excludes) {
			continue
		}
		for _, term := range loc.Terms {
			if strings.Contains(q, term) {
				if isBrand {
					return SegBrandLocation, loc.Label
				}
				return SegStoreLocal, loc.Label
			}
		}
	}

	if isBrand {
		return SegBrandPure, ""
	}
	if containsAny(q, nearMeTerms) {
		return SegNearMe, ""
	}
	if containsAny(q, onlineTerms) {
		return SegOnlineNational, ""
	}
	if containsAny(q, genericShopTerms) {
		return SegGenericShop, ""
	}
	return SegOther, ""
}

func containsAny(q string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}
