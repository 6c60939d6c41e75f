package evidence

import (
	"github.com/ternarybob/geolex/internal/models"
)

// Normalize produces the canonical flat evaluation context for one evidence
// pack. It is a pure function: absent sub-trees resolve to empty collections,
// a missing persona is replaced by a sentinel so path lookups never fail, and
// the input pack is never modified.
//
// Derived fields:
//   - static.all_countries: union of countries across geo_branching entries
//   - static.all_regions: union of regions across data_residency entries
func Normalize(pack *models.EvidencePack) map[string]interface{} {
	packMap, err := pack.ToMap()
	if err != nil {
		// A pack that round-trips through JSON cannot fail here in practice;
		// fall back to an empty context rather than erroring.
		packMap = map[string]interface{}{}
	}

	signals, _ := packMap["signals"].(map[string]interface{})

	static, _ := signals["static"].(map[string]interface{})
	if static == nil {
		static = map[string]interface{}{}
	}
	ensureStaticDefaults(static)
	static["all_countries"] = collectCountries(pack.Static())
	static["all_regions"] = collectRegions(pack.Static())

	runtime, _ := signals["runtime"].(map[string]interface{})
	if runtime == nil {
		runtime = map[string]interface{}{}
	}
	if runtime["persona"] == nil {
		runtime["persona"] = map[string]interface{}{
			"age":     nil,
			"country": "Unknown",
			"region":  nil,
		}
	}

	metadata, _ := packMap["metadata"].(map[string]interface{})
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	return map[string]interface{}{
		"static":   static,
		"runtime":  runtime,
		"metadata": metadata,
	}
}

// ensureStaticDefaults replaces JSON nulls with empty collections so list
// paths and wildcard projections always have something to walk.
func ensureStaticDefaults(static map[string]interface{}) {
	for _, key := range []string{"geo_branching", "age_checks", "data_residency", "reporting_clients", "flags", "tags"} {
		if static[key] == nil {
			static[key] = []interface{}{}
		}
	}
	if static["reco_system"] == nil {
		static["reco_system"] = false
	}
	if static["pf_controls"] == nil {
		static["pf_controls"] = false
	}
}

func collectCountries(static *models.StaticSignals) []interface{} {
	seen := make(map[string]bool)
	out := make([]interface{}, 0)
	for _, sig := range static.GeoBranching {
		for _, country := range sig.Countries {
			if !seen[country] {
				seen[country] = true
				out = append(out, country)
			}
		}
	}
	return out
}

func collectRegions(static *models.StaticSignals) []interface{} {
	seen := make(map[string]bool)
	out := make([]interface{}, 0)
	for _, sig := range static.DataResidency {
		if sig.Region == "" || seen[sig.Region] {
			continue
		}
		seen[sig.Region] = true
		out = append(out, sig.Region)
	}
	return out
}
