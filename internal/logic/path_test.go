package logic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geoContext(countryLists ...[]interface{}) map[string]interface{} {
	entries := make([]interface{}, 0, len(countryLists))
	for _, countries := range countryLists {
		entries = append(entries, map[string]interface{}{
			"file":      "geo.go",
			"line":      float64(10),
			"countries": countries,
		})
	}
	return map[string]interface{}{
		"static": map[string]interface{}{
			"geo_branching": entries,
		},
	}
}

func TestParsePath(t *testing.T) {
	p := ParsePath("static.geo_branching.*.countries")
	require.Len(t, p.Segments, 4)
	assert.Equal(t, "static", p.Segments[0].Field)
	assert.False(t, p.Segments[0].Wildcard)
	assert.True(t, p.Segments[2].Wildcard)
	assert.Equal(t, "countries", p.Segments[3].Field)
}

func TestResolve_Simple(t *testing.T) {
	ctx := map[string]interface{}{
		"metadata": map[string]interface{}{
			"repo": "org/app",
		},
	}

	assert.Equal(t, "org/app", ParsePath("metadata.repo").Resolve(ctx))
	assert.Nil(t, ParsePath("metadata.commit").Resolve(ctx))
	assert.Nil(t, ParsePath("nowhere.at.all").Resolve(ctx))
}

func TestResolve_WildcardProjection(t *testing.T) {
	ctx := geoContext(
		[]interface{}{"US", "CA"},
		[]interface{}{"FR"},
	)

	resolved := ParsePath("static.geo_branching.*.countries").Resolve(ctx)
	projected, ok := resolved.([]interface{})
	require.True(t, ok)
	// Projected country lists flatten one level, preserving entry order
	assert.Equal(t, []interface{}{"US", "CA", "FR"}, projected)
}

func TestResolve_WildcardOverEmptyList(t *testing.T) {
	ctx := geoContext()

	resolved := ParsePath("static.geo_branching.*.countries").Resolve(ctx)
	projected, ok := resolved.([]interface{})
	require.True(t, ok)
	assert.Empty(t, projected)
}

func TestResolve_WildcardSkipsMissingFields(t *testing.T) {
	ctx := map[string]interface{}{
		"static": map[string]interface{}{
			"geo_branching": []interface{}{
				map[string]interface{}{"file": "a.go"},
				map[string]interface{}{"file": "b.go", "countries": []interface{}{"DE"}},
			},
		},
	}

	resolved := ParsePath("static.geo_branching.*.countries").Resolve(ctx)
	assert.Equal(t, []interface{}{"DE"}, resolved)
}

func TestMembership_AcrossProjectedLists(t *testing.T) {
	// Membership must hold across all entries, not just the first
	ctx := geoContext(
		[]interface{}{"US", "CA"},
		[]interface{}{"FR"},
	)

	expr, err := ParseLogic(json.RawMessage(`{"in": ["CA", {"var": "static.geo_branching.*.countries"}]}`))
	require.NoError(t, err)

	v, evalErr := Eval(expr, ctx)
	require.NoError(t, evalErr)
	assert.Equal(t, true, v)

	expr, err = ParseLogic(json.RawMessage(`{"in": ["UT", {"var": "static.geo_branching.*.countries"}]}`))
	require.NoError(t, err)
	v, evalErr = Eval(expr, ctx)
	require.NoError(t, evalErr)
	assert.Equal(t, false, v)
}
