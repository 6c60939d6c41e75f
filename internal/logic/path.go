package logic

import "strings"

// Segment is one step of a pre-parsed variable path: either a field name or
// a wildcard projecting across every element of a list.
type Segment struct {
	Field    string
	Wildcard bool
}

// Path is a variable path compiled once at rule load time, so evaluation
// never re-splits the raw string.
type Path struct {
	Raw      string
	Segments []Segment
}

// ParsePath compiles a dot-separated path like "static.geo_branching.*.countries".
// A "*" segment projects the remaining path across every element of the list
// it follows.
func ParsePath(raw string) Path {
	parts := strings.Split(raw, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if part == "*" {
			segments = append(segments, Segment{Wildcard: true})
		} else {
			segments = append(segments, Segment{Field: part})
		}
	}
	return Path{Raw: raw, Segments: segments}
}

// Resolve walks the path against a nested map context. Unknown fields and
// type mismatches resolve to nil rather than failing, so rule authors stay
// tolerant of evidence schema evolution.
func (p Path) Resolve(ctx map[string]interface{}) interface{} {
	return resolveSegments(ctx, p.Segments)
}

func resolveSegments(value interface{}, segments []Segment) interface{} {
	for i, seg := range segments {
		if value == nil {
			return nil
		}
		if seg.Wildcard {
			list, ok := value.([]interface{})
			if !ok {
				return nil
			}
			return project(list, segments[i+1:])
		}
		m, ok := value.(map[string]interface{})
		if !ok {
			return nil
		}
		value = m[seg.Field]
	}
	return value
}

// project applies the remaining path to every element of a list and flattens
// one level when the projected value is itself a collection. This is what
// makes membership tests work across entries: "static.geo_branching.*.countries"
// yields one flat list of country codes, not a list of lists. An empty source
// list projects to an empty list.
func project(list []interface{}, rest []Segment) []interface{} {
	out := make([]interface{}, 0, len(list))
	for _, elem := range list {
		sub := resolveSegments(elem, rest)
		if sub == nil {
			continue
		}
		if nested, ok := sub.([]interface{}); ok {
			out = append(out, nested...)
			continue
		}
		out = append(out, sub)
	}
	return out
}
