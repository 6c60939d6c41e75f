package logic

import (
	"reflect"
	"strings"
)

// Eval evaluates a compiled expression against the normalized evidence
// context and returns the resulting value. Failures are returned as
// EvalError; Eval never panics and the error must be absorbed per rule by
// the caller.
func Eval(e Expr, ctx map[string]interface{}) (interface{}, error) {
	switch expr := e.(type) {
	case LiteralExpr:
		return expr.Value, nil

	case VarExpr:
		return expr.Path.Resolve(ctx), nil

	case AndExpr:
		for _, op := range expr.Operands {
			v, err := Eval(op, ctx)
			if err != nil {
				return nil, err
			}
			if !Truthy(v) {
				return false, nil
			}
		}
		return true, nil

	case OrExpr:
		for _, op := range expr.Operands {
			v, err := Eval(op, ctx)
			if err != nil {
				return nil, err
			}
			if Truthy(v) {
				return true, nil
			}
		}
		return false, nil

	case EqExpr:
		left, err := Eval(expr.Left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := Eval(expr.Right, ctx)
		if err != nil {
			return nil, err
		}
		return structuralEqual(left, right), nil

	case LtExpr:
		left, err := Eval(expr.Left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := Eval(expr.Right, ctx)
		if err != nil {
			return nil, err
		}
		return lessThan(left, right)

	case InExpr:
		needle, err := Eval(expr.Needle, ctx)
		if err != nil {
			return nil, err
		}
		haystack, err := Eval(expr.Haystack, ctx)
		if err != nil {
			return nil, err
		}
		return member(needle, haystack)

	default:
		return nil, evalErrorf("eval", "unsupported expression type %T", e)
	}
}

// EvalBool evaluates an expression and reduces the result to a boolean via
// truthiness. This is the engine's entry point for rule matching.
func EvalBool(e Expr, ctx map[string]interface{}) (bool, error) {
	v, err := Eval(e, ctx)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// Truthy reports whether a value counts as true for and/or aggregation:
// non-nil, non-false, non-zero, non-empty.
func Truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	default:
		if f, ok := asNumber(v); ok {
			return f != 0
		}
		return true
	}
}

// structuralEqual compares values after normalizing all numeric types to
// float64, so 18 == 18.0 and values decoded from different documents compare
// equal. nil equals only nil.
func structuralEqual(a, b interface{}) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	default:
		if f, ok := asNumber(v); ok {
			return f
		}
		return v
	}
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// lessThan is numeric less-than. Comparing against nil is well-defined and
// always false; a non-numeric non-nil operand is a type mismatch.
func lessThan(a, b interface{}) (bool, error) {
	if a == nil || b == nil {
		return false, nil
	}
	left, okA := asNumber(a)
	right, okB := asNumber(b)
	if !okA || !okB {
		return false, evalErrorf("<", "operands must be numeric, got %T and %T", a, b)
	}
	return left < right, nil
}

// member tests needle membership in the haystack. A nil haystack (absent or
// misspelled path) is false, not an error, matching the documented trade-off
// for evidence schema evolution. Strings use substring containment, maps use
// key membership.
func member(needle, haystack interface{}) (bool, error) {
	switch hs := haystack.(type) {
	case nil:
		return false, nil
	case []interface{}:
		for _, item := range hs {
			if structuralEqual(needle, item) {
				return true, nil
			}
		}
		return false, nil
	case string:
		s, ok := needle.(string)
		if !ok {
			return false, evalErrorf("in", "needle must be a string for string haystack, got %T", needle)
		}
		return strings.Contains(hs, s), nil
	case map[string]interface{}:
		key, ok := needle.(string)
		if !ok {
			return false, nil
		}
		_, present := hs[key]
		return present, nil
	default:
		return false, evalErrorf("in", "haystack must be a collection, got %T", haystack)
	}
}
