package logic

import "encoding/json"

// Expr is a compiled logic expression. The fixed set of variants replaces the
// nested-map tag dispatch of the document form: rules are parsed once at
// catalog load and evaluated without any key inspection.
type Expr interface {
	isExpr()
}

// AndExpr is true iff every operand evaluates truthy.
type AndExpr struct {
	Operands []Expr
}

// OrExpr is true iff any operand evaluates truthy.
type OrExpr struct {
	Operands []Expr
}

// EqExpr is structural equality of its evaluated operands.
type EqExpr struct {
	Left, Right Expr
}

// LtExpr is numeric less-than. A nil operand compares false, never errors.
type LtExpr struct {
	Left, Right Expr
}

// InExpr tests membership of the evaluated needle in the evaluated haystack.
type InExpr struct {
	Needle, Haystack Expr
}

// VarExpr resolves a pre-parsed path against the evaluation context.
type VarExpr struct {
	Path Path
}

// LiteralExpr evaluates to its value unchanged.
type LiteralExpr struct {
	Value interface{}
}

func (AndExpr) isExpr()     {}
func (OrExpr) isExpr()      {}
func (EqExpr) isExpr()      {}
func (LtExpr) isExpr()      {}
func (InExpr) isExpr()      {}
func (VarExpr) isExpr()     {}
func (LiteralExpr) isExpr() {}

// ParseLogic compiles the json-logic style document form into a typed tree.
// A malformed tree (unknown operator, wrong arity, non-string var path)
// returns an EvalError; the catalog records it so the engine can report the
// rule as failing without aborting the run.
func ParseLogic(raw json.RawMessage) (Expr, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, evalErrorf("parse", "invalid logic document: %v", err)
	}
	return parseNode(doc)
}

func parseNode(node interface{}) (Expr, error) {
	m, ok := node.(map[string]interface{})
	if !ok {
		// Strings, numbers, booleans, and lists evaluate to themselves.
		return LiteralExpr{Value: node}, nil
	}
	if len(m) != 1 {
		return nil, evalErrorf("parse", "operator node must have exactly one key, got %d", len(m))
	}

	var op string
	var operand interface{}
	for k, v := range m {
		op, operand = k, v
	}

	switch op {
	case "and", "or":
		operands, err := parseOperandList(op, operand, 1)
		if err != nil {
			return nil, err
		}
		if op == "and" {
			return AndExpr{Operands: operands}, nil
		}
		return OrExpr{Operands: operands}, nil

	case "==", "<", "in":
		operands, err := parseOperandList(op, operand, 2)
		if err != nil {
			return nil, err
		}
		if len(operands) != 2 {
			return nil, evalErrorf(op, "expected 2 operands, got %d", len(operands))
		}
		switch op {
		case "==":
			return EqExpr{Left: operands[0], Right: operands[1]}, nil
		case "<":
			return LtExpr{Left: operands[0], Right: operands[1]}, nil
		default:
			return InExpr{Needle: operands[0], Haystack: operands[1]}, nil
		}

	case "var":
		path, ok := operand.(string)
		if !ok {
			return nil, evalErrorf("var", "path must be a string, got %T", operand)
		}
		return VarExpr{Path: ParsePath(path)}, nil

	default:
		return nil, evalErrorf("parse", "unknown operator %q", op)
	}
}

func parseOperandList(op string, operand interface{}, min int) ([]Expr, error) {
	list, ok := operand.([]interface{})
	if !ok {
		return nil, evalErrorf(op, "operands must be a list, got %T", operand)
	}
	if len(list) < min {
		return nil, evalErrorf(op, "expected at least %d operand(s), got %d", min, len(list))
	}
	operands := make([]Expr, 0, len(list))
	for _, item := range list {
		expr, err := parseNode(item)
		if err != nil {
			return nil, err
		}
		operands = append(operands, expr)
	}
	return operands, nil
}
