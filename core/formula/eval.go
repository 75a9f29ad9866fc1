package formula

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrType           = errors.New("type mismatch")
)

func eval(n Node, env Env) (any, error) {
	switch n := n.(type) {
	case *LiteralNode:
		return n.Value, nil

	case *ColumnNode:
		v, ok := env.Lookup(n.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, n.Name)
		}
		return Normalize(v), nil

	case *UnaryNode:
		v, err := eval(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return evalUnary(n.Op, v)

	case *BinaryNode:
		switch n.Op {
		case "and", "or":
			return evalLogical(n, env)
		}
		left, err := eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		return evalBinary(n.Op, left, right)
	}

	return nil, fmt.Errorf("unknown node %T", n)
}

func evalUnary(op string, v any) (any, error) {
	switch op {
	case "-":
		if isNull(v) {
			return math.NaN(), nil
		}
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: cannot negate %s", ErrType, typeName(v))
		}
		return -f, nil
	case "not":
		b, err := truth(v)
		if err != nil {
			return nil, err
		}
		return !b, nil
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

func evalLogical(n *BinaryNode, env Env) (any, error) {
	left, err := eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	l, err := truth(left)
	if err != nil {
		return nil, err
	}
	if n.Op == "and" && !l {
		return false, nil
	}
	if n.Op == "or" && l {
		return true, nil
	}

	right, err := eval(n.Right, env)
	if err != nil {
		return nil, err
	}
	return truth(right)
}

func evalBinary(op string, left, right any) (any, error) {
	switch op {
	case "+", "-", "*", "/", "%":
		return arithmetic(op, left, right)
	case "==", "!=":
		eq := equal(left, right)
		if op == "!=" {
			return !eq, nil
		}
		return eq, nil
	case "<", "<=", ">", ">=":
		return order(op, left, right)
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

func arithmetic(op string, left, right any) (any, error) {
	if ls, ok := left.(string); ok && op == "+" {
		if rs, ok := right.(string); ok {
			return ls + rs, nil
		}
	}
	if isNull(left) || isNull(right) {
		return math.NaN(), nil
	}

	l, lok := left.(float64)
	r, rok := right.(float64)
	if !lok || !rok {
		return nil, fmt.Errorf("%w: %s %s %s", ErrType, typeName(left), op, typeName(right))
	}

	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return math.Mod(l, r), nil
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

func equal(left, right any) bool {
	if isNull(left) || isNull(right) {
		return false
	}
	switch l := left.(type) {
	case float64:
		r, ok := right.(float64)
		return ok && l == r
	case string:
		r, ok := right.(string)
		return ok && l == r
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	}
	return fmt.Sprint(left) == fmt.Sprint(right)
}

func order(op string, left, right any) (any, error) {
	if isNull(left) || isNull(right) {
		return false, nil
	}

	var c int
	switch l := left.(type) {
	case float64:
		r, ok := right.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: %s %s %s", ErrType, typeName(left), op, typeName(right))
		}
		switch {
		case l < r:
			c = -1
		case l > r:
			c = 1
		}
	case string:
		r, ok := right.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s %s %s", ErrType, typeName(left), op, typeName(right))
		}
		c = strings.Compare(l, r)
	default:
		return nil, fmt.Errorf("%w: %s %s %s", ErrType, typeName(left), op, typeName(right))
	}

	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

// truth converts a value used with and, or and not. Null is false.
func truth(v any) (bool, error) {
	if isNull(v) {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %s", ErrType, typeName(v))
	}
	return b, nil
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}

// Normalize converts numeric values of any Go type to float64. Other values
// are returned unchanged.
func Normalize(v any) any {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return n.String()
		}
		return f
	}
	return v
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "bool"
	}
	return fmt.Sprintf("%T", v)
}
