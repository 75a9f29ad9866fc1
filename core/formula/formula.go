// Package formula implements the restricted expression language used by
// formula stages. Expressions read column values of a single row and support
// arithmetic, comparison and boolean operators only: there are no function
// calls, no attribute access and no bindings besides the row itself.
package formula

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotAssignment is returned by ParseAssignment for plain expressions.
var ErrNotAssignment = errors.New("expression is not an assignment")

// Env resolves column names for the row being evaluated.
type Env interface {
	Lookup(column string) (any, bool)
}

// MapEnv is an Env backed by a map.
type MapEnv map[string]any

func (m MapEnv) Lookup(column string) (any, bool) {
	v, ok := m[column]
	return v, ok
}

// Expr is a compiled expression.
type Expr struct {
	src  string
	root Node
}

// Parse compiles an expression. Assignments are rejected.
func Parse(src string) (*Expr, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	for _, t := range tokens {
		if t.kind == tokAssign {
			return nil, fmt.Errorf("unexpected \"=\" at %d", t.pos)
		}
	}

	p := &parser{tokens: tokens}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Expr{src: src, root: root}, nil
}

var assignmentPattern = regexp.MustCompile("(?s)^\\s*([A-Za-z_][A-Za-z0-9_.]*|`[^`]+`)\\s*=([^=].*)?$")

// IsAssignment reports whether src has the shape "name = expression".
func IsAssignment(src string) bool {
	return assignmentPattern.MatchString(src)
}

// ParseAssignment compiles "name = expression" and returns the target column
// with the compiled right hand side.
func ParseAssignment(src string) (string, *Expr, error) {
	m := assignmentPattern.FindStringSubmatch(src)
	if m == nil {
		return "", nil, ErrNotAssignment
	}

	target := strings.Trim(m[1], "`")
	body := strings.TrimSpace(m[2])
	if body == "" {
		return "", nil, fmt.Errorf("missing expression after \"%s =\"", target)
	}

	expr, err := Parse(body)
	if err != nil {
		return "", nil, err
	}
	return target, expr, nil
}

// Eval evaluates the expression against a row.
func (e *Expr) Eval(env Env) (any, error) {
	return eval(e.root, env)
}

// Columns returns the distinct column names referenced by the expression.
func (e *Expr) Columns() []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(Node)
	walk = func(n Node) {
		switch n := n.(type) {
		case *ColumnNode:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
		case *BinaryNode:
			walk(n.Left)
			walk(n.Right)
		case *UnaryNode:
			walk(n.Operand)
		}
	}
	walk(e.root)
	return out
}

func (e *Expr) String() string {
	return e.src
}
