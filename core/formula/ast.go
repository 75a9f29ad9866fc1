package formula

// Node is an expression tree node.
type Node interface {
	node()
}

// LiteralNode is a number, string, bool or null literal. Numbers are always
// float64.
type LiteralNode struct {
	Value any
}

func (*LiteralNode) node() {}

// ColumnNode references a column of the current row.
type ColumnNode struct {
	Name string
}

func (*ColumnNode) node() {}

// BinaryNode is a op b.
type BinaryNode struct {
	Op    string // + - * / % == != < <= > >= and or
	Left  Node
	Right Node
}

func (*BinaryNode) node() {}

// UnaryNode is op x.
type UnaryNode struct {
	Op      string // - not
	Operand Node
}

func (*UnaryNode) node() {}
