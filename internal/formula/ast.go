package formula

// node is one expression tree node. The grammar is closed: numbers, named
// series/parameters, unary minus, binary arithmetic/comparison, and calls to
// the fixed function set.
type node interface {
	exprNode()
}

type numberNode struct {
	Value float64
}

type identNode struct {
	Name string
}

type unaryNode struct {
	Op      tokenKind
	Operand node
}

type binaryNode struct {
	Op    tokenKind
	Left  node
	Right node
}

type callNode struct {
	Name string
	Args []node
}

func (numberNode) exprNode() {}
func (identNode) exprNode()  {}
func (unaryNode) exprNode()  {}
func (binaryNode) exprNode() {}
func (callNode) exprNode()   {}
