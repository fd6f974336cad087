package script

// Node is any AST node. Offset is the byte offset of the node in its source.
type Node interface {
	Offset() int
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

type pos int

func (p pos) Offset() int { return int(p) }

// Program is a parsed script: statements evaluated in order. Its value is
// the value of the last statement.
type Program struct {
	Source string
	Stmts  []Stmt
}

type (
	NumberLit struct {
		pos
		Value float64
	}
	StringLit struct {
		pos
		Value string
	}
	BoolLit struct {
		pos
		Value bool
	}
	NullLit struct {
		pos
	}
	// Ident is a bare name such as x or variables.total.
	Ident struct {
		pos
		Name string
	}
	// Ref is a braced reference such as {stage.q1.Current Value}.
	Ref struct {
		pos
		Name string
	}
	ArrayLit struct {
		pos
		Elems []Expr
	}
	Unary struct {
		pos
		Op TokenKind
		X  Expr
	}
	Binary struct {
		pos
		Op   TokenKind
		X, Y Expr
	}
	// Logical is && or ||; Y is evaluated only when needed.
	Logical struct {
		pos
		Op   TokenKind
		X, Y Expr
	}
	// Conditional covers both c ? a : b and if c then a else b.
	Conditional struct {
		pos
		Cond, Then, Else Expr
	}
	Call struct {
		pos
		Name string
		Args []Expr
	}
	Index struct {
		pos
		X, Index Expr
	}
)

func (NumberLit) exprNode()   {}
func (StringLit) exprNode()   {}
func (BoolLit) exprNode()     {}
func (NullLit) exprNode()     {}
func (Ident) exprNode()       {}
func (Ref) exprNode()         {}
func (ArrayLit) exprNode()    {}
func (Unary) exprNode()       {}
func (Binary) exprNode()      {}
func (Logical) exprNode()     {}
func (Conditional) exprNode() {}
func (Call) exprNode()        {}
func (Index) exprNode()       {}

// AssignOp distinguishes the three forms of let.
type AssignOp int

const (
	AssignValue  AssignOp = iota // let x = e
	AssignBind                   // let x &= {y}: x reads through to y
	AssignAnchor                 // let x #= {y}: x takes y's current value
)

type (
	LetStmt struct {
		pos
		Target string
		Op     AssignOp
		Value  Expr
	}
	FnStmt struct {
		pos
		Name   string
		Params []string
		Body   Expr
	}
	ExprStmt struct {
		pos
		X Expr
	}
)

func (LetStmt) stmtNode()  {}
func (FnStmt) stmtNode()   {}
func (ExprStmt) stmtNode() {}
