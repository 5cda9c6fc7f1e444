package eval

// Expression is the AST union. There is no common method set beyond
// the empty interface; eval and the pretty-printer dispatch on the
// concrete type with a type switch, which keeps every node a plain
// struct literal.
type Expression interface{}

// Identity is the "." expression: yields its input unchanged.
type Identity struct{}

// Literal is a constant number, string, bool or null.
type Literal struct {
	Value Value
}

// FieldAccess is "target.field" ("." desugars target to Identity).
type FieldAccess struct {
	Target Expression
	Field  string
}

// IndexAccess is "target[expr]".
type IndexAccess struct {
	Target Expression
	Index  Expression
}

// Slice is "target[lo:hi]"; Lo/Hi are nil when omitted.
type Slice struct {
	Target Expression
	Lo     Expression
	Hi     Expression
}

// Iterate is "target[]": multi-output over an array's elements or an
// object's values.
type Iterate struct {
	Target Expression
}

// Pipe is "lhs | rhs".
type Pipe struct {
	Lhs Expression
	Rhs Expression
}

// Comma is "lhs, rhs": concatenates output sequences.
type Comma struct {
	Lhs Expression
	Rhs Expression
}

// ArrayCons is "[ inner ]": collects inner's outputs into one array.
type ArrayCons struct {
	Inner Expression
}

// ObjectEntry is one key/value pair of an ObjectCons.
type ObjectEntry struct {
	Key   Expression
	Value Expression
}

// ObjectCons is "{ k: v, ... }".
type ObjectCons struct {
	Entries []ObjectEntry
}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

// UnaryExpr is a unary negation or logical "not".
type UnaryExpr struct {
	Op  UnaryOp
	Arg Expression
}

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
	BinAlt // "//"
)

// BinaryExpr is a binary arithmetic/comparison/logical/alternative
// expression.
type BinaryExpr struct {
	Op  BinaryOp
	Lhs Expression
	Rhs Expression
}

// Assign is "path = rhs".
type Assign struct {
	Path Expression
	Rhs  Expression
}

// UpdateAssign is "path |= rhs".
type UpdateAssign struct {
	Path Expression
	Rhs  Expression
}

// Builtin is a call to a named built-in function.
type Builtin struct {
	Name string
	Args []Expression
}
