package ir

// BinOp is a binary operator. The Un suffix marks the unsigned/unordered
// flavor of an operator.
type BinOp uint8

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	DivUn
	Rem
	RemUn
	Eq
	Lt
	LtUn
	Gt
	GtUn
	Or
	XOr
	And
	Shl
	Shr
	ShrUn
)

var binOpNames = [...]string{
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", DivUn: "div.un",
	Rem: "rem", RemUn: "rem.un", Eq: "eq", Lt: "lt", LtUn: "lt.un",
	Gt: "gt", GtUn: "gt.un", Or: "or", XOr: "xor", And: "and",
	Shl: "shl", Shr: "shr", ShrUn: "shr.un",
}

// BinOps lists every binary operator.
var BinOps = []BinOp{Add, Sub, Mul, Div, DivUn, Rem, RemUn, Eq, Lt, LtUn, Gt, GtUn, Or, XOr, And, Shl, Shr, ShrUn}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "binop?"
}

// ParseBinOp is the inverse of BinOp.String.
func ParseBinOp(s string) (BinOp, bool) {
	for i, name := range binOpNames {
		if name == s {
			return BinOp(i), true
		}
	}
	return 0, false
}

// UnOp is a unary operator.
type UnOp uint8

const (
	Not UnOp = iota
	Neg
)

func (op UnOp) String() string {
	if op == Not {
		return "not"
	}
	return "neg"
}

// Extend selects zero or sign extension for integer casts.
type Extend uint8

const (
	ZeroExtend Extend = iota
	SignExtend
)

// CondKind is the shape of a branch condition.
type CondKind uint8

const (
	CondAlways CondKind = iota
	CondTrue
	CondFalse
	CondEq
	CondNe
	CondLt
	CondGt
	CondLe
	CondGe
)

var condNames = [...]string{
	CondAlways: "always", CondTrue: "true", CondFalse: "false",
	CondEq: "eq", CondNe: "ne", CondLt: "lt", CondGt: "gt", CondLe: "le", CondGe: "ge",
}

func (k CondKind) String() string {
	if int(k) < len(condNames) {
		return condNames[k]
	}
	return "cond?"
}

// ParseCondKind is the inverse of CondKind.String.
func ParseCondKind(s string) (CondKind, bool) {
	for i, name := range condNames {
		if name == s {
			return CondKind(i), true
		}
	}
	return 0, false
}

// Relational reports whether the condition compares two operands.
func (k CondKind) Relational() bool {
	return k >= CondEq
}
