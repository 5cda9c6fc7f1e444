package eval

import (
	"fmt"
	"strings"
)

// Print renders expr as source text that Parse can read back. It is
// canonical rather than a literal echo of the original source: every
// binary, pipe, comma and assignment expression is fully
// parenthesized, so Print never needs to
// reconstruct precedence, which keeps it a straightforward recursive
// walk and makes Parse(Print(e)) idempotent on the resulting AST.
func Print(expr Expression) string {
	var b strings.Builder
	printExpr(&b, expr)
	return b.String()
}

func printExpr(b *strings.Builder, expr Expression) {
	switch n := expr.(type) {
	case Identity:
		b.WriteString(".")
	case Literal:
		printLiteral(b, n.Value)
	case FieldAccess:
		// ".field" sugar: the identity target stays implicit, so the
		// output never contains a "..", which lexes as DotDot.
		if _, ok := n.Target.(Identity); !ok {
			printExpr(b, n.Target)
		}
		b.WriteString(".")
		b.WriteString(n.Field)
	case IndexAccess:
		printExpr(b, n.Target)
		b.WriteString("[")
		printExpr(b, n.Index)
		b.WriteString("]")
	case Slice:
		printExpr(b, n.Target)
		b.WriteString("[")
		if n.Lo != nil {
			printExpr(b, n.Lo)
		}
		b.WriteString(":")
		if n.Hi != nil {
			printExpr(b, n.Hi)
		}
		b.WriteString("]")
	case Iterate:
		printExpr(b, n.Target)
		b.WriteString("[]")
	case Pipe:
		b.WriteString("(")
		printExpr(b, n.Lhs)
		b.WriteString(" | ")
		printExpr(b, n.Rhs)
		b.WriteString(")")
	case Comma:
		b.WriteString("(")
		printExpr(b, n.Lhs)
		b.WriteString(", ")
		printExpr(b, n.Rhs)
		b.WriteString(")")
	case ArrayCons:
		b.WriteString("[")
		if n.Inner != nil {
			printExpr(b, n.Inner)
		}
		b.WriteString("]")
	case ObjectCons:
		b.WriteString("{")
		for i, e := range n.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			printExpr(b, e.Key)
			b.WriteString(": ")
			printExpr(b, e.Value)
		}
		b.WriteString("}")
	case UnaryExpr:
		switch n.Op {
		case UnaryNeg:
			b.WriteString("-")
		case UnaryNot:
			b.WriteString("not ")
		}
		printExpr(b, n.Arg)
	case BinaryExpr:
		b.WriteString("(")
		printExpr(b, n.Lhs)
		b.WriteString(" ")
		b.WriteString(binaryOpSymbol(n.Op))
		b.WriteString(" ")
		printExpr(b, n.Rhs)
		b.WriteString(")")
	case Assign:
		b.WriteString("(")
		printExpr(b, n.Path)
		b.WriteString(" = ")
		printExpr(b, n.Rhs)
		b.WriteString(")")
	case UpdateAssign:
		b.WriteString("(")
		printExpr(b, n.Path)
		b.WriteString(" |= ")
		printExpr(b, n.Rhs)
		b.WriteString(")")
	case Builtin:
		b.WriteString(n.Name)
		if n.Args != nil {
			b.WriteString("(")
			for i, a := range n.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				printExpr(b, a)
			}
			b.WriteString(")")
		}
	default:
		fmt.Fprintf(b, "<%T>", expr)
	}
}

func printLiteral(b *strings.Builder, v Value) {
	s, ok := v.(String)
	if !ok {
		b.WriteString(v.String())
		return
	}
	// Only escapes the scanner accepts: \" \\ and \uXXXX.
	b.WriteByte('"')
	for _, r := range string(s) {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f || r == '�':
			fmt.Fprintf(b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

func binaryOpSymbol(op BinaryOp) string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinMod:
		return "%"
	case BinEq:
		return "=="
	case BinNe:
		return "!="
	case BinLt:
		return "<"
	case BinLe:
		return "<="
	case BinGt:
		return ">"
	case BinGe:
		return ">="
	case BinAnd:
		return "and"
	case BinOr:
		return "or"
	case BinAlt:
		return "//"
	default:
		return "?"
	}
}
