package eval

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// zeroArgBuiltins names the built-ins that operate on the current
// evaluation value when written bare (no call parens) or with an
// empty argument list: a bare identifier at primary position matching
// one of these produces Builtin{name, args: nil}, per the identifier
// resolution rule. Any other bare identifier at primary position is a
// parse error.
var zeroArgBuiltins = map[string]bool{
	"keys":         true,
	"length":       true,
	"type":         true,
	"sort":         true,
	"reverse":      true,
	"unique":       true,
	"flatten":      true,
	"first":        true,
	"last":         true,
	"add":          true,
	"tostring":     true,
	"tonumber":     true,
	"empty":        true,
	"not":          true,
	"values":       true,
	"min":          true,
	"max":          true,
	"to_entries":   true,
	"from_entries": true,
}

// explicitArgBuiltins names the built-ins that require call syntax
// with a fixed argument count.
var explicitArgBuiltins = map[string]int{
	"has":      2,
	"map":      2,
	"filter":   2,
	"select":   1,
	"group_by": 2,
	"env":      1,
	"contains": 1,
	"ltrimstr": 1,
	"rtrimstr": 1,
}

// ParseString parses a single expression from its source text.
func ParseString(src string) (Expression, error) {
	return Parse(strings.NewReader(src))
}

// Parse parses a single expression read in full from r.
func Parse(r io.Reader) (Expression, error) {
	p, err := NewParser(r)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// Parser is a recursive-descent parser with explicit precedence
// climbing over the grammar's eleven levels.
type Parser struct {
	scan *Scanner
	curr Token
	peek Token
}

// NewParser prepares a Parser over r, primed with its first two
// tokens.
func NewParser(r io.Reader) (*Parser, error) {
	scan, err := Scan(r)
	if err != nil {
		return nil, err
	}
	p := &Parser{scan: scan}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.curr = p.peek
	tok, err := p.scan.Next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

// Parse parses one full expression and requires EOF to follow.
func (p *Parser) Parse() (Expression, error) {
	expr, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if !p.is(EOF) {
		return nil, p.unexpected("end of expression")
	}
	return expr, nil
}

// Level 1: pipe, lowest precedence, left-associative.
func (p *Parser) parsePipe() (Expression, error) {
	left, err := p.parseComma()
	if err != nil {
		return nil, err
	}
	for p.is(TokPipe) {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseComma()
		if err != nil {
			return nil, err
		}
		left = Pipe{Lhs: left, Rhs: right}
	}
	return left, nil
}

// Level 2: comma, concatenates output sequences, left-associative.
func (p *Parser) parseComma() (Expression, error) {
	left, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	for p.is(TokComma) {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		left = Comma{Lhs: left, Rhs: right}
	}
	return left, nil
}

// Level 3: assignment, right-associative.
func (p *Parser) parseAssign() (Expression, error) {
	left, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	switch {
	case p.is(TokAssign):
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return Assign{Path: left, Rhs: rhs}, nil
	case p.is(PipeEq):
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return UpdateAssign{Path: left, Rhs: rhs}, nil
	default:
		return left, nil
	}
}

// Level 4: alternative "//", right-associative.
func (p *Parser) parseAlt() (Expression, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.is(SlashSlash) {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: BinAlt, Lhs: left, Rhs: right}, nil
	}
	return left, nil
}

// Level 5: logical or.
func (p *Parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.is(Or) {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: BinOr, Lhs: left, Rhs: right}
	}
	return left, nil
}

// Level 6: logical and.
func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.is(And) {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: BinAnd, Lhs: left, Rhs: right}
	}
	return left, nil
}

var comparisonOps = map[rune]BinaryOp{
	EqEq:  BinEq,
	NotEq: BinNe,
	Lt:    BinLt,
	Le:    BinLe,
	Gt:    BinGt,
	Ge:    BinGe,
}

// Level 7: comparison, non-associative — chaining is a parse error.
func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOps[p.curr.Type]
	if !ok {
		return left, nil
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, chained := comparisonOps[p.curr.Type]; chained {
		return nil, p.unexpected("end of comparison (chained comparisons are not allowed)")
	}
	return BinaryExpr{Op: op, Lhs: left, Rhs: right}, nil
}

// Level 8: additive, left-associative.
func (p *Parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.is(Plus) || p.is(Minus) {
		op := BinAdd
		if p.is(Minus) {
			op = BinSub
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Lhs: left, Rhs: right}
	}
	return left, nil
}

// Level 9: multiplicative, left-associative.
func (p *Parser) parseMultiplicative() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.is(Star) || p.is(Slash) || p.is(Percent) {
		var op BinaryOp
		switch p.curr.Type {
		case Star:
			op = BinMul
		case Slash:
			op = BinDiv
		case Percent:
			op = BinMod
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Lhs: left, Rhs: right}
	}
	return left, nil
}

// Level 10: unary negation and logical "not".
func (p *Parser) parseUnary() (Expression, error) {
	switch {
	case p.is(Minus):
		if err := p.next(); err != nil {
			return nil, err
		}
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: UnaryNeg, Arg: arg}, nil
	case p.is(Not):
		if err := p.next(); err != nil {
			return nil, err
		}
		switch p.curr.Type {
		case EOF, TokPipe, TokComma, RParen, RBracket, RBrace:
			// "not" with no operand after it is the zero-arg builtin.
			return Builtin{Name: "not"}, nil
		}
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: UnaryNot, Arg: arg}, nil
	default:
		return p.parsePostfix()
	}
}

// Level 11: postfix field access, index, slice and iterate.
func (p *Parser) parsePostfix() (Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.is(Dot) && p.peek.Type == Ident:
			if err := p.next(); err != nil {
				return nil, err
			}
			field := p.curr.Literal
			if err := p.next(); err != nil {
				return nil, err
			}
			left = FieldAccess{Target: left, Field: field}
		case p.is(LBracket):
			left, err = p.parseBracket(left)
			if err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseBracket(target Expression) (Expression, error) {
	if err := p.next(); err != nil { // consume '['
		return nil, err
	}
	if p.is(RBracket) {
		if err := p.next(); err != nil {
			return nil, err
		}
		return Iterate{Target: target}, nil
	}

	var lo Expression
	var err error
	if !p.is(Colon) {
		lo, err = p.parsePipe()
		if err != nil {
			return nil, err
		}
	}
	if p.is(Colon) {
		if err := p.next(); err != nil {
			return nil, err
		}
		var hi Expression
		if !p.is(RBracket) {
			hi, err = p.parsePipe()
			if err != nil {
				return nil, err
			}
		}
		if err := p.expect(RBracket); err != nil {
			return nil, err
		}
		return Slice{Target: target, Lo: lo, Hi: hi}, nil
	}
	if err := p.expect(RBracket); err != nil {
		return nil, err
	}
	return IndexAccess{Target: target, Index: lo}, nil
}

// Level 12: primary — literals, identifiers/builtins, groups,
// constructors, identity and its sugared forms.
func (p *Parser) parsePrimary() (Expression, error) {
	switch {
	case p.is(Dot):
		return p.parseDotPrimary()
	case p.is(DotDot):
		return nil, p.unexpected("'..' is reserved and not supported")
	case p.is(Num):
		v, err := strconv.ParseFloat(p.curr.Literal, 64)
		if err != nil {
			return nil, &ParseError{Offset: p.curr.Offset, Got: p.curr.String(), Expected: "number"}
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return Literal{Value: Float(v)}, nil
	case p.is(Str):
		lit := p.curr.Literal
		if err := p.next(); err != nil {
			return nil, err
		}
		return Literal{Value: String(lit)}, nil
	case p.is(True):
		if err := p.next(); err != nil {
			return nil, err
		}
		return Literal{Value: Bool(true)}, nil
	case p.is(False):
		if err := p.next(); err != nil {
			return nil, err
		}
		return Literal{Value: Bool(false)}, nil
	case p.is(TokNull):
		if err := p.next(); err != nil {
			return nil, err
		}
		return Literal{Value: Null{}}, nil
	case p.is(Ident):
		return p.parseIdentPrimary()
	case p.is(LParen):
		if err := p.next(); err != nil {
			return nil, err
		}
		expr, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RParen); err != nil {
			return nil, err
		}
		return expr, nil
	case p.is(LBracket):
		return p.parseArrayCons()
	case p.is(LBrace):
		return p.parseObjectCons()
	default:
		return nil, p.unexpected("an expression")
	}
}

func (p *Parser) parseDotPrimary() (Expression, error) {
	if err := p.next(); err != nil { // consume '.'
		return nil, err
	}
	if p.is(Ident) {
		field := p.curr.Literal
		if err := p.next(); err != nil {
			return nil, err
		}
		return FieldAccess{Target: Identity{}, Field: field}, nil
	}
	return Identity{}, nil
}

func (p *Parser) parseIdentPrimary() (Expression, error) {
	tok := p.curr
	name := tok.Literal
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.is(LParen) {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if want, ok := explicitArgBuiltins[name]; ok && want != len(args) {
			return nil, &ParseError{
				Offset:   tok.Offset,
				Got:      fmt.Sprintf("%d argument(s) to %s", len(args), name),
				Expected: fmt.Sprintf("%d", want),
			}
		}
		if !zeroArgBuiltins[name] {
			if _, ok := explicitArgBuiltins[name]; !ok {
				return nil, &ParseError{Offset: tok.Offset, Got: tok.String(), Expected: "a built-in function name"}
			}
		}
		return Builtin{Name: name, Args: args}, nil
	}
	if zeroArgBuiltins[name] {
		return Builtin{Name: name, Args: nil}, nil
	}
	if _, ok := explicitArgBuiltins[name]; ok {
		return nil, &ParseError{Offset: tok.Offset, Got: tok.String(), Expected: name + "(...) with arguments"}
	}
	return nil, &ParseError{Offset: tok.Offset, Got: tok.String(), Expected: "a built-in function or ." + name + " for field access"}
}

func (p *Parser) parseArgs() ([]Expression, error) {
	if err := p.next(); err != nil { // consume '('
		return nil, err
	}
	var args []Expression
	if p.is(RParen) {
		if err := p.next(); err != nil {
			return nil, err
		}
		return args, nil
	}
	for {
		arg, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.is(TokComma) {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expect(RParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseArrayCons() (Expression, error) {
	if err := p.next(); err != nil { // consume '['
		return nil, err
	}
	if p.is(RBracket) {
		if err := p.next(); err != nil {
			return nil, err
		}
		return ArrayCons{Inner: nil}, nil
	}
	inner, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if err := p.expect(RBracket); err != nil {
		return nil, err
	}
	return ArrayCons{Inner: inner}, nil
}

func (p *Parser) parseObjectCons() (Expression, error) {
	if err := p.next(); err != nil { // consume '{'
		return nil, err
	}
	var entries []ObjectEntry
	if p.is(RBrace) {
		if err := p.next(); err != nil {
			return nil, err
		}
		return ObjectCons{Entries: entries}, nil
	}
	for {
		key, err := p.parseObjectKey()
		if err != nil {
			return nil, err
		}
		if err := p.expect(Colon); err != nil {
			return nil, err
		}
		val, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		entries = append(entries, ObjectEntry{Key: key, Value: val})
		if p.is(TokComma) {
			if err := p.next(); err != nil {
				return nil, err
			}
			if p.is(RBrace) {
				return nil, p.unexpected("an object entry (trailing comma is not allowed)")
			}
			continue
		}
		break
	}
	if err := p.expect(RBrace); err != nil {
		return nil, err
	}
	return ObjectCons{Entries: entries}, nil
}

func (p *Parser) parseObjectKey() (Expression, error) {
	switch {
	case p.is(Ident):
		lit := p.curr.Literal
		if err := p.next(); err != nil {
			return nil, err
		}
		return Literal{Value: String(lit)}, nil
	case p.is(Str):
		lit := p.curr.Literal
		if err := p.next(); err != nil {
			return nil, err
		}
		return Literal{Value: String(lit)}, nil
	case p.is(LParen):
		if err := p.next(); err != nil {
			return nil, err
		}
		expr, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RParen); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.unexpected("an object key")
	}
}

func (p *Parser) is(kind rune) bool {
	return p.curr.Type == kind
}

func (p *Parser) next() error {
	return p.advance()
}

func (p *Parser) expect(kind rune) error {
	if !p.is(kind) {
		return p.unexpected(Token{Type: kind}.String())
	}
	return p.next()
}

func (p *Parser) unexpected(expected string) error {
	return &ParseError{Offset: p.curr.Offset, Got: p.curr.String(), Expected: expected}
}
