package eval

import (
	"fmt"

	"github.com/sdex/sdex/env"
)

// Eval evaluates expr against input in a fresh, empty environment and
// returns its output sequence in order. Evaluation is strict and
// fail-fast: the first error encountered aborts the whole sequence,
// discarding any outputs already produced for that branch.
func Eval(expr Expression, input Value) ([]Value, error) {
	return eval(expr, input, env.Empty[Value]())
}

func eval(expr Expression, input Value, ev *env.Env[Value]) ([]Value, error) {
	switch n := expr.(type) {
	case Identity:
		return []Value{input}, nil
	case Literal:
		return []Value{n.Value}, nil
	case Pipe:
		return evalPipe(n, input, ev)
	case Comma:
		return evalComma(n, input, ev)
	case ArrayCons:
		return evalArrayCons(n, input, ev)
	case ObjectCons:
		return evalObjectCons(n, input, ev)
	case FieldAccess:
		return evalFieldAccess(n, input, ev)
	case IndexAccess:
		return evalIndexAccess(n, input, ev)
	case Slice:
		return evalSlice(n, input, ev)
	case Iterate:
		return evalIterate(n, input, ev)
	case BinaryExpr:
		return evalBinaryExpr(n, input, ev)
	case UnaryExpr:
		return evalUnaryExpr(n, input, ev)
	case Assign:
		return evalAssign(n, input, ev)
	case UpdateAssign:
		return evalUpdateAssign(n, input, ev)
	case Builtin:
		return evalBuiltin(n, input, ev)
	default:
		return nil, fmt.Errorf("%T: unsupported expression", expr)
	}
}

func evalPipe(n Pipe, input Value, ev *env.Env[Value]) ([]Value, error) {
	lefts, err := eval(n.Lhs, input, ev)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, l := range lefts {
		rights, err := eval(n.Rhs, l, ev)
		if err != nil {
			return nil, err
		}
		out = append(out, rights...)
	}
	return out, nil
}

func evalComma(n Comma, input Value, ev *env.Env[Value]) ([]Value, error) {
	lefts, err := eval(n.Lhs, input, ev)
	if err != nil {
		return nil, err
	}
	rights, err := eval(n.Rhs, input, ev)
	if err != nil {
		return nil, err
	}
	return append(lefts, rights...), nil
}

func evalArrayCons(n ArrayCons, input Value, ev *env.Env[Value]) ([]Value, error) {
	if n.Inner == nil {
		return []Value{NewArray(nil)}, nil
	}
	items, err := eval(n.Inner, input, ev)
	if err != nil {
		return nil, err
	}
	return []Value{NewArray(items)}, nil
}

// evalObjectCons builds the cross product of every entry's key and
// value output sequences, per entry, left to right.
func evalObjectCons(n ObjectCons, input Value, ev *env.Env[Value]) ([]Value, error) {
	results := []Object{NewObject()}
	for _, entry := range n.Entries {
		keys, err := eval(entry.Key, input, ev)
		if err != nil {
			return nil, err
		}
		vals, err := eval(entry.Value, input, ev)
		if err != nil {
			return nil, err
		}
		var next []Object
		for _, base := range results {
			for _, k := range keys {
				ks, ok := k.(String)
				if !ok {
					return nil, unsupportedKind("object key", k)
				}
				for _, v := range vals {
					next = append(next, base.Set(string(ks), v))
				}
			}
		}
		results = next
	}
	out := make([]Value, len(results))
	for i, r := range results {
		out[i] = r
	}
	return out, nil
}

func evalFieldAccess(n FieldAccess, input Value, ev *env.Env[Value]) ([]Value, error) {
	targets, err := eval(n.Target, input, ev)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, t := range targets {
		switch v := t.(type) {
		case Object:
			val, ok := v.Get(n.Field)
			if !ok {
				val = Null{}
			}
			out = append(out, val)
		case Null:
			out = append(out, Null{})
		default:
			return nil, typeErrorf(".", "cannot index %s with %q", v.Kind(), n.Field)
		}
	}
	return out, nil
}

func evalIndexAccess(n IndexAccess, input Value, ev *env.Env[Value]) ([]Value, error) {
	targets, err := eval(n.Target, input, ev)
	if err != nil {
		return nil, err
	}
	indexes, err := eval(n.Index, input, ev)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, t := range targets {
		for _, idx := range indexes {
			v, err := indexValue(t, idx)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func indexValue(target, idx Value) (Value, error) {
	switch t := target.(type) {
	case Array:
		n, ok := idx.(Number)
		if !ok {
			return nil, unsupportedKind("[]", idx)
		}
		i := int(n.Int64())
		if i < 0 {
			i += t.Len()
		}
		if i < 0 || i >= t.Len() {
			return Null{}, nil
		}
		return t.At(i), nil
	case Object:
		s, ok := idx.(String)
		if !ok {
			return nil, unsupportedKind("[]", idx)
		}
		v, ok := t.Get(string(s))
		if !ok {
			return Null{}, nil
		}
		return v, nil
	case Null:
		return Null{}, nil
	default:
		return nil, unsupportedKind("[]", target)
	}
}

func evalSlice(n Slice, input Value, ev *env.Env[Value]) ([]Value, error) {
	targets, err := eval(n.Target, input, ev)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, t := range targets {
		lo, hi, err := sliceBounds(n, t, input, ev)
		if err != nil {
			return nil, err
		}
		v, err := sliceValue(t, lo, hi)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func sliceBounds(n Slice, target, input Value, ev *env.Env[Value]) (int, int, error) {
	length, err := sliceLen(target)
	if err != nil {
		return 0, 0, err
	}
	lo, hi := 0, length
	if n.Lo != nil {
		vs, err := eval(n.Lo, input, ev)
		if err != nil {
			return 0, 0, err
		}
		if len(vs) > 0 {
			num, ok := vs[0].(Number)
			if !ok {
				return 0, 0, unsupportedKind("[:]", vs[0])
			}
			lo = clampIndex(int(num.Int64()), length)
		}
	}
	if n.Hi != nil {
		vs, err := eval(n.Hi, input, ev)
		if err != nil {
			return 0, 0, err
		}
		if len(vs) > 0 {
			num, ok := vs[0].(Number)
			if !ok {
				return 0, 0, unsupportedKind("[:]", vs[0])
			}
			hi = clampIndex(int(num.Int64()), length)
		}
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi, nil
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func sliceLen(v Value) (int, error) {
	switch t := v.(type) {
	case Array:
		return t.Len(), nil
	case String:
		return len([]rune(string(t))), nil
	case Null:
		return 0, nil
	default:
		return 0, unsupportedKind("[:]", v)
	}
}

func sliceValue(v Value, lo, hi int) (Value, error) {
	switch t := v.(type) {
	case Array:
		items := t.Items()
		return NewArray(append([]Value{}, items[lo:hi]...)), nil
	case String:
		r := []rune(string(t))
		return String(string(r[lo:hi])), nil
	case Null:
		return Null{}, nil
	default:
		return nil, unsupportedKind("[:]", v)
	}
}

func evalIterate(n Iterate, input Value, ev *env.Env[Value]) ([]Value, error) {
	targets, err := eval(n.Target, input, ev)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, t := range targets {
		switch v := t.(type) {
		case Array:
			out = append(out, v.Items()...)
		case Object:
			for _, k := range v.Keys() {
				val, _ := v.Get(k)
				out = append(out, val)
			}
		default:
			return nil, typeErrorf("[]", "cannot iterate over %s", v.Kind())
		}
	}
	return out, nil
}

func evalBinaryExpr(n BinaryExpr, input Value, ev *env.Env[Value]) ([]Value, error) {
	if n.Op == BinAlt {
		return evalAlt(n, input, ev)
	}
	lefts, err := eval(n.Lhs, input, ev)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, l := range lefts {
		switch n.Op {
		case BinAnd:
			if !l.True() {
				out = append(out, Bool(false))
				continue
			}
			rights, err := eval(n.Rhs, input, ev)
			if err != nil {
				return nil, err
			}
			for _, r := range rights {
				out = append(out, Bool(r.True()))
			}
			continue
		case BinOr:
			if l.True() {
				out = append(out, Bool(true))
				continue
			}
			rights, err := eval(n.Rhs, input, ev)
			if err != nil {
				return nil, err
			}
			for _, r := range rights {
				out = append(out, Bool(r.True()))
			}
			continue
		}
		rights, err := eval(n.Rhs, input, ev)
		if err != nil {
			return nil, err
		}
		for _, r := range rights {
			v, err := applyBinary(n.Op, l, r)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// evalAlt implements "lhs // rhs": lhs's truthy outputs if there are
// any and lhs did not error, otherwise rhs's outputs.
func evalAlt(n BinaryExpr, input Value, ev *env.Env[Value]) ([]Value, error) {
	lefts, err := eval(n.Lhs, input, ev)
	if err == nil {
		var truthy []Value
		for _, l := range lefts {
			if l.True() {
				truthy = append(truthy, l)
			}
		}
		if len(truthy) > 0 {
			return truthy, nil
		}
	}
	return eval(n.Rhs, input, ev)
}

func applyBinary(op BinaryOp, a, b Value) (Value, error) {
	switch op {
	case BinAdd:
		return applyAdd(a, b)
	case BinSub:
		return applySub(a, b)
	case BinMul:
		return applyMul(a, b)
	case BinDiv:
		return applyDiv(a, b)
	case BinMod:
		return applyMod(a, b)
	case BinEq:
		return Bool(Equal(a, b)), nil
	case BinNe:
		return Bool(!Equal(a, b)), nil
	case BinLt:
		return Bool(Compare(a, b) < 0), nil
	case BinLe:
		return Bool(Compare(a, b) <= 0), nil
	case BinGt:
		return Bool(Compare(a, b) > 0), nil
	case BinGe:
		return Bool(Compare(a, b) >= 0), nil
	default:
		return nil, fmt.Errorf("unsupported binary operator")
	}
}

func evalUnaryExpr(n UnaryExpr, input Value, ev *env.Env[Value]) ([]Value, error) {
	vals, err := eval(n.Arg, input, ev)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, v := range vals {
		switch n.Op {
		case UnaryNeg:
			num, ok := v.(Number)
			if !ok {
				return nil, unsupportedKind("-", v)
			}
			if num.IsInt() {
				out = append(out, Int(-num.Int64()))
			} else {
				out = append(out, Float(-num.Float64()))
			}
		case UnaryNot:
			out = append(out, Bool(!v.True()))
		}
	}
	return out, nil
}

func evalAssign(n Assign, input Value, ev *env.Env[Value]) ([]Value, error) {
	steps, err := resolvePath(n.Path)
	if err != nil {
		return nil, err
	}
	rhsVals, err := eval(n.Rhs, input, ev)
	if err != nil {
		return nil, err
	}
	paths, err := expandPaths(steps, input)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, rhs := range rhsVals {
		cur := input
		for _, p := range paths {
			cur, err = setAt(cur, p, rhs)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, cur)
	}
	return out, nil
}

func evalUpdateAssign(n UpdateAssign, input Value, ev *env.Env[Value]) ([]Value, error) {
	steps, err := resolvePath(n.Path)
	if err != nil {
		return nil, err
	}
	paths, err := expandPaths(steps, input)
	if err != nil {
		return nil, err
	}
	cur := input
	for _, p := range paths {
		old, err := getAt(cur, p)
		if err != nil {
			return nil, err
		}
		results, err := eval(n.Rhs, old, ev)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			continue
		}
		cur, err = setAt(cur, p, results[0])
		if err != nil {
			return nil, err
		}
	}
	return []Value{cur}, nil
}
