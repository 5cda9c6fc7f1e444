package eval

func numAdd(a, b Number) Number {
	if a.IsInt() && b.IsInt() {
		return Int(a.Int64() + b.Int64())
	}
	return Float(a.Float64() + b.Float64())
}

func numSub(a, b Number) Number {
	if a.IsInt() && b.IsInt() {
		return Int(a.Int64() - b.Int64())
	}
	return Float(a.Float64() - b.Float64())
}

func numMul(a, b Number) Number {
	if a.IsInt() && b.IsInt() {
		return Int(a.Int64() * b.Int64())
	}
	return Float(a.Float64() * b.Float64())
}

func numDiv(a, b Number) (Value, error) {
	if b.Float64() == 0 {
		return nil, &ArithError{Msg: "division by zero"}
	}
	return Float(a.Float64() / b.Float64()), nil
}

func numMod(a, b Number) (Value, error) {
	bi := b.Int64()
	if bi == 0 {
		return nil, &ArithError{Msg: "division by zero"}
	}
	return Int(a.Int64() % bi), nil
}

func mergeObjects(a, b Object) Object {
	out := a
	for _, k := range b.Keys() {
		v, _ := b.Get(k)
		out = out.Set(k, v)
	}
	return out
}

func isNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// applyAdd implements "+": null is the identity on either side,
// numbers add, strings concatenate, arrays concatenate and objects
// merge with the right-hand side winning conflicting keys.
func applyAdd(a, b Value) (Value, error) {
	switch {
	case isNull(a):
		return b, nil
	case isNull(b):
		return a, nil
	}
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return nil, incompatibleKinds("+", a, b)
		}
		return numAdd(av, bv), nil
	case String:
		bv, ok := b.(String)
		if !ok {
			return nil, incompatibleKinds("+", a, b)
		}
		return av + bv, nil
	case Array:
		bv, ok := b.(Array)
		if !ok {
			return nil, incompatibleKinds("+", a, b)
		}
		items := append(av.clone(), bv.Items()...)
		return NewArray(items), nil
	case Object:
		bv, ok := b.(Object)
		if !ok {
			return nil, incompatibleKinds("+", a, b)
		}
		return mergeObjects(av, bv), nil
	default:
		return nil, unsupportedKind("+", a)
	}
}

// applySub implements "-": numeric subtraction, and array difference
// which drops every element of a that equals some element of b.
func applySub(a, b Value) (Value, error) {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return nil, incompatibleKinds("-", a, b)
		}
		return numSub(av, bv), nil
	case Array:
		bv, ok := b.(Array)
		if !ok {
			return nil, incompatibleKinds("-", a, b)
		}
		var out []Value
		for _, item := range av.Items() {
			found := false
			for _, rem := range bv.Items() {
				if Equal(item, rem) {
					found = true
					break
				}
			}
			if !found {
				out = append(out, item)
			}
		}
		return NewArray(out), nil
	default:
		return nil, unsupportedKind("-", a)
	}
}

// applyMul implements "*": numeric multiplication only.
func applyMul(a, b Value) (Value, error) {
	av, ok := a.(Number)
	if !ok {
		return nil, unsupportedKind("*", a)
	}
	bv, ok := b.(Number)
	if !ok {
		return nil, incompatibleKinds("*", a, b)
	}
	return numMul(av, bv), nil
}

// applyDiv implements "/": numeric division only; division by zero is
// an ArithError.
func applyDiv(a, b Value) (Value, error) {
	av, ok := a.(Number)
	if !ok {
		return nil, unsupportedKind("/", a)
	}
	bv, ok := b.(Number)
	if !ok {
		return nil, incompatibleKinds("/", a, b)
	}
	return numDiv(av, bv)
}

// applyMod implements "%": truncating integer modulo.
func applyMod(a, b Value) (Value, error) {
	av, ok := a.(Number)
	if !ok {
		return nil, unsupportedKind("%", a)
	}
	bv, ok := b.(Number)
	if !ok {
		return nil, incompatibleKinds("%", a, b)
	}
	return numMod(av, bv)
}
