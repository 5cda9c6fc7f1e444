package eval

// stepKind discriminates the step variants of an assignment path.
type stepKind int

const (
	stepField stepKind = iota
	stepIndex
	stepSlice
	stepWildcard
)

// step is one resolved element of an assignment path: a named object
// field, a numeric array index, a [lo:hi] range, or a wildcard that
// expands to every element/key found at that position in a concrete
// root value.
type step struct {
	kind  stepKind
	field string
	index int
	lo    *int
	hi    *int
}

// resolvePath walks expr, which must be built only from Identity,
// FieldAccess, IndexAccess, Slice and Iterate nodes, and returns the
// sequence of steps from the root to the leaf. Any other node shape
// is not a valid assignment target.
func resolvePath(expr Expression) ([]step, error) {
	switch n := expr.(type) {
	case Identity:
		return nil, nil
	case FieldAccess:
		base, err := resolvePath(n.Target)
		if err != nil {
			return nil, err
		}
		return append(base, step{kind: stepField, field: n.Field}), nil
	case IndexAccess:
		base, err := resolvePath(n.Target)
		if err != nil {
			return nil, err
		}
		if num, ok := literalNumber(n.Index); ok {
			return append(base, step{kind: stepIndex, index: num}), nil
		}
		if lit, ok := n.Index.(Literal); ok {
			if s, ok := lit.Value.(String); ok {
				return append(base, step{kind: stepField, field: string(s)}), nil
			}
		}
		return nil, &PathError{Msg: "index in an assignment path must be a literal number or string"}
	case Slice:
		base, err := resolvePath(n.Target)
		if err != nil {
			return nil, err
		}
		st := step{kind: stepSlice}
		if st.lo, err = sliceBound(n.Lo); err != nil {
			return nil, err
		}
		if st.hi, err = sliceBound(n.Hi); err != nil {
			return nil, err
		}
		return append(base, st), nil
	case Iterate:
		base, err := resolvePath(n.Target)
		if err != nil {
			return nil, err
		}
		return append(base, step{kind: stepWildcard}), nil
	default:
		return nil, &PathError{Msg: "not a valid assignment target"}
	}
}

func sliceBound(expr Expression) (*int, error) {
	if expr == nil {
		return nil, nil
	}
	n, ok := literalNumber(expr)
	if !ok {
		return nil, &PathError{Msg: "slice bound in an assignment path must be a literal number"}
	}
	return &n, nil
}

// literalNumber matches a literal number, possibly under a unary
// minus, which is how the parser represents a negative index.
func literalNumber(expr Expression) (int, bool) {
	neg := false
	if u, ok := expr.(UnaryExpr); ok && u.Op == UnaryNeg {
		neg = true
		expr = u.Arg
	}
	lit, ok := expr.(Literal)
	if !ok {
		return 0, false
	}
	num, ok := lit.Value.(Number)
	if !ok {
		return 0, false
	}
	n := int(num.Int64())
	if neg {
		n = -n
	}
	return n, true
}

// expandPaths resolves steps against root, expanding every wildcard
// step into one concrete path per element or key found at that point.
func expandPaths(steps []step, root Value) ([][]step, error) {
	paths := [][]step{{}}
	for _, st := range steps {
		var next [][]step
		for _, p := range paths {
			v, err := getAt(root, p)
			if err != nil {
				return nil, err
			}
			if st.kind != stepWildcard {
				next = append(next, appendStep(p, st))
				continue
			}
			switch vv := v.(type) {
			case Array:
				for idx := range vv.Items() {
					next = append(next, appendStep(p, step{kind: stepIndex, index: idx}))
				}
			case Object:
				for _, k := range vv.Keys() {
					next = append(next, appendStep(p, step{kind: stepField, field: k}))
				}
			case Null:
				// iterating a null at assignment time yields no targets
			default:
				return nil, &PathError{Msg: "cannot iterate over " + v.Kind().String() + " in an assignment path"}
			}
		}
		paths = next
	}
	return paths, nil
}

func appendStep(path []step, st step) []step {
	out := make([]step, len(path)+1)
	copy(out, path)
	out[len(path)] = st
	return out
}

// getAt reads the value found by following path from root, treating
// a missing field or an out-of-range index as null.
func getAt(root Value, path []step) (Value, error) {
	v := root
	for _, st := range path {
		switch st.kind {
		case stepField:
			obj, ok := v.(Object)
			if !ok {
				if isNull(v) {
					v = Null{}
					continue
				}
				return nil, &PathError{Msg: "cannot index " + v.Kind().String() + " with a field name"}
			}
			val, ok := obj.Get(st.field)
			if !ok {
				val = Null{}
			}
			v = val
		case stepIndex:
			arr, ok := v.(Array)
			if !ok {
				if isNull(v) {
					v = Null{}
					continue
				}
				return nil, &PathError{Msg: "cannot index " + v.Kind().String() + " with a number"}
			}
			idx := st.index
			if idx < 0 {
				idx += arr.Len()
			}
			v = arr.At(idx)
		case stepSlice:
			arr, ok := v.(Array)
			if !ok {
				if isNull(v) {
					v = Null{}
					continue
				}
				return nil, &PathError{Msg: "cannot slice " + v.Kind().String()}
			}
			lo, hi := sliceRange(st, arr.Len())
			v = NewArray(append([]Value{}, arr.Items()[lo:hi]...))
		}
	}
	return v, nil
}

// sliceRange clamps a slice step's bounds to [0, length], resolving
// negatives from the end, the same rules the slice operator uses.
func sliceRange(st step, length int) (int, int) {
	lo, hi := 0, length
	if st.lo != nil {
		lo = clampIndex(*st.lo, length)
	}
	if st.hi != nil {
		hi = clampIndex(*st.hi, length)
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// setAt returns a copy of root with path rebound to newVal, creating
// intermediate objects and arrays (and padding arrays with null) as
// needed to reach the leaf. Assigning to a negative index is an error.
func setAt(root Value, path []step, newVal Value) (Value, error) {
	if len(path) == 0 {
		return newVal, nil
	}
	st := path[0]
	rest := path[1:]
	switch st.kind {
	case stepField:
		obj, ok := root.(Object)
		if !ok {
			if isNull(root) {
				obj = NewObject()
			} else {
				return nil, &PathError{Msg: "cannot set a field on " + root.Kind().String()}
			}
		}
		cur, ok := obj.Get(st.field)
		if !ok {
			cur = Null{}
		}
		updated, err := setAt(cur, rest, newVal)
		if err != nil {
			return nil, err
		}
		return obj.Set(st.field, updated), nil
	case stepIndex:
		arr, ok := root.(Array)
		if !ok {
			if isNull(root) {
				arr = NewArray(nil)
			} else {
				return nil, &PathError{Msg: "cannot set an index on " + root.Kind().String()}
			}
		}
		if st.index < 0 {
			return nil, &PathError{Msg: "cannot assign to a negative index"}
		}
		items := arr.clone()
		for len(items) <= st.index {
			items = append(items, Null{})
		}
		updated, err := setAt(items[st.index], rest, newVal)
		if err != nil {
			return nil, err
		}
		items[st.index] = updated
		return arr.withItems(items), nil
	case stepSlice:
		arr, ok := root.(Array)
		if !ok {
			if isNull(root) {
				arr = NewArray(nil)
			} else {
				return nil, &PathError{Msg: "cannot slice " + root.Kind().String()}
			}
		}
		lo, hi := sliceRange(st, arr.Len())
		old := NewArray(append([]Value{}, arr.Items()[lo:hi]...))
		updated, err := setAt(old, rest, newVal)
		if err != nil {
			return nil, err
		}
		repl, ok := updated.(Array)
		if !ok {
			return nil, &PathError{Msg: "slice assignment requires an array value, got " + updated.Kind().String()}
		}
		items := append([]Value{}, arr.Items()[:lo]...)
		items = append(items, repl.Items()...)
		items = append(items, arr.Items()[hi:]...)
		return arr.withItems(items), nil
	default:
		return nil, &PathError{Msg: "not a valid assignment target"}
	}
}
