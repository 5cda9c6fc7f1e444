package eval

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sdex/sdex/env"
)

// evalBuiltin dispatches a Builtin node. Most built-ins are
// single-value: they read their (possibly evaluated) arguments and
// produce exactly one output from the current input.
// map/filter/select/group_by are the multi-output exceptions and get
// their own evalXxx helpers below.
func evalBuiltin(n Builtin, input Value, ev *env.Env[Value]) ([]Value, error) {
	switch n.Name {
	case "keys":
		return builtinKeys(input)
	case "length":
		return builtinLength(input)
	case "type":
		return []Value{String(input.Kind().String())}, nil
	case "has":
		return evalHas(n, input, ev)
	case "sort":
		return builtinSort(input)
	case "reverse":
		return builtinReverse(input)
	case "unique":
		return builtinUnique(input)
	case "flatten":
		return builtinFlatten(input)
	case "first":
		return builtinFirst(input)
	case "last":
		return builtinLast(input)
	case "add":
		return builtinAdd(input)
	case "tostring":
		return []Value{String(displayString(input))}, nil
	case "tonumber":
		return builtinToNumber(input)
	case "env":
		return evalEnvBuiltin(n, input, ev)
	case "map":
		return evalMap(n, input, ev)
	case "filter":
		return evalFilter(n, input, ev)
	case "select":
		return evalSelect(n, input, ev)
	case "group_by":
		return evalGroupBy(n, input, ev)
	case "empty":
		return nil, nil
	case "not":
		return []Value{Bool(!input.True())}, nil
	case "values":
		if isNull(input) {
			return nil, nil
		}
		return []Value{input}, nil
	case "min":
		return builtinExtreme(input, -1)
	case "max":
		return builtinExtreme(input, 1)
	case "to_entries":
		return builtinToEntries(input)
	case "from_entries":
		return builtinFromEntries(input)
	case "contains":
		return evalContains(n, input, ev)
	case "ltrimstr":
		return evalTrimstr(n, input, ev, true)
	case "rtrimstr":
		return evalTrimstr(n, input, ev, false)
	default:
		return nil, typeErrorf(n.Name, "unknown built-in")
	}
}

func builtinKeys(input Value) ([]Value, error) {
	switch v := input.(type) {
	case Object:
		keys := v.Keys()
		sort.Strings(keys)
		items := make([]Value, len(keys))
		for i, k := range keys {
			items[i] = String(k)
		}
		return []Value{NewArray(items)}, nil
	case Array:
		items := make([]Value, v.Len())
		for i := range items {
			items[i] = Int(int64(i))
		}
		return []Value{NewArray(items)}, nil
	default:
		return nil, unsupportedKind("keys", input)
	}
}

func builtinLength(input Value) ([]Value, error) {
	switch v := input.(type) {
	case Null:
		return []Value{Int(0)}, nil
	case String:
		return []Value{Int(int64(len([]rune(string(v)))))}, nil
	case Array:
		return []Value{Int(int64(v.Len()))}, nil
	case Object:
		return []Value{Int(int64(v.Len()))}, nil
	case Number:
		if v.IsInt() {
			n := v.Int64()
			if n < 0 {
				n = -n
			}
			return []Value{Int(n)}, nil
		}
		f := v.Float64()
		if f < 0 {
			f = -f
		}
		return []Value{Int(int64(f))}, nil
	default:
		return nil, unsupportedKind("length", input)
	}
}

func evalHas(n Builtin, input Value, ev *env.Env[Value]) ([]Value, error) {
	target, key, err := evalPair(n, "has", input, ev)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case Object:
		ks, ok := key.(String)
		if !ok {
			return nil, unsupportedKind("has", key)
		}
		_, present := t.Get(string(ks))
		return []Value{Bool(present)}, nil
	case Array:
		num, ok := key.(Number)
		if !ok {
			return nil, unsupportedKind("has", key)
		}
		i := int(num.Int64())
		return []Value{Bool(i >= 0 && i < t.Len())}, nil
	default:
		return nil, unsupportedKind("has", target)
	}
}

// evalPair evaluates a two-arg builtin's arguments against input,
// taking each argument's first output.
func evalPair(n Builtin, name string, input Value, ev *env.Env[Value]) (Value, Value, error) {
	if len(n.Args) != 2 {
		return nil, nil, typeErrorf(name, "expected 2 arguments")
	}
	a, err := firstOf(n.Args[0], input, ev)
	if err != nil {
		return nil, nil, err
	}
	b, err := firstOf(n.Args[1], input, ev)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func firstOf(expr Expression, input Value, ev *env.Env[Value]) (Value, error) {
	vals, err := eval(expr, input, ev)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return Null{}, nil
	}
	return vals[0], nil
}

func builtinSort(input Value) ([]Value, error) {
	arr, ok := input.(Array)
	if !ok {
		return nil, unsupportedKind("sort", input)
	}
	items := arr.clone()
	sort.SliceStable(items, func(i, j int) bool {
		return Compare(items[i], items[j]) < 0
	})
	return []Value{NewArray(items)}, nil
}

func builtinReverse(input Value) ([]Value, error) {
	switch v := input.(type) {
	case Array:
		items := v.clone()
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return []Value{NewArray(items)}, nil
	case String:
		r := []rune(string(v))
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return []Value{String(string(r))}, nil
	default:
		return nil, unsupportedKind("reverse", input)
	}
}

func builtinUnique(input Value) ([]Value, error) {
	sorted, err := builtinSort(input)
	if err != nil {
		return nil, err
	}
	items := sorted[0].(Array).Items()
	var out []Value
	for i, v := range items {
		if i == 0 || !Equal(v, items[i-1]) {
			out = append(out, v)
		}
	}
	return []Value{NewArray(out)}, nil
}

func builtinFlatten(input Value) ([]Value, error) {
	arr, ok := input.(Array)
	if !ok {
		return nil, unsupportedKind("flatten", input)
	}
	var out []Value
	for _, item := range arr.Items() {
		if inner, ok := item.(Array); ok {
			out = append(out, inner.Items()...)
			continue
		}
		out = append(out, item)
	}
	return []Value{NewArray(out)}, nil
}

func builtinFirst(input Value) ([]Value, error) {
	arr, ok := input.(Array)
	if !ok {
		return nil, unsupportedKind("first", input)
	}
	if arr.Len() == 0 {
		return []Value{Null{}}, nil
	}
	return []Value{arr.At(0)}, nil
}

func builtinLast(input Value) ([]Value, error) {
	arr, ok := input.(Array)
	if !ok {
		return nil, unsupportedKind("last", input)
	}
	if arr.Len() == 0 {
		return []Value{Null{}}, nil
	}
	return []Value{arr.At(arr.Len() - 1)}, nil
}

func builtinAdd(input Value) ([]Value, error) {
	arr, ok := input.(Array)
	if !ok {
		return nil, unsupportedKind("add", input)
	}
	var sum Value = Null{}
	for _, item := range arr.Items() {
		var err error
		sum, err = applyAdd(sum, item)
		if err != nil {
			return nil, err
		}
	}
	return []Value{sum}, nil
}

func builtinToNumber(input Value) ([]Value, error) {
	switch v := input.(type) {
	case Number:
		return []Value{v}, nil
	case String:
		s := string(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return []Value{Int(i)}, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &ArithError{Msg: "tonumber: " + s + " is not a number"}
		}
		return []Value{Float(f)}, nil
	default:
		return nil, unsupportedKind("tonumber", input)
	}
}

// displayString renders v as tostring does: strings pass through
// unquoted, everything else renders as its compact JSON form.
func displayString(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	var b strings.Builder
	writeCompactJSON(&b, v)
	return b.String()
}

func writeCompactJSON(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case String:
		quoted, _ := json.Marshal(string(t))
		b.Write(quoted)
	case Array:
		b.WriteByte('[')
		for i, item := range t.Items() {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCompactJSON(b, item)
		}
		b.WriteByte(']')
	case Object:
		b.WriteByte('{')
		for i, k := range t.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			quoted, _ := json.Marshal(k)
			b.Write(quoted)
			b.WriteByte(':')
			val, _ := t.Get(k)
			writeCompactJSON(b, val)
		}
		b.WriteByte('}')
	default:
		b.WriteString(v.String())
	}
}

func evalEnvBuiltin(n Builtin, input Value, ev *env.Env[Value]) ([]Value, error) {
	if len(n.Args) != 1 {
		return nil, typeErrorf("env", "expected 1 argument")
	}
	name, err := firstOf(n.Args[0], input, ev)
	if err != nil {
		return nil, err
	}
	key, ok := name.(String)
	if !ok {
		return nil, unsupportedKind("env", name)
	}
	if val, ok := os.LookupEnv(string(key)); ok {
		return []Value{String(val)}, nil
	}
	return []Value{Null{}}, nil
}

func evalMap(n Builtin, input Value, ev *env.Env[Value]) ([]Value, error) {
	if len(n.Args) != 2 {
		return nil, typeErrorf("map", "expected 2 arguments")
	}
	arr, err := arrayArg(n.Args[0], "map", input, ev)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, elem := range arr.Items() {
		vals, err := eval(n.Args[1], elem, ev)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return []Value{NewArray(out)}, nil
}

func evalFilter(n Builtin, input Value, ev *env.Env[Value]) ([]Value, error) {
	if len(n.Args) != 2 {
		return nil, typeErrorf("filter", "expected 2 arguments")
	}
	arr, err := arrayArg(n.Args[0], "filter", input, ev)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, elem := range arr.Items() {
		keep, err := firstOf(n.Args[1], elem, ev)
		if err != nil {
			return nil, err
		}
		if keep.True() {
			out = append(out, elem)
		}
	}
	return []Value{NewArray(out)}, nil
}

func evalSelect(n Builtin, input Value, ev *env.Env[Value]) ([]Value, error) {
	if len(n.Args) != 1 {
		return nil, typeErrorf("select", "expected 1 argument")
	}
	pred, err := firstOf(n.Args[0], input, ev)
	if err != nil {
		return nil, err
	}
	if pred.True() {
		return []Value{input}, nil
	}
	return nil, nil
}

func evalGroupBy(n Builtin, input Value, ev *env.Env[Value]) ([]Value, error) {
	if len(n.Args) != 2 {
		return nil, typeErrorf("group_by", "expected 2 arguments")
	}
	arr, err := arrayArg(n.Args[0], "group_by", input, ev)
	if err != nil {
		return nil, err
	}
	type pair struct {
		key  Value
		item Value
	}
	pairs := make([]pair, arr.Len())
	for i, elem := range arr.Items() {
		key, err := firstOf(n.Args[1], elem, ev)
		if err != nil {
			return nil, err
		}
		pairs[i] = pair{key: key, item: elem}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return Compare(pairs[i].key, pairs[j].key) < 0
	})
	var groups []Value
	var cur []Value
	for i, p := range pairs {
		if i > 0 && !Equal(p.key, pairs[i-1].key) {
			groups = append(groups, NewArray(cur))
			cur = nil
		}
		cur = append(cur, p.item)
	}
	if cur != nil {
		groups = append(groups, NewArray(cur))
	}
	return []Value{NewArray(groups)}, nil
}

func arrayArg(expr Expression, name string, input Value, ev *env.Env[Value]) (Array, error) {
	v, err := firstOf(expr, input, ev)
	if err != nil {
		return Array{}, err
	}
	arr, ok := v.(Array)
	if !ok {
		return Array{}, unsupportedKind(name, v)
	}
	return arr, nil
}

func builtinExtreme(input Value, want int) ([]Value, error) {
	arr, ok := input.(Array)
	if !ok {
		return nil, unsupportedKind("min/max", input)
	}
	if arr.Len() == 0 {
		return []Value{Null{}}, nil
	}
	best := arr.At(0)
	for _, item := range arr.Items()[1:] {
		c := Compare(item, best)
		if (want < 0 && c < 0) || (want > 0 && c > 0) {
			best = item
		}
	}
	return []Value{best}, nil
}

func builtinToEntries(input Value) ([]Value, error) {
	obj, ok := input.(Object)
	if !ok {
		return nil, unsupportedKind("to_entries", input)
	}
	var out []Value
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		entry := NewObject().Set("key", String(k)).Set("value", v)
		out = append(out, entry)
	}
	return []Value{NewArray(out)}, nil
}

func builtinFromEntries(input Value) ([]Value, error) {
	arr, ok := input.(Array)
	if !ok {
		return nil, unsupportedKind("from_entries", input)
	}
	out := NewObject()
	for _, item := range arr.Items() {
		entry, ok := item.(Object)
		if !ok {
			return nil, unsupportedKind("from_entries", item)
		}
		key := entryField(entry, "key", "name", "k")
		val := entryField(entry, "value", "val", "v")
		ks, ok := key.(String)
		if !ok {
			return nil, unsupportedKind("from_entries", key)
		}
		out = out.Set(string(ks), val)
	}
	return []Value{out}, nil
}

// entryField returns the first of candidates present in o, or Null if
// none are, matching jq's key/name/k and value/val/v aliases.
func entryField(o Object, candidates ...string) Value {
	for _, c := range candidates {
		if v, ok := o.Get(c); ok {
			return v
		}
	}
	return Null{}
}

func evalContains(n Builtin, input Value, ev *env.Env[Value]) ([]Value, error) {
	if len(n.Args) != 1 {
		return nil, typeErrorf("contains", "expected 1 argument")
	}
	needle, err := firstOf(n.Args[0], input, ev)
	if err != nil {
		return nil, err
	}
	return []Value{Bool(containsValue(input, needle))}, nil
}

func containsValue(container, needle Value) bool {
	switch n := needle.(type) {
	case String:
		s, ok := container.(String)
		return ok && strings.Contains(string(s), string(n))
	case Array:
		c, ok := container.(Array)
		if !ok {
			return false
		}
		for _, ne := range n.Items() {
			found := false
			for _, ce := range c.Items() {
				if containsValue(ce, ne) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case Object:
		c, ok := container.(Object)
		if !ok {
			return false
		}
		for _, k := range n.Keys() {
			nv, _ := n.Get(k)
			cv, ok := c.Get(k)
			if !ok || !containsValue(cv, nv) {
				return false
			}
		}
		return true
	default:
		return Equal(container, needle)
	}
}

func evalTrimstr(n Builtin, input Value, ev *env.Env[Value], left bool) ([]Value, error) {
	name := "rtrimstr"
	if left {
		name = "ltrimstr"
	}
	if len(n.Args) != 1 {
		return nil, typeErrorf(name, "expected 1 argument")
	}
	affix, err := firstOf(n.Args[0], input, ev)
	if err != nil {
		return nil, err
	}
	s, ok := input.(String)
	if !ok {
		return []Value{input}, nil
	}
	a, ok := affix.(String)
	if !ok {
		return []Value{input}, nil
	}
	if left {
		return []Value{String(strings.TrimPrefix(string(s), string(a)))}, nil
	}
	return []Value{String(strings.TrimSuffix(string(s), string(a)))}, nil
}
