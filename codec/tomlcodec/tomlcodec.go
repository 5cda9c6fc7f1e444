// Package tomlcodec decodes and encodes eval.Value trees as TOML
// using pelletier/go-toml/v2. TOML has exactly one document per
// stream; table ordering beyond go-toml's own canonical output is
// not preserved.
package tomlcodec

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/sdex/sdex/eval"
)

// Decode reads the single TOML document in r.
func Decode(r io.Reader) ([]eval.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return []eval.Value{fromGeneric(raw)}, nil
}

func fromGeneric(v any) eval.Value {
	switch t := v.(type) {
	case nil:
		return eval.Null{}
	case bool:
		return eval.Bool(t)
	case int64:
		return eval.Int(t)
	case int:
		return eval.Int(int64(t))
	case float64:
		return eval.Float(t)
	case string:
		return eval.String(t)
	case []any:
		items := make([]eval.Value, len(t))
		for i, item := range t {
			items[i] = fromGeneric(item)
		}
		return eval.NewArray(items)
	case map[string]any:
		// go-toml hands tables back as plain maps; sort the keys so
		// repeated decodes of the same document yield the same tree.
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := eval.NewObject()
		for _, k := range keys {
			obj = obj.Set(k, fromGeneric(t[k]))
		}
		return obj
	default:
		return eval.String(fmt.Sprintf("%v", t))
	}
}

// Encode writes v to w as a TOML document. v must be an Object, since
// TOML has no bare top-level scalar or array form.
func Encode(w io.Writer, v eval.Value) error {
	obj, ok := v.(eval.Object)
	if !ok {
		return &eval.TypeError{Op: "toml", Msg: "TOML output requires a top-level object, got " + v.Kind().String()}
	}
	out := toGeneric(obj).(map[string]any)
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("toml: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func toGeneric(v eval.Value) any {
	switch t := v.(type) {
	case eval.Null:
		return nil
	case eval.Bool:
		return bool(t)
	case eval.Number:
		if t.IsInt() {
			return t.Int64()
		}
		return t.Float64()
	case eval.String:
		return string(t)
	case eval.Array:
		items := t.Items()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toGeneric(item)
		}
		return out
	case eval.Object:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out[k] = toGeneric(val)
		}
		return out
	default:
		return nil
	}
}
