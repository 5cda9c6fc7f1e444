// Package yamlcodec decodes and encodes eval.Value trees as YAML
// using goccy/go-yaml. Decoding walks the library's ast package
// directly instead of unmarshaling into interface{} (which collapses
// mappings to an unordered map[string]interface{}), so that object
// key order survives the round trip. Encoding
// goes the other way through goccy's MapSlice/MapItem types, which
// the library marshals in the given order.
package yamlcodec

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/sdex/sdex/eval"
)

// Decode reads every "---"-separated document in r into a Value
// sequence.
func Decode(r io.Reader) ([]eval.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	file, err := parser.ParseBytes(data, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	out := make([]eval.Value, 0, len(file.Docs))
	for _, doc := range file.Docs {
		if doc.Body == nil {
			continue
		}
		v, err := fromNode(doc.Body)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		out = append(out, eval.Null{})
	}
	return out, nil
}

func fromNode(n ast.Node) (eval.Value, error) {
	switch node := n.(type) {
	case *ast.NullNode:
		return eval.Null{}, nil
	case *ast.BoolNode:
		return eval.Bool(node.Value), nil
	case *ast.IntegerNode:
		return fromIntegerNode(node)
	case *ast.FloatNode:
		return eval.Float(node.Value), nil
	case *ast.StringNode:
		return eval.String(node.Value), nil
	case *ast.LiteralNode:
		return eval.String(node.Value.Value), nil
	case *ast.MappingNode:
		return fromMappingNode(node)
	case *ast.MappingValueNode:
		obj := eval.NewObject()
		key, val, err := fromMappingValue(node)
		if err != nil {
			return nil, err
		}
		return obj.Set(key, val), nil
	case *ast.SequenceNode:
		items := make([]eval.Value, 0, len(node.Values))
		for _, c := range node.Values {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return eval.NewArray(items), nil
	case *ast.AnchorNode:
		return fromNode(node.Value)
	case *ast.TagNode:
		return fromNode(node.Value)
	case *ast.AliasNode:
		return nil, &eval.TypeError{Op: "yaml", Msg: "YAML aliases are not supported"}
	default:
		return nil, &eval.TypeError{Op: "yaml", Msg: fmt.Sprintf("unsupported YAML node %T", n)}
	}
}

func fromMappingNode(node *ast.MappingNode) (eval.Value, error) {
	obj := eval.NewObject()
	for _, mv := range node.Values {
		key, val, err := fromMappingValue(mv)
		if err != nil {
			return nil, err
		}
		obj = obj.Set(key, val)
	}
	return obj, nil
}

func fromMappingValue(mv *ast.MappingValueNode) (string, eval.Value, error) {
	keyStr, ok := mv.Key.(*ast.StringNode)
	if !ok {
		return "", nil, &eval.PathError{Msg: "YAML mapping keys must be strings"}
	}
	val, err := fromNode(mv.Value)
	if err != nil {
		return "", nil, err
	}
	return keyStr.Value, val, nil
}

func fromIntegerNode(node *ast.IntegerNode) (eval.Value, error) {
	switch v := node.Value.(type) {
	case int64:
		return eval.Int(v), nil
	case uint64:
		return eval.Int(int64(v)), nil
	case int:
		return eval.Int(int64(v)), nil
	default:
		return nil, fmt.Errorf("yaml: unsupported integer representation %T", node.Value)
	}
}

// Options controls YAML rendering. YAML output is always block-style;
// there is no compact/pretty distinction to carry from the CLI.
type Options struct {
	Indent   int
	NoDocSep bool
}

// Encode writes v to w as one YAML document.
func Encode(w io.Writer, v eval.Value, opts Options) error {
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	if !opts.NoDocSep {
		if _, err := io.WriteString(w, "---\n"); err != nil {
			return err
		}
	}
	enc := yaml.NewEncoder(w, yaml.Indent(indent))
	defer enc.Close()
	if err := enc.Encode(toGeneric(v)); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return nil
}

// toGeneric converts a Value into the plain Go shape goccy/go-yaml
// marshals, using yaml.MapSlice so object key order is preserved.
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
		slice := make(yaml.MapSlice, 0, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			slice = append(slice, yaml.MapItem{Key: k, Value: toGeneric(val)})
		}
		return slice
	default:
		return nil
	}
}
